package config

import "log"

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}

// MustValid stops the process on settings that cannot work together.
func (c *Config) MustValid() {
	MustNonEmptyBytes(c.JWTSecret, "JWT_SECRET")
	switch c.StoreBackend {
	case BackendPostgres:
		MustNonEmpty(c.DatabaseURL, "DATABASE_URL")
	case BackendElasticsearch:
		MustNonEmpty(c.ESURL, "ES_URL")
	default:
		log.Fatalf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
}
