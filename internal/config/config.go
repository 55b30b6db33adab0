package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendPostgres      = "postgres"
	BackendElasticsearch = "elasticsearch"
)

type Config struct {
	ServiceName string
	ServerPort  int
	LogLevel    string

	StoreBackend string
	DatabaseURL  string

	ESURL                string
	ESUser               string
	ESPassword           string
	ESInsecureSkipVerify bool
	UsersIndex           string
	RefreshTokensIndex   string
	ProductsIndex        string
	OrderItemsIndex      string

	JWTSecret       []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	ResetTokenTTL   time.Duration

	KafkaBrokers    []string
	UserEventsTopic string
	EventTimeout    time.Duration

	AuthRateLimit float64
	AuthRateBurst int
}

func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	return &Config{
		ServiceName: EnvDefault("SERVICE_NAME", "recommend_shop"),
		ServerPort:  EnvIntDefault("SERVER_PORT", 3008),
		LogLevel:    EnvDefault("LOG_LEVEL", "info"),

		StoreBackend: strings.ToLower(EnvDefault("STORE_BACKEND", BackendPostgres)),
		DatabaseURL:  os.Getenv("DATABASE_URL"),

		ESURL:                EnvDefault("ES_URL", "http://localhost:9200"),
		ESUser:               os.Getenv("ES_USER"),
		ESPassword:           os.Getenv("ES_PASSWORD"),
		ESInsecureSkipVerify: EnvBoolDefault("ES_INSECURE_SKIP_VERIFY", false),
		UsersIndex:           EnvDefault("USERS_INDEX", "users"),
		RefreshTokensIndex:   EnvDefault("REFRESH_TOKENS_INDEX", "refresh_tokens"),
		ProductsIndex:        EnvDefault("PRODUCTS_INDEX", "products-history-vectors"),
		OrderItemsIndex:      EnvDefault("ORDER_ITEMS_INDEX", "order_items"),

		JWTSecret:       []byte(os.Getenv("JWT_SECRET")),
		AccessTokenTTL:  EnvDurationDefault("ACCESS_TOKEN_TTL", 15*time.Minute),
		RefreshTokenTTL: EnvDurationDefault("REFRESH_TOKEN_TTL", 7*24*time.Hour),
		ResetTokenTTL:   EnvDurationDefault("RESET_TOKEN_TTL", time.Hour),

		KafkaBrokers:    CSV(os.Getenv("KAFKA_BROKERS")),
		UserEventsTopic: EnvDefault("USER_EVENTS_TOPIC", "user_events"),
		EventTimeout:    EnvDurationDefault("EVENT_PUBLISH_TIMEOUT", 500*time.Millisecond),

		AuthRateLimit: EnvFloatDefault("AUTH_RATE_LIMIT", 5),
		AuthRateBurst: EnvIntDefault("AUTH_RATE_BURST", 10),
	}
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.ServerPort)
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func EnvFloatDefault(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func EnvBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func EnvDurationDefault(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
