package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{
		"SERVER_PORT", "STORE_BACKEND", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL",
		"RESET_TOKEN_TTL", "KAFKA_BROKERS", "PRODUCTS_INDEX", "AUTH_RATE_LIMIT",
	} {
		t.Setenv(k, "")
	}

	cfg := Load()
	require.NotNil(t, cfg)

	assert.Equal(t, 3008, cfg.ServerPort)
	assert.Equal(t, ":3008", cfg.Addr())
	assert.Equal(t, BackendPostgres, cfg.StoreBackend)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, time.Hour, cfg.ResetTokenTTL)
	assert.Equal(t, "products-history-vectors", cfg.ProductsIndex)
	assert.Nil(t, cfg.KafkaBrokers)
	assert.Equal(t, 500*time.Millisecond, cfg.EventTimeout)
	assert.InDelta(t, 5.0, cfg.AuthRateLimit, 0.001)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("STORE_BACKEND", "ElasticSearch")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("ES_INSECURE_SKIP_VERIFY", "true")
	t.Setenv("EVENT_PUBLISH_TIMEOUT", "2s")

	cfg := Load()

	assert.Equal(t, 9000, cfg.ServerPort)
	assert.Equal(t, BackendElasticsearch, cfg.StoreBackend)
	assert.Equal(t, 5*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.ESInsecureSkipVerify)
	assert.Equal(t, 2*time.Second, cfg.EventTimeout)
}

func TestEnvHelpers_FallBackOnGarbage(t *testing.T) {
	t.Setenv("X_INT", "abc")
	t.Setenv("X_DUR", "-3s")
	t.Setenv("X_BOOL", "maybe")
	t.Setenv("X_FLOAT", "1,5")

	assert.Equal(t, 7, EnvIntDefault("X_INT", 7))
	assert.Equal(t, time.Second, EnvDurationDefault("X_DUR", time.Second))
	assert.False(t, EnvBoolDefault("X_BOOL", false))
	assert.InDelta(t, 2.5, EnvFloatDefault("X_FLOAT", 2.5), 0.001)
}
