package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
	assert.Equal(t, "0.01", cfg.Market.TickSize)
	assert.Equal(t, BackendMock, cfg.Messaging.Backend)
	require.NoError(t, cfg.validate())
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  http_addr: ":9999"
market:
  symbol: "BTC-USDT"
  tick_size: "0.5"
messaging:
  backend: "redis"
redis:
  addr: "redis:6379"
  stream: "executions"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg := Default()
	require.NoError(t, cfg.loadFile(path))

	assert.Equal(t, ":9999", cfg.Server.HTTPAddr)
	assert.Equal(t, "BTC-USDT", cfg.Market.Symbol)
	assert.Equal(t, "0.5", cfg.Market.TickSize)
	assert.Equal(t, BackendRedis, cfg.Messaging.Backend)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "executions", cfg.Redis.Stream)
	// Untouched sections keep their defaults.
	assert.Equal(t, ":9090", cfg.Server.MetricsAddr)
	require.NoError(t, cfg.validate())
}

func TestLoadFileMissing(t *testing.T) {
	cfg := Default()
	assert.Error(t, cfg.loadFile(filepath.Join(t.TempDir(), "absent.yaml")))
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("MATCHBOOK_SYMBOL", "ETH-USDT")
	t.Setenv("MATCHBOOK_MESSAGING_BACKEND", "kafka")
	t.Setenv("MATCHBOOK_KAFKA_BROKER_ADDR", "kafka:9092")
	t.Setenv("MATCHBOOK_REDIS_DB", "3")

	cfg := Default()
	cfg.applyEnv()

	assert.Equal(t, "ETH-USDT", cfg.Market.Symbol)
	assert.Equal(t, BackendKafka, cfg.Messaging.Backend)
	assert.Equal(t, "kafka:9092", cfg.Kafka.BrokerAddr)
	assert.Equal(t, 3, cfg.Redis.DB)
	// Unset variables leave the defaults alone.
	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
}

func TestValidateRejectsBadBackend(t *testing.T) {
	cfg := Default()
	cfg.Messaging.Backend = "carrier-pigeon"
	assert.Error(t, cfg.validate())
}

func TestValidateRequiresBrokerForKafka(t *testing.T) {
	cfg := Default()
	cfg.Messaging.Backend = BackendSarama
	cfg.Kafka.BrokerAddr = ""
	assert.Error(t, cfg.validate())
}
