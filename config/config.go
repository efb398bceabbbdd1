// Package config assembles the daemon configuration from defaults, command
// line flags, an optional YAML file, and environment overrides, in that
// order of precedence (later wins).
package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Messaging backends.
const (
	BackendMock   = "mock"
	BackendKafka  = "kafka"
	BackendSarama = "sarama"
	BackendRedis  = "redis"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		HTTPAddr    string `yaml:"http_addr"`
		MetricsAddr string `yaml:"metrics_addr"`
		LogLevel    string `yaml:"log_level"`
		LogFormat   string `yaml:"log_format"`
	} `yaml:"server"`

	Market struct {
		Symbol   string `yaml:"symbol"`
		TickSize string `yaml:"tick_size"`
	} `yaml:"market"`

	Messaging struct {
		Backend string `yaml:"backend"`
	} `yaml:"messaging"`

	Kafka struct {
		BrokerAddr string `yaml:"broker_addr"`
		Topic      string `yaml:"topic"`
	} `yaml:"kafka"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Stream   string `yaml:"stream"`
	} `yaml:"redis"`
}

// Default configuration values
var (
	configFile = flag.String("config", "", "Path to config file (YAML)")
	httpPort   = flag.Int("http_port", 8080, "The HTTP server port")
	logLevel   = flag.String("log_level", "info", "Log level: debug, info, warn, error")
	logFormat  = flag.String("log_format", "pretty", "Log format: json, pretty")
	symbol     = flag.String("symbol", "TEST", "Traded symbol")
	tickSize   = flag.String("tick_size", "0.01", "Decimal tick size")
)

// Default returns the built-in configuration.
func Default() *Config {
	config := &Config{}
	config.Server.HTTPAddr = ":8080"
	config.Server.MetricsAddr = ":9090"
	config.Server.LogLevel = "info"
	config.Server.LogFormat = "pretty"
	config.Market.Symbol = "TEST"
	config.Market.TickSize = "0.01"
	config.Messaging.Backend = BackendMock
	config.Kafka.BrokerAddr = "localhost:9092"
	config.Kafka.Topic = "trades"
	config.Redis.Addr = "localhost:6379"
	config.Redis.Stream = "trades"
	return config
}

// LoadConfig loads the configuration from command line flags, optionally a
// config file, and the environment.
func LoadConfig() (*Config, error) {
	flag.Parse()

	config := Default()
	config.Server.HTTPAddr = fmt.Sprintf(":%d", *httpPort)
	config.Server.LogLevel = *logLevel
	config.Server.LogFormat = *logFormat
	config.Market.Symbol = *symbol
	config.Market.TickSize = *tickSize

	if *configFile != "" {
		if err := config.loadFile(*configFile); err != nil {
			return nil, err
		}
	}

	config.applyEnv()

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

func (c *Config) loadFile(path string) error {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(yamlFile, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// applyEnv overrides fields from MATCHBOOK_* environment variables. The
// current values double as defaults, so unset variables change nothing.
func (c *Config) applyEnv() {
	v := viper.New()
	v.SetEnvPrefix("MATCHBOOK")

	v.SetDefault("HTTP_ADDR", c.Server.HTTPAddr)
	v.SetDefault("METRICS_ADDR", c.Server.MetricsAddr)
	v.SetDefault("LOG_LEVEL", c.Server.LogLevel)
	v.SetDefault("LOG_FORMAT", c.Server.LogFormat)
	v.SetDefault("SYMBOL", c.Market.Symbol)
	v.SetDefault("TICK_SIZE", c.Market.TickSize)
	v.SetDefault("MESSAGING_BACKEND", c.Messaging.Backend)
	v.SetDefault("KAFKA_BROKER_ADDR", c.Kafka.BrokerAddr)
	v.SetDefault("KAFKA_TOPIC", c.Kafka.Topic)
	v.SetDefault("REDIS_ADDR", c.Redis.Addr)
	v.SetDefault("REDIS_PASSWORD", c.Redis.Password)
	v.SetDefault("REDIS_DB", c.Redis.DB)
	v.SetDefault("REDIS_STREAM", c.Redis.Stream)

	v.AutomaticEnv()

	c.Server.HTTPAddr = v.GetString("HTTP_ADDR")
	c.Server.MetricsAddr = v.GetString("METRICS_ADDR")
	c.Server.LogLevel = v.GetString("LOG_LEVEL")
	c.Server.LogFormat = v.GetString("LOG_FORMAT")
	c.Market.Symbol = v.GetString("SYMBOL")
	c.Market.TickSize = v.GetString("TICK_SIZE")
	c.Messaging.Backend = v.GetString("MESSAGING_BACKEND")
	c.Kafka.BrokerAddr = v.GetString("KAFKA_BROKER_ADDR")
	c.Kafka.Topic = v.GetString("KAFKA_TOPIC")
	c.Redis.Addr = v.GetString("REDIS_ADDR")
	c.Redis.Password = v.GetString("REDIS_PASSWORD")
	c.Redis.DB = v.GetInt("REDIS_DB")
	c.Redis.Stream = v.GetString("REDIS_STREAM")
}

func (c *Config) validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server http_addr must not be empty")
	}
	if c.Market.Symbol == "" {
		return fmt.Errorf("market symbol must not be empty")
	}
	if c.Market.TickSize == "" {
		return fmt.Errorf("market tick_size must not be empty")
	}
	switch c.Messaging.Backend {
	case BackendMock, BackendKafka, BackendSarama, BackendRedis:
	default:
		return fmt.Errorf("unknown messaging backend %q", c.Messaging.Backend)
	}
	if c.Messaging.Backend == BackendKafka || c.Messaging.Backend == BackendSarama {
		if c.Kafka.BrokerAddr == "" {
			return fmt.Errorf("kafka broker_addr must not be empty")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("kafka topic must not be empty")
		}
	}
	if c.Messaging.Backend == BackendRedis {
		if c.Redis.Addr == "" {
			return fmt.Errorf("redis addr must not be empty")
		}
		if c.Redis.Stream == "" {
			return fmt.Errorf("redis stream must not be empty")
		}
	}
	return nil
}
