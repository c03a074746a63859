package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const configPathEnv = "PROXY_CONFIG_PATH"

type ProxyConfig struct {
	Env          string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer   `yaml:"http_server"`
	GRPCServer   `yaml:"grpc_server"`
	StoreAPI     `yaml:"store_api"`
	ExchangeAPI  `yaml:"exchange_api"`
	Session      `yaml:"session"`
	RelayDB      `yaml:"relay_db"`
	LogConfig    `yaml:"log_config"`
	KafkaService `yaml:"kafka-service"`
}

type HTTPServer struct {
	Host           string   `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port           string   `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:","`
}

// GRPCServer hosts the health service. An empty port disables it.
type GRPCServer struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT"`
}

type StoreAPI struct {
	BaseURL        string        `yaml:"base_url" env:"STORE_API_URL" env-required:"true"`
	ConsumerKey    string        `yaml:"consumer_key" env:"STORE_CONSUMER_KEY"`
	ConsumerSecret string        `yaml:"consumer_secret" env:"STORE_CONSUMER_SECRET"`
	Timeout        time.Duration `yaml:"timeout" env:"UPSTREAM_TIMEOUT" env-default:"15s"`
}

type ExchangeAPI struct {
	BaseURL       string        `yaml:"base_url" env:"EXCHANGE_RATE_API_URL" env-default:"https://v6.exchangerate-api.com/v6"`
	APIKey        string        `yaml:"api_key" env:"EXCHANGE_RATE_API_KEY"`
	CacheTTL      time.Duration `yaml:"cache_ttl" env:"EXCHANGE_RATE_TTL" env-default:"1h"`
	Timeout       time.Duration `yaml:"timeout" env:"EXCHANGE_RATE_TIMEOUT" env-default:"5s"`
	WarmUpOnStart bool          `yaml:"warm_up_on_start" env:"EXCHANGE_RATE_WARM_UP" env-default:"false"`
}

type Session struct {
	NonceTTL      time.Duration `yaml:"nonce_ttl" env:"NONCE_TTL" env-default:"12h"`
	SweepInterval time.Duration `yaml:"sweep_interval" env:"NONCE_SWEEP_INTERVAL" env-default:"10m"`
}

// RelayDB enables the relay audit log when Dsn is set.
type RelayDB struct {
	Dsn            string `yaml:"dsn" env:"RELAY_DB_DSN"`
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`
}

type KafkaService struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `yaml:"topic" env:"KAFKA_TOPIC" env-default:"cart-events"`
}

func (s HTTPServer) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

func (s GRPCServer) Addr() string {
	return fmt.Sprintf("%s:%s", s.Host, s.Port)
}

// Load reads the YAML file named by PROXY_CONFIG_PATH, if any, and then
// applies environment overrides.
func Load() (*ProxyConfig, error) {
	var cfg ProxyConfig

	configPath := os.Getenv(configPathEnv)
	if configPath == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to read env config: %w", err)
		}
		return &cfg, nil
	}

	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return &cfg, nil
}

func MustLoad() *ProxyConfig {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}
