package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rxtech-lab/deployment-tracker/internal/log"
	"github.com/rxtech-lab/deployment-tracker/internal/transport"
	"github.com/rxtech-lab/deployment-tracker/internal/utils"
)

const (
	DefaultPort        = 8080
	DefaultDBFile      = "deployment-tracker.db"
	DefaultChainName   = "Ethereum"
	DefaultMineTimeout = 5 * time.Minute
	DefaultHTTPTimeout = 30 * time.Second
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "text"
	DefaultLogOutput   = "stderr"
	DefaultEnvFileName = ".env"
)

// Config is the process configuration of the deployment tracker binaries
type Config struct {
	Port        int    `validate:"gte=0,lte=65535"`
	PostgresURL string `validate:"omitempty,url"`
	DBPath      string `validate:"required_without=PostgresURL"`

	TrackerAPIURL string `validate:"required,url"`

	HTTPTimeout    time.Duration `validate:"gt=0"`
	HTTPRetryCount int           `validate:"gte=0,lte=10"`

	EthRPCURL    string `validate:"omitempty,url"`
	EthChainID   string `validate:"omitempty,numeric"` // asked from the node when empty
	EthChainName string
	MineTimeout  time.Duration `validate:"gt=0"`

	LogLevel  string `validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFormat string `validate:"oneof=text json"`
	LogOutput string `validate:"oneof=stderr stdout discard"`
}

// Load reads an optional .env file and then the environment
func Load() (*Config, error) {
	if err := godotenv.Load(DefaultEnvFileName); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", DefaultEnvFileName, err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only
func FromEnv() (*Config, error) {
	cfg := &Config{
		PostgresURL:  os.Getenv("POSTGRES_URL"),
		EthRPCURL:    os.Getenv("ETH_RPC_URL"),
		EthChainID:   os.Getenv("ETH_CHAIN_ID"),
		EthChainName: getEnv("ETH_CHAIN_NAME", DefaultChainName),
		LogLevel:     getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:    getEnv("LOG_FORMAT", DefaultLogFormat),
		LogOutput:    getEnv("LOG_OUTPUT", DefaultLogOutput),
	}

	var err error
	if cfg.Port, err = getEnvInt("PORT", DefaultPort); err != nil {
		return nil, err
	}
	if cfg.HTTPRetryCount, err = getEnvInt("HTTP_RETRY_COUNT", 0); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getEnvDuration("HTTP_TIMEOUT", DefaultHTTPTimeout); err != nil {
		return nil, err
	}
	if cfg.MineTimeout, err = getEnvDuration("MINE_TIMEOUT", DefaultMineTimeout); err != nil {
		return nil, err
	}

	if cfg.DBPath, err = defaultDBPath(); err != nil {
		return nil, err
	}

	if cfg.TrackerAPIURL, err = utils.GetApiBaseUrl(); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// TransportConfig returns the resty transport settings
func (c *Config) TransportConfig() transport.Config {
	cfg := transport.DefaultConfig()
	cfg.Timeout = c.HTTPTimeout
	cfg.RetryCount = c.HTTPRetryCount
	return cfg
}

func (c *Config) LogConfig() *log.Config {
	return &log.Config{
		Level:  c.LogLevel,
		Format: c.LogFormat,
		Output: c.LogOutput,
	}
}

// UsePostgres reports whether the chain registry lives in postgres
func (c *Config) UsePostgres() bool {
	return c.PostgresURL != ""
}

func defaultDBPath() (string, error) {
	if path := os.Getenv("DB_PATH"); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DefaultDBFile), nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env var: %w", key, err)
	}
	return parsed, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s env var: %w", key, err)
	}
	return parsed, nil
}
