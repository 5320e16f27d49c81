package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

var ErrUnknownStorage = errors.New("unknown results storage")

type Config struct {
	LogLevel       string   `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	Host           string   `yaml:"host" env:"HOST" env-default:"0.0.0.0"`
	Port           string   `yaml:"port" env:"PORT" env-default:"3000"`
	RateLimit      int      `yaml:"rate-limit" env:"RATE_LIMIT" env-default:"120"`
	AllowedOrigins []string `yaml:"allowed-origins" env:"ALLOWED_ORIGINS" env-separator:","`
	Redis          Redis    `yaml:"redis"`
	Results        Results  `yaml:"results"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Results struct {
	// Storage is "memory" or "redis".
	Storage      string `yaml:"storage" env:"RESULTS_STORAGE" env-default:"memory"`
	HistoryLimit int    `yaml:"history-limit" env:"RESULTS_HISTORY_LIMIT" env-default:"50"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

// Load - reads an optional .env, then the yaml file at path with environment overrides.
// Without the file only the environment and defaults are used.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	config := &Config{}

	if _, err := os.Stat(path); err == nil {
		if err = cleanenv.ReadConfig(path, config); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else {
		if err = cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (that *Config) Addr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}

func (that *Config) validate() error {
	switch that.Results.Storage {
	case StorageMemory, StorageRedis:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownStorage, that.Results.Storage)
	}
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
