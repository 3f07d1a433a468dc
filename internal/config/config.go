package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	// HTTPPort enables the ops endpoint (/ping, /metrics) when set.
	HTTPPort string `yaml:"http-port" env:"HTTP_PORT" env-default:""`
	API      API    `yaml:"api"`
	Redis    Redis  `yaml:"redis"`
}

type API struct {
	BaseURL        string        `yaml:"base-url" env:"API_BASE_URL" env-default:"http://localhost:8000/api"`
	RequestTimeout time.Duration `yaml:"request-timeout" env:"API_REQUEST_TIMEOUT" env-default:"10s"`
	// PollInterval re-fetches the live game while the opponent is to move. Zero disables polling.
	PollInterval time.Duration `yaml:"poll-interval" env:"API_POLL_INTERVAL" env-default:"0s"`
}

// Redis holds the snapshot cache settings. An empty host disables the cache.
type Redis struct {
	Host     string        `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	CacheTTL time.Duration `yaml:"cache-ttl" env:"REDIS_CACHE_TTL" env-default:"24h"`
}

// MustLoad - load all configurations in config.yml file. Without the file only the environment is read.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	_, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err = cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	default:
		if err = cleanenv.ReadConfig(path, config); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	return config, nil
}

func (that *Redis) GetRedisAddr() string {
	if that.Host == "" {
		return ""
	}

	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
