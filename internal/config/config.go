package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

type Config struct {
	HttpPort     int    `env:"PORT" envDefault:"5002"`
	AdminPort    int    `env:"ADMIN_PORT" envDefault:"9102"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	MaxBodyBytes int    `env:"MAX_BODY_BYTES" envDefault:"65536"`

	NatsURL string `env:"NATS_URL"`

	ChHost     string `env:"CLICKHOUSE_HOST"`
	ChPort     string `env:"CLICKHOUSE_PORT" envDefault:"9000"`
	ChDatabase string `env:"CLICKHOUSE_DB" envDefault:"default"`
}

// Load Читает .env (если есть) и переменные окружения.
// Значения из .env не перекрывают уже заданные переменные.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}

	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error loading %s file: %w", file, err)
		}
	}

	if err := unsetEmpty(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// unsetEmpty Удаляет переменные с пустым значением, чтобы для них сработал envDefault
func unsetEmpty() error {
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		key := t.Field(i).Tag.Get("env")
		if key == "" {
			continue
		}

		if value, ok := os.LookupEnv(key); ok && value == "" {
			if err := os.Unsetenv(key); err != nil {
				return fmt.Errorf("unset empty %s: %w", key, err)
			}
		}
	}

	return nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.HttpPort <= 0 || c.HttpPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid PORT %d (must be 1..65535)", c.HttpPort))
	}

	// 0 отключает служебный listener
	if c.AdminPort < 0 || c.AdminPort > 65535 {
		errs = append(errs, fmt.Errorf("invalid ADMIN_PORT %d (must be 0..65535)", c.AdminPort))
	}

	if c.AdminPort != 0 && c.AdminPort == c.HttpPort {
		errs = append(errs, fmt.Errorf("PORT and ADMIN_PORT must differ (both %d)", c.HttpPort))
	}

	if c.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("invalid MAX_BODY_BYTES %d (must be positive)", c.MaxBodyBytes))
	}

	return errors.Join(errs...)
}

func (c *Config) NatsEnabled() bool {
	return c.NatsURL != ""
}

func (c *Config) ClickhouseEnabled() bool {
	return c.ChHost != ""
}

func (c *Config) ClickhouseAddr() string {
	return fmt.Sprintf("%s:%s", c.ChHost, c.ChPort)
}
