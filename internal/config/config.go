package config

import (
	"github.com/caarlos0/env/v8"
	"github.com/joho/godotenv"
)

// Config holds the server configuration, populated from the environment.
type Config struct {
	Addr         string `env:"ADDR" envDefault:":8080"`
	DBPath       string `env:"DB_PATH" envDefault:"expenses.db"`
	SecureCookie bool   `env:"SECURE_COOKIE" envDefault:"false"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file and parses the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
