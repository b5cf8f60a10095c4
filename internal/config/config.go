package config

import "github.com/caarlos0/env/v9"

type Config struct {
	Port              string `env:"PORT" envDefault:"8080"`
	FirebaseProjectID string `env:"FIREBASE_PROJECT_ID"` // empty -> in-memory store, auth disabled
	CredentialsFile   string `env:"GOOGLE_APPLICATION_CREDENTIALS"`
	StorageBucket     string `env:"STORAGE_BUCKET"`
	LogLevel          string `env:"LOG_LEVEL" envDefault:"info"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
