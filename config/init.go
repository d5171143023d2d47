package config

import (
	"log"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/sendgrove/blastpipe/internal/logger"
	"github.com/sendgrove/blastpipe/internal/tracing"
)

type Config struct {
	AppConfig      *AppConfig
	Logger         *logger.Config
	Tracing        *tracing.JaegerConfig
	VaultConfig    *VaultConfig
	DispatchConfig *DispatchConfig
	DatabaseConfig *DatabaseConfig
}

func InitConfig() (*Config, error) {
	config := &Config{
		AppConfig:      &AppConfig{},
		Logger:         &logger.Config{},
		Tracing:        &tracing.JaegerConfig{},
		VaultConfig:    &VaultConfig{},
		DispatchConfig: &DispatchConfig{},
		DatabaseConfig: &DatabaseConfig{},
	}

	err := godotenv.Load()
	if err != nil {
		log.Print("Unable to load .env file")
	}

	err = env.Parse(config)
	if err != nil {
		log.Fatalf("Error loading blastpipe config: %v", err)
	}

	return config, nil
}
