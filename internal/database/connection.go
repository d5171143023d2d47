package database

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	DBName          string
	Password        string
	MaxConn         int
	MaxIdleConn     int
	ConnMaxLifetime int
	LogLevel        string
	SSLMode         string
}

func NewConnection(dbConfig *DatabaseConfig) (*gorm.DB, error) {
	if err := validateConfig(dbConfig); err != nil {
		return nil, err
	}

	portInt, err := strconv.Atoi(dbConfig.Port)
	if err != nil {
		return nil, fmt.Errorf("invalid port number: %w", err)
	}

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dbConfig.Host, portInt, dbConfig.User, dbConfig.Password, dbConfig.DBName, dbConfig.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(dbConfig.LogLevel)),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	maxIdle := dbConfig.MaxIdleConn
	if maxIdle == 0 {
		maxIdle = 10
	}
	maxOpen := dbConfig.MaxConn
	if maxOpen == 0 {
		maxOpen = 100
	}
	lifetime := time.Duration(dbConfig.ConnMaxLifetime) * time.Minute
	if lifetime == 0 {
		lifetime = time.Hour
	}

	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetConnMaxLifetime(lifetime)

	return db, nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch strings.ToUpper(level) {
	case "SILENT":
		return logger.Silent
	case "ERROR":
		return logger.Error
	case "INFO":
		return logger.Info
	default:
		return logger.Warn
	}
}

func validateConfig(config *DatabaseConfig) error {
	switch {
	case config == nil:
		return fmt.Errorf("database config is nil")
	case config.Host == "":
		return fmt.Errorf("database host config is empty")
	case config.Port == "":
		return fmt.Errorf("database port config is empty")
	case config.User == "":
		return fmt.Errorf("database user config is empty")
	case config.Password == "":
		return fmt.Errorf("database password config is empty")
	case config.DBName == "":
		return fmt.Errorf("database name config is empty")
	case config.SSLMode == "":
		return fmt.Errorf("database sslmode config is empty")
	}
	return nil
}
