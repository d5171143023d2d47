package config

import (
	"github.com/sendgrove/blastpipe/internal/logger"
	"github.com/sendgrove/blastpipe/internal/tracing"
)

type AppConfig struct {
	APIPort     string `env:"PORT,required" envDefault:"11444"`
	APIKey      string `env:"API_KEY,required"`
	RabbitMQURL string `env:"RABBITMQ_URL"`
	Logger      *logger.Config
	Tracing     *tracing.JaegerConfig
}

type VaultConfig struct {
	// MasterSecret derives the AES key that encrypts provider credentials
	// at rest. Changing it orphans every stored credential blob.
	MasterSecret string `env:"CREDENTIAL_MASTER_SECRET,required"`
}

type DispatchConfig struct {
	Workers   int `env:"DISPATCH_WORKERS" envDefault:"4"`
	QueueSize int `env:"DISPATCH_QUEUE_SIZE" envDefault:"64"`
}

type DatabaseConfig struct {
	Host            string `env:"BLASTPIPE_POSTGRES_HOST,required"`
	Port            string `env:"BLASTPIPE_POSTGRES_PORT,required"`
	User            string `env:"BLASTPIPE_POSTGRES_USER,required"`
	DBName          string `env:"BLASTPIPE_POSTGRES_DB_NAME,required"`
	Password        string `env:"BLASTPIPE_POSTGRES_PASSWORD,required"`
	MaxConn         int    `env:"BLASTPIPE_POSTGRES_DB_MAX_CONN"`
	MaxIdleConn     int    `env:"BLASTPIPE_POSTGRES_DB_MAX_IDLE_CONN"`
	ConnMaxLifetime int    `env:"BLASTPIPE_POSTGRES_DB_CONN_MAX_LIFETIME"`
	LogLevel        string `env:"BLASTPIPE_POSTGRES_LOG_LEVEL" envDefault:"WARN"`
	SSLMode         string `env:"BLASTPIPE_POSTGRES_SSL_MODE"`
}
