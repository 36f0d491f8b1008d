package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/joho/godotenv"
)

// Store drivers accepted by STORE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
)

type Config struct {
	Port               int           `env:"PORT" envDefault:"8080"`
	StoreDriver        string        `env:"STORE_DRIVER" envDefault:"memory"`
	Dsn                string        `env:"DSN"`
	MongoURI           string        `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase      string        `env:"MONGO_DATABASE" envDefault:"comments"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" envDefault:"10s"`
	MaxBodyBytes       int64         `env:"MAX_BODY_BYTES" envDefault:"16384"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

func New() *Config {
	if loadErr := godotenv.Load(".env"); loadErr != nil {
		log.Printf("[Env]: unable to load .env file %v", loadErr)
	}

	cfg, parseErr := Parse()
	if parseErr != nil {
		log.Printf("[Env]: failed to parse environment variables: %v", parseErr)
	}

	return cfg
}

// Parse reads the configuration from the process environment only.
func Parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return &cfg, err
	}
	return &cfg, nil
}
