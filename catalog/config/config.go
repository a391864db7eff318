package config

import (
	"log"
	"sync"
	"time"

	"github.com/Astemirdum/library-catalog/pkg/kafka"
	"github.com/Astemirdum/library-catalog/pkg/logger"
	"github.com/Astemirdum/library-catalog/pkg/postgres"
	"github.com/kelseyhightower/envconfig"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"CATALOG_HTTP_HOST" default:"0.0.0.0"`
	Port         string        `yaml:"port" envconfig:"CATALOG_HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ" default:"10s"`
	WriteTimeout time.Duration
}

type Goodreads struct {
	Key     string        `yaml:"key" envconfig:"GOODREADS_KEY" required:"true"`
	URL     string        `yaml:"url" envconfig:"GOODREADS_URL" default:"https://www.goodreads.com"`
	Timeout time.Duration `yaml:"timeout" envconfig:"GOODREADS_TIMEOUT" default:"5s"`
}

type Session struct {
	RedisAddr     string        `yaml:"redisAddr" envconfig:"REDIS_ADDR"`
	RedisPassword string        `yaml:"redisPassword" envconfig:"REDIS_PASSWORD"`
	CookieName    string        `yaml:"cookie" envconfig:"SESSION_COOKIE" default:"session_id"`
	TTL           time.Duration `yaml:"ttl" envconfig:"SESSION_TTL" default:"24h"`
	Secure        bool          `yaml:"secure" envconfig:"SESSION_SECURE"`
}

type Config struct {
	Server    HTTPServer   `yaml:"server"`
	Database  postgres.DB  `yaml:"db"`
	Goodreads Goodreads    `yaml:"goodreads"`
	Session   Session      `yaml:"session"`
	Kafka     kafka.Config `yaml:"kafka"`
	Log       logger.Log   `yaml:"log"`
}

var (
	once sync.Once
	cfg  *Config
)

// NewConfig reads config from environment. Missing required variables are fatal.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		config, err := Load(ops...)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = config
	})

	return cfg
}

func Load(ops ...Option) (*Config, error) {
	var config Config
	for _, op := range ops {
		op(&config)
	}
	if err := envconfig.Process("", &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// Import is the configuration of the catalog-import command. It needs only the database.
type Import struct {
	Database postgres.DB `yaml:"db"`
	Log      logger.Log  `yaml:"log"`
}

func LoadImport() (*Import, error) {
	var config Import
	if err := envconfig.Process("", &config); err != nil {
		return nil, err
	}
	return &config, nil
}
