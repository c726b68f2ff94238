// config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port     string `env:"PORT" envDefault:"5001"`
	DB       DBConfig
	RabbitMQ RabbitMQConfig
	Storage  StorageConfig
	Log      LogConfig
}

type DBConfig struct {
	Host            string        `env:"DB_HOST" envDefault:"db"`
	Port            string        `env:"DB_PORT" envDefault:"5432"`
	User            string        `env:"DB_USER" envDefault:"user"`
	Pass            string        `env:"DB_PASS" envDefault:"password"`
	Name            string        `env:"DB_NAME" envDefault:"video_catalog"`
	ConnectAttempts int           `env:"DB_CONNECT_ATTEMPTS" envDefault:"5"`
	ConnectDelay    time.Duration `env:"DB_CONNECT_DELAY" envDefault:"5s"`
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Pass, c.Name)
}

type RabbitMQConfig struct {
	Host              string        `env:"RABBITMQ_HOST" envDefault:"rabbitmq"`
	Port              string        `env:"RABBITMQ_PORT" envDefault:"5672"`
	User              string        `env:"RABBITMQ_USER" envDefault:"guest"`
	Pass              string        `env:"RABBITMQ_PASS" envDefault:"guest"`
	ConnectAttempts   int           `env:"RABBITMQ_CONNECT_ATTEMPTS" envDefault:"5"`
	ConnectDelay      time.Duration `env:"RABBITMQ_CONNECT_DELAY" envDefault:"5s"`
	Exchange          string        `env:"AMQP_EXCHANGE" envDefault:"video.events"`
	CreatedQueue      string        `env:"AMQP_VIDEO_CREATED_QUEUE" envDefault:"video.created.queue"`
	CreatedRoutingKey string        `env:"AMQP_VIDEO_CREATED_ROUTING_KEY" envDefault:"video.created"`
	EncodedQueue      string        `env:"AMQP_VIDEO_ENCODED_QUEUE" envDefault:"video.encoded.queue"`
	EncodedRoutingKey string        `env:"AMQP_VIDEO_ENCODED_ROUTING_KEY" envDefault:"video.encoded"`
	ConsumerWorkers   int           `env:"CONSUMER_WORKERS" envDefault:"4"`
	ConsumerPrefetch  int           `env:"CONSUMER_PREFETCH" envDefault:"8"`
}

func (c RabbitMQConfig) URL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", c.User, c.Pass, c.Host, c.Port)
}

type StorageConfig struct {
	Provider        string `env:"STORAGE_PROVIDER" envDefault:"local"`
	LocalDir        string `env:"STORAGE_LOCAL_DIR" envDefault:"./media"`
	GCSBucket       string `env:"GCS_BUCKET"`
	LocationPattern string `env:"STORAGE_LOCATION_PATTERN" envDefault:"videoId-{videoId}"`
	FilenamePattern string `env:"STORAGE_FILENAME_PATTERN" envDefault:"type-{type}"`
	MaxUploadBytes  int64  `env:"STORAGE_MAX_UPLOAD_BYTES" envDefault:"2147483648"`
}

type LogConfig struct {
	Level      string `env:"LOG_LEVEL" envDefault:"info"`
	Format     string `env:"LOG_FORMAT" envDefault:"text"`
	Output     string `env:"LOG_OUTPUT" envDefault:"stdout"`
	Path       string `env:"LOG_PATH" envDefault:"./logs/video-catalog.log"`
	MaxSize    int    `env:"LOG_MAX_SIZE" envDefault:"100"`
	MaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"5"`
	MaxAge     int    `env:"LOG_MAX_AGE" envDefault:"30"`
	Compress   bool   `env:"LOG_COMPRESS" envDefault:"true"`
}

// Load reads the given env files, ".env" when none is given, then parses
// the environment. Missing files are skipped; variables already set win.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	switch c.Storage.Provider {
	case "local":
	case "gcs":
		if c.Storage.GCSBucket == "" {
			errs = append(errs, errors.New("GCS_BUCKET is required when STORAGE_PROVIDER=gcs"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORAGE_PROVIDER %q", c.Storage.Provider))
	}
	if c.RabbitMQ.ConsumerWorkers < 1 {
		errs = append(errs, errors.New("CONSUMER_WORKERS must be at least 1"))
	}
	switch c.Log.Output {
	case "stdout", "file", "both":
	default:
		errs = append(errs, fmt.Errorf("unknown LOG_OUTPUT %q", c.Log.Output))
	}
	return errors.Join(errs...)
}
