package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Port int `env:"PORT" envDefault:"56250"`

	DBType         string `env:"DB_TYPE"         envDefault:"sqlite"`
	DBPath         string `env:"DB_PATH"         envDefault:"./labelmv.db"`
	DBHost         string `env:"DB_HOST"         envDefault:"localhost"`
	DBPort         int    `env:"DB_PORT"         envDefault:"5432"`
	DBUser         string `env:"DB_USER"         envDefault:"labelmv"`
	DBPassword     string `env:"DB_PASSWORD"     envDefault:"labelmv_dev"`
	DBName         string `env:"DB_NAME"         envDefault:"labelmv"`
	MigrationsPath string `env:"MIGRATIONS_PATH" envDefault:"./migrations"`

	MongoURI      string `env:"MONGO_URI"      envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"labelmv"`

	JWTSecret string        `env:"JWT_SECRET,required,notEmpty"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	VideoRoot     string        `env:"VIDEO_ROOT"`
	FFmpegPath    string        `env:"FFMPEG_PATH"    envDefault:"ffmpeg"`
	FFprobePath   string        `env:"FFPROBE_PATH"   envDefault:"ffprobe"`
	JPEGQuality   int           `env:"JPEG_QUALITY"   envDefault:"85"`
	DecodeTimeout time.Duration `env:"DECODE_TIMEOUT" envDefault:"30s"`

	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"*"`

	MetricsPort     int           `env:"METRICS_PORT"     envDefault:"9090"`
	JaegerEndpoint  string        `env:"JAEGER_ENDPOINT"`
	LogLevel        string        `env:"LOG_LEVEL"        envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.DBType {
	case "sqlite", "postgres", "mongo":
	default:
		return fmt.Errorf("unsupported DB_TYPE %q", c.DBType)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("JPEG_QUALITY must be between 1 and 100, got %d", c.JPEGQuality)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	return nil
}
