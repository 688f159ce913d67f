package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageMongo    = "mongo"

	ImagesFS = "fs"
	ImagesS3 = "s3"
)

type Config struct {
	Server struct {
		Port        string `yaml:"port"`
		FrontendURL string `yaml:"frontendUrl"`
		Environment string `yaml:"environment"`
	} `yaml:"server"`
	Auth struct {
		AccessTokenSecret string `yaml:"accessTokenSecret"`
		TokenTTL          string `yaml:"tokenTTL"`
		BcryptCost        int    `yaml:"bcryptCost"`
	} `yaml:"auth"`
	Storage struct {
		Driver string `yaml:"driver"`
	} `yaml:"storage"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Quiz struct {
		TTL         string `yaml:"ttl"`
		ViewTimeout string `yaml:"viewTimeout"`
	} `yaml:"quiz"`
	Images struct {
		Driver    string `yaml:"driver"`
		BasePath  string `yaml:"basePath"`
		PublicURL string `yaml:"publicUrl"`
		Bucket    string `yaml:"bucket"`
		Region    string `yaml:"region"`
	} `yaml:"images"`
}

// Load reads YAML config from path, then applies a .env file and environment overrides.
// A missing config file is not an error: defaults and the environment still apply.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, err
	}

	// .env is optional; values already set in the process environment win.
	_ = godotenv.Load()
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := map[string]*string{
		"PORT":                &cfg.Server.Port,
		"FRONTEND_URL":        &cfg.Server.FrontendURL,
		"APP_ENV":             &cfg.Server.Environment,
		"ACCESS_TOKEN_SECRET": &cfg.Auth.AccessTokenSecret,
		"STORAGE_DRIVER":      &cfg.Storage.Driver,
		"POSTGRES_URL":        &cfg.Postgres.URL,
		"MONGO_URI":           &cfg.Mongo.URI,
		"MONGO_DB":            &cfg.Mongo.Database,
		"REDIS_ADDR":          &cfg.Redis.Addr,
		"IMAGE_DRIVER":        &cfg.Images.Driver,
		"S3_BUCKET":           &cfg.Images.Bucket,
		"S3_REGION":           &cfg.Images.Region,
	}
	for key, target := range overrides {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*target = v
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.Environment == "" {
		cfg.Server.Environment = "development"
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = StorageMemory
	}
	if cfg.Mongo.Database == "" {
		cfg.Mongo.Database = "quizzie"
	}
	if cfg.Auth.BcryptCost == 0 {
		cfg.Auth.BcryptCost = 10
	}
	if cfg.Images.Driver == "" {
		cfg.Images.Driver = ImagesFS
	}
	if cfg.Images.BasePath == "" {
		cfg.Images.BasePath = "uploads"
	}
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	var problems []string
	if c.Auth.AccessTokenSecret == "" {
		problems = append(problems, "auth.accessTokenSecret is required")
	}
	switch c.Storage.Driver {
	case StorageMemory:
	case StoragePostgres:
		if c.Postgres.URL == "" {
			problems = append(problems, "postgres.url is required for the postgres driver")
		}
	case StorageMongo:
		if c.Mongo.URI == "" {
			problems = append(problems, "mongo.uri is required for the mongo driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown storage driver %q", c.Storage.Driver))
	}
	switch c.Images.Driver {
	case ImagesFS:
	case ImagesS3:
		if c.Images.Bucket == "" || c.Images.Region == "" {
			problems = append(problems, "images.bucket and images.region are required for the s3 driver")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown image driver %q", c.Images.Driver))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// IsDevelopment reports whether cookies may be sent over plain HTTP.
func (c Config) IsDevelopment() bool {
	return c.Server.Environment == "development"
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
