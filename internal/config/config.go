package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage drivers and report targets.
const (
	DriverFlatFile = "flatfile"
	DriverMongo    = "mongo"

	ReportsLocal = "local"
	ReportsS3    = "s3"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Reports  ReportsConfig  `mapstructure:"reports"`
	S3       S3Config       `mapstructure:"s3"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Gym      GymConfig      `mapstructure:"gym"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// StorageConfig selects where gym records live.
type StorageConfig struct {
	Driver  string `mapstructure:"driver"`   // flatfile or mongo
	DataDir string `mapstructure:"data_dir"` // flatfile only
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

// ReportsConfig selects where exported CSV reports go.
type ReportsConfig struct {
	Target string `mapstructure:"target"` // local or s3
	Dir    string `mapstructure:"dir"`    // local only
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"` // duration string, e.g. "60m"
}

// GymConfig holds engine settings. The default admin is created on startup
// when no admin exists and AdminPassword is set.
type GymConfig struct {
	TopPerformers int    `mapstructure:"top_performers"`
	AdminID       string `mapstructure:"admin_id"`
	AdminPassword string `mapstructure:"admin_password"`
}

// LoadConfig reads configuration from path/config.yaml and environment
// variables. A .env file in path is loaded into the environment first;
// variables already set win over it.
func LoadConfig(path string) (config Config, err error) {
	if err = godotenv.Load(filepath.Join(path, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	// Every key needs a default so AutomaticEnv can see it during Unmarshal.
	v.SetDefault("server.address", ":8080")
	v.SetDefault("storage.driver", DriverFlatFile)
	v.SetDefault("storage.data_dir", "data")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "gym_manager")
	v.SetDefault("reports.target", ReportsLocal)
	v.SetDefault("reports.dir", filepath.Join("data", "reports"))
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket_name", "gym-reports")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", "1h")
	v.SetDefault("gym.top_performers", 10)
	v.SetDefault("gym.admin_id", "admin")
	v.SetDefault("gym.admin_password", "")

	err = v.ReadInConfig()
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil // env vars and defaults are enough
	} else if err != nil {
		return config, err
	}

	if err = v.Unmarshal(&config); err != nil {
		return config, err
	}
	return config, config.Validate()
}

// Validate rejects unknown drivers and settings the server cannot start without.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case DriverFlatFile:
		if c.Storage.DataDir == "" {
			return errors.New("config: storage.data_dir is required for the flatfile driver")
		}
	case DriverMongo:
		if c.Database.URI == "" || c.Database.Name == "" {
			return errors.New("config: database.uri and database.name are required for the mongo driver")
		}
	default:
		return fmt.Errorf("config: unknown storage.driver %q", c.Storage.Driver)
	}

	switch c.Reports.Target {
	case ReportsLocal:
		if c.Reports.Dir == "" {
			return errors.New("config: reports.dir is required for local reports")
		}
	case ReportsS3:
		if c.S3.BucketName == "" {
			return errors.New("config: s3.bucket_name is required for s3 reports")
		}
	default:
		return fmt.Errorf("config: unknown reports.target %q", c.Reports.Target)
	}

	if c.JWT.Secret == "" {
		return errors.New("config: jwt.secret is required")
	}
	if c.Gym.TopPerformers <= 0 {
		return fmt.Errorf("config: gym.top_performers must be positive, got %d", c.Gym.TopPerformers)
	}
	return nil
}
