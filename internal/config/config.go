package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Training TrainingConfig
	API      APIConfig `mapstructure:"api"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeoutSeconds"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host" envconfig:"DB_HOST"`
	Port     int    `mapstructure:"port" envconfig:"DB_PORT"`
	User     string `mapstructure:"user" envconfig:"DB_USER"`
	Password string `mapstructure:"password" envconfig:"DB_PASSWORD"`
	Name     string `mapstructure:"name" envconfig:"DB_NAME"`
	SSLMode  string `mapstructure:"sslmode" envconfig:"DB_SSLMODE"`
}

type TrainingConfig struct {
	Trees       int   `mapstructure:"trees"`
	MaxDepth    int   `mapstructure:"max_depth"`
	Seed        int64 `mapstructure:"seed"`
	MinLeafSize int   `mapstructure:"min_leaf_size"`
	TrainOnBoot bool  `mapstructure:"train_on_boot"`
}

type APIConfig struct {
	RateLimitRPS   float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst int     `mapstructure:"rate_limit_burst"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// ORDASH_DB_* environment variables win over the file for deployments
	// that inject credentials.
	if err := envconfig.Process("ordash", &config.Database); err != nil {
		return nil, fmt.Errorf("failed to process environment overrides: %w", err)
	}

	if config.Training.Trees == 0 {
		config.Training.Trees = 200
	}
	if config.Training.MaxDepth == 0 {
		config.Training.MaxDepth = 10
	}
	if config.Training.Seed == 0 {
		config.Training.Seed = 42
	}
	if config.Training.MinLeafSize == 0 {
		config.Training.MinLeafSize = 2
	}

	return &config, nil
}
