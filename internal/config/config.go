package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `json:"server"`
	Database  DatabaseConfig  `json:"database"`
	Events    EventsConfig    `json:"events"`
	Sentiment SentimentConfig `json:"sentiment"`
}

type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslmode"`
}

// EventsConfig controls the in-memory event log and the background
// persistence queue.
type EventsConfig struct {
	HistorySize int `json:"history_size"`
	OutboxSize  int `json:"outbox_size"`
	Workers     int `json:"workers"`
}

// SentimentConfig selects the mood classifier backing the context
// aggregator. Provider is "keyword" (default, no network) or "openai".
type SentimentConfig struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key,omitempty"`
	Model    string `json:"model,omitempty"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	homeDir, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(filepath.Join(homeDir, ".dayflow"))
	}

	// Set defaults
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "dayflow")
	viper.SetDefault("database.database", "dayflow")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("events.history_size", 1000)
	viper.SetDefault("events.outbox_size", 256)
	viper.SetDefault("events.workers", 2)
	viper.SetDefault("sentiment.provider", "keyword")
	viper.SetDefault("sentiment.model", "gpt-4o-mini")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			cfg := defaultConfig()
			loadEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	loadEnvOverrides(&cfg)

	return &cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "dayflow",
			Database: "dayflow",
			SSLMode:  "disable",
		},
		Events: EventsConfig{
			HistorySize: 1000,
			OutboxSize:  256,
			Workers:     2,
		},
		Sentiment: SentimentConfig{
			Provider: "keyword",
			Model:    "gpt-4o-mini",
		},
	}
}

func loadEnvOverrides(cfg *Config) {
	if host := os.Getenv("DAYFLOW_DB_HOST"); host != "" {
		cfg.Database.Host = host
	}
	if port := os.Getenv("DAYFLOW_DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Database.Port = p
		}
	}
	if user := os.Getenv("DAYFLOW_DB_USER"); user != "" {
		cfg.Database.User = user
	}
	if password := os.Getenv("DAYFLOW_DB_PASSWORD"); password != "" {
		cfg.Database.Password = password
	}
	if database := os.Getenv("DAYFLOW_DB_NAME"); database != "" {
		cfg.Database.Database = database
	}
	if provider := os.Getenv("DAYFLOW_SENTIMENT_PROVIDER"); provider != "" {
		cfg.Sentiment.Provider = provider
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && cfg.Sentiment.APIKey == "" {
		cfg.Sentiment.APIKey = key
	}
}
