package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	JWT      JWTConfig
	Admin    AdminConfig
	Raffle   RaffleConfig
	WhatsApp WhatsAppConfig
	LogLevel string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	AllowedHosts []string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string
	ExpiresIn int
}

// AdminConfig holds the bootstrap admin account seeded on first start
type AdminConfig struct {
	Email    string
	Password string
}

// RaffleConfig holds the raffle constants. These are deployment
// constants, not runtime-editable by end users.
type RaffleConfig struct {
	ID                  string
	StartNumber         int
	EndNumber           int
	PriceCents          int64
	Currency            string
	ExpiryMinutes       int
	SweepIntervalMinute int // 0 disables the background expiry sweeper
}

// WhatsAppConfig holds the messaging handoff destination
type WhatsAppConfig struct {
	Number string
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	viper.SetDefault("Server.Port", "4000")
	viper.SetDefault("Server.AllowedHosts", []string{"localhost:3000"})
	viper.SetDefault("MongoDB.URI", "mongodb://localhost:27017")
	viper.SetDefault("MongoDB.Database", "rifa")
	viper.SetDefault("JWT.ExpiresIn", 24*60*60) // 24 hours
	viper.SetDefault("Admin.Email", "admin@rifa.local")
	viper.SetDefault("Raffle.ID", "lots-aerodesign")
	viper.SetDefault("Raffle.StartNumber", 1)
	viper.SetDefault("Raffle.EndNumber", 350)
	viper.SetDefault("Raffle.PriceCents", 100)
	viper.SetDefault("Raffle.Currency", "R$")
	viper.SetDefault("Raffle.ExpiryMinutes", 30)
	viper.SetDefault("Raffle.SweepIntervalMinute", 0)
	viper.SetDefault("LogLevel", "info")
}

func (c *Config) validate() error {
	if c.Raffle.StartNumber > c.Raffle.EndNumber {
		return fmt.Errorf("invalid raffle range [%d,%d]", c.Raffle.StartNumber, c.Raffle.EndNumber)
	}
	if c.Raffle.PriceCents <= 0 {
		return fmt.Errorf("raffle price must be positive, got %d", c.Raffle.PriceCents)
	}
	if c.Raffle.ExpiryMinutes <= 0 {
		return fmt.Errorf("reservation expiry must be positive, got %d", c.Raffle.ExpiryMinutes)
	}
	return nil
}

// TotalNumbers returns the size of the configured number range.
func (c *RaffleConfig) TotalNumbers() int {
	return c.EndNumber - c.StartNumber + 1
}
