package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the configuration for the service.
type Config struct {
	DB struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"db"`
	Server struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`
	Sweeper struct {
		Interval time.Duration `mapstructure:"interval"`
	} `mapstructure:"sweeper"`
	Workflow struct {
		// DueDateMode is "calendar" or "business".
		DueDateMode string   `mapstructure:"due_date_mode"`
		WeekendDays []string `mapstructure:"weekend_days"`
	} `mapstructure:"workflow"`
	// Roles maps workflow assignee roles to user ids.
	Roles map[string]string `mapstructure:"roles"`
}

// LoadConfig loads the configuration from a file and the environment.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	viper.SetDefault("db.host", "localhost")
	viper.SetDefault("db.port", 5432)
	viper.SetDefault("db.sslmode", "disable")
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("sweeper.interval", time.Minute)
	viper.SetDefault("workflow.due_date_mode", "calendar")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config.Sweeper.Interval <= 0 {
		return nil, fmt.Errorf("sweeper interval must be positive, got %s", config.Sweeper.Interval)
	}
	return &config, nil
}

// ConnString returns the Postgres connection string for the configured
// database.
func (c *Config) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode,
	)
}
