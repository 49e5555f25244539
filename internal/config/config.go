/**
 * @description
 * This file handles configuration management for the backend. It uses the
 * 'viper' library to load configuration from environment variables, providing
 * a centralized and consistent way to manage application settings.
 */
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	ServerPort          string `mapstructure:"SERVER_PORT"`
	DatabaseURL         string `mapstructure:"DATABASE_URL"`
	JWTSecret           string `mapstructure:"JWT_SECRET"`
	TokenTTLMinutes     int    `mapstructure:"TOKEN_TTL_MINUTES"`
	ResendAPIKey        string `mapstructure:"RESEND_API_KEY"`
	EmailFrom           string `mapstructure:"EMAIL_FROM"`
	RabbitMQURL         string `mapstructure:"RABBITMQ_URL"`
	RedisURL            string `mapstructure:"REDIS_URL"`
	ReminderJobSchedule string `mapstructure:"REMINDER_JOB_SCHEDULE"`
	ExpiryScanSchedule  string `mapstructure:"EXPIRY_SCAN_SCHEDULE"`
	LoginRateLimit      int    `mapstructure:"LOGIN_RATE_LIMIT"`
	LoginRateWindowSecs int    `mapstructure:"LOGIN_RATE_WINDOW_SECS"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("TOKEN_TTL_MINUTES", 60)
	viper.SetDefault("EMAIL_FROM", "RemindYourSubs <noreply@remindyoursubs.app>")
	viper.SetDefault("REMINDER_JOB_SCHEDULE", "0 8 * * *")  // At 08:00 every day.
	viper.SetDefault("EXPIRY_SCAN_SCHEDULE", "30 8 * * *")  // At 08:30 every day.
	viper.SetDefault("LOGIN_RATE_LIMIT", 10)
	viper.SetDefault("LOGIN_RATE_WINDOW_SECS", 60)
	viper.AutomaticEnv()

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("JWT_SECRET")
	_ = viper.BindEnv("TOKEN_TTL_MINUTES")
	_ = viper.BindEnv("RESEND_API_KEY")
	_ = viper.BindEnv("EMAIL_FROM")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REMINDER_JOB_SCHEDULE")
	_ = viper.BindEnv("EXPIRY_SCAN_SCHEDULE")
	_ = viper.BindEnv("LOGIN_RATE_LIMIT")
	_ = viper.BindEnv("LOGIN_RATE_WINDOW_SECS")

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if config.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return &config, nil
}
