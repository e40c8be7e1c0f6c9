package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort      string `mapstructure:"APP_PORT"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`
	Env          string `mapstructure:"ENV"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`

	MaxRequestsPerMin int `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr            string `mapstructure:"REDIS_ADDR"`
	RedisPassword        string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB         int    `mapstructure:"REDIS_CACHE_DB"`
	RedisReminderQueueDB int    `mapstructure:"REDIS_REMINDER_QUEUE_DB"`

	// Reminder dispatch tuning.
	ReminderMaxAttempts     int `mapstructure:"REMINDER_MAX_ATTEMPTS"`
	ReminderExpiryGraceMins int `mapstructure:"REMINDER_EXPIRY_GRACE_MINS"`
	TransportTimeoutSecs    int `mapstructure:"TRANSPORT_TIMEOUT_SECS"`

	// Booking policy knobs.
	DefaultSlotMinutes       int `mapstructure:"DEFAULT_SLOT_MINUTES"`
	DefaultMaxUpcomingPerDoc int `mapstructure:"DEFAULT_MAX_UPCOMING_PER_DOCTOR"`
	PatientCancelWindowDays  int `mapstructure:"PATIENT_CANCEL_WINDOW_DAYS"`
	PatientCancelLimit       int `mapstructure:"PATIENT_CANCEL_LIMIT"`

	// SMTP settings for the email channel.
	SMTPHost     string `mapstructure:"SMTP_HOST"`
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`

	// SMS gateway (HTTP API).
	SMSGatewayURL string `mapstructure:"SMS_GATEWAY_URL"`
	SMSGatewayKey string `mapstructure:"SMS_GATEWAY_KEY"`
}

var AppConfig Config

// FirebaseServiceAccountKeyPath points at the FCM credentials file.
var FirebaseServiceAccountKeyPath = "config/serviceAccountKey.json"

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_REMINDER_QUEUE_DB", 3)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "clinicore")
	viper.SetDefault("REMINDER_MAX_ATTEMPTS", 3)
	viper.SetDefault("REMINDER_EXPIRY_GRACE_MINS", 10)
	viper.SetDefault("TRANSPORT_TIMEOUT_SECS", 15)
	viper.SetDefault("DEFAULT_SLOT_MINUTES", 30)
	viper.SetDefault("DEFAULT_MAX_UPCOMING_PER_DOCTOR", 5)
	viper.SetDefault("PATIENT_CANCEL_WINDOW_DAYS", 30)
	viper.SetDefault("PATIENT_CANCEL_LIMIT", 3)
	viper.SetDefault("SMTP_HOST", "localhost")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_FROM", "reminders@clinicore.app")
	viper.SetDefault("SMS_GATEWAY_URL", "")
	viper.SetDefault("SMS_GATEWAY_KEY", "")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
