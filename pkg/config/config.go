package config

import (
	"encoding/json"
	"os"
	"strings"

	"dailyquote/pkg/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig `json:"database"`
	Server   ServerConfig   `json:"server"`
	Delivery DeliveryConfig `json:"delivery"`
	Logging  LoggingConfig  `json:"logging"`
}

type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres". Empty means sqlite.
	Driver string `json:"driver"`
	// Path is the sqlite database file.
	Path     string `json:"path"`
	Host     string `json:"host"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	Port     int    `json:"port"`
	SSLMode  string `json:"sslmode"`
}

type ServerConfig struct {
	Port int `json:"port"`
	// DailyToken authenticates the once-daily external caller. When empty a
	// random token is generated at startup.
	DailyToken string `json:"daily_token"`
}

type DeliveryConfig struct {
	Twilio   TwilioConfig   `json:"twilio"`
	EmailSMS EmailSMSConfig `json:"email_sms"`
	Telegram TelegramConfig `json:"telegram"`
}

type TwilioConfig struct {
	AccountSID string `json:"account_sid"`
	AuthToken  string `json:"auth_token"`
	FromNumber string `json:"from_number"`
	ToNumber   string `json:"to_number"`
}

type EmailSMSConfig struct {
	SMTPHost  string `json:"smtp_host"`
	SMTPPort  int    `json:"smtp_port"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	FromEmail string `json:"from_email"`
	// GatewayAddress is the carrier's SMS gateway address, e.g.
	// 4255550100@tmomail.net.
	GatewayAddress string `json:"gateway_address"`
}

type TelegramConfig struct {
	Token  string `json:"token"`
	ChatID int64  `json:"chat_id"`
}

type LoggingConfig struct {
	Level     string `json:"level"`
	File      string `json:"file"`
	GormLevel string `json:"gorm_level"`
}

var AppConfig Config

func LoadConfig(filename string) error {
	// Secrets land in the environment; .env is optional.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Debug("no .env file loaded", "error", err)
	}

	file, err := os.Open(filename)
	if err != nil {
		logger.Error("failed to open config file", "error", err)
		return err
	}
	defer file.Close()

	AppConfig = Config{}
	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&AppConfig); err != nil {
		logger.Error("failed to decode config file", "error", err)
		return err
	}

	applyEnvOverrides(&AppConfig)
	return nil
}

// applyEnvOverrides lets credentials come from the environment so they stay
// out of the config file, matching the TWILIO_* convention of the hosting
// platform.
func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.Server.DailyToken, "DAILY_TOKEN")
	overrideString(&cfg.Delivery.Twilio.AccountSID, "TWILIO_ACCOUNT_SID")
	overrideString(&cfg.Delivery.Twilio.AuthToken, "TWILIO_AUTH_TOKEN")
	overrideString(&cfg.Delivery.Twilio.FromNumber, "TWILIO_FROM_NUMBER")
	overrideString(&cfg.Delivery.Twilio.ToNumber, "TWILIO_TO_NUMBER")
	overrideString(&cfg.Delivery.EmailSMS.Password, "SMTP_PASSWORD")
	overrideString(&cfg.Delivery.Telegram.Token, "TELEGRAM_TOKEN")
}

func overrideString(target *string, key string) {
	if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}
