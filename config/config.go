// Package config loads the server configuration from the environment
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/partsdesk/partsdesk/internal/constants"
)

// Default values used when the environment does not provide one
const (
	DefaultAPIPort           = "8080"
	DefaultLogLevel          = "info"
	DefaultSMTPHost          = "smtp.gmail.com"
	DefaultSMTPPort          = 587
	DefaultPurchaseOrderBody = "hello world"
	DefaultWeekStatusCron    = "@hourly"
)

// Config holds the settings of the API server
type Config struct {
	APIPort  string
	LogLevel string

	DB DBConfig

	Mail MailConfig

	BOMOptimisticLocking bool
	WeekStatusCron       string
}

// DBConfig holds the database connection settings
type DBConfig struct {
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	SSLEnabled bool
}

// MailConfig holds the SMTP settings of the purchase-order relay
type MailConfig struct {
	Host            string
	Port            int
	Sender          string
	Password        string
	DefaultReceiver string
	Body            string
}

// GetEnv retrieves the value of an environment variable with a fallback value if not set
func GetEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// Load reads the .env file if there is one and builds the configuration from the environment
func Load() (*Config, error) {
	// A missing .env file is fine, the environment may be set by the process manager
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	dbPort, err := getEnvInt(constants.EnvDBPort, 0)
	if err != nil {
		return nil, err
	}
	smtpPort, err := getEnvInt(constants.EnvSMTPPort, DefaultSMTPPort)
	if err != nil {
		return nil, err
	}

	return &Config{
		APIPort:  GetEnv(constants.EnvAPIPort, DefaultAPIPort),
		LogLevel: GetEnv(constants.EnvLogLevel, DefaultLogLevel),
		DB: DBConfig{
			Host:       os.Getenv(constants.EnvDBHost),
			Port:       dbPort,
			User:       os.Getenv(constants.EnvDBUser),
			Password:   os.Getenv(constants.EnvDBPassword),
			Name:       os.Getenv(constants.EnvDBName),
			SSLEnabled: strings.EqualFold(os.Getenv(constants.EnvDBSSLMode), "enable"),
		},
		Mail: MailConfig{
			Host:            GetEnv(constants.EnvSMTPHost, DefaultSMTPHost),
			Port:            smtpPort,
			Sender:          os.Getenv(constants.EnvSenderEmail),
			Password:        os.Getenv(constants.EnvSenderPassword),
			DefaultReceiver: os.Getenv(constants.EnvReceiverEmail),
			Body:            GetEnv(constants.EnvPurchaseOrderBody, DefaultPurchaseOrderBody),
		},
		BOMOptimisticLocking: strings.EqualFold(os.Getenv(constants.EnvBOMOptimisticLocking), "true"),
		WeekStatusCron:       GetEnv(constants.EnvWeekStatusCron, DefaultWeekStatusCron),
	}, nil
}

func getEnvInt(key string, fallback int) (int, error) {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return n, nil
}
