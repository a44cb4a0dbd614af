package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug LogLevel = "debug"
	Info  LogLevel = "info"
	Warn  LogLevel = "warn"
	Error LogLevel = "error"
)

// WebConfig holds the settings of the HTTP surface.
type WebConfig struct {
	Port          int    `env:"SK_PORT" envDefault:"3002"`
	Domain        string `env:"SK_WEB_DOMAIN"`
	SessionSecret string `env:"SK_SESSION_SECRET"`
	RedisAddr     string `env:"SK_REDIS_ADDR"`
	RedisPassword string `env:"SK_REDIS_PASSWORD"`
	RedisDB       int    `env:"SK_REDIS_DB"`
}

// OAuthConfig holds the Google OAuth client settings. AuthURL, TokenURL
// and UserInfoURL are normally left empty and default to Google's
// endpoints; tests point them at a fake provider.
type OAuthConfig struct {
	ClientID     string `env:"GOOGLE_CLIENT_ID"`
	ClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	CallbackBase string `env:"SK_CALLBACK_BASE" envDefault:"http://localhost:3002"`
	AuthURL      string `env:"SK_OAUTH_AUTH_URL"`
	TokenURL     string `env:"SK_OAUTH_TOKEN_URL"`
	UserInfoURL  string `env:"SK_OAUTH_USERINFO_URL"`
}

// LoadEnvFile loads variables from a .env file if one is present.
// Missing files are not an error; the real environment wins over the file.
func LoadEnvFile() {
	_ = godotenv.Load()
}

func GetWebConfig() (WebConfig, error) {
	return env.ParseAs[WebConfig]()
}

func GetOAuthConfig() (OAuthConfig, error) {
	return env.ParseAs[OAuthConfig]()
}

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv("SK_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv("SK_DEBUG") == "true"
}

func GetDBFolderPath() string {
	dbFolderPath := os.Getenv("SK_DB_FOLDER")
	if dbFolderPath == "" {
		dbFolderPath = "/etc/secret-keeper"
	}
	return dbFolderPath
}

func GetDBPath() string {
	return fmt.Sprintf("%s/%s.db", GetDBFolderPath(), GetName())
}

func GetLogFolder() string {
	logFolderPath := os.Getenv("SK_LOG_FOLDER")
	if logFolderPath == "" {
		logFolderPath = "/var/log"
	}
	return logFolderPath
}
