package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultSaveDebounce = time.Second
	DefaultTokenTTL     = 12 * time.Hour
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	JWTSecret      string
	Port           string
	AllowedOrigins []string

	LogLevel string
	LogJSON  bool

	// SaveDebounce is the quiet period before an edited screen config is written.
	SaveDebounce time.Duration
	ScreensFile  string
	GCSBucket    string
	NATSURL      string

	// AdminEmail and AdminPassword seed the first admin on an empty database.
	AdminEmail    string
	AdminPassword string
	TokenTTL      time.Duration
}

// LoadConfig reads the process environment. A .env file in the working
// directory is loaded first when present; real env vars take precedence.
func LoadConfig() Config {
	_ = godotenv.Load()

	return Config{
		DBHost:         os.Getenv("DB_HOST"),
		DBPort:         os.Getenv("DB_PORT"),
		DBUser:         os.Getenv("DB_USER"),
		DBPassword:     os.Getenv("DB_PASSWORD"),
		DBName:         os.Getenv("DB_NAME"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		Port:           os.Getenv("PORT"),
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
		LogLevel:       os.Getenv("LOG_LEVEL"),
		LogJSON:        parseBool(os.Getenv("LOG_JSON")),
		SaveDebounce:   parseDuration(os.Getenv("SAVE_DEBOUNCE"), DefaultSaveDebounce),
		ScreensFile:    os.Getenv("SCREENS_FILE"),
		GCSBucket:      os.Getenv("GCS_BUCKET"),
		NATSURL:        os.Getenv("NATS_URL"),
		AdminEmail:     os.Getenv("ADMIN_EMAIL"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		TokenTTL:       parseDuration(os.Getenv("TOKEN_TTL"), DefaultTokenTTL),
	}
}

func (c Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=disable"
}

func splitList(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	return err == nil && b
}

func parseDuration(v string, fallback time.Duration) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
