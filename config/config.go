package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// DefaultGraphQLEndpoint is the remote patient service used when GRAPHQL_ENDPOINT is unset.
const DefaultGraphQLEndpoint = "https://parcial-back-72z4.onrender.com/graphql"

// Config holds the application's configuration values.
type Config struct {
	AppName  string `json:"appname"`
	AppEnv   string `json:"appenv"`
	AppPort  uint16 `json:"appport"`
	GinMode  string `json:"ginmode"`
	LogLevel string `json:"loglevel"`

	GraphQLEndpoint string        `json:"graphql_endpoint"`
	GraphQLTimeout  time.Duration `json:"graphql_timeout"`

	SessionStore  string        `json:"session_store"`
	SessionTTL    time.Duration `json:"session_ttl"`
	SessionCookie string        `json:"session_cookie"`
	CookieSecure  bool          `json:"cookie_secure"`

	RateLimit  int           `json:"rate_limit"`
	RateWindow time.Duration `json:"rate_window"`

	DBHost string `json:"dbhost"`
	DBPort uint16 `json:"dbport"`
	DBName string `json:"dbname"`
	DBUSER string `json:"dbuser"`
	DBPass string `json:"dbpass"`

	GeoIPDBPath string `json:"geoip_db_path"`
}

var config *Config
var once sync.Once

// LoadConfig loads the environment variables from an optional .env file, and returns a singleton Config instance.
func LoadConfig() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			logrus.WithError(err).Warn("Failed to load .env file")
		}

		appPort, err := strconv.ParseUint(getEnv("APPPORT", "8080"), 10, 16)
		if err != nil {
			appPort = 8080
		}
		dbPort, _ := strconv.ParseUint(getEnv("DBPORT", "3306"), 10, 16)

		config = &Config{
			AppName:  getEnv("APPNAME", "Patient Console"),
			AppEnv:   getEnv("APPENV", "development"),
			AppPort:  uint16(appPort),
			GinMode:  getEnv("GINMODE", "release"),
			LogLevel: getEnv("LOG_LEVEL", "info"),

			GraphQLEndpoint: getEnv("GRAPHQL_ENDPOINT", DefaultGraphQLEndpoint),
			GraphQLTimeout:  getEnvDuration("GRAPHQL_TIMEOUT", 0),

			SessionStore:  strings.ToLower(getEnv("SESSION_STORE", "memory")),
			SessionTTL:    getEnvDuration("SESSION_TTL", 24*time.Hour),
			SessionCookie: getEnv("SESSION_COOKIE", "pc_session"),
			CookieSecure:  getEnvBool("COOKIE_SECURE", false),

			RateLimit:  getEnvInt("RATE_LIMIT", 60),
			RateWindow: getEnvDuration("RATE_WINDOW", time.Minute),

			DBHost: os.Getenv("DBHOST"),
			DBPort: uint16(dbPort),
			DBName: os.Getenv("DBNAME"),
			DBUSER: os.Getenv("DBUSER"),
			DBPass: os.Getenv("DBPASS"),

			GeoIPDBPath: os.Getenv("GEOIP_DB_PATH"),
		}
	})
	return config
}

// ResetConfigForTest drops the cached Config so the next LoadConfig call re-reads the environment.
// This should only be used in tests.
func ResetConfigForTest() {
	config = nil
	once = sync.Once{}
}

// IsTest reports whether the application runs in the test environment.
func (c *Config) IsTest() bool {
	return c != nil && c.AppEnv == "test"
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("1500ms", "24h") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
