package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	DocServer DocServerConfig
	LMS       LMSConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	OIDC      OIDCConfig
	RateLimit RateLimitConfig
	Defaults  DefaultsConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	PublicURL    string // externally reachable base URL, embedded in download/callback URLs
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DocServerConfig is the OnlyOffice document server connection: its base URL
// for the liveness probe and the shared secret every cross-boundary token is
// signed with.
type DocServerConfig struct {
	URL          string
	Secret       string
	FetchTimeout time.Duration
}

// LMSConfig points back at the host LMS for editor "go back" links.
type LMSConfig struct {
	CourseViewURL string
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type OIDCConfig struct {
	IssuerURL string
	ClientID  string
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// DefaultsConfig carries the site-wide defaults applied to new activities.
type DefaultsConfig struct {
	CanDownload bool
	CanPrint    bool
	InitialText string
	Display     string
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5002")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("PUBLIC_URL", "http://localhost:5002")
	viper.SetDefault("MONGODB_DATABASE", "onlyoffice")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("DOCSERVER_FETCH_TIMEOUT", 30)
	viper.SetDefault("RATE_LIMIT_RPS", 20.0)
	viper.SetDefault("RATE_LIMIT_BURST", 40)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	viper.SetDefault("DEFAULT_CAN_DOWNLOAD", true)
	viper.SetDefault("DEFAULT_CAN_PRINT", true)
	viper.SetDefault("DEFAULT_DISPLAY", "current")

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			PublicURL:    viper.GetString("PUBLIC_URL"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		DocServer: DocServerConfig{
			URL:          viper.GetString("DOCSERVER_URL"),
			Secret:       os.Getenv("DOCSERVER_SECRET"),
			FetchTimeout: time.Duration(viper.GetInt("DOCSERVER_FETCH_TIMEOUT")) * time.Second,
		},
		LMS: LMSConfig{
			CourseViewURL: viper.GetString("LMS_COURSE_VIEW_URL"),
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		OIDC: OIDCConfig{
			IssuerURL: viper.GetString("OIDC_ISSUER_URL"),
			ClientID:  viper.GetString("OIDC_CLIENT_ID"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Defaults: DefaultsConfig{
			CanDownload: viper.GetBool("DEFAULT_CAN_DOWNLOAD"),
			CanPrint:    viper.GetBool("DEFAULT_CAN_PRINT"),
			InitialText: viper.GetString("DEFAULT_INITIAL_TEXT"),
			Display:     viper.GetString("DEFAULT_DISPLAY"),
		},
	}

	return cfg, nil
}
