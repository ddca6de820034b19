package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	JWTSecret         string `mapstructure:"JWT_SECRET"`
	AdminToken        string `mapstructure:"ADMIN_TOKEN"`
	TrustedProxies    string `mapstructure:"TRUSTED_PROXIES"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisWizardDB int    `mapstructure:"REDIS_WIZARD_DB"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`

	// MongoDB holds the payment reconciliation ledger.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Upstream booking API.
	BookingAPIURL     string        `mapstructure:"BOOKING_API_URL"`
	BookingAPITimeout time.Duration `mapstructure:"BOOKING_API_TIMEOUT"`
	TripCacheTTL      time.Duration `mapstructure:"TRIP_CACHE_TTL"`

	// Hosted checkout presentation.
	GatewayMerchantName string `mapstructure:"GATEWAY_MERCHANT_NAME"`
	GatewayThemeColor   string `mapstructure:"GATEWAY_THEME_COLOR"`

	WizardSessionTTL time.Duration `mapstructure:"WIZARD_SESSION_TTL"`
	SupportEmail     string        `mapstructure:"SUPPORT_EMAIL"`
	SupportPhone     string        `mapstructure:"SUPPORT_PHONE"`
	SessionSecret    string        `mapstructure:"SESSION_ENCRYPTION_KEY"`
}

var AppConfig Config

func LoadConfig() {
	// A local .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

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
	viper.SetDefault("JWT_SECRET", "")
	viper.SetDefault("ADMIN_TOKEN", "")
	viper.SetDefault("TRUSTED_PROXIES", "")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_WIZARD_DB", 0)
	viper.SetDefault("REDIS_CACHE_DB", 1)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "magicweekends")
	viper.SetDefault("BOOKING_API_URL", "http://localhost:4000")
	viper.SetDefault("BOOKING_API_TIMEOUT", "30s")
	viper.SetDefault("TRIP_CACHE_TTL", "5m")
	viper.SetDefault("GATEWAY_MERCHANT_NAME", "Magic Weekends")
	viper.SetDefault("GATEWAY_THEME_COLOR", "#EAB308")
	viper.SetDefault("WIZARD_SESSION_TTL", "30m")
	viper.SetDefault("SESSION_ENCRYPTION_KEY", "")
	viper.SetDefault("SUPPORT_EMAIL", "support@magicweekends.in")
	viper.SetDefault("SUPPORT_PHONE", "")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

// TrustedProxyList splits TRUSTED_PROXIES on commas. Empty means no proxy is
// trusted and forwarding headers are ignored.
func TrustedProxyList() []string {
	var out []string
	for _, p := range strings.Split(AppConfig.TrustedProxies, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}
