package config

import (
	"log"
	"os"
	"time"

	"BloodLink/pkg/cache"
	"BloodLink/pkg/location"
	"BloodLink/pkg/logger"
	"BloodLink/pkg/notification"
	"BloodLink/pkg/util"
)

type Config struct {
	Env      string `env:"APP_ENV"`
	Addr     string `env:"ADDR"`
	Mode     string `env:"MODE"`
	DBDriver string `env:"DB_DRIVER"`
	DSN      string `env:"DSN"`

	Log      logger.LogConfig
	Cache    cache.Config
	Location location.Config
	SMS      notification.SMSConfig
	Mail     notification.MailConfig

	// Matching defaults: 25 km radius, 10 results.
	SearchRadiusKM float64 `env:"SEARCH_RADIUS_KM"`
	MaxResults     int     `env:"MAX_RESULTS"`

	OperatorPhone      string `env:"OPERATOR_PHONE"`
	RateLimit          string `env:"RATE_LIMIT"`
	AlertSweepSchedule string `env:"ALERT_SWEEP_SCHEDULE"`
	SeedDemoData       bool   `env:"SEED_DEMO_DATA"`
}

// Load reads .env.<APP_ENV> (falling back to .env) and assembles the
// runtime configuration. No globals: the result is passed explicitly to
// every component at construction.
func Load() *Config {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}
	if err := util.LoadEnv(env); err != nil {
		log.Printf("Failed to load .env file: %v", err)
	}

	return &Config{
		Env:      env,
		Addr:     util.GetEnvDefault("ADDR", ":8080"),
		Mode:     util.GetEnv("MODE"),
		DBDriver: util.GetEnv("DB_DRIVER"),
		DSN:      util.GetEnv("DSN"),
		Log: logger.LogConfig{
			Level:      util.GetEnv("LOG_LEVEL"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnv("LOG_MAX_SIZE")),
			MaxAge:     int(util.GetIntEnv("LOG_MAX_AGE")),
			MaxBackups: int(util.GetIntEnv("LOG_MAX_BACKUPS")),
		},
		Cache: cache.Config{
			Type: util.GetEnv("CACHE_TYPE"),
			Redis: cache.RedisConfig{
				Addr:     util.GetEnv("REDIS_ADDR"),
				Password: util.GetEnv("REDIS_PASSWORD"),
				DB:       int(util.GetIntEnv("REDIS_DB")),
			},
		},
		Location: location.Config{
			GoogleAPIKey: util.GetEnv("GOOGLE_MAPS_API_KEY"),
			IPInfoToken:  util.GetEnv("IPINFO_TOKEN"),
			GeoIPPath:    util.GetEnv("GEOIP_DB_PATH"),
			HTTPTimeout:  time.Duration(util.GetIntEnv("LOCATION_HTTP_TIMEOUT")) * time.Second,
			GeocodeTTL:   time.Duration(util.GetIntEnv("GEOCODE_CACHE_TTL")) * time.Second,
			IPTTL:        time.Duration(util.GetIntEnv("IP_CACHE_TTL")) * time.Second,
		},
		SMS: notification.SMSConfig{
			AccountSID: util.GetEnv("TWILIO_ACCOUNT_SID"),
			AuthToken:  util.GetEnv("TWILIO_AUTH_TOKEN"),
			FromNumber: util.GetEnv("TWILIO_PHONE_NUMBER"),
			Endpoint:   util.GetEnv("TWILIO_ENDPOINT"),
		},
		Mail: notification.MailConfig{
			Host:     util.GetEnv("MAIL_HOST"),
			Username: util.GetEnv("MAIL_USERNAME"),
			Password: util.GetEnv("MAIL_PASSWORD"),
			Port:     util.GetIntEnv("MAIL_PORT"),
			From:     util.GetEnv("MAIL_FROM"),
		},
		SearchRadiusKM:     util.GetFloatEnv("SEARCH_RADIUS_KM"),
		MaxResults:         int(util.GetIntEnv("MAX_RESULTS")),
		OperatorPhone:      util.GetEnv("OPERATOR_PHONE"),
		RateLimit:          util.GetEnvDefault("RATE_LIMIT", "30-M"),
		AlertSweepSchedule: util.GetEnvDefault("ALERT_SWEEP_SCHEDULE", "@every 5m"),
		SeedDemoData:       util.GetBoolEnv("SEED_DEMO_DATA"),
	}
}
