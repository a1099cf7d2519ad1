package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// ScheduleParser accepts cron specs with an optional leading seconds field
// and descriptors such as @hourly.
var ScheduleParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Config holds runtime configuration values for the API and the expiry worker.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	WorkerMetricsPort      string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	EventsChannel          string
	JWTSecret              string
	RecommendationCacheTTL time.Duration
	RecommendationLimit    int
	ExpirySchedule         string
	CreateRateLimit        int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// WorkerMetricsAddress returns the address the worker's /metrics listener binds.
func (c Config) WorkerMetricsAddress() string {
	if strings.HasPrefix(c.WorkerMetricsPort, ":") {
		return c.WorkerMetricsPort
	}

	return fmt.Sprintf(":%s", c.WorkerMetricsPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SCHOLAR")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Scholarship API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("worker.metrics_port", "9091")
	v.SetDefault("events.channel", "scholarships")
	v.SetDefault("recommendation.cache_ttl", "10m")
	v.SetDefault("recommendation.limit", 20)
	v.SetDefault("expiry.schedule", "0 */15 * * * *")
	v.SetDefault("rate_limit.create_per_minute", 10)

	ttlString := v.GetString("recommendation.cache_ttl")
	if ttlString == "" {
		ttlString = "10m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid recommendation cache ttl: %w", err)
	}

	schedule := strings.TrimSpace(v.GetString("expiry.schedule"))
	if _, err := ScheduleParser.Parse(schedule); err != nil {
		return Config{}, fmt.Errorf("invalid expiry schedule %q: %w", schedule, err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		WorkerMetricsPort:      v.GetString("worker.metrics_port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		EventsChannel:          strings.TrimSpace(v.GetString("events.channel")),
		JWTSecret:              v.GetString("jwt.secret"),
		RecommendationCacheTTL: ttl,
		RecommendationLimit:    v.GetInt("recommendation.limit"),
		ExpirySchedule:         schedule,
		CreateRateLimit:        v.GetInt("rate_limit.create_per_minute"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.RecommendationLimit <= 0 {
		cfg.RecommendationLimit = 20
	}

	if cfg.CreateRateLimit <= 0 {
		cfg.CreateRateLimit = 10
	}

	return cfg, nil
}
