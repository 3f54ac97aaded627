package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort  string `mapstructure:"APP_PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Document store.
	StoreBackend string `mapstructure:"STORE_BACKEND"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Firebase credentials.
	FirebaseCredentialsFile string `mapstructure:"FIREBASE_CREDENTIALS_FILE"`
	FirebaseProjectID       string `mapstructure:"FIREBASE_PROJECT_ID"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisLockDB   int    `mapstructure:"REDIS_LOCK_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Scheduling.
	SchedulerMode       string        `mapstructure:"SCHEDULER_MODE"`
	DispatchSchedule    string        `mapstructure:"DISPATCH_SCHEDULE"`
	OverdueScanSchedule string        `mapstructure:"OVERDUE_SCAN_SCHEDULE"`
	ReminderTimezone    string        `mapstructure:"REMINDER_TIMEZONE"`
	DuePageSize         int           `mapstructure:"DUE_PAGE_SIZE"`
	RetryPageSize       int           `mapstructure:"RETRY_PAGE_SIZE"`
	TickLeaseTTL        time.Duration `mapstructure:"TICK_LEASE_TTL"`

	// Push delivery.
	PushRatePerSecond float64 `mapstructure:"PUSH_RATE_PER_SECOND"`

	// Admin HTTP surface.
	AdminCORSOrigins    []string `mapstructure:"ADMIN_CORS_ORIGINS"`
	AdminToken          string   `mapstructure:"ADMIN_TOKEN"`
	AdminRequestsPerMin int      `mapstructure:"ADMIN_REQUESTS_PER_MIN"`
}

const (
	BackendMongo     = "mongo"
	BackendFirestore = "firestore"

	SchedulerCron  = "cron"
	SchedulerAsynq = "asynq"
)

// LoadConfig reads .env (if present), config.yaml (if present) and the environment.
// The returned Config is built once by main and handed to every component that needs it.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, continuing")
	}

	v := viper.New()
	// Look for a config file named "config.yaml" in the current and "config" directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	// Automatically use environment variables where available.
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("STORE_BACKEND", BackendMongo)
	v.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	v.SetDefault("DATABASE_NAME", "bridge")
	v.SetDefault("FIREBASE_CREDENTIALS_FILE", "serviceAccountKey.json")
	v.SetDefault("FIREBASE_PROJECT_ID", "")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_LOCK_DB", 0)
	v.SetDefault("REDIS_QUEUE_DB", 1)
	v.SetDefault("SCHEDULER_MODE", SchedulerCron)
	v.SetDefault("DISPATCH_SCHEDULE", "@every 1m")
	v.SetDefault("OVERDUE_SCAN_SCHEDULE", "0 9 * * *")
	v.SetDefault("REMINDER_TIMEZONE", "UTC")
	v.SetDefault("DUE_PAGE_SIZE", 100)
	v.SetDefault("RETRY_PAGE_SIZE", 50)
	v.SetDefault("TICK_LEASE_TTL", "55s")
	v.SetDefault("PUSH_RATE_PER_SECOND", 50)
	v.SetDefault("ADMIN_CORS_ORIGINS", []string{"*"})
	v.SetDefault("ADMIN_TOKEN", "")
	v.SetDefault("ADMIN_REQUESTS_PER_MIN", 120)
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendMongo, BackendFirestore:
	default:
		return fmt.Errorf("config: unknown STORE_BACKEND %q", c.StoreBackend)
	}
	switch c.SchedulerMode {
	case SchedulerCron, SchedulerAsynq:
	default:
		return fmt.Errorf("config: unknown SCHEDULER_MODE %q", c.SchedulerMode)
	}
	if c.DuePageSize <= 0 || c.RetryPageSize <= 0 {
		return fmt.Errorf("config: page sizes must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.IsProduction() && c.AdminToken == "" {
		return fmt.Errorf("config: ADMIN_TOKEN is required in production")
	}
	return nil
}

// Location resolves REMINDER_TIMEZONE.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.ReminderTimezone)
	if err != nil {
		return nil, fmt.Errorf("config: invalid REMINDER_TIMEZONE %q: %w", c.ReminderTimezone, err)
	}
	return loc, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
