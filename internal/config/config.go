package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	BotToken  string `envconfig:"BOT_TOKEN" required:"true"`
	DBPath    string `envconfig:"DB_PATH" default:"./data/calendar.db"`
	DefaultTZ string `envconfig:"DEFAULT_TZ" default:"UTC"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`  // debug|info|warn|error
	HTTPAddr  string `envconfig:"HTTP_ADDR" default:":8080"` // healthz

	// Reminders whose fire time has already passed are sent after this delay.
	ReminderGrace time.Duration `envconfig:"REMINDER_GRACE" default:"5s"`
	// Reminders firing later than this after the event itself are logged as late.
	LateTolerance time.Duration `envconfig:"LATE_TOLERANCE" default:"1h"`
	ResyncCron    string        `envconfig:"RESYNC_CRON" default:"@every 10m"`
	ExportDays    int           `envconfig:"EXPORT_DAYS" default:"30"`
}

// Load reads an optional .env file and then environment variables into Config.
func Load() (Config, error) {
	// Missing .env is fine; real deployments pass plain env vars.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
