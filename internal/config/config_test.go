package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DefaultTZ != "UTC" {
		t.Errorf("DefaultTZ = %q, want UTC", cfg.DefaultTZ)
	}
	if cfg.ReminderGrace != 5*time.Second {
		t.Errorf("ReminderGrace = %v, want 5s", cfg.ReminderGrace)
	}
	if cfg.LateTolerance != time.Hour {
		t.Errorf("LateTolerance = %v, want 1h", cfg.LateTolerance)
	}
	if cfg.ResyncCron != "@every 10m" {
		t.Errorf("ResyncCron = %q", cfg.ResyncCron)
	}
	if cfg.ExportDays != 30 {
		t.Errorf("ExportDays = %d, want 30", cfg.ExportDays)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("DEFAULT_TZ", "Europe/Moscow")
	t.Setenv("REMINDER_GRACE", "2s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.DefaultTZ != "Europe/Moscow" {
		t.Errorf("DefaultTZ = %q", cfg.DefaultTZ)
	}
	if cfg.ReminderGrace != 2*time.Second {
		t.Errorf("ReminderGrace = %v, want 2s", cfg.ReminderGrace)
	}
}

func TestLoad_MissingToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "restored after the test")
	if err := os.Unsetenv("BOT_TOKEN"); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Fatal("expected error without BOT_TOKEN")
	}
}
