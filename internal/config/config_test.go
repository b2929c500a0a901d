package config

import (
	"testing"
	"time"
)

func TestLoad_DefaultsWhenFileMissing(t *testing.T) {
	t.Setenv("CONFIG_ENV", "does-not-exist")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != 8080 {
		t.Errorf("Port = %d", cfg.Port)
	}
	if cfg.Mode != "release" {
		t.Errorf("Mode = %q", cfg.Mode)
	}
	if cfg.Broadcast.Driver != "redis" {
		t.Errorf("Broadcast.Driver = %q", cfg.Broadcast.Driver)
	}
	if cfg.WS.PingPeriod != 54*time.Second {
		t.Errorf("WS.PingPeriod = %v", cfg.WS.PingPeriod)
	}
	if cfg.WS.ReadLimit != 32768 {
		t.Errorf("WS.ReadLimit = %d", cfg.WS.ReadLimit)
	}
	if cfg.WS.CallLimit != 15 || cfg.WS.CallWindow != time.Minute {
		t.Errorf("WS call limit = %d per %v", cfg.WS.CallLimit, cfg.WS.CallWindow)
	}
	if !cfg.Tracker.Enabled || cfg.Tracker.RingTimeout != 2*time.Minute {
		t.Errorf("Tracker = %+v", cfg.Tracker)
	}
	if cfg.Redis.Addr != "" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
}
