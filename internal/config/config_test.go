package config

import (
	"testing"
	"time"
)

func TestDefault_Values(t *testing.T) {
	c := Default()
	if c == nil {
		t.Fatal("Default() returned nil")
	}
	if c.MaxRequests != 3 {
		t.Errorf("MaxRequests = %v, want 3", c.MaxRequests)
	}
	if c.WindowSeconds != 1 {
		t.Errorf("WindowSeconds = %v, want 1", c.WindowSeconds)
	}
	if c.DefaultStrategy != "balanced" {
		t.Errorf("DefaultStrategy = %q, want balanced", c.DefaultStrategy)
	}
	if c.DefaultMode != "instant" {
		t.Errorf("DefaultMode = %q, want instant", c.DefaultMode)
	}
	if c.PriceDepth != 5 {
		t.Errorf("PriceDepth = %v, want 5", c.PriceDepth)
	}
	if c.RefreshMinutes != 30 {
		t.Errorf("RefreshMinutes = %v, want 30", c.RefreshMinutes)
	}
	if c.Platform != "pc" {
		t.Errorf("Platform = %q, want pc", c.Platform)
	}
}

func TestWindowDuration(t *testing.T) {
	c := Default()
	if got := c.Window(); got != time.Second {
		t.Errorf("Window() = %v, want 1s", got)
	}
	c.WindowSeconds = 0.05
	if got := c.Window(); got != 50*time.Millisecond {
		t.Errorf("Window() = %v, want 50ms", got)
	}
}
