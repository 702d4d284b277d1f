package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

// capture redirects stdout around fn and returns what was written.
func capture(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()

	w.Close()
	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

func TestTaggedLevels(t *testing.T) {
	got := capture(t, func() {
		Info("DB", "opened")
		Success("Catalog", "loaded")
		Warn("Market", "slow response")
		Error("Server", "bind failed")
	})
	for _, want := range []string{"DB", "opened", "Catalog", "Market", "Server", "bind failed"} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}

func TestDebugGatedByLevel(t *testing.T) {
	got := capture(t, func() { Debug("Market", "GET /items") })
	if strings.Contains(got, "GET /items") {
		t.Errorf("debug line visible without SetDebug:\n%s", got)
	}

	SetDebug(true)
	defer SetDebug(false)
	got = capture(t, func() { Debug("Market", "GET /items") })
	if !strings.Contains(got, "GET /items") {
		t.Errorf("debug line missing with SetDebug enabled:\n%s", got)
	}
}

func TestBannerIncludesVersion(t *testing.T) {
	got := capture(t, func() { Banner("v1.2.3") })
	if !strings.Contains(got, "v1.2.3") {
		t.Errorf("banner missing version:\n%s", got)
	}
	// Empty version falls back to dev rather than printing nothing.
	got = capture(t, func() { Banner("") })
	if !strings.Contains(got, "dev") {
		t.Errorf("banner missing dev fallback:\n%s", got)
	}
}

func TestStatsFormatsCounts(t *testing.T) {
	got := capture(t, func() { Stats("records", 1234567) })
	if !strings.Contains(got, "1,234,567") {
		t.Errorf("Stats output missing separators:\n%s", got)
	}
}

func TestSectionAndServerNoPanic(t *testing.T) {
	capture(t, func() {
		Section("Scan")
		Server("127.0.0.1:8787")
	})
}
