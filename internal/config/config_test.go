package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"GREENLENS_API_URL", "GREENLENS_HTTP_TIMEOUT", "GREENLENS_PORT", "GREENLENS_PICKER", "PORT"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("Expected %s, got %s", DefaultAPIURL, cfg.APIURL)
	}
	if cfg.HTTPTimeout != DefaultHTTPTimeout {
		t.Errorf("Expected %v, got %v", DefaultHTTPTimeout, cfg.HTTPTimeout)
	}
	if cfg.Picker != DefaultPicker {
		t.Errorf("Expected %s, got %s", DefaultPicker, cfg.Picker)
	}
	if cfg.ModelPort != DefaultModelPort {
		t.Errorf("Expected %s, got %s", DefaultModelPort, cfg.ModelPort)
	}
}

func TestDurationEnv(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected time.Duration
	}{
		{name: "go duration", value: "45s", expected: 45 * time.Second},
		{name: "plain seconds", value: "5", expected: 5 * time.Second},
		{name: "garbage falls back", value: "soon", expected: time.Minute},
		{name: "negative seconds fall back", value: "-3", expected: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GREENLENS_TEST_TIMEOUT", tt.value)
			if got := durationEnv("GREENLENS_TEST_TIMEOUT", time.Minute); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}
