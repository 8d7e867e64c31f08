// Package config collects runtime settings from the environment. A .env file
// is loaded by the root command before any of these are read.
package config

import (
	"os"
	"strconv"
	"time"
)

const (
	DefaultAPIURL      = "http://localhost:10000"
	DefaultPort        = "8888"
	DefaultModelPort   = "10000"
	DefaultModelPath   = "model.h5"
	DefaultHTTPTimeout = 30 * time.Second
	DefaultPicker      = "random"
)

type Config struct {
	// APIURL is the base URL of the prediction service (/health, /predict)
	APIURL      string
	HTTPTimeout time.Duration
	Port        string

	// Picker selects the subject labeling strategy: random, ollama, openai or gemini
	Picker      string
	PickerModel string

	ModelPath     string
	ModelPort     string
	TelegramToken string
}

func Load() *Config {
	return &Config{
		APIURL:        getenv("GREENLENS_API_URL", DefaultAPIURL),
		HTTPTimeout:   durationEnv("GREENLENS_HTTP_TIMEOUT", DefaultHTTPTimeout),
		Port:          getenv("GREENLENS_PORT", DefaultPort),
		Picker:        getenv("GREENLENS_PICKER", DefaultPicker),
		PickerModel:   os.Getenv("GREENLENS_PICKER_MODEL"),
		ModelPath:     getenv("GREENLENS_MODEL_PATH", DefaultModelPath),
		ModelPort:     getenv("PORT", DefaultModelPort),
		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// durationEnv accepts Go durations ("45s") or a plain number of seconds
func durationEnv(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
