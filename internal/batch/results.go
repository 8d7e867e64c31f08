package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

// RunConfig is the configuration section of the results YAML
type RunConfig struct {
	Manifest  string `yaml:"manifest"`
	APIURL    string `yaml:"apiurl"`
	Picker    string `yaml:"picker"`
	Limit     int    `yaml:"limit"`
	Timestamp string `yaml:"timestamp"`
}

// Report is the complete batch results document
type Report struct {
	Config  RunConfig `yaml:"config"`
	Summary Summary   `yaml:"summary"`
	Results []Result  `yaml:"results"`
}

// SaveYAML writes the report to dir and returns the file path
func SaveYAML(dir string, config RunConfig, results []Result) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create results directory: %w", err)
	}

	if config.Timestamp == "" {
		config.Timestamp = time.Now().Format("2006-01-02_15-04-05")
	}

	report := Report{
		Config:  config,
		Summary: Summarize(results),
		Results: results,
	}

	data, err := yaml.Marshal(&report)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	filename := filepath.Join(dir, fmt.Sprintf("batch-%s.yaml", config.Timestamp))
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}
	return filename, nil
}

// SaveParquet writes one row per result
func SaveParquet(path string, results []Result) error {
	if err := parquet.WriteFile(path, results); err != nil {
		return fmt.Errorf("failed to write parquet file: %w", err)
	}
	return nil
}

// LoadReport reads a YAML report written by SaveYAML
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	var report Report
	if err := yaml.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}
