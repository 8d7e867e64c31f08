// Package batch classifies a manifest of images and records the results.
package batch

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// Entry is one image listed in a manifest
type Entry struct {
	ID   string `parquet:"id" json:"id"`
	Path string `parquet:"path" json:"path"`
	// Expected is an optional ORGANIC or INORGANIC ground truth label
	Expected string `parquet:"expected,optional" json:"expected,omitempty"`
}

// Loader reads manifests in JSONL or Parquet form
type Loader struct {
	manifestPath string
}

func NewLoader(manifestPath string) *Loader {
	return &Loader{manifestPath: manifestPath}
}

// Load reads every entry. A limit above zero stops after that many entries.
func (l *Loader) Load(limit int) ([]Entry, error) {
	ext := strings.ToLower(filepath.Ext(l.manifestPath))

	var (
		entries []Entry
		err     error
	)
	switch ext {
	case ".parquet":
		entries, err = l.loadParquet(limit)
	case ".jsonl", ".json":
		entries, err = l.loadJSONL(limit)
	default:
		return nil, fmt.Errorf("unsupported manifest format: %s (supported: .parquet, .jsonl)", ext)
	}
	if err != nil {
		return nil, err
	}

	for i := range entries {
		if entries[i].ID == "" {
			entries[i].ID = strings.TrimSuffix(filepath.Base(entries[i].Path), filepath.Ext(entries[i].Path))
		}
		entries[i].Expected = strings.ToUpper(strings.TrimSpace(entries[i].Expected))
	}
	return entries, nil
}

func (l *Loader) loadJSONL(limit int) ([]Entry, error) {
	file, err := os.Open(l.manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer file.Close()

	var entries []Entry
	scanner := bufio.NewScanner(file)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry Entry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		if entry.Path == "" {
			return nil, fmt.Errorf("missing path at line %d", lineNum)
		}
		entries = append(entries, entry)

		if limit > 0 && len(entries) >= limit {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading manifest: %w", err)
	}

	slog.Debug("Finished reading JSONL manifest", "entries", len(entries), "lines", lineNum)
	return entries, nil
}

func (l *Loader) loadParquet(limit int) ([]Entry, error) {
	file, err := os.Open(l.manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}
	slog.Debug("Parquet manifest opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[Entry](pf)
	defer reader.Close()

	var entries []Entry
	rows := make([]Entry, 128)
	for {
		n, err := reader.Read(rows)
		entries = append(entries, rows[:n]...)
		if limit > 0 && len(entries) >= limit {
			return entries[:limit], nil
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	slog.Debug("Finished reading Parquet manifest", "entries", len(entries))
	return entries, nil
}
