package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tokpromo/tokpromo/internal/types"
)

// generateFilename creates a timestamped filename with the given extension.
func generateFilename(t time.Time, ext string) string {
	return t.Format("2006-01-02T15-04-05") + ext
}

// SaveRun writes the summary as JSON to dir. Returns the path to the saved file.
func SaveRun(dir string, run *types.RunSummary) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create run dir: %w", err)
	}

	path := filepath.Join(dir, generateFilename(run.StartedAt, ".json"))

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal run: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write run: %w", err)
	}

	return path, nil
}

// LoadLatestRun loads the most recent run summary in dir.
// Returns the summary, the filepath it was loaded from, and any error.
func LoadLatestRun(dir string) (*types.RunSummary, string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("no saved runs in %s", dir)
		}
		return nil, "", err
	}

	// os.ReadDir sorts by name, which is chronological for our timestamps
	var latest string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			latest = entry.Name()
		}
	}
	if latest == "" {
		return nil, "", fmt.Errorf("no saved runs in %s", dir)
	}

	path := filepath.Join(dir, latest)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read run: %w", err)
	}

	var run types.RunSummary
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal run: %w", err)
	}

	return &run, path, nil
}
