package datasets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnvDataHome overrides the default data home directory.
const EnvDataHome = "HOUSING_DATA"

const defaultDataHome = "housing_data"

// DataHome resolves the directory datasets are cached in. An explicit path
// wins, then $HOUSING_DATA, then ~/housing_data. A leading "~/" is expanded.
// The directory is not created.
func DataHome(path string) (string, error) {
	if path == "" {
		path = os.Getenv(EnvDataHome)
	}
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("datasets: resolve data home: %w", err)
		}
		return filepath.Join(home, defaultDataHome), nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("datasets: resolve data home: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}
	return filepath.Clean(path), nil
}

// ClearDataHome removes the data home and everything cached in it.
func ClearDataHome(path string) error {
	home, err := DataHome(path)
	if err != nil {
		return err
	}
	return os.RemoveAll(home)
}
