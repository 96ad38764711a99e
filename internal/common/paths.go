package common

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureStoragePaths creates every directory the store and the project
// filesystem need. It must run before storage.Open.
func EnsureStoragePaths(cfg *Config) error {
	dirs := []string{
		cfg.Directory.DataDir,
		cfg.Directory.ProjectsDir,
		cfg.Directory.TemplatesDir,
		filepath.Dir(cfg.Directory.DBPath),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("디렉토리 생성 실패 (%s): %w", dir, err)
		}
	}
	return nil
}

// DatabaseDSN returns the configured DSN, or the SQLite file path when no
// server database is configured.
func (c *Config) DatabaseDSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	return c.Directory.DBPath
}
