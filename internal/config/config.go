package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory configuration.
type Paths struct {
	LibraryDB string `toml:"library_db"`
	LogDir    string `toml:"log_dir"`
}

// Thresholds contains the decision tier boundaries. Candidates scoring at or
// above AutoMerge are merged automatically; candidates in [Flag, AutoMerge)
// are surfaced for review; everything below Flag is ignored.
type Thresholds struct {
	AutoMerge int `toml:"auto_merge"`
	Flag      int `toml:"flag"`
}

// Scores contains the fixed scores assigned by the exact-match strategies.
type Scores struct {
	DOI   int `toml:"doi"`
	ISBN  int `toml:"isbn"`
	PMID  int `toml:"pmid"`
	PMCID int `toml:"pmcid"`
	ArXiv int `toml:"arxiv"`
	URL   int `toml:"url"`
}

// Limits bounds candidate search work per record.
type Limits struct {
	MaxCandidates      int `toml:"max_candidates"`
	FuzzyAuthorLimit   int `toml:"fuzzy_author_limit"`
	TitleFallbackLimit int `toml:"title_fallback_limit"`
	SearchPageSize     int `toml:"search_page_size"`
}

// Merge contains deletion budgets for merge execution.
type Merge struct {
	DeleteTimeoutSeconds      int `toml:"delete_timeout_seconds"`
	AdminDeleteTimeoutSeconds int `toml:"admin_delete_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for bibdup.
//
// Configuration sections by subsystem:
//   - Paths: library database location and log directory
//   - Thresholds: auto-merge and flag tier boundaries
//   - Scores: per-identifier strategy scores
//   - Limits: candidate search bounds
//   - Merge: deletion timeout budgets
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Thresholds Thresholds `toml:"thresholds"`
	Scores     Scores     `toml:"scores"`
	Limits     Limits     `toml:"limits"`
	Merge      Merge      `toml:"merge"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/bibdup/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/bibdup/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("bibdup.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories required for a dedup run.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir}
	if db := strings.TrimSpace(c.Paths.LibraryDB); db != "" {
		dirs = append(dirs, filepath.Dir(db))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the flock path guarding dedup passes over the library.
func (c *Config) LockPath() string {
	return c.Paths.LibraryDB + ".lock"
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
