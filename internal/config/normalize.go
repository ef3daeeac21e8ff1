package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeThresholds()
	c.normalizeScores()
	c.normalizeLimits()
	c.normalizeMerge()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LibraryDB) == "" {
		c.Paths.LibraryDB = defaultLibraryDB
	}
	if c.Paths.LibraryDB, err = expandPath(c.Paths.LibraryDB); err != nil {
		return fmt.Errorf("paths.library_db: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeThresholds() {
	if c.Thresholds.AutoMerge <= 0 || c.Thresholds.AutoMerge > 100 {
		c.Thresholds.AutoMerge = defaultAutoMergeThreshold
	}
	if c.Thresholds.Flag <= 0 || c.Thresholds.Flag > 100 {
		c.Thresholds.Flag = defaultFlagThreshold
	}
}

func (c *Config) normalizeScores() {
	if c.Scores.DOI <= 0 || c.Scores.DOI > 100 {
		c.Scores.DOI = defaultDOIScore
	}
	if c.Scores.ISBN <= 0 || c.Scores.ISBN > 100 {
		c.Scores.ISBN = defaultISBNScore
	}
	if c.Scores.PMID <= 0 || c.Scores.PMID > 100 {
		c.Scores.PMID = defaultPMIDScore
	}
	if c.Scores.PMCID <= 0 || c.Scores.PMCID > 100 {
		c.Scores.PMCID = defaultPMCIDScore
	}
	if c.Scores.ArXiv <= 0 || c.Scores.ArXiv > 100 {
		c.Scores.ArXiv = defaultArXivScore
	}
	if c.Scores.URL <= 0 || c.Scores.URL > 100 {
		c.Scores.URL = defaultURLScore
	}
}

func (c *Config) normalizeLimits() {
	if c.Limits.MaxCandidates <= 0 {
		c.Limits.MaxCandidates = defaultMaxCandidates
	}
	if c.Limits.FuzzyAuthorLimit <= 0 {
		c.Limits.FuzzyAuthorLimit = defaultFuzzyAuthorLimit
	}
	if c.Limits.TitleFallbackLimit <= 0 {
		c.Limits.TitleFallbackLimit = defaultTitleFallbackLimit
	}
	if c.Limits.SearchPageSize <= 0 {
		c.Limits.SearchPageSize = defaultSearchPageSize
	}
}

func (c *Config) normalizeMerge() {
	if c.Merge.DeleteTimeoutSeconds <= 0 {
		c.Merge.DeleteTimeoutSeconds = defaultDeleteTimeoutSeconds
	}
	if c.Merge.AdminDeleteTimeoutSeconds <= 0 {
		c.Merge.AdminDeleteTimeoutSeconds = defaultAdminDeleteTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
