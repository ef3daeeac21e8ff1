package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateThresholds(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateMerge(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateThresholds() error {
	if c.Thresholds.Flag > c.Thresholds.AutoMerge {
		return fmt.Errorf("thresholds.flag (%d) must not exceed thresholds.auto_merge (%d)",
			c.Thresholds.Flag, c.Thresholds.AutoMerge)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

func (c *Config) validateMerge() error {
	if c.Merge.DeleteTimeoutSeconds > c.Merge.AdminDeleteTimeoutSeconds {
		return errors.New("merge.delete_timeout_seconds must not exceed merge.admin_delete_timeout_seconds")
	}
	return nil
}
