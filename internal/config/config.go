package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration parses human-readable durations ("4h", "30m") from YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

type Config struct {
	Sources       []SourceConfig  `yaml:"sources"`
	Remote        RemoteConfig    `yaml:"remote"`
	Retention     RetentionConfig `yaml:"retention"`
	Transfer      TransferConfig  `yaml:"transfer"`
	LogDirectory  string          `yaml:"logDirectory"`
	LockDirectory string          `yaml:"lockDirectory"`
	Schedule      string          `yaml:"schedule"`    // cron spec, empty = one-shot only
	Concurrency   int             `yaml:"concurrency"` // max parallel sources, <=1 = sequential
	Logging       LoggingConfig   `yaml:"logging"`
}

type SourceConfig struct {
	Path        string `yaml:"path"`
	ExcludeFile string `yaml:"excludeFile"` // optional --exclude-from file for this source
}

type RemoteConfig struct {
	Host string `yaml:"host"` // empty = destination root is a local/mounted path
	Root string `yaml:"root"`
}

type RetentionConfig struct {
	KeepDays         int  `yaml:"keepDays"`
	KeepMonthlyFirst bool `yaml:"keepMonthlyFirst"`
}

type TransferConfig struct {
	RsyncPath string   `yaml:"rsyncPath"` // defaults to "rsync" from PATH
	ExtraArgs []string `yaml:"extraArgs"`
	Timeout   Duration `yaml:"timeout"` // e.g. 4h, 0 = unlimited
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // "info", "debug", etc.
	Format string `yaml:"format"` // "json", "console"
}

// Validate checks required fields and fills defaults.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("no source paths configured")
	}
	for i, s := range c.Sources {
		if s.Path == "" {
			return fmt.Errorf("source %d: path is required", i)
		}
	}
	if c.Remote.Root == "" {
		return fmt.Errorf("remote root is required")
	}
	if c.Retention.KeepDays <= 0 {
		return fmt.Errorf("retention keepDays must be positive, got %d", c.Retention.KeepDays)
	}
	if c.LogDirectory == "" {
		return fmt.Errorf("logDirectory is required")
	}
	if c.LockDirectory == "" {
		c.LockDirectory = "/var/lock/rsync-snapper"
	}
	if c.Transfer.RsyncPath == "" {
		c.Transfer.RsyncPath = "rsync"
	}
	return nil
}
