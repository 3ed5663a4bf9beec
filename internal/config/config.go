package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pankaj-dahiya-devops/secmon/internal/models"
)

// EnvPrefix prefixes every environment override, e.g. SECMON_SCHEDULE_INTERVAL.
const EnvPrefix = "SECMON"

// Config is the top-level application configuration.
// It is read from secmon.yaml and SECMON_* environment variables; the Lambda
// entrypoint relies on the environment alone.
type Config struct {
	AWS       AWSConfig         `mapstructure:"aws"`
	Match     map[string]string `mapstructure:"match"`
	Publisher PublisherConfig   `mapstructure:"publisher"`
	Schedule  ScheduleConfig    `mapstructure:"schedule"`
	History   HistoryConfig     `mapstructure:"history"`
	Metrics   MetricsConfig     `mapstructure:"metrics"`
	Log       LogConfig         `mapstructure:"log"`
	Policy    PolicyConfig      `mapstructure:"policy"`
}

// AWSConfig selects the credentials and regions fetchers run against.
type AWSConfig struct {
	// Profile is the shared-config profile; empty uses the default chain.
	Profile string `mapstructure:"profile"`

	// Regions lists the regions for regional kinds. Empty means the
	// profile's region only.
	Regions []string `mapstructure:"regions"`
}

// PublisherConfig configures the CloudWatch metric and SNS alert.
type PublisherConfig struct {
	Namespace        string `mapstructure:"namespace"`
	MetricName       string `mapstructure:"metric_name"`
	SNSTopicARN      string `mapstructure:"sns_topic_arn"`
	AlertMinSeverity string `mapstructure:"alert_min_severity"`
}

// ScheduleConfig controls the daemon cycle. Timeout bounds one cycle and
// must not exceed Interval.
type ScheduleConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// HistoryConfig locates the bbolt report archive. Empty disables it.
type HistoryConfig struct {
	Path string `mapstructure:"path"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type LogConfig struct {
	Level   string `mapstructure:"level"`
	Console bool   `mapstructure:"console"`
}

// PolicyConfig points at the optional rule policy file.
type PolicyConfig struct {
	Path string `mapstructure:"path"`
}

// Loader is the interface for reading Config.
type Loader interface {
	// Load reads, parses, and validates the configuration.
	Load() (*Config, error)

	// ConfigPath returns the path of the configuration file, or "" when
	// running on defaults and environment only.
	ConfigPath() string
}

// FileLoader loads Config from Path merged with SECMON_* variables.
// An empty Path falls back to DefaultPath when that file exists.
type FileLoader struct {
	Path string
}

// NewFileLoader returns a FileLoader for path.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{Path: path}
}

// DefaultPath returns ~/.config/secmon/secmon.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "secmon", "secmon.yaml")
}

func (l *FileLoader) ConfigPath() string {
	if l.Path != "" {
		return l.Path
	}
	p := DefaultPath()
	if p == "" {
		return ""
	}
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

func (l *FileLoader) Load() (*Config, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := l.ConfigPath(); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("aws.profile", "")
	v.SetDefault("aws.regions", []string{})
	v.SetDefault("publisher.namespace", "SecurityMonitoring")
	v.SetDefault("publisher.metric_name", "SecurityCheckFailures")
	v.SetDefault("publisher.sns_topic_arn", "")
	v.SetDefault("publisher.alert_min_severity", string(models.SeverityLow))
	v.SetDefault("schedule.interval", 5*time.Minute)
	v.SetDefault("schedule.timeout", 4*time.Minute)
	v.SetDefault("history.path", "")
	v.SetDefault("metrics.addr", ":9464")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.console", false)
	v.SetDefault("policy.path", "")

	// Registered so SECMON_MATCH_<KIND> overrides are visible to Unmarshal.
	for _, k := range models.Kinds {
		v.SetDefault("match."+strings.ToLower(string(k)), "")
	}
}

// Validate checks every field and returns all problems joined.
func (c *Config) Validate() error {
	var errs []error

	if c.Schedule.Interval <= 0 {
		errs = append(errs, fmt.Errorf("schedule.interval must be positive"))
	}
	if c.Schedule.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("schedule.timeout must be positive"))
	}
	if c.Schedule.Interval > 0 && c.Schedule.Timeout > c.Schedule.Interval {
		errs = append(errs, fmt.Errorf("schedule.timeout (%s) must not exceed schedule.interval (%s)",
			c.Schedule.Timeout, c.Schedule.Interval))
	}
	if c.Publisher.Namespace == "" {
		errs = append(errs, fmt.Errorf("publisher.namespace is required"))
	}
	if c.Publisher.MetricName == "" {
		errs = append(errs, fmt.Errorf("publisher.metric_name is required"))
	}
	if _, err := models.ParseSeverity(c.Publisher.AlertMinSeverity); err != nil {
		errs = append(errs, fmt.Errorf("publisher.alert_min_severity: %w", err))
	}
	if _, err := c.NamePatterns(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// AlertMinSeverity returns the parsed alert threshold.
func (c *Config) AlertMinSeverity() models.Severity {
	sev, err := models.ParseSeverity(c.Publisher.AlertMinSeverity)
	if err != nil {
		return models.SeverityLow
	}
	return sev
}

// NamePatterns compiles the per-kind name filters. Kinds without a pattern
// are absent from the result and match every resource.
func (c *Config) NamePatterns() (map[models.Kind]*regexp.Regexp, error) {
	out := make(map[models.Kind]*regexp.Regexp)
	var errs []error
	for key, expr := range c.Match {
		if strings.TrimSpace(expr) == "" {
			continue
		}
		kind, err := models.ParseKind(key)
		if err != nil {
			errs = append(errs, fmt.Errorf("match.%s: %w", key, err))
			continue
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			errs = append(errs, fmt.Errorf("match.%s: %w", key, err))
			continue
		}
		out[kind] = re
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}
