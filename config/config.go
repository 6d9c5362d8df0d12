package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for optional configuration fields.
const (
	DefaultSourceURL         = "https://www.cftc.gov/files/dea/history/fut_fin_txt_{year}.zip"
	DefaultSourceTimeout     = 60 * time.Second
	DefaultMaxAttempts       = 3
	DefaultRequestsPerSecond = 1.0
	DefaultInstrumentName    = "CRUDE OIL, LIGHT SWEET - NEW YORK MERCANTILE EXCHANGE"
	DefaultInstrumentTitle   = "US CRUDE WTI FUTURE"
	DefaultSourceLabel       = "New York Mercantile Exchange"
	DefaultNameField         = "Market_and_Exchange_Names"
	DefaultDateField         = "Report_Date_as_YYYY-MM-DD"
	DefaultSMTPHost          = "smtp.gmail.com"
	DefaultSMTPPort          = 587
	DefaultRunTimeout        = 5 * time.Minute
	DefaultMetricsNamespace  = "COTReport"
)

type Config struct {
	COTReport  AppConfig        `yaml:"cotreport"`
	Source     SourceConfig     `yaml:"source"`
	Instrument InstrumentConfig `yaml:"instrument"`
	Notify     NotifyConfig     `yaml:"notify"`
	Run        RunConfig        `yaml:"run"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

type AppConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// SourceConfig describes where the history archive is fetched from.
// URL may contain {year}, replaced by the year of the run.
type SourceConfig struct {
	URL               string        `yaml:"url"`
	Timeout           time.Duration `yaml:"timeout"`
	MaxAttempts       int           `yaml:"max_attempts"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	UserAgent         string        `yaml:"user_agent"`
	S3                S3Config      `yaml:"s3"`
}

type S3Config struct {
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type InstrumentConfig struct {
	Name        string `yaml:"name"`
	Title       string `yaml:"title"`
	SourceLabel string `yaml:"source_label"`
	NameField   string `yaml:"name_field"`
	DateField   string `yaml:"date_field"`
}

type NotifyConfig struct {
	Enabled bool       `yaml:"enabled"`
	SMTP    SMTPConfig `yaml:"smtp"`
}

type SMTPConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Sender    string `yaml:"sender"`
	Password  string `yaml:"password"`
	Recipient string `yaml:"recipient"`
}

type RunConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	DryRun  bool          `yaml:"dry_run"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

type MetricsConfig struct {
	CloudWatch CloudWatchConfig `yaml:"cloudwatch"`
}

type CloudWatchConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Region    string `yaml:"region"`
	Namespace string `yaml:"namespace"`
}

// Override adjusts a decoded configuration before defaults and validation,
// typically from command line flags.
type Override func(*Config)

// LoadConfig reads the YAML file at path, expands ${VAR} references,
// applies environment overrides, the given overrides and defaults, and
// validates the result. An empty path selects the file for the current APP_ENV.
func LoadConfig(path string, overrides ...Override) (*Config, error) {
	path = resolveEnvSpecificPath(path, DefaultConfigPath, envConfigPaths)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseConfig(data, overrides...)
}

// ParseConfig decodes configuration from raw YAML.
func ParseConfig(data []byte, overrides ...Override) (*Config, error) {
	config := Config{
		Notify: NotifyConfig{Enabled: true},
	}
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&config)
	for _, override := range overrides {
		if override != nil {
			override(&config)
		}
	}
	config.applyDefaults()

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func applyEnvOverrides(config *Config) {
	if v := os.Getenv("COT_SOURCE_URL"); v != "" {
		config.Source.URL = strings.TrimSpace(v)
	}
	if v := os.Getenv("SENDER_EMAIL"); v != "" {
		config.Notify.SMTP.Sender = strings.TrimSpace(v)
	}
	if v := os.Getenv("SENDER_PASSWORD"); v != "" {
		config.Notify.SMTP.Password = v
	}
	if v := os.Getenv("RECIPIENT_EMAIL"); v != "" {
		config.Notify.SMTP.Recipient = strings.TrimSpace(v)
	}
	if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
		config.Source.S3.AccessKeyID = strings.TrimSpace(v)
	}
	if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
		config.Source.S3.SecretAccessKey = strings.TrimSpace(v)
	}
	if v := os.Getenv("AWS_REGION"); v != "" {
		config.Source.S3.Region = strings.TrimSpace(v)
		if config.Metrics.CloudWatch.Region == "" {
			config.Metrics.CloudWatch.Region = strings.TrimSpace(v)
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Source.URL == "" {
		c.Source.URL = DefaultSourceURL
	}
	if c.Source.Timeout == 0 {
		c.Source.Timeout = DefaultSourceTimeout
	}
	if c.Source.MaxAttempts == 0 {
		c.Source.MaxAttempts = DefaultMaxAttempts
	}
	if c.Source.RequestsPerSecond == 0 {
		c.Source.RequestsPerSecond = DefaultRequestsPerSecond
	}

	if c.Instrument.Name == "" {
		c.Instrument.Name = DefaultInstrumentName
	}
	if c.Instrument.Title == "" {
		c.Instrument.Title = DefaultInstrumentTitle
	}
	if c.Instrument.SourceLabel == "" {
		c.Instrument.SourceLabel = DefaultSourceLabel
	}
	if c.Instrument.NameField == "" {
		c.Instrument.NameField = DefaultNameField
	}
	if c.Instrument.DateField == "" {
		c.Instrument.DateField = DefaultDateField
	}

	if c.Notify.SMTP.Host == "" {
		c.Notify.SMTP.Host = DefaultSMTPHost
	}
	if c.Notify.SMTP.Port == 0 {
		c.Notify.SMTP.Port = DefaultSMTPPort
	}

	if c.Run.Timeout == 0 {
		c.Run.Timeout = DefaultRunTimeout
	}
	if c.Metrics.CloudWatch.Namespace == "" {
		c.Metrics.CloudWatch.Namespace = DefaultMetricsNamespace
	}
}

func validateConfig(cfg *Config) error {
	if cfg.COTReport.Name == "" {
		return fmt.Errorf("cotreport.name is required")
	}
	if cfg.COTReport.Version == "" {
		return fmt.Errorf("cotreport.version is required")
	}

	if strings.TrimSpace(cfg.Source.URL) == "" {
		return fmt.Errorf("source.url is required")
	}
	if cfg.Source.Timeout < 0 {
		return fmt.Errorf("source.timeout must not be negative")
	}
	if cfg.Source.MaxAttempts < 1 {
		return fmt.Errorf("source.max_attempts must be greater than 0")
	}
	if cfg.Source.RequestsPerSecond < 0 {
		return fmt.Errorf("source.requests_per_second must not be negative")
	}

	if strings.TrimSpace(cfg.Instrument.Name) == "" {
		return fmt.Errorf("instrument.name is required")
	}

	if cfg.Run.Timeout < 0 {
		return fmt.Errorf("run.timeout must not be negative")
	}

	if cfg.Notify.Enabled && !cfg.Run.DryRun {
		smtp := cfg.Notify.SMTP
		if smtp.Port < 1 || smtp.Port > 65535 {
			return fmt.Errorf("notify.smtp.port %d is out of range", smtp.Port)
		}
		if smtp.Sender == "" || smtp.Password == "" {
			return fmt.Errorf("notify.smtp.sender and notify.smtp.password are required when notify is enabled")
		}
		if smtp.Recipient == "" {
			return fmt.Errorf("notify.smtp.recipient is required when notify is enabled")
		}
	}

	return nil
}
