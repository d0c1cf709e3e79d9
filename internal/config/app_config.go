package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/Hawaii-Smart-Energy-Project/Smart-Energy-Kit/internal/logger"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SEK"

// Defaults applied by Load when neither the file nor the environment sets a value.
const (
	DefaultLogLevel         = "info"
	DefaultDriver           = "sqlite"
	DefaultSQLitePath       = "sek.db"
	DefaultConnectTimeout   = 10 * time.Second
	DefaultStatementTimeout = 30 * time.Second
	DefaultSMTPPort         = 587
	DefaultSMTPTimeout      = 15 * time.Second
	DefaultEncryption       = "starttls"
	DefaultSubject          = "HISEP Notification"
)

// AppConfig is the complete configuration of the kit.
type AppConfig struct {
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Notifier NotifierConfig `yaml:"notifier"`
}

// LogConfig controls the logger sinks.
type LogConfig struct {
	// Level is one of silent, debug, info, warning, error, critical.
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	NoColor bool   `yaml:"no_color" split_words:"true"`
}

// DatabaseConfig describes the connection used by the history store.
type DatabaseConfig struct {
	// Driver is sqlite, mysql or pgx.
	Driver string `yaml:"driver"`
	// Path is the SQLite database file. Ignored by the other drivers.
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	// TestingName replaces Name (or Path for SQLite) when Testing is set.
	TestingName string `yaml:"testing_name" split_words:"true"`
	Testing     bool   `yaml:"testing"`

	ConnectTimeout   time.Duration `yaml:"connect_timeout" split_words:"true"`
	StatementTimeout time.Duration `yaml:"statement_timeout" split_words:"true"`
}

// NotifierConfig holds the SMTP account and addressing of the notifier.
type NotifierConfig struct {
	Host     string `yaml:"host" validate:"required,hostname_rfc1123|ip"`
	Port     int    `yaml:"port" validate:"required,min=1,max=65535"`
	Username string `yaml:"username" validate:"required"`
	Password string `yaml:"password" validate:"required"`
	From     string `yaml:"from" validate:"required,email"`
	To       string `yaml:"to" validate:"required,email"`
	// TestingTo receives mail sent in testing mode.
	TestingTo string `yaml:"testing_to" split_words:"true" validate:"omitempty,email"`
	// Encryption is none, starttls or ssl_tls.
	Encryption string        `yaml:"encryption" validate:"oneof=none starttls ssl_tls"`
	Timeout    time.Duration `yaml:"timeout"`
	Subject    string        `yaml:"subject"`
}

// Load reads the YAML file at path (skipped when path is empty), overlays
// SEK_<SECTION>_<FIELD> environment variables (for example
// SEK_NOTIFIER_PASSWORD or SEK_DATABASE_STATEMENT_TIMEOUT) and fills in
// defaults.
func Load(path string) (*AppConfig, error) {
	var c AppConfig
	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // operator-supplied config path
		if err != nil {
			return nil, fmt.Errorf("reading config file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parsing config file %q: %w", path, err)
		}
	}
	if err := envconfig.Process(EnvPrefix, &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	c.ApplyDefaults()
	return &c, nil
}

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *AppConfig) ApplyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	c.Database.ApplyDefaults()
	c.Notifier.ApplyDefaults()
}

// SlogLevel converts the LogLevel string to a slog.Level.
// Unknown values default to slog.LevelInfo.
func (c *AppConfig) SlogLevel() slog.Level {
	l, err := logger.ParseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

// ApplyDefaults fills zero-valued fields with their defaults.
func (d *DatabaseConfig) ApplyDefaults() {
	if d.Driver == "" {
		d.Driver = DefaultDriver
	}
	if d.Driver == "sqlite" && d.Path == "" {
		d.Path = DefaultSQLitePath
	}
	if d.ConnectTimeout == 0 {
		d.ConnectTimeout = DefaultConnectTimeout
	}
	if d.StatementTimeout == 0 {
		d.StatementTimeout = DefaultStatementTimeout
	}
}

// DatabaseName returns the database to connect to, honoring testing mode.
// For SQLite it is the database file path.
func (d *DatabaseConfig) DatabaseName() string {
	if d.Testing && d.TestingName != "" {
		return d.TestingName
	}
	if d.Driver == "sqlite" {
		return d.Path
	}
	return d.Name
}

// ApplyDefaults fills zero-valued fields with their defaults.
func (n *NotifierConfig) ApplyDefaults() {
	if n.Port == 0 {
		n.Port = DefaultSMTPPort
	}
	if n.Encryption == "" {
		n.Encryption = DefaultEncryption
	}
	if n.Timeout == 0 {
		n.Timeout = DefaultSMTPTimeout
	}
	if n.Subject == "" {
		n.Subject = DefaultSubject
	}
}

var validate = validator.New()

// Validate reports every missing or malformed notifier setting in one error.
func (n *NotifierConfig) Validate() error {
	err := validate.Struct(n)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating notifier config: %w", err)
	}
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		problems = append(problems, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid notifier config: %s", strings.Join(problems, ", "))
}
