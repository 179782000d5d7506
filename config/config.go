// Package config resolves the registry's settings from flags, REGISTRY_*
// environment variables and an optional registry.{yaml,toml,json} file, in
// that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Skryldev/employee-registry/db"
)

// EnvPrefix is prepended to every environment variable, e.g. REGISTRY_DB_HOST.
const EnvPrefix = "REGISTRY"

// Config holds every runtime setting.
type Config struct {
	Driver     string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	ConnectTimeout time.Duration
	QueryTimeout   time.Duration
	SlowQuery      time.Duration

	LogLevel  string
	LogFormat string
	LogFile   string

	MetricsAddr string
	Migrate     bool
}

// Defaults reproduces the connection parameters the registry has always
// shipped with: a local MySQL server with database empresa_db.
func Defaults() Config {
	return Config{
		Driver:         "mysql",
		DBHost:         "127.0.0.1",
		DBUser:         "root",
		DBPassword:     "toor",
		DBName:         "empresa_db",
		ConnectTimeout: 5 * time.Second,
		SlowQuery:      200 * time.Millisecond,
		LogLevel:       "warn",
		LogFormat:      "text",
	}
}

// RegisterFlags adds one flag per setting to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Defaults()
	fs.String("config", "", "config file (default is registry.{yaml,toml,json} in . or $HOME/.registry)")
	fs.String("driver", d.Driver, "database driver: "+strings.Join(db.Drivers(), ", "))
	fs.String("db-host", d.DBHost, "database host")
	fs.Int("db-port", d.DBPort, "database port (0 uses the driver default)")
	fs.String("db-user", d.DBUser, "database user")
	fs.String("db-password", d.DBPassword, "database password")
	fs.String("db-name", d.DBName, "database name, or file path for sqlite3")
	fs.Duration("connect-timeout", d.ConnectTimeout, "timeout for establishing a connection")
	fs.Duration("query-timeout", d.QueryTimeout, "timeout for a single statement (0 disables)")
	fs.Duration("slow-query", d.SlowQuery, "log statements slower than this at warn level (0 disables)")
	fs.String("log-level", d.LogLevel, "log level: debug, info, warn, error")
	fs.String("log-format", d.LogFormat, "log format: text or json")
	fs.String("log-file", d.LogFile, "log file path (default is stderr)")
	fs.String("metrics-addr", d.MetricsAddr, "serve Prometheus metrics on this address, e.g. :9100")
	fs.Bool("migrate", d.Migrate, "apply pending schema migrations at start-up")
}

func setDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("driver", d.Driver)
	v.SetDefault("db-host", d.DBHost)
	v.SetDefault("db-port", d.DBPort)
	v.SetDefault("db-user", d.DBUser)
	v.SetDefault("db-password", d.DBPassword)
	v.SetDefault("db-name", d.DBName)
	v.SetDefault("connect-timeout", d.ConnectTimeout)
	v.SetDefault("query-timeout", d.QueryTimeout)
	v.SetDefault("slow-query", d.SlowQuery)
	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("log-format", d.LogFormat)
	v.SetDefault("log-file", d.LogFile)
	v.SetDefault("metrics-addr", d.MetricsAddr)
	v.SetDefault("migrate", d.Migrate)
}

// Load resolves the configuration. fs may be nil. A config file named by the
// --config flag must exist; the default search locations are optional.
func Load(v *viper.Viper, fs *pflag.FlagSet) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, fmt.Errorf("config: bind flags: %w", err)
		}
	}

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", file, err)
		}
	} else {
		v.SetConfigName("registry")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".registry"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: %w", err)
			}
		}
	}

	cfg := &Config{
		Driver:         v.GetString("driver"),
		DBHost:         v.GetString("db-host"),
		DBPort:         v.GetInt("db-port"),
		DBUser:         v.GetString("db-user"),
		DBPassword:     v.GetString("db-password"),
		DBName:         v.GetString("db-name"),
		ConnectTimeout: v.GetDuration("connect-timeout"),
		QueryTimeout:   v.GetDuration("query-timeout"),
		SlowQuery:      v.GetDuration("slow-query"),
		LogLevel:       v.GetString("log-level"),
		LogFormat:      v.GetString("log-format"),
		LogFile:        v.GetString("log-file"),
		MetricsAddr:    v.GetString("metrics-addr"),
		Migrate:        v.GetBool("migrate"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if _, err := db.LookupDriver(c.Driver); err != nil {
		errs = append(errs, fmt.Errorf("config: driver: %w", err))
	}
	if strings.TrimSpace(c.DBName) == "" {
		errs = append(errs, errors.New("config: db-name is required"))
	}
	if c.DBPort < 0 || c.DBPort > 65535 {
		errs = append(errs, fmt.Errorf("config: db-port %d out of range", c.DBPort))
	}
	if c.ConnectTimeout < 0 {
		errs = append(errs, errors.New("config: connect-timeout must not be negative"))
	}
	if c.QueryTimeout < 0 {
		errs = append(errs, errors.New("config: query-timeout must not be negative"))
	}
	if c.SlowQuery < 0 {
		errs = append(errs, errors.New("config: slow-query must not be negative"))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("config: log-format %q must be text or json", c.LogFormat))
	}
	return errors.Join(errs...)
}

// DriverOptions returns the connection parameters for db.BuildDSN.
func (c *Config) DriverOptions() db.DriverOptions {
	return db.DriverOptions{
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		Database: c.DBName,
		Timeout:  c.ConnectTimeout,
	}
}

// DBConfig builds the db.Config used by a Connector. Statements are logged
// through logger; collector may be nil.
func (c *Config) DBConfig(logger *slog.Logger, collector db.MetricsCollector) (db.Config, error) {
	dsn, err := db.BuildDSN(c.Driver, c.DriverOptions())
	if err != nil {
		return db.Config{}, fmt.Errorf("config: %w", err)
	}
	hooks := []db.Hook{
		db.NewLogHook(db.LogHookConfig{Logger: logger, SlowQueryThreshold: c.SlowQuery}),
	}
	if collector != nil {
		hooks = append(hooks, db.NewMetricsHook(collector))
	}
	return db.Config{
		DSN:            dsn,
		DriverName:     c.Driver,
		ConnectTimeout: c.ConnectTimeout,
		DefaultTimeout: c.QueryTimeout,
		Hooks:          hooks,
	}, nil
}

// MigrateURL returns the golang-migrate database URL for the configured
// database.
func (c *Config) MigrateURL() (string, error) {
	u, err := db.BuildMigrateURL(c.Driver, c.DriverOptions())
	if err != nil {
		return "", fmt.Errorf("config: %w", err)
	}
	return u, nil
}

// NewLogger builds the slog logger described by the log-* settings. The
// returned closer releases the log file, if any.
func (c *Config) NewLogger() (*slog.Logger, io.Closer, error) {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	var (
		w      io.Writer = os.Stderr
		closer io.Closer = io.NopCloser(nil)
	)
	if c.LogFile != "" {
		f, err := os.OpenFile(c.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("config: open log file: %w", err)
		}
		w, closer = f, f
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if strings.EqualFold(c.LogFormat, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h), closer, nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("config: log-level %q: must be debug, info, warn or error", s)
	}
	return l, nil
}
