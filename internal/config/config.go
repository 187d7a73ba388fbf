// Package config defines the data structures related to configuration and
// includes functions for loading and validating it.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/iwvelando/investment-optimizer/internal/allocation"
	"github.com/iwvelando/investment-optimizer/pkg/constants"
	"github.com/iwvelando/investment-optimizer/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for investment-optimizer.
type Configuration struct {
	Logging  LoggingConfig     `mapstructure:"logging" yaml:"logging,omitempty"`
	Output   OutputConfig      `mapstructure:"output" yaml:"output,omitempty"`
	Server   ServerConfig      `mapstructure:"server" yaml:"server,omitempty"`
	App      AppConfig         `mapstructure:"app" yaml:"app,omitempty"`
	Database DatabaseConfig    `mapstructure:"database" yaml:"database,omitempty"`
	Limits   allocation.Limits `mapstructure:"limits" yaml:"limits,omitempty"`
	Ingest   IngestConfig      `mapstructure:"ingest" yaml:"ingest,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level,omitempty"`           // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format,omitempty"`         // json, console
	OutputFile string `mapstructure:"outputFile" yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format,omitempty"` // pretty, csv, json, yaml
}

// ServerConfig defines runtime parameters for the HTTP server.
type ServerConfig struct {
	Address             string        `mapstructure:"address" yaml:"address,omitempty"`
	MaxUploadSize       string        `mapstructure:"maxUploadSize" yaml:"maxUploadSize,omitempty"`
	MaxConcurrentSolves int           `mapstructure:"maxConcurrentSolves" yaml:"maxConcurrentSolves,omitempty"`
	SolveTimeout        time.Duration `mapstructure:"solveTimeout" yaml:"solveTimeout,omitempty"`
	uploadSizeBytes     int64
}

// AppConfig holds the shared secret and API versioning.
type AppConfig struct {
	SecretKey  string `mapstructure:"secretKey" yaml:"-"`
	APIVersion string `mapstructure:"apiVersion" yaml:"apiVersion,omitempty"`
}

// DatabaseConfig selects and addresses the results store.
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver" yaml:"driver,omitempty"` // postgres, sqlite
	Host     string `mapstructure:"host" yaml:"host,omitempty"`
	Port     int    `mapstructure:"port" yaml:"port,omitempty"`
	User     string `mapstructure:"user" yaml:"user,omitempty"`
	Password string `mapstructure:"password" yaml:"-"`
	Name     string `mapstructure:"name" yaml:"name,omitempty"`
	SSLMode  string `mapstructure:"sslMode" yaml:"sslMode,omitempty"`
	Path     string `mapstructure:"path" yaml:"path,omitempty"` // sqlite database file
}

// IngestConfig tunes spreadsheet parsing.
type IngestConfig struct {
	Sheet string `mapstructure:"sheet" yaml:"sheet,omitempty"` // workbook sheet, first sheet when empty
}

// Environment variables honored in addition to the config file. The DB_ and
// APP_ names are shared with the deployment tooling of the results database.
var envBindings = map[string]string{
	"logging.level":              "LOG_LEVEL",
	"logging.format":             "LOG_FORMAT",
	"logging.outputFile":         "LOG_OUTPUT_FILE",
	"output.format":              "OUTPUT_FORMAT",
	"server.address":             "SERVER_ADDRESS",
	"server.maxUploadSize":       "SERVER_MAX_UPLOAD_SIZE",
	"server.maxConcurrentSolves": "SERVER_MAX_CONCURRENT_SOLVES",
	"server.solveTimeout":        "SERVER_SOLVE_TIMEOUT",
	"app.secretKey":              "APP_SECRET_KEY",
	"app.apiVersion":             "APP_API_VERSION",
	"database.driver":            "DB_DRIVER",
	"database.host":              "DB_HOST",
	"database.port":              "DB_PORT",
	"database.user":              "DB_USER",
	"database.password":          "DB_PASSWORD",
	"database.name":              "DB_NAME",
	"database.sslMode":           "DB_SSL_MODE",
	"database.path":              "DB_PATH",
	"limits.maxLevels":           "LIMITS_MAX_LEVELS",
	"limits.maxEnterprises":      "LIMITS_MAX_ENTERPRISES",
	"ingest.sheet":               "INGEST_SHEET",
}

func newViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("server.address", constants.DefaultServerAddress)
	v.SetDefault("server.maxUploadSize", strconv.FormatInt(constants.DefaultMaxUploadSizeBytes, 10))
	v.SetDefault("server.maxConcurrentSolves", constants.DefaultMaxConcurrentSolves)
	v.SetDefault("server.solveTimeout", "30s")
	v.SetDefault("app.apiVersion", constants.DefaultAPIVersion)
	v.SetDefault("database.driver", constants.DriverSQLite)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslMode", "disable")
	v.SetDefault("database.path", constants.DefaultSQLitePath)
	v.SetDefault("limits.maxLevels", constants.DefaultMaxLevels)
	v.SetDefault("limits.maxEnterprises", constants.DefaultMaxEnterprises)

	for key, env := range envBindings {
		// BindEnv only fails when called without a key.
		_ = v.BindEnv(key, env)
	}

	return v
}

// LoadConfiguration loads the YAML configuration at configPath layered over
// defaults and environment variables. A missing file is not an error.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("error reading config file, %w", err)
			}
		}
	}

	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r layered over
// defaults and environment variables.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	if err := configuration.Server.normalize(); err != nil {
		return nil, err
	}

	return &configuration, nil
}

// Validate reports the first invalid setting.
func (c *Configuration) Validate() error {
	if err := validation.ValidateLogLevel(c.Logging.Level); err != nil {
		return err
	}
	if err := validation.ValidateLogFormat(c.Logging.Format); err != nil {
		return err
	}
	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		return err
	}
	if err := validation.ValidateDriver(c.Database.Driver); err != nil {
		return err
	}
	if c.Database.Driver == constants.DriverPostgres {
		if c.Database.Host == "" || c.Database.Name == "" || c.Database.User == "" {
			return fmt.Errorf("postgres requires database host, name and user")
		}
	}
	if c.Server.MaxConcurrentSolves < 1 {
		return fmt.Errorf("server maxConcurrentSolves must be at least 1, got %d", c.Server.MaxConcurrentSolves)
	}
	if c.Server.SolveTimeout < 0 {
		return fmt.Errorf("server solveTimeout must not be negative, got %s", c.Server.SolveTimeout)
	}
	if c.Limits.MaxLevels < 0 || c.Limits.MaxEnterprises < 0 {
		return fmt.Errorf("limits must not be negative")
	}
	return nil
}

// APIPrefix returns the route prefix, e.g. /api/v1.
func (a AppConfig) APIPrefix() string {
	version := strings.ToLower(strings.TrimSpace(a.APIVersion))
	if version == "" {
		version = constants.DefaultAPIVersion
	}
	return "/api/" + version
}

// DSN returns the data source name for the configured driver.
func (d DatabaseConfig) DSN() string {
	switch d.Driver {
	case constants.DriverPostgres:
		u := url.URL{
			Scheme: "postgres",
			User:   url.UserPassword(d.User, d.Password),
			Host:   net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
			Path:   "/" + d.Name,
		}
		if d.SSLMode != "" {
			u.RawQuery = url.Values{"sslmode": []string{d.SSLMode}}.Encode()
		}
		return u.String()
	default:
		path := d.Path
		if path == "" {
			path = constants.DefaultSQLitePath
		}
		return path + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_time_format=sqlite"
	}
}

// UploadSizeBytes returns the configured upload size in bytes.
func (s *ServerConfig) UploadSizeBytes() int64 {
	if s.uploadSizeBytes <= 0 {
		return constants.DefaultMaxUploadSizeBytes
	}
	return s.uploadSizeBytes
}

// SetUploadSizeBytes overrides the configured upload size.
func (s *ServerConfig) SetUploadSizeBytes(size int64) {
	if size > 0 {
		s.uploadSizeBytes = size
		s.MaxUploadSize = strconv.FormatInt(size, 10)
	}
}

func (s *ServerConfig) normalize() error {
	if s.Address == "" {
		s.Address = constants.DefaultServerAddress
	}

	size, err := ParseSize(s.MaxUploadSize)
	if err != nil {
		return err
	}
	if size <= 0 {
		size = constants.DefaultMaxUploadSizeBytes
	}
	s.uploadSizeBytes = size
	return nil
}

// ParseSize converts a human-friendly byte string (e.g., "256K", "10M") into bytes.
func ParseSize(value string) (int64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return constants.DefaultMaxUploadSizeBytes, nil
	}

	upper := strings.ToUpper(trimmed)
	idx := len(upper)
	for idx > 0 && !unicode.IsDigit(rune(upper[idx-1])) {
		idx--
	}
	if idx == 0 {
		return 0, fmt.Errorf("invalid size: %s", value)
	}
	numPart := strings.TrimSpace(upper[:idx])
	unitPart := strings.TrimSpace(upper[idx:])

	n, err := strconv.ParseInt(numPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", value, err)
	}

	var multiplier int64
	switch unitPart {
	case "", "B":
		multiplier = 1
	case "K", "KB":
		multiplier = 1024
	case "M", "MB":
		multiplier = 1024 * 1024
	case "G", "GB":
		multiplier = 1024 * 1024 * 1024
	default:
		return 0, fmt.Errorf("unsupported size unit %q", unitPart)
	}

	result := n * multiplier
	if result < 0 {
		return 0, fmt.Errorf("size overflow for value %s", value)
	}
	return result, nil
}
