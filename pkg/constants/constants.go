// Package constants provides shared constants for the investment-optimizer application.
package constants

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the CSV output format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the JSON output format
	OutputFormatJSON = "json"

	// OutputFormatYAML is the YAML output format
	OutputFormatYAML = "yaml"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultSQLitePath is the database file used by the sqlite driver when
	// no path is configured
	DefaultSQLitePath = "investments.db"
)

// Database driver names
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxUploadSizeBytes is the default maximum spreadsheet upload size (10 MB)
	DefaultMaxUploadSizeBytes int64 = 10 * 1024 * 1024

	// DefaultAPIVersion is the version segment of the API prefix
	DefaultAPIVersion = "v1"

	// DefaultMaxConcurrentSolves bounds the solves running at once
	DefaultMaxConcurrentSolves = 4

	// AccessTokenHeader carries the shared secret on authenticated routes
	AccessTokenHeader = "access-token"
)

// Problem size defaults
const (
	DefaultMaxLevels      = 2000
	DefaultMaxEnterprises = 200
)
