// Package validation provides common validation utilities.
package validation

import (
	"fmt"
	"strings"

	"github.com/iwvelando/investment-optimizer/pkg/constants"
)

var outputFormats = []string{
	constants.OutputFormatPretty,
	constants.OutputFormatCSV,
	constants.OutputFormatJSON,
	constants.OutputFormatYAML,
}

var logLevels = []string{"debug", "info", "warn", "warning", "error"}

var logFormats = []string{"json", "console"}

var drivers = []string{constants.DriverPostgres, constants.DriverSQLite}

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	return oneOf("output format", format, outputFormats)
}

// ValidateLogLevel checks a zap level name. Empty means the default.
func ValidateLogLevel(level string) error {
	if level == "" {
		return nil
	}
	return oneOf("log level", level, logLevels)
}

// ValidateLogFormat checks a zap encoding name. Empty means the default.
func ValidateLogFormat(format string) error {
	if format == "" {
		return nil
	}
	return oneOf("log format", format, logFormats)
}

// ValidateDriver checks the database driver name.
func ValidateDriver(driver string) error {
	return oneOf("database driver", driver, drivers)
}

func oneOf(what, value string, allowed []string) error {
	for _, candidate := range allowed {
		if value == candidate {
			return nil
		}
	}
	return fmt.Errorf("expected %s of %s, got %q", what, strings.Join(allowed, ", "), value)
}
