// Package debug provides env-gated diagnostic output. Set GROVE_DEBUG
// or pass --verbose to see it; --quiet suppresses normal informational
// output as well.
package debug

import (
	"fmt"
	"os"
)

var (
	enabled     = os.Getenv("GROVE_DEBUG") != ""
	verboseMode = false
	quietMode   = false
)

func Enabled() bool {
	return enabled || verboseMode
}

// SetVerbose enables verbose/debug output.
func SetVerbose(verbose bool) {
	verboseMode = verbose
}

// SetQuiet suppresses non-essential output.
func SetQuiet(quiet bool) {
	quietMode = quiet
}

// IsQuiet returns true if quiet mode is enabled.
func IsQuiet() bool {
	return quietMode
}

// Logf writes diagnostic output to stderr when debugging is enabled.
func Logf(format string, args ...interface{}) {
	if enabled || verboseMode {
		fmt.Fprintf(os.Stderr, format, args...)
	}
}

// Infof prints informational output unless quiet mode is enabled.
func Infof(format string, args ...interface{}) {
	if !quietMode {
		fmt.Printf(format, args...)
	}
}
