// Package cli provides the command-line interface for seotrack.
package cli

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tgienger/seotrack/internal/errors"
)

// Exit codes for the CLI.
const (
	ExitSuccess      = 0
	ExitError        = 1
	ExitInvalidInput = 2
)

// Output format constants.
const (
	OutputText = "text"
	OutputJSON = "json"
)

// GlobalFlags holds flags available to all commands.
type GlobalFlags struct {
	// ConfigFile replaces the default config file location.
	ConfigFile string
	// User signs in as this identity for the duration of the command.
	User string
	// Output specifies the output format (text or json).
	Output string
	// Verbose enables debug-level logging.
	Verbose bool
	// Quiet suppresses non-essential output (warn level only).
	Quiet bool
}

// AddGlobalFlags adds global flags to a command.
func AddGlobalFlags(cmd *cobra.Command, flags *GlobalFlags) {
	cmd.PersistentFlags().StringVar(&flags.ConfigFile, "config", "", "config file (default $XDG_CONFIG_HOME/seotrack/config.yaml)")
	cmd.PersistentFlags().StringVar(&flags.User, "user", "", "act as this signed-in user instead of the session")
	cmd.PersistentFlags().StringVarP(&flags.Output, "output", "o", OutputText, "output format (text|json)")
	cmd.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "enable verbose output")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "suppress non-essential output")
	cmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
}

// ValidOutputFormats returns the list of valid output format values.
func ValidOutputFormats() []string {
	return []string{OutputText, OutputJSON}
}

// IsValidOutputFormat checks if the given format is a valid output format.
func IsValidOutputFormat(format string) bool {
	for _, valid := range ValidOutputFormats() {
		if format == valid {
			return true
		}
	}
	return false
}

func validateOutputFormat(format string) error {
	if !IsValidOutputFormat(format) {
		return fmt.Errorf("%w: %q must be one of %v", errors.ErrInvalidOutputFormat, format, ValidOutputFormats())
	}
	return nil
}

// ExitCodeForError maps an error to a process exit code. Bad flags and
// rejected input exit with ExitInvalidInput.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if stderrors.Is(err, errors.ErrInvalidOutputFormat) ||
		stderrors.Is(err, errors.ErrInvalidInput) ||
		stderrors.Is(err, errors.ErrEmptyValue) {
		return ExitInvalidInput
	}
	if isInvalidInputError(err.Error()) {
		return ExitInvalidInput
	}
	return ExitError
}

// isInvalidInputError catches cobra's own flag and argument errors
func isInvalidInputError(errMsg string) bool {
	invalidInputPatterns := []string{
		"unknown flag",
		"unknown shorthand flag",
		"flag needs an argument",
		"invalid argument",
		"if any flags in the group",
		"required flag",
		"unknown command",
		"accepts ",
	}

	for _, pattern := range invalidInputPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}
	return false
}
