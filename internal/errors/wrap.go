package errors

import "fmt"

// Wrap adds context to errors at package boundaries.
// It returns nil if err is nil, so it is safe to use inline:
//
//	return errors.Wrap(err, "failed to load snapshot")
//
// The original chain is preserved for errors.Is checks.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf is Wrap with a formatted message.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", msg, err)
}
