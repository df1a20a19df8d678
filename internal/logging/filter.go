// Package logging builds the seotrack logger and keeps secrets and inline
// attachment payloads out of log output.
package logging

import (
	"io"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// RedactedValue is the replacement string for sensitive data.
const RedactedValue = "[REDACTED]"

var sensitivePatterns = []*regexp.Regexp{ //nolint:gochecknoglobals // Package-level patterns for reuse
	// Bearer tokens
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._-]{20,}`),
	// Authorization headers with tokens
	regexp.MustCompile(`(?i)authorization\s*[:=]\s*["']?[a-zA-Z0-9._-]{20,}["']?`),
	// secret, password, credential, token with values
	regexp.MustCompile(`(?i)(secret|password|credential|passwd|pwd)\s*[:=]\s*["']?[^\s"']{8,}["']?`),
	regexp.MustCompile(`(?i)(token|auth)\s*[:=]\s*["']?[a-zA-Z0-9+/=._-]{32,}["']?`),
	// Signed URL query parameters
	regexp.MustCompile(`(?i)([?&](sig|signature|x-amz-signature|token)=)[^&\s"]+`),
}

// inlinePayload matches the base64 body of a data: URI. Guest attachments
// are stored this way and can run to megabytes.
var inlinePayload = regexp.MustCompile(`(data:[a-zA-Z0-9.+/-]+(?:;[a-zA-Z0-9=._-]+)*;base64,)[A-Za-z0-9+/=]{16,}`)

var sensitiveFieldNames = []string{ //nolint:gochecknoglobals // Package-level patterns for reuse
	"password",
	"passwd",
	"secret",
	"credential",
	"private_key",
	"access_token",
	"refresh_token",
	"session_token",
	"bearer",
	"authorization",
}

// SensitiveDataHook flags log events whose message contains sensitive data.
// Field values are filtered by FilteringWriter on the way to disk.
type SensitiveDataHook struct{}

// NewSensitiveDataHook creates a new SensitiveDataHook.
func NewSensitiveDataHook() *SensitiveDataHook {
	return &SensitiveDataHook{}
}

// Run implements zerolog.Hook.
func (h *SensitiveDataHook) Run(e *zerolog.Event, _ zerolog.Level, msg string) {
	if ContainsSensitiveData(msg) {
		e.Bool("contains_filtered_data", true)
	}
}

// ContainsSensitiveData reports whether s matches any sensitive pattern.
func ContainsSensitiveData(s string) bool {
	for _, pattern := range sensitivePatterns {
		if pattern.MatchString(s) {
			return true
		}
	}
	return false
}

// FilterSensitiveValue redacts sensitive patterns and elides inline
// attachment payloads.
func FilterSensitiveValue(value string) string {
	result := inlinePayload.ReplaceAllString(value, "${1}…")
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllString(result, RedactedValue)
	}
	return result
}

// IsSensitiveFieldName reports whether a field name indicates sensitive data.
func IsSensitiveFieldName(fieldName string) bool {
	lowerName := strings.ToLower(fieldName)
	for _, sensitive := range sensitiveFieldNames {
		if strings.Contains(lowerName, sensitive) {
			return true
		}
	}
	return false
}

// SafeValue returns value with sensitive data removed, or RedactedValue
// when the field name itself is sensitive.
//
//	log.Debug().Str("ref", logging.SafeValue("ref", ref)).Msg("attachment removed")
func SafeValue(fieldName, value string) string {
	if IsSensitiveFieldName(fieldName) {
		return RedactedValue
	}
	return FilterSensitiveValue(value)
}

// FilteringWriter wraps an io.Writer and filters sensitive data from output.
type FilteringWriter struct {
	w io.Writer
}

// NewFilteringWriter creates a new FilteringWriter that wraps the given writer.
func NewFilteringWriter(w io.Writer) *FilteringWriter {
	return &FilteringWriter{w: w}
}

// Write implements io.Writer. It reports len(p) on success so callers do
// not see a short write when content was redacted.
func (fw *FilteringWriter) Write(p []byte) (n int, err error) {
	filtered := FilterSensitiveValue(string(p))
	if _, err := fw.w.Write([]byte(filtered)); err != nil {
		return 0, err
	}
	return len(p), nil
}
