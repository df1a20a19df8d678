package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fake secrets are assembled at runtime to keep scanners quiet
func fakeBearer() string { return "Bearer " + strings.Repeat("abc123", 5) }

func TestSelectLevel(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want zerolog.Level
	}{
		{name: "default is info", opts: Options{}, want: zerolog.InfoLevel},
		{name: "configured level", opts: Options{Level: "error"}, want: zerolog.ErrorLevel},
		{name: "verbose wins", opts: Options{Level: "error", Verbose: true, Quiet: true}, want: zerolog.DebugLevel},
		{name: "quiet", opts: Options{Quiet: true}, want: zerolog.WarnLevel},
		{name: "unknown falls back", opts: Options{Level: "loud"}, want: zerolog.InfoLevel},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, selectLevel(tc.opts))
		})
	}
}

func TestNew_ConsoleOnly(t *testing.T) {
	var buf bytes.Buffer
	logger, closer, err := New(Options{Console: &buf})
	require.NoError(t, err)
	defer func() { _ = closer.Close() }()

	logger.Info().Str("component", "test").Msg("hello")
	assert.Contains(t, buf.String(), `"message":"hello"`)
	assert.Contains(t, buf.String(), `"component":"test"`)
}

func TestNew_FileIsFiltered(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "seotrack.log")
	logger, closer, err := New(Options{File: path, MaxSizeMB: 1, NoConsole: true})
	require.NoError(t, err)

	logger.Info().Str("ref", "data:image/png;base64,"+strings.Repeat("A", 64)).Msg(fakeBearer())
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, RedactedValue)
	assert.NotContains(t, out, strings.Repeat("abc123", 5))
	assert.Contains(t, out, "data:image/png;base64,…")
	assert.NotContains(t, out, strings.Repeat("A", 64))
	assert.Contains(t, out, `"contains_filtered_data":true`)
}

func TestSafeValue(t *testing.T) {
	assert.Equal(t, RedactedValue, SafeValue("session_token", "anything"))
	assert.Equal(t, "acme.com", SafeValue("domain", "acme.com"))
	assert.Equal(t, "https://x/a.png"+RedactedValue, SafeValue("ref", "https://x/a.png?sig=abcdef"))
}
