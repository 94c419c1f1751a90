package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) string {
	return func(k string) string { return values[k] }
}

func TestParse_Defaults(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	opts, err := parse(fs, []string{"-c", ""}, env(map[string]string{"TOKEN_SECRET": "s3cret"}))
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", opts.Port)
	assert.Equal(t, "info", opts.LogLevel)
	assert.Equal(t, int64(10<<20), opts.MaxUploadBytes)
	assert.Equal(t, []string{"http://localhost:*"}, opts.CORSOrigins)
	assert.Equal(t, 30, opts.WritesPerMinute)
	assert.Equal(t, 7*24*time.Hour, opts.TokenTTL)
}

func TestParse_EnvOverridesFileAndFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"database_dsn":"from-file","log_level":"debug","token_secret":"file"}`), 0o600))

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	opts, err := parse(fs, []string{"-a", ":9000", "-d", "from-flag"}, env(map[string]string{
		"CONFIG":         path,
		"SERVER_ADDRESS": ":9999",
		"TOKEN_SECRET":   "env",
		"CORS_ORIGINS":   "https://a.example, https://b.example",
	}))
	require.NoError(t, err)

	assert.Equal(t, ":9999", opts.Port)
	assert.Equal(t, "from-file", opts.DatabaseDSN)
	assert.Equal(t, "debug", opts.LogLevel)
	assert.Equal(t, "env", opts.TokenSecret)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, opts.CORSOrigins)
}

func TestParse_RequiresTokenSecret(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	_, err := parse(fs, []string{"-c", ""}, env(nil))
	assert.ErrorContains(t, err, "token secret")
}

func TestParse_BadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o600))

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	_, err := parse(fs, []string{"-c", path}, env(map[string]string{"TOKEN_SECRET": "x"}))
	assert.ErrorContains(t, err, "error while parsing config file")
}

func TestParse_BadWritesPerMinute(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	_, err := parse(fs, []string{"-c", ""}, env(map[string]string{"TOKEN_SECRET": "x", "WRITES_PER_MINUTE": "many"}))
	assert.ErrorContains(t, err, "WRITES_PER_MINUTE")
}

func TestParse_TokenTTLFromEnv(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	opts, err := parse(fs, []string{"-c", ""}, env(map[string]string{"TOKEN_SECRET": "x", "TOKEN_TTL": "90m"}))
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, opts.TokenTTL)

	fs = flag.NewFlagSet("test", flag.ContinueOnError)
	_, err = parse(fs, []string{"-c", ""}, env(map[string]string{"TOKEN_SECRET": "x", "TOKEN_TTL": "soon"}))
	assert.ErrorContains(t, err, "TOKEN_TTL")
}
