// Package config provides functionality for managing configuration options
// for the application using command-line flags, an optional JSON file and
// environment variables.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"server_address"`

	// DatabaseDSN holds the database connection string for the application.
	DatabaseDSN string `json:"database_dsn"`

	// Config is the path to the Config file.
	Config string `json:"-"`

	// LogLevel is the minimum zap level to emit.
	LogLevel string `json:"log_level"`

	// TokenSecret signs and verifies access tokens.
	TokenSecret string `json:"token_secret"`

	// TokenTTL is the lifetime of issued access tokens. Zero disables expiry.
	TokenTTL time.Duration `json:"token_ttl"`

	// UploadDir is where uploaded review images are written.
	UploadDir string `json:"upload_dir"`

	// PublicImageURL is the URL prefix under which UploadDir is served.
	PublicImageURL string `json:"public_image_url"`

	// MaxUploadBytes caps the size of a multipart review submission.
	MaxUploadBytes int64 `json:"max_upload_bytes"`

	// RedisAddr enables the per-account write rate limiter when set.
	RedisAddr string `json:"redis_addr"`

	// WritesPerMinute is the per-account review write budget.
	WritesPerMinute int `json:"writes_per_minute"`

	// CORSOrigins lists the browser origins allowed to call the API.
	CORSOrigins []string `json:"cors_origins"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`
}

// Parse parses the command-line flags, the optional JSON config file and
// environment variables, in that order of increasing precedence.
func Parse() (*Options, error) {
	return parse(flag.CommandLine, os.Args[1:], os.Getenv)
}

func parse(fs *flag.FlagSet, args []string, getenv func(string) string) (*Options, error) {
	options := &Options{}
	var origins string

	fs.StringVar(&options.Port, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&options.DatabaseDSN, "d", "", "db address")
	fs.StringVar(&options.Config, "config", "config.json", "path to config file")
	fs.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")
	fs.StringVar(&options.LogLevel, "log-level", "info", "log level")
	fs.DurationVar(&options.TokenTTL, "token-ttl", 7*24*time.Hour, "access token lifetime")
	fs.StringVar(&options.UploadDir, "upload-dir", "uploads", "directory for uploaded images")
	fs.StringVar(&options.PublicImageURL, "image-url", "/images", "public URL prefix of uploaded images")
	fs.Int64Var(&options.MaxUploadBytes, "max-upload", 10<<20, "max review submission size in bytes")
	fs.StringVar(&options.RedisAddr, "redis", "", "redis address for rate limiting")
	fs.IntVar(&options.WritesPerMinute, "writes-per-minute", 30, "review writes per account per minute")
	fs.StringVar(&origins, "cors", "http://localhost:*", "comma-separated allowed origins")
	fs.StringVar(&options.TLSCert, "tls-cert", "", "TLS certificate file")
	fs.StringVar(&options.TLSKey, "tls-key", "", "TLS key file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	options.CORSOrigins = splitList(origins)

	if configPath := getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				return nil, fmt.Errorf("error while reading config file: %w", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("error while parsing config file: %w", err)
			}
		}
	}

	if serverAddress := getenv("SERVER_ADDRESS"); serverAddress != "" {
		options.Port = serverAddress
	}
	if dsn := getenv("DATABASE_DSN"); dsn != "" {
		options.DatabaseDSN = dsn
	}
	if secret := getenv("TOKEN_SECRET"); secret != "" {
		options.TokenSecret = secret
	}
	if level := getenv("LOG_LEVEL"); level != "" {
		options.LogLevel = level
	}
	if addr := getenv("REDIS_ADDR"); addr != "" {
		options.RedisAddr = addr
	}
	if dir := getenv("UPLOAD_DIR"); dir != "" {
		options.UploadDir = dir
	}
	if v := getenv("WRITES_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("WRITES_PER_MINUTE: %w", err)
		}
		options.WritesPerMinute = n
	}
	if v := getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("TOKEN_TTL: %w", err)
		}
		options.TokenTTL = d
	}
	if v := getenv("CORS_ORIGINS"); v != "" {
		options.CORSOrigins = splitList(v)
	}

	if options.TokenSecret == "" {
		return nil, fmt.Errorf("token secret is required (TOKEN_SECRET)")
	}

	return options, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
