package config

import (
	"strings"
	"time"
)

// Dialect selects the mysqldump flag spellings of the target server flavour
type Dialect string

const (
	DialectMariaDB Dialect = "mariadb"
	DialectMySQL   Dialect = "mysql"
)

// ParseDialect maps a DATABASE_CLIENT value to a dialect. Anything that is
// not "mariadb" selects the MySQL spellings; ok reports whether the value was
// one of the two known names.
func ParseDialect(s string) (d Dialect, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(DialectMariaDB):
		return DialectMariaDB, true
	case string(DialectMySQL):
		return DialectMySQL, true
	default:
		return DialectMySQL, false
	}
}

// DatabaseConfig describes the server to dump
type DatabaseConfig struct {
	Names    []string `json:"names"` // empty = all databases
	User     string   `json:"user"`
	Password string   `json:"-"`
	Host     string   `json:"host"`
	Port     int      `json:"port"`
	Client   Dialect  `json:"client"`
}

// AllDatabases reports whether the whole server is dumped
func (db DatabaseConfig) AllDatabases() bool {
	return len(db.Names) == 0
}

// DumpConfig controls the mysqldump invocation
type DumpConfig struct {
	Binary  string        `json:"binary"`
	SkipSSL bool          `json:"skip_ssl"`
	SSLCA   string        `json:"ssl_ca"`
	Timeout time.Duration `json:"timeout"` // 0 = no timeout
}

// S3Config holds the S3-compatible destination settings
type S3Config struct {
	Enabled          bool   `json:"enabled"`
	Bucket           string `json:"bucket"`
	Prefix           string `json:"prefix"`
	Region           string `json:"region"`
	EndpointURL      string `json:"endpoint_url"`
	AccessKey        string `json:"-"`
	SecretKey        string `json:"-"`
	ForcePathStyle   bool   `json:"force_path_style"`
	RetentionEnabled bool   `json:"retention_enabled"`
}

// HasStaticCredentials reports whether both keys were supplied
func (c S3Config) HasStaticCredentials() bool {
	return c.AccessKey != "" && c.SecretKey != ""
}

// B2Config holds the Backblaze B2 destination settings
type B2Config struct {
	Enabled          bool   `json:"enabled"`
	AccountID        string `json:"account_id"`
	ApplicationKey   string `json:"-"`
	Bucket           string `json:"bucket"`
	Prefix           string `json:"prefix"`
	RetentionEnabled bool   `json:"retention_enabled"`
}

// SFTPConfig holds the SFTP destination settings
type SFTPConfig struct {
	Enabled          bool   `json:"enabled"`
	Host             string `json:"host"`
	Port             int    `json:"port"`
	User             string `json:"user"`
	Password         string `json:"-"`
	KeyPath          string `json:"key_path"`
	KeyPassphrase    string `json:"-"`
	KnownHosts       string `json:"known_hosts"`
	RemotePath       string `json:"remote_path"`
	RetentionEnabled bool   `json:"retention_enabled"`
}

// MirrorConfig copies each artifact into a second local directory (NAS mount etc.)
type MirrorConfig struct {
	Dir              string `json:"dir"` // empty = disabled
	RetentionEnabled bool   `json:"retention_enabled"`
}

// Enabled reports whether a mirror directory is configured
func (c MirrorConfig) Enabled() bool {
	return c.Dir != ""
}

// Config is the root configuration. It is built once at startup and passed
// explicitly to every component.
type Config struct {
	BackupDir      string         `json:"backup_dir"`
	BackupsToKeep  int            `json:"backups_to_keep"`
	UploadAttempts int            `json:"upload_attempts"`
	LogLevel       string         `json:"log_level"`
	LogFormat      string         `json:"log_format"`
	Database       DatabaseConfig `json:"database"`
	Dump           DumpConfig     `json:"dump"`
	S3             S3Config       `json:"s3"`
	B2             B2Config       `json:"b2"`
	SFTP           SFTPConfig     `json:"sftp"`
	Mirror         MirrorConfig   `json:"mirror"`

	// Warnings collects non-fatal problems found while parsing, logged once
	// the logger is up
	Warnings []string `json:"-"`
}

// GetUploadAttempts returns the number of upload attempts (defaults to 1)
func (c *Config) GetUploadAttempts() int {
	if c.UploadAttempts > 0 {
		return c.UploadAttempts
	}
	return 1
}

// GetLogLevel returns the log level (defaults to info)
func (c *Config) GetLogLevel() string {
	if c.LogLevel != "" {
		return c.LogLevel
	}
	return "info"
}

// GetLogFormat returns the log format (defaults to json)
func (c *Config) GetLogFormat() string {
	if c.LogFormat != "" {
		return c.LogFormat
	}
	return "json"
}

// GetDumpBinary returns the dump utility to execute
func (c *Config) GetDumpBinary() string {
	if c.Dump.Binary != "" {
		return c.Dump.Binary
	}
	return "mysqldump"
}
