package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

var (
	trueValues  = map[string]bool{"1": true, "true": true, "yes": true, "y": true, "on": true}
	falseValues = map[string]bool{"0": true, "false": true, "no": true, "n": true, "off": true}
)

// Load builds the configuration from the process environment. If envFile is
// set and exists it is loaded first; variables already present in the
// environment win over the file. Non-empty overrides, keyed by variable
// name, win over both.
func Load(envFile string, overrides map[string]string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	for key, value := range overrides {
		if value == "" {
			continue
		}
		if err := k.Set(strings.ToLower(key), value); err != nil {
			return nil, fmt.Errorf("failed to apply override %s: %w", key, err)
		}
	}

	cfg := Parse(func(key string) (string, bool) {
		key = strings.ToLower(key)
		if !k.Exists(key) {
			return "", false
		}
		return k.String(key), true
	})

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LookupFunc returns the raw value of an environment variable
type LookupFunc func(key string) (string, bool)

// MapLookup adapts a plain map, mostly for tests
func MapLookup(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

// Parse maps environment variables onto a Config with typed defaults.
// Values that fail to parse fall back to their default and are reported in
// cfg.Warnings.
func Parse(lookup LookupFunc) *Config {
	r := &reader{lookup: lookup}

	client := r.str("DATABASE_CLIENT", string(DialectMariaDB))
	dialect, known := ParseDialect(client)
	if !known {
		r.warnf("unknown DATABASE_CLIENT %q, using %s flag spellings", client, dialect)
	}

	endpoint := r.str("S3_ENDPOINT_URL", "")

	cfg := &Config{
		BackupDir:      r.str("BACKUP_DIR", "./backups"),
		BackupsToKeep:  r.int("BACKUPS_TO_KEEP", 7),
		UploadAttempts: r.int("UPLOAD_ATTEMPTS", 1),
		LogLevel:       strings.ToLower(r.str("LOG_LEVEL", "info")),
		LogFormat:      strings.ToLower(r.str("LOG_FORMAT", "json")),
		Database: DatabaseConfig{
			Names:    r.list("DATABASE_NAMES"),
			User:     r.str("DATABASE_USER", "root"),
			Password: r.str("DATABASE_USER_PASS", ""),
			Host:     r.str("DATABASE_HOST", "localhost"),
			Port:     r.int("DATABASE_PORT", 3306),
			Client:   dialect,
		},
		Dump: DumpConfig{
			Binary:  r.str("MYSQLDUMP_PATH", "mysqldump"),
			SkipSSL: r.bool("MYSQLDUMP_SKIP_SSL", false),
			SSLCA:   r.str("MYSQLDUMP_SSL_CA", ""),
			Timeout: r.duration("DUMP_TIMEOUT", 0),
		},
		S3: S3Config{
			Enabled:          r.bool("S3_ENABLED", false),
			Bucket:           r.str("S3_BUCKET", ""),
			Prefix:           r.str("S3_BUCKET_PREFIX", ""),
			Region:           r.str("S3_REGION", ""),
			EndpointURL:      endpoint,
			AccessKey:        r.str("S3_ACCESS_KEY", ""),
			SecretKey:        r.str("S3_SECRET_KEY", ""),
			ForcePathStyle:   r.bool("S3_FORCE_PATH_STYLE", endpoint != ""),
			RetentionEnabled: r.bool("S3_RETENTION_ENABLED", false),
		},
		B2: B2Config{
			Enabled:          r.bool("B2_ENABLED", false),
			AccountID:        r.str("B2_ACCOUNT_ID", ""),
			ApplicationKey:   r.str("B2_APPLICATION_KEY", ""),
			Bucket:           r.str("B2_BUCKET", ""),
			Prefix:           r.str("B2_PREFIX", ""),
			RetentionEnabled: r.bool("B2_RETENTION_ENABLED", false),
		},
		SFTP: SFTPConfig{
			Enabled:          r.bool("SFTP_ENABLED", false),
			Host:             r.str("SFTP_HOST", ""),
			Port:             r.int("SFTP_PORT", 22),
			User:             r.str("SFTP_USER", ""),
			Password:         r.str("SFTP_PASSWORD", ""),
			KeyPath:          r.str("SFTP_KEY_PATH", ""),
			KeyPassphrase:    r.str("SFTP_KEY_PASSPHRASE", ""),
			KnownHosts:       r.str("SFTP_KNOWN_HOSTS", ""),
			RemotePath:       r.str("SFTP_REMOTE_PATH", ""),
			RetentionEnabled: r.bool("SFTP_RETENTION_ENABLED", false),
		},
		Mirror: MirrorConfig{
			Dir:              r.str("MIRROR_DIR", ""),
			RetentionEnabled: r.bool("MIRROR_RETENTION_ENABLED", false),
		},
	}

	if cfg.Dump.SkipSSL && cfg.Dump.SSLCA != "" {
		r.warnf("MYSQLDUMP_SKIP_SSL and MYSQLDUMP_SSL_CA are both set, CA verification takes precedence")
	}

	cfg.Warnings = r.warnings
	return cfg
}

type reader struct {
	lookup   LookupFunc
	warnings []string
}

func (r *reader) warnf(format string, args ...interface{}) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

// str returns the trimmed value, or def when unset or empty
func (r *reader) str(key, def string) string {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}

func (r *reader) int(key string, def int) int {
	v, ok := r.lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		r.warnf("invalid integer %s=%q, using default %d", key, v, def)
		return def
	}
	return n
}

func (r *reader) bool(key string, def bool) bool {
	v, ok := r.lookup(key)
	if !ok {
		return def
	}
	v = strings.ToLower(strings.TrimSpace(v))
	switch {
	case trueValues[v]:
		return true
	case falseValues[v]:
		return false
	default:
		return def
	}
}

func (r *reader) duration(key string, def time.Duration) time.Duration {
	v, ok := r.lookup(key)
	if !ok || strings.TrimSpace(v) == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		r.warnf("invalid duration %s=%q, using default %s", key, v, def)
		return def
	}
	return d
}

// list splits a comma-separated value, dropping empty entries
func (r *reader) list(key string) []string {
	v, ok := r.lookup(key)
	if !ok {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
