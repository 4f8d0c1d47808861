package backup

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/williamokano/mysql_backuper/pkg/config"
)

func TestBuildArgs(t *testing.T) {
	db := config.DatabaseConfig{
		User:     "backup",
		Password: "s3cret",
		Host:     "db.internal",
		Port:     3307,
		Client:   config.DialectMariaDB,
	}
	base := []string{
		"-ubackup", "-hdb.internal", "-P3307",
		"--single-transaction", "--skip-lock-tables", "--quick",
		"--routines", "--events", "--triggers",
	}
	with := func(extra ...string) []string {
		return append(append([]string{}, base...), extra...)
	}

	tests := []struct {
		name   string
		client config.Dialect
		names  []string
		dump   config.DumpConfig
		want   []string
	}{
		{
			name:   "mariadb all databases",
			client: config.DialectMariaDB,
			want:   with("--all-databases"),
		},
		{
			name:   "named databases keep order",
			client: config.DialectMariaDB,
			names:  []string{"shop", "crm"},
			want:   with("--databases", "shop", "crm"),
		},
		{
			name:   "mariadb skip ssl",
			client: config.DialectMariaDB,
			dump:   config.DumpConfig{SkipSSL: true},
			want:   with("--skip-ssl", "--all-databases"),
		},
		{
			name:   "mysql skip ssl",
			client: config.DialectMySQL,
			dump:   config.DumpConfig{SkipSSL: true},
			want:   with("--ssl-mode=DISABLED", "--all-databases"),
		},
		{
			name:   "mariadb ca",
			client: config.DialectMariaDB,
			dump:   config.DumpConfig{SSLCA: "/certs/ca.pem"},
			want:   with("--ssl-ca=/certs/ca.pem", "--ssl-verify-server-cert=0", "--all-databases"),
		},
		{
			name:   "mysql ca",
			client: config.DialectMySQL,
			dump:   config.DumpConfig{SSLCA: "/certs/ca.pem"},
			want:   with("--ssl-ca=/certs/ca.pem", "--ssl-mode=REQUIRED", "--all-databases"),
		},
		{
			name:   "ca wins over skip ssl",
			client: config.DialectMySQL,
			dump:   config.DumpConfig{SkipSSL: true, SSLCA: "/certs/ca.pem"},
			want:   with("--ssl-ca=/certs/ca.pem", "--ssl-mode=REQUIRED", "--all-databases"),
		},
		{
			name:   "unknown dialect uses mysql spellings",
			client: config.Dialect("percona"),
			dump:   config.DumpConfig{SkipSSL: true},
			want:   with("--ssl-mode=DISABLED", "--all-databases"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := db
			db.Client = tt.client
			db.Names = tt.names
			assert.Equal(t, tt.want, BuildArgs(db, tt.dump))
		})
	}
}

func TestBuildArgsStripsQuotes(t *testing.T) {
	db := config.DatabaseConfig{
		User:   `"admin'`,
		Host:   "'db'",
		Port:   3306,
		Client: config.DialectMariaDB,
		Names:  []string{`"shop"`, "o'brien"},
	}

	args := BuildArgs(db, config.DumpConfig{SSLCA: `"/ca.pem"`})
	for _, arg := range args {
		assert.NotContains(t, arg, `"`)
		assert.NotContains(t, arg, "'")
	}
	assert.Contains(t, args, "-uadmin")
	assert.Contains(t, args, "-hdb")
	assert.Contains(t, args, "--ssl-ca=/ca.pem")
	assert.Equal(t, []string{"--databases", "shop", "obrien"}, args[len(args)-3:])
}

func TestBuildArgsNeverContainsPassword(t *testing.T) {
	db := config.DatabaseConfig{User: "u", Password: "hunter2", Host: "h", Port: 1, Client: config.DialectMySQL}
	for _, arg := range BuildArgs(db, config.DumpConfig{}) {
		assert.NotContains(t, arg, "hunter2")
	}
}

func TestDumpEnv(t *testing.T) {
	t.Setenv("BACKUP_TEST_INHERITED", "yes")

	env := dumpEnv(config.DatabaseConfig{Password: "hunter2"})
	assert.Contains(t, env, "BACKUP_TEST_INHERITED=yes")
	assert.Equal(t, "MYSQL_PWD=hunter2", env[len(env)-1])

	env = dumpEnv(config.DatabaseConfig{})
	assert.Len(t, env, len(os.Environ()))
	assert.NotContains(t, env, "MYSQL_PWD=hunter2")
}
