package backup

import (
	"os"
	"strconv"
	"strings"

	"github.com/williamokano/mysql_backuper/pkg/config"
)

// baseArgs produce a consistent, lock-free InnoDB snapshot including
// stored programs
var baseArgs = []string{
	"--single-transaction",
	"--skip-lock-tables",
	"--quick",
	"--routines",
	"--events",
	"--triggers",
}

type tlsFlagSet struct {
	skipSSL []string
	// verifyCA is appended after --ssl-ca=<path>
	verifyCA []string
}

var tlsFlags = map[config.Dialect]tlsFlagSet{
	config.DialectMariaDB: {
		skipSSL:  []string{"--skip-ssl"},
		verifyCA: []string{"--ssl-verify-server-cert=0"},
	},
	config.DialectMySQL: {
		skipSSL:  []string{"--ssl-mode=DISABLED"},
		verifyCA: []string{"--ssl-mode=REQUIRED"},
	},
}

// BuildArgs returns the mysqldump arguments for db. The password is never
// part of the arguments; see dumpEnv.
func BuildArgs(db config.DatabaseConfig, dump config.DumpConfig) []string {
	args := []string{
		"-u" + db.User,
		"-h" + db.Host,
		"-P" + strconv.Itoa(db.Port),
	}
	args = append(args, baseArgs...)

	flags, ok := tlsFlags[db.Client]
	if !ok {
		flags = tlsFlags[config.DialectMySQL]
	}

	switch {
	case dump.SSLCA != "":
		args = append(args, "--ssl-ca="+dump.SSLCA)
		args = append(args, flags.verifyCA...)
	case dump.SkipSSL:
		args = append(args, flags.skipSSL...)
	}

	if db.AllDatabases() {
		args = append(args, "--all-databases")
	} else {
		args = append(args, "--databases")
		args = append(args, db.Names...)
	}

	for i, arg := range args {
		args[i] = stripQuotes(arg)
	}

	return args
}

func stripQuotes(s string) string {
	return strings.NewReplacer(`"`, "", "'", "").Replace(s)
}

// dumpEnv returns the child environment: the parent's, plus MYSQL_PWD when a
// password is configured
func dumpEnv(db config.DatabaseConfig) []string {
	env := os.Environ()
	if db.Password != "" {
		env = append(env, "MYSQL_PWD="+db.Password)
	}
	return env
}
