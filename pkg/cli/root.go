package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/williamokano/mysql_backuper/pkg/backup"
	"github.com/williamokano/mysql_backuper/pkg/config"
	"github.com/williamokano/mysql_backuper/pkg/logger"
)

// Exit codes
const (
	ExitOK         = 0
	ExitUsage      = 1
	ExitDumpFailed = 2
)

type options struct {
	envFile   string
	backupDir string
	logLevel  string
	logFormat string

	stdout io.Writer
	stderr io.Writer
}

// loadConfig reads the configuration and sets up logging with it
func (o *options) loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(o.envFile, map[string]string{
		"BACKUP_DIR": o.backupDir,
		"LOG_LEVEL":  o.logLevel,
		"LOG_FORMAT": o.logFormat,
	})
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	logger.Init(cfg.GetLogLevel(), cfg.GetLogFormat(), o.stderr)
	log := *logger.Get()

	for _, w := range cfg.Warnings {
		log.Warn().Msg(w)
	}

	return cfg, log, nil
}

// NewRootCmd builds the command tree. Running the root command performs one
// backup.
func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{stdout: stdout, stderr: stderr}

	cmd := &cobra.Command{
		Use:   "mysql-backuper",
		Short: "Dump a MySQL/MariaDB server to a compressed artifact and ship it",
		Long: `mysql-backuper runs mysqldump, gzips the output into the backups directory,
uploads the artifact to the enabled destinations and prunes old backups.

Configuration is read from the environment, optionally seeded from a .env file.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBackup(cmd.Context(), opts)
		},
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.envFile, "env-file", ".env", "env file to load before reading the environment (ignored if missing)")
	flags.StringVar(&opts.backupDir, "backup-dir", "", "local backups directory (overrides BACKUP_DIR)")
	flags.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")
	flags.StringVar(&opts.logFormat, "log-format", "", "json or console (overrides LOG_FORMAT)")

	cmd.AddCommand(newListCmd(opts))

	return cmd
}

func runBackup(ctx context.Context, opts *options) error {
	cfg, log, err := opts.loadConfig()
	if err != nil {
		return err
	}

	log.Info().
		Str("backup_dir", cfg.BackupDir).
		Int("backups_to_keep", cfg.BackupsToKeep).
		Str("client", string(cfg.Database.Client)).
		Msg("starting mysql-backuper")

	dumper := backup.NewMySQLDumper(cfg, log)
	_, err = backup.NewRunner(cfg, dumper, log).Run(ctx)
	return err
}

// Run executes the command line and returns the process exit code
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd(stdout, stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	code := exitCode(err)
	if err != nil && code != ExitDumpFailed {
		// dump failures are already logged by the runner
		fmt.Fprintln(stderr, "Error:", err)
	}
	return code
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, backup.ErrDumpStage):
		return ExitDumpFailed
	default:
		return ExitUsage
	}
}

// Execute runs the CLI against the process arguments
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}
