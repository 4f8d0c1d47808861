package backup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/williamokano/mysql_backuper/pkg/config"
	"github.com/williamokano/mysql_backuper/pkg/rotation"
	"github.com/williamokano/mysql_backuper/pkg/storage"

	// Import backends to register them
	_ "github.com/williamokano/mysql_backuper/pkg/storage/backblaze"
	_ "github.com/williamokano/mysql_backuper/pkg/storage/local"
	_ "github.com/williamokano/mysql_backuper/pkg/storage/s3"
	_ "github.com/williamokano/mysql_backuper/pkg/storage/ssh"
)

// Destination names
const (
	DestinationS3     = "s3"
	DestinationB2     = "b2"
	DestinationSFTP   = "sftp"
	DestinationMirror = "mirror"
)

// ErrMissingBucket is reported for an enabled S3 destination without a bucket
var ErrMissingBucket = errors.New("S3_ENABLED is set but S3_BUCKET is empty")

// Report is the outcome of one run
type Report struct {
	Artifact Artifact
	Uploads  []storage.Result

	// Skipped holds destinations that were enabled but could not be used
	Skipped map[string]error

	Local    rotation.Outcome
	LocalErr error

	Remote     map[string]rotation.Outcome
	RemoteErrs map[string]error

	Duration time.Duration
}

// Runner executes the dump, upload and retention stages in order
type Runner struct {
	cfg     *config.Config
	dumper  Dumper
	creator storage.Creator
	logger  zerolog.Logger
}

// Option configures a Runner
type Option func(*Runner)

// WithCreator replaces the backend factory
func WithCreator(c storage.Creator) Option {
	return func(r *Runner) {
		r.creator = c
	}
}

// NewRunner creates a runner
func NewRunner(cfg *config.Config, dumper Dumper, logger zerolog.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:     cfg,
		dumper:  dumper,
		creator: storage.NewFactory(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Destinations maps the enabled destinations in cfg to backend configs.
// Destinations that are enabled but unusable are returned in invalid.
func Destinations(cfg *config.Config) (configs []storage.Config, invalid map[string]error) {
	invalid = make(map[string]error)

	if cfg.S3.Enabled {
		if cfg.S3.Bucket == "" {
			invalid[DestinationS3] = ErrMissingBucket
		} else {
			configs = append(configs, storage.Config{
				Name:      DestinationS3,
				Type:      "s3",
				Enabled:   true,
				Prefix:    cfg.S3.Prefix,
				Retention: cfg.S3.RetentionEnabled,
				Options: map[string]interface{}{
					"bucket":            cfg.S3.Bucket,
					"region":            cfg.S3.Region,
					"endpoint":          cfg.S3.EndpointURL,
					"access_key_id":     cfg.S3.AccessKey,
					"secret_access_key": cfg.S3.SecretKey,
					"force_path_style":  cfg.S3.ForcePathStyle,
				},
			})
		}
	}

	if cfg.B2.Enabled {
		configs = append(configs, storage.Config{
			Name:      DestinationB2,
			Type:      "backblaze",
			Enabled:   true,
			Prefix:    cfg.B2.Prefix,
			Retention: cfg.B2.RetentionEnabled,
			Options: map[string]interface{}{
				"account_id":      cfg.B2.AccountID,
				"application_key": cfg.B2.ApplicationKey,
				"bucket":          cfg.B2.Bucket,
			},
		})
	}

	if cfg.SFTP.Enabled {
		configs = append(configs, storage.Config{
			Name:      DestinationSFTP,
			Type:      "ssh",
			Enabled:   true,
			Retention: cfg.SFTP.RetentionEnabled,
			Options: map[string]interface{}{
				"host":           cfg.SFTP.Host,
				"port":           cfg.SFTP.Port,
				"user":           cfg.SFTP.User,
				"password":       cfg.SFTP.Password,
				"key_path":       cfg.SFTP.KeyPath,
				"key_passphrase": cfg.SFTP.KeyPassphrase,
				"known_hosts":    cfg.SFTP.KnownHosts,
				"remote_path":    cfg.SFTP.RemotePath,
			},
		})
	}

	if cfg.Mirror.Enabled() {
		configs = append(configs, storage.Config{
			Name:      DestinationMirror,
			Type:      "local",
			Enabled:   true,
			Retention: cfg.Mirror.RetentionEnabled,
			Options: map[string]interface{}{
				"path": cfg.Mirror.Dir,
			},
		})
	}

	return configs, invalid
}

// Run performs one backup. Only a dump failure returns an error (wrapping
// ErrDumpStage); failures in later stages are logged and recorded in the
// Report.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	report := Report{
		Skipped:    make(map[string]error),
		Remote:     make(map[string]rotation.Outcome),
		RemoteErrs: make(map[string]error),
	}

	artifact, err := r.dumper.Dump(ctx)
	if err != nil {
		event := r.logger.Error().Err(err)
		var dumpErr *DumpError
		if errors.As(err, &dumpErr) {
			event = event.Int("exit_code", dumpErr.ExitCode)
		}
		event.Msg("FATAL: dump failed, skipping upload and retention")

		report.Duration = time.Since(start)
		return report, fmt.Errorf("%w: %w", ErrDumpStage, err)
	}
	report.Artifact = artifact

	opened := r.openDestinations(ctx, &report)
	defer storage.CloseAll(opened)

	r.upload(ctx, opened, &report)
	r.enforceLocal(&report)
	r.enforceRemote(ctx, opened, &report)

	report.Duration = time.Since(start)

	succeeded := 0
	for _, u := range report.Uploads {
		if u.Success {
			succeeded++
		}
	}

	r.logger.Info().
		Str("file", artifact.Path).
		Str("size", humanize.Bytes(uint64(artifact.Size))).
		Int("uploads_succeeded", succeeded).
		Int("uploads_failed", len(report.Uploads)-succeeded).
		Int("destinations_skipped", len(report.Skipped)).
		Int("local_deleted", len(report.Local.Deleted)).
		Dur("duration", report.Duration).
		Msg("backup run completed")

	return report, nil
}

func (r *Runner) openDestinations(ctx context.Context, report *Report) []storage.Opened {
	configs, invalid := Destinations(r.cfg)
	for name, err := range invalid {
		r.logger.Error().Err(err).Str("backend", name).Msg("destination misconfigured, skipping")
		report.Skipped[name] = err
	}

	opened, failed := storage.OpenAll(ctx, r.creator, configs)
	for name, err := range failed {
		r.logger.Error().Err(err).Str("backend", name).Msg("failed to initialize destination, skipping")
		report.Skipped[name] = err
	}

	if len(configs) == 0 && len(invalid) == 0 {
		r.logger.Debug().Msg("no remote destinations enabled")
	}

	return opened
}

func (r *Runner) upload(ctx context.Context, opened []storage.Opened, report *Report) {
	if len(opened) == 0 {
		return
	}

	targets := make([]storage.Target, len(opened))
	for i, o := range opened {
		targets[i] = storage.Target{
			Backend: o.Backend,
			Key:     storage.ObjectKey(o.Config.Prefix, report.Artifact.Name),
		}
	}

	retry := storage.DefaultRetryConfig().WithAttempts(r.cfg.GetUploadAttempts())
	uploader := storage.NewMultiUploader(r.logger, retry)
	report.Uploads = uploader.Upload(ctx, targets, report.Artifact.Path)
}

func (r *Runner) enforceLocal(report *Report) {
	outcome, err := rotation.EnforceLocal(r.cfg.BackupDir, r.cfg.BackupsToKeep, r.logger)
	if err != nil {
		r.logger.Error().Err(err).Str("dir", r.cfg.BackupDir).Msg("local retention failed")
		report.LocalErr = err
		return
	}
	report.Local = outcome
}

func (r *Runner) enforceRemote(ctx context.Context, opened []storage.Opened, report *Report) {
	for i, o := range opened {
		if !o.Config.Retention {
			continue
		}

		name := o.Config.Name
		if i >= len(report.Uploads) || !report.Uploads[i].Success {
			r.logger.Warn().Str("backend", name).Msg("upload failed, skipping remote retention")
			continue
		}

		outcome, err := rotation.EnforceRemote(ctx, o.Backend, o.Config.Prefix, r.cfg.BackupsToKeep, r.logger)
		if err != nil {
			r.logger.Error().Err(err).Str("backend", name).Msg("remote retention failed")
			report.RemoteErrs[name] = err
			continue
		}
		report.Remote[name] = outcome
	}
}
