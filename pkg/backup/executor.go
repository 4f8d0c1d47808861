package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"

	"github.com/williamokano/mysql_backuper/pkg/config"
	"github.com/williamokano/mysql_backuper/pkg/rotation"
)

const copyBufferSize = 64 * 1024

// Artifact is a finished, compressed dump on local disk
type Artifact struct {
	Path      string
	Name      string
	CreatedAt time.Time
	Size      int64
}

// Dumper produces one artifact per call
type Dumper interface {
	Dump(ctx context.Context) (Artifact, error)
}

// MySQLDumper runs mysqldump and gzips its stdout into the backup directory
type MySQLDumper struct {
	cfg    *config.Config
	logger zerolog.Logger

	now    func() time.Time
	create func(path string) (io.WriteCloser, error)
}

// NewMySQLDumper creates a dumper for cfg
func NewMySQLDumper(cfg *config.Config, logger zerolog.Logger) *MySQLDumper {
	return &MySQLDumper{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		create: createFile,
	}
}

func createFile(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Dump runs the dump process and streams its output through gzip into a new
// artifact. A non-zero exit is an error even when compression succeeded. On
// failure a partial file may remain on disk.
func (d *MySQLDumper) Dump(ctx context.Context) (Artifact, error) {
	db := d.cfg.Database
	binary := d.cfg.GetDumpBinary()

	if err := os.MkdirAll(d.cfg.BackupDir, 0755); err != nil {
		return Artifact{}, fmt.Errorf("%w: failed to create backup directory: %w", ErrCompressionIO, err)
	}

	createdAt := d.now().UTC().Truncate(time.Second)
	name := rotation.ArtifactName(db.Names, createdAt)
	path := filepath.Join(d.cfg.BackupDir, name)

	log := d.logger.With().
		Str("database", rotation.NamePart(db.Names)).
		Str("host", db.Host).
		Int("port", db.Port).
		Str("file", path).
		Logger()

	if timeout := d.cfg.Dump.Timeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, binary, BuildArgs(db, d.cfg.Dump)...)
	cmd.Env = dumpEnv(db)
	stderr := newTailBuffer(stderrTailSize)
	cmd.Stderr = stderr

	out, err := d.create(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: failed to create artifact: %w", ErrCompressionIO, err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		out.Close()
		os.Remove(path)
		return Artifact{}, fmt.Errorf("%w: %w", ErrDumpLaunch, err)
	}

	log.Info().Str("client", string(db.Client)).Msg("starting dump")
	start := time.Now()

	if err := cmd.Start(); err != nil {
		out.Close()
		os.Remove(path)
		return Artifact{}, fmt.Errorf("%w: %s: %w", ErrDumpLaunch, binary, err)
	}

	// The process must be reaped on every path out of here
	waited := false
	defer func() {
		if !waited {
			cmd.Process.Kill()
			cmd.Wait()
		}
	}()

	gz := gzip.NewWriter(out)
	buf := make([]byte, copyBufferSize)

	if _, err := io.CopyBuffer(onlyWriter{gz}, onlyReader{stdout}, buf); err != nil {
		cmd.Process.Kill()
		waited = true
		cmd.Wait()
		gz.Close()
		out.Close()
		return Artifact{}, fmt.Errorf("%w: %w", ErrCompressionIO, err)
	}

	closeErr := errors.Join(gz.Close(), out.Close())

	waited = true
	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Artifact{}, fmt.Errorf("%w: %w", ErrDumpFailed, ctxErr)
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Artifact{}, &DumpError{ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}
		}
		return Artifact{}, fmt.Errorf("%w: %w", ErrDumpFailed, err)
	}

	if closeErr != nil {
		return Artifact{}, fmt.Errorf("%w: %w", ErrCompressionIO, closeErr)
	}

	info, err := os.Stat(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: %w", ErrCompressionIO, err)
	}

	log.Info().
		Str("size", humanize.Bytes(uint64(info.Size()))).
		Dur("duration", time.Since(start)).
		Msg("dump completed")

	return Artifact{
		Path:      path,
		Name:      name,
		CreatedAt: createdAt,
		Size:      info.Size(),
	}, nil
}

// onlyWriter and onlyReader hide ReadFrom/WriteTo so io.CopyBuffer always
// goes through the supplied buffer
type onlyWriter struct{ io.Writer }

type onlyReader struct{ io.Reader }
