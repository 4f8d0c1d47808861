package backup

import (
	"errors"
	"fmt"
)

var (
	ErrDumpLaunch    = errors.New("failed to launch dump process")
	ErrDumpFailed    = errors.New("dump process failed")
	ErrCompressionIO = errors.New("compression I/O failed")

	// ErrDumpStage marks a run that produced no artifact. Every later stage
	// was skipped.
	ErrDumpStage = errors.New("dump stage failed")
)

// DumpError reports a dump process that exited non-zero
type DumpError struct {
	ExitCode int
	Stderr   string
}

func (e *DumpError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("dump exited with status %d", e.ExitCode)
	}
	return fmt.Sprintf("dump exited with status %d: %s", e.ExitCode, e.Stderr)
}

// Is matches ErrDumpFailed
func (e *DumpError) Is(target error) bool {
	return target == ErrDumpFailed
}
