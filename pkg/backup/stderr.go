package backup

import (
	"strings"
	"sync"
)

const stderrTailSize = 64 * 1024

// tailBuffer keeps the last limit bytes written to it
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
	lost  bool
}

func newTailBuffer(limit int) *tailBuffer {
	return &tailBuffer{limit: limit}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	n := len(p)
	if n > t.limit {
		t.buf = append(t.buf[:0], p[n-t.limit:]...)
		t.lost = true
		return n, nil
	}

	if over := len(t.buf) + n - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
		t.lost = true
	}
	t.buf = append(t.buf, p...)

	return n, nil
}

// String returns the retained output, trimmed
func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := strings.TrimSpace(string(t.buf))
	if t.lost {
		return "..." + s
	}
	return s
}
