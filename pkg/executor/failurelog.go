package executor

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// FailureLog serializes append-only failure lines so a human can audit
// permanently failed files after a run. One tab-separated line per file:
// timestamp, relative path, attempt count, reason.
type FailureLog struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewFailureLog wraps w; callers own opening and closing the underlying
// file.
func NewFailureLog(w io.Writer) *FailureLog {
	return &FailureLog{w: w, now: time.Now}
}

// Append writes one failure line.
func (l *FailureLog) Append(rel string, attempts int, cause error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	reason := "unknown"
	if cause != nil {
		reason = cause.Error()
	}
	_, err := fmt.Fprintf(l.w, "%s\t%s\tattempts=%d\t%s\n",
		l.now().UTC().Format(time.RFC3339), rel, attempts, reason)
	return err
}
