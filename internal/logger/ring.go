package logger

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Ring keeps the most recent formatted log lines in memory for the TUI
// console page.
type Ring struct {
	mu       sync.Mutex
	lines    []string
	capacity int
	now      func() time.Time
}

// NewRing returns a ring holding at most capacity lines.
func NewRing(capacity int) *Ring {
	if capacity <= 0 {
		capacity = 100
	}
	return &Ring{capacity: capacity, now: time.Now}
}

// Lines returns a copy of the buffered lines, oldest first.
func (r *Ring) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// Len returns the number of buffered lines.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lines)
}

func (r *Ring) Debug(message string, keyvals ...any) { r.add("DEBU", message, keyvals) }
func (r *Ring) Info(message string, keyvals ...any)  { r.add("INFO", message, keyvals) }
func (r *Ring) Warn(message string, keyvals ...any)  { r.add("WARN", message, keyvals) }
func (r *Ring) Error(message string, keyvals ...any) { r.add("ERRO", message, keyvals) }

func (r *Ring) add(level, message string, keyvals []any) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s %s", r.now().Format("15:04:05"), level, message)
	for i := 0; i+1 < len(keyvals); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keyvals[i], keyvals[i+1])
	}
	if len(keyvals)%2 == 1 {
		fmt.Fprintf(&b, " %v", keyvals[len(keyvals)-1])
	}

	r.mu.Lock()
	r.lines = append(r.lines, b.String())
	if len(r.lines) > r.capacity {
		r.lines = r.lines[len(r.lines)-r.capacity:]
	}
	r.mu.Unlock()
}
