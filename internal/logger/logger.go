// Package logger fans log calls out to one or more backends.
package logger

// Instance is a logging backend.
type Instance interface {
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
}

// Logger dispatches every call to all of its backends. A nil *Logger is a
// valid no-op logger.
type Logger struct {
	instances []Instance
}

// New returns a logger writing to instances.
func New(instances ...Instance) *Logger {
	return &Logger{instances: instances}
}

// With returns a logger that prepends keyvals to every call.
func (l *Logger) With(keyvals ...any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{instances: []Instance{prefixed{base: l, keyvals: keyvals}}}
}

func (l *Logger) Debug(message string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, in := range l.instances {
		in.Debug(message, keyvals...)
	}
}

func (l *Logger) Info(message string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, in := range l.instances {
		in.Info(message, keyvals...)
	}
}

func (l *Logger) Warn(message string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, in := range l.instances {
		in.Warn(message, keyvals...)
	}
}

func (l *Logger) Error(message string, keyvals ...any) {
	if l == nil {
		return
	}
	for _, in := range l.instances {
		in.Error(message, keyvals...)
	}
}

// Level routes a message by a free-form level name (info, warn, error,
// debug). Unknown levels log at info.
func (l *Logger) Level(level, message string, keyvals ...any) {
	switch level {
	case "error":
		l.Error(message, keyvals...)
	case "warn", "warning":
		l.Warn(message, keyvals...)
	case "debug":
		l.Debug(message, keyvals...)
	default:
		l.Info(message, keyvals...)
	}
}

type prefixed struct {
	base    *Logger
	keyvals []any
}

func (p prefixed) join(keyvals []any) []any {
	out := make([]any, 0, len(p.keyvals)+len(keyvals))
	out = append(out, p.keyvals...)
	return append(out, keyvals...)
}

func (p prefixed) Debug(m string, kv ...any) { p.base.Debug(m, p.join(kv)...) }
func (p prefixed) Info(m string, kv ...any)  { p.base.Info(m, p.join(kv)...) }
func (p prefixed) Warn(m string, kv ...any)  { p.base.Warn(m, p.join(kv)...) }
func (p prefixed) Error(m string, kv ...any) { p.base.Error(m, p.join(kv)...) }
