// Package logger wraps logrus with a request-scoped context carrier so
// every log line in the pipeline can be attributed to a chat/job/trace
// without threading fields through every call.
package logger

import (
	"context"

	"github.com/sirupsen/logrus"
)

type ctxKey struct{}

var base = logrus.New()

// Init configures the process-wide logger level and output format.
func Init(level string, jsonFormat bool) {
	if jsonFormat {
		base.SetFormatter(&logrus.JSONFormatter{})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	base.SetLevel(lvl)
}

// WithFields returns a context carrying a logrus.Entry pre-populated
// with the given fields, merging over any entry already in ctx.
func WithFields(ctx context.Context, fields logrus.Fields) context.Context {
	return context.WithValue(ctx, ctxKey{}, entry(ctx).WithFields(fields))
}

// CloneContext detaches a context's cancellation from an inbound request
// while preserving its logger entry, for use by fire-and-forget work.
func CloneContext(ctx context.Context) context.Context {
	return context.WithValue(context.Background(), ctxKey{}, entry(ctx))
}

func entry(ctx context.Context) *logrus.Entry {
	if e, ok := ctx.Value(ctxKey{}).(*logrus.Entry); ok && e != nil {
		return e
	}
	return logrus.NewEntry(base)
}

func kvFields(kv []interface{}) logrus.Fields {
	fields := make(logrus.Fields, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		fields[key] = kv[i+1]
	}
	return fields
}

// Info logs msg at info level with optional key/value pairs.
func Info(ctx context.Context, msg string, kv ...interface{}) {
	entry(ctx).WithFields(kvFields(kv)).Info(msg)
}

// Warn logs msg at warn level with optional key/value pairs.
func Warn(ctx context.Context, msg string, kv ...interface{}) {
	entry(ctx).WithFields(kvFields(kv)).Warn(msg)
}

// Error logs msg at error level with optional key/value pairs.
func Error(ctx context.Context, msg string, kv ...interface{}) {
	entry(ctx).WithFields(kvFields(kv)).Error(msg)
}

// Errorf logs a formatted message at error level.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	entry(ctx).Errorf(format, args...)
}

// Debug logs msg at debug level with optional key/value pairs.
func Debug(ctx context.Context, msg string, kv ...interface{}) {
	entry(ctx).WithFields(kvFields(kv)).Debug(msg)
}
