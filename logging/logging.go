package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// Entry is one statement sent to a connection.
type Entry struct {
	Command    string    `msgpack:"command"`
	Parameters []any     `msgpack:"parameters"`
	Scope      string    `msgpack:"scope"`
	Time       time.Time `msgpack:"time"`
}

// Logger receives statement entries.
type Logger interface {
	Log(context.Context, Entry) error
}

// The LoggerFunc type is an adapter to allow the use of ordinary
// functions as Logger.
type LoggerFunc func(context.Context, Entry) error

// Log calls f(ctx, e).
func (f LoggerFunc) Log(ctx context.Context, e Entry) error { return f(ctx, e) }

// Nop discards every entry.
var Nop Logger = LoggerFunc(func(context.Context, Entry) error { return nil })

// Slog returns a logger writing entries at info level. A nil logger uses
// slog.Default.
func Slog(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return LoggerFunc(func(ctx context.Context, e Entry) error {
		l.InfoContext(ctx, "statement",
			slog.String("scope", e.Scope),
			slog.String("command", e.Command),
			slog.Any("parameters", e.Parameters),
		)
		return nil
	})
}

// Zap returns a logger writing entries at info level.
func Zap(l *zap.Logger) Logger {
	return LoggerFunc(func(_ context.Context, e Entry) error {
		l.Info("statement",
			zap.String("scope", e.Scope),
			zap.String("command", e.Command),
			zap.Any("parameters", e.Parameters),
			zap.Time("time", e.Time),
		)
		return nil
	})
}

// Msgpack returns a logger streaming msgpack-encoded entries to w. Writes
// are serialized.
func Msgpack(w io.Writer) Logger {
	var mu sync.Mutex
	enc := msgpack.NewEncoder(w)
	return LoggerFunc(func(_ context.Context, e Entry) error {
		mu.Lock()
		defer mu.Unlock()
		return enc.Encode(&e)
	})
}

// ReadMsgpack decodes every entry written by a Msgpack logger.
func ReadMsgpack(r io.Reader) ([]Entry, error) {
	dec := msgpack.NewDecoder(r)
	var entries []Entry
	for {
		var e Entry
		if err := dec.Decode(&e); err != nil {
			if errors.Is(err, io.EOF) {
				return entries, nil
			}
			return entries, err
		}
		entries = append(entries, e)
	}
}

// Multi returns a logger that forwards to every logger and joins their
// errors.
func Multi(loggers ...Logger) Logger {
	return LoggerFunc(func(ctx context.Context, e Entry) error {
		var errs []error
		for _, l := range loggers {
			if err := l.Log(ctx, e); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
