package logging

import (
	"context"
	"io"
	"log/slog"
	"slices"

	"gopkg.in/natefinch/lumberjack.v2"
)

type ctxKey struct{}

// AppendCtx returns a context carrying attrs; every record logged through a
// handler built by Logger with that context gets them.
//
// Example:
//
//	ctx = logging.AppendCtx(ctx, slog.String("image", name))
//	slog.InfoContext(ctx, "enhanced")
func AppendCtx(parent context.Context, attrs ...slog.Attr) context.Context {
	if parent == nil {
		parent = context.Background()
	}
	if prev, ok := parent.Value(ctxKey{}).([]slog.Attr); ok {
		attrs = append(slices.Clip(prev), attrs...)
	}
	return context.WithValue(parent, ctxKey{}, attrs)
}

// ContextHandler adds attributes stored by AppendCtx to each record
type ContextHandler struct {
	slog.Handler
}

func (h ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs, ok := ctx.Value(ctxKey{}).([]slog.Attr); ok {
		r.AddAttrs(attrs...)
	}
	return h.Handler.Handle(ctx, r)
}

func (h ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return ContextHandler{h.Handler.WithAttrs(attrs)}
}

func (h ContextHandler) WithGroup(name string) slog.Handler {
	return ContextHandler{h.Handler.WithGroup(name)}
}

// Logger builds a text or JSON logger writing to w at the given level
func Logger(w io.Writer, json bool, level slog.Leveler) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	if json {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(ContextHandler{h})
}

// FileOptions controls log file rotation
type FileOptions struct {
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultFileOptions keeps five 10MB files for a month
func DefaultFileOptions() FileOptions {
	return FileOptions{
		MaxSizeMB:  10,
		MaxBackups: 5,
		MaxAgeDays: 30,
	}
}

// FileWriter returns a size-rotated log file; Close releases it
func FileWriter(path string, opts FileOptions) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}
}
