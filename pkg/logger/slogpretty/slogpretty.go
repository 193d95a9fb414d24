// Package slogpretty provides a coloured, human readable slog handler for
// local runs and picks the handler that fits the environment.
package slogpretty

import (
	"context"
	"encoding/json"
	"io"
	stdLog "log"
	"log/slog"
	"os"

	"github.com/fatih/color"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

type PrettyHandlerOptions struct {
	SlogOpts *slog.HandlerOptions
}

// PrettyHandler prints one coloured line per record followed by its
// attributes as indented JSON. Attributes added under a group are keyed
// "group.key".
type PrettyHandler struct {
	slog.Handler
	l      *stdLog.Logger
	attrs  []slog.Attr
	prefix string
}

func (opts PrettyHandlerOptions) NewPrettyHandler(out io.Writer) *PrettyHandler {
	return &PrettyHandler{
		Handler: slog.NewJSONHandler(out, opts.SlogOpts),
		l:       stdLog.New(out, "", 0),
	}
}

// SetupLogger returns the logger for env: pretty output locally, JSON
// otherwise. Unknown environments get production settings.
func SetupLogger(env string) *slog.Logger {
	switch env {
	case envLocal:
		return setupPrettySlog(os.Stdout)
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}

func setupPrettySlog(out io.Writer) *slog.Logger {
	opts := PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{Level: slog.LevelDebug},
	}

	return slog.New(opts.NewPrettyHandler(out))
}

func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	level := r.Level.String() + ":"

	switch r.Level {
	case slog.LevelDebug:
		level = color.MagentaString(level)
	case slog.LevelInfo:
		level = color.BlueString(level)
	case slog.LevelWarn:
		level = color.YellowString(level)
	case slog.LevelError:
		level = color.RedString(level)
	}

	fields := make(map[string]any, r.NumAttrs()+len(h.attrs))

	for _, a := range h.attrs {
		fields[a.Key] = a.Value.Any()
	}

	r.Attrs(func(a slog.Attr) bool {
		fields[h.prefix+a.Key] = a.Value.Any()
		return true
	})

	var b []byte

	if len(fields) > 0 {
		var err error

		b, err = json.MarshalIndent(fields, "", "  ")
		if err != nil {
			return err
		}
	}

	h.l.Println(
		r.Time.Format("[15:04:05.000]"),
		level,
		color.CyanString(r.Message),
		color.WhiteString(string(b)),
	)

	return nil
}

func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)

	for _, a := range attrs {
		merged = append(merged, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
	}

	return &PrettyHandler{
		Handler: h.Handler.WithAttrs(attrs),
		l:       h.l,
		attrs:   merged,
		prefix:  h.prefix,
	}
}

func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	return &PrettyHandler{
		Handler: h.Handler.WithGroup(name),
		l:       h.l,
		attrs:   h.attrs,
		prefix:  h.prefix + name + ".",
	}
}
