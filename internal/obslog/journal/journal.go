// Package journal implements an slog.Handler that forwards records to the
// systemd journal via sd_journal_send, for hosts running gpud as a systemd
// unit instead of inside a container.
package journal

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/coreos/go-systemd/v22/journal"
)

// Handler writes slog records to the local systemd journal. Fields attached
// via WithAttrs/WithGroup become journal fields (upper-cased, as journald
// requires).
type Handler struct {
	module  string
	version string
	attrs   []slog.Attr
	groups  []string
	level   slog.Leveler
}

// Enabled reports whether the local systemd journal is reachable. Callers
// should fall back to a stderr handler when this returns false.
func Enabled() bool {
	return journal.Enabled()
}

// New builds a Handler tagged with module/version on every record.
func New(module, version string, level slog.Leveler) *Handler {
	if level == nil {
		level = slog.LevelInfo
	}
	return &Handler{module: module, version: version, level: level}
}

func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, record slog.Record) error {
	vars := map[string]string{
		"SYSLOG_IDENTIFIER": h.module,
		"MODULE_VERSION":    h.version,
	}
	if record.PC != 0 {
		if fn := runtime.FuncForPC(record.PC); fn != nil {
			vars["CODE_FUNC"] = fn.Name()
		}
	}
	for _, a := range h.attrs {
		addAttr(vars, h.groups, a)
	}
	record.Attrs(func(a slog.Attr) bool {
		addAttr(vars, h.groups, a)
		return true
	})

	return journal.Send(record.Message, levelToPriority(record.Level), vars)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

func (h *Handler) WithGroup(name string) slog.Handler {
	next := *h
	next.groups = append(append([]string{}, h.groups...), name)
	return &next
}

func addAttr(vars map[string]string, groups []string, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	key := journalKey(groups, a.Key)
	vars[key] = a.Value.String()
}

// journalKey upper-cases and joins group prefixes with "_", since journald
// field names must be uppercase ASCII plus underscores.
func journalKey(groups []string, key string) string {
	full := key
	for i := len(groups) - 1; i >= 0; i-- {
		full = groups[i] + "_" + full
	}
	upper := make([]byte, 0, len(full))
	for _, r := range full {
		switch {
		case r >= 'a' && r <= 'z':
			upper = append(upper, byte(r-'a'+'A'))
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			upper = append(upper, byte(r))
		default:
			upper = append(upper, '_')
		}
	}
	return string(upper)
}

func levelToPriority(level slog.Level) journal.Priority {
	switch {
	case level >= slog.LevelError:
		return journal.PriErr
	case level >= slog.LevelWarn:
		return journal.PriWarning
	case level >= slog.LevelInfo:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}
