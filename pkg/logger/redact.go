package logger

import (
	"context"
	"log/slog"
	"strings"
)

// Redacted replaces the value of a credential attribute.
const Redacted = "[REDACTED]"

// redactedKeys are attribute keys whose values are never written, matched
// case-insensitively.
var redactedKeys = map[string]struct{}{
	"token":             {},
	"flow_token":        {},
	"application_token": {},
	"authorization":     {},
	"api_key":           {},
}

// IsRedactedKey reports whether an attribute named key is redacted.
func IsRedactedKey(key string) bool {
	_, ok := redactedKeys[strings.ToLower(key)]
	return ok
}

// redactHandler rewrites credential attributes before they reach inner.
type redactHandler struct {
	inner slog.Handler
}

func newRedactHandler(inner slog.Handler) slog.Handler {
	return &redactHandler{inner: inner}
}

func (h *redactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *redactHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(redactAttr(a))
		return true
	})
	return h.inner.Handle(ctx, out)
}

func (h *redactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = redactAttr(a)
	}
	return &redactHandler{inner: h.inner.WithAttrs(redacted)}
}

func (h *redactHandler) WithGroup(name string) slog.Handler {
	return &redactHandler{inner: h.inner.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		children := make([]slog.Attr, len(group))
		for i, child := range group {
			children[i] = redactAttr(child)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(children...)}
	}

	if IsRedactedKey(a.Key) {
		return slog.String(a.Key, Redacted)
	}
	return a
}
