package logger

import (
	"context"
	"log/slog"
)

// ContextExtractor derives an attribute from the logging context. It returns
// false when the context carries nothing to log.
type ContextExtractor func(ctx context.Context) (slog.Attr, bool)

// contextHandler adds the attributes of its extractors to each record before
// passing it on.
type contextHandler struct {
	slog.Handler
	extractors []ContextExtractor
}

// withContext wraps h. Nil extractors are skipped; without any left h is
// returned as is.
func withContext(h slog.Handler, extractors []ContextExtractor) slog.Handler {
	var kept []ContextExtractor
	for _, fn := range extractors {
		if fn != nil {
			kept = append(kept, fn)
		}
	}
	if len(kept) == 0 {
		return h
	}
	return contextHandler{Handler: h, extractors: kept}
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, fn := range h.extractors {
		if a, ok := fn(ctx); ok {
			r.AddAttrs(a)
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.Handler = h.Handler.WithAttrs(attrs)
	return h
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	h.Handler = h.Handler.WithGroup(name)
	return h
}
