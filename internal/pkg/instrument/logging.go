package instrument

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/samber/lo"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

const maskedValue = "***"

func initLogging(cfg *Config, lp *sdklog.LoggerProvider) {
	slog.SetDefault(slog.New(newHandler(cfg, lp)))
}

// newHandler builds the JSON handler, fanned out to the OTLP log bridge when
// lp is set. Masking runs before any handler sees the record.
func newHandler(cfg *Config, lp *sdklog.LoggerProvider) slog.Handler {
	out := cfg.LogOutput
	if out == nil {
		out = os.Stdout
	}

	var next slog.Handler = slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level:       cfg.level(),
		AddSource:   true,
		ReplaceAttr: renameAttr,
	})
	if lp != nil {
		next = fanout{next, otelslog.NewHandler(cfg.ServiceName, otelslog.WithLoggerProvider(lp))}
	}

	return &contextHandler{
		Handler:     &maskHandler{next: next, keys: buildMaskKeys(cfg.MaskFields)},
		serviceName: cfg.ServiceName,
	}
}

func renameAttr(_ []string, a slog.Attr) slog.Attr {
	switch a.Key {
	case slog.TimeKey:
		a.Key = "ts"
	case slog.LevelKey:
		a.Key = "severity"
	case slog.SourceKey:
		src, ok := a.Value.Any().(*slog.Source)
		if !ok {
			return a
		}
		return slog.String("file", sourceLocation(src))
	}
	return a
}

// sourceLocation trims the file path to the part below the module root.
func sourceLocation(src *slog.Source) string {
	file := src.File
	for _, dir := range []string{"/internal/", "/cmd/"} {
		if i := strings.LastIndex(file, dir); i >= 0 {
			file = file[i+1:]
			break
		}
	}
	return fmt.Sprintf("%s:%d", file, src.Line)
}

type contextHandler struct {
	slog.Handler
	serviceName string
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if cID := GetCorrelationID(ctx); cID != "" {
		r.AddAttrs(slog.String("_cID", cID))
	}
	r.AddAttrs(slog.String("service", h.serviceName))

	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs), serviceName: h.serviceName}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name), serviceName: h.serviceName}
}

// fanout sends every record to each handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	return lo.SomeBy(f, func(h slog.Handler) bool { return h.Enabled(ctx, level) })
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return fanout(lo.Map(f, func(h slog.Handler, _ int) slog.Handler { return h.WithAttrs(attrs) }))
}

func (f fanout) WithGroup(name string) slog.Handler {
	return fanout(lo.Map(f, func(h slog.Handler, _ int) slog.Handler { return h.WithGroup(name) }))
}

// maskHandler replaces the values of configured keys, including keys nested
// in groups, maps and JSON payloads logged as strings or bytes.
type maskHandler struct {
	next slog.Handler
	keys map[string]struct{}
}

func (h *maskHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *maskHandler) Handle(ctx context.Context, r slog.Record) error {
	if len(h.keys) == 0 {
		return h.next.Handle(ctx, r)
	}

	masked := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(h.mask(a))
		return true
	})
	return h.next.Handle(ctx, masked)
}

func (h *maskHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &maskHandler{next: h.next.WithAttrs(lo.Map(attrs, func(a slog.Attr, _ int) slog.Attr {
		if len(h.keys) == 0 {
			return a
		}
		return h.mask(a)
	})), keys: h.keys}
}

func (h *maskHandler) WithGroup(name string) slog.Handler {
	return &maskHandler{next: h.next.WithGroup(name), keys: h.keys}
}

func buildMaskKeys(fields []string) map[string]struct{} {
	keys := lo.Compact(lo.Map(fields, func(field string, _ int) string {
		return strings.TrimSpace(strings.ToLower(field))
	}))
	return lo.SliceToMap(keys, func(k string) (string, struct{}) { return k, struct{}{} })
}

func (h *maskHandler) masked(key string) bool {
	_, ok := h.keys[strings.ToLower(key)]
	return ok
}

func (h *maskHandler) mask(a slog.Attr) slog.Attr {
	if h.masked(a.Key) {
		return slog.String(a.Key, maskedValue)
	}

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		a.Value = slog.GroupValue(lo.Map(v.Group(), func(ga slog.Attr, _ int) slog.Attr { return h.mask(ga) })...)
	case slog.KindString:
		if s := v.String(); strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
			if out, ok := h.maskJSON([]byte(s)); ok {
				a.Value = slog.StringValue(string(out))
			}
		}
	case slog.KindAny:
		switch val := v.Any().(type) {
		case []byte:
			if out, ok := h.maskJSON(val); ok {
				a.Value = slog.StringValue(string(out))
			}
		case map[string]any, map[string]string, []any:
			a.Value = slog.AnyValue(h.maskTree(val))
		}
	}
	return a
}

func (h *maskHandler) maskJSON(payload []byte) ([]byte, bool) {
	var tree any
	if err := json.Unmarshal(payload, &tree); err != nil {
		return nil, false
	}
	out, err := json.Marshal(h.maskTree(tree))
	return out, err == nil
}

func (h *maskHandler) maskTree(v any) any {
	switch val := v.(type) {
	case map[string]string:
		return lo.MapEntries(val, func(k, s string) (string, any) {
			if h.masked(k) {
				return k, maskedValue
			}
			return k, s
		})
	case map[string]any:
		return lo.MapEntries(val, func(k string, child any) (string, any) {
			if h.masked(k) {
				return k, maskedValue
			}
			return k, h.maskTree(child)
		})
	case []any:
		return lo.Map(val, func(child any, _ int) any { return h.maskTree(child) })
	default:
		return v
	}
}
