package router

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shandysiswandi/emunotify/internal/pkg/config"
	"github.com/shandysiswandi/emunotify/internal/pkg/instrument"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const maxLoggedBodyBytes = 32 * 1024

const masked = "***"

// masker redacts configured keys (instrument.log_mask_fields) from logged
// headers and bodies. Keys compare case-insensitively.
type masker map[string]struct{}

func newMasker(cfg config.Config) masker {
	m := masker{"authorization": {}, "cookie": {}, "access_token": {}}
	if cfg == nil {
		return m
	}
	for _, f := range cfg.GetArray("instrument.log_mask_fields") {
		m[strings.ToLower(f)] = struct{}{}
	}
	return m
}

func (m masker) hit(key string) bool {
	_, ok := m[strings.ToLower(key)]
	return ok
}

func (m masker) headers(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k := range h {
		if m.hit(k) {
			out[k] = masked
			continue
		}
		out[k] = h.Get(k)
	}
	return out
}

// uri masks query parameters such as access_token.
func (m masker) uri(u *url.URL) string {
	q := u.Query()
	if len(q) == 0 {
		return u.Path
	}
	for k := range q {
		if m.hit(k) {
			q.Set(k, masked)
		}
	}
	return u.Path + "?" + q.Encode()
}

func (m masker) value(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, inner := range val {
			if m.hit(k) {
				out[k] = masked
				continue
			}
			out[k] = m.value(inner)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, inner := range val {
			out[i] = m.value(inner)
		}
		return out
	default:
		return v
	}
}

func (m masker) body(contentType string, b []byte) any {
	if len(b) == 0 {
		return nil
	}

	var v any
	if json.Unmarshal(b, &v) == nil {
		return m.value(v)
	}

	if strings.HasPrefix(strings.ToLower(contentType), "application/x-www-form-urlencoded") {
		if form, err := url.ParseQuery(string(b)); err == nil {
			out := make(map[string]any, len(form))
			for k, vs := range form {
				if m.hit(k) {
					out[k] = masked
				} else {
					out[k] = strings.Join(vs, ",")
				}
			}
			return out
		}
	}

	if !utf8.Valid(b) {
		return "<binary body omitted>"
	}
	return string(b)
}

// peekBody reads at most maxLoggedBodyBytes and leaves r.Body replayable.
func peekBody(r *http.Request) []byte {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}

	//nolint:errcheck // logging only
	head, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBodyBytes))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), r.Body), r.Body}
	return head
}

// isStream reports long-lived responses whose body is not worth buffering.
func isStream(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket") ||
		strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

func middlewareObservability(cfg config.Config, ins instrument.Instrumentation) Middleware {
	mask := newMasker(cfg)
	tracer := ins.Tracer("http.server")
	meter := ins.Meter("http.server")

	requests, err := meter.Int64Counter("http.server.requests", metric.WithDescription("Number of HTTP requests received"))
	if err != nil {
		slog.Error("failed to create http request counter", "error", err)
	}
	duration, err := meter.Float64Histogram("http.server.duration", metric.WithDescription("HTTP request duration in milliseconds"), metric.WithUnit("ms"))
	if err != nil {
		slog.Error("failed to create http duration histogram", "error", err)
	}
	active, err := meter.Int64UpDownCounter("http.server.active_streams", metric.WithDescription("Open SSE and WebSocket connections"))
	if err != nil {
		slog.Error("failed to create http active streams counter", "error", err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			route := matchedRoutePath(r)
			stream := isStream(r)

			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracer.Start(ctx, r.Method+" "+route,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.HTTPRouteKey.String(route),
					semconv.ServerAddressKey.String(r.Host),
					semconv.UserAgentOriginalKey.String(r.UserAgent()),
				),
			)
			defer span.End()

			slog.InfoContext(ctx, "request received",
				"method", r.Method,
				"path", route,
				"uri", mask.uri(r.URL),
				"remote_ip", r.RemoteAddr,
				"headers", mask.headers(r.Header),
				"body", mask.body(r.Header.Get("Content-Type"), peekBody(r)),
			)

			rec := &responseRecorder{ResponseWriter: w}
			if !stream {
				rec.body = &bytes.Buffer{}
			} else if active != nil {
				active.Add(ctx, 1, metric.WithAttributes(semconv.HTTPRouteKey.String(route)))
				defer active.Add(ctx, -1, metric.WithAttributes(semconv.HTTPRouteKey.String(route)))
			}

			next.ServeHTTP(rec, r.WithContext(ctx))

			status := rec.statusCode()
			elapsed := time.Since(start)
			attrs := []attribute.KeyValue{
				semconv.HTTPRequestMethodKey.String(r.Method),
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCodeKey.Int(status),
			}

			span.SetAttributes(append(attrs, attribute.Int("http.response_content_length", rec.bytes))...)
			if rec.err != nil {
				span.RecordError(rec.err)
			}
			switch {
			case status >= http.StatusInternalServerError && rec.err != nil:
				span.SetStatus(codes.Error, rec.err.Error())
			case status >= http.StatusInternalServerError:
				span.SetStatus(codes.Error, http.StatusText(status))
			default:
				span.SetStatus(codes.Ok, "")
			}

			if requests != nil {
				requests.Add(ctx, 1, metric.WithAttributes(attrs...))
			}
			if duration != nil {
				duration.Record(ctx, float64(elapsed.Milliseconds()), metric.WithAttributes(attrs...))
			}

			var body any
			if rec.body != nil {
				body = mask.body(rec.Header().Get("Content-Type"), rec.body.Bytes())
				if rec.capped {
					body = map[string]any{"body": body, "truncated": true}
				}
			}

			slog.InfoContext(ctx, "response sent",
				"method", r.Method,
				"path", route,
				"status", status,
				"bytes", rec.bytes,
				"latency_ms", elapsed.Milliseconds(),
				"body", body,
			)
		})
	}
}
