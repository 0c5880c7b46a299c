package messaging

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// headerCarrier adapts []Header to the OpenTelemetry text map carrier so trace
// context travels with the message on every broker.
type headerCarrier struct {
	headers *[]Header
}

func (c headerCarrier) Get(key string) string {
	return HeaderValue(*c.headers, key)
}

func (c headerCarrier) Set(key, value string) {
	for i, h := range *c.headers {
		if h.Key == key {
			(*c.headers)[i].Value = []byte(value)
			return
		}
	}
	*c.headers = append(*c.headers, Header{Key: key, Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(*c.headers))
	for _, h := range *c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}

var _ propagation.TextMapCarrier = headerCarrier{}

// injectTrace returns a copy of headers carrying the span context of ctx.
func injectTrace(ctx context.Context, headers []Header) []Header {
	out := append([]Header(nil), headers...)
	otel.GetTextMapPropagator().Inject(ctx, headerCarrier{headers: &out})
	return out
}

// extractTrace makes the producer's span the parent of work done under ctx.
func extractTrace(ctx context.Context, headers []Header) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, headerCarrier{headers: &headers})
}
