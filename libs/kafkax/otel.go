package kafkax

import (
	"context"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// messageHeaders adapts kafka headers to the otel propagator. Set replaces
// an existing key so re-publishing a message does not stack traceparents.
type messageHeaders []kafka.Header

var _ propagation.TextMapCarrier = (*messageHeaders)(nil)

func (m *messageHeaders) Get(key string) string { return HeaderValue(*m, key) }

func (m *messageHeaders) Set(key, value string) {
	for i, h := range *m {
		if h.Key == key {
			(*m)[i].Value = []byte(value)
			return
		}
	}
	*m = append(*m, kafka.Header{Key: key, Value: []byte(value)})
}

func (m *messageHeaders) Keys() []string {
	out := make([]string, len(*m))
	for i, h := range *m {
		out[i] = h.Key
	}
	return out
}

// InjectTraceHeaders adds the W3C trace context of ctx to headers.
func InjectTraceHeaders(ctx context.Context, headers []kafka.Header) []kafka.Header {
	carrier := messageHeaders(headers)
	otel.GetTextMapPropagator().Inject(ctx, &carrier)
	return carrier
}

// ExtractTraceContext is the consumer side of InjectTraceHeaders.
func ExtractTraceContext(ctx context.Context, msg kafka.Message) context.Context {
	carrier := messageHeaders(msg.Headers)
	return otel.GetTextMapPropagator().Extract(ctx, &carrier)
}
