package trace

import "context"

// The current collector trace rides on the request context. Each
// collector's execution window gets its own derived context, so
// concurrent collectors never see each other's trace and nothing global
// is mutated.

type ctxKey struct{}

// NewContext returns a context carrying ct as the current collector
// trace.
func NewContext(ctx context.Context, ct *CollectorTrace) context.Context {
	return context.WithValue(ctx, ctxKey{}, ct)
}

// FromContext returns the current collector trace, or nil when the
// context is outside any collector's execution window.
func FromContext(ctx context.Context) *CollectorTrace {
	ct, _ := ctx.Value(ctxKey{}).(*CollectorTrace)
	return ct
}

// RecordCall attributes an outbound call to the current collector
// trace. Outside a collector window it is a no-op, so shared HTTP
// plumbing can call it unconditionally.
func RecordCall(ctx context.Context, call APICall) {
	if ct := FromContext(ctx); ct != nil {
		ct.AddCall(call)
	}
}
