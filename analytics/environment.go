package analytics

import "context"

type envContextKey struct{}

// WithEnvironment attaches collector-populated environment fields (device,
// referrer, geo) to a context. The HTTP layer derives them from the request;
// the collector merges them under caller-supplied context keys.
func WithEnvironment(ctx context.Context, fields map[string]interface{}) context.Context {
	if len(fields) == 0 {
		return ctx
	}
	return context.WithValue(ctx, envContextKey{}, fields)
}

// EnvironmentFromContext is the CollectorConfig.Environment implementation
// that reads fields attached by WithEnvironment.
func EnvironmentFromContext(ctx context.Context) map[string]interface{} {
	fields, _ := ctx.Value(envContextKey{}).(map[string]interface{})
	return fields
}
