package reqctx

import "context"

type ctxKey string

const (
	keyRID   ctxKey = "rid"
	keyJobID ctxKey = "job_id"
)

// WithRID stores the request correlation id for service logs.
func WithRID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, keyRID, rid)
}

// RID returns the correlation id if present, "-" otherwise.
func RID(ctx context.Context) string {
	if v, _ := ctx.Value(keyRID).(string); v != "" {
		return v
	}
	return "-"
}

// WithJobID stores the job a request is about, for assistant logs.
func WithJobID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyJobID, id)
}

func JobID(ctx context.Context) string {
	v, _ := ctx.Value(keyJobID).(string)
	return v
}
