package llm

import "context"

type contextKey string

const purposeKey contextKey = "llm_purpose"

const (
	PurposeQuiz = "quiz"
	PurposeTips = "tips"
	PurposeHint = "hint"
)

// WithPurpose labels model calls made with ctx for logs, metrics and spans.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey, purpose)
}

func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey).(string); ok {
		return v
	}
	return "unknown"
}
