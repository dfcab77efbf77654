package tenancy

import "context"

type ctxKey string

const consultantKey ctxKey = "leadgate.consultant_id"

// WithConsultantID stores the owning consultant id in context.
func WithConsultantID(ctx context.Context, consultantID string) context.Context {
	return context.WithValue(ctx, consultantKey, consultantID)
}

// ConsultantIDFromContext extracts the consultant id if present.
func ConsultantIDFromContext(ctx context.Context) (string, bool) {
	val := ctx.Value(consultantKey)
	if val == nil {
		return "", false
	}
	id, ok := val.(string)
	return id, ok && id != ""
}
