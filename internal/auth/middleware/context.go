package auth

import "context"

type subjectKey struct{}

// WithSubject stores the authenticated user id.
func WithSubject(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, subjectKey{}, userID)
}

// SubjectFromContext returns the authenticated user id, or "" for anonymous
// requests.
func SubjectFromContext(ctx context.Context) string {
	id, _ := ctx.Value(subjectKey{}).(string)
	return id
}
