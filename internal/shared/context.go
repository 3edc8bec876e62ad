package shared

import "context"

// Subject describes the authenticated actor as seen by authorization.
// Attributes carries everything beyond identity and roles (region,
// compliance flags, whatever the token issuer adds).
type Subject struct {
	ID         string
	Email      string
	Roles      []string
	Attributes map[string]any
}

type subjectContextKey struct{}

// ContextWithSubject stores the subject in context.
func ContextWithSubject(ctx context.Context, sub *Subject) context.Context {
	return context.WithValue(ctx, subjectContextKey{}, sub)
}

// SubjectFromContext extracts the subject from context.
func SubjectFromContext(ctx context.Context) *Subject {
	sub, _ := ctx.Value(subjectContextKey{}).(*Subject)
	return sub
}
