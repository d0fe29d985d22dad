package httpx

import "context"

type ctxKey string

const (
	// CtxKeyPrincipal holds the authenticated principal set by the authn
	// gate. The concrete type belongs to the application layer.
	CtxKeyPrincipal ctxKey = "principal"

	// CtxKeySubject holds the authenticated subject (login key) as a string.
	CtxKeySubject ctxKey = "subject"
)

// ContextWithPrincipal stores the authenticated principal and its subject.
func ContextWithPrincipal(ctx context.Context, subject string, principal any) context.Context {
	ctx = context.WithValue(ctx, CtxKeySubject, subject)
	return context.WithValue(ctx, CtxKeyPrincipal, principal)
}

// SubjectFromContext returns the authenticated subject, if any.
func SubjectFromContext(ctx context.Context) (string, bool) {
	s, ok := ctx.Value(CtxKeySubject).(string)
	return s, ok
}

// PrincipalFromContext returns the raw principal value stored by the authn
// gate; callers type-assert to their domain type.
func PrincipalFromContext(ctx context.Context) (any, bool) {
	v := ctx.Value(CtxKeyPrincipal)
	return v, v != nil
}
