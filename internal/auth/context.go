package auth

import "context"

type contextKey struct{}

// AuthContext is the authenticated caller of a request.
type AuthContext struct {
	SubscriptionID int64
	TokenID        string
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func SubscriptionID(ctx context.Context) int64 {
	ac, ok := FromContext(ctx)
	if !ok {
		return 0
	}
	return ac.SubscriptionID
}
