package middleware

import (
	"context"

	"cadastro/pkg/requestcontext"
)

// GetRequestID retrieves the request ID set by the RequestID middleware.
func GetRequestID(ctx context.Context) string {
	return requestcontext.RequestID(ctx)
}

func withScopes(ctx context.Context, scopes []string) context.Context {
	return context.WithValue(ctx, contextKeyScopes{}, scopes)
}
