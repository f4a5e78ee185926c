package httpapi

import (
	"context"

	"github.com/leaguehq/auction-engine/internal/domain/team"
)

type contextKey string

const principalContextKey contextKey = "auth_principal"

func withPrincipal(ctx context.Context, p team.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

func principalFromContext(ctx context.Context) (team.Principal, bool) {
	p, ok := ctx.Value(principalContextKey).(team.Principal)
	return p, ok
}
