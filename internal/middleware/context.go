package middleware

import (
	"context"

	"movie-api/internal/models"
)

type contextKey string

const (
	IdentityContextKey contextKey = "identity"
	SnapshotContextKey contextKey = "usage_snapshot"
	AdminContextKey    contextKey = "admin_subject"
)

func IdentityFromContext(ctx context.Context) (*models.Identity, bool) {
	identity, ok := ctx.Value(IdentityContextKey).(*models.Identity)
	return identity, ok && identity != nil
}

func SnapshotFromContext(ctx context.Context) (*models.UsageSnapshot, bool) {
	snapshot, ok := ctx.Value(SnapshotContextKey).(*models.UsageSnapshot)
	return snapshot, ok && snapshot != nil
}

func AdminFromContext(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(AdminContextKey).(string)
	return subject, ok && subject != ""
}

// WithIdentity stores the resolved caller for downstream handlers.
func WithIdentity(ctx context.Context, identity *models.Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, identity)
}

func withSnapshot(ctx context.Context, snapshot *models.UsageSnapshot) context.Context {
	return context.WithValue(ctx, SnapshotContextKey, snapshot)
}
