package utils

import (
	"context"

	"github.com/mmdatafocus/dispatch_forms/appctx"
)

// Alias the shared context key type so existing code keeps working.
type contextKey = appctx.ContextKey

var (
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
	ContextKeySessionId     = appctx.ContextKeySessionId
	ContextKeyFormKind      = appctx.ContextKeyFormKind
	ContextKeyAttemptId     = appctx.ContextKeyAttemptId
)

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func GetSessionIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeySessionId)
}

func SetSessionIdInContext(ctx context.Context, sessionId string) context.Context {
	return appctx.Set(ctx, ContextKeySessionId, sessionId)
}

func GetFormKindFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyFormKind)
}

func SetFormKindInContext(ctx context.Context, kind string) context.Context {
	return appctx.Set(ctx, ContextKeyFormKind, kind)
}

func GetAttemptIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyAttemptId)
}

func SetAttemptIdInContext(ctx context.Context, attemptId string) context.Context {
	return appctx.Set(ctx, ContextKeyAttemptId, attemptId)
}
