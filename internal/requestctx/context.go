// Package requestctx carries per-request values (request ID, acting admin)
// through context.
//
// This package is imported by middleware, handler and api packages without
// causing import cycles.
package requestctx

import (
	"context"
	"net/http"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	requestIDKey contextKey = "request_id"
	actorKey     contextKey = "actor"
)

// RequestID returns the request ID stored in ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithRequestID stores a request ID in the context.
//
// The api client forwards it to the backend as X-Request-ID so one admin
// action can be traced across both services.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// Actor returns the admin username stored in ctx, or "".
func Actor(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey).(string)
	return actor
}

// ActorFromRequest is a convenience wrapper around Actor.
func ActorFromRequest(r *http.Request) string {
	return Actor(r.Context())
}

// WithActor stores the acting admin in the context.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}
