// Copyright 2025 VoteFlix Authors
// SPDX-License-Identifier: Apache-2.0

// Package auth carries the per-request authenticated identity through
// handler calls. Identity is re-derived from the token on every request;
// nothing here is session state.
package auth

import (
	"context"
)

// Identity is the verified caller of one request.
type Identity struct {
	UserID   int64
	Username string
	Role     string
}

// IsAdmin reports whether the caller holds the admin role.
func (id Identity) IsAdmin() bool { return id.Role == "admin" }

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity returns a context carrying the verified identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom retrieves the verified identity from the context.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
