// Package tenantcontext carries the authenticated caller through a request.
package tenantcontext

import (
	"context"
	"sort"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/clubsettle/internal/errs"
)

type key string

var identityKey key = "tenant_identity"

const (
	RoleOwner   = "owner"
	RoleAdmin   = "admin"
	RoleFinance = "finance"
	RoleViewer  = "viewer"
)

// Identity is the authenticated context handed over by the auth layer.
// SubclubIDs, when non-empty, restricts reads to those subclubs.
type Identity struct {
	TenantID   snowflake.ID
	UserID     snowflake.ID
	Role       string
	SubclubIDs []snowflake.ID
}

func With(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func From(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	if !ok || id.TenantID == 0 {
		return Identity{}, false
	}
	return id, true
}

// TenantIDFromContext mirrors the orgcontext helper used by the services.
func TenantIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	id, ok := From(ctx)
	if !ok {
		return 0, false
	}
	return id.TenantID, true
}

// Scope is the permission scope used to partition cached reads.
func (i Identity) Scope() string {
	if len(i.SubclubIDs) == 0 {
		return "all"
	}
	ids := make([]string, 0, len(i.SubclubIDs))
	for _, id := range i.SubclubIDs {
		ids = append(ids, id.String())
	}
	sort.Strings(ids)
	return "subclubs:" + strings.Join(ids, ",")
}

// CanSeeSubclub reports whether the identity may read the given subclub.
func (i Identity) CanSeeSubclub(id snowflake.ID) bool {
	if len(i.SubclubIDs) == 0 {
		return true
	}
	for _, allowed := range i.SubclubIDs {
		if allowed == id {
			return true
		}
	}
	return false
}

// ErrMissingTenant is returned by services called without an identity.
var ErrMissingTenant = errs.Unauthorized("missing_tenant")

// Require returns the identity or ErrMissingTenant.
func Require(ctx context.Context) (Identity, error) {
	id, ok := From(ctx)
	if !ok {
		return Identity{}, ErrMissingTenant
	}
	return id, nil
}
