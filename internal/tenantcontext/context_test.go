package tenantcontext

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
)

func TestFromContext(t *testing.T) {
	_, ok := From(context.Background())
	assert.False(t, ok)

	_, ok = From(With(context.Background(), Identity{}))
	assert.False(t, ok, "zero tenant is not an identity")

	ctx := With(context.Background(), Identity{TenantID: 7, UserID: 9, Role: RoleAdmin})
	tenantID, ok := TenantIDFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, snowflake.ID(7), tenantID)
}

func TestScope(t *testing.T) {
	assert.Equal(t, "all", Identity{TenantID: 1}.Scope())

	id := Identity{TenantID: 1, SubclubIDs: []snowflake.ID{30, 4}}
	assert.Equal(t, "subclubs:30,4", id.Scope())
	assert.True(t, id.CanSeeSubclub(4))
	assert.False(t, id.CanSeeSubclub(5))
}
