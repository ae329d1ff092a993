package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	orgdomain "github.com/railzwaylabs/clubsettle/internal/organization/domain"
	"github.com/railzwaylabs/clubsettle/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentLookupStaysInsideTenantAndClub(t *testing.T) {
	db := dbtest.Open(t, &orgdomain.Organization{})
	r := Provide()
	ctx := context.Background()
	now := time.Now().UTC()

	insert := func(id, tenant snowflake.ID, parent *snowflake.ID, typ orgdomain.Type, name string) {
		require.NoError(t, r.Insert(ctx, db, &orgdomain.Organization{
			ID: id, TenantID: tenant, ParentID: parent, Type: typ, Name: name, CreatedAt: now,
		}))
	}
	ptr := func(id snowflake.ID) *snowflake.ID { return &id }

	insert(1, 100, nil, orgdomain.TypeClub, "Club A")
	insert(2, 100, ptr(1), orgdomain.TypeSubclub, "Norte")
	insert(3, 100, ptr(2), orgdomain.TypeAgent, "Joao")
	insert(4, 100, ptr(2), orgdomain.TypeAgent, "Maria")
	insert(11, 200, nil, orgdomain.TypeClub, "Other tenant")
	insert(12, 200, ptr(11), orgdomain.TypeSubclub, "Norte")
	insert(13, 200, ptr(12), orgdomain.TypeAgent, "Joao")

	agent, err := r.FindAgentByName(ctx, db, 100, 1, " joao ")
	require.NoError(t, err)
	require.NotNil(t, agent)
	assert.Equal(t, snowflake.ID(3), agent.ID)
	assert.Equal(t, "Norte", agent.SubclubName)

	agent, err = r.FindAgentByName(ctx, db, 100, 11, "Joao")
	require.NoError(t, err)
	assert.Nil(t, agent, "club of another tenant")

	agent, err = r.FindAgent(ctx, db, 100, 1, 4)
	require.NoError(t, err)
	require.NotNil(t, agent)
	assert.Equal(t, "Maria", agent.Name)
	assert.Equal(t, snowflake.ID(2), agent.SubclubID)

	agent, err = r.FindAgent(ctx, db, 100, 1, 13)
	require.NoError(t, err)
	assert.Nil(t, agent, "agent of another tenant")

	agent, err = r.FindAgent(ctx, db, 100, 1, 2)
	require.NoError(t, err)
	assert.Nil(t, agent, "subclub is not an agent")

	agent, err = r.FindAgent(ctx, db, 200, 11, 3)
	require.NoError(t, err)
	assert.Nil(t, agent)

	agents, err := r.ListAgents(ctx, db, 100, 1)
	require.NoError(t, err)
	require.Len(t, agents, 2)
	assert.Equal(t, "Joao", agents[0].Name)

	org, err := r.FindByID(ctx, db, 200, 3)
	require.NoError(t, err)
	assert.Nil(t, org)
}
