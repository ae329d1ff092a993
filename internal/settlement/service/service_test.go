package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/railzwaylabs/clubsettle/internal/audit/domain"
	auditrepository "github.com/railzwaylabs/clubsettle/internal/audit/repository"
	auditservice "github.com/railzwaylabs/clubsettle/internal/audit/service"
	"github.com/railzwaylabs/clubsettle/internal/calendar"
	"github.com/railzwaylabs/clubsettle/internal/config"
	"github.com/railzwaylabs/clubsettle/internal/observability"
	"github.com/railzwaylabs/clubsettle/internal/settlement/cache"
	settlementdomain "github.com/railzwaylabs/clubsettle/internal/settlement/domain"
	"github.com/railzwaylabs/clubsettle/internal/settlement/repository"
	"github.com/railzwaylabs/clubsettle/internal/settlement/service"
	"github.com/railzwaylabs/clubsettle/internal/tenantcontext"
	"github.com/railzwaylabs/clubsettle/pkg/db/dbtest"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	tenantID = snowflake.ID(1)
	clubID   = snowflake.ID(100)
)

type fixture struct {
	svc   settlementdomain.Service
	db    *gorm.DB
	repo  settlementdomain.Repository
	audit auditdomain.Service
	mr    *miniredis.Miniredis
	node  *snowflake.Node
}

func newFixture(t *testing.T) *fixture {
	db := dbtest.Open(t,
		&settlementdomain.Settlement{},
		&settlementdomain.PlayerWeeklyMetric{},
		&settlementdomain.AgentWeeklyMetric{},
		&auditdomain.AuditLog{},
	)
	node := dbtest.Node(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	audit := auditservice.NewService(auditservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  auditrepository.Provide(),
	})
	repo := repository.Provide()
	svc := service.NewService(service.Params{
		DB:      db,
		Log:     zap.NewNop(),
		Config:  config.Config{Cache: config.CacheConfig{FullSettlementTTL: time.Minute}},
		Repo:    repo,
		Cache:   cache.New(client, zap.NewNop()),
		Audit:   audit,
		Metrics: observability.NopMetrics(),
	})
	return &fixture{svc: svc, db: db, repo: repo, audit: audit, mr: mr, node: node}
}

func ctxFor(tenant snowflake.ID, subclubs ...snowflake.ID) context.Context {
	return tenantcontext.With(context.Background(), tenantcontext.Identity{
		TenantID:   tenant,
		UserID:     7,
		Role:       tenantcontext.RoleFinance,
		SubclubIDs: subclubs,
	})
}

func (f *fixture) seedDraft(t *testing.T) *settlementdomain.Settlement {
	now := time.Now().UTC()
	s := &settlementdomain.Settlement{
		ID:        f.node.Generate(),
		TenantID:  tenantID,
		ClubID:    clubID,
		WeekStart: calendar.MustParse("2024-03-04"),
		Version:   1,
		Status:    settlementdomain.StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, f.repo.Insert(context.Background(), f.db, s))
	return s
}

func (f *fixture) seedMetrics(t *testing.T, settlementID snowflake.ID) {
	ctx := context.Background()
	importID := f.node.Generate()
	agents := []settlementdomain.AgentWeeklyMetric{
		{ID: f.node.Generate(), TenantID: tenantID, SettlementID: settlementID, ImportID: importID, AgentID: 11, AgentName: "Bravo", SubclubID: 5, SubclubName: "Norte", PlayerCount: 1, Winnings: -100, Rake: 20, GGR: 20, RakebackRate: 10, RakebackValue: 2, NetResult: 98},
		{ID: f.node.Generate(), TenantID: tenantID, SettlementID: settlementID, ImportID: importID, AgentID: 12, AgentName: "Alfa", SubclubID: 5, SubclubName: "Norte", PlayerCount: 1, Winnings: 50, Rake: 10, GGR: 10, RakebackValue: 0, NetResult: -50},
		{ID: f.node.Generate(), TenantID: tenantID, SettlementID: settlementID, ImportID: importID, AgentID: 13, AgentName: "Charlie", SubclubID: 6, SubclubName: "Sul", PlayerCount: 1, Winnings: -30.5, Rake: 4, GGR: 4, NetResult: 30.5},
		// second import merged into the same settlement
		{ID: f.node.Generate(), TenantID: tenantID, SettlementID: settlementID, ImportID: f.node.Generate(), AgentID: 11, AgentName: "Bravo", SubclubID: 5, SubclubName: "Norte", PlayerCount: 1, Winnings: -10, Rake: 2, GGR: 2, RakebackRate: 10, RakebackValue: 0.2, NetResult: 9.8},
	}
	players := []settlementdomain.PlayerWeeklyMetric{
		{ID: f.node.Generate(), TenantID: tenantID, SettlementID: settlementID, ImportID: importID, PlayerID: 201, ExternalPlayerID: "p1", AgentID: 11, SubclubID: 5, Winnings: -100, Rake: 20, NetResult: 98},
		{ID: f.node.Generate(), TenantID: tenantID, SettlementID: settlementID, ImportID: importID, PlayerID: 202, ExternalPlayerID: "p2", AgentID: 12, SubclubID: 5, Winnings: 50, Rake: 10, NetResult: -50},
		{ID: f.node.Generate(), TenantID: tenantID, SettlementID: settlementID, ImportID: importID, PlayerID: 203, ExternalPlayerID: "p3", AgentID: 13, SubclubID: 6, Winnings: -30.5, Rake: 4, NetResult: 30.5},
	}
	require.NoError(t, f.repo.InsertAgentMetrics(ctx, f.db, agents))
	require.NoError(t, f.repo.InsertPlayerMetrics(ctx, f.db, players))
}

func TestLifecycleTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := ctxFor(tenantID)
	s := f.seedDraft(t)

	_, err := f.svc.Void(ctx, s.ID, "typo")
	assert.ErrorIs(t, err, settlementdomain.ErrSettlementNotFinal)

	final, err := f.svc.Finalize(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, settlementdomain.StatusFinal, final.Status)
	require.NotNil(t, final.FinalizedBy)
	assert.Equal(t, snowflake.ID(7), *final.FinalizedBy)
	assert.NotNil(t, final.FinalizedAt)

	_, err = f.svc.Finalize(ctx, s.ID)
	assert.ErrorIs(t, err, settlementdomain.ErrSettlementNotDraft)

	_, err = f.svc.Void(ctx, s.ID, "   ")
	assert.ErrorIs(t, err, settlementdomain.ErrVoidReasonRequired)

	voided, err := f.svc.Void(ctx, s.ID, "wrong import file")
	require.NoError(t, err)
	assert.Equal(t, settlementdomain.StatusVoid, voided.Status)
	require.NotNil(t, voided.VoidReason)
	assert.Equal(t, "wrong import file", *voided.VoidReason)

	_, err = f.svc.Void(ctx, s.ID, "again")
	assert.ErrorIs(t, err, settlementdomain.ErrSettlementNotFinal)
	_, err = f.svc.Finalize(ctx, s.ID)
	assert.ErrorIs(t, err, settlementdomain.ErrSettlementNotDraft)

	trail, err := f.audit.Trail(ctx, "settlement", s.ID)
	require.NoError(t, err)
	assert.Len(t, trail, 2)
}

func TestTransitionsAreTenantScoped(t *testing.T) {
	f := newFixture(t)
	s := f.seedDraft(t)

	_, err := f.svc.Finalize(ctxFor(2), s.ID)
	assert.ErrorIs(t, err, settlementdomain.ErrSettlementNotFound)

	_, err = f.svc.Get(ctxFor(2), s.ID)
	assert.ErrorIs(t, err, settlementdomain.ErrSettlementNotFound)

	_, err = f.svc.Finalize(context.Background(), s.ID)
	assert.ErrorIs(t, err, tenantcontext.ErrMissingTenant)
}

func TestFullGroupsBySubclubAndAgent(t *testing.T) {
	f := newFixture(t)
	s := f.seedDraft(t)
	f.seedMetrics(t, s.ID)

	full, err := f.svc.Full(ctxFor(tenantID), s.ID)
	require.NoError(t, err)

	require.Len(t, full.Subclubs, 2)
	norte := full.Subclubs[0]
	assert.Equal(t, "Norte", norte.Name)
	require.Len(t, norte.Agents, 2)
	assert.Equal(t, "Alfa", norte.Agents[0].Name)
	bravo := norte.Agents[1]
	assert.Equal(t, 2, bravo.Totals.Players)
	assert.Equal(t, -110.0, bravo.Totals.Winnings)
	assert.Equal(t, 2.2, bravo.Totals.Rakeback)
	assert.Equal(t, 107.8, bravo.Totals.Resultado)
	assert.Len(t, bravo.Players, 1)
	assert.Equal(t, 57.8, norte.Totals.Resultado)

	assert.Equal(t, "Sul", full.Subclubs[1].Name)
	assert.Equal(t, 88.3, full.Totals.Resultado)
	assert.Equal(t, 36.0, full.Totals.Rake)
	assert.Equal(t, "all", full.Scope)

	// drafts are never cached
	assert.Empty(t, f.mr.Keys())
}

func TestFullAppliesSubclubScope(t *testing.T) {
	f := newFixture(t)
	s := f.seedDraft(t)
	f.seedMetrics(t, s.ID)

	full, err := f.svc.Full(ctxFor(tenantID, 6), s.ID)
	require.NoError(t, err)
	require.Len(t, full.Subclubs, 1)
	assert.Equal(t, "Sul", full.Subclubs[0].Name)
	assert.Equal(t, 30.5, full.Totals.Resultado)
}

func TestFullCachesFinalAndInvalidatesOnVoid(t *testing.T) {
	f := newFixture(t)
	ctx := ctxFor(tenantID)
	s := f.seedDraft(t)
	f.seedMetrics(t, s.ID)

	_, err := f.svc.Finalize(ctx, s.ID)
	require.NoError(t, err)

	_, err = f.svc.Full(ctx, s.ID)
	require.NoError(t, err)
	_, err = f.svc.Full(ctxFor(tenantID, 5), s.ID)
	require.NoError(t, err)
	assert.True(t, f.mr.Exists(cache.Key(tenantID, s.ID, "all")))
	assert.Len(t, f.mr.Keys(), 2)

	_, err = f.svc.Void(ctx, s.ID, "recount")
	require.NoError(t, err)
	assert.Empty(t, f.mr.Keys())

	full, err := f.svc.Full(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, settlementdomain.StatusVoid, full.Settlement.Status)
	assert.Empty(t, f.mr.Keys())
}
