package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditrepository "github.com/railzwaylabs/clubsettle/internal/audit/repository"
	auditservice "github.com/railzwaylabs/clubsettle/internal/audit/service"
	"github.com/railzwaylabs/clubsettle/internal/calendar"
	carryforwarddomain "github.com/railzwaylabs/clubsettle/internal/carryforward/domain"
	"github.com/railzwaylabs/clubsettle/internal/carryforward/repository"
	"github.com/railzwaylabs/clubsettle/internal/carryforward/service"
	ledgerdomain "github.com/railzwaylabs/clubsettle/internal/ledger/domain"
	ledgerrepository "github.com/railzwaylabs/clubsettle/internal/ledger/repository"
	ledgerservice "github.com/railzwaylabs/clubsettle/internal/ledger/service"
	"github.com/railzwaylabs/clubsettle/internal/migration"
	"github.com/railzwaylabs/clubsettle/internal/observability"
	orgdomain "github.com/railzwaylabs/clubsettle/internal/organization/domain"
	orgrepository "github.com/railzwaylabs/clubsettle/internal/organization/repository"
	settlementdomain "github.com/railzwaylabs/clubsettle/internal/settlement/domain"
	settlementrepository "github.com/railzwaylabs/clubsettle/internal/settlement/repository"
	"github.com/railzwaylabs/clubsettle/internal/tenantcontext"
	"github.com/railzwaylabs/clubsettle/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	tenantID = snowflake.ID(1)
	clubID   = snowflake.ID(100)
)

var week = calendar.MustParse("2024-03-04")

type fixture struct {
	svc            carryforwarddomain.Service
	repo           carryforwarddomain.Repository
	ledger         ledgerdomain.Service
	settlementRepo settlementdomain.Repository
	db             *gorm.DB
	node           *snowflake.Node
	ctx            context.Context
}

func newFixture(t *testing.T) *fixture {
	db := dbtest.Open(t)
	require.NoError(t, migration.AutoMigrate(db))
	node := dbtest.Node(t)

	audit := auditservice.NewService(auditservice.Params{DB: db, Log: zap.NewNop(), GenID: node, Repo: auditrepository.Provide()})
	orgRepo := orgrepository.Provide()
	seedAgents(t, db, orgRepo, 11, 12, 13, 14)
	ledger := ledgerservice.NewService(ledgerservice.Params{DB: db, Log: zap.NewNop(), GenID: node, Repo: ledgerrepository.Provide(), OrgRepo: orgRepo})
	repo := repository.Provide()
	settlementRepo := settlementrepository.Provide()
	svc := service.NewService(service.Params{
		DB:             db,
		Log:            zap.NewNop(),
		GenID:          node,
		Repo:           repo,
		SettlementRepo: settlementRepo,
		Ledger:         ledger,
		Audit:          audit,
		Metrics:        observability.NopMetrics(),
	})
	ctx := tenantcontext.With(context.Background(), tenantcontext.Identity{TenantID: tenantID, UserID: 9, Role: tenantcontext.RoleFinance})
	return &fixture{svc: svc, repo: repo, ledger: ledger, settlementRepo: settlementRepo, db: db, node: node, ctx: ctx}
}

// seedAgents puts the given agents under subclub 5 of the test club.
func seedAgents(t *testing.T, db *gorm.DB, repo orgdomain.Repository, agents ...snowflake.ID) {
	ctx := context.Background()
	now := time.Now().UTC()
	club, subclub := clubID, snowflake.ID(5)
	require.NoError(t, repo.Insert(ctx, db, &orgdomain.Organization{ID: club, TenantID: tenantID, Type: orgdomain.TypeClub, Name: "Club", CreatedAt: now}))
	require.NoError(t, repo.Insert(ctx, db, &orgdomain.Organization{ID: subclub, TenantID: tenantID, ParentID: &club, Type: orgdomain.TypeSubclub, Name: "Norte", CreatedAt: now}))
	for _, id := range agents {
		require.NoError(t, repo.Insert(ctx, db, &orgdomain.Organization{ID: id, TenantID: tenantID, ParentID: &subclub, Type: orgdomain.TypeAgent, Name: id.String(), CreatedAt: now}))
	}
}

func (f *fixture) settlement(t *testing.T, status settlementdomain.Status, resultados map[snowflake.ID]float64) snowflake.ID {
	now := time.Now().UTC()
	st := &settlementdomain.Settlement{
		ID: f.node.Generate(), TenantID: tenantID, ClubID: clubID, WeekStart: week,
		Version: 1, Status: status, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, f.settlementRepo.Insert(f.ctx, f.db, st))

	var rows []settlementdomain.AgentWeeklyMetric
	for agentID, r := range resultados {
		rows = append(rows, settlementdomain.AgentWeeklyMetric{
			ID: f.node.Generate(), TenantID: tenantID, SettlementID: st.ID, ImportID: 1,
			AgentID: agentID, AgentName: agentID.String(), SubclubID: 5, NetResult: r, CreatedAt: now,
		})
	}
	require.NoError(t, f.settlementRepo.InsertAgentMetrics(f.ctx, f.db, rows))
	return st.ID
}

func (f *fixture) prior(t *testing.T, entityID snowflake.ID, amount float64) {
	require.NoError(t, f.repo.Upsert(f.ctx, f.db, &carryforwarddomain.CarryForward{
		ID: f.node.Generate(), TenantID: tenantID, ClubID: clubID, EntityID: entityID,
		WeekStart: week, Amount: amount, SettlementID: 1, ComputedAt: time.Now().UTC(),
	}))
}

func (f *fixture) move(t *testing.T, entityID snowflake.ID, dir ledgerdomain.Direction, amount float64) *ledgerdomain.Entry {
	e, err := f.ledger.Create(f.ctx, ledgerdomain.CreateRequest{
		ClubID: clubID, EntityID: entityID, WeekStart: week, Direction: dir, Amount: amount,
	})
	require.NoError(t, err)
	return e
}

func carriesByEntity(res *carryforwarddomain.CloseResult) map[snowflake.ID]carryforwarddomain.Carry {
	out := make(map[snowflake.ID]carryforwarddomain.Carry)
	for _, c := range res.Carries {
		out[c.EntityID] = c
	}
	return out
}

func TestCalcSaldoAtual(t *testing.T) {
	assert.Equal(t, 70.0, carryforwarddomain.CalcSaldoAtual(100, 0, 30))
	assert.Equal(t, 130.0, carryforwarddomain.CalcSaldoAtual(100, 0, -30))
	assert.Equal(t, 100.0, carryforwarddomain.CalcSaldoAtual(100, 0, 0))
	assert.Equal(t, 0.3, carryforwarddomain.CalcSaldoAtual(0.1, 0.2, 0))
}

func TestComputeAndPersistClosesWeek(t *testing.T) {
	f := newFixture(t)
	id := f.settlement(t, settlementdomain.StatusFinal, map[snowflake.ID]float64{
		11: 0, 12: 0, 13: 0, 14: 50.5,
	})
	f.prior(t, 11, 100)
	f.prior(t, 12, 100)
	f.prior(t, 13, 100)
	f.prior(t, 15, 20)
	f.move(t, 11, ledgerdomain.DirectionIn, 30)
	f.move(t, 12, ledgerdomain.DirectionOut, 30)
	f.move(t, 14, ledgerdomain.DirectionIn, 50.5)

	res, err := f.svc.ComputeAndPersist(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04", res.WeekClosed.String())
	assert.Equal(t, "2024-03-11", res.NextWeek.String())
	assert.Equal(t, 5, res.Count)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "15")

	carries := carriesByEntity(res)
	assert.Equal(t, 70.0, carries[11].SaldoFinal)
	assert.Equal(t, 130.0, carries[12].SaldoFinal)
	assert.Equal(t, 100.0, carries[13].SaldoFinal)
	assert.Equal(t, 0.0, carries[14].SaldoFinal)
	assert.Equal(t, 20.0, carries[15].SaldoFinal)
	assert.Equal(t, 30.0, carries[11].LedgerNet)
	assert.Equal(t, -30.0, carries[12].LedgerNet)

	got, err := f.svc.Get(f.ctx, carryforwarddomain.GetRequest{ClubID: clubID, WeekStart: res.NextWeek})
	require.NoError(t, err)
	assert.Equal(t, map[snowflake.ID]float64{11: 70, 12: 130, 13: 100, 14: 0, 15: 20}, got.Amounts)
}

func TestComputeAndPersistIsIdempotent(t *testing.T) {
	f := newFixture(t)
	id := f.settlement(t, settlementdomain.StatusDraft, map[snowflake.ID]float64{11: 40})
	entry := f.move(t, 11, ledgerdomain.DirectionIn, 10)

	for i := 0; i < 3; i++ {
		_, err := f.svc.ComputeAndPersist(f.ctx, id)
		require.NoError(t, err)
	}

	var rows []carryforwarddomain.CarryForward
	require.NoError(t, f.db.Where("week_start = ?", week.NextWeek()).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, 30.0, rows[0].Amount)

	require.NoError(t, f.ledger.Delete(f.ctx, entry.ID))
	_, err := f.svc.ComputeAndPersist(f.ctx, id)
	require.NoError(t, err)

	entity := snowflake.ID(11)
	got, err := f.svc.Get(f.ctx, carryforwarddomain.GetRequest{ClubID: clubID, WeekStart: week.NextWeek(), EntityID: &entity})
	require.NoError(t, err)
	require.NotNil(t, got.Amount)
	assert.Equal(t, 40.0, *got.Amount)
}

func TestComputeAndPersistRejectsVoid(t *testing.T) {
	f := newFixture(t)
	id := f.settlement(t, settlementdomain.StatusVoid, map[snowflake.ID]float64{11: 10})

	_, err := f.svc.ComputeAndPersist(f.ctx, id)
	assert.ErrorIs(t, err, carryforwarddomain.ErrSettlementVoid)

	_, err = f.svc.ComputeAndPersist(f.ctx, f.node.Generate())
	assert.ErrorIs(t, err, carryforwarddomain.ErrSettlementNotFound)
}

func TestComputeAndPersistSkipsMalformedMetric(t *testing.T) {
	f := newFixture(t)
	id := f.settlement(t, settlementdomain.StatusFinal, map[snowflake.ID]float64{11: 10, 0: 99})

	res, err := f.svc.ComputeAndPersist(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "malformed")
}

func TestGetSingleEntityDefaultsToZero(t *testing.T) {
	f := newFixture(t)
	entity := snowflake.ID(77)
	got, err := f.svc.Get(f.ctx, carryforwarddomain.GetRequest{ClubID: clubID, WeekStart: week, EntityID: &entity})
	require.NoError(t, err)
	require.NotNil(t, got.Amount)
	assert.Equal(t, 0.0, *got.Amount)

	_, err = f.svc.Get(f.ctx, carryforwarddomain.GetRequest{WeekStart: week})
	assert.ErrorIs(t, err, carryforwarddomain.ErrInvalidClub)
}

func TestStatuses(t *testing.T) {
	f := newFixture(t)
	id := f.settlement(t, settlementdomain.StatusFinal, map[snowflake.ID]float64{
		11: 100, 12: 100, 13: 50, 14: 0,
	})
	f.move(t, 11, ledgerdomain.DirectionIn, 40)
	f.move(t, 12, ledgerdomain.DirectionIn, 100)

	statuses, err := f.svc.Statuses(f.ctx, id)
	require.NoError(t, err)

	got := make(map[snowflake.ID]ledgerdomain.PaymentStatus)
	for _, s := range statuses {
		got[s.EntityID] = s.Status
	}
	assert.Equal(t, ledgerdomain.StatusParcial, got[11])
	assert.Equal(t, ledgerdomain.StatusPago, got[12])
	assert.Equal(t, ledgerdomain.StatusAberto, got[13])
	assert.Equal(t, ledgerdomain.StatusNeutro, got[14])
}
