package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditrepository "github.com/railzwaylabs/clubsettle/internal/audit/repository"
	auditservice "github.com/railzwaylabs/clubsettle/internal/audit/service"
	"github.com/railzwaylabs/clubsettle/internal/calendar"
	"github.com/railzwaylabs/clubsettle/internal/errs"
	importdomain "github.com/railzwaylabs/clubsettle/internal/importer/domain"
	"github.com/railzwaylabs/clubsettle/internal/importer/repository"
	"github.com/railzwaylabs/clubsettle/internal/importer/service"
	"github.com/railzwaylabs/clubsettle/internal/migration"
	orgdomain "github.com/railzwaylabs/clubsettle/internal/organization/domain"
	orgrepository "github.com/railzwaylabs/clubsettle/internal/organization/repository"
	ratedomain "github.com/railzwaylabs/clubsettle/internal/rate/domain"
	raterepository "github.com/railzwaylabs/clubsettle/internal/rate/repository"
	settlementcache "github.com/railzwaylabs/clubsettle/internal/settlement/cache"
	settlementdomain "github.com/railzwaylabs/clubsettle/internal/settlement/domain"
	settlementrepository "github.com/railzwaylabs/clubsettle/internal/settlement/repository"
	"github.com/railzwaylabs/clubsettle/internal/tenantcontext"
	"github.com/railzwaylabs/clubsettle/pkg/db/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const tenantID = snowflake.ID(1)

var week = calendar.MustParse("2024-03-04")

type fixture struct {
	svc            importdomain.Service
	db             *gorm.DB
	node           *snowflake.Node
	ctx            context.Context
	repo           importdomain.Repository
	orgRepo        orgdomain.Repository
	rateRepo       ratedomain.Repository
	settlementRepo settlementdomain.Repository
	clubID         snowflake.ID
}

func newFixture(t *testing.T) *fixture {
	db := dbtest.Open(t)
	require.NoError(t, migration.AutoMigrate(db))
	node := dbtest.Node(t)
	log := zap.NewNop()

	f := &fixture{
		db:             db,
		node:           node,
		ctx:            tenantcontext.With(context.Background(), tenantcontext.Identity{TenantID: tenantID, UserID: 9, Role: tenantcontext.RoleAdmin}),
		repo:           repository.Provide(),
		orgRepo:        orgrepository.Provide(),
		rateRepo:       raterepository.Provide(),
		settlementRepo: settlementrepository.Provide(),
	}
	f.svc = service.NewService(service.Params{
		DB:             db,
		Log:            log,
		GenID:          node,
		Repo:           f.repo,
		OrgRepo:        f.orgRepo,
		RateRepo:       f.rateRepo,
		SettlementRepo: f.settlementRepo,
		Cache:          settlementcache.Nop{},
		Audit:          auditservice.NewService(auditservice.Params{DB: db, Log: log, GenID: node, Repo: auditrepository.Provide()}),
	})

	club := &orgdomain.Organization{ID: node.Generate(), TenantID: tenantID, Type: orgdomain.TypeClub, Name: "Club", CreatedAt: time.Now().UTC()}
	require.NoError(t, f.orgRepo.Insert(f.ctx, db, club))
	f.clubID = club.ID
	return f
}

func (f *fixture) org(t *testing.T, parent snowflake.ID, typ orgdomain.Type, name string) snowflake.ID {
	t.Helper()
	o := &orgdomain.Organization{ID: f.node.Generate(), TenantID: tenantID, ParentID: &parent, Type: typ, Name: name, CreatedAt: time.Now().UTC()}
	require.NoError(t, f.orgRepo.Insert(f.ctx, f.db, o))
	return o.ID
}

func (f *fixture) setRate(t *testing.T, typ ratedomain.EntityType, entity snowflake.ID, rate float64) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, f.rateRepo.Insert(f.ctx, f.db, &ratedomain.Rate{
		ID: f.node.Generate(), TenantID: tenantID, EntityType: typ, EntityID: entity,
		Rate: rate, EffectiveFrom: week.AddDays(-14), CreatedAt: now, UpdatedAt: now,
	}))
}

func (f *fixture) confirm(t *testing.T, mode importdomain.Mode, rows ...importdomain.PlayerRow) *importdomain.ConfirmResult {
	t.Helper()
	res, err := f.svc.Confirm(f.ctx, importdomain.ConfirmRequest{ClubID: f.clubID, WeekStart: week, FileName: "week.xlsx", Mode: mode, Rows: rows})
	require.NoError(t, err)
	return res
}

func (f *fixture) finalize(t *testing.T, id snowflake.ID) {
	t.Helper()
	require.NoError(t, f.db.Model(&settlementdomain.Settlement{}).Where("id = ?", id).Update("status", settlementdomain.StatusFinal).Error)
}

func row(external, agent, subclub string, winnings, rake float64) importdomain.PlayerRow {
	return importdomain.PlayerRow{ExternalPlayerID: external, Nickname: external, AgentName: agent, SubclubName: subclub, Winnings: winnings, Rake: rake, Hands: 10, Games: 2}
}

func TestConfirmBuildsMetrics(t *testing.T) {
	f := newFixture(t)
	norte := f.org(t, f.clubID, orgdomain.TypeSubclub, "Norte")
	bravo := f.org(t, norte, orgdomain.TypeAgent, "Bravo")
	alice := &orgdomain.Player{ID: f.node.Generate(), TenantID: tenantID, ClubID: f.clubID, ExternalID: "p-alice", AgentID: bravo, CreatedAt: time.Now().UTC()}
	require.NoError(t, f.orgRepo.InsertPlayer(f.ctx, f.db, alice))
	f.setRate(t, ratedomain.EntityAgent, bravo, 10)
	f.setRate(t, ratedomain.EntityPlayer, alice.ID, 20)

	res := f.confirm(t, importdomain.ModeNew,
		row("p-alice", "Bravo", "Norte", 100, 20),
		row("p-bob", " bravo ", "Norte", -50, 10),
		row("p-carol", "Delta", "", -30, 5),
	)
	assert.Equal(t, 3, res.Players)
	assert.Equal(t, 2, res.Agents)
	assert.Equal(t, importdomain.StatusDone, res.Import.Status)
	assert.Equal(t, 3, res.Import.RowCount)
	assert.Equal(t, settlementdomain.StatusDraft, res.Settlement.Status)
	assert.Equal(t, 1, res.Settlement.Version)
	require.NotNil(t, res.Settlement.ImportID)
	assert.Equal(t, res.Import.ID, *res.Settlement.ImportID)

	players, err := f.settlementRepo.ListPlayerMetrics(f.ctx, f.db, tenantID, res.Settlement.ID)
	require.NoError(t, err)
	byExternal := make(map[string]settlementdomain.PlayerWeeklyMetric)
	for _, p := range players {
		byExternal[p.ExternalPlayerID] = p
	}
	assert.Equal(t, alice.ID, byExternal["p-alice"].PlayerID)
	assert.Equal(t, 20.0, byExternal["p-alice"].RakebackRate)
	assert.Equal(t, 4.0, byExternal["p-alice"].RakebackValue)
	assert.Equal(t, -104.0, byExternal["p-alice"].NetResult)
	assert.Equal(t, 10.0, byExternal["p-bob"].RakebackRate)
	assert.Equal(t, 49.0, byExternal["p-bob"].NetResult)
	assert.Equal(t, 0.0, byExternal["p-carol"].RakebackRate)
	assert.Equal(t, 30.0, byExternal["p-carol"].NetResult)

	agents, err := f.settlementRepo.ListAgentMetrics(f.ctx, f.db, tenantID, res.Settlement.ID)
	require.NoError(t, err)
	byName := make(map[string]settlementdomain.AgentWeeklyMetric)
	for _, a := range agents {
		byName[a.AgentName] = a
	}
	assert.Equal(t, bravo, byName["Bravo"].AgentID)
	assert.Equal(t, 2, byName["Bravo"].PlayerCount)
	assert.Equal(t, 50.0, byName["Bravo"].Winnings)
	assert.Equal(t, 30.0, byName["Bravo"].Rake)
	assert.Equal(t, 5.0, byName["Bravo"].RakebackValue)
	assert.Equal(t, -55.0, byName["Bravo"].NetResult)
	assert.Equal(t, int64(20), byName["Bravo"].Hands)
	assert.Equal(t, "Norte", byName["Bravo"].SubclubName)
	assert.Equal(t, orgdomain.DefaultSubclubName, byName["Delta"].SubclubName)

	bob, err := f.orgRepo.FindPlayerByExternalID(f.ctx, f.db, tenantID, f.clubID, "p-bob")
	require.NoError(t, err)
	require.NotNil(t, bob)
	assert.Equal(t, bravo, bob.AgentID)
}

func TestConfirmValidates(t *testing.T) {
	f := newFixture(t)
	good := row("p1", "Bravo", "", 1, 1)

	cases := []struct {
		name string
		req  importdomain.ConfirmRequest
		want error
	}{
		{"missing club", importdomain.ConfirmRequest{WeekStart: week, Rows: []importdomain.PlayerRow{good}}, importdomain.ErrInvalidClub},
		{"missing week", importdomain.ConfirmRequest{ClubID: f.clubID, Rows: []importdomain.PlayerRow{good}}, importdomain.ErrInvalidWeekStart},
		{"bad mode", importdomain.ConfirmRequest{ClubID: f.clubID, WeekStart: week, Mode: "replace", Rows: []importdomain.PlayerRow{good}}, importdomain.ErrInvalidMode},
		{"no rows", importdomain.ConfirmRequest{ClubID: f.clubID, WeekStart: week}, importdomain.ErrEmptyImport},
		{"blank agent", importdomain.ConfirmRequest{ClubID: f.clubID, WeekStart: week, Rows: []importdomain.PlayerRow{row("p1", " ", "", 1, 1)}}, importdomain.ErrInvalidRow},
		{"unknown club", importdomain.ConfirmRequest{ClubID: 424242, WeekStart: week, Rows: []importdomain.PlayerRow{good}}, importdomain.ErrClubNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Confirm(f.ctx, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	_, err := f.svc.Confirm(context.Background(), importdomain.ConfirmRequest{ClubID: f.clubID, WeekStart: week, Rows: []importdomain.PlayerRow{good}})
	assert.ErrorIs(t, err, tenantcontext.ErrMissingTenant)
}

func TestConfirmModes(t *testing.T) {
	f := newFixture(t)

	first := f.confirm(t, importdomain.ModeNew, row("p1", "Bravo", "Norte", 10, 2))

	_, err := f.svc.Confirm(f.ctx, importdomain.ConfirmRequest{ClubID: f.clubID, WeekStart: week, Mode: importdomain.ModeNew, Rows: []importdomain.PlayerRow{row("p2", "Bravo", "Norte", 1, 1)}})
	assert.ErrorIs(t, err, importdomain.ErrDraftExists)
	assert.Equal(t, errs.KindConflict, errs.KindOf(err))

	merged := f.confirm(t, importdomain.ModeMerge, row("p2", "Bravo", "Norte", 5, 1))
	assert.Equal(t, first.Settlement.ID, merged.Settlement.ID)
	agents, err := f.settlementRepo.ListAgentMetrics(f.ctx, f.db, tenantID, first.Settlement.ID)
	require.NoError(t, err)
	assert.Len(t, agents, 2)
	count, err := f.settlementRepo.CountMetrics(f.ctx, f.db, tenantID, first.Settlement.ID)
	require.NoError(t, err)
	assert.Positive(t, count)

	f.finalize(t, first.Settlement.ID)
	next := f.confirm(t, importdomain.ModeNew, row("p1", "Bravo", "Norte", 12, 2))
	assert.NotEqual(t, first.Settlement.ID, next.Settlement.ID)
	assert.Equal(t, 2, next.Settlement.Version)
	assert.Equal(t, settlementdomain.StatusDraft, next.Settlement.Status)
}

func TestDeleteCascades(t *testing.T) {
	f := newFixture(t)

	first := f.confirm(t, importdomain.ModeNew, row("p1", "Bravo", "Norte", 10, 2))
	second := f.confirm(t, importdomain.ModeMerge, row("p2", "Delta", "Norte", 5, 1))
	settlementID := first.Settlement.ID

	res, err := f.svc.Delete(f.ctx, first.Import.ID)
	require.NoError(t, err)
	assert.False(t, res.SettlementDeleted)
	require.NotNil(t, res.ReassignedTo)
	assert.Equal(t, second.Import.ID, *res.ReassignedTo)

	st, err := f.settlementRepo.FindByID(f.ctx, f.db, tenantID, settlementID)
	require.NoError(t, err)
	require.NotNil(t, st)
	require.NotNil(t, st.ImportID)
	assert.Equal(t, second.Import.ID, *st.ImportID)
	players, err := f.settlementRepo.ListPlayerMetrics(f.ctx, f.db, tenantID, settlementID)
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, "p2", players[0].ExternalPlayerID)

	gone, err := f.repo.FindByID(f.ctx, f.db, tenantID, first.Import.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	res, err = f.svc.Delete(f.ctx, second.Import.ID)
	require.NoError(t, err)
	assert.True(t, res.SettlementDeleted)
	assert.Nil(t, res.ReassignedTo)
	st, err = f.settlementRepo.FindByID(f.ctx, f.db, tenantID, settlementID)
	require.NoError(t, err)
	assert.Nil(t, st)
	agents, err := f.settlementRepo.ListAgentMetrics(f.ctx, f.db, tenantID, settlementID)
	require.NoError(t, err)
	assert.Empty(t, agents)

	_, err = f.svc.Delete(f.ctx, second.Import.ID)
	assert.ErrorIs(t, err, importdomain.ErrImportNotFound)
}

func TestDeleteBlockedByFinalSettlement(t *testing.T) {
	f := newFixture(t)
	res := f.confirm(t, importdomain.ModeNew, row("p1", "Bravo", "Norte", 10, 2))
	f.finalize(t, res.Settlement.ID)

	_, err := f.svc.Delete(f.ctx, res.Import.ID)
	assert.ErrorIs(t, err, importdomain.ErrSettlementLocked)

	imp, err := f.repo.FindByID(f.ctx, f.db, tenantID, res.Import.ID)
	require.NoError(t, err)
	assert.NotNil(t, imp)
}

func TestDeleteKeepsImportOfEarlierFinalVersion(t *testing.T) {
	f := newFixture(t)

	v1 := f.confirm(t, importdomain.ModeNew, row("p1", "Bravo", "Norte", 10, 2))
	f.finalize(t, v1.Settlement.ID)
	v2 := f.confirm(t, importdomain.ModeNew, row("p1", "Bravo", "Norte", 12, 2))
	require.Equal(t, 2, v2.Settlement.Version)

	res, err := f.svc.Delete(f.ctx, v2.Import.ID)
	require.NoError(t, err)
	assert.True(t, res.SettlementDeleted)
	assert.Nil(t, res.ReassignedTo)
	st, err := f.settlementRepo.FindByID(f.ctx, f.db, tenantID, v2.Settlement.ID)
	require.NoError(t, err)
	assert.Nil(t, st)

	_, err = f.svc.Delete(f.ctx, v1.Import.ID)
	assert.ErrorIs(t, err, importdomain.ErrSettlementLocked)

	imp, err := f.repo.FindByID(f.ctx, f.db, tenantID, v1.Import.ID)
	require.NoError(t, err)
	assert.NotNil(t, imp)
	final, err := f.settlementRepo.FindByID(f.ctx, f.db, tenantID, v1.Settlement.ID)
	require.NoError(t, err)
	require.NotNil(t, final)
	assert.Equal(t, settlementdomain.StatusFinal, final.Status)
	count, err := f.settlementRepo.CountMetrics(f.ctx, f.db, tenantID, v1.Settlement.ID)
	require.NoError(t, err)
	assert.Positive(t, count)
}

func TestDeleteRejectsImportReferencedByLockedVersion(t *testing.T) {
	f := newFixture(t)

	v1 := f.confirm(t, importdomain.ModeNew, row("p1", "Bravo", "Norte", 10, 2))
	f.finalize(t, v1.Settlement.ID)
	v2 := f.confirm(t, importdomain.ModeNew, row("p1", "Bravo", "Norte", 12, 2))
	require.NoError(t, f.settlementRepo.ReassignImport(f.ctx, f.db, tenantID, v2.Settlement.ID, v1.Import.ID))

	_, err := f.svc.Delete(f.ctx, v1.Import.ID)
	assert.ErrorIs(t, err, importdomain.ErrSettlementLocked)
}
