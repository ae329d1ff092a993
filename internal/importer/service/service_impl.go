package service

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/railzwaylabs/clubsettle/internal/audit/domain"
	"github.com/railzwaylabs/clubsettle/internal/calendar"
	"github.com/railzwaylabs/clubsettle/internal/errs"
	importdomain "github.com/railzwaylabs/clubsettle/internal/importer/domain"
	"github.com/railzwaylabs/clubsettle/internal/money"
	orgdomain "github.com/railzwaylabs/clubsettle/internal/organization/domain"
	ratedomain "github.com/railzwaylabs/clubsettle/internal/rate/domain"
	settlementdomain "github.com/railzwaylabs/clubsettle/internal/settlement/domain"
	"github.com/railzwaylabs/clubsettle/internal/tenantcontext"
	"github.com/railzwaylabs/clubsettle/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB             *gorm.DB
	Log            *zap.Logger
	GenID          *snowflake.Node
	Repo           importdomain.Repository
	OrgRepo        orgdomain.Repository
	RateRepo       ratedomain.Repository
	SettlementRepo settlementdomain.Repository
	Cache          settlementdomain.Cache
	Audit          auditdomain.Service
}

type Service struct {
	db             *gorm.DB
	log            *zap.Logger
	genID          *snowflake.Node
	repo           importdomain.Repository
	orgRepo        orgdomain.Repository
	rateRepo       ratedomain.Repository
	settlementRepo settlementdomain.Repository
	cache          settlementdomain.Cache
	audit          auditdomain.Service
}

func NewService(p Params) importdomain.Service {
	return &Service{
		db:             p.DB,
		log:            p.Log.Named("importer.service"),
		genID:          p.GenID,
		repo:           p.Repo,
		orgRepo:        p.OrgRepo,
		rateRepo:       p.RateRepo,
		settlementRepo: p.SettlementRepo,
		cache:          p.Cache,
		audit:          p.Audit,
	}
}

func validateRows(rows []importdomain.PlayerRow) error {
	if len(rows) == 0 {
		return importdomain.ErrEmptyImport
	}
	for i, row := range rows {
		field := "rows[" + strconv.Itoa(i) + "]"
		if strings.TrimSpace(row.ExternalPlayerID) == "" || strings.TrimSpace(row.AgentName) == "" {
			return importdomain.ErrInvalidRow.WithField(field, "external_player_id and agent_name are required")
		}
		for _, v := range []float64{row.Winnings, row.Rake, row.GGR} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return importdomain.ErrInvalidRow.WithField(field, "amounts must be finite")
			}
		}
	}
	return nil
}

// Confirm turns parsed statement rows into weekly metrics. A new DRAFT is
// opened when the week has none or its latest version is FINAL/VOID; merge
// mode appends to an existing DRAFT. Existing metric rows are never
// modified.
func (s *Service) Confirm(ctx context.Context, req importdomain.ConfirmRequest) (*importdomain.ConfirmResult, error) {
	identity, err := tenantcontext.Require(ctx)
	if err != nil {
		return nil, err
	}
	if req.ClubID == 0 {
		return nil, importdomain.ErrInvalidClub
	}
	if req.WeekStart.IsZero() {
		return nil, importdomain.ErrInvalidWeekStart
	}
	if req.Mode == "" {
		req.Mode = importdomain.ModeNew
	}
	if req.Mode != importdomain.ModeNew && req.Mode != importdomain.ModeMerge {
		return nil, importdomain.ErrInvalidMode
	}
	if err := validateRows(req.Rows); err != nil {
		return nil, err
	}

	var result *importdomain.ConfirmResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := db.LockKey(ctx, tx, "import", identity.TenantID.String(), req.ClubID.String(), req.WeekStart.String()); err != nil {
			return err
		}
		club, err := s.orgRepo.FindByID(ctx, tx, identity.TenantID, req.ClubID)
		if err != nil {
			return err
		}
		if club == nil || club.Type != orgdomain.TypeClub {
			return importdomain.ErrClubNotFound
		}

		now := time.Now().UTC()
		imp := &importdomain.Import{
			ID:        s.genID.Generate(),
			TenantID:  identity.TenantID,
			ClubID:    req.ClubID,
			WeekStart: req.WeekStart,
			FileName:  strings.TrimSpace(req.FileName),
			Mode:      req.Mode,
			Status:    importdomain.StatusProcessing,
			CreatedBy: identity.UserID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.Insert(ctx, tx, imp); err != nil {
			return err
		}

		st, err := s.targetSettlement(ctx, tx, identity.TenantID, imp, now)
		if err != nil {
			return err
		}

		b := &builder{
			svc:        s,
			tx:         tx,
			tenantID:   identity.TenantID,
			club:       club,
			week:       req.WeekStart,
			settlement: st,
			importID:   imp.ID,
			now:        now,
			rates:      make(map[rateKey]float64),
			subclubs:   make(map[string]*orgdomain.Organization),
			agents:     make(map[string]*orgdomain.AgentRow),
		}
		players, agents, err := b.build(ctx, req.Rows)
		if err != nil {
			return err
		}
		if err := s.settlementRepo.InsertPlayerMetrics(ctx, tx, players); err != nil {
			return err
		}
		if err := s.settlementRepo.InsertAgentMetrics(ctx, tx, agents); err != nil {
			return err
		}

		imp.Status = importdomain.StatusDone
		imp.RowCount = len(req.Rows)
		if err := s.repo.Complete(ctx, tx, identity.TenantID, imp.ID, imp.Status, imp.RowCount); err != nil {
			return err
		}
		if err := s.audit.AuditLog(ctx, tx, "import.confirm", "settlement", st.ID, map[string]any{
			"import_id": imp.ID.String(),
			"mode":      string(req.Mode),
			"rows":      len(req.Rows),
		}); err != nil {
			return err
		}

		result = &importdomain.ConfirmResult{
			Import:     *imp,
			Settlement: *st,
			Players:    len(players),
			Agents:     len(agents),
		}
		return nil
	})
	if err != nil {
		s.log.Warn("import confirmation failed",
			zap.String("tenant_id", identity.TenantID.String()),
			zap.String("club_id", req.ClubID.String()),
			zap.String("week_start", req.WeekStart.String()),
			zap.Error(err),
		)
		if errs.KindOf(err) == errs.KindInternal {
			s.recordFailure(ctx, identity, req)
		}
		return nil, err
	}

	s.log.Info("import confirmed",
		zap.String("tenant_id", identity.TenantID.String()),
		zap.String("import_id", result.Import.ID.String()),
		zap.String("settlement_id", result.Settlement.ID.String()),
		zap.Int("players", result.Players),
	)
	return result, nil
}

func (s *Service) targetSettlement(ctx context.Context, tx *gorm.DB, tenantID snowflake.ID, imp *importdomain.Import, now time.Time) (*settlementdomain.Settlement, error) {
	latest, err := s.settlementRepo.FindLatest(ctx, tx, tenantID, imp.ClubID, imp.WeekStart)
	if err != nil {
		return nil, err
	}
	if latest != nil && latest.Status == settlementdomain.StatusDraft {
		if imp.Mode != importdomain.ModeMerge {
			return nil, importdomain.ErrDraftExists
		}
		return latest, nil
	}

	version := 1
	if latest != nil {
		version = latest.Version + 1
	}
	importID := imp.ID
	st := &settlementdomain.Settlement{
		ID:        s.genID.Generate(),
		TenantID:  tenantID,
		ClubID:    imp.ClubID,
		WeekStart: imp.WeekStart,
		Version:   version,
		Status:    settlementdomain.StatusDraft,
		ImportID:  &importID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.settlementRepo.Insert(ctx, tx, st); err != nil {
		return nil, err
	}
	return st, nil
}

// recordFailure keeps a failed import visible after its transaction rolled back.
func (s *Service) recordFailure(ctx context.Context, identity tenantcontext.Identity, req importdomain.ConfirmRequest) {
	now := time.Now().UTC()
	err := s.repo.Insert(ctx, s.db, &importdomain.Import{
		ID:        s.genID.Generate(),
		TenantID:  identity.TenantID,
		ClubID:    req.ClubID,
		WeekStart: req.WeekStart,
		FileName:  strings.TrimSpace(req.FileName),
		Mode:      req.Mode,
		Status:    importdomain.StatusFailed,
		RowCount:  len(req.Rows),
		CreatedBy: identity.UserID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		s.log.Error("failed to record failed import", zap.Error(err))
	}
}

// Delete removes an import. A FINAL or VOID settlement blocks it. When other
// done imports exist for the week the settlement survives: this import's
// metrics go and the settlement points at the newest sibling. Otherwise
// metrics, then the settlement, then the import are deleted.
func (s *Service) Delete(ctx context.Context, id snowflake.ID) (*importdomain.DeleteResult, error) {
	identity, err := tenantcontext.Require(ctx)
	if err != nil {
		return nil, err
	}

	result := &importdomain.DeleteResult{ImportID: id}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		imp, err := s.repo.FindByID(ctx, tx, identity.TenantID, id)
		if err != nil {
			return err
		}
		if imp == nil {
			return importdomain.ErrImportNotFound
		}
		if err := db.LockKey(ctx, tx, "import", identity.TenantID.String(), imp.ClubID.String(), imp.WeekStart.String()); err != nil {
			return err
		}

		settlements, err := s.settlementRepo.ListForImport(ctx, tx, identity.TenantID, id)
		if err != nil {
			return err
		}
		if len(settlements) == 0 {
			return s.repo.Delete(ctx, tx, identity.TenantID, id)
		}
		for _, st := range settlements {
			if st.Status.Locked() {
				return importdomain.ErrSettlementLocked
			}
		}
		st := settlements[0]
		settlementID := st.ID
		result.SettlementID = &settlementID

		siblings, err := s.repo.ListContributors(ctx, tx, identity.TenantID, st.ID, id)
		if err != nil {
			return err
		}

		if len(siblings) > 0 {
			if err := s.settlementRepo.DeleteMetricsByImport(ctx, tx, identity.TenantID, st.ID, id); err != nil {
				return err
			}
			if st.ImportID != nil && *st.ImportID == id {
				sibling := siblings[0].ID
				if err := s.settlementRepo.ReassignImport(ctx, tx, identity.TenantID, st.ID, sibling); err != nil {
					return err
				}
				result.ReassignedTo = &sibling
			}
		} else {
			if err := s.settlementRepo.DeleteMetrics(ctx, tx, identity.TenantID, st.ID); err != nil {
				return err
			}
			if err := s.settlementRepo.Delete(ctx, tx, identity.TenantID, st.ID); err != nil {
				return err
			}
			result.SettlementDeleted = true
		}

		if err := s.repo.Delete(ctx, tx, identity.TenantID, id); err != nil {
			return err
		}
		return s.audit.AuditLog(ctx, tx, "import.delete", "settlement", st.ID, map[string]any{
			"import_id":          id.String(),
			"settlement_deleted": result.SettlementDeleted,
		})
	})
	if err != nil {
		return nil, err
	}

	if result.SettlementID != nil && s.cache != nil {
		if err := s.cache.Invalidate(ctx, identity.TenantID, *result.SettlementID); err != nil {
			s.log.Warn("failed to invalidate settlement cache", zap.Error(err))
		}
	}
	s.log.Info("import deleted",
		zap.String("tenant_id", identity.TenantID.String()),
		zap.String("import_id", id.String()),
		zap.Bool("settlement_deleted", result.SettlementDeleted),
	)
	return result, nil
}

type rateKey struct {
	typ ratedomain.EntityType
	id  snowflake.ID
}

// builder resolves the organization tree and computes metrics for one import.
type builder struct {
	svc        *Service
	tx         *gorm.DB
	tenantID   snowflake.ID
	club       *orgdomain.Organization
	week       calendar.Date
	settlement *settlementdomain.Settlement
	importID   snowflake.ID
	now        time.Time

	rates    map[rateKey]float64
	subclubs map[string]*orgdomain.Organization
	agents   map[string]*orgdomain.AgentRow
}

func (b *builder) build(ctx context.Context, rows []importdomain.PlayerRow) ([]settlementdomain.PlayerWeeklyMetric, []settlementdomain.AgentWeeklyMetric, error) {
	players := make([]settlementdomain.PlayerWeeklyMetric, 0, len(rows))
	byAgent := make(map[snowflake.ID]*settlementdomain.AgentWeeklyMetric)
	var order []snowflake.ID

	for _, row := range rows {
		agent, err := b.agent(ctx, row)
		if err != nil {
			return nil, nil, err
		}
		player, err := b.player(ctx, row, agent.ID)
		if err != nil {
			return nil, nil, err
		}
		agentRate, err := b.rate(ctx, ratedomain.EntityAgent, agent.ID)
		if err != nil {
			return nil, nil, err
		}
		rate, err := b.playerRate(ctx, player.ID, agentRate)
		if err != nil {
			return nil, nil, err
		}

		winnings := money.Round2(row.Winnings)
		rake := money.Round2(row.Rake)
		rakeback := money.Percent(rake, rate)
		pm := settlementdomain.PlayerWeeklyMetric{
			ID:               b.svc.genID.Generate(),
			TenantID:         b.tenantID,
			SettlementID:     b.settlement.ID,
			ImportID:         b.importID,
			PlayerID:         player.ID,
			ExternalPlayerID: player.ExternalID,
			Nickname:         strings.TrimSpace(row.Nickname),
			AgentID:          agent.ID,
			SubclubID:        agent.SubclubID,
			Winnings:         winnings,
			Rake:             rake,
			GGR:              money.Round2(row.GGR),
			RakebackRate:     rate,
			RakebackValue:    rakeback,
			NetResult:        money.Round2(-winnings - rakeback),
			Hands:            row.Hands,
			Games:            row.Games,
			CreatedAt:        b.now,
		}
		players = append(players, pm)

		am, ok := byAgent[agent.ID]
		if !ok {
			am = &settlementdomain.AgentWeeklyMetric{
				ID:           b.svc.genID.Generate(),
				TenantID:     b.tenantID,
				SettlementID: b.settlement.ID,
				ImportID:     b.importID,
				AgentID:      agent.ID,
				AgentName:    agent.Name,
				SubclubID:    agent.SubclubID,
				SubclubName:  agent.SubclubName,
				IsDirect:     agent.IsDirect,
				RakebackRate: agentRate,
				CreatedAt:    b.now,
			}
			byAgent[agent.ID] = am
			order = append(order, agent.ID)
		}
		am.PlayerCount++
		am.Winnings = money.Sum(am.Winnings, pm.Winnings)
		am.Rake = money.Sum(am.Rake, pm.Rake)
		am.GGR = money.Sum(am.GGR, pm.GGR)
		am.RakebackValue = money.Sum(am.RakebackValue, pm.RakebackValue)
		am.NetResult = money.Sum(am.NetResult, pm.NetResult)
		am.Hands += pm.Hands
		am.Games += pm.Games
	}

	agents := make([]settlementdomain.AgentWeeklyMetric, 0, len(order))
	for _, id := range order {
		agents = append(agents, *byAgent[id])
	}
	return players, agents, nil
}

func (b *builder) subclub(ctx context.Context, name string) (*orgdomain.Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = orgdomain.DefaultSubclubName
	}
	key := strings.ToLower(name)
	if sc, ok := b.subclubs[key]; ok {
		return sc, nil
	}
	sc, err := b.svc.orgRepo.FindChildByName(ctx, b.tx, b.tenantID, b.club.ID, orgdomain.TypeSubclub, name)
	if err != nil {
		return nil, err
	}
	if sc == nil {
		clubID := b.club.ID
		sc = &orgdomain.Organization{
			ID:        b.svc.genID.Generate(),
			TenantID:  b.tenantID,
			ParentID:  &clubID,
			Type:      orgdomain.TypeSubclub,
			Name:      name,
			CreatedAt: b.now,
		}
		if err := b.svc.orgRepo.Insert(ctx, b.tx, sc); err != nil {
			return nil, err
		}
	}
	b.subclubs[key] = sc
	return sc, nil
}

func (b *builder) agent(ctx context.Context, row importdomain.PlayerRow) (*orgdomain.AgentRow, error) {
	name := strings.TrimSpace(row.AgentName)
	key := strings.ToLower(name)
	if a, ok := b.agents[key]; ok {
		return a, nil
	}
	a, err := b.svc.orgRepo.FindAgentByName(ctx, b.tx, b.tenantID, b.club.ID, name)
	if err != nil {
		return nil, err
	}
	if a == nil {
		sc, err := b.subclub(ctx, row.SubclubName)
		if err != nil {
			return nil, err
		}
		parentID := sc.ID
		org := &orgdomain.Organization{
			ID:        b.svc.genID.Generate(),
			TenantID:  b.tenantID,
			ParentID:  &parentID,
			Type:      orgdomain.TypeAgent,
			Name:      name,
			IsDirect:  row.IsDirect,
			CreatedAt: b.now,
		}
		if err := b.svc.orgRepo.Insert(ctx, b.tx, org); err != nil {
			return nil, err
		}
		a = &orgdomain.AgentRow{
			ID:          org.ID,
			Name:        org.Name,
			IsDirect:    org.IsDirect,
			SubclubID:   sc.ID,
			SubclubName: sc.Name,
		}
	}
	b.agents[key] = a
	return a, nil
}

func (b *builder) player(ctx context.Context, row importdomain.PlayerRow, agentID snowflake.ID) (*orgdomain.Player, error) {
	externalID := strings.TrimSpace(row.ExternalPlayerID)
	p, err := b.svc.orgRepo.FindPlayerByExternalID(ctx, b.tx, b.tenantID, b.club.ID, externalID)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}
	p = &orgdomain.Player{
		ID:         b.svc.genID.Generate(),
		TenantID:   b.tenantID,
		ClubID:     b.club.ID,
		ExternalID: externalID,
		AgentID:    agentID,
		Nickname:   strings.TrimSpace(row.Nickname),
		CreatedAt:  b.now,
	}
	if err := b.svc.orgRepo.InsertPlayer(ctx, b.tx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// rate returns the version in force at week start, 0 when none is set.
func (b *builder) rate(ctx context.Context, typ ratedomain.EntityType, id snowflake.ID) (float64, error) {
	key := rateKey{typ: typ, id: id}
	if v, ok := b.rates[key]; ok {
		return v, nil
	}
	r, err := b.svc.rateRepo.FindAt(ctx, b.tx, b.tenantID, typ, id, b.week)
	if err != nil {
		return 0, err
	}
	v := 0.0
	if r != nil {
		v = r.Rate
	}
	b.rates[key] = v
	return v, nil
}

// playerRate prefers a player's own rate and falls back to the agent's.
func (b *builder) playerRate(ctx context.Context, playerID snowflake.ID, agentRate float64) (float64, error) {
	key := rateKey{typ: ratedomain.EntityPlayer, id: playerID}
	if v, ok := b.rates[key]; ok {
		return v, nil
	}
	r, err := b.svc.rateRepo.FindAt(ctx, b.tx, b.tenantID, ratedomain.EntityPlayer, playerID, b.week)
	if err != nil {
		return 0, err
	}
	v := agentRate
	if r != nil {
		v = r.Rate
	}
	b.rates[key] = v
	return v, nil
}
