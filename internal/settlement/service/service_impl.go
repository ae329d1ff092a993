package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/railzwaylabs/clubsettle/internal/audit/domain"
	"github.com/railzwaylabs/clubsettle/internal/config"
	"github.com/railzwaylabs/clubsettle/internal/observability"
	"github.com/railzwaylabs/clubsettle/internal/settlement/cache"
	settlementdomain "github.com/railzwaylabs/clubsettle/internal/settlement/domain"
	"github.com/railzwaylabs/clubsettle/internal/tenantcontext"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultFullTTL = 10 * time.Minute

var tracer = otel.Tracer("clubsettle/settlement")

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Config  config.Config
	Repo    settlementdomain.Repository
	Cache   settlementdomain.Cache
	Audit   auditdomain.Service
	Metrics *observability.Metrics
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    settlementdomain.Repository
	cache   settlementdomain.Cache
	audit   auditdomain.Service
	metrics *observability.Metrics
	ttl     time.Duration
}

func NewService(p Params) settlementdomain.Service {
	ttl := p.Config.Cache.FullSettlementTTL
	if ttl <= 0 {
		ttl = defaultFullTTL
	}
	c := p.Cache
	if c == nil {
		c = cache.Nop{}
	}
	m := p.Metrics
	if m == nil {
		m = observability.NopMetrics()
	}
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("settlement.service"),
		repo:    p.Repo,
		cache:   c,
		audit:   p.Audit,
		metrics: m,
		ttl:     ttl,
	}
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*settlementdomain.Settlement, error) {
	identity, err := tenantcontext.Require(ctx)
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, settlementdomain.ErrInvalidID
	}
	item, err := s.repo.FindByID(ctx, s.db, identity.TenantID, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, settlementdomain.ErrSettlementNotFound
	}
	return item, nil
}

func (s *Service) List(ctx context.Context, req settlementdomain.ListRequest) ([]settlementdomain.Settlement, error) {
	identity, err := tenantcontext.Require(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, s.db, identity.TenantID, settlementdomain.ListFilter{
		ClubID:    req.ClubID,
		WeekStart: req.WeekStart,
		Status:    req.Status,
	})
}

func (s *Service) Finalize(ctx context.Context, id snowflake.ID) (*settlementdomain.Settlement, error) {
	ctx, span := tracer.Start(ctx, "settlement.Finalize", trace.WithAttributes(attribute.String("settlement_id", id.String())))
	defer span.End()

	identity, err := tenantcontext.Require(ctx)
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, settlementdomain.ErrInvalidID
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.repo.CompareAndFinalize(ctx, tx, identity.TenantID, id, identity.UserID, now)
		if err != nil {
			return err
		}
		if !ok {
			current, err := s.repo.FindByID(ctx, tx, identity.TenantID, id)
			if err != nil {
				return err
			}
			if current == nil {
				return settlementdomain.ErrSettlementNotFound
			}
			return settlementdomain.ErrSettlementNotDraft
		}
		return s.audit.AuditLog(ctx, tx, "settlement.finalize", "settlement", id, nil)
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.afterTransition(ctx, identity.TenantID, id, "finalize")
	return s.Get(ctx, id)
}

// Void reverses a finalize. The settlement and its metrics stay in place.
func (s *Service) Void(ctx context.Context, id snowflake.ID, reason string) (*settlementdomain.Settlement, error) {
	ctx, span := tracer.Start(ctx, "settlement.Void", trace.WithAttributes(attribute.String("settlement_id", id.String())))
	defer span.End()

	identity, err := tenantcontext.Require(ctx)
	if err != nil {
		return nil, err
	}
	if id == 0 {
		return nil, settlementdomain.ErrInvalidID
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, settlementdomain.ErrVoidReasonRequired
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := s.repo.CompareAndVoid(ctx, tx, identity.TenantID, id, identity.UserID, reason, now)
		if err != nil {
			return err
		}
		if !ok {
			current, err := s.repo.FindByID(ctx, tx, identity.TenantID, id)
			if err != nil {
				return err
			}
			if current == nil {
				return settlementdomain.ErrSettlementNotFound
			}
			return settlementdomain.ErrSettlementNotFinal
		}
		return s.audit.AuditLog(ctx, tx, "settlement.void", "settlement", id, map[string]any{
			"reason": reason,
		})
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	s.afterTransition(ctx, identity.TenantID, id, "void")
	return s.Get(ctx, id)
}

func (s *Service) afterTransition(ctx context.Context, tenantID, id snowflake.ID, transition string) {
	s.metrics.SettlementTransitions.WithLabelValues(transition).Inc()
	if err := s.cache.Invalidate(ctx, tenantID, id); err != nil {
		s.log.Error("failed to invalidate settlement cache",
			zap.String("settlement_id", id.String()),
			zap.String("transition", transition),
			zap.Error(err),
		)
	}
	s.log.Info("settlement transitioned",
		zap.String("tenant_id", tenantID.String()),
		zap.String("settlement_id", id.String()),
		zap.String("transition", transition),
	)
}

// Full builds the subclub → agent → player view visible to the caller.
// FINAL settlements are served from cache per permission scope.
func (s *Service) Full(ctx context.Context, id snowflake.ID) (*settlementdomain.FullSettlement, error) {
	ctx, span := tracer.Start(ctx, "settlement.Full")
	defer span.End()

	identity, err := tenantcontext.Require(ctx)
	if err != nil {
		return nil, err
	}
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	scope := identity.Scope()
	key := cache.Key(identity.TenantID, id, scope)
	cacheable := item.Status == settlementdomain.StatusFinal
	if cacheable {
		var cached settlementdomain.FullSettlement
		ok, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("settlement cache read failed", zap.Error(err))
		}
		if ok {
			s.metrics.CacheRequests.WithLabelValues("hit").Inc()
			return &cached, nil
		}
		s.metrics.CacheRequests.WithLabelValues("miss").Inc()
	} else {
		s.metrics.CacheRequests.WithLabelValues("bypass").Inc()
	}

	agents, err := s.repo.ListAgentMetrics(ctx, s.db, identity.TenantID, id)
	if err != nil {
		return nil, err
	}
	players, err := s.repo.ListPlayerMetrics(ctx, s.db, identity.TenantID, id)
	if err != nil {
		return nil, err
	}

	full := BuildFull(*item, scope, agents, players, identity.CanSeeSubclub)

	if cacheable {
		if err := s.cache.Set(ctx, key, full, s.ttl); err != nil {
			s.log.Warn("settlement cache write failed", zap.Error(err))
		}
	}
	return full, nil
}

// BuildFull groups metrics by subclub and agent. Several agent rows for one
// agent (merged imports) are summed; visible filters subclubs out.
func BuildFull(item settlementdomain.Settlement, scope string, agents []settlementdomain.AgentWeeklyMetric, players []settlementdomain.PlayerWeeklyMetric, visible func(snowflake.ID) bool) *settlementdomain.FullSettlement {
	playersByAgent := make(map[snowflake.ID][]settlementdomain.PlayerWeeklyMetric)
	for _, p := range players {
		playersByAgent[p.AgentID] = append(playersByAgent[p.AgentID], p)
	}

	subclubs := make(map[snowflake.ID]*settlementdomain.SubclubBreakdown)
	agentIndex := make(map[snowflake.ID]*settlementdomain.AgentBreakdown)
	agentSubclub := make(map[snowflake.ID]snowflake.ID)
	var agentOrder []snowflake.ID

	for _, m := range agents {
		if visible != nil && !visible(m.SubclubID) {
			continue
		}
		if _, ok := subclubs[m.SubclubID]; !ok {
			subclubs[m.SubclubID] = &settlementdomain.SubclubBreakdown{
				SubclubID: m.SubclubID,
				Name:      m.SubclubName,
			}
		}
		a, ok := agentIndex[m.AgentID]
		if !ok {
			a = &settlementdomain.AgentBreakdown{
				AgentID:  m.AgentID,
				Name:     m.AgentName,
				IsDirect: m.IsDirect,
				Players:  playersByAgent[m.AgentID],
			}
			agentIndex[m.AgentID] = a
			agentSubclub[m.AgentID] = m.SubclubID
			agentOrder = append(agentOrder, m.AgentID)
		}
		a.RakebackRate = m.RakebackRate
		a.Totals = a.Totals.Add(settlementdomain.TotalsOfAgent(m))
	}

	for _, agentID := range agentOrder {
		a := agentIndex[agentID]
		if a.Players == nil {
			a.Players = []settlementdomain.PlayerWeeklyMetric{}
		}
		sc := subclubs[agentSubclub[agentID]]
		sc.Agents = append(sc.Agents, *a)
		sc.Totals = sc.Totals.Add(a.Totals)
	}

	full := &settlementdomain.FullSettlement{
		Settlement: item,
		Scope:      scope,
		Subclubs:   make([]settlementdomain.SubclubBreakdown, 0, len(subclubs)),
	}
	for _, sc := range subclubs {
		sort.Slice(sc.Agents, func(i, j int) bool { return sc.Agents[i].Name < sc.Agents[j].Name })
		full.Subclubs = append(full.Subclubs, *sc)
		full.Totals = full.Totals.Add(sc.Totals)
	}
	sort.Slice(full.Subclubs, func(i, j int) bool { return full.Subclubs[i].Name < full.Subclubs[j].Name })
	return full
}
