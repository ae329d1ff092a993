package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/railzwaylabs/clubsettle/internal/audit/domain"
	carryforwarddomain "github.com/railzwaylabs/clubsettle/internal/carryforward/domain"
	ledgerdomain "github.com/railzwaylabs/clubsettle/internal/ledger/domain"
	"github.com/railzwaylabs/clubsettle/internal/money"
	"github.com/railzwaylabs/clubsettle/internal/observability"
	settlementdomain "github.com/railzwaylabs/clubsettle/internal/settlement/domain"
	"github.com/railzwaylabs/clubsettle/internal/tenantcontext"
	"github.com/railzwaylabs/clubsettle/pkg/db"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("clubsettle/carryforward")

type Params struct {
	fx.In

	DB             *gorm.DB
	Log            *zap.Logger
	GenID          *snowflake.Node
	Repo           carryforwarddomain.Repository
	SettlementRepo settlementdomain.Repository
	Ledger         ledgerdomain.Service
	Audit          auditdomain.Service
	Metrics        *observability.Metrics
}

type Service struct {
	db             *gorm.DB
	log            *zap.Logger
	genID          *snowflake.Node
	repo           carryforwarddomain.Repository
	settlementRepo settlementdomain.Repository
	ledger         ledgerdomain.Service
	audit          auditdomain.Service
	metrics        *observability.Metrics
}

func NewService(p Params) carryforwarddomain.Service {
	m := p.Metrics
	if m == nil {
		m = observability.NopMetrics()
	}
	return &Service{
		db:             p.DB,
		log:            p.Log.Named("carryforward.service"),
		genID:          p.GenID,
		repo:           p.Repo,
		settlementRepo: p.SettlementRepo,
		ledger:         p.Ledger,
		audit:          p.Audit,
		metrics:        m,
	}
}

// weekInputs is everything a close reads before writing.
type weekInputs struct {
	settlement *settlementdomain.Settlement
	entities   []snowflake.ID
	resultado  map[snowflake.ID]float64
	hasMetric  map[snowflake.ID]bool
	prior      map[snowflake.ID]float64
	nets       map[snowflake.ID]ledgerdomain.NetResult
	warnings   []string
}

func (s *Service) loadWeek(ctx context.Context, tx *gorm.DB, tenantID, settlementID snowflake.ID) (*weekInputs, error) {
	st, err := s.settlementRepo.FindByID(ctx, tx, tenantID, settlementID)
	if err != nil {
		return nil, err
	}
	if st == nil {
		return nil, carryforwarddomain.ErrSettlementNotFound
	}
	if st.Status == settlementdomain.StatusVoid {
		return nil, carryforwarddomain.ErrSettlementVoid
	}

	in := &weekInputs{
		settlement: st,
		resultado:  make(map[snowflake.ID]float64),
		hasMetric:  make(map[snowflake.ID]bool),
		prior:      make(map[snowflake.ID]float64),
	}

	metrics, err := s.settlementRepo.ListAgentMetrics(ctx, tx, tenantID, settlementID)
	if err != nil {
		return nil, err
	}
	seen := make(map[snowflake.ID]bool)
	for _, m := range metrics {
		if m.AgentID == 0 || math.IsNaN(m.NetResult) || math.IsInf(m.NetResult, 0) {
			in.warnings = append(in.warnings, fmt.Sprintf("agent metric %s is malformed; skipped", m.ID))
			continue
		}
		in.resultado[m.AgentID] = money.Sum(in.resultado[m.AgentID], m.NetResult)
		in.hasMetric[m.AgentID] = true
		seen[m.AgentID] = true
	}

	priors, err := s.repo.ListForWeek(ctx, tx, tenantID, st.ClubID, st.WeekStart)
	if err != nil {
		return nil, err
	}
	for _, cf := range priors {
		in.prior[cf.EntityID] = cf.Amount
		seen[cf.EntityID] = true
	}

	in.nets, err = s.ledger.WeekNets(ctx, tx, tenantID, st.ClubID, st.WeekStart)
	if err != nil {
		return nil, err
	}
	for entityID := range in.nets {
		seen[entityID] = true
	}

	for entityID := range seen {
		in.entities = append(in.entities, entityID)
	}
	sort.Slice(in.entities, func(i, j int) bool { return in.entities[i] < in.entities[j] })
	return in, nil
}

// closeLockParts keys the close on the club week. Versions of one week write
// the same next-week rows.
func closeLockParts(st *settlementdomain.Settlement) []string {
	return []string{"carryforward", st.TenantID.String(), st.ClubID.String(), st.WeekStart.String()}
}

// ComputeAndPersist closes the settlement's week. Each entity is written on
// its own savepoint so one failing row only produces a warning. Re-running
// overwrites the same next-week rows.
func (s *Service) ComputeAndPersist(ctx context.Context, settlementID snowflake.ID) (*carryforwarddomain.CloseResult, error) {
	ctx, span := tracer.Start(ctx, "carryforward.ComputeAndPersist", trace.WithAttributes(attribute.String("settlement_id", settlementID.String())))
	defer span.End()

	identity, err := tenantcontext.Require(ctx)
	if err != nil {
		return nil, err
	}
	if settlementID == 0 {
		return nil, carryforwarddomain.ErrInvalidSettlement
	}

	var result *carryforwarddomain.CloseResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		target, err := s.settlementRepo.FindByID(ctx, tx, identity.TenantID, settlementID)
		if err != nil {
			return err
		}
		if target == nil {
			return carryforwarddomain.ErrSettlementNotFound
		}
		if err := db.LockKey(ctx, tx, closeLockParts(target)...); err != nil {
			return err
		}
		in, err := s.loadWeek(ctx, tx, identity.TenantID, settlementID)
		if err != nil {
			return err
		}

		st := in.settlement
		nextWeek := st.WeekStart.NextWeek()
		now := time.Now().UTC()
		result = &carryforwarddomain.CloseResult{
			SettlementID: st.ID,
			WeekClosed:   st.WeekStart,
			NextWeek:     nextWeek,
			Carries:      make([]carryforwarddomain.Carry, 0, len(in.entities)),
			Warnings:     in.warnings,
		}

		for i, entityID := range in.entities {
			if !in.hasMetric[entityID] {
				result.Warnings = append(result.Warnings, fmt.Sprintf("entity %s has no weekly metric; resultado taken as 0", entityID))
			}
			carry := carryforwarddomain.Carry{
				EntityID:      entityID,
				SaldoAnterior: in.prior[entityID],
				Resultado:     in.resultado[entityID],
				LedgerNet:     in.nets[entityID].Net,
			}
			carry.SaldoFinal = carryforwarddomain.CalcSaldoAtual(carry.SaldoAnterior, carry.Resultado, carry.LedgerNet)

			savepoint := fmt.Sprintf("cf_%d", i)
			if err := tx.SavePoint(savepoint).Error; err != nil {
				return err
			}
			err := s.repo.Upsert(ctx, tx, &carryforwarddomain.CarryForward{
				ID:           s.genID.Generate(),
				TenantID:     identity.TenantID,
				ClubID:       st.ClubID,
				EntityID:     entityID,
				WeekStart:    nextWeek,
				Amount:       carry.SaldoFinal,
				SettlementID: st.ID,
				ComputedAt:   now,
			})
			if err != nil {
				if rbErr := tx.RollbackTo(savepoint).Error; rbErr != nil {
					return rbErr
				}
				s.metrics.CarryForwardEntities.WithLabelValues("failed").Inc()
				s.log.Warn("carry-forward entity failed",
					zap.String("settlement_id", st.ID.String()),
					zap.String("entity_id", entityID.String()),
					zap.Error(err),
				)
				result.Warnings = append(result.Warnings, fmt.Sprintf("entity %s: %v", entityID, err))
				continue
			}
			s.metrics.CarryForwardEntities.WithLabelValues("persisted").Inc()
			result.Carries = append(result.Carries, carry)
		}
		result.Count = len(result.Carries)

		return s.audit.AuditLog(ctx, tx, "carry_forward.close_week", "settlement", st.ID, map[string]any{
			"week_closed": st.WeekStart.String(),
			"count":       result.Count,
			"warnings":    len(result.Warnings),
		})
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	for _, w := range result.Warnings {
		s.log.Warn("week close warning", zap.String("settlement_id", settlementID.String()), zap.String("warning", w))
	}
	s.log.Info("week closed",
		zap.String("tenant_id", identity.TenantID.String()),
		zap.String("settlement_id", settlementID.String()),
		zap.String("week_closed", result.WeekClosed.String()),
		zap.Int("count", result.Count),
	)
	return result, nil
}

func (s *Service) Get(ctx context.Context, req carryforwarddomain.GetRequest) (*carryforwarddomain.GetResponse, error) {
	identity, err := tenantcontext.Require(ctx)
	if err != nil {
		return nil, err
	}
	if req.ClubID == 0 {
		return nil, carryforwarddomain.ErrInvalidClub
	}
	if req.WeekStart.IsZero() {
		return nil, carryforwarddomain.ErrInvalidWeekStart
	}

	resp := &carryforwarddomain.GetResponse{WeekStart: req.WeekStart}
	if req.EntityID != nil {
		cf, err := s.repo.Find(ctx, s.db, identity.TenantID, req.ClubID, *req.EntityID, req.WeekStart)
		if err != nil {
			return nil, err
		}
		amount := 0.0
		if cf != nil {
			amount = cf.Amount
		}
		resp.EntityID = req.EntityID
		resp.Amount = &amount
		return resp, nil
	}

	items, err := s.repo.ListForWeek(ctx, s.db, identity.TenantID, req.ClubID, req.WeekStart)
	if err != nil {
		return nil, err
	}
	resp.Amounts = make(map[snowflake.ID]float64, len(items))
	for _, cf := range items {
		resp.Amounts[cf.EntityID] = cf.Amount
	}
	return resp, nil
}

// Statuses reports where each entity stands for the settlement's week
// without writing anything.
func (s *Service) Statuses(ctx context.Context, settlementID snowflake.ID) ([]carryforwarddomain.EntityStatus, error) {
	identity, err := tenantcontext.Require(ctx)
	if err != nil {
		return nil, err
	}
	if settlementID == 0 {
		return nil, carryforwarddomain.ErrInvalidSettlement
	}
	in, err := s.loadWeek(ctx, s.db, identity.TenantID, settlementID)
	if err != nil {
		return nil, err
	}

	out := make([]carryforwarddomain.EntityStatus, 0, len(in.entities))
	for _, entityID := range in.entities {
		net := in.nets[entityID]
		open := carryforwarddomain.CalcSaldoAtual(in.prior[entityID], in.resultado[entityID], net.Net)
		out = append(out, carryforwarddomain.EntityStatus{
			EntityID:      entityID,
			SaldoAnterior: in.prior[entityID],
			Resultado:     in.resultado[entityID],
			Ledger:        net,
			OpenBalance:   open,
			Status:        ledgerdomain.StatusFor(open, net),
		})
	}
	return out, nil
}
