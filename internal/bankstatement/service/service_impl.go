package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	auditdomain "github.com/railzwaylabs/clubsettle/internal/audit/domain"
	bankdomain "github.com/railzwaylabs/clubsettle/internal/bankstatement/domain"
	"github.com/railzwaylabs/clubsettle/internal/bankstatement/ofx"
	"github.com/railzwaylabs/clubsettle/internal/calendar"
	carryforwarddomain "github.com/railzwaylabs/clubsettle/internal/carryforward/domain"
	ledgerdomain "github.com/railzwaylabs/clubsettle/internal/ledger/domain"
	"github.com/railzwaylabs/clubsettle/internal/money"
	"github.com/railzwaylabs/clubsettle/internal/observability"
	orgdomain "github.com/railzwaylabs/clubsettle/internal/organization/domain"
	settlementdomain "github.com/railzwaylabs/clubsettle/internal/settlement/domain"
	"github.com/railzwaylabs/clubsettle/internal/tenantcontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB             *gorm.DB
	Log            *zap.Logger
	GenID          *snowflake.Node
	Repo           bankdomain.Repository
	OrgRepo        orgdomain.Repository
	SettlementRepo settlementdomain.Repository
	CarryForward   carryforwarddomain.Service
	Ledger         ledgerdomain.Service
	Audit          auditdomain.Service
	Metrics        *observability.Metrics
}

type Service struct {
	db             *gorm.DB
	log            *zap.Logger
	genID          *snowflake.Node
	repo           bankdomain.Repository
	orgRepo        orgdomain.Repository
	settlementRepo settlementdomain.Repository
	carryForward   carryforwarddomain.Service
	ledger         ledgerdomain.Service
	audit          auditdomain.Service
	metrics        *observability.Metrics
}

func NewService(p Params) bankdomain.Service {
	m := p.Metrics
	if m == nil {
		m = observability.NopMetrics()
	}
	return &Service{
		db:             p.DB,
		log:            p.Log.Named("bankstatement.service"),
		genID:          p.GenID,
		repo:           p.Repo,
		orgRepo:        p.OrgRepo,
		settlementRepo: p.SettlementRepo,
		carryForward:   p.CarryForward,
		ledger:         p.Ledger,
		audit:          p.Audit,
		metrics:        m,
	}
}

// Upload stores every statement line not seen before for the tenant.
// Lines are keyed by FITID so uploading the same file twice is harmless.
func (s *Service) Upload(ctx context.Context, req bankdomain.UploadRequest) (*bankdomain.UploadResult, error) {
	identity, err := tenantcontext.Require(ctx)
	if err != nil {
		return nil, err
	}
	if req.ClubID == 0 {
		return nil, bankdomain.ErrInvalidClub
	}
	if req.WeekStart.IsZero() {
		return nil, bankdomain.ErrInvalidWeekStart
	}
	if req.Body == nil {
		return nil, bankdomain.ErrInvalidStatement
	}

	lines, err := ofx.Parse(req.Body)
	if err != nil {
		s.log.Warn("rejected ofx upload", zap.Error(err))
		return nil, bankdomain.ErrInvalidStatement
	}

	result := &bankdomain.UploadResult{BatchID: ulid.Make().String()}
	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, line := range lines {
			fitID := line.FitID
			if fitID == "" {
				fitID = fmt.Sprintf("gen:%s:%.2f:%s", line.PostedAt.Format("20060102"), line.Amount, line.Description)
			}
			inserted, err := s.repo.InsertIgnoreDuplicates(ctx, tx, &bankdomain.BankTransaction{
				ID:          s.genID.Generate(),
				TenantID:    identity.TenantID,
				ClubID:      req.ClubID,
				WeekStart:   req.WeekStart,
				BatchID:     result.BatchID,
				FitID:       fitID,
				Amount:      money.Round2(line.Amount),
				PostedAt:    line.PostedAt,
				Description: line.Description,
				Status:      bankdomain.StatusUnmatched,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
			if err != nil {
				return err
			}
			if inserted {
				result.Imported++
			} else {
				result.Duplicates++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("ofx uploaded",
		zap.String("tenant_id", identity.TenantID.String()),
		zap.String("batch_id", result.BatchID),
		zap.Int("imported", result.Imported),
		zap.Int("duplicates", result.Duplicates),
	)
	return result, nil
}

func (s *Service) List(ctx context.Context, req bankdomain.ListRequest) ([]bankdomain.BankTransaction, error) {
	identity, err := tenantcontext.Require(ctx)
	if err != nil {
		return nil, err
	}
	if req.WeekStart.IsZero() {
		return nil, bankdomain.ErrInvalidWeekStart
	}
	if req.Status != nil && !req.Status.Valid() {
		return nil, bankdomain.ErrInvalidStatus
	}
	return s.repo.List(ctx, s.db, identity.TenantID, bankdomain.ListFilter{
		ClubID:    req.ClubID,
		WeekStart: req.WeekStart,
		Status:    req.Status,
	})
}

func (s *Service) load(ctx context.Context, tx *gorm.DB, tenantID, id snowflake.ID) (*bankdomain.BankTransaction, error) {
	item, err := s.repo.FindByID(ctx, tx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, bankdomain.ErrTransactionNotFound
	}
	return item, nil
}

func (s *Service) Link(ctx context.Context, id snowflake.ID, req bankdomain.LinkRequest) (*bankdomain.BankTransaction, error) {
	identity, err := tenantcontext.Require(ctx)
	if err != nil {
		return nil, err
	}
	if req.EntityID == 0 {
		return nil, bankdomain.ErrInvalidEntity
	}

	var out *bankdomain.BankTransaction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.load(ctx, tx, identity.TenantID, id)
		if err != nil {
			return err
		}
		if item.Status == bankdomain.StatusApplied {
			return bankdomain.ErrTransactionApplied
		}
		agent, err := s.orgRepo.FindAgent(ctx, tx, identity.TenantID, item.ClubID, req.EntityID)
		if err != nil {
			return err
		}
		if agent == nil {
			return bankdomain.ErrEntityNotFound
		}
		name := strings.TrimSpace(req.EntityName)
		if name == "" {
			name = agent.Name
		}
		category := strings.TrimSpace(req.Category)
		item.Status = bankdomain.StatusLinked
		item.EntityID = &req.EntityID
		item.EntityName = &name
		item.Category = &category
		item.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, tx, item); err != nil {
			return err
		}
		out = item
		return nil
	})
	return out, err
}

func (s *Service) Unlink(ctx context.Context, id snowflake.ID) (*bankdomain.BankTransaction, error) {
	identity, err := tenantcontext.Require(ctx)
	if err != nil {
		return nil, err
	}

	var out *bankdomain.BankTransaction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.load(ctx, tx, identity.TenantID, id)
		if err != nil {
			return err
		}
		if item.Status == bankdomain.StatusApplied {
			return bankdomain.ErrTransactionApplied
		}
		item.Status = bankdomain.StatusUnmatched
		item.EntityID = nil
		item.EntityName = nil
		item.Category = nil
		item.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, tx, item); err != nil {
			return err
		}
		out = item
		return nil
	})
	return out, err
}

// Ignore toggles the ignored flag without touching the link state.
func (s *Service) Ignore(ctx context.Context, id snowflake.ID, ignore bool) (*bankdomain.BankTransaction, error) {
	identity, err := tenantcontext.Require(ctx)
	if err != nil {
		return nil, err
	}

	var out *bankdomain.BankTransaction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.load(ctx, tx, identity.TenantID, id)
		if err != nil {
			return err
		}
		item.Ignored = ignore
		item.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, tx, item); err != nil {
			return err
		}
		out = item
		return nil
	})
	return out, err
}

// AutoMatch only reads. Open balances come from the latest non-void
// settlement of the week; without one, names alone drive the score.
func (s *Service) AutoMatch(ctx context.Context, clubID snowflake.ID, week calendar.Date) ([]bankdomain.Suggestion, error) {
	identity, err := tenantcontext.Require(ctx)
	if err != nil {
		return nil, err
	}
	if clubID == 0 {
		return nil, bankdomain.ErrInvalidClub
	}
	if week.IsZero() {
		return nil, bankdomain.ErrInvalidWeekStart
	}

	unmatched := bankdomain.StatusUnmatched
	txs, err := s.repo.List(ctx, s.db, identity.TenantID, bankdomain.ListFilter{
		ClubID:    &clubID,
		WeekStart: week,
		Status:    &unmatched,
	})
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return []bankdomain.Suggestion{}, nil
	}

	agents, err := s.orgRepo.ListAgents(ctx, s.db, identity.TenantID, clubID)
	if err != nil {
		return nil, err
	}
	balances, err := s.openBalances(ctx, identity.TenantID, clubID, week)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(agents))
	for _, a := range agents {
		candidates = append(candidates, Candidate{
			EntityID:    a.ID,
			Name:        a.Name,
			OpenBalance: balances[a.ID],
		})
	}
	return Suggest(txs, candidates), nil
}

func (s *Service) openBalances(ctx context.Context, tenantID, clubID snowflake.ID, week calendar.Date) (map[snowflake.ID]float64, error) {
	out := make(map[snowflake.ID]float64)
	st, err := s.settlementRepo.FindLatest(ctx, s.db, tenantID, clubID, week)
	if err != nil {
		return nil, err
	}
	if st == nil || st.Status == settlementdomain.StatusVoid {
		return out, nil
	}
	statuses, err := s.carryForward.Statuses(ctx, st.ID)
	if err != nil {
		return nil, err
	}
	for _, es := range statuses {
		out[es.EntityID] = es.OpenBalance
	}
	return out, nil
}

// ApplyLinked turns every linked, non-ignored transaction of the week into
// a ledger entry. Applied rows are skipped, so running it twice is a no-op.
func (s *Service) ApplyLinked(ctx context.Context, clubID snowflake.ID, week calendar.Date) (*bankdomain.ApplyResult, error) {
	identity, err := tenantcontext.Require(ctx)
	if err != nil {
		return nil, err
	}
	if clubID == 0 {
		return nil, bankdomain.ErrInvalidClub
	}
	if week.IsZero() {
		return nil, bankdomain.ErrInvalidWeekStart
	}

	result := &bankdomain.ApplyResult{}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items, err := s.repo.List(ctx, tx, identity.TenantID, bankdomain.ListFilter{
			ClubID:    &clubID,
			WeekStart: week,
		})
		if err != nil {
			return err
		}

		for _, item := range items {
			if item.Status == bankdomain.StatusApplied {
				result.Skipped++
				continue
			}
			if item.Status != bankdomain.StatusLinked || item.Ignored || item.EntityID == nil {
				continue
			}
			if money.IsZero(item.Amount) {
				result.Skipped++
				continue
			}
			dir := ledgerdomain.DirectionIn
			if item.Amount < 0 {
				dir = ledgerdomain.DirectionOut
			}
			txID := item.ID
			entry, err := s.ledger.CreateInTx(ctx, tx, ledgerdomain.CreateRequest{
				ClubID:            item.ClubID,
				EntityID:          *item.EntityID,
				WeekStart:         item.WeekStart,
				Direction:         dir,
				Amount:            money.Round2(math.Abs(item.Amount)),
				Method:            "ofx",
				Description:       item.Description,
				Source:            ledgerdomain.SourceOFX,
				BankTransactionID: &txID,
			})
			if err != nil {
				return fmt.Errorf("apply bank transaction %s: %w", item.ID, err)
			}
			ok, err := s.repo.MarkApplied(ctx, tx, identity.TenantID, item.ID, entry.ID)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("bank transaction %s changed while applying", item.ID)
			}
			result.Applied++
		}

		if result.Applied == 0 {
			return nil
		}
		return s.audit.AuditLog(ctx, tx, "bank_statement.apply", "club", clubID, map[string]any{
			"week_start": week.String(),
			"applied":    result.Applied,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.BankTransactionsApply.Add(float64(result.Applied))
	s.log.Info("bank transactions applied",
		zap.String("tenant_id", identity.TenantID.String()),
		zap.String("week_start", week.String()),
		zap.Int("applied", result.Applied),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}
