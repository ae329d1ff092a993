package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/clubsettle/internal/calendar"
	ledgerdomain "github.com/railzwaylabs/clubsettle/internal/ledger/domain"
	"github.com/railzwaylabs/clubsettle/internal/money"
	orgdomain "github.com/railzwaylabs/clubsettle/internal/organization/domain"
	"github.com/railzwaylabs/clubsettle/internal/tenantcontext"
	"github.com/railzwaylabs/clubsettle/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	settlementStatusFinal = "FINAL"
	settlementStatusVoid  = "VOID"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    ledgerdomain.Repository
	OrgRepo orgdomain.Repository
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	repo    ledgerdomain.Repository
	orgRepo orgdomain.Repository
}

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("ledger.service"),
		genID:   p.GenID,
		repo:    p.Repo,
		orgRepo: p.OrgRepo,
	}
}

func (s *Service) Create(ctx context.Context, req ledgerdomain.CreateRequest) (*ledgerdomain.Entry, error) {
	return s.CreateInTx(ctx, s.db, req)
}

func (s *Service) CreateInTx(ctx context.Context, tx *gorm.DB, req ledgerdomain.CreateRequest) (*ledgerdomain.Entry, error) {
	identity, err := tenantcontext.Require(ctx)
	if err != nil {
		return nil, err
	}
	if req.ClubID == 0 {
		return nil, ledgerdomain.ErrInvalidClub
	}
	if req.EntityID == 0 {
		return nil, ledgerdomain.ErrInvalidEntity
	}
	if req.WeekStart.IsZero() {
		return nil, ledgerdomain.ErrInvalidWeekStart
	}
	if !req.Direction.Valid() {
		return nil, ledgerdomain.ErrInvalidDirection
	}
	amount := money.Round2(req.Amount)
	if amount <= 0 {
		return nil, ledgerdomain.ErrInvalidAmount
	}
	agent, err := s.orgRepo.FindAgent(ctx, tx, identity.TenantID, req.ClubID, req.EntityID)
	if err != nil {
		return nil, err
	}
	if agent == nil {
		return nil, ledgerdomain.ErrEntityNotFound
	}

	source := req.Source
	if source == "" {
		source = ledgerdomain.SourceManual
	}

	now := time.Now().UTC()
	entry := &ledgerdomain.Entry{
		ID:                s.genID.Generate(),
		TenantID:          identity.TenantID,
		ClubID:            req.ClubID,
		EntityID:          req.EntityID,
		WeekStart:         req.WeekStart,
		Direction:         req.Direction,
		Amount:            amount,
		Method:            strings.TrimSpace(req.Method),
		Source:            source,
		BankTransactionID: req.BankTransactionID,
		Description:       strings.TrimSpace(req.Description),
		CreatedBy:         identity.UserID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.Insert(ctx, tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) List(ctx context.Context, req ledgerdomain.ListRequest) (ledgerdomain.ListResponse, error) {
	identity, err := tenantcontext.Require(ctx)
	if err != nil {
		return ledgerdomain.ListResponse{}, err
	}
	if req.WeekStart.IsZero() {
		return ledgerdomain.ListResponse{}, ledgerdomain.ErrInvalidWeekStart
	}

	page := req.Pagination.Normalize()
	cursor, err := pagination.DecodeCursor(page.PageToken)
	if err != nil {
		return ledgerdomain.ListResponse{}, err
	}
	filter := ledgerdomain.ListFilter{
		ClubID:    req.ClubID,
		EntityID:  req.EntityID,
		WeekStart: req.WeekStart,
	}
	if cursor != nil {
		filter.AfterID = cursor.ID
	}

	items, err := s.repo.List(ctx, s.db, identity.TenantID, filter, page)
	if err != nil {
		return ledgerdomain.ListResponse{}, err
	}
	counted, err := s.repo.ListCounted(ctx, s.db, identity.TenantID, ledgerdomain.ListFilter{
		ClubID:    req.ClubID,
		EntityID:  req.EntityID,
		WeekStart: req.WeekStart,
	})
	if err != nil {
		return ledgerdomain.ListResponse{}, err
	}
	pageInfo, items := pagination.BuildCursorPageInfo(items, page.PageSize, func(e ledgerdomain.Entry) int64 {
		return e.ID.Int64()
	})

	return ledgerdomain.ListResponse{
		Entries:  items,
		Totals:   ledgerdomain.Net(counted),
		PageInfo: pageInfo,
	}, nil
}

// Delete removes an entry while its week is still open. An entry created
// from a bank transaction hands the transaction back to the linked state.
func (s *Service) Delete(ctx context.Context, id snowflake.ID) error {
	identity, err := tenantcontext.Require(ctx)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := s.repo.FindByID(ctx, tx, identity.TenantID, id)
		if err != nil {
			return err
		}
		if entry == nil {
			return ledgerdomain.ErrEntryNotFound
		}

		status, err := s.repo.WeekSettlementStatus(ctx, tx, identity.TenantID, entry.ClubID, entry.WeekStart)
		if err != nil {
			return err
		}
		if status == settlementStatusFinal || status == settlementStatusVoid {
			return ledgerdomain.ErrSettlementLocked
		}

		if _, err := s.repo.Delete(ctx, tx, identity.TenantID, id); err != nil {
			return err
		}
		if entry.BankTransactionID != nil {
			if err := s.repo.ReleaseBankTransaction(ctx, tx, identity.TenantID, *entry.BankTransactionID); err != nil {
				return err
			}
		}

		s.log.Info("ledger entry deleted",
			zap.String("tenant_id", identity.TenantID.String()),
			zap.String("entry_id", id.String()),
			zap.String("week_start", entry.WeekStart.String()),
		)
		return nil
	})
}

func (s *Service) Reconcile(ctx context.Context, id snowflake.ID, reconciled bool) (*ledgerdomain.Entry, error) {
	identity, err := tenantcontext.Require(ctx)
	if err != nil {
		return nil, err
	}
	affected, err := s.repo.SetReconciled(ctx, s.db, identity.TenantID, id, reconciled)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ledgerdomain.ErrEntryNotFound
	}
	return s.repo.FindByID(ctx, s.db, identity.TenantID, id)
}

func (s *Service) WeekNets(ctx context.Context, tx *gorm.DB, tenantID, clubID snowflake.ID, week calendar.Date) (map[snowflake.ID]ledgerdomain.NetResult, error) {
	if tx == nil {
		tx = s.db
	}
	entries, err := s.repo.ListForWeek(ctx, tx, tenantID, clubID, week)
	if err != nil {
		return nil, err
	}

	byEntity := make(map[snowflake.ID][]ledgerdomain.Entry)
	for _, e := range entries {
		byEntity[e.EntityID] = append(byEntity[e.EntityID], e)
	}
	out := make(map[snowflake.ID]ledgerdomain.NetResult, len(byEntity))
	for entityID, items := range byEntity {
		out[entityID] = ledgerdomain.Net(items)
	}
	return out, nil
}
