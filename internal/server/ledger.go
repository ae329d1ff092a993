package server

import (
	"net/http"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	ledgerdomain "github.com/railzwaylabs/clubsettle/internal/ledger/domain"
	"github.com/railzwaylabs/clubsettle/pkg/db/pagination"
)

type createLedgerEntryRequest struct {
	ClubID      snowflake.ID `json:"club_id" binding:"required"`
	EntityID    snowflake.ID `json:"entity_id" binding:"required"`
	WeekStart   string       `json:"week_start" binding:"required"`
	Direction   string       `json:"dir" binding:"required,oneof=IN OUT"`
	Amount      float64      `json:"amount" binding:"required,gt=0"`
	Method      string       `json:"method" binding:"max=64"`
	Description string       `json:"description" binding:"max=500"`
}

// ListLedgerEntries handles GET /api/v1/ledger
func (s *Server) ListLedgerEntries(c *gin.Context) {
	week, err := queryWeek(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	entityID, err := queryID(c, "entity_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	clubID, err := queryID(c, "club_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, bindError(err))
		return
	}

	resp, err := s.ledgerSvc.List(c.Request.Context(), ledgerdomain.ListRequest{
		ClubID:     clubID,
		EntityID:   entityID,
		WeekStart:  week,
		Pagination: page,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"data":      resp.Entries,
		"totals":    resp.Totals,
		"page_info": resp.PageInfo,
	})
}

// CreateLedgerEntry handles POST /api/v1/ledger
func (s *Server) CreateLedgerEntry(c *gin.Context) {
	var req createLedgerEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}
	week, err := parseWeek("week_start", req.WeekStart)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	entry, err := s.ledgerSvc.Create(c.Request.Context(), ledgerdomain.CreateRequest{
		ClubID:      req.ClubID,
		EntityID:    req.EntityID,
		WeekStart:   week,
		Direction:   ledgerdomain.Direction(req.Direction),
		Amount:      req.Amount,
		Method:      req.Method,
		Description: req.Description,
		Source:      ledgerdomain.SourceManual,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondCreated(c, entry)
}

// DeleteLedgerEntry handles DELETE /api/v1/ledger/:id
func (s *Server) DeleteLedgerEntry(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := s.ledgerSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, gin.H{"id": id})
}

// ReconcileLedgerEntry handles PATCH /api/v1/ledger/:id/reconcile
func (s *Server) ReconcileLedgerEntry(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	var req struct {
		IsReconciled *bool `json:"is_reconciled" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}
	entry, err := s.ledgerSvc.Reconcile(c.Request.Context(), id, *req.IsReconciled)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, entry)
}
