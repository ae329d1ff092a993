package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	settlementdomain "github.com/railzwaylabs/clubsettle/internal/settlement/domain"
)

// ListSettlements handles GET /api/v1/settlements
func (s *Server) ListSettlements(c *gin.Context) {
	req := settlementdomain.ListRequest{}
	if raw := strings.TrimSpace(c.Query("week_start")); raw != "" {
		week, err := parseWeek("week_start", raw)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		req.WeekStart = &week
	}
	clubID, err := queryID(c, "club_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	req.ClubID = clubID
	if raw := strings.ToUpper(strings.TrimSpace(c.Query("status"))); raw != "" {
		status := settlementdomain.Status(raw)
		req.Status = &status
	}

	items, err := s.settlementSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, items)
}

// GetSettlement handles GET /api/v1/settlements/:id
func (s *Server) GetSettlement(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	item, err := s.settlementSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, item)
}

// GetFullSettlement handles GET /api/v1/settlements/:id/full
func (s *Server) GetFullSettlement(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	full, err := s.settlementSvc.Full(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, full)
}

// FinalizeSettlement handles POST /api/v1/settlements/:id/finalize
func (s *Server) FinalizeSettlement(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	item, err := s.settlementSvc.Finalize(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, item)
}

// VoidSettlement handles POST /api/v1/settlements/:id/void
func (s *Server) VoidSettlement(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	var req struct {
		Reason string `json:"reason" binding:"required,max=500"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}
	item, err := s.settlementSvc.Void(c.Request.Context(), id, req.Reason)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, item)
}
