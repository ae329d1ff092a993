package server

import (
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	carryforwarddomain "github.com/railzwaylabs/clubsettle/internal/carryforward/domain"
)

// GetCarryForward handles GET /api/v1/carry-forward
func (s *Server) GetCarryForward(c *gin.Context) {
	week, err := queryWeek(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	clubID, err := requiredQueryID(c, "club_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	entityID, err := queryID(c, "entity_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.carryForwardSvc.Get(c.Request.Context(), carryforwarddomain.GetRequest{
		ClubID:    clubID,
		WeekStart: week,
		EntityID:  entityID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, resp)
}

// CloseWeek handles POST /api/v1/carry-forward/close-week
func (s *Server) CloseWeek(c *gin.Context) {
	var req struct {
		SettlementID snowflake.ID `json:"settlement_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}
	result, err := s.carryForwardSvc.ComputeAndPersist(c.Request.Context(), req.SettlementID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, result)
}

// CarryForwardStatus handles GET /api/v1/carry-forward/status
func (s *Server) CarryForwardStatus(c *gin.Context) {
	settlementID, err := requiredQueryID(c, "settlement_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	statuses, err := s.carryForwardSvc.Statuses(c.Request.Context(), settlementID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, statuses)
}
