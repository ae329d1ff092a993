package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/railzwaylabs/clubsettle/internal/calendar"
	ratedomain "github.com/railzwaylabs/clubsettle/internal/rate/domain"
)

type setRateRequest struct {
	Rate          *float64 `json:"rate" binding:"required,gte=0,lte=100"`
	EffectiveFrom string   `json:"effective_from" binding:"required"`
}

func rateEntityType(c *gin.Context) (ratedomain.EntityType, error) {
	typ := ratedomain.EntityType(strings.ToLower(strings.TrimSpace(c.Param("entity_type"))))
	if !typ.Valid() {
		return "", ratedomain.ErrInvalidEntityType
	}
	return typ, nil
}

// SetRate handles PUT /api/v1/rates/:entity_type/:entity_id
func (s *Server) SetRate(c *gin.Context) {
	typ, err := rateEntityType(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	entityID, err := pathID(c, "entity_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	var req setRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}
	from, err := parseWeek("effective_from", req.EffectiveFrom)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	rate, err := s.rateSvc.SetRate(c.Request.Context(), ratedomain.SetRateRequest{
		EntityType:    typ,
		EntityID:      entityID,
		Rate:          *req.Rate,
		EffectiveFrom: from,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, rate)
}

// GetRate handles GET /api/v1/rates/:entity_type/:entity_id. Without ?at it
// returns the full version history.
func (s *Server) GetRate(c *gin.Context) {
	typ, err := rateEntityType(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	entityID, err := pathID(c, "entity_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if raw := strings.TrimSpace(c.Query("at")); raw != "" {
		at, err := calendar.Parse(raw)
		if err != nil {
			AbortWithError(c, ErrInvalidRequest.WithField("at", "must be YYYY-MM-DD"))
			return
		}
		rate, err := s.rateSvc.GetRateAt(c.Request.Context(), typ, entityID, at)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		respondData(c, rate)
		return
	}

	history, err := s.rateSvc.History(c.Request.Context(), typ, entityID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, history)
}
