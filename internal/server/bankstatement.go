package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	bankdomain "github.com/railzwaylabs/clubsettle/internal/bankstatement/domain"
)

const maxOFXUploadBytes = 10 << 20

type weekRequest struct {
	ClubID    snowflake.ID `json:"club_id" binding:"required"`
	WeekStart string       `json:"week_start" binding:"required"`
}

type linkRequest struct {
	EntityID   snowflake.ID `json:"entity_id" binding:"required"`
	EntityName string       `json:"entity_name" binding:"max=200"`
	Category   string       `json:"category" binding:"max=64"`
}

// UploadOFX handles POST /api/v1/ofx/upload
func (s *Server) UploadOFX(c *gin.Context) {
	clubID, err := snowflake.ParseString(strings.TrimSpace(c.PostForm("club_id")))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest.WithField("club_id", "must be a numeric id"))
		return
	}
	week, err := parseWeek("week_start", c.PostForm("week_start"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, ErrInvalidRequest.WithField("file", "required"))
		return
	}
	if header.Size > maxOFXUploadBytes {
		AbortWithError(c, ErrInvalidRequest.WithField("file", "too large"))
		return
	}
	file, err := header.Open()
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer file.Close()

	result, err := s.bankSvc.Upload(c.Request.Context(), bankdomain.UploadRequest{
		ClubID:    clubID,
		WeekStart: week,
		Body:      file,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondCreated(c, result)
}

// ListBankTransactions handles GET /api/v1/ofx
func (s *Server) ListBankTransactions(c *gin.Context) {
	week, err := queryWeek(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	clubID, err := queryID(c, "club_id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	req := bankdomain.ListRequest{ClubID: clubID, WeekStart: week}
	if raw := strings.ToLower(strings.TrimSpace(c.Query("status"))); raw != "" {
		status := bankdomain.Status(raw)
		req.Status = &status
	}

	items, err := s.bankSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, items)
}

// LinkBankTransaction handles PATCH /api/v1/ofx/:id/link
func (s *Server) LinkBankTransaction(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	var req linkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}
	item, err := s.bankSvc.Link(c.Request.Context(), id, bankdomain.LinkRequest{
		EntityID:   req.EntityID,
		EntityName: req.EntityName,
		Category:   req.Category,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, item)
}

// UnlinkBankTransaction handles PATCH /api/v1/ofx/:id/unlink
func (s *Server) UnlinkBankTransaction(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	item, err := s.bankSvc.Unlink(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, item)
}

// IgnoreBankTransaction handles PATCH /api/v1/ofx/:id/ignore
func (s *Server) IgnoreBankTransaction(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	var req struct {
		Ignore *bool `json:"ignore" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}
	item, err := s.bankSvc.Ignore(c.Request.Context(), id, *req.Ignore)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, item)
}

// AutoMatch handles POST /api/v1/ofx/auto-match. Nothing is persisted.
func (s *Server) AutoMatch(c *gin.Context) {
	var req weekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}
	week, err := parseWeek("week_start", req.WeekStart)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	suggestions, err := s.bankSvc.AutoMatch(c.Request.Context(), req.ClubID, week)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, suggestions)
}

// ApplyLinked handles POST /api/v1/ofx/apply
func (s *Server) ApplyLinked(c *gin.Context) {
	var req weekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}
	week, err := parseWeek("week_start", req.WeekStart)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	result, err := s.bankSvc.ApplyLinked(c.Request.Context(), req.ClubID, week)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, result)
}
