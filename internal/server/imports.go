package server

import (
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	importdomain "github.com/railzwaylabs/clubsettle/internal/importer/domain"
)

type confirmImportRequest struct {
	ClubID    snowflake.ID             `json:"club_id" binding:"required"`
	WeekStart string                   `json:"week_start" binding:"required"`
	FileName  string                   `json:"file_name" binding:"max=255"`
	Mode      string                   `json:"mode" binding:"omitempty,oneof=new merge"`
	Rows      []importdomain.PlayerRow `json:"rows" binding:"required,min=1,dive"`
}

// ConfirmImport handles POST /api/v1/imports
func (s *Server) ConfirmImport(c *gin.Context) {
	var req confirmImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, bindError(err))
		return
	}
	week, err := parseWeek("week_start", req.WeekStart)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	result, err := s.importSvc.Confirm(c.Request.Context(), importdomain.ConfirmRequest{
		ClubID:    req.ClubID,
		WeekStart: week,
		FileName:  req.FileName,
		Mode:      importdomain.Mode(req.Mode),
		Rows:      req.Rows,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondCreated(c, result)
}

// DeleteImport handles DELETE /api/v1/imports/:id
func (s *Server) DeleteImport(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		AbortWithError(c, err)
		return
	}
	result, err := s.importSvc.Delete(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	respondData(c, result)
}
