package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/railzwaylabs/clubsettle/internal/audit/domain"
)

const maxAuditExportRange = 90 * 24 * time.Hour

// ExportAuditLogs handles GET /api/v1/audit/export
func (s *Server) ExportAuditLogs(c *gin.Context) {
	startDateStr := strings.TrimSpace(c.Query("start_date"))
	endDateStr := strings.TrimSpace(c.Query("end_date"))
	formatStr := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "csv")))
	actionsStr := strings.TrimSpace(c.Query("actions"))

	startDate, err := time.Parse("2006-01-02", startDateStr)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest.WithField("start_date", "must be YYYY-MM-DD"))
		return
	}
	endDate, err := time.Parse("2006-01-02", endDateStr)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest.WithField("end_date", "must be YYYY-MM-DD"))
		return
	}

	// end date is inclusive
	endDate = endDate.Add(24 * time.Hour)
	if endDate.Sub(startDate) > maxAuditExportRange {
		AbortWithError(c, ErrInvalidRequest.WithField("end_date", "range exceeds 90 days"))
		return
	}

	var actions []string
	if actionsStr != "" {
		for _, a := range strings.Split(actionsStr, ",") {
			if a = strings.TrimSpace(a); a != "" {
				actions = append(actions, a)
			}
		}
	}

	result, err := s.auditExportSvc.Export(c.Request.Context(), auditdomain.ExportRequest{
		StartDate: startDate,
		EndDate:   endDate,
		Format:    auditdomain.ExportFormat(formatStr),
		Actions:   actions,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("X-Audit-Export-Checksum", result.Checksum)
	c.Header("X-Audit-Export-Count", strconv.Itoa(result.Count))

	contentType := "application/json"
	if result.Format == auditdomain.ExportFormatCSV {
		contentType = "text/csv"
	}
	filename := "audit_export_" + startDateStr + "_" + endDateStr + "." + string(result.Format)
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Data(http.StatusOK, contentType, result.Data)
}
