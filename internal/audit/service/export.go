package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"time"

	auditdomain "github.com/railzwaylabs/clubsettle/internal/audit/domain"
	"github.com/railzwaylabs/clubsettle/internal/tenantcontext"
	"gorm.io/gorm"
)

type ExportService struct {
	db   *gorm.DB
	repo auditdomain.Repository
}

func NewExportService(db *gorm.DB, repo auditdomain.Repository) auditdomain.ExportService {
	return &ExportService{db: db, repo: repo}
}

func (s *ExportService) Export(ctx context.Context, req auditdomain.ExportRequest) (*auditdomain.ExportResult, error) {
	identity, err := tenantcontext.Require(ctx)
	if err != nil {
		return nil, err
	}
	if req.StartDate.IsZero() || !req.EndDate.After(req.StartDate) {
		return nil, auditdomain.ErrInvalidRange
	}

	logs, err := s.repo.ListRange(ctx, s.db, identity.TenantID, req.StartDate, req.EndDate, req.Actions)
	if err != nil {
		return nil, err
	}

	var data []byte
	switch req.Format {
	case auditdomain.ExportFormatCSV:
		data, err = formatCSV(logs)
	case auditdomain.ExportFormatJSON, "":
		req.Format = auditdomain.ExportFormatJSON
		data, err = formatJSON(logs)
	default:
		return nil, auditdomain.ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	return &auditdomain.ExportResult{
		Data:     data,
		Checksum: calculateChecksum(data),
		Format:   req.Format,
		Count:    len(logs),
	}, nil
}

func formatCSV(logs []auditdomain.AuditLog) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{"timestamp", "actor_id", "actor_role", "action", "target_type", "target_id", "metadata"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, log := range logs {
		metadataJSON, _ := json.Marshal(log.Metadata)
		row := []string{
			log.CreatedAt.Format(time.RFC3339),
			log.ActorID.String(),
			log.ActorRole,
			log.Action,
			log.TargetType,
			log.TargetID.String(),
			string(metadataJSON),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatJSON(logs []auditdomain.AuditLog) ([]byte, error) {
	type exportRecord struct {
		Timestamp  string         `json:"timestamp"`
		ActorID    string         `json:"actor_id"`
		ActorRole  string         `json:"actor_role,omitempty"`
		Action     string         `json:"action"`
		TargetType string         `json:"target_type"`
		TargetID   string         `json:"target_id"`
		Metadata   map[string]any `json:"metadata,omitempty"`
	}

	records := make([]exportRecord, 0, len(logs))
	for _, log := range logs {
		records = append(records, exportRecord{
			Timestamp:  log.CreatedAt.Format(time.RFC3339),
			ActorID:    log.ActorID.String(),
			ActorRole:  log.ActorRole,
			Action:     log.Action,
			TargetType: log.TargetType,
			TargetID:   log.TargetID.String(),
			Metadata:   log.Metadata,
		})
	}
	return json.MarshalIndent(records, "", "  ")
}

func calculateChecksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
