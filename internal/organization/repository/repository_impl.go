package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	orgdomain "github.com/railzwaylabs/clubsettle/internal/organization/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() orgdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, org *orgdomain.Organization) error {
	return db.WithContext(ctx).Create(org).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*orgdomain.Organization, error) {
	var org orgdomain.Organization
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Limit(1).
		Find(&org).Error
	if err != nil {
		return nil, err
	}
	if org.ID == 0 {
		return nil, nil
	}
	return &org, nil
}

func (r *repo) FindChildByName(ctx context.Context, db *gorm.DB, tenantID, parentID snowflake.ID, typ orgdomain.Type, name string) (*orgdomain.Organization, error) {
	var org orgdomain.Organization
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND parent_id = ? AND type = ? AND LOWER(name) = ?", tenantID, parentID, typ, strings.ToLower(strings.TrimSpace(name))).
		Limit(1).
		Find(&org).Error
	if err != nil {
		return nil, err
	}
	if org.ID == 0 {
		return nil, nil
	}
	return &org, nil
}

func (r *repo) FindAgent(ctx context.Context, db *gorm.DB, tenantID, clubID, agentID snowflake.ID) (*orgdomain.AgentRow, error) {
	var row orgdomain.AgentRow
	err := db.WithContext(ctx).Raw(
		`SELECT a.id, a.name, a.is_direct, s.id AS subclub_id, s.name AS subclub_name
		 FROM organizations a
		 JOIN organizations s ON s.id = a.parent_id AND s.tenant_id = a.tenant_id
		 WHERE a.tenant_id = ? AND a.id = ? AND a.type = ? AND s.type = ? AND s.parent_id = ?
		 LIMIT 1`,
		tenantID,
		agentID,
		orgdomain.TypeAgent,
		orgdomain.TypeSubclub,
		clubID,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *repo) FindAgentByName(ctx context.Context, db *gorm.DB, tenantID, clubID snowflake.ID, name string) (*orgdomain.AgentRow, error) {
	var row orgdomain.AgentRow
	err := db.WithContext(ctx).Raw(
		`SELECT a.id, a.name, a.is_direct, s.id AS subclub_id, s.name AS subclub_name
		 FROM organizations a
		 JOIN organizations s ON s.id = a.parent_id AND s.tenant_id = a.tenant_id
		 WHERE a.tenant_id = ? AND a.type = ? AND s.type = ? AND s.parent_id = ?
		   AND LOWER(a.name) = ?
		 LIMIT 1`,
		tenantID,
		orgdomain.TypeAgent,
		orgdomain.TypeSubclub,
		clubID,
		strings.ToLower(strings.TrimSpace(name)),
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *repo) ListAgents(ctx context.Context, db *gorm.DB, tenantID, clubID snowflake.ID) ([]orgdomain.AgentRow, error) {
	var rows []orgdomain.AgentRow
	err := db.WithContext(ctx).Raw(
		`SELECT a.id, a.name, a.is_direct, s.id AS subclub_id, s.name AS subclub_name
		 FROM organizations a
		 JOIN organizations s ON s.id = a.parent_id AND s.tenant_id = a.tenant_id
		 WHERE a.tenant_id = ? AND a.type = ? AND s.type = ? AND s.parent_id = ?
		 ORDER BY s.name ASC, a.name ASC`,
		tenantID,
		orgdomain.TypeAgent,
		orgdomain.TypeSubclub,
		clubID,
	).Scan(&rows).Error
	return rows, err
}

func (r *repo) InsertPlayer(ctx context.Context, db *gorm.DB, p *orgdomain.Player) error {
	return db.WithContext(ctx).Create(p).Error
}

func (r *repo) FindPlayerByExternalID(ctx context.Context, db *gorm.DB, tenantID, clubID snowflake.ID, externalID string) (*orgdomain.Player, error) {
	var p orgdomain.Player
	err := db.WithContext(ctx).
		Where("tenant_id = ? AND club_id = ? AND external_id = ?", tenantID, clubID, strings.TrimSpace(externalID)).
		Limit(1).
		Find(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}
