// Package domain models manual and bank-sourced cash movements per entity and week.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/clubsettle/internal/calendar"
)

type Direction string

const (
	DirectionIn  Direction = "IN"
	DirectionOut Direction = "OUT"
)

func (d Direction) Valid() bool { return d == DirectionIn || d == DirectionOut }

type Source string

const (
	SourceManual Source = "manual"
	SourceOFX    Source = "ofx"
)

// Entry is one cash movement. IN is money received from the entity, OUT is
// money paid to it. Amount is always positive.
type Entry struct {
	ID                snowflake.ID  `gorm:"primaryKey" json:"id"`
	TenantID          snowflake.ID  `gorm:"not null;index:ix_ledger_entries_week" json:"tenant_id"`
	ClubID            snowflake.ID  `gorm:"not null;index:ix_ledger_entries_week" json:"club_id"`
	EntityID          snowflake.ID  `gorm:"not null;index:ix_ledger_entries_week" json:"entity_id"`
	WeekStart         calendar.Date `gorm:"not null;index:ix_ledger_entries_week" json:"week_start"`
	Direction         Direction     `gorm:"column:dir;type:text;not null" json:"dir"`
	Amount            float64       `gorm:"not null" json:"amount"`
	Method            string        `gorm:"type:text" json:"method"`
	Source            Source        `gorm:"type:text;not null" json:"source"`
	BankTransactionID *snowflake.ID `gorm:"uniqueIndex" json:"bank_transaction_id,omitempty"`
	Description       string        `gorm:"type:text" json:"description"`
	IsReconciled      bool          `gorm:"not null;default:false" json:"is_reconciled"`
	CreatedBy         snowflake.ID  `json:"created_by"`
	CreatedAt         time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time     `gorm:"not null" json:"updated_at"`
}

func (Entry) TableName() string { return "ledger_entries" }
