// Package domain models bank statement lines imported from OFX files and
// their reconciliation against ledger entities.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/clubsettle/internal/calendar"
)

type Status string

const (
	StatusUnmatched Status = "unmatched"
	StatusLinked    Status = "linked"
	StatusApplied   Status = "applied"
)

func (s Status) Valid() bool {
	switch s {
	case StatusUnmatched, StatusLinked, StatusApplied:
		return true
	}
	return false
}

// BankTransaction is one statement line. Amount is signed: positive is money
// received by the club.
type BankTransaction struct {
	ID            snowflake.ID  `gorm:"primaryKey" json:"id"`
	TenantID      snowflake.ID  `gorm:"not null;uniqueIndex:ux_bank_transactions_fit" json:"tenant_id"`
	ClubID        snowflake.ID  `gorm:"not null;index:ix_bank_transactions_week" json:"club_id"`
	WeekStart     calendar.Date `gorm:"not null;index:ix_bank_transactions_week" json:"week_start"`
	BatchID       string        `gorm:"type:text;not null;index" json:"batch_id"`
	FitID         string        `gorm:"type:text;not null;uniqueIndex:ux_bank_transactions_fit" json:"fit_id"`
	Amount        float64       `gorm:"not null" json:"amount"`
	PostedAt      time.Time     `gorm:"not null" json:"posted_at"`
	Description   string        `gorm:"type:text" json:"description"`
	Status        Status        `gorm:"type:text;not null;index" json:"status"`
	Ignored       bool          `gorm:"not null;default:false" json:"ignored"`
	EntityID      *snowflake.ID `json:"entity_id,omitempty"`
	EntityName    *string       `gorm:"type:text" json:"entity_name,omitempty"`
	Category      *string       `gorm:"type:text" json:"category,omitempty"`
	LedgerEntryID *snowflake.ID `json:"ledger_entry_id,omitempty"`
	AppliedAt     *time.Time    `json:"applied_at,omitempty"`
	CreatedAt     time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"not null" json:"updated_at"`
}

func (BankTransaction) TableName() string { return "bank_transactions" }

// Suggestion is an auto-match proposal. Nothing is written until an
// operator links the transaction.
type Suggestion struct {
	TransactionID snowflake.ID `json:"transaction_id"`
	EntityID      snowflake.ID `json:"entity_id"`
	EntityName    string       `json:"entity_name"`
	Confidence    float64      `json:"confidence"`
}

type UploadResult struct {
	BatchID    string `json:"batch_id"`
	Imported   int    `json:"imported"`
	Duplicates int    `json:"duplicates"`
}

type ApplyResult struct {
	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
}
