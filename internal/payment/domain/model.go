package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	SourceWebhook = "webhook"
	SourceVerify  = "verify"
	SourceSandbox = "sandbox"
)

// ProcessedPayment marks a checkout session whose credits have been
// applied. The unique session ID makes the grant exactly-once across the
// push path, the pull path, and redeliveries.
type ProcessedPayment struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	SessionID   string       `gorm:"not null;uniqueIndex" json:"session_id"`
	AccountID   snowflake.ID `gorm:"not null;index" json:"account_id"`
	PackageID   snowflake.ID `gorm:"not null" json:"package_id"`
	Quantity    int64        `gorm:"not null" json:"quantity"`
	AmountCents int64        `gorm:"not null" json:"amount_cents"`
	Source      string       `gorm:"not null" json:"source"`
	ReceivedAt  time.Time    `gorm:"not null" json:"received_at"`
	ProcessedAt time.Time    `gorm:"not null" json:"processed_at"`
}

// TableName sets the database table name.
func (ProcessedPayment) TableName() string { return "processed_payments" }
