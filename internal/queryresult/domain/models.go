package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// QueryResult stores the payload returned for a billed enrichment call so
// the caller can re-read what they paid for without spending again.
type QueryResult struct {
	ID           snowflake.ID   `gorm:"primaryKey" json:"id"`
	AccountID    snowflake.ID   `gorm:"not null;index" json:"account_id"`
	Kind         string         `gorm:"not null" json:"kind"`
	Label        string         `gorm:"not null;default:''" json:"label"`
	Query        datatypes.JSON `gorm:"type:jsonb" json:"query"`
	Rows         datatypes.JSON `gorm:"column:payload;type:jsonb" json:"rows"`
	RowCount     int            `gorm:"not null;default:0" json:"row_count"`
	CreditsSpent int64          `gorm:"not null;default:0" json:"credits_spent"`
	CreatedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (QueryResult) TableName() string { return "query_results" }

// Summary is a listing row without the stored payload.
type Summary struct {
	ID           snowflake.ID `json:"id"`
	Kind         string       `json:"kind"`
	Label        string       `json:"label"`
	RowCount     int          `json:"row_count"`
	CreditsSpent int64        `json:"credits_spent"`
	CreatedAt    time.Time    `json:"created_at"`
}
