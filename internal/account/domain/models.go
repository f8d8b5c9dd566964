package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Account is the billable identity. Credits is the prepaid balance and is
// only ever mutated through the repository's conditional updates.
type Account struct {
	ID                snowflake.ID `gorm:"primaryKey" json:"id"`
	Email             string       `gorm:"not null;uniqueIndex" json:"email"`
	DisplayName       string       `gorm:"type:text" json:"display_name,omitempty"`
	Credits           int64        `gorm:"not null;default:0" json:"credits"`
	IsPartnerCRMUser  bool         `gorm:"not null;default:false" json:"is_partner_crm_user"`
	PartnerLocationID string       `gorm:"type:text" json:"partner_location_id,omitempty"`
	CreatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Account) TableName() string { return "accounts" }
