package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Eligibility restricts who may buy a package based on partner CRM
// affiliation recorded on the account.
type Eligibility string

const (
	EligibilityUnrestricted        Eligibility = "unrestricted"
	EligibilityRequiresAffiliation Eligibility = "requires_partner_affiliation"
	EligibilityExcludesAffiliation Eligibility = "excludes_partner_affiliation"
)

type CreditPackage struct {
	ID                     snowflake.ID `gorm:"primaryKey" json:"id"`
	Name                   string       `gorm:"not null" json:"name"`
	PricePerCreditUSDCents int64        `gorm:"not null" json:"price_per_credit_usd_cents"`
	MinCreditsToPurchase   int64        `gorm:"not null;default:1" json:"min_credits_to_purchase"`
	Eligibility            Eligibility  `gorm:"not null;default:unrestricted" json:"eligibility"`
	Active                 bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt              time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt              time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (CreditPackage) TableName() string { return "credit_packages" }

// AvailableTo reports whether the package's eligibility rule admits the
// given affiliation state.
func (p CreditPackage) AvailableTo(isPartnerCRMUser bool) bool {
	switch p.Eligibility {
	case EligibilityRequiresAffiliation:
		return isPartnerCRMUser
	case EligibilityExcludesAffiliation:
		return !isPartnerCRMUser
	default:
		return true
	}
}
