package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	creditpackagedomain "github.com/skipscan/skipscan/internal/creditpackage/domain"
	creditpackagerepo "github.com/skipscan/skipscan/internal/creditpackage/repository"
	"gorm.io/gorm"
)

// EnsureDefaultCreditPackages seeds the package catalog on first startup.
// Packages are catalog-only; there is no admin CRUD for them.
func EnsureDefaultCreditPackages(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	repo := creditpackagerepo.Provide()

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		count, err := repo.CountAll(ctx, tx)
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		defaults := []creditpackagedomain.CreditPackage{
			{
				Name:                   "Starter",
				PricePerCreditUSDCents: 250,
				MinCreditsToPurchase:   10,
				Eligibility:            creditpackagedomain.EligibilityExcludesAffiliation,
			},
			{
				Name:                   "Professional",
				PricePerCreditUSDCents: 200,
				MinCreditsToPurchase:   25,
				Eligibility:            creditpackagedomain.EligibilityUnrestricted,
			},
			{
				Name:                   "Partner Bulk",
				PricePerCreditUSDCents: 150,
				MinCreditsToPurchase:   100,
				Eligibility:            creditpackagedomain.EligibilityRequiresAffiliation,
			},
		}

		for _, pkg := range defaults {
			pkg.ID = node.Generate()
			pkg.Active = true
			pkg.CreatedAt = now
			pkg.UpdatedAt = now
			if err := repo.Insert(ctx, tx, &pkg); err != nil {
				return err
			}
		}

		return nil
	})
}
