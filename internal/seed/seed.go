package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"

	clientdomain "github.com/ledgerwell/praxis/internal/client/domain"
)

// EnsureDemoClients populates an empty client book with a small demo
// set, so a fresh install has something to open accounts against. An
// existing book is never touched.
func EnsureDemoClients(db *gorm.DB, log *zap.Logger) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.WithContext(ctx).Model(&clientdomain.Client{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		demo := []clientdomain.Client{
			{
				ID:            node.Generate(),
				Name:          "Demo Widgets Ltd",
				Slug:          "demo-widgets-ltd",
				Type:          clientdomain.TypeLimitedCompany,
				CompanyNumber: "01234567",
				Email:         "accounts@demo-widgets.example",
				AddressLines:  []string{"1 Example Street", "Leeds", "LS1 1AA"},
				ServiceLines:  pq.StringArray{"ACCOUNTS", "VAT"},
				YearEndDay:    31,
				YearEndMonth:  3,
				CreatedAt:     now,
				UpdatedAt:     now,
			},
			{
				ID:           node.Generate(),
				Name:         "Joan Baker",
				Slug:         "joan-baker",
				Type:         clientdomain.TypeSoleTrader,
				ServiceLines: pq.StringArray{"ACCOUNTS", "SELF_ASSESSMENT"},
				YearEndDay:   5,
				YearEndMonth: 4,
				CreatedAt:    now,
				UpdatedAt:    now,
			},
		}
		for i := range demo {
			if err := tx.WithContext(ctx).Create(&demo[i]).Error; err != nil {
				return err
			}
		}

		log.Info("seeded demo client book", zap.Int("clients", len(demo)))
		return nil
	})
}
