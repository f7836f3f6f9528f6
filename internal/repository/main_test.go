package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"buyerleads/internal/database"
	"buyerleads/internal/domain/buyer"
)

// newTestDB returns a migrated private in-memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	db.Logger = logger.Default.LogMode(logger.Silent)
	require.NoError(t, database.Migrate(context.Background(), db, nil))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func ptr[T any](v T) *T { return &v }

func newBuyer(owner, name string) *buyer.Buyer {
	return &buyer.Buyer{
		OwnerID:      owner,
		FullName:     name,
		Phone:        "9876543210",
		City:         buyer.CityChandigarh,
		PropertyType: buyer.PropertyPlot,
		Purpose:      buyer.PurposeBuy,
		Timeline:     buyer.TimelineExploring,
		Source:       buyer.SourceWebsite,
		Status:       buyer.StatusNew,
	}
}

func mustCreate(t *testing.T, repo *BuyerRepository, b *buyer.Buyer) *buyer.Buyer {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), b))
	return b
}
