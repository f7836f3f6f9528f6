package repository

import (
	"context"

	"gorm.io/gorm"

	"buyerleads/internal/domain/buyer"
)

// Store hands out repositories bound to one connection or transaction.
type Store struct {
	db   *gorm.DB
	inTx bool
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Buyers() buyer.BuyerRepository {
	return &BuyerRepository{db: s.db, concurrent: !s.inTx}
}

func (s *Store) History() buyer.HistoryRepository {
	return &HistoryRepository{db: s.db}
}

// WithinTx runs fn in a transaction. Nested calls join the outer one.
func (s *Store) WithinTx(ctx context.Context, fn func(tx buyer.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, inTx: true})
	})
}
