package buyer

import (
	"context"
)

// BuyerRepository persists buyers. Every method that takes an ownerID
// scopes its work to that owner.
type BuyerRepository interface {
	// Create assigns ID, version and timestamps to b and inserts it.
	Create(ctx context.Context, b *Buyer) error
	// FindByID returns nil, nil when the buyer is missing or owned by someone else.
	FindByID(ctx context.Context, id, ownerID string) (*Buyer, error)
	FindMany(ctx context.Context, spec FilterSpec) (*Page, error)
	// Update merges in into the stored row if its version still equals
	// expectedVersion. An owner mismatch is ErrUnauthorized.
	Update(ctx context.Context, id, ownerID string, in *UpdateInput, expectedVersion int64) (*Buyer, error)
	Delete(ctx context.Context, id, ownerID string) error
	GetStats(ctx context.Context, ownerID string) (*Stats, error)
}

// HistoryRepository is append-only.
type HistoryRepository interface {
	Append(ctx context.Context, e *HistoryEntry) error
	// ListForBuyer returns newest first, or an empty slice when the buyer is
	// not visible to ownerID.
	ListForBuyer(ctx context.Context, buyerID, ownerID string) ([]HistoryEntry, error)
	ListByActor(ctx context.Context, changedBy string, limit int) ([]HistoryEntry, error)
}

// Store groups the repositories so they can share a transaction.
type Store interface {
	Buyers() BuyerRepository
	History() HistoryRepository
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

// EventPublisher receives history entries after their transaction commits.
type EventPublisher interface {
	Publish(ownerID string, e HistoryEntry)
}

type noopPublisher struct{}

func (noopPublisher) Publish(string, HistoryEntry) {}
