package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"buyerleads/internal/domain/buyer"
)

// HistoryRepository stores buyer audit entries. Rows are never updated and
// outlive the buyer they describe.
type HistoryRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

type historyModel struct {
	ID        string         `gorm:"column:id;primaryKey"`
	BuyerID   string         `gorm:"column:buyer_id"`
	ChangedBy string         `gorm:"column:changed_by"`
	Action    string         `gorm:"column:action"`
	Diff      datatypes.JSON `gorm:"column:diff"`
	CreatedAt time.Time      `gorm:"column:created_at"`
}

func (historyModel) TableName() string { return "buyer_history" }

func toDomainHistory(m historyModel) (buyer.HistoryEntry, error) {
	e := buyer.HistoryEntry{
		ID:        m.ID,
		BuyerID:   m.BuyerID,
		ChangedBy: m.ChangedBy,
		Action:    buyer.Action(m.Action),
		Diff:      buyer.Changes{},
		CreatedAt: m.CreatedAt.UTC(),
	}
	if len(m.Diff) > 0 {
		if err := json.Unmarshal(m.Diff, &e.Diff); err != nil {
			return e, fmt.Errorf("decode diff of %s: %w", m.ID, err)
		}
	}
	return e, nil
}

// Append assigns a time-ordered ID and timestamp to e and inserts it.
func (r *HistoryRepository) Append(ctx context.Context, e *buyer.HistoryEntry) error {
	if e.Diff == nil {
		e.Diff = buyer.Changes{}
	}
	diff, err := json.Marshal(e.Diff)
	if err != nil {
		return fmt.Errorf("encode diff: %w", err)
	}

	e.ID = ulid.Make().String()
	e.CreatedAt = r.db.NowFunc()

	m := historyModel{
		ID:        e.ID,
		BuyerID:   e.BuyerID,
		ChangedBy: e.ChangedBy,
		Action:    string(e.Action),
		Diff:      datatypes.JSON(diff),
		CreatedAt: e.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

// ListForBuyer re-checks ownership so one tenant can never read another's
// trail. A buyer that is missing or not owned yields an empty slice.
func (r *HistoryRepository) ListForBuyer(ctx context.Context, buyerID, ownerID string) ([]buyer.HistoryEntry, error) {
	var owned int64
	err := r.db.WithContext(ctx).
		Model(&buyerModel{}).
		Where("id = ? AND owner_id = ?", buyerID, ownerID).
		Count(&owned).Error
	if err != nil {
		return nil, fmt.Errorf("check buyer owner: %w", err)
	}
	if owned == 0 {
		return []buyer.HistoryEntry{}, nil
	}

	return r.list(r.db.WithContext(ctx).Where("buyer_id = ?", buyerID))
}

// ListByActor returns the newest entries written by changedBy.
func (r *HistoryRepository) ListByActor(ctx context.Context, changedBy string, limit int) ([]buyer.HistoryEntry, error) {
	return r.list(r.db.WithContext(ctx).Where("changed_by = ?", changedBy).Limit(limit))
}

func (r *HistoryRepository) list(q *gorm.DB) ([]buyer.HistoryEntry, error) {
	var rows []historyModel
	if err := q.Order("created_at DESC").Order("id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	out := make([]buyer.HistoryEntry, 0, len(rows))
	for _, m := range rows {
		e, err := toDomainHistory(m)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}
