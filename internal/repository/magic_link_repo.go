package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"buyerleads/internal/domain/auth"
)

type MagicLinkRepository struct {
	db *gorm.DB
}

func NewMagicLinkRepository(db *gorm.DB) *MagicLinkRepository {
	return &MagicLinkRepository{db: db}
}

type magicLinkModel struct {
	ID        string     `gorm:"column:id;primaryKey"`
	Email     string     `gorm:"column:email"`
	TokenHash string     `gorm:"column:token_hash"`
	ExpiresAt time.Time  `gorm:"column:expires_at"`
	UsedAt    *time.Time `gorm:"column:used_at"`
	CreatedAt time.Time  `gorm:"column:created_at"`
}

func (magicLinkModel) TableName() string { return "magic_links" }

func toDomainMagicLink(m magicLinkModel) *auth.MagicLink {
	l := &auth.MagicLink{
		ID:        m.ID,
		Email:     m.Email,
		TokenHash: m.TokenHash,
		ExpiresAt: m.ExpiresAt.UTC(),
		CreatedAt: m.CreatedAt.UTC(),
	}
	if m.UsedAt != nil {
		t := m.UsedAt.UTC()
		l.UsedAt = &t
	}
	return l
}

func (r *MagicLinkRepository) Create(ctx context.Context, l *auth.MagicLink) error {
	m := magicLinkModel{
		ID:        l.ID,
		Email:     l.Email,
		TokenHash: l.TokenHash,
		ExpiresAt: l.ExpiresAt.UTC().Truncate(time.Microsecond),
		CreatedAt: l.CreatedAt.UTC().Truncate(time.Microsecond),
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("create magic link: %w", err)
	}
	return nil
}

func (r *MagicLinkRepository) LatestForEmail(ctx context.Context, email string) (*auth.MagicLink, error) {
	return r.first(r.db.WithContext(ctx).Where("email = ?", email).Order("created_at DESC"))
}

func (r *MagicLinkRepository) GetByTokenHash(ctx context.Context, hash string) (*auth.MagicLink, error) {
	return r.first(r.db.WithContext(ctx).Where("token_hash = ?", hash))
}

func (r *MagicLinkRepository) first(q *gorm.DB) (*auth.MagicLink, error) {
	var m magicLinkModel
	err := q.First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get magic link: %w", err)
	}
	return toDomainMagicLink(m), nil
}

// MarkUsed is a conditional update so two concurrent verifications of the
// same token cannot both succeed.
func (r *MagicLinkRepository) MarkUsed(ctx context.Context, id string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&magicLinkModel{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", at.UTC().Truncate(time.Microsecond))
	if res.Error != nil {
		return false, fmt.Errorf("mark magic link used: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *MagicLinkRepository) DeleteStale(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ? OR used_at IS NOT NULL", now.UTC()).
		Delete(&magicLinkModel{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete stale magic links: %w", res.Error)
	}
	return res.RowsAffected, nil
}
