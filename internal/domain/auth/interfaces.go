package auth

import (
	"context"
	"time"
)

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
}

type MagicLinkRepository interface {
	Create(ctx context.Context, l *MagicLink) error
	LatestForEmail(ctx context.Context, email string) (*MagicLink, error)
	GetByTokenHash(ctx context.Context, hash string) (*MagicLink, error)
	// MarkUsed reports false when the link was already used.
	MarkUsed(ctx context.Context, id string, at time.Time) (bool, error)
	DeleteStale(ctx context.Context, now time.Time) (int64, error)
}

type TokenIssuer interface {
	GenerateToken(userID, email string) (string, error)
	TTL() time.Duration
}
