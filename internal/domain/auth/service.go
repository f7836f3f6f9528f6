package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"buyerleads/internal/pkg/validator"
)

const tokenBytes = 32

type Config struct {
	AppURL   string
	LinkTTL  time.Duration
	Cooldown time.Duration
	Pepper   string
	ProdLike bool
}

// Service implements passwordless sign-in with emailed magic links.
type Service struct {
	users  UserRepository
	links  MagicLinkRepository
	mailer Mailer
	tokens TokenIssuer
	cfg    Config
	key    []byte
	now    func() time.Time
	log    *zap.Logger
}

func NewService(users UserRepository, links MagicLinkRepository, mailer Mailer, tokens TokenIssuer, cfg Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		users:  users,
		links:  links,
		mailer: mailer,
		tokens: tokens,
		cfg:    cfg,
		key:    hashKey(cfg.Pepper),
		now:    func() time.Time { return time.Now().UTC() },
		log:    log.Named("auth"),
	}
}

// RequestMagicLink emails a sign-in link. Repeated requests for the same
// address inside the cooldown fail with ErrRateLimitExceeded.
func (s *Service) RequestMagicLink(ctx context.Context, email string) error {
	email, err := normalizeEmail(email)
	if err != nil {
		return err
	}

	if s.cfg.Cooldown > 0 {
		last, err := s.links.LatestForEmail(ctx, email)
		if err != nil {
			return err
		}
		if last != nil && s.now().Before(last.CreatedAt.Add(s.cfg.Cooldown)) {
			return ErrRateLimitExceeded
		}
	}

	link, err := s.issue(ctx, email)
	if err != nil {
		return err
	}
	if err := s.mailer.SendMagicLink(ctx, email, link); err != nil {
		s.log.Error("magic link delivery failed", zap.String("email", email), zap.Error(err))
		return err
	}
	return nil
}

// DevMagicLink issues a link and returns it instead of mailing it.
func (s *Service) DevMagicLink(ctx context.Context, email string) (string, error) {
	if s.cfg.ProdLike {
		return "", ErrDevOnly
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return "", err
	}
	return s.issue(ctx, email)
}

func (s *Service) issue(ctx context.Context, email string) (string, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	token := base64.RawURLEncoding.EncodeToString(raw)

	now := s.now()
	link := &MagicLink{
		ID:        uuid.NewString(),
		Email:     email,
		TokenHash: s.hashToken(token),
		ExpiresAt: now.Add(s.cfg.LinkTTL),
		CreatedAt: now,
	}
	if err := s.links.Create(ctx, link); err != nil {
		return "", err
	}

	return s.cfg.AppURL + "/api/v1/auth/verify?token=" + url.QueryEscape(token), nil
}

// VerifyMagicLink consumes a token and opens a session for its email,
// creating the user on first sign-in.
func (s *Service) VerifyMagicLink(ctx context.Context, token string) (*Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}

	link, err := s.links.GetByTokenHash(ctx, s.hashToken(token))
	if err != nil {
		return nil, err
	}
	now := s.now()
	if link == nil || !link.Usable(now) {
		return nil, ErrInvalidToken
	}

	ok, err := s.links.MarkUsed(ctx, link.ID, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidToken
	}

	user, err := s.findOrCreateUser(ctx, link.Email)
	if err != nil {
		return nil, err
	}

	jwtToken, err := s.tokens.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	s.log.Info("user signed in", zap.String("user_id", user.ID))
	return &Session{
		Token:     jwtToken,
		ExpiresAt: now.Add(s.tokens.TTL()),
		User:      user,
	}, nil
}

func (s *Service) findOrCreateUser(ctx context.Context, email string) (*User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u != nil {
		return u, nil
	}

	u = &User{ID: uuid.NewString(), Email: email}
	err = s.users.Create(ctx, u)
	if errors.Is(err, ErrEmailExists) {
		// Lost a race with a parallel verification for the same email.
		return s.users.GetByEmail(ctx, email)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Me(ctx context.Context, userID string) (*User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// CleanupLinks removes expired and used magic links.
func (s *Service) CleanupLinks(ctx context.Context) (int64, error) {
	return s.links.DeleteStale(ctx, s.now())
}

// EnsureUser returns the user for email, creating it if needed.
func (s *Service) EnsureUser(ctx context.Context, email string) (*User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	return s.findOrCreateUser(ctx, email)
}

func (s *Service) hashToken(token string) string {
	h, _ := blake2b.New256(s.key)
	h.Write([]byte(token))
	return hex.EncodeToString(h.Sum(nil))
}

// hashKey fits the pepper into blake2b's 64 byte key limit.
func hashKey(pepper string) []byte {
	key := []byte(pepper)
	if len(key) > blake2b.Size {
		sum := blake2b.Sum512(key)
		key = sum[:]
	}
	return key
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !validator.IsEmail(email) {
		return "", ErrInvalidEmail
	}
	return email, nil
}
