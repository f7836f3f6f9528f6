package auth

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buyerleads/internal/pkg/jwt"
)

type memUsers struct {
	mu    sync.Mutex
	byID  map[string]*User
	calls int
}

func newMemUsers() *memUsers { return &memUsers{byID: map[string]*User{}} }

func (r *memUsers) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return ErrEmailExists
		}
	}
	cp := *u
	r.byID[u.ID] = &cp
	return nil
}

func (r *memUsers) GetByEmail(_ context.Context, email string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memUsers) GetByID(_ context.Context, id string) (*User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

type memLinks struct {
	mu    sync.Mutex
	links []*MagicLink
}

func (r *memLinks) Create(_ context.Context, l *MagicLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *l
	r.links = append(r.links, &cp)
	return nil
}

func (r *memLinks) LatestForEmail(_ context.Context, email string) (*MagicLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *MagicLink
	for _, l := range r.links {
		if l.Email == email && (latest == nil || l.CreatedAt.After(latest.CreatedAt)) {
			latest = l
		}
	}
	return latest, nil
}

func (r *memLinks) GetByTokenHash(_ context.Context, hash string) (*MagicLink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.links {
		if l.TokenHash == hash {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memLinks) MarkUsed(_ context.Context, id string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.links {
		if l.ID == id && l.UsedAt == nil {
			l.UsedAt = &at
			return true, nil
		}
	}
	return false, nil
}

func (r *memLinks) DeleteStale(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.links[:0]
	var n int64
	for _, l := range r.links {
		if l.UsedAt != nil || l.ExpiresAt.Before(now) {
			n++
			continue
		}
		kept = append(kept, l)
	}
	r.links = kept
	return n, nil
}

type captureMailer struct {
	sent map[string]string
	err  error
}

func (m *captureMailer) SendMagicLink(_ context.Context, email, link string) error {
	if m.err != nil {
		return m.err
	}
	m.sent[email] = link
	return nil
}

type fixture struct {
	svc    *Service
	users  *memUsers
	links  *memLinks
	mailer *captureMailer
	tokens *jwt.Service
	now    time.Time
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	if cfg.AppURL == "" {
		cfg.AppURL = "http://localhost:3000"
	}
	if cfg.LinkTTL == 0 {
		cfg.LinkTTL = 15 * time.Minute
	}
	if cfg.Pepper == "" {
		cfg.Pepper = "pepper"
	}
	f := &fixture{
		users:  newMemUsers(),
		links:  &memLinks{},
		mailer: &captureMailer{sent: map[string]string{}},
		tokens: jwt.New("test-secret", time.Hour),
		now:    time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC),
	}
	f.svc = NewService(f.users, f.links, f.mailer, f.tokens, cfg, nil)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "/api/v1/auth/verify", u.Path)
	token := u.Query().Get("token")
	require.NotEmpty(t, token)
	return token
}

func TestService_SignInAndVerify(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	require.NoError(t, f.svc.RequestMagicLink(ctx, "  Agent@Example.COM "))
	link, ok := f.mailer.sent["agent@example.com"]
	require.True(t, ok)
	token := tokenFromLink(t, link)

	// only the keyed hash is stored
	require.Len(t, f.links.links, 1)
	assert.NotEqual(t, token, f.links.links[0].TokenHash)
	assert.Len(t, f.links.links[0].TokenHash, 64)

	session, err := f.svc.VerifyMagicLink(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "agent@example.com", session.User.Email)
	assert.Equal(t, f.now.Add(time.Hour), session.ExpiresAt)

	claims, err := f.tokens.ValidateToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID)

	_, err = f.svc.VerifyMagicLink(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_VerifyReusesExistingUser(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	existing, err := f.svc.EnsureUser(ctx, "agent@example.com")
	require.NoError(t, err)

	link, err := f.svc.DevMagicLink(ctx, "agent@example.com")
	require.NoError(t, err)
	session, err := f.svc.VerifyMagicLink(ctx, tokenFromLink(t, link))
	require.NoError(t, err)

	assert.Equal(t, existing.ID, session.User.ID)
	assert.Equal(t, 1, f.users.calls)
}

func TestService_RequestCooldown(t *testing.T) {
	f := newFixture(t, Config{Cooldown: time.Minute})
	ctx := context.Background()

	require.NoError(t, f.svc.RequestMagicLink(ctx, "a@example.com"))
	f.now = f.now.Add(30 * time.Second)
	assert.ErrorIs(t, f.svc.RequestMagicLink(ctx, "a@example.com"), ErrRateLimitExceeded)
	assert.NoError(t, f.svc.RequestMagicLink(ctx, "b@example.com"))

	f.now = f.now.Add(31 * time.Second)
	assert.NoError(t, f.svc.RequestMagicLink(ctx, "a@example.com"))
}

func TestService_ExpiredLinkRejected(t *testing.T) {
	f := newFixture(t, Config{LinkTTL: 10 * time.Minute})
	ctx := context.Background()

	link, err := f.svc.DevMagicLink(ctx, "a@example.com")
	require.NoError(t, err)

	f.now = f.now.Add(10 * time.Minute)
	_, err = f.svc.VerifyMagicLink(ctx, tokenFromLink(t, link))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestService_InvalidInputs(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	assert.ErrorIs(t, f.svc.RequestMagicLink(ctx, "not-an-email"), ErrInvalidEmail)
	_, err := f.svc.VerifyMagicLink(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = f.svc.VerifyMagicLink(ctx, "forged")
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = f.svc.Me(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestService_MailerFailureSurfaces(t *testing.T) {
	f := newFixture(t, Config{})
	f.mailer.err = errors.New("smtp down")

	err := f.svc.RequestMagicLink(context.Background(), "a@example.com")
	assert.EqualError(t, err, "smtp down")
}

func TestService_DevLinkDisabledInProd(t *testing.T) {
	f := newFixture(t, Config{ProdLike: true})

	_, err := f.svc.DevMagicLink(context.Background(), "a@example.com")
	assert.ErrorIs(t, err, ErrDevOnly)
}

func TestService_PepperChangesHash(t *testing.T) {
	a := newFixture(t, Config{Pepper: "one"})
	b := newFixture(t, Config{Pepper: "two"})

	assert.NotEqual(t, a.svc.hashToken("same-token"), b.svc.hashToken("same-token"))
	assert.Equal(t, a.svc.hashToken("same-token"), a.svc.hashToken("same-token"))
}

func TestService_CleanupLinks(t *testing.T) {
	f := newFixture(t, Config{LinkTTL: time.Minute})
	ctx := context.Background()

	_, err := f.svc.DevMagicLink(ctx, "a@example.com")
	require.NoError(t, err)
	link, err := f.svc.DevMagicLink(ctx, "b@example.com")
	require.NoError(t, err)
	_, err = f.svc.VerifyMagicLink(ctx, tokenFromLink(t, link))
	require.NoError(t, err)

	n, err := f.svc.CleanupLinks(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	f.now = f.now.Add(2 * time.Minute)
	n, err = f.svc.CleanupLinks(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
