package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nursehub-api/internal/model"
	"nursehub-api/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthenticated")
)

// Gate is the admin authentication capability. Transport layers call Validate
// on every protected request; the workflow only sees the resulting identity.
type Gate interface {
	Authenticate(ctx context.Context, username, password string) (*Session, error)
	Validate(ctx context.Context, token string) (*Identity, error)
	Revoke(ctx context.Context, sessionID string) error
}

type Session struct {
	ID        string
	Token     string
	ExpiresAt time.Time
	Admin     *model.Admin
}

// Store is the persistence the session gate needs.
type Store interface {
	AdminByUsername(ctx context.Context, username string) (*model.Admin, error)
	AdminByID(ctx context.Context, id string) (*model.Admin, error)
	CreateSession(ctx context.Context, s *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	RevokeSession(ctx context.Context, id string) error
}

// SessionGate checks credentials against the stored admin and issues
// JWT-wrapped, database-backed sessions.
type SessionGate struct {
	store  Store
	secret string
	ttl    time.Duration
	log    *zap.Logger
	now    func() time.Time
}

func NewSessionGate(st Store, secret string, ttl time.Duration, log *zap.Logger) *SessionGate {
	return &SessionGate{store: st, secret: secret, ttl: ttl, log: log.Named("auth"), now: time.Now}
}

// compared against when the username is unknown so both paths pay for a bcrypt
var dummyHash, _ = HashPassword("nursehub-dummy-password")

func (g *SessionGate) Authenticate(ctx context.Context, username, password string) (*Session, error) {
	a, err := g.store.AdminByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			CheckPassword(dummyHash, password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load admin: %w", err)
	}
	if !CheckPassword(a.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	s := &model.Session{
		ID:        uuid.New().String(),
		AdminID:   a.ID,
		ExpiresAt: g.now().Add(g.ttl),
	}
	if err := g.store.CreateSession(ctx, s); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	tok, err := MakeToken(a.ID, s.ID, g.secret, s.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	g.log.Info("admin signed in", zap.String("admin", a.Username), zap.String("session", s.ID))
	return &Session{ID: s.ID, Token: tok, ExpiresAt: s.ExpiresAt, Admin: a}, nil
}

func (g *SessionGate) Validate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := ParseToken(token, g.secret)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	s, err := g.store.GetSession(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if s.Revoked || !g.now().Before(s.ExpiresAt) || s.AdminID != claims.AdminID {
		return nil, ErrUnauthenticated
	}
	a, err := g.store.AdminByID(ctx, s.AdminID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("load admin: %w", err)
	}
	return &Identity{Admin: a, SessionID: s.ID}, nil
}

func (g *SessionGate) Revoke(ctx context.Context, sessionID string) error {
	return g.store.RevokeSession(ctx, sessionID)
}
