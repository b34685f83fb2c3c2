// Package session is the single source of truth for who is signed in.
//
// Credentials live in a durable store (token + user profile) and the
// two-factor handshake lives in a short-lived, session-scoped store. The
// current State is derived from those slots alone; deciding whether a view
// may render never touches the Admin API.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/treegar/admin-console/internal/model"
)

const (
	SlotToken     = "token"
	SlotUser      = "user"
	SlotTwoFactor = "two_factor"

	DefaultHandshakeTTL = 5 * time.Minute
)

type State int

const (
	Anonymous State = iota
	PendingTwoFactor
	Authenticated
)

func (s State) String() string {
	switch s {
	case PendingTwoFactor:
		return "pending-two-factor"
	case Authenticated:
		return "authenticated"
	default:
		return "anonymous"
	}
}

// Handshake is what a password login leaves behind when a one-time code is required.
type Handshake struct {
	Token     string    `json:"token"`
	Email     string    `json:"email"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

type Manager struct {
	durable      Store
	scoped       Store
	handshakeTTL time.Duration
	Now          func() time.Time
}

func NewManager(durable, scoped Store, handshakeTTL time.Duration) *Manager {
	if handshakeTTL <= 0 {
		handshakeTTL = DefaultHandshakeTTL
	}
	return &Manager{durable: durable, scoped: scoped, handshakeTTL: handshakeTTL, Now: time.Now}
}

// Token returns the bearer token, or "" when none is stored.
func (m *Manager) Token(ctx context.Context) (string, error) {
	b, err := m.durable.Get(ctx, SlotToken)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// User returns the stored profile, or nil when none is stored.
func (m *Manager) User(ctx context.Context) (*model.User, error) {
	b, err := m.durable.Get(ctx, SlotUser)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var u model.User
	if err := json.Unmarshal(b, &u); err != nil {
		return nil, fmt.Errorf("decode stored user: %w", err)
	}
	return &u, nil
}

// Handshake returns the pending two-factor handshake, or nil when none is
// stored or it has expired.
func (m *Manager) Handshake(ctx context.Context) (*Handshake, error) {
	b, err := m.scoped.Get(ctx, SlotTwoFactor)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var h Handshake
	if err := json.Unmarshal(b, &h); err != nil {
		return nil, fmt.Errorf("decode handshake: %w", err)
	}
	if h.Token == "" || (!h.ExpiresAt.IsZero() && !m.Now().Before(h.ExpiresAt)) {
		_ = m.scoped.Delete(ctx, SlotTwoFactor)
		return nil, nil
	}
	return &h, nil
}

// BeginTwoFactor records a password login that still needs a one-time code.
// Any older credentials are dropped first.
func (m *Manager) BeginTwoFactor(ctx context.Context, h Handshake) error {
	if h.Token == "" {
		return errors.New("session: empty two-factor token")
	}
	if err := m.durable.Delete(ctx, SlotToken, SlotUser); err != nil {
		return fmt.Errorf("drop old credentials: %w", err)
	}
	now := m.Now()
	if h.IssuedAt.IsZero() {
		h.IssuedAt = now
	}
	if h.ExpiresAt.IsZero() {
		h.ExpiresAt = now.Add(m.handshakeTTL)
	}
	b, err := json.Marshal(h)
	if err != nil {
		return err
	}
	return m.scoped.Put(ctx, SlotTwoFactor, b, m.handshakeTTL)
}

// SetAuthenticated stores the token and profile and discards any handshake.
func (m *Manager) SetAuthenticated(ctx context.Context, token string, user model.User) error {
	if token == "" {
		return errors.New("session: empty token")
	}
	b, err := json.Marshal(user)
	if err != nil {
		return err
	}
	if err := m.durable.Put(ctx, SlotUser, b, 0); err != nil {
		return fmt.Errorf("store user: %w", err)
	}
	if err := m.durable.Put(ctx, SlotToken, []byte(token), 0); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if err := m.scoped.Delete(ctx, SlotTwoFactor); err != nil {
		return fmt.Errorf("discard handshake: %w", err)
	}
	return nil
}

// ClearToken drops the stored credentials. The API client calls it on 401.
func (m *Manager) ClearToken(ctx context.Context) error {
	return m.durable.Delete(ctx, SlotToken, SlotUser)
}

// Logout clears every slot.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.durable.Delete(ctx, SlotToken, SlotUser); err != nil {
		return err
	}
	return m.scoped.Delete(ctx, SlotTwoFactor)
}

// State derives the session state from stored slots only.
func (m *Manager) State(ctx context.Context) (State, error) {
	tok, err := m.Token(ctx)
	if err != nil {
		return Anonymous, err
	}
	user, err := m.User(ctx)
	if err != nil {
		return Anonymous, err
	}
	if tok != "" && user != nil {
		return Authenticated, nil
	}

	h, err := m.Handshake(ctx)
	if err != nil {
		return Anonymous, err
	}
	if h != nil {
		return PendingTwoFactor, nil
	}
	return Anonymous, nil
}

// Check runs Guard against the current state.
func (m *Manager) Check(ctx context.Context, v View) (Decision, error) {
	st, err := m.State(ctx)
	if err != nil {
		return RedirectLogin, err
	}
	return Guard(st, v), nil
}
