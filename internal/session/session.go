// Package session simulates login and registration for the storefront client
// and glues checkout to the local cart. Nothing is sent to a server: a login
// only records who is shopping.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain"
	"storefront/internal/localcart"

	"go.uber.org/zap"
)

const snapshotVersion = 1

var ErrNotLoggedIn = errors.New("not logged in")

// User is the logged in shopper
type User struct {
	Name       string
	Email      string
	LoggedInAt time.Time
}

type snapshot struct {
	Version    int       `json:"version"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	LoggedInAt time.Time `json:"logged_in_at"`

	// written by older clients
	LegacyName string `json:"nombre,omitempty"`
}

// Manager persists the session next to the cart
type Manager struct {
	store  localcart.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewManager(store localcart.Store, logger *zap.Logger) *Manager {
	return &Manager{store: store, logger: logger, now: time.Now}
}

// Login validates the form and starts a session named after the local part
// of the email address.
func (m *Manager) Login(ctx context.Context, email, password string) (*User, error) {
	if err := ValidateLogin(email, password); err != nil {
		return nil, err
	}

	email = strings.TrimSpace(email)
	name, _, _ := strings.Cut(email, "@")
	return m.start(ctx, name, email)
}

// Register validates the form and starts a session for the new user
func (m *Manager) Register(ctx context.Context, name, email, password, confirm string) (*User, error) {
	if err := ValidateRegistration(name, email, password, confirm); err != nil {
		return nil, err
	}
	return m.start(ctx, strings.TrimSpace(name), strings.TrimSpace(email))
}

func (m *Manager) start(ctx context.Context, name, email string) (*User, error) {
	user := &User{Name: name, Email: email, LoggedInAt: m.now().UTC()}

	data, err := json.Marshal(snapshot{
		Version:    snapshotVersion,
		Name:       user.Name,
		Email:      user.Email,
		LoggedInAt: user.LoggedInAt,
	})
	if err != nil {
		return nil, err
	}
	if err := m.store.Set(ctx, localcart.SessionKey, data); err != nil {
		return nil, domain.StorageError("save session", err)
	}

	m.logger.Info("Logged in", zap.String("email", user.Email))
	return user, nil
}

// Logout forgets the session. Logging out twice is not an error.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.Delete(ctx, localcart.SessionKey); err != nil {
		return domain.StorageError("delete session", err)
	}
	m.logger.Info("Logged out")
	return nil
}

// Current returns the logged in user or ErrNotLoggedIn. An unreadable
// session counts as logged out.
func (m *Manager) Current(ctx context.Context) (*User, error) {
	data, err := m.store.Get(ctx, localcart.SessionKey)
	if errors.Is(err, localcart.ErrKeyNotFound) {
		return nil, ErrNotLoggedIn
	}
	if err != nil {
		return nil, domain.StorageError("load session", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		m.logger.Warn("Discarding corrupt session", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrNotLoggedIn, domain.ErrParse)
	}

	name := snap.Name
	if snap.Version == 0 && name == "" {
		name = snap.LegacyName
	}
	if snap.Email == "" {
		return nil, ErrNotLoggedIn
	}

	return &User{Name: name, Email: snap.Email, LoggedInAt: snap.LoggedInAt}, nil
}
