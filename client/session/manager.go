// Package session implements the storefront client's credential lifecycle:
// restoring a persisted session at startup, exchanging credentials for a
// token at login or registration, and tearing the session down exactly once
// through Logout.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/atikur-web-dev/shopeasy/client/api"
	"github.com/atikur-web-dev/shopeasy/internal/domain"
	apperrors "github.com/atikur-web-dev/shopeasy/pkg/errors"
)

// Manager drives the credential lifecycle against the API.
type Manager struct {
	creds  *Credentials
	api    *api.Client
	logger *slog.Logger
}

// NewManager creates a session manager.
func NewManager(creds *Credentials, apiClient *api.Client, logger *slog.Logger) *Manager {
	return &Manager{creds: creds, api: apiClient, logger: logger}
}

// Credentials exposes the underlying credential cell. Its Token method is
// the token source for the API gate.
func (m *Manager) Credentials() *Credentials {
	return m.creds
}

// IsAuthenticated reports whether a complete session is active.
func (m *Manager) IsAuthenticated() bool {
	return m.creds.IsAuthenticated()
}

// CurrentUser returns the cached profile snapshot, or nil as a guest.
func (m *Manager) CurrentUser() *domain.User {
	return m.creds.User()
}

// Bootstrap restores a persisted session at startup. When a durable pair
// exists, the profile is re-fetched to validate the token and refresh the
// snapshot. Any failure, rejection or network error alike, invalidates the
// session entirely; Bootstrap always terminates with a definite answer and
// never leaves a half-restored session behind.
func (m *Manager) Bootstrap(ctx context.Context) error {
	if !m.creds.IsAuthenticated() {
		return nil
	}

	var user domain.User
	if err := m.api.Get(ctx, "/api/v1/users/me", &user); err != nil {
		m.logger.Info("session restore failed, clearing credentials",
			slog.String("error", err.Error()),
		)
		if clearErr := m.creds.Clear(); clearErr != nil {
			return fmt.Errorf("clear stale session: %w", clearErr)
		}
		return nil
	}

	if err := m.creds.refreshUser(&user); err != nil {
		return fmt.Errorf("refresh user snapshot: %w", err)
	}

	m.logger.Info("session restored",
		slog.String("user_id", user.ID),
	)
	return nil
}

// Login exchanges credentials for a token/user pair and commits it. The call
// goes out without the current token so a rejection is always about the
// submitted credentials, and a failed login leaves any existing session
// untouched.
func (m *Manager) Login(ctx context.Context, email, password string) (*domain.User, error) {
	var payload domain.AuthPayload
	err := m.api.PostAnonymous(ctx, "/api/v1/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &payload)
	if err != nil {
		return nil, err
	}
	if payload.Token == "" || payload.User == nil {
		return nil, fmt.Errorf("login response missing token or user")
	}

	if err := m.creds.Set(payload.Token, payload.User); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	m.logger.Info("logged in", slog.String("user_id", payload.User.ID))
	return payload.User, nil
}

// Register creates an account and commits the returned session.
func (m *Manager) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	var payload domain.AuthPayload
	err := m.api.PostAnonymous(ctx, "/api/v1/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	}, &payload)
	if err != nil {
		return nil, err
	}
	if payload.Token == "" || payload.User == nil {
		return nil, fmt.Errorf("register response missing token or user")
	}

	if err := m.creds.Set(payload.Token, payload.User); err != nil {
		return nil, fmt.Errorf("persist session: %w", err)
	}

	m.logger.Info("registered", slog.String("user_id", payload.User.ID))
	return payload.User, nil
}

// UpdateProfile persists profile edits and refreshes the cached snapshot.
func (m *Manager) UpdateProfile(ctx context.Context, name, phone *string) (*domain.User, error) {
	body := map[string]*string{}
	if name != nil {
		body["name"] = name
	}
	if phone != nil {
		body["phone"] = phone
	}

	var user domain.User
	if err := m.api.Put(ctx, "/api/v1/users/me", body, &user); err != nil {
		return nil, err
	}
	if err := m.creds.refreshUser(&user); err != nil {
		return nil, fmt.Errorf("refresh user snapshot: %w", err)
	}
	return &user, nil
}

// Logout clears the durable and in-memory session unconditionally. It is
// idempotent: logging out with no active session is a no-op.
func (m *Manager) Logout() error {
	if err := m.creds.Clear(); err != nil {
		return err
	}
	m.logger.Info("logged out")
	return nil
}

// Invalidate is Logout for credential-rejection cleanup. Callers holding an
// error from the API gate must only invoke this for ErrSessionExpired.
func (m *Manager) Invalidate() {
	if err := m.Logout(); err != nil {
		m.logger.Error("failed to clear invalidated session",
			slog.String("error", err.Error()),
		)
	}
}

// Reason translates an authentication error into a human-readable message.
// Classification is purely presentational; control flow branches only on
// api.ErrSessionExpired.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, api.ErrSessionExpired):
		return "your session has expired, please log in again"
	case errors.Is(err, apperrors.ErrAlreadyExists):
		return "an account with this email already exists"
	case errors.Is(err, apperrors.ErrUnauthorized):
		return "invalid email or password"
	case errors.Is(err, apperrors.ErrInvalidInput):
		return "please check the entered details and try again"
	case errors.Is(err, apperrors.ErrServiceUnavail):
		return "the store is temporarily unreachable, please try again"
	case errors.Is(err, context.DeadlineExceeded):
		return "the request timed out, please try again"
	default:
		return "something went wrong, please try again"
	}
}
