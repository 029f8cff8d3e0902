package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

var _ port.SessionReader = (*Session)(nil)

// A Session holds the credential of the current shopper. It is the only
// writer of that credential and of its persisted copy.
type Session struct {
	api      port.AuthAPI
	store    port.CredentialStore
	notifier port.ChangeNotifier

	mu   sync.RWMutex
	cred domain.Credential
}

// NewSession restores a previously persisted credential from store, if any.
func NewSession(
	api port.AuthAPI, store port.CredentialStore, notifier port.ChangeNotifier,
) *Session {
	const op = "NewSession"
	log := slog.With("op", op)

	if notifier == nil {
		notifier = nopNotifier{}
	}
	s := &Session{api: api, store: store, notifier: notifier}

	cred, ok, err := store.LoadCredential()
	switch {
	case err != nil:
		log.Warn("failed to restore credential", "err", err)
	case ok:
		s.cred = cred
		log.Info("credential restored", "role", cred.Role)
	}
	return s
}

func (s *Session) Credential() (domain.Credential, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cred, !s.cred.Empty()
}

func (s *Session) LoggedIn() bool {
	_, ok := s.Credential()
	return ok
}

func (s *Session) Role() domain.Role {
	cred, _ := s.Credential()
	return cred.Role
}

// Login replaces any session held under a different token. The previous
// one ends first, so its state is cleared before the new one starts.
func (s *Session) Login(
	ctx context.Context, role domain.Role, email, password string,
) (domain.Credential, error) {
	const op = "Session.Login"
	log := slog.With("op", op)

	if err := validateAuthInput(email, password); err != nil {
		return domain.Credential{}, fmt.Errorf("%s: %w", op, err)
	}
	if !role.Valid() {
		return domain.Credential{}, fmt.Errorf(
			"%s: unknown role %q: %w", op, role, domain.ErrValidationRejected,
		)
	}

	cred, err := s.api.Login(ctx, role, email, password)
	if err != nil {
		return domain.Credential{}, fmt.Errorf("%s: %w", op, err)
	}
	if cred.Role == "" {
		cred.Role = role
	}

	if prev, ok := s.Credential(); ok && prev.Token != cred.Token {
		log.Info("replacing previous session", "role", prev.Role)
		s.end()
	}

	s.mu.Lock()
	s.cred = cred
	s.mu.Unlock()

	if err := s.store.SaveCredential(cred); err != nil {
		log.Error("failed to persist credential", "err", err)
	}

	s.notifier.Notify(domain.ChangeEvent{
		Kind: domain.SessionStarted, Role: cred.Role, At: time.Now(),
	})
	log.Info("logged in", "role", cred.Role)
	return cred, nil
}

// Register creates an account. It does not log in.
func (s *Session) Register(ctx context.Context, email, password string) error {
	const op = "Session.Register"

	if err := validateAuthInput(email, password); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.api.Register(ctx, email, password); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Logout ends the session locally first and then tells the server. A
// failure to reach the server is only logged.
func (s *Session) Logout(ctx context.Context) {
	const op = "Session.Logout"
	log := slog.With("op", op)

	s.end()

	if err := s.api.Logout(ctx); err != nil {
		log.Warn("logout communication error", "err", err)
	}
}

// Expire ends the session after the server rejected the credential.
// Calling it again for the same credential does nothing.
func (s *Session) Expire() {
	const op = "Session.Expire"
	if s.end() {
		slog.Info("session expired", "op", op)
	}
}

func (s *Session) end() bool {
	const op = "Session.end"
	log := slog.With("op", op)

	s.mu.Lock()
	if s.cred.Empty() {
		s.mu.Unlock()
		return false
	}
	role := s.cred.Role
	s.cred = domain.Credential{}
	s.mu.Unlock()

	if err := s.store.ClearCredential(); err != nil {
		log.Error("failed to clear persisted credential", "err", err)
	}

	s.notifier.Notify(domain.ChangeEvent{
		Kind: domain.SessionEnded, Role: role, At: time.Now(),
	})
	return true
}

func validateAuthInput(email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return fmt.Errorf(
			"email and password are required: %w", domain.ErrValidationRejected,
		)
	}
	return nil
}
