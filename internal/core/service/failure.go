package service

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

func credentialRejected(err error) bool {
	return domain.HasStatus(err, http.StatusUnauthorized)
}

// settleFailure ends the session when the server rejected the credential,
// shows msg to the user and returns err wrapped for the caller.
func settleFailure(
	session port.SessionReader,
	messages port.Notifier,
	op, msg string,
	err error,
) error {
	log := slog.With("op", op)

	if credentialRejected(err) {
		log.Warn("credential rejected", "err", err)
		session.Expire()
		messages.Error("Session expired. Please log in.", err)
		return fmt.Errorf("%s: %w: %w", op, domain.ErrSessionExpired, err)
	}

	log.Error(msg, "err", err)
	messages.Error(msg, err)
	return fmt.Errorf("%s: %w", op, err)
}

// userMessage extracts the server-provided text of a failed request.
func userMessage(err error) string {
	var re *domain.RemoteError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	return err.Error()
}
