package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotAuthenticated   = errors.New("not authenticated")
	ErrSessionExpired     = errors.New("session expired")
	ErrValidationRejected = errors.New("validation rejected")
	ErrRequestFailed      = errors.New("request failed")
	ErrNetwork            = errors.New("network error")
	ErrFetchFailed        = errors.New("fetch failed")
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
)

type FailureKind string

const (
	FailureUnauthorized FailureKind = "Unauthorized"
	FailureNotFound     FailureKind = "NotFound"
	FailureServerError  FailureKind = "ServerError"
	FailureNetwork      FailureKind = "NetworkError"
)

// A RemoteError is the tagged failure returned by the commerce API client.
type RemoteError struct {
	Kind    FailureKind
	Status  int
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	switch {
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("%s: status %d: %s", e.Kind, e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("%s: status %d", e.Kind, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

// Is maps the failure tag onto the package sentinels.
func (e *RemoteError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Kind == FailureUnauthorized
	case ErrNotFound:
		return e.Kind == FailureNotFound
	case ErrNetwork:
		return e.Kind == FailureNetwork
	case ErrRequestFailed:
		return e.Kind != FailureNetwork
	}
	return false
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// HasStatus reports whether err is a RemoteError with the given status code.
func HasStatus(err error, status int) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Status == status
}

// A StockError rejects a quantity above the available stock.
type StockError struct {
	ProductID int64
	Requested int
	Stock     int
}

func (e *StockError) Error() string {
	return fmt.Sprintf(
		"cannot add more than available stock (%d), requested %d",
		e.Stock, e.Requested,
	)
}

func (e *StockError) Unwrap() error {
	return ErrValidationRejected
}
