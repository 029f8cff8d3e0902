package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodySize    = 8 << 20
)

var errBodyTooLarge = fmt.Errorf("response body exceeds %d bytes", maxBodySize)

// A Client executes requests against the commerce API and maps every
// failure onto a [*domain.RemoteError]. It never retries.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

type Opt func(*Client)

// WithHTTPClient sends requests through a copy of c. The caller's client is
// never modified.
func WithHTTPClient(c *http.Client) Opt {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithTimeout bounds every request. It overrides the timeout of a client
// given with WithHTTPClient regardless of option order.
func WithTimeout(d time.Duration) Opt {
	return func(cl *Client) {
		if d > 0 {
			cl.timeout = d
		}
	}
}

func New(baseURL string, opts ...Opt) *Client {
	cl := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(cl)
	}

	hc := *cl.http
	if cl.timeout > 0 {
		hc.Timeout = cl.timeout
	}
	cl.http = &hc
	return cl
}

// Do sends body as JSON (when non-nil) and decodes a successful response
// into out (when non-nil). A non-empty token is sent as a bearer credential.
func (c *Client) Do(
	ctx context.Context, method, path string, body any, token string, out any,
) error {
	const op = "Client.Do"
	log := slog.With("op", op, "method", method, "path", path)

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		log.Debug("transport failure", "err", err)
		return &domain.RemoteError{Kind: domain.FailureNetwork, Err: err}
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxBodySize+1))
	if err == nil && len(data) > maxBodySize {
		err = errBodyTooLarge
	}
	if err != nil {
		return &domain.RemoteError{
			Kind: domain.FailureNetwork, Status: res.StatusCode, Err: err,
		}
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		rerr := statusError(res.StatusCode, data)
		log.Debug("request failed", "status", res.StatusCode, "err", rerr)
		return rerr
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &domain.RemoteError{
			Kind:   domain.FailureNetwork,
			Status: res.StatusCode,
			Err:    fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

func statusError(status int, data []byte) *domain.RemoteError {
	var body errorBody
	_ = json.Unmarshal(data, &body)

	msg := body.Error
	if msg == "" {
		msg = http.StatusText(status)
	}
	rerr := &domain.RemoteError{Status: status, Message: msg}
	if body.Details != "" {
		rerr.Err = errors.New(body.Details)
	}

	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		rerr.Kind = domain.FailureUnauthorized
	case http.StatusNotFound:
		rerr.Kind = domain.FailureNotFound
	default:
		rerr.Kind = domain.FailureServerError
	}
	return rerr
}
