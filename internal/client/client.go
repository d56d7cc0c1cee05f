// Package client is a Go client for the Brrow REST API.
package client

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
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

var (
	ErrTransport         = errors.New("transport failure")
	ErrMalformedResponse = errors.New("malformed response")
)

// APIError is a failure reported by the server. It unwraps to the sentinel of
// its kind so callers can use errors.Is(err, pkgerrors.ErrNotFound).
type APIError struct {
	Status  int
	Kind    pkgerrors.Kind
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

func (e *APIError) Unwrap() error {
	return e.Kind.Sentinel()
}

// kindForStatus classifies a failure whose body carried no kind.
func kindForStatus(status int) pkgerrors.Kind {
	switch status {
	case http.StatusNotFound:
		return pkgerrors.KindNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return pkgerrors.KindValidation
	case http.StatusUnauthorized:
		return pkgerrors.KindUnauthorized
	case http.StatusForbidden:
		return pkgerrors.KindForbidden
	case http.StatusConflict:
		return pkgerrors.KindConflict
	case http.StatusPreconditionFailed:
		return pkgerrors.KindSellerOnboardingRequired
	case http.StatusPaymentRequired:
		return pkgerrors.KindInsufficientFunds
	}
	return pkgerrors.KindServer
}

// UserMessage turns any client error into text fit for display.
func UserMessage(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, ErrTransport):
		return "Network error. Please check your connection and try again."
	case errors.Is(err, ErrMalformedResponse):
		return "Unexpected response from the server."
	}
	return err.Error()
}

// TokenStore holds the session token between calls.
type TokenStore interface {
	Token() string
	SetToken(token string)
}

type MemoryTokenStore struct {
	mu    sync.RWMutex
	token string
}

func (s *MemoryTokenStore) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *MemoryTokenStore) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
}

// NewClient returns a client for the API rooted at baseURL. A nil store keeps
// the token in memory.
func NewClient(baseURL string, tokens TokenStore) *Client {
	if tokens == nil {
		tokens = &MemoryTokenStore{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		tokens: tokens,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

// send performs a request and returns the decoded envelope of a successful
// response. Failures come back as *APIError, ErrTransport or
// ErrMalformedResponse.
func (c *Client) send(ctx context.Context, method, path string, body interface{}) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrTransport, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= http.StatusBadRequest || (decodeErr == nil && !env.Success) {
		apiErr := &APIError{Status: resp.StatusCode, Kind: kindForStatus(resp.StatusCode)}
		if decodeErr == nil {
			if env.Error != nil && env.Error.Kind != "" {
				apiErr.Kind = pkgerrors.ParseKind(env.Error.Kind)
			}
			switch {
			case env.Error != nil && env.Error.Message != "":
				apiErr.Message = env.Error.Message
			case env.Message != "":
				apiErr.Message = env.Message
			}
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		slog.Debug("api request failed", "method", method, "path", path, "status", resp.StatusCode, "kind", apiErr.Kind)
		return nil, apiErr
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, decodeErr)
	}
	return &env, nil
}

// do decodes the data field into out when out is non-nil; the data must be
// present. It returns the envelope message.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) (string, error) {
	env, err := c.send(ctx, method, path, body)
	if err != nil {
		return "", err
	}
	if out != nil {
		if len(env.Data) == 0 || string(env.Data) == "null" {
			return "", fmt.Errorf("%w: missing data", ErrMalformedResponse)
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
	}
	return env.Message, nil
}

// list is do for collection endpoints, where absent data means empty.
func (c *Client) list(ctx context.Context, path string, out interface{}) error {
	env, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}
