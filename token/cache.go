// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

// Package token caches the catalog bearer credential obtained through the
// client-credentials grant. A Cache refreshes the credential lazily, once the
// current time reaches the stored expiry (issue time plus lifetime minus a
// margin).
package token

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/VA7DBI/albumAPI/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

const grantBody = "grant_type=client_credentials"

// Credential is a bearer token and the instant it stops being used.
type Credential struct {
	Token     string
	ExpiresAt time.Time
}

// Valid reports whether the credential may still be used at now.
func (c Credential) Valid(now time.Time) bool {
	return c.Token != "" && now.Before(c.ExpiresAt)
}

// AuthError is returned when the identity endpoint does not hand out a token.
type AuthError struct {
	Body string // raw response body, for diagnostics
	Err  error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("identity endpoint: %v", e.Err)
	}
	return e.Body
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithHTTPClient sets the client used for the identity call.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Cache) { c.httpClient = hc }
}

// WithMargin sets how long before the reported lifetime ends the token is refreshed.
func WithMargin(d time.Duration) Option {
	return func(c *Cache) { c.margin = d }
}

// Cache holds at most one Credential. The mutex guards the fields only; it is
// not held during a refresh, so concurrent callers on an expired credential
// may each call the identity endpoint.
type Cache struct {
	tokenURL   string
	basic      string
	margin     time.Duration
	httpClient *http.Client
	now        func() time.Time

	mu   sync.Mutex
	cred Credential
}

// NewCache creates a Cache for the given identity endpoint and client secrets.
func NewCache(tokenURL, clientID, clientSecret string, opts ...Option) *Cache {
	c := &Cache{
		tokenURL:   tokenURL,
		basic:      base64.StdEncoding.EncodeToString([]byte(clientID + ":" + clientSecret)),
		margin:     60 * time.Second,
		httpClient: http.DefaultClient,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the cached token, or fetches a fresh one when the cached
// credential is absent or expired.
func (c *Cache) Token(ctx context.Context) (string, error) {
	now := c.now()

	c.mu.Lock()
	cred := c.cred
	c.mu.Unlock()

	if cred.Valid(now) {
		metrics.TokenCacheHits.Inc()
		return cred.Token, nil
	}

	resp, err := c.fetch(ctx)
	if err != nil {
		metrics.TokenRefreshes.WithLabelValues("error").Inc()
		return "", err
	}
	metrics.TokenRefreshes.WithLabelValues("ok").Inc()

	fresh := Credential{
		Token:     resp.AccessToken,
		ExpiresAt: now.Add(time.Duration(resp.ExpiresIn)*time.Second - c.margin),
	}
	c.mu.Lock()
	c.cred = fresh
	c.mu.Unlock()

	return fresh.Token, nil
}

// Credential returns a copy of the cached credential; the zero value if none.
func (c *Cache) Credential() Credential {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cred
}

// Invalidate drops the cached credential. Call it after the catalog rejects
// the token with 401 so the next request refreshes.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cred = Credential{}
}

func (c *Cache) fetch(ctx context.Context) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(grantBody))
	if err != nil {
		return nil, &AuthError{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Authorization", "Basic "+c.basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	timer := prometheus.NewTimer(metrics.UpstreamDuration.WithLabelValues("identity"))
	resp, err := c.httpClient.Do(req)
	timer.ObserveDuration()
	if err != nil {
		return nil, &AuthError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &AuthError{Err: fmt.Errorf("failed to read response: %w", err)}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, &AuthError{Body: string(body), Err: fmt.Errorf("failed to decode token response: %w", err)}
	}
	if tr.AccessToken == "" {
		return nil, &AuthError{Body: string(body)}
	}
	return &tr, nil
}
