// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/VA7DBI/albumAPI/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// FetchError is returned when the catalog cannot be reached or answers with
// something that is not JSON.
type FetchError struct {
	AlbumID string
	Err     error
}

func (e *FetchError) Error() string {
	return e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Album is a decoded catalog response. Body is the generic JSON value, with
// numbers kept as json.Number.
type Album struct {
	StatusCode int
	Body       any
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a catalog client rooted at baseURL (e.g. https://api.spotify.com/v1).
// A nil httpClient means http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{baseURL: baseURL, httpClient: httpClient}
}

// FetchAlbum GETs /albums/{id} with the bearer token. Non-2xx answers are
// returned as-is when their body is JSON.
func (c *Client) FetchAlbum(ctx context.Context, bearer, albumID string) (*Album, error) {
	endpoint := c.baseURL + "/albums/" + url.PathEscape(albumID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &FetchError{AlbumID: albumID, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")

	timer := prometheus.NewTimer(metrics.UpstreamDuration.WithLabelValues("catalog"))
	resp, err := c.httpClient.Do(req)
	timer.ObserveDuration()
	if err != nil {
		return nil, &FetchError{AlbumID: albumID, Err: err}
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, &FetchError{AlbumID: albumID, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	body, err := Decode(buf.Bytes())
	if err != nil {
		return nil, &FetchError{AlbumID: albumID, Err: err}
	}

	return &Album{StatusCode: resp.StatusCode, Body: body}, nil
}

// Decode parses a JSON document into a generic value, preserving numbers.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid JSON from catalog: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("invalid JSON from catalog: trailing data")
	}
	return v, nil
}
