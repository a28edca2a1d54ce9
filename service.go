// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/VA7DBI/albumAPI/catalog"
	"github.com/VA7DBI/albumAPI/config"
	"github.com/VA7DBI/albumAPI/metrics"
	"github.com/VA7DBI/albumAPI/token"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrMissingAlbumID is returned when the request path carries no album identifier.
var ErrMissingAlbumID = errors.New("Missing album ID")

const albumPrefix = "/album/"

// tokenSource hands out the catalog bearer token.
type tokenSource interface {
	Token(ctx context.Context) (string, error)
	Invalidate()
}

type albumFetcher interface {
	FetchAlbum(ctx context.Context, bearer, albumID string) (*catalog.Album, error)
}

type AlbumService struct {
	tokens  tokenSource
	catalog albumFetcher
	config  *config.Config
	log     *zap.SugaredLogger
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}

func NewAlbumService(cfg *config.Config, log *zap.SugaredLogger) *AlbumService {
	httpClient := &http.Client{Timeout: cfg.UpstreamTimeout()}

	tokens := token.NewCache(cfg.Catalog.TokenURL, cfg.Catalog.ClientID, cfg.Catalog.ClientSecret,
		token.WithHTTPClient(httpClient),
		token.WithMargin(cfg.ExpiryMargin()),
	)

	return &AlbumService{
		tokens:  tokens,
		catalog: catalog.NewClient(cfg.Catalog.APIURL, httpClient),
		config:  cfg,
		log:     log,
	}
}

// @Summary     Fetch an album
// @Description Relay the catalog's album document, authenticated with the proxy's own credential
// @Tags        album
// @Produce     json
// @Param       id  path     string true "Album ID"
// @Success     200 {object} map[string]interface{}
// @Failure     400 {object} ErrorResponse
// @Failure     500 {object} ErrorResponse
// @Router      /album/{id} [get]
func (s *AlbumService) AlbumHandler(c *gin.Context) {
	if c.Request.Method != http.MethodGet {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Not found"})
		return
	}

	status, body := s.Handle(c.Request.Context(), c.Request.URL.Path)
	metrics.AlbumRequests.WithLabelValues(strconv.Itoa(status)).Inc()
	c.JSON(status, body)
}

// Handle resolves one album request path to a status code and JSON body.
func (s *AlbumService) Handle(ctx context.Context, path string) (int, any) {
	albumID := ExtractAlbumID(path, s.config.API.BasePath)
	if albumID == "" {
		return errorResponse(ErrMissingAlbumID)
	}

	album, err := s.fetchAlbum(ctx, albumID)
	if err != nil {
		s.log.Warnw("album request failed", "album_id", albumID, "error", err)
		return errorResponse(err)
	}

	if album.StatusCode == http.StatusUnauthorized {
		s.tokens.Invalidate()
	}

	status := album.StatusCode
	if status >= 200 && status < 300 {
		status = http.StatusOK
	}
	return status, album.Body
}

func (s *AlbumService) fetchAlbum(ctx context.Context, albumID string) (*catalog.Album, error) {
	bearer, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	album, err := s.catalog.FetchAlbum(ctx, bearer, albumID)
	if err != nil {
		return nil, err
	}

	if s.config.Catalog.StripMarkets {
		album.Body = catalog.StripKey(album.Body, s.config.Catalog.MarketsField)
	}
	return album, nil
}

// errorResponse maps the handler's error set onto a status code and body.
func errorResponse(err error) (int, ErrorResponse) {
	var (
		authErr  *token.AuthError
		fetchErr *catalog.FetchError
	)
	switch {
	case errors.Is(err, ErrMissingAlbumID):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error()}
	case errors.As(err, &authErr):
		return http.StatusInternalServerError, ErrorResponse{Error: authErr.Error()}
	case errors.As(err, &fetchErr):
		return http.StatusInternalServerError, ErrorResponse{Error: fetchErr.Error()}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: err.Error()}
	}
}

// ExtractAlbumID returns the album identifier from a request path. basePath
// (the mount point) is stripped first, then a leading /album/, and the last
// remaining segment is the identifier.
//
//	/album/123 -> 123
//	/123       -> 123
//	/, /album/ -> ""
func ExtractAlbumID(path, basePath string) string {
	if base := strings.TrimRight(basePath, "/"); base != "" {
		path = strings.TrimPrefix(path, base)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	path = strings.TrimPrefix(path, albumPrefix)
	path = strings.TrimRight(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		path = path[i+1:]
	}
	return path
}
