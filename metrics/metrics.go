// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AlbumRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "albumapi_album_requests_total",
		Help: "Total number of album proxy requests",
	}, []string{"status"})

	UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "albumapi_upstream_duration_seconds",
		Help:    "Time spent waiting on the identity and catalog endpoints",
		Buckets: prometheus.ExponentialBuckets(0.01, 2.0, 10), // 10ms to ~5.1s
	}, []string{"endpoint"})

	TokenRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "albumapi_token_refreshes_total",
		Help: "Catalog credential refreshes against the identity endpoint",
	}, []string{"result"})

	TokenCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "albumapi_token_cache_hits_total",
		Help: "Requests served with an already cached catalog credential",
	})

	AccessDenied = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "albumapi_access_denied_total",
		Help: "Requests rejected by the access key check",
	}, []string{"reason"})
)
