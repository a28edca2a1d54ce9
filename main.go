// Copyright (c) 2024-2025 Darcy Buskermolen <darcy@dbitech.ca>
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VA7DBI/albumAPI/config"
	"github.com/VA7DBI/albumAPI/docs"
	"github.com/VA7DBI/albumAPI/logging"
	"github.com/VA7DBI/albumAPI/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

var (
	configFile = flag.String("config", "config.yaml", "Path to configuration file")
)

// @title           Album API Proxy
// @version         1.0
// @description     Relays album metadata from the music catalog without exposing client credentials.
// @BasePath        /
func main() {
	flag.Parse()

	// .env is optional; real environment variables win
	config.LoadDotEnv()

	logCfg := logging.ConfigFromEnv()
	lg, err := logging.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()
	log := lg.Sugar()

	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.CheckCredentials(); err != nil {
		log.Warnw("catalog requests will fail until credentials are set", "error", err)
	}

	if !logCfg.Dev {
		gin.SetMode(gin.ReleaseMode)
	}

	accessMiddleware, err := middleware.NewAccessMiddleware(cfg, log)
	if err != nil {
		log.Fatalf("Failed to initialize access middleware: %v", err)
	}
	defer accessMiddleware.Close()

	service := NewAlbumService(cfg, log)
	r := setupRouter(cfg, log, service, accessMiddleware)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		log.Infof("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("http server shutdown failed: %v", err)
	}
}

func setupRouter(cfg *config.Config, log *zap.SugaredLogger, service *AlbumService, access *middleware.AccessMiddleware) *gin.Engine {
	if cfg.API.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.API.SwaggerHost
	}

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.CORS())

	// These endpoints remain public
	r.GET("/health", healthCheck)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if cfg.Metrics.Enabled {
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	r.GET("/album/:id", access.Handler(), service.AlbumHandler)
	// GET /{id} and any mount prefix (api.base_path) land here
	r.NoRoute(access.Handler(), service.AlbumHandler)

	return r
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status"`
}

// @Summary     Health check endpoint
// @Description Get API health status
// @Tags        health
// @Produce     json
// @Success     200 {object} HealthResponse
// @Router      /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(200, HealthResponse{Status: "ok"})
}
