// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

// Package server exposes discovery and browsing over a JSON HTTP API.
package server // import "github.com/toeirei/labrador/internal/server"

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/toeirei/labrador/internal/app"
	"github.com/toeirei/labrador/internal/conn"
	"github.com/toeirei/labrador/internal/i18n"
	"github.com/toeirei/labrador/internal/logging"
	"github.com/toeirei/labrador/internal/security"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// Options wires a Server.
type Options struct {
	Registry *app.Registry
	Manager  *conn.Manager
	// BaseDomain enables subdomain resolution on /api/collections.
	BaseDomain string
	// User and Password enable basic auth. While either is empty every
	// API request is refused.
	User     string
	Password security.Secret
	// CORSOrigins, when set, allows browser clients from these origins.
	CORSOrigins []string
}

// Server is the HTTP front end.
type Server struct {
	opts   Options
	engine *gin.Engine
}

// New builds the router.
func New(opts Options) *Server {
	if opts.Manager == nil {
		opts.Manager = conn.NewManager()
	}
	s := &Server{opts: opts, engine: gin.New()}
	s.engine.Use(gin.Recovery(), requestID(), accessLog())
	if len(opts.CORSOrigins) > 0 {
		s.engine.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{http.MethodGet},
			AllowHeaders:     []string{"Authorization", "Content-Type"},
			ExposeHeaders:    []string{RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	api := s.engine.Group("/api", s.authenticate())
	api.GET("/apps", s.listApps)
	api.GET("/apps/:app/collections", s.collectionsByName)
	api.GET("/apps/:app/collections/:collection", s.browseByName)
	api.GET("/collections", s.collectionsByHost)
	api.GET("/collections/:collection", s.browseByHost)
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logging.Infof("server: listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logging.Infof("server: shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.Debugf("server: %s %s -> %d in %s (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start), c.GetString("request_id"))
	}
}

// authenticate refuses everything until credentials are configured, then
// requires them through basic auth.
func (s *Server) authenticate() gin.HandlerFunc {
	if s.opts.User == "" || s.opts.Password.IsEmpty() {
		return func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":      i18n.T("error.credentials_unset"),
				"request_id": c.GetString("request_id"),
			})
		}
	}
	wantUser := []byte(s.opts.User)
	wantPass := []byte(s.opts.Password.Reveal())
	return func(c *gin.Context) {
		user, pass, ok := c.Request.BasicAuth()
		userOK := subtle.ConstantTimeCompare([]byte(user), wantUser) == 1
		passOK := subtle.ConstantTimeCompare([]byte(pass), wantPass) == 1
		if !ok || !userOK || !passOK {
			c.Header("WWW-Authenticate", `Basic realm="Labrador"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":      i18n.T("error.unauthorized"),
				"request_id": c.GetString("request_id"),
			})
			return
		}
		c.Set(gin.AuthUserKey, user)
		c.Next()
	}
}
