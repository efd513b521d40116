// Package serverlite is a lightweight, in-memory consent server for E2E tests and local
// development. It stands in for the Vincent dashboard: a consent request for a registered
// app is answered with a redirect carrying a Vincent JWT signed by a local PKP key.
package serverlite

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/vincent/internal/domain/models"
	"github.com/turtacn/vincent/internal/domain/service"
	"github.com/turtacn/vincent/internal/infrastructure/crypto"
	"github.com/turtacn/vincent/pkg/constants"
	"github.com/turtacn/vincent/pkg/logger"
)

// DefaultTokenLifetime is the lifetime of consent tokens, in minutes.
const DefaultTokenLifetime = 30

// App is a registered app: its version and the redirect URIs it may use.
type App struct {
	ID           string   `json:"id"`
	Version      int      `json:"version"`
	RedirectURIs []string `json:"redirectUris"`
}

// Server is a lightweight, in-memory consent server.
type Server struct {
	HttpServer *http.Server
	jwt        *crypto.JWTManager
	signer     service.DelegatedSigner
	identity   models.SignerIdentity
	apps       sync.Map
	lifetime   int
	log        logger.Logger
}

// NewServer creates and configures a new server whose tokens are signed by signer.
func NewServer(addr string, signer service.DelegatedSigner, identity models.SignerIdentity, log logger.Logger) (*Server, error) {
	if signer == nil {
		return nil, fmt.Errorf("serverlite: a signer is required")
	}
	if log == nil {
		log = logger.NewNoopLogger()
	}
	manager, err := crypto.NewJWTManager(crypto.JWTConfig{}, log)
	if err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	s := &Server{
		jwt:      manager,
		signer:   signer,
		identity: identity,
		lifetime: DefaultTokenLifetime,
		log:      log.WithComponent("ConsentServer"),
	}

	router.GET("/health", s.healthCheck)
	router.GET(fmt.Sprintf(constants.ConsentPathTemplate, ":appId"), s.consent)
	router.GET("/apps/:appId", s.getApp)

	s.HttpServer = &http.Server{
		Addr:    addr,
		Handler: router,
	}
	return s, nil
}

// RegisterApp allows app to request consent for its redirect URIs.
func (s *Server) RegisterApp(app App) {
	s.apps.Store(app.ID, app)
}

// Handler returns the router, for httptest servers.
func (s *Server) Handler() http.Handler { return s.HttpServer.Handler }

// Start runs the server in a goroutine.
func (s *Server) Start() {
	go func() {
		if err := s.HttpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error(context.Background(), "Consent server stopped", err)
		}
	}()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.HttpServer.Shutdown(ctx)
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) lookup(appID string) (App, bool) {
	v, ok := s.apps.Load(appID)
	if !ok {
		return App{}, false
	}
	return v.(App), true
}

func (s *Server) getApp(c *gin.Context) {
	app, ok := s.lookup(c.Param("appId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "app_not_found"})
		return
	}
	c.JSON(http.StatusOK, app)
}

// consent grants consent immediately and redirects back with the token in the jwt query
// parameter.
func (s *Server) consent(c *gin.Context) {
	app, ok := s.lookup(c.Param("appId"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "app_not_found"})
		return
	}
	redirectURI := c.Query(constants.RedirectURIQueryParam)
	if !app.allows(redirectURI) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_redirect_uri"})
		return
	}

	token, err := s.issueConsentToken(c.Request.Context(), app, redirectURI)
	if err != nil {
		s.log.Error(c.Request.Context(), "Failed to issue consent token", err, logger.String("app_id", app.ID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	location, err := redirectWithJWT(redirectURI, token)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_redirect_uri"})
		return
	}
	c.Redirect(http.StatusFound, location)
}

func (a App) allows(redirectURI string) bool {
	for _, u := range a.RedirectURIs {
		if u == redirectURI {
			return redirectURI != ""
		}
	}
	return false
}
