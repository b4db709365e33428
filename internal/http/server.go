package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ochronus/gonekoweb/internal/app"
	"github.com/ochronus/gonekoweb/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Server is a local stand-in for the Nekoweb API.
type Server struct {
	container *app.Container
	config    *config.MockConfig
	handler   *Handler
	logger    *logrus.Logger
	router    *gin.Engine
	srv       *http.Server
}

// NewServer creates a new mock API server storing files in fs. A nil fs
// gets a fresh in-memory filesystem.
func NewServer(container *app.Container, fs afero.Fs) *Server {
	cfg := &container.Config.Mock

	// Set gin mode based on log level
	if container.Config.Loglevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add recovery middleware
	router.Use(gin.Recovery())

	// Add logging middleware
	logger := container.Logger
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start),
		}).Debug("mock api request")
	})

	if fs == nil {
		fs = afero.NewMemMapFs()
	}
	handler := NewHandler(container, fs)

	api := router.Group("/api")
	api.GET("/site/info/:username", handler.SiteInfo)

	authed := api.Group("")
	authed.Use(handler.RequireKey)
	authed.GET("/site/info", handler.SiteInfo)
	authed.GET("/files/limits", handler.Limits)
	authed.POST("/files/create", handler.Create)
	authed.POST("/files/upload", handler.Upload)
	authed.GET("/files/readfolder", handler.ReadFolder)
	authed.POST("/files/rename", handler.Rename)
	authed.POST("/files/edit", handler.Edit)
	authed.POST("/files/delete", handler.Delete)
	authed.GET("/files/big/create", handler.BigCreate)
	authed.POST("/files/big/append", handler.BigAppend)
	authed.POST("/files/big/move", handler.BigMove)
	authed.POST("/files/import/:id", handler.Import)

	return &Server{
		container: container,
		config:    cfg,
		handler:   handler,
		logger:    logger,
		router:    router,
	}
}

// Start starts the HTTP server with a background context.
func (s *Server) Start() error {
	return s.StartWithContext(context.Background())
}

// StartWithContext starts the HTTP server and shuts down gracefully when the context is canceled.
func (s *Server) StartWithContext(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.BindAddress, s.config.Port)
	s.logger.Infof("Starting mock nekoweb API at http://%s/api", addr)

	s.srv = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

// GetRouter returns the underlying gin router (useful for testing)
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
