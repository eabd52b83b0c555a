// Package statusapi exposes a read-only local HTTP view of one device's
// state and configuration (§4.7). It never issues a write command; it is
// handed a read path into the same Device the CLI already owns.
package statusapi

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"esparrier/internal/device"
)

// Reader is the read-only slice of kvm.Device this API needs. Defined
// here, not imported from kvm, so statusapi never needs a write path.
type Reader interface {
	GetState() (device.State, error)
	GetConfig() (device.Config, error)
}

// Server serves the status API on an http.Server the caller starts and
// stops.
type Server struct {
	httpServer *http.Server
}

// New builds the router and binds it to addr (not yet listening).
func New(addr string, reader Reader) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api/v1")
	{
		api.GET("/state", handleState(reader))
		api.GET("/config", handleConfig(reader))
		api.GET("/health", handleHealth(reader))
	}

	return &Server{httpServer: &http.Server{Addr: addr, Handler: router}}
}

// Run starts serving and blocks until ctx is cancelled, then shuts down
// gracefully with a 5-second timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("status API listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

func handleState(reader Reader) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, err := reader.GetState()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, state)
	}
}

func handleConfig(reader Reader) gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg, err := reader.GetConfig()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, cfg.Redacted())
	}
}

func handleHealth(reader Reader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := reader.GetState(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
