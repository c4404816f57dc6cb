// Package httpserver exposes the dashboard over a small JSON HTTP API.
package httpserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/novacrypto/nova/internal/format"
	"github.com/novacrypto/nova/internal/model"
)

// Server provides an HTTP API over a model.DashboardAPI.
type Server struct {
	addr      string
	api       model.DashboardAPI
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a new HTTP API server.
func NewServer(addr string, api model.DashboardAPI) *Server {
	if addr == "" {
		addr = "127.0.0.1:3000"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:   addr,
		api:    api,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/rows", s.handleRows)
	api.GET("/view", s.handleView)
	api.PUT("/view", s.handleUpdateView)
	api.POST("/refresh", s.handleRefresh)
	api.POST("/watchlist/:id", s.handleToggleWatch)
	api.GET("/assets/:id/history", s.handleHistory)
	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.routes(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.startTime = time.Now()

	go s.server.Serve(listener)
	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var netErr *model.NetworkError
	var decErr *model.DecodeError
	switch {
	case errors.Is(err, model.ErrInvalidView), errors.Is(err, model.ErrInvalidCurrency):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrSuperseded):
		return http.StatusConflict
	case errors.As(err, &netErr), errors.As(err, &decErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func (s *Server) handleHealth(c *gin.Context) {
	st, err := s.api.Status()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read pipeline status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"uptime":       time.Since(s.startTime).String(),
		"state":        st.State,
		"stale":        st.Stale,
		"last_refresh": st.LastRefresh,
		"last_error":   st.LastError,
		"asset_count":  st.AssetCount,
	})
}

func (s *Server) handleRows(c *gin.Context) {
	rows, err := s.api.VisibleRows()
	if err != nil {
		fail(c, err)
		return
	}
	vs, err := s.api.View()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"currency":  vs.Currency,
		"rows":      rows,
		"row_count": len(rows),
	})
}

func (s *Server) handleView(c *gin.Context) {
	vs, err := s.api.View()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, vs)
}

type viewUpdate struct {
	Tab           *model.Tab           `json:"tab"`
	SortKey       *model.SortKey       `json:"sort_key"`
	SortDirection *model.SortDirection `json:"sort_direction"`
	Search        *string              `json:"search"`
	Currency      *string              `json:"currency"`
}

// handleUpdateView applies the fields present in the body. Unlike the
// interactive sort toggle, PUT is idempotent: a sort key equal to the
// current one is left alone.
func (s *Server) handleUpdateView(c *gin.Context) {
	var req viewUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}

	if err := s.applyView(req); err != nil {
		fail(c, err)
		return
	}
	s.handleView(c)
}

// validate rejects the request before any field is applied.
func (req viewUpdate) validate() error {
	if req.Currency != nil {
		if _, err := format.NormalizeCurrency(*req.Currency); err != nil {
			return err
		}
	}
	if req.Tab != nil && !req.Tab.Valid() {
		return fmt.Errorf("%w: tab %q", model.ErrInvalidView, *req.Tab)
	}
	if req.SortKey != nil && *req.SortKey == "" {
		return fmt.Errorf("%w: empty sort key", model.ErrInvalidView)
	}
	if req.SortDirection != nil && !req.SortDirection.Valid() {
		return fmt.Errorf("%w: sort direction %q", model.ErrInvalidView, *req.SortDirection)
	}
	return nil
}

func (s *Server) applyView(req viewUpdate) error {
	if err := req.validate(); err != nil {
		return err
	}
	if req.Currency != nil {
		if err := s.api.SetCurrency(*req.Currency); err != nil {
			return err
		}
	}
	if req.Tab != nil {
		if err := s.api.SetTab(*req.Tab); err != nil {
			return err
		}
	}
	if req.SortKey != nil {
		cur, err := s.api.View()
		if err != nil {
			return err
		}
		if cur.SortKey != *req.SortKey {
			if err := s.api.SetSort(*req.SortKey); err != nil {
				return err
			}
		}
	}
	if req.SortDirection != nil {
		if err := s.api.SetSortDirection(*req.SortDirection); err != nil {
			return err
		}
	}
	if req.Search != nil {
		if err := s.api.SetSearch(*req.Search); err != nil {
			return err
		}
	}
	return nil
}

func (s *Server) handleRefresh(c *gin.Context) {
	snap, err := s.api.Refresh(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"seq":         snap.Seq,
		"currency":    snap.Currency,
		"fetched_at":  snap.FetchedAt,
		"asset_count": len(snap.Rows),
	})
}

func (s *Server) handleToggleWatch(c *gin.Context) {
	id := c.Param("id")
	watched, err := s.api.ToggleWatch(id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "watched": watched})
}

func (s *Server) handleHistory(c *gin.Context) {
	id := c.Param("id")
	points, err := s.api.PriceHistory(c.Request.Context(), id)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"id": id, "points": []model.PricePoint{}, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "points": points})
}
