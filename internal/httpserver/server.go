package httpserver

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tinytelemetry/cachebench/internal/logging"
	"github.com/tinytelemetry/cachebench/internal/model"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 20
	maxListLimit     = 1000
)

// Repository is the narrow store contract the relational path needs.
type Repository interface {
	model.BookReader
	model.Pinger
}

// Server is the demo target: two read paths over the same catalog plus an
// Actuator-style metrics surface timing both.
type Server struct {
	addr      string
	repo      Repository
	grid      model.BookReader
	meters    *Registry
	log       *zap.Logger
	server    *http.Server
	listener  net.Listener
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// NewServer creates a new target server. grid may be nil, in which case the
// grid routes answer 503.
func NewServer(addr string, repo Repository, grid model.BookReader, log *zap.Logger) *Server {
	if addr == "" {
		addr = "127.0.0.1:8080"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		addr:   addr,
		repo:   repo,
		grid:   grid,
		meters: NewRegistry(),
		log:    logging.OrNop(log),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Meters exposes the server's timer registry.
func (s *Server) Meters() *Registry {
	return s.meters
}

// Handler builds the gin engine serving every route.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.timeRequests())

	books := r.Group("/api/books")
	books.GET("/db", s.handleList(s.repo))
	books.GET("/db/:id", s.handleBook(s.repo))
	books.GET("/grid", s.handleList(s.grid))
	books.GET("/grid/:id", s.handleBook(s.grid))

	actuator := r.Group("/actuator")
	actuator.GET("/health", s.handleHealth)
	actuator.GET("/metrics", s.handleMetricNames)
	actuator.GET("/metrics/:name", s.handleMetric)
	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener
	s.startTime = time.Now()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("target server stopped", zap.Error(err))
		}
	}()
	s.log.Info("target server listening", zap.String("addr", listener.Addr().String()))
	return nil
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
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

// timeRequests records every matched route under its template.
func (s *Server) timeRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if route := c.FullPath(); route != "" {
			s.meters.Record(RequestsMeter, route, time.Since(start))
		}
	}
}

func (s *Server) handleBook(reader model.BookReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if reader == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "data path not configured"})
			return
		}
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "id must be an integer"})
			return
		}
		book, err := reader.Book(c.Request.Context(), id)
		if errors.Is(err, model.ErrBookNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		if err != nil {
			s.log.Error("book lookup failed", zap.String("route", c.FullPath()), zap.Int64("id", id), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
			return
		}
		c.JSON(http.StatusOK, book)
	}
}

func (s *Server) handleList(reader model.BookReader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if reader == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "data path not configured"})
			return
		}
		limit := defaultListLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = min(n, maxListLimit)
		}
		books, err := reader.Books(c.Request.Context(), limit)
		if err != nil {
			s.log.Error("book list failed", zap.String("route", c.FullPath()), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"books": books, "count": len(books)})
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.repo.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DOWN", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "UP",
		"uptime": time.Since(s.startTime).String(),
	})
}

func (s *Server) handleMetricNames(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"names": s.meters.Names()})
}

// handleMetric serves one timer as
// {"name", "baseUnit", "measurements": [COUNT, TOTAL_TIME, MAX], "availableTags"}.
// Only the uri tag is supported, as ?tag=uri:<route>.
func (s *Server) handleMetric(c *gin.Context) {
	name := c.Param("name")

	var uri string
	if tag := c.Query("tag"); tag != "" {
		key, value, ok := strings.Cut(tag, ":")
		if !ok || key != "uri" || value == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "tag must be uri:<route>"})
			return
		}
		uri = value
	}

	snap, ok := s.meters.Snapshot(name, uri)
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"name":        name,
		"description": nil,
		"baseUnit":    "seconds",
		"measurements": []gin.H{
			{"statistic": "COUNT", "value": snap.Count},
			{"statistic": model.TotalTimeStatistic, "value": snap.Total.Seconds()},
			{"statistic": "MAX", "value": snap.Max.Seconds()},
		},
		"availableTags": []gin.H{
			{"tag": "uri", "values": s.meters.URIs(name)},
		},
	})
}
