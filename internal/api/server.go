package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tubestats/tubestats/internal/models"
	"github.com/tubestats/tubestats/internal/service"
)

// Service is what the handlers need from the analyzer.
type Service interface {
	Resolve(ctx context.Context, input string) (string, error)
	GetChannel(ctx context.Context, channelID string) (*models.ChannelIdentity, error)
	GetVideos(ctx context.Context, channelID string) (*models.Snapshot, error)
	Derived(ctx context.Context, channelID string) (*models.Snapshot, []models.DerivedVideo, error)
	BuildReport(ctx context.Context, channelID string, opts service.ReportOptions) (*models.Report, error)
	Invalidate(ctx context.Context, channelID string) error
}

// Options configures the server.
type Options struct {
	CORSOrigins []string
	Logger      zerolog.Logger
}

// Server represents the API server
type Server struct {
	router *gin.Engine
	svc    Service
	log    zerolog.Logger
}

// NewServer creates a new API server
func NewServer(svc Service, opts Options) *Server {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(opts.Logger))

	if len(opts.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{"GET", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", "Pragma", requestIDHeader},
			ExposeHeaders:    []string{"Content-Length", requestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	server := &Server{
		router: router,
		svc:    svc,
		log:    opts.Logger,
	}
	server.setupRoutes()
	return server
}

// setupRoutes configures all the routes for the server
func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	s.router.GET("/resolve", s.resolve)

	channel := s.router.Group("/channel/:id")
	channel.GET("", s.getChannel)
	channel.GET("/videos", s.getChannelVideos)
	channel.GET("/report", s.getChannelReport)
	channel.DELETE("/cache", s.invalidateChannel)
}

// Handler exposes the router, mainly for tests and custom http.Servers.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info().Msg("server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
