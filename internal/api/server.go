package api

import (
	"context"
	"net/http"
	"time"

	"stagepass/internal/cache"
	"stagepass/internal/config"
	"stagepass/internal/handlers"
	"stagepass/internal/middleware"
	"stagepass/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server wraps the gin engine and the underlying http server.
type Server struct {
	router *gin.Engine
	server *http.Server
	db     pinger
}

type pinger interface {
	Ping() error
}

// NewServer builds the router with the full middleware chain and route table.
func NewServer(cfg *config.Config, h *handlers.Handlers, repos *repository.Repositories, cacheClient *cache.Client, db pinger) *Server {
	gin.SetMode(cfg.GinMode)

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Metrics())

	s := &Server{
		router: router,
		db:     db,
		server: &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      router,
			ReadTimeout:  cfg.RequestTimeout,
			WriteTimeout: cfg.RequestTimeout,
			IdleTimeout:  60 * time.Second,
		},
	}

	s.setupRoutes(h, repos, cacheClient)
	return s
}

func (s *Server) setupRoutes(h *handlers.Handlers, repos *repository.Repositories, cacheClient *cache.Client) {
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.router.Group("/api")

	// Public read surface.
	api.GET("/events/:id", h.GetEvent)
	api.GET("/events/:id/current-price", h.GetCurrentPrice)
	api.GET("/events/:id/seats", h.ListSeats)
	api.GET("/events/:id/pricing-tiers", h.ListTiers)

	// Everything that mutates requires authentication.
	authed := api.Group("")
	authed.Use(middleware.BasicAuth(repos.Users, cacheClient))
	{
		authed.POST("/events", h.CreateEvent)
		authed.POST("/events/:id/cancel", h.CancelEvent)
		authed.POST("/events/:id/regenerate-seats", h.RegenerateSeats)

		authed.POST("/events/:id/pricing-tiers", h.CreateTier)
		authed.PUT("/events/:id/pricing-tiers/:tierID", h.UpdateTier)
		authed.DELETE("/events/:id/pricing-tiers/:tierID", h.DeleteTier)

		authed.POST("/seats/:id/reserve", h.ReserveSeat)
		authed.POST("/seats/:id/unreserve", h.UnreserveSeat)
		authed.POST("/seats/:id/purchase", h.PurchaseSeat)
		authed.POST("/seats/:id/release", h.ReleaseSeat)

		authed.POST("/orders/purchase_tickets", h.PurchaseTickets)
		authed.GET("/orders", h.ListMyOrders)
		authed.GET("/orders/:id", h.GetOrder)
		authed.GET("/orders/:id/tickets", h.GetOrderTickets)

		authed.GET("/tickets", h.ListMyTickets)

		// Gate scanners are staff devices.
		authed.POST("/tickets/scan", middleware.RequireStaff(), h.ScanTicket)
		authed.POST("/tickets/:id/mark_used", middleware.RequireStaff(), h.MarkTicketUsed)
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	if err := s.db.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Start begins serving and blocks until the server stops.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Router exposes the engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
