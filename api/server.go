// Package api exposes the HTTP surface: book CRUD, price comparison,
// history and statistics queries, scrape triggers, alert preferences
// and scheduler introspection.
package api

import (
	"context"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"bookflipfinder/arbitrage"
	"bookflipfinder/config"
	"bookflipfinder/ingest"
	"bookflipfinder/pricehistory"
	"bookflipfinder/sched"
	"bookflipfinder/storage"
)

// ScrapeRunner triggers on-demand scrape sweeps.
type ScrapeRunner interface {
	ScrapeISBN(ctx context.Context, isbn string) (*ingest.Summary, error)
	ScrapeSearch(ctx context.Context, query string, maxResults int) (*ingest.Summary, error)
}

// SchedulerStatus exposes the refresh scheduler's state.
type SchedulerStatus interface {
	Status() sched.Status
}

// Server wires the HTTP handlers to the domain services.
type Server struct {
	cfg       *config.Config
	books     storage.BookRepo
	prices    storage.PriceRepo
	stores    storage.StoreRepo
	alerts    storage.AlertRepo
	engine    *arbitrage.Engine
	analyzer  *pricehistory.Analyzer
	runner    ScrapeRunner
	scheduler SchedulerStatus
}

// NewServer builds a server over the given services.
func NewServer(
	cfg *config.Config,
	books storage.BookRepo,
	prices storage.PriceRepo,
	stores storage.StoreRepo,
	alerts storage.AlertRepo,
	engine *arbitrage.Engine,
	analyzer *pricehistory.Analyzer,
	runner ScrapeRunner,
	scheduler SchedulerStatus,
) *Server {
	return &Server{
		cfg:       cfg,
		books:     books,
		prices:    prices,
		stores:    stores,
		alerts:    alerts,
		engine:    engine,
		analyzer:  analyzer,
		runner:    runner,
		scheduler: scheduler,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	r.Use(cors.New(corsCfg))

	r.GET("/healthz", s.handleHealth)

	books := r.Group("/books")
	{
		books.POST("", s.handleCreateBook)
		books.GET("", s.handleListBooks)
		books.GET("/:id", s.handleGetBook)
		books.PUT("/:id", s.handleUpdateBook)
		books.DELETE("/:id", s.handleDeleteBook)
	}

	prices := r.Group("/prices")
	{
		prices.GET("/book/:id", s.handleBookPrices)
		prices.GET("/compare/:id", s.handleComparePrices)
		prices.GET("/opportunities", s.handleOpportunities)
	}

	history := r.Group("/price-history")
	{
		history.GET("/history/:id", s.handleHistory)
		history.GET("/statistics/:id", s.handleStatistics)
	}

	scrape := r.Group("/scraper")
	{
		scrape.POST("/scrape/isbn/:isbn", s.handleScrapeISBN)
		scrape.POST("/scrape/search/:query", s.handleScrapeSearch)
		scrape.GET("/status", s.handleScraperStatus)
	}

	alerts := r.Group("/alerts/preferences")
	{
		alerts.POST("", s.handleCreateAlert)
		alerts.GET("/:user_id", s.handleGetAlert)
		alerts.PUT("/:user_id", s.handleUpdateAlert)
		alerts.DELETE("/:user_id", s.handleDeleteAlert)
	}

	r.GET("/scheduler/status", s.handleSchedulerStatus)

	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
