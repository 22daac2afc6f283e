package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (s *Server) handleScrapeISBN(c *gin.Context) {
	isbn := c.Param("isbn")
	if len(isbn) != 10 && len(isbn) != 13 {
		badRequest(c, "isbn must be 10 or 13 characters")
		return
	}

	jobID := uuid.NewString()
	go func() {
		summary, err := s.runner.ScrapeISBN(context.Background(), isbn)
		logScrapeResult(jobID, "isbn", isbn, summary != nil, err)
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"status": "initiated",
		"job_id": jobID,
		"isbn":   isbn,
	})
}

func (s *Server) handleScrapeSearch(c *gin.Context) {
	query := c.Param("query")
	if query == "" {
		badRequest(c, "query must not be empty")
		return
	}

	jobID := uuid.NewString()
	go func() {
		summary, err := s.runner.ScrapeSearch(context.Background(), query, s.cfg.ResultsPerQuery)
		logScrapeResult(jobID, "search", query, summary != nil, err)
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"status": "initiated",
		"job_id": jobID,
		"query":  query,
	})
}

func (s *Server) handleScraperStatus(c *gin.Context) {
	stores, err := s.stores.List(c.Request.Context(), nil)
	if err != nil {
		respondError(c, err)
		return
	}

	type storeStatus struct {
		Name            string `json:"name"`
		Code            string `json:"code"`
		IsActive        bool   `json:"is_active"`
		ScrapingEnabled bool   `json:"scraping_enabled"`
	}
	out := make([]storeStatus, 0, len(stores))
	for _, st := range stores {
		out = append(out, storeStatus{
			Name:            st.Name,
			Code:            st.Code,
			IsActive:        st.IsActive,
			ScrapingEnabled: st.ScrapingEnabled,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "operational",
		"stores": out,
	})
}

func (s *Server) handleSchedulerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.scheduler.Status())
}

func logScrapeResult(jobID, kind, target string, finished bool, err error) {
	if err != nil {
		slog.Error("scrape job failed",
			slog.String("job_id", jobID),
			slog.String(kind, target),
			slog.Any("error", err),
		)
		return
	}
	slog.Info("scrape job finished",
		slog.String("job_id", jobID),
		slog.String(kind, target),
		slog.Bool("completed", finished),
	)
}
