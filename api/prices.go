package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleBookPrices(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := s.books.GetByID(ctx, nil, id); err != nil {
		respondError(c, err)
		return
	}
	rows, err := s.prices.ActiveByBook(ctx, nil, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *Server) handleComparePrices(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	comparison, err := s.engine.ComparePrices(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comparison)
}

func (s *Server) handleOpportunities(c *gin.Context) {
	minProfit, ok := queryFloat(c, "min_profit", 0)
	if !ok {
		return
	}
	minMargin, ok := queryFloat(c, "min_margin", 0)
	if !ok {
		return
	}

	limit := 0
	if v, present, err := queryInt(c, "limit"); err != nil {
		badRequest(c, "limit must be an integer")
		return
	} else if present {
		if v < 1 || v > 100 {
			badRequest(c, "limit must be between 1 and 100")
			return
		}
		limit = v
	}

	opportunities, err := s.engine.FindOpportunities(c.Request.Context(), minProfit, minMargin, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":         len(opportunities),
		"opportunities": opportunities,
	})
}

// queryFloat reads an optional non-negative float query parameter. On
// failure it writes the error response itself.
func queryFloat(c *gin.Context, name string, fallback float64) (float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		badRequest(c, name+" must be a non-negative number")
		return 0, false
	}
	return v, true
}
