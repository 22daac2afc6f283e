package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bookflipfinder/storage"
)

func (s *Server) handleHistory(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	filter := storage.HistoryFilter{Retailer: c.Query("retailer")}
	start, ok := queryTime(c, "start_date")
	if !ok {
		return
	}
	if start != nil {
		filter.Start = *start
	}
	end, ok := queryTime(c, "end_date")
	if !ok {
		return
	}
	if end != nil {
		filter.End = *end
	}
	if v, present, err := queryInt(c, "limit"); err != nil {
		badRequest(c, "limit must be an integer")
		return
	} else if present {
		if v < 1 {
			badRequest(c, "limit must be positive")
			return
		}
		filter.Limit = v
	}

	result, err := s.analyzer.History(c.Request.Context(), id, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleStatistics(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	days := 30
	if v, present, err := queryInt(c, "days"); err != nil {
		badRequest(c, "days must be an integer")
		return
	} else if present {
		if v < 1 || v > 365 {
			badRequest(c, "days must be between 1 and 365")
			return
		}
		days = v
	}

	stats, err := s.analyzer.Statistics(c.Request.Context(), id, days)
	if err != nil {
		respondError(c, err)
		return
	}
	if stats == nil {
		writeError(c, http.StatusNotFound, "not_found", "no price data in the requested window")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// queryTime reads an optional timestamp query parameter, accepting
// RFC 3339 or a bare date. On failure it writes the error response
// itself.
func queryTime(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t, true
	}
	badRequest(c, name+" must be an RFC 3339 timestamp or YYYY-MM-DD date")
	return nil, false
}
