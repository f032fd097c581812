package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sjonesw-lab/Maxtrader-sub000/internal/backtest"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/cache"
)

func (s *Server) handleHealth(c *gin.Context) {
	status := gin.H{"status": "ok"}
	if s.repo != nil {
		if err := s.repo.HealthCheck(c.Request.Context()); err != nil {
			status["status"] = "degraded"
			status["database"] = err.Error()
		} else {
			status["database"] = "ok"
		}
	}
	c.JSON(http.StatusOK, status)
}

type runBacktestRequest struct {
	Symbol string `json:"symbol"`
}

func (s *Server) handleRunBacktest(c *gin.Context) {
	if s.backtester == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "backtesting is not configured"})
		return
	}

	// An empty body falls back to the configured default symbol.
	var req runBacktestRequest
	_ = c.ShouldBindJSON(&req)

	result, err := s.backtester.RunBacktest(c.Request.Context(), req.Symbol)
	if err != nil {
		s.logger.Error().Err(err).Msg("Backtest run failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if s.repo != nil {
		if err := s.repo.SaveResult(c.Request.Context(), result); err != nil {
			s.logger.Error().Err(err).Msg("Failed to persist backtest result")
		}
	}
	if s.reports != nil {
		if err := s.reports.SetResult(c.Request.Context(), result.ID, result); err == nil {
			_ = s.reports.SetTrades(c.Request.Context(), result.ID, result.Trades)
		}
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) handleListResults(c *gin.Context) {
	if s.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "result storage is not configured"})
		return
	}
	results, err := s.repo.ListResults(c.Request.Context(), 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (s *Server) handleGetResult(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid result id"})
		return
	}

	if s.reports != nil {
		var cached backtest.Result
		if err := s.reports.GetResult(c.Request.Context(), id, &cached); err == nil {
			c.JSON(http.StatusOK, cached)
			return
		} else if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn().Err(err).Msg("Report cache unavailable")
		}
	}

	if s.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "result storage is not configured"})
		return
	}
	summary, err := s.repo.GetResult(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "result not found"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) handleGetTrades(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid result id"})
		return
	}

	if s.reports != nil {
		var cached []backtest.Trade
		if err := s.reports.GetTrades(c.Request.Context(), id, &cached); err == nil {
			c.JSON(http.StatusOK, gin.H{"trades": cached})
			return
		}
	}

	if s.repo == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "result storage is not configured"})
		return
	}
	trades, err := s.repo.GetTrades(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if s.reports != nil {
		_ = s.reports.SetTrades(c.Request.Context(), id, trades)
	}
	c.JSON(http.StatusOK, gin.H{"trades": trades})
}

func (s *Server) handleGetParams(c *gin.Context) {
	if s.params == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "parameter store is not configured"})
		return
	}
	params, err := s.params.LoadOrRecover()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"params": params})
}
