package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gastos/internal/charts"
	"gastos/internal/log"
)

// chartMonths is how many months the bar chart shows.
const chartMonths = 12

func (s *Server) handleHealthReport(c *gin.Context) {
	h, err := s.ledger.Health(c.Request.Context(), owner(c))
	if err != nil {
		s.respondError(c, log.OpReport, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"health": h})
}

func (s *Server) handlePeriodsReport(c *gin.Context) {
	periods, err := s.ledger.Periods(c.Request.Context(), owner(c))
	if err != nil {
		s.respondError(c, log.OpReport, err)
		return
	}
	c.JSON(http.StatusOK, periods)
}

func (s *Server) handleStatisticsReport(c *gin.Context) {
	stats, err := s.ledger.Statistics(c.Request.Context(), owner(c))
	if err != nil {
		s.respondError(c, log.OpReport, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleCategoriesReport(c *gin.Context) {
	totals, err := s.ledger.Categories(c.Request.Context(), owner(c))
	if err != nil {
		s.respondError(c, log.OpReport, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

func (s *Server) handleMonthsReport(c *gin.Context) {
	groups, err := s.ledger.Months(c.Request.Context(), owner(c))
	if err != nil {
		s.respondError(c, log.OpReport, err)
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (s *Server) handleCategoriesChart(c *gin.Context) {
	totals, err := s.ledger.Categories(c.Request.Context(), owner(c))
	if err != nil {
		s.respondError(c, log.OpReport, err)
		return
	}
	s.writePNG(c, func() ([]byte, error) { return charts.CategoryPie(totals) })
}

func (s *Server) handleMonthsChart(c *gin.Context) {
	groups, err := s.ledger.Months(c.Request.Context(), owner(c))
	if err != nil {
		s.respondError(c, log.OpReport, err)
		return
	}
	s.writePNG(c, func() ([]byte, error) { return charts.MonthBars(groups, chartMonths) })
}

func (s *Server) writePNG(c *gin.Context, render func() ([]byte, error)) {
	img, err := render()
	if errors.Is(err, charts.ErrNoData) {
		c.Status(http.StatusNoContent)
		return
	}
	if err != nil {
		s.respondError(c, log.OpReport, err)
		return
	}
	c.Data(http.StatusOK, "image/png", img)
}
