package http

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"gastos/internal/core"
	"gastos/internal/services"
)

// parseGeneralFilter reads the optional month and year query parameters.
func parseGeneralFilter(c *gin.Context) (services.GeneralFilter, error) {
	f := services.GeneralFilter{Month: sanitizeInput(c.Query("month"))}
	if v := strings.TrimSpace(c.Query("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y <= 0 {
			return f, fmt.Errorf("%w: year %q", core.ErrValidation, v)
		}
		f.Year = y
	}
	return f, nil
}

// pathParam returns a sanitized path parameter.
func pathParam(c *gin.Context, name string) string {
	return sanitizeInput(c.Param(name))
}

// sanitizeInput trims whitespace and drops control characters other than
// tab and newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
