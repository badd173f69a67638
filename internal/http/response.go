package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"gastos/internal/core"
	"gastos/internal/log"
)

// statusFor maps a domain error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrValidation),
		errors.Is(err, core.ErrParse),
		errors.Is(err, core.ErrDivision):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrConstraint):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as JSON. Unexpected errors are logged and hidden
// from the client.
func (s *Server) respondError(c *gin.Context, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.NewStructuredLogger(log.FromContext(c.Request.Context())).LogError(
			c.Request.Context(), "Request failed", err, log.ComponentHTTP, op,
			log.NewFields().WithOwner(owner(c)))
		c.AbortWithStatusJSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// badRequest reports an undecodable body.
func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
}
