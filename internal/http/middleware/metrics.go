package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fid098/ICHack-26-Security-Game/internal/observability"
)

// Metrics instruments HTTP request counts when metrics are enabled.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		m.ObserveAPI(c.Request.Method, route, strconv.Itoa(c.Writer.Status()))
	}
}
