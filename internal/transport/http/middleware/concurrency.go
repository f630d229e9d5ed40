package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/semaphore"

	resp "go-gin-tasks/internal/transport/http/response"
)

// ConcurrencyLimit 限制同时在处理的请求数（保护 DB 下游），等待到请求 ctx 结束则 503
func ConcurrencyLimit(max int64) gin.HandlerFunc {
	if max <= 0 {
		max = 300
	}
	sem := semaphore.NewWeighted(max)
	return func(c *gin.Context) {
		if err := sem.Acquire(c.Request.Context(), 1); err != nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, resp.Error(http.StatusServiceUnavailable, ""))
			return
		}
		defer sem.Release(1)
		c.Next()
	}
}
