package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const DefaultMaxBodyBytes = 1 << 20

// MaxBodyBytes 限制请求体大小；超限时绑定失败，由 ez 返回 400
func MaxBodyBytes(n int64) gin.HandlerFunc {
	if n <= 0 {
		n = DefaultMaxBodyBytes
	}
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}
		c.Next()
	}
}
