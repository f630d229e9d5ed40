package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	KeyRequestID = "X-Request-ID"
	ctxRequestID = "rid"
)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.Request.Header.Get(KeyRequestID)
		if rid == "" || len(rid) > 128 {
			rid = uuid.NewString()
		}
		c.Writer.Header().Set(KeyRequestID, rid)
		c.Set(ctxRequestID, rid)
		c.Next()
	}
}

func RequestIDFrom(c *gin.Context) string { return c.GetString(ctxRequestID) }
