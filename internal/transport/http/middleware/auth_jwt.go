package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	resp "go-gin-tasks/internal/transport/http/response"
	"go-gin-tasks/internal/transport/http/session"
)

// KeyUserID is where Require stores the authenticated user id.
const KeyUserID = "userId"

type Verifier interface {
	Verify(token string) (userID string, ok bool)
}

// Gate resolves the caller of a request from its session token.
type Gate struct {
	Transport session.Transport
	Verifier  Verifier
}

func (g Gate) Resolve(r *http.Request) (string, bool) {
	tok := g.Transport.Extract(r)
	if tok == "" {
		return "", false
	}
	return g.Verifier.Verify(tok)
}

// Require aborts with 401 unless the request carries a valid session.
func (g Gate) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := g.Resolve(c.Request)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, resp.Error(http.StatusUnauthorized, resp.MsgUnauthorized))
			return
		}
		c.Set(KeyUserID, uid)
		c.Next()
	}
}

// UserID returns the id stored by Require, or "".
func UserID(c *gin.Context) string { return c.GetString(KeyUserID) }
