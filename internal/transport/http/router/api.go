package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-tasks/internal/core/config"
	"go-gin-tasks/internal/core/server"
	mdw "go-gin-tasks/internal/transport/http/middleware"
)

type Deps struct {
	Log      *zap.Logger
	HTTP     config.HTTP
	Gate     mdw.Gate
	Registry *Registry
	// Ping 可选，/health 检查下游（DB）
	Ping func(ctx context.Context) error
}

func NewAPIEngine(d Deps) *gin.Engine {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	r := server.NewRouter(d.Log, server.Options{CORSOrigins: d.HTTP.CORSOrigins})

	// 中间件
	r.Use(
		mdw.RequestID(),
		// Timeout 在前：排队等待并发名额也受请求截止时间约束
		mdw.Timeout(time.Duration(d.HTTP.RequestTimeoutSec)*time.Second),
		mdw.ConcurrencyLimit(d.HTTP.MaxInFlight),
		mdw.MaxBodyBytes(d.HTTP.MaxBodyBytes),
		mdw.Metrics(),
		mdw.AccessLog(d.Log),
	)

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		if d.Ping != nil {
			if err := d.Ping(c.Request.Context()); err != nil {
				d.Log.Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"ok": 0})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"ok": 1})
	})
	r.GET("/metrics", mdw.MetricsHandler())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not Found"})
	})

	// 鉴权分组（profile/tasks 必须挂这里，才能拿到 userId）
	public := r.Group("")
	protected := r.Group("")
	protected.Use(d.Gate.Require())

	if d.Registry != nil {
		d.Registry.Mount(public, protected)
	}
	return r
}
