package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "go.uber.org/automaxprocs"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"go-gin-tasks/internal/core/auth"
	"go-gin-tasks/internal/core/cache"
	"go-gin-tasks/internal/core/config"
	"go-gin-tasks/internal/core/database"
	"go-gin-tasks/internal/core/logger"
	"go-gin-tasks/internal/core/server"
	"go-gin-tasks/internal/repo"
	"go-gin-tasks/internal/service"
	"go-gin-tasks/internal/transport/http/handler"
	mdw "go-gin-tasks/internal/transport/http/middleware"
	"go-gin-tasks/internal/transport/http/router"
	"go-gin-tasks/internal/transport/http/session"
	"go-gin-tasks/pkg/utils"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		panic(err)
	}

	log, cleanup := logger.New(logger.Options{
		Level:       cfg.Log.Level,
		JSON:        cfg.Log.JSON,
		AddCaller:   true,
		Development: !cfg.IsProduction(),
		Rotate: logger.FileRotate{
			Enable:     cfg.Log.File.Enable,
			Filename:   cfg.Log.File.Filename,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	})
	defer cleanup()
	defer logger.RedirectStdLog(log, zapcore.InfoLevel)()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}
	generated, err := cfg.EnsureSecret()
	if err != nil {
		log.Fatal("jwt secret", zap.Error(err))
	}
	if generated {
		log.Warn("jwt.secret not set, using a random per-process secret; sessions will not survive a restart")
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// 数据库：首次使用时打开，main 持有一个引用
	db := database.NewProvider(func() (*gorm.DB, error) {
		return database.NewGorm(database.Opts{
			Driver:             cfg.DB.Driver,
			DSN:                cfg.DB.DSN,
			Username:           cfg.DB.Username,
			Password:           cfg.DB.Password,
			MaxOpenConns:       cfg.DB.MaxOpenConns,
			MaxIdleConns:       cfg.DB.MaxIdleConns,
			ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
			Logger:             logger.NewGorm(log, cfg.DB.LogLevel),
		})
	}, func(g *gorm.DB) error {
		if !cfg.DB.AutoMigrate {
			return nil
		}
		if err := repo.Migrate(g); err != nil {
			return err
		}
		log.Info("automigrate done")
		return nil
	})
	db.Retain()
	defer func() {
		if err := db.Release(); err != nil {
			log.Warn("db close", zap.Error(err))
		}
	}()

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	err = db.Ping(startCtx)
	cancel()
	if err != nil {
		log.Fatal("db open", zap.String("driver", cfg.DB.Driver), zap.String("dsn", database.MaskDSN(cfg.DB.DSN)), zap.Error(err))
	}
	log.Info("database connected", zap.String("driver", cfg.DB.Driver), zap.String("dsn", database.MaskDSN(cfg.DB.DSN)))

	users, tasks := repo.NewUserRepo(db), repo.NewTaskRepo(db)

	// Redis 可选：未配置地址则不缓存资料
	var profiles service.ProfileCache
	if cfg.Redis.Addr != "" {
		c := cache.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer c.Close()
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := c.Ping(pingCtx); err != nil {
			log.Warn("redis unreachable, profile reads fall back to the database", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		cancel()
		profiles = cache.NewProfileCache(c, time.Duration(cfg.Redis.ProfileTTLSec)*time.Second)
	}

	jwter := &auth.JWTer{
		Secret: []byte(cfg.JWT.Secret),
		Issuer: cfg.JWT.Issuer,
		TTL:    auth.SessionTTL,
	}
	sessions := session.Transport{CookieName: cfg.Session.CookieName, Secure: cfg.IsProduction()}
	hasher := utils.NewHasher(cfg.Auth.BcryptCost, cfg.Auth.MaxConcurrentHashes)

	reg := &router.Registry{}
	reg.Register(
		handler.NewAuthHandler(service.NewAuthService(users, hasher, jwter, log), sessions, log),
		handler.NewProfileHandler(service.NewProfileService(users, profiles, log), log),
		handler.NewTaskHandler(service.NewTaskService(tasks), log),
	)

	r := router.NewAPIEngine(router.Deps{
		Log:      log,
		HTTP:     cfg.App.HTTP,
		Gate:     mdw.Gate{Transport: sessions, Verifier: jwter},
		Registry: reg,
		Ping:     db.Ping,
	})

	// HTTP Server
	addr := server.Addr(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	srv := server.BuildServer(
		addr, r,
		time.Duration(cfg.App.HTTP.ReadTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.WriteTimeoutSec)*time.Second,
		time.Duration(cfg.App.HTTP.IdleTimeoutSec)*time.Second,
	)

	baseURL := server.BaseURL(cfg.App.HTTP.Host, cfg.App.HTTP.Port)
	log.Info("task api starting",
		zap.String("env", cfg.App.Env),
		zap.String("addr", addr),
		zap.String("open", baseURL),
		zap.String("health", baseURL+"/health"),
		zap.Int("bcrypt_cost", hasher.Cost()),
	)

	// 异步启动
	go func() {
		if err := server.StartHTTP(srv, log); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("task api start FAILED", zap.Error(err))
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
	log.Info("task api stopped gracefully")
}
