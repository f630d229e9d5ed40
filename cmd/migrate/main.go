package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"go-gin-tasks/internal/core/config"
	"go-gin-tasks/internal/core/database"
	"go-gin-tasks/internal/core/logger"
	"go-gin-tasks/internal/repo"
)

// migrate 建表后退出，适用于 API 关闭 db.autoMigrate 的部署
func main() {
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		panic(err)
	}
	log, cleanup := logger.New(logger.Options{Level: cfg.Log.Level, JSON: cfg.Log.JSON})
	defer cleanup()

	if cfg.DB.DSN == "" {
		log.Fatal("db.dsn is required")
	}

	db, err := database.NewGorm(database.Opts{
		Driver:             cfg.DB.Driver,
		DSN:                cfg.DB.DSN,
		Username:           cfg.DB.Username,
		Password:           cfg.DB.Password,
		MaxOpenConns:       1,
		ConnMaxLifetimeMin: cfg.DB.ConnMaxLifetimeMin,
		Logger:             logger.NewGorm(log, cfg.DB.LogLevel),
	})
	if err != nil {
		log.Fatal("db open", zap.String("dsn", database.MaskDSN(cfg.DB.DSN)), zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	start := time.Now()
	if err := repo.Migrate(db.WithContext(ctx)); err != nil {
		log.Fatal("migrate failed", zap.Error(err))
	}
	log.Info("migrate done",
		zap.String("driver", cfg.DB.Driver),
		zap.String("dsn", database.MaskDSN(cfg.DB.DSN)),
		zap.Duration("took", time.Since(start)),
	)
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
