package main

import (
	"github.com/gin-gonic/gin"
	"github.com/habitloop/internal/config"
	"github.com/habitloop/internal/db"
	"github.com/habitloop/internal/handler"
	"github.com/habitloop/internal/logging"
	"github.com/habitloop/internal/router"
	"github.com/habitloop/internal/syncstore"
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)

	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}

	// 可选的管理员账号引导
	if err := db.EnsureUser(cfg.SuperRootUserName, cfg.SuperRootPassword); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure root user")
	}

	syncStore := syncstore.NewStore(db.DB, logger)
	api := handler.NewAPI(db.DB, syncStore, logger, cfg.DayBoundary, cfg.SeedSampleHabits)
	defer api.Close()

	// 设置并运行 Gin 服务器
	r := router.SetupRouter(api, cfg.SessionSecret)
	if err := r.Run(cfg.ListenAddr); err != nil {
		logger.Fatal().Err(err).Msg("failed to run server")
	}
}
