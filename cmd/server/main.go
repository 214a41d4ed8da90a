package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/SlpAus/vote-slots-backend/api"
	"github.com/SlpAus/vote-slots-backend/internal/platform/config"
	"github.com/SlpAus/vote-slots-backend/internal/platform/database"
	"github.com/SlpAus/vote-slots-backend/internal/platform/health"
	"github.com/SlpAus/vote-slots-backend/internal/platform/shutdown"
	"github.com/SlpAus/vote-slots-backend/internal/platform/startup"
	"github.com/SlpAus/vote-slots-backend/internal/snapshot"
	"github.com/SlpAus/vote-slots-backend/internal/votesource"
	"github.com/SlpAus/vote-slots-backend/pkg/lifecycle"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .env 文件是可选的，凭据通常通过它注入
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("配置加载失败: %v", err))
	}
	gin.SetMode(cfg.Server.Mode)

	database.InitDB(cfg.Database)
	database.InitRedis(cfg.Database.Redis)

	// 外部投票数据源：进程级单例，首次使用时惰性建连
	votesource.Use(votesource.NewSheetsSource(cfg.VoteSource))

	// 执行应用首次启动初始化流程
	if err := startup.InitializeApplication(); err != nil {
		panic(fmt.Sprintf("应用初始化失败，无法启动: %v", err))
	}

	// 阻塞式执行一次启动后健康检查
	fmt.Println("正在执行启动后健康检查...")
	health.PerformCheck()

	// 启动后台服务
	manager := lifecycle.NewManager()

	healthHandle, err := manager.NewServiceHandle("redis-health-checker")
	if err != nil {
		panic(err)
	}
	go health.StartRedisHealthCheck(healthHandle)

	samplerHandle, err := manager.NewServiceHandle("vote-snapshot-sampler")
	if err != nil {
		panic(err)
	}
	go snapshot.StartSampler(samplerHandle)

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.Cors.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api.SetupRoutes(r)

	server := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	go func() {
		fmt.Printf("服务器已准备就绪，开始监听 %s\n", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic("Failed to start server: " + err.Error())
		}
	}()

	coordinator := shutdown.NewCoordinator(manager)
	coordinator.ListenForSignalsAndShutdown(server)
}
