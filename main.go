package main

import (
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"speech_arena/internal/ai"
	"speech_arena/internal/api"
	"speech_arena/internal/middleware"
	"speech_arena/internal/repository"
	"speech_arena/internal/service"
	"speech_arena/pkg/config"
)

func main() {
	// 先讀 .env（可選），再載入應用程式配置
	// AI 後端的真實/模擬切換在這裡解析一次，之後不再改變
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化房間存放層
	// 房間只存在記憶體中，到期由背景程序回收
	repo := repository.NewMemoryRoomRepository(cfg.RoomTTL())
	defer repo.Close()

	// 依配置選擇 AI 後端：有金鑰用真實後端，否則用模擬後端
	backend := ai.NewBackend(cfg, log)

	// 初始化服務
	services := service.NewServices(repo, backend, log, cfg.AITimeout())

	// 設置 Gin 路由
	r := gin.New()
	r.Use(middleware.RequestLogger(log), gin.Recovery(), middleware.CORS())
	api.SetupRoutes(r, services, cfg)

	// 啟動伺服器
	log.WithField("address", cfg.Server.Address).Info("伺服器啟動")
	if err := r.Run(cfg.Server.Address); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
