package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"speech_arena/internal/api/handlers"
	"speech_arena/internal/service"
	"speech_arena/pkg/config"
)

func SetupRoutes(r *gin.Engine, services *service.Services, cfg *config.Config) {
	// 初始化 handlers
	roomHandler := handlers.NewRoomHandler(services.Room)
	submitHandler := handlers.NewSubmitHandler(services.Room)
	qrHandler := handlers.NewQRHandler(services.Room, cfg.Server.BaseURL)
	wsHandler := handlers.NewWebSocketHandler(services.Events, services.Room)

	// API 路由群組
	api := r.Group("/api")

	// 處理 404 錯誤
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "找不到該路徑",
		})
	})

	// 基本的健康檢查
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	// 房間相關
	rooms := api.Group("/rooms")
	{
		// 主持人操作
		rooms.POST("", roomHandler.CreateRoom)               // 建立房間
		rooms.POST("/:code/start", roomHandler.StartDebate)  // 開始比賽
		rooms.POST("/:code/next-turn", roomHandler.NextTurn) // 換下一位發言
		rooms.POST("/:code/end", roomHandler.EndDebate)      // 結束比賽

		// 參賽者操作
		rooms.POST("/:code/join", roomHandler.JoinRoom)         // 加入房間
		rooms.POST("/:code/submit", submitHandler.SubmitSpeech) // 提交發言錄音

		// 查詢
		rooms.GET("/:code", roomHandler.GetRoom)                   // 取得房間狀態
		rooms.GET("/:code/qr", qrHandler.GetRoomQR)                // 取得加入用 QR code
		rooms.GET("/:code/turn-status", roomHandler.GetTurnStatus) // 查詢是否輪到自己
		rooms.GET("/:code/results", roomHandler.GetResults)        // 查詢最終成績
		rooms.GET("/:code/ws", wsHandler.HandleWebSocket)          // 訂閱房間事件
	}
}
