package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"backoffice_chat/internal/api/handlers"
	"backoffice_chat/internal/api/response"
	"backoffice_chat/internal/config"
	"backoffice_chat/internal/middleware"
	"backoffice_chat/internal/service"
)

func SetupRoutes(r *gin.Engine, services *service.Services, cfg *config.Config) {
	// 初始化 handlers
	authHandler := handlers.NewAuthHandler(services.User)
	roomHandler := handlers.NewRoomHandler(services.Room)
	messageHandler := handlers.NewMessageHandler(services.Message, cfg.Chat.PageSize, cfg.Chat.SearchLimit)
	wsHandler := handlers.NewWebSocketHandler(services.Gateway)

	// API 路由群組
	api := r.Group("/api")

	// 處理 404 錯誤
	r.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, "找不到該路徑")
	})

	// 公開路由
	{
		// 使用者認證相關
		api.POST("/register", authHandler.Register)
		api.POST("/login", authHandler.Login)

		// 基本的健康檢查
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// WebSocket 連線點，token 在 handler 內驗證
		api.GET("/ws", wsHandler.HandleWebSocket)
	}

	// 需要驗證的路由
	authorized := api.Group("/")
	authorized.Use(middleware.AuthMiddleware())
	authorized.Use(middleware.RateLimit(cfg.Chat.RateRPS, cfg.Chat.RateBurst))
	{
		// 聊天室相關
		rooms := authorized.Group("/rooms")
		{
			rooms.GET("", roomHandler.ListRooms)
			rooms.POST("", roomHandler.CreateRoom)
			rooms.GET("/:id", roomHandler.GetRoom)
			rooms.PUT("/:id", roomHandler.UpdateRoom)
			rooms.DELETE("/:id", roomHandler.DeleteRoom)

			// 參與者管理
			rooms.POST("/:id/participants", roomHandler.AddParticipant)
			rooms.DELETE("/:id/participants", roomHandler.RemoveParticipant)

			// 訊息歷史與統計
			rooms.GET("/:id/messages", messageHandler.ListMessages)
			rooms.GET("/:id/activity", messageHandler.GetRoomActivity)
		}

		// 私訊
		authorized.POST("/direct-message", roomHandler.CreateDirectMessage)

		// 訊息相關
		messages := authorized.Group("/messages")
		{
			messages.GET("/search", messageHandler.SearchMessages)
			messages.POST("", messageHandler.CreateMessage)
			messages.PUT("/:id", messageHandler.UpdateMessage)
			messages.DELETE("/:id", messageHandler.DeleteMessage)
			messages.POST("/:id/reactions", messageHandler.AddReaction)
			messages.DELETE("/:id/reactions", messageHandler.RemoveReaction)
		}

		// 統計報表
		authorized.GET("/chat/stats", messageHandler.GetChatStats)
		authorized.GET("/users/:id/activity", messageHandler.GetUserActivity)
		authorized.GET("/activity/my", messageHandler.GetMyActivity)

		// 線上狀態
		authorized.GET("/presence/online", wsHandler.OnlineUsers)
	}
}
