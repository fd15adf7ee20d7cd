package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"backoffice_chat/internal/api"
	"backoffice_chat/internal/config"
	"backoffice_chat/internal/models"
	"backoffice_chat/internal/repository"
	"backoffice_chat/internal/service"
	"backoffice_chat/internal/storage"
	"backoffice_chat/internal/utils"
)

func main() {
	// 載入應用程式配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 設定 JWT 簽章密鑰與有效期限
	utils.Configure(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	// 初始化資料庫連接
	db, err := storage.NewPostgresDB(cfg.DB.Host, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.Port)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// 自動遷移資料庫結構
	if err := db.AutoMigrate(&models.User{}, &models.Room{}, &models.Message{}); err != nil {
		log.Fatalf("Failed to auto migrate database: %v", err)
	}

	// 初始化 repositories 與 services
	repos := repository.NewRepositories(db)
	services := service.NewServices(repos)
	// Gateway 與伺服器同生命週期，關閉時斷開所有連線
	defer services.Gateway.Shutdown()

	// 設置 Gin 路由
	r := gin.Default()
	api.SetupRoutes(r, services, cfg)

	// 啟動伺服器
	if err := r.Run(cfg.Server.Address); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
