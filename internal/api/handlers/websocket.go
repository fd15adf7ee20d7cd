package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"backoffice_chat/internal/api/response"
	"backoffice_chat/internal/service"
	"backoffice_chat/internal/utils"
)

// 定義 WebSocket 升級器
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 注意：在生產環境中，應該檢查 origin
	},
}

// WebSocketHandler 處理 WebSocket 連線與線上狀態查詢
type WebSocketHandler struct {
	gateway *service.Gateway
}

// NewWebSocketHandler 創建一個新的 WebSocketHandler 實例
func NewWebSocketHandler(gateway *service.Gateway) *WebSocketHandler {
	return &WebSocketHandler{gateway: gateway}
}

// HandleWebSocket 驗證 token 後升級連線並交給 Gateway 處理
// 瀏覽器的 WebSocket API 無法自訂標頭，token 改由 query 參數傳遞
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && parts[0] == "Bearer" {
				token = parts[1]
			}
		}
	}
	if token == "" {
		response.Error(c, http.StatusUnauthorized, "缺少 token")
		return
	}

	claims, err := utils.ParseToken(token)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, "無效或過期的 token")
		return
	}

	// 升級 HTTP 連線為 WebSocket 連線
	// 升級失敗時 gorilla 已寫入 HTTP 錯誤回應，不能再寫一次
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	h.gateway.HandleConnection(conn, claims.UserID, claims.Name)
}

// OnlineUsers 取得目前在線使用者的 ID 列表
func (h *WebSocketHandler) OnlineUsers(c *gin.Context) {
	response.Success(c, http.StatusOK, "成功取得在線使用者", h.gateway.OnlineUsers())
}
