package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"backoffice_chat/internal/api/response"
	"backoffice_chat/internal/models"
	"backoffice_chat/internal/service"
)

// MessageHandler 處理與訊息相關的請求
type MessageHandler struct {
	messageService *service.MessageService
	pageSize       int
	searchLimit    int
}

// NewMessageHandler 創建一個新的 MessageHandler 實例
func NewMessageHandler(messageService *service.MessageService, pageSize, searchLimit int) *MessageHandler {
	if pageSize <= 0 {
		pageSize = 50
	}
	if searchLimit <= 0 {
		searchLimit = 20
	}
	return &MessageHandler{
		messageService: messageService,
		pageSize:       pageSize,
		searchLimit:    searchLimit,
	}
}

// ListMessages 分頁取得聊天室的訊息歷史
// 分頁以 limit/offset 為準；meta 的 page 是第一筆回傳資料所在的頁次，
// offset 未對齊頁界時回傳視窗會跨到下一頁
func (h *MessageHandler) ListMessages(c *gin.Context) {
	userID := c.GetString("userID")
	roomID := c.Param("id")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(h.pageSize)))
	if err != nil || limit <= 0 {
		limit = h.pageSize
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	messages, total, err := h.messageService.ListMessages(roomID, userID, limit, offset)
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}

	page := offset/limit + 1
	response.Paginated(c, "成功取得訊息", messages, total, page, limit)
}

// CreateMessageInput 建立訊息請求的結構
type CreateMessageInput struct {
	RoomID      string             `json:"room_id" binding:"required"`
	Content     string             `json:"content" binding:"required"`
	Type        models.MessageType `json:"type"`
	ReplyToID   *string            `json:"reply_to_id"`
	Attachments []string           `json:"attachments"`
	Mentions    []string           `json:"mentions"`
}

// CreateMessage 建立訊息，發送者必須是聊天室成員
// REST 路徑建立的訊息不做即時廣播，客戶端需透過 WebSocket 或重新拉取歷史取得
func (h *MessageHandler) CreateMessage(c *gin.Context) {
	var input CreateMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, "請求格式錯誤", err.Error())
		return
	}

	userID := c.GetString("userID")
	message, err := h.messageService.CreateMessage(userID, service.CreateMessageInput{
		RoomID:      input.RoomID,
		Content:     input.Content,
		Type:        input.Type,
		ReplyToID:   input.ReplyToID,
		Attachments: input.Attachments,
		Mentions:    input.Mentions,
	})
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "成功發送訊息", message)
}

// UpdateMessageInput 編輯訊息請求的結構
type UpdateMessageInput struct {
	Content string `json:"content" binding:"required"`
}

// UpdateMessage 編輯訊息內容，僅限發送者本人
func (h *MessageHandler) UpdateMessage(c *gin.Context) {
	var input UpdateMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, "請求格式錯誤", err.Error())
		return
	}

	userID := c.GetString("userID")
	message, err := h.messageService.EditMessage(c.Param("id"), userID, input.Content)
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}

	response.Success(c, http.StatusOK, "成功更新訊息", message)
}

// DeleteMessage 刪除訊息，預設軟刪除，permanent=true 時硬刪除
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	userID := c.GetString("userID")
	permanent := c.Query("permanent") == "true"

	if err := h.messageService.DeleteMessage(c.Param("id"), userID, permanent); err != nil {
		response.ErrorFrom(c, err)
		return
	}

	response.Success(c, http.StatusOK, "成功刪除訊息", nil)
}

// ReactionInput 表情操作請求的結構
type ReactionInput struct {
	Emoji string `json:"emoji" binding:"required"`
}

// AddReaction 為訊息加上表情
func (h *MessageHandler) AddReaction(c *gin.Context) {
	var input ReactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, "請求格式錯誤", err.Error())
		return
	}

	userID := c.GetString("userID")
	message, err := h.messageService.AddReaction(c.Param("id"), userID, input.Emoji)
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}

	response.Success(c, http.StatusOK, "成功加入表情", message)
}

// RemoveReaction 移除訊息上的表情
func (h *MessageHandler) RemoveReaction(c *gin.Context) {
	var input ReactionInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, "請求格式錯誤", err.Error())
		return
	}

	userID := c.GetString("userID")
	message, err := h.messageService.RemoveReaction(c.Param("id"), userID, input.Emoji)
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}

	response.Success(c, http.StatusOK, "成功移除表情", message)
}

// SearchMessages 搜尋訊息內容，可選擇限定單一聊天室
func (h *MessageHandler) SearchMessages(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		response.Error(c, http.StatusBadRequest, "query 為必填參數")
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(h.searchLimit)))
	if err != nil || limit <= 0 {
		limit = h.searchLimit
	}

	messages, err := h.messageService.SearchMessages(query, c.Query("roomId"), limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "搜尋訊息失敗")
		return
	}

	response.Success(c, http.StatusOK, "搜尋完成", messages)
}

// GetChatStats 取得整體或單一聊天室的統計摘要
func (h *MessageHandler) GetChatStats(c *gin.Context) {
	stats, err := h.messageService.GetChatStats(c.Query("roomId"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "取得統計資料失敗")
		return
	}

	response.Success(c, http.StatusOK, "成功取得統計資料", stats)
}

// GetRoomActivity 取得聊天室近 N 天的每日訊息數
func (h *MessageHandler) GetRoomActivity(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "7"))
	if err != nil || days <= 0 {
		days = 7
	}

	activity, err := h.messageService.GetRoomActivity(c.Param("id"), days)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "取得聊天室活躍度失敗")
		return
	}

	response.Success(c, http.StatusOK, "成功取得聊天室活躍度", activity)
}

// GetUserActivity 取得指定使用者近 N 天的活躍度統計
func (h *MessageHandler) GetUserActivity(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days <= 0 {
		days = 30
	}

	activity, err := h.messageService.GetUserActivity(c.Param("id"), days)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "取得使用者活躍度失敗")
		return
	}

	response.Success(c, http.StatusOK, "成功取得使用者活躍度", activity)
}

// GetMyActivity 取得目前使用者近 N 天的活躍度統計
func (h *MessageHandler) GetMyActivity(c *gin.Context) {
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days <= 0 {
		days = 30
	}

	userID := c.GetString("userID")
	activity, err := h.messageService.GetUserActivity(userID, days)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "取得使用者活躍度失敗")
		return
	}

	response.Success(c, http.StatusOK, "成功取得使用者活躍度", activity)
}
