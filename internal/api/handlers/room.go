package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"backoffice_chat/internal/api/response"
	"backoffice_chat/internal/models"
	"backoffice_chat/internal/service"
)

// RoomHandler 處理與聊天室相關的請求
type RoomHandler struct {
	roomService *service.RoomService
}

// NewRoomHandler 創建一個新的 RoomHandler 實例
func NewRoomHandler(roomService *service.RoomService) *RoomHandler {
	return &RoomHandler{roomService: roomService}
}

// ListRooms 取得目前使用者的聊天室列表
func (h *RoomHandler) ListRooms(c *gin.Context) {
	userID := c.GetString("userID")

	rooms, err := h.roomService.ListRooms(userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "取得聊天室列表失敗")
		return
	}

	response.Success(c, http.StatusOK, "成功取得聊天室列表", rooms)
}

// GetRoom 取得單一聊天室資訊
func (h *RoomHandler) GetRoom(c *gin.Context) {
	userID := c.GetString("userID")

	room, err := h.roomService.GetRoom(c.Param("id"), userID)
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}

	response.Success(c, http.StatusOK, "成功取得聊天室", room)
}

// CreateRoomInput 建立聊天室請求的結構
type CreateRoomInput struct {
	Name         string               `json:"name" binding:"required"`
	Description  string               `json:"description"`
	Type         models.RoomType      `json:"type"`
	IsPrivate    bool                 `json:"is_private"`
	Participants []string             `json:"participants"`
	Avatar       string               `json:"avatar"`
	Settings     *models.RoomSettings `json:"settings"`
}

// CreateRoom 建立新聊天室，建立者會自動成為參與者
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var input CreateRoomInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, "請求格式錯誤", err.Error())
		return
	}

	userID := c.GetString("userID")
	room, err := h.roomService.CreateRoom(userID, service.CreateRoomInput{
		Name:         input.Name,
		Description:  input.Description,
		Type:         input.Type,
		IsPrivate:    input.IsPrivate,
		Participants: input.Participants,
		Avatar:       input.Avatar,
		Settings:     input.Settings,
	})
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "建立聊天室失敗")
		return
	}

	response.Success(c, http.StatusCreated, "成功建立聊天室", room)
}

// UpdateRoomInput 更新聊天室請求的結構，未帶的欄位不變更
type UpdateRoomInput struct {
	Name        *string              `json:"name"`
	Description *string              `json:"description"`
	IsPrivate   *bool                `json:"is_private"`
	Avatar      *string              `json:"avatar"`
	Settings    *models.RoomSettings `json:"settings"`
}

// UpdateRoom 更新聊天室資料，僅限建立者
func (h *RoomHandler) UpdateRoom(c *gin.Context) {
	var input UpdateRoomInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, "請求格式錯誤", err.Error())
		return
	}

	userID := c.GetString("userID")
	room, err := h.roomService.UpdateRoom(c.Param("id"), userID, service.UpdateRoomInput{
		Name:        input.Name,
		Description: input.Description,
		IsPrivate:   input.IsPrivate,
		Avatar:      input.Avatar,
		Settings:    input.Settings,
	})
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}

	response.Success(c, http.StatusOK, "成功更新聊天室", room)
}

// DeleteRoom 刪除聊天室與其所有訊息，僅限建立者
func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	userID := c.GetString("userID")

	if err := h.roomService.DeleteRoom(c.Param("id"), userID); err != nil {
		response.ErrorFrom(c, err)
		return
	}

	response.Success(c, http.StatusOK, "成功刪除聊天室", nil)
}

// ParticipantInput 參與者操作請求的結構
type ParticipantInput struct {
	UserID string `json:"user_id" binding:"required"`
}

// AddParticipant 加入參與者，操作者必須是聊天室成員
func (h *RoomHandler) AddParticipant(c *gin.Context) {
	var input ParticipantInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, "請求格式錯誤", err.Error())
		return
	}

	userID := c.GetString("userID")
	room, err := h.roomService.AddParticipant(c.Param("id"), userID, input.UserID)
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}

	response.Success(c, http.StatusOK, "成功加入參與者", room)
}

// RemoveParticipant 移除參與者，限本人或建立者
func (h *RoomHandler) RemoveParticipant(c *gin.Context) {
	var input ParticipantInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, "請求格式錯誤", err.Error())
		return
	}

	userID := c.GetString("userID")
	room, err := h.roomService.RemoveParticipant(c.Param("id"), userID, input.UserID)
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}

	response.Success(c, http.StatusOK, "成功移除參與者", room)
}

// DirectMessageInput 建立私訊請求的結構
type DirectMessageInput struct {
	UserID string `json:"user_id" binding:"required"`
}

// CreateDirectMessage 取得或建立與另一位使用者的私訊聊天室
func (h *RoomHandler) CreateDirectMessage(c *gin.Context) {
	var input DirectMessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, "請求格式錯誤", err.Error())
		return
	}

	userID := c.GetString("userID")
	room, err := h.roomService.GetOrCreateDirectRoom(userID, input.UserID)
	if err != nil {
		response.ErrorFrom(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "成功建立私訊聊天室", room)
}
