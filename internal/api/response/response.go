// Package response 定義所有 REST 回應共用的信封格式
package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"backoffice_chat/internal/service"
)

// Response 所有 REST 回應共用的固定信封
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Errors  []string    `json:"errors,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Meta 分頁回應附帶的頁次資訊
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// Success 回傳成功信封
func Success(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Paginated 回傳帶分頁資訊的成功信封
// page 是資料視窗第一筆所在的頁次，以 limit 為頁大小推得
func Paginated(c *gin.Context, message string, data interface{}, total int64, page, limit int) {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    data,
		Meta: &Meta{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	})
}

// Error 回傳失敗信封
func Error(c *gin.Context, status int, message string, errs ...string) {
	c.JSON(status, Response{
		Success: false,
		Message: message,
		Errors:  errs,
	})
}

// ErrorFrom 依服務層錯誤類型對應 HTTP 狀態碼後回傳失敗信封
func ErrorFrom(c *gin.Context, err error) {
	Error(c, statusForError(err), err.Error())
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, service.ErrRoomNotFound),
		errors.Is(err, service.ErrMessageNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNotRoomMember),
		errors.Is(err, service.ErrNotRoomCreator),
		errors.Is(err, service.ErrNotMessageSender),
		errors.Is(err, service.ErrCannotRemoveMember):
		return http.StatusForbidden
	case errors.Is(err, service.ErrSelfDirectMessage),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrReplyWrongRoom):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
