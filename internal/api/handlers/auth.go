package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"backoffice_chat/internal/api/response"
	"backoffice_chat/internal/models"
	"backoffice_chat/internal/service"
	"backoffice_chat/internal/utils"
)

// AuthHandler 處理與認證相關的請求
type AuthHandler struct {
	userService *service.UserService
}

// NewAuthHandler 創建一個新的 AuthHandler 實例
func NewAuthHandler(userService *service.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// RegisterInput 定義註冊請求的結構
type RegisterInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginInput 定義登入請求的結構
type LoginInput struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register 處理使用者註冊
func (h *AuthHandler) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, "請求格式錯誤", err.Error())
		return
	}

	// 對密碼進行加密
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "建立使用者失敗")
		return
	}

	user := models.User{
		Name:     input.Name,
		Email:    input.Email,
		Password: string(hashedPassword),
	}
	if err := h.userService.CreateUser(&user); err != nil {
		response.ErrorFrom(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "使用者註冊成功", user)
}

// Login 處理使用者登入
func (h *AuthHandler) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, "請求格式錯誤", err.Error())
		return
	}

	user, err := h.userService.GetUserByEmail(input.Email)
	if err != nil {
		response.Error(c, http.StatusUnauthorized, service.ErrInvalidCredentials.Error())
		return
	}

	// 驗證密碼
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		response.Error(c, http.StatusUnauthorized, service.ErrInvalidCredentials.Error())
		return
	}

	// 生成 JWT token
	token, err := utils.GenerateToken(user.ID, user.Name)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "產生 token 失敗")
		return
	}

	response.Success(c, http.StatusOK, "登入成功", gin.H{
		"token": token,
		"user":  user,
	})
}
