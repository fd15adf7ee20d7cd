package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"backoffice_chat/internal/api/response"
	"backoffice_chat/internal/config"
	"backoffice_chat/internal/models"
	"backoffice_chat/internal/repository"
	"backoffice_chat/internal/service"
	"backoffice_chat/internal/storage"
	"backoffice_chat/internal/utils"
)

// envelope 解析 REST 回應信封，Data 留待個別測試再解碼
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
	Meta    *response.Meta  `json:"meta"`
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	utils.Configure("test-secret", 24)
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	db := &storage.PostgresDB{DB: gdb}
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Room{}, &models.Message{}))

	services := service.NewServices(repository.NewRepositories(db))
	cfg := &config.Config{
		Chat: config.ChatConfig{PageSize: 50, SearchLimit: 20, RateRPS: 1000, RateBurst: 1000},
	}

	r := gin.New()
	SetupRoutes(r, services, cfg)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	return w.Code, env
}

// registerAndLogin 註冊並登入一位使用者，回傳其 ID 與 token
func registerAndLogin(t *testing.T, r *gin.Engine, name, email string) (string, string) {
	t.Helper()

	status, env := doJSON(t, r, http.MethodPost, "/api/register", "", gin.H{
		"name":     name,
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, status)
	var user models.User
	require.NoError(t, json.Unmarshal(env.Data, &user))

	status, env = doJSON(t, r, http.MethodPost, "/api/login", "", gin.H{
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, status)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &login))
	require.NotEmpty(t, login.Token)

	return user.ID, login.Token
}

func TestRegisterAndLogin(t *testing.T) {
	r := newTestRouter(t)

	status, env := doJSON(t, r, http.MethodPost, "/api/register", "", gin.H{
		"name":     "Alice",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.True(t, env.Success)
	// 密碼不能出現在回應中
	assert.NotContains(t, string(env.Data), "secret123")
	assert.NotContains(t, string(env.Data), "password")

	// 重複的 email 註冊失敗
	status, env = doJSON(t, r, http.MethodPost, "/api/register", "", gin.H{
		"name":     "Alice Again",
		"email":    "alice@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.False(t, env.Success)

	// 密碼太短被擋在綁定層
	status, _ = doJSON(t, r, http.MethodPost, "/api/register", "", gin.H{
		"name":     "Bob",
		"email":    "bob@example.com",
		"password": "123",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	// 密碼錯誤
	status, _ = doJSON(t, r, http.MethodPost, "/api/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doJSON(t, r, http.MethodPost, "/api/login", "", gin.H{
		"email":    "alice@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusOK, status)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter(t)

	status, _ := doJSON(t, r, http.MethodGet, "/api/rooms", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = doJSON(t, r, http.MethodGet, "/api/rooms", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRoomAndMessageFlow(t *testing.T) {
	r := newTestRouter(t)

	aliceID, aliceToken := registerAndLogin(t, r, "Alice", "alice@example.com")
	bobID, bobToken := registerAndLogin(t, r, "Bob", "bob@example.com")

	// 建立聊天室
	status, env := doJSON(t, r, http.MethodPost, "/api/rooms", aliceToken, gin.H{
		"name":        "General",
		"description": "daily chatter",
	})
	require.Equal(t, http.StatusCreated, status)
	var room models.Room
	require.NoError(t, json.Unmarshal(env.Data, &room))
	require.NotEmpty(t, room.ID)

	// 非成員看不到聊天室
	status, _ = doJSON(t, r, http.MethodGet, "/api/rooms/"+room.ID, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// 加入參與者後就看得到
	status, _ = doJSON(t, r, http.MethodPost, "/api/rooms/"+room.ID+"/participants", aliceToken, gin.H{
		"user_id": bobID,
	})
	require.Equal(t, http.StatusOK, status)

	status, env = doJSON(t, r, http.MethodGet, "/api/rooms", bobToken, nil)
	require.Equal(t, http.StatusOK, status)
	var rooms []models.Room
	require.NoError(t, json.Unmarshal(env.Data, &rooms))
	require.Len(t, rooms, 1)
	assert.Equal(t, "Alice", rooms[0].CreatorName)

	// 發送訊息
	status, env = doJSON(t, r, http.MethodPost, "/api/messages", bobToken, gin.H{
		"room_id": room.ID,
		"content": "hello everyone",
	})
	require.Equal(t, http.StatusCreated, status)
	var message models.Message
	require.NoError(t, json.Unmarshal(env.Data, &message))
	assert.Equal(t, "Bob", message.SenderName)

	// 分頁取得訊息歷史
	status, env = doJSON(t, r, http.MethodGet, "/api/rooms/"+room.ID+"/messages", aliceToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, env.Meta)
	assert.Equal(t, 1, env.Meta.Page)
	assert.Equal(t, 50, env.Meta.Limit)
	assert.EqualValues(t, 1, env.Meta.Total)
	assert.Equal(t, 1, env.Meta.TotalPages)

	// 搜尋訊息
	status, env = doJSON(t, r, http.MethodGet, "/api/messages/search?query=HELLO", aliceToken, nil)
	require.Equal(t, http.StatusOK, status)
	var found []models.Message
	require.NoError(t, json.Unmarshal(env.Data, &found))
	require.Len(t, found, 1)
	assert.Equal(t, "hello everyone", found[0].Content)

	// query 為必填
	status, _ = doJSON(t, r, http.MethodGet, "/api/messages/search", aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	// 表情
	status, env = doJSON(t, r, http.MethodPost, "/api/messages/"+message.ID+"/reactions", aliceToken, gin.H{
		"emoji": "👍",
	})
	require.Equal(t, http.StatusOK, status)
	var reacted models.Message
	require.NoError(t, json.Unmarshal(env.Data, &reacted))
	assert.Contains(t, reacted.Reactions["👍"], aliceID)

	status, env = doJSON(t, r, http.MethodDelete, "/api/messages/"+message.ID+"/reactions", aliceToken, gin.H{
		"emoji": "👍",
	})
	require.Equal(t, http.StatusOK, status)
	var cleared models.Message
	require.NoError(t, json.Unmarshal(env.Data, &cleared))
	assert.Empty(t, cleared.Reactions)

	// 只有發送者能編輯
	status, _ = doJSON(t, r, http.MethodPut, "/api/messages/"+message.ID, aliceToken, gin.H{
		"content": "hijacked",
	})
	assert.Equal(t, http.StatusForbidden, status)

	status, env = doJSON(t, r, http.MethodPut, "/api/messages/"+message.ID, bobToken, gin.H{
		"content": "hello (edited)",
	})
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &message))
	assert.True(t, message.IsEdited)

	// 軟刪除保留資料列並覆寫內容
	status, _ = doJSON(t, r, http.MethodDelete, "/api/messages/"+message.ID, bobToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = doJSON(t, r, http.MethodGet, "/api/rooms/"+room.ID+"/messages", aliceToken, nil)
	require.Equal(t, http.StatusOK, status)
	var history []models.Message
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 1)
	assert.Equal(t, models.DeletedMessageContent, history[0].Content)
	assert.True(t, history[0].IsDeleted)

	// 硬刪除直接移除資料列
	status, _ = doJSON(t, r, http.MethodDelete, "/api/messages/"+message.ID+"?permanent=true", bobToken, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = doJSON(t, r, http.MethodGet, "/api/rooms/"+room.ID+"/messages", aliceToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &history))
	assert.Empty(t, history)
}

func TestDirectMessageEndpoint(t *testing.T) {
	r := newTestRouter(t)

	_, aliceToken := registerAndLogin(t, r, "Alice", "alice@example.com")
	bobID, bobToken := registerAndLogin(t, r, "Bob", "bob@example.com")

	status, env := doJSON(t, r, http.MethodPost, "/api/direct-message", aliceToken, gin.H{
		"user_id": bobID,
	})
	require.Equal(t, http.StatusCreated, status)
	var room models.Room
	require.NoError(t, json.Unmarshal(env.Data, &room))
	assert.Equal(t, models.RoomTypeDirect, room.Type)
	assert.Equal(t, "Alice, Bob", room.Name)

	// 重複呼叫回傳同一間聊天室
	status, env = doJSON(t, r, http.MethodPost, "/api/direct-message", aliceToken, gin.H{
		"user_id": bobID,
	})
	require.Equal(t, http.StatusCreated, status)
	var again models.Room
	require.NoError(t, json.Unmarshal(env.Data, &again))
	assert.Equal(t, room.ID, again.ID)

	// 對自己發起私訊是錯誤
	status, _ = doJSON(t, r, http.MethodPost, "/api/direct-message", bobToken, gin.H{
		"user_id": bobID,
	})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestStatsAndPresenceEndpoints(t *testing.T) {
	r := newTestRouter(t)

	aliceID, aliceToken := registerAndLogin(t, r, "Alice", "alice@example.com")

	status, env := doJSON(t, r, http.MethodPost, "/api/rooms", aliceToken, gin.H{"name": "General"})
	require.Equal(t, http.StatusCreated, status)
	var room models.Room
	require.NoError(t, json.Unmarshal(env.Data, &room))

	for i := 0; i < 3; i++ {
		status, _ = doJSON(t, r, http.MethodPost, "/api/messages", aliceToken, gin.H{
			"room_id": room.ID,
			"content": fmt.Sprintf("message %d", i),
		})
		require.Equal(t, http.StatusCreated, status)
	}

	status, env = doJSON(t, r, http.MethodGet, "/api/chat/stats", aliceToken, nil)
	require.Equal(t, http.StatusOK, status)
	var stats service.ChatStats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.EqualValues(t, 3, stats.Messages.Total)
	assert.EqualValues(t, 1, stats.Rooms.Total)

	status, env = doJSON(t, r, http.MethodGet, "/api/activity/my", aliceToken, nil)
	require.Equal(t, http.StatusOK, status)
	var activity service.UserActivity
	require.NoError(t, json.Unmarshal(env.Data, &activity))
	assert.EqualValues(t, 3, activity.MessagesSent)

	status, env = doJSON(t, r, http.MethodGet, "/api/users/"+aliceID+"/activity", aliceToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &activity))
	assert.EqualValues(t, 1, activity.RoomsParticipated)

	// 沒有任何 WebSocket 連線時在線名單為空
	status, env = doJSON(t, r, http.MethodGet, "/api/presence/online", aliceToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)
}

func TestListMessagesOffsetPaging(t *testing.T) {
	r := newTestRouter(t)
	_, token := registerAndLogin(t, r, "Alice", "alice@example.com")

	status, env := doJSON(t, r, http.MethodPost, "/api/rooms", token, gin.H{"name": "General"})
	require.Equal(t, http.StatusCreated, status)
	var room models.Room
	require.NoError(t, json.Unmarshal(env.Data, &room))

	for _, content := range []string{"one", "two", "three", "four", "five"} {
		status, _ = doJSON(t, r, http.MethodPost, "/api/messages", token, gin.H{
			"room_id": room.ID,
			"content": content,
		})
		require.Equal(t, http.StatusCreated, status)
	}

	// offset 未對齊頁界時，page 指向視窗第一筆所在的頁次
	status, env = doJSON(t, r, http.MethodGet, "/api/rooms/"+room.ID+"/messages?limit=2&offset=3", token, nil)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, env.Meta)
	assert.Equal(t, 2, env.Meta.Page)
	assert.Equal(t, 2, env.Meta.Limit)
	assert.EqualValues(t, 5, env.Meta.Total)
	assert.Equal(t, 3, env.Meta.TotalPages)

	var window []models.Message
	require.NoError(t, json.Unmarshal(env.Data, &window))
	require.Len(t, window, 2)
	assert.Equal(t, "two", window[0].Content)
	assert.Equal(t, "one", window[1].Content)
}

func TestWebSocketUpgradeFailureSingleResponse(t *testing.T) {
	r := newTestRouter(t)
	_, token := registerAndLogin(t, r, "Alice", "alice@example.com")

	// 缺少 token 時在升級前就以信封回覆
	status, env := doJSON(t, r, http.MethodGet, "/api/ws", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.False(t, env.Success)

	// 帶著有效 token 但不是 WebSocket 握手：gorilla 已寫入錯誤回應，
	// handler 不能再附加一份信封
	req := httptest.NewRequest(http.MethodGet, "/api/ws?token="+token, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotContains(t, w.Body.String(), `"success"`)
}

func TestUnknownRouteEnvelope(t *testing.T) {
	r := newTestRouter(t)

	status, env := doJSON(t, r, http.MethodGet, "/api/no-such-route", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.False(t, env.Success)
}
