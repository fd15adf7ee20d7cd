package service

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"backoffice_chat/internal/models"
)

// Client 代表一條已認證的 WebSocket 連線
type Client struct {
	conn     *websocket.Conn
	UserID   string
	UserName string
	send     chan []byte     // 訊息發送通道，用於異步傳送訊息
	rooms    map[string]bool // 已訂閱的聊天室，由 Gateway 的鎖保護
	closed   bool
}

// Gateway 管理所有 WebSocket 連線、線上狀態與訊息廣播
// 連線註冊表以使用者為鍵，同一位使用者的第二條連線會取代前一條
type Gateway struct {
	registry map[string]*Client          // userID -> client
	rooms    map[string]map[*Client]bool // roomID -> client -> bool
	mu       sync.RWMutex

	roomService    *RoomService
	messageService *MessageService
}

// NewGateway 建立並初始化 Gateway，應在伺服器啟動時建立一次
func NewGateway(roomService *RoomService, messageService *MessageService) *Gateway {
	return &Gateway{
		registry:       make(map[string]*Client),
		rooms:          make(map[string]map[*Client]bool),
		roomService:    roomService,
		messageService: messageService,
	}
}

// HandleConnection 處理一條新的已認證連線，阻塞直到連線結束
func (g *Gateway) HandleConnection(conn *websocket.Conn, userID, userName string) {
	client := &Client{
		conn:     conn,
		UserID:   userID,
		UserName: userName,
		send:     make(chan []byte, 256),
		rooms:    make(map[string]bool),
	}

	g.register(client)
	g.broadcastStatus(userID, "online")

	defer func() {
		wasActive := g.unregister(client)
		conn.Close()
		if wasActive {
			g.broadcastStatus(userID, "offline")
		}
	}()

	go g.writePump(client)
	g.readPump(client)
}

// Shutdown 關閉所有連線並清空註冊表，應在伺服器關閉時呼叫
func (g *Gateway) Shutdown() {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, client := range g.registry {
		g.closeClientLocked(client)
		if client.conn != nil {
			client.conn.Close()
		}
	}
	g.registry = make(map[string]*Client)
	g.rooms = make(map[string]map[*Client]bool)
}

// IsUserOnline 檢查使用者目前是否有活躍連線
func (g *Gateway) IsUserOnline(userID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.registry[userID]
	return ok
}

// OnlineUsers 取得目前所有在線使用者的 ID
func (g *Gateway) OnlineUsers() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	users := make([]string, 0, len(g.registry))
	for userID := range g.registry {
		users = append(users, userID)
	}
	return users
}

// NotifyUser 對單一在線使用者推送事件，離線時靜默忽略
// 供其他模組推送定向通知使用
func (g *Gateway) NotifyUser(userID, event string, payload interface{}) {
	g.mu.RLock()
	client, ok := g.registry[userID]
	g.mu.RUnlock()
	if !ok {
		return
	}
	g.emit(client, event, payload)
}

// register 登記連線，同一位使用者的舊連線會被關閉取代
func (g *Gateway) register(client *Client) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if old, ok := g.registry[client.UserID]; ok {
		g.closeClientLocked(old)
		if old.conn != nil {
			old.conn.Close()
		}
	}
	g.registry[client.UserID] = client
}

// unregister 移除連線，回傳此連線是否仍是該使用者的現役連線
func (g *Gateway) unregister(client *Client) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.closeClientLocked(client)
	if g.registry[client.UserID] == client {
		delete(g.registry, client.UserID)
		return true
	}
	return false
}

// closeClientLocked 關閉連線的發送通道並退訂所有聊天室，呼叫前必須持有寫鎖
func (g *Gateway) closeClientLocked(client *Client) {
	if client.closed {
		return
	}
	client.closed = true
	close(client.send)

	for roomID := range client.rooms {
		if clients, ok := g.rooms[roomID]; ok {
			delete(clients, client)
			if len(clients) == 0 {
				delete(g.rooms, roomID)
			}
		}
	}
	client.rooms = make(map[string]bool)
}

func (g *Gateway) subscribe(client *Client, roomID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if client.closed {
		return
	}
	if g.rooms[roomID] == nil {
		g.rooms[roomID] = make(map[*Client]bool)
	}
	g.rooms[roomID][client] = true
	client.rooms[roomID] = true
}

func (g *Gateway) unsubscribe(client *Client, roomID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if clients, ok := g.rooms[roomID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(g.rooms, roomID)
		}
	}
	delete(client.rooms, roomID)
}

// readPump 持續讀取並分派客戶端送入的事件
func (g *Gateway) readPump(client *Client) {
	client.conn.SetReadLimit(4096)
	client.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.conn.SetPongHandler(func(string) error {
		client.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, raw, err := client.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket unexpected close error: %v", err)
			}
			break
		}
		g.dispatch(client, raw)
	}
}

// writePump 處理向客戶端發送訊息與心跳
func (g *Gateway) writePump(client *Client) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-client.send:
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				client.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch 解析事件封包並依事件名稱分派，錯誤只回報給來源連線
func (g *Gateway) dispatch(client *Client, raw []byte) {
	var evt Event
	if err := json.Unmarshal(raw, &evt); err != nil {
		g.sendError(client, "無法解析事件")
		return
	}

	switch evt.Event {
	case EventJoinRoom:
		var p joinRoomPayload
		if ok := g.decode(client, evt.Data, &p, p.validate); ok {
			g.handleJoinRoom(client, p)
		}
	case EventLeaveRoom:
		var p joinRoomPayload
		if ok := g.decode(client, evt.Data, &p, p.validate); ok {
			g.unsubscribe(client, p.RoomID)
			g.emit(client, EventLeftRoom, map[string]interface{}{"room_id": p.RoomID})
		}
	case EventSendMessage:
		var p sendMessagePayload
		if ok := g.decode(client, evt.Data, &p, p.validate); ok {
			g.handleSendMessage(client, p)
		}
	case EventUpdateMessage:
		var p updateMessagePayload
		if ok := g.decode(client, evt.Data, &p, p.validate); ok {
			g.handleUpdateMessage(client, p)
		}
	case EventDeleteMessage:
		var p deleteMessagePayload
		if ok := g.decode(client, evt.Data, &p, p.validate); ok {
			g.handleDeleteMessage(client, p)
		}
	case EventAddReaction:
		var p reactionPayload
		if ok := g.decode(client, evt.Data, &p, p.validate); ok {
			g.handleReaction(client, p, true)
		}
	case EventRemoveReaction:
		var p reactionPayload
		if ok := g.decode(client, evt.Data, &p, p.validate); ok {
			g.handleReaction(client, p, false)
		}
	case EventTypingStart:
		var p joinRoomPayload
		if ok := g.decode(client, evt.Data, &p, p.validate); ok {
			g.broadcastToRoomExcept(p.RoomID, client, EventUserTyping, map[string]interface{}{
				"user_id":   client.UserID,
				"user_name": client.UserName,
				"room_id":   p.RoomID,
			})
		}
	case EventTypingStop:
		var p joinRoomPayload
		if ok := g.decode(client, evt.Data, &p, p.validate); ok {
			g.broadcastToRoomExcept(p.RoomID, client, EventUserStoppedTyping, map[string]interface{}{
				"user_id": client.UserID,
				"room_id": p.RoomID,
			})
		}
	case EventStatusUpdate:
		var p statusUpdatePayload
		if ok := g.decode(client, evt.Data, &p, p.validate); ok {
			g.broadcastStatus(client.UserID, p.Status)
		}
	default:
		g.sendError(client, "未知的事件: "+evt.Event)
	}
}

func (g *Gateway) decode(client *Client, data json.RawMessage, v interface{}, validate func() error) bool {
	if err := json.Unmarshal(data, v); err != nil {
		g.sendError(client, "無效的事件內容")
		return false
	}
	if err := validate(); err != nil {
		g.sendError(client, err.Error())
		return false
	}
	return true
}

// handleJoinRoom 重新確認成員資格後才允許訂閱，結果只回覆給來源連線
func (g *Gateway) handleJoinRoom(client *Client, p joinRoomPayload) {
	if _, err := g.roomService.GetRoom(p.RoomID, client.UserID); err != nil {
		g.emit(client, EventJoinedRoom, map[string]interface{}{
			"room_id": p.RoomID,
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	g.subscribe(client, p.RoomID)
	g.emit(client, EventJoinedRoom, map[string]interface{}{
		"room_id": p.RoomID,
		"success": true,
	})
}

// handleSendMessage 先持久化再廣播，持久化失敗就不會有任何廣播
func (g *Gateway) handleSendMessage(client *Client, p sendMessagePayload) {
	message, err := g.messageService.CreateMessage(client.UserID, CreateMessageInput{
		RoomID:      p.RoomID,
		Content:     p.Content,
		Type:        models.MessageType(p.Type),
		ReplyToID:   p.ReplyToID,
		Attachments: p.Attachments,
		Mentions:    p.Mentions,
	})
	if err != nil {
		g.sendError(client, err.Error())
		return
	}

	g.broadcastToRoom(p.RoomID, EventNewMessage, message)

	// 被提及的在線使用者收到定向通知，不做聊天室廣播
	for _, mentioned := range p.Mentions {
		g.NotifyUser(mentioned, EventMentionNotification, map[string]interface{}{
			"message":      message,
			"room_id":      p.RoomID,
			"mentioned_by": message.SenderName,
		})
	}
}

func (g *Gateway) handleUpdateMessage(client *Client, p updateMessagePayload) {
	message, err := g.messageService.EditMessage(p.MessageID, client.UserID, p.Content)
	if err != nil {
		g.sendError(client, err.Error())
		return
	}
	g.broadcastToRoom(p.RoomID, EventMessageUpdated, message)
}

func (g *Gateway) handleDeleteMessage(client *Client, p deleteMessagePayload) {
	if err := g.messageService.DeleteMessage(p.MessageID, client.UserID, false); err != nil {
		g.sendError(client, err.Error())
		return
	}
	g.broadcastToRoom(p.RoomID, EventMessageDeleted, map[string]interface{}{
		"message_id": p.MessageID,
		"room_id":    p.RoomID,
	})
}

// handleReaction 廣播完整的表情對照表，讓客戶端整份覆蓋本地狀態
func (g *Gateway) handleReaction(client *Client, p reactionPayload, add bool) {
	var (
		message *models.Message
		err     error
		event   string
	)
	if add {
		message, err = g.messageService.AddReaction(p.MessageID, client.UserID, p.Emoji)
		event = EventReactionAdded
	} else {
		message, err = g.messageService.RemoveReaction(p.MessageID, client.UserID, p.Emoji)
		event = EventReactionRemoved
	}
	if err != nil {
		g.sendError(client, err.Error())
		return
	}

	g.broadcastToRoom(p.RoomID, event, map[string]interface{}{
		"message_id": p.MessageID,
		"emoji":      p.Emoji,
		"user_id":    client.UserID,
		"reactions":  message.Reactions,
	})
}

// broadcastStatus 對所有連線廣播使用者狀態變更
func (g *Gateway) broadcastStatus(userID, status string) {
	g.broadcastAll(EventUserStatusChanged, map[string]interface{}{
		"user_id":   userID,
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (g *Gateway) emit(client *Client, event string, payload interface{}) {
	raw, err := encodeEvent(event, payload)
	if err != nil {
		log.Printf("event encoding error: %v", err)
		return
	}
	g.deliver(client, raw)
}

func (g *Gateway) sendError(client *Client, message string) {
	g.emit(client, EventMessageError, map[string]interface{}{"error": message})
}

// broadcastToRoom 向聊天室內所有訂閱的連線廣播事件
func (g *Gateway) broadcastToRoom(roomID, event string, payload interface{}) {
	g.broadcastToRoomExcept(roomID, nil, event, payload)
}

func (g *Gateway) broadcastToRoomExcept(roomID string, except *Client, event string, payload interface{}) {
	raw, err := encodeEvent(event, payload)
	if err != nil {
		log.Printf("event encoding error: %v", err)
		return
	}

	g.mu.RLock()
	clients := make([]*Client, 0, len(g.rooms[roomID]))
	for client := range g.rooms[roomID] {
		if client != except {
			clients = append(clients, client)
		}
	}
	g.mu.RUnlock()

	for _, client := range clients {
		g.deliver(client, raw)
	}
}

func (g *Gateway) broadcastAll(event string, payload interface{}) {
	raw, err := encodeEvent(event, payload)
	if err != nil {
		log.Printf("event encoding error: %v", err)
		return
	}

	g.mu.RLock()
	clients := make([]*Client, 0, len(g.registry))
	for _, client := range g.registry {
		clients = append(clients, client)
	}
	g.mu.RUnlock()

	for _, client := range clients {
		g.deliver(client, raw)
	}
}

// deliver 將訊息排入發送隊列，隊列滿的連線視為失速並直接斷線
// 失速剔除等同於一般斷線，移除註冊表項目後必須廣播離線狀態
func (g *Gateway) deliver(client *Client, raw []byte) {
	g.mu.Lock()
	if client.closed {
		g.mu.Unlock()
		return
	}
	select {
	case client.send <- raw:
		g.mu.Unlock()
	default:
		g.closeClientLocked(client)
		wasActive := g.registry[client.UserID] == client
		if wasActive {
			delete(g.registry, client.UserID)
		}
		g.mu.Unlock()
		if client.conn != nil {
			client.conn.Close()
		}
		if wasActive {
			g.broadcastStatus(client.UserID, "offline")
		}
	}
}
