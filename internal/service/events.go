package service

import (
	"encoding/json"
	"errors"
)

// Event 是 WebSocket 上雙向傳遞的事件封包
// 每個事件名稱對應一個固定形狀的 payload，進入業務邏輯前先驗證
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// 客戶端送入的事件名稱
const (
	EventJoinRoom       = "join-room"
	EventLeaveRoom      = "leave-room"
	EventSendMessage    = "send-message"
	EventUpdateMessage  = "update-message"
	EventDeleteMessage  = "delete-message"
	EventAddReaction    = "add-reaction"
	EventRemoveReaction = "remove-reaction"
	EventTypingStart    = "typing-start"
	EventTypingStop     = "typing-stop"
	EventStatusUpdate   = "status-update"
)

// 伺服器發出的事件名稱
const (
	EventJoinedRoom          = "joined-room"
	EventLeftRoom            = "left-room"
	EventNewMessage          = "new-message"
	EventMessageUpdated      = "message-updated"
	EventMessageDeleted      = "message-deleted"
	EventReactionAdded       = "reaction-added"
	EventReactionRemoved     = "reaction-removed"
	EventUserTyping          = "user-typing"
	EventUserStoppedTyping   = "user-stopped-typing"
	EventUserStatusChanged   = "user-status-changed"
	EventMentionNotification = "mention-notification"
	EventMessageError        = "message-error"
)

type joinRoomPayload struct {
	RoomID string `json:"room_id"`
}

func (p *joinRoomPayload) validate() error {
	if p.RoomID == "" {
		return errors.New("room_id 為必填欄位")
	}
	return nil
}

type sendMessagePayload struct {
	RoomID      string   `json:"room_id"`
	Content     string   `json:"content"`
	Type        string   `json:"type,omitempty"`
	ReplyToID   *string  `json:"reply_to_id,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
	Mentions    []string `json:"mentions,omitempty"`
}

func (p *sendMessagePayload) validate() error {
	if p.RoomID == "" {
		return errors.New("room_id 為必填欄位")
	}
	if p.Content == "" {
		return errors.New("content 為必填欄位")
	}
	return nil
}

type updateMessagePayload struct {
	MessageID string `json:"message_id"`
	RoomID    string `json:"room_id"`
	Content   string `json:"content"`
}

func (p *updateMessagePayload) validate() error {
	if p.MessageID == "" || p.RoomID == "" {
		return errors.New("message_id 與 room_id 為必填欄位")
	}
	if p.Content == "" {
		return errors.New("content 為必填欄位")
	}
	return nil
}

type deleteMessagePayload struct {
	MessageID string `json:"message_id"`
	RoomID    string `json:"room_id"`
}

func (p *deleteMessagePayload) validate() error {
	if p.MessageID == "" || p.RoomID == "" {
		return errors.New("message_id 與 room_id 為必填欄位")
	}
	return nil
}

type reactionPayload struct {
	MessageID string `json:"message_id"`
	RoomID    string `json:"room_id"`
	Emoji     string `json:"emoji"`
}

func (p *reactionPayload) validate() error {
	if p.MessageID == "" || p.RoomID == "" {
		return errors.New("message_id 與 room_id 為必填欄位")
	}
	if p.Emoji == "" {
		return errors.New("emoji 為必填欄位")
	}
	return nil
}

type statusUpdatePayload struct {
	Status string `json:"status"`
}

func (p *statusUpdatePayload) validate() error {
	switch p.Status {
	case "online", "away", "busy", "offline":
		return nil
	}
	return errors.New("無效的狀態值")
}

func encodeEvent(event string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{Event: event, Data: data})
}
