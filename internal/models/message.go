package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeletedMessageContent 軟刪除後覆寫原始內容的固定文字
const DeletedMessageContent = "This message was deleted"

// Message 表示聊天室中的一則訊息
type Message struct {
	ID          string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	RoomID      string      `gorm:"index;not null" json:"room_id"`
	SenderID    string      `gorm:"index;not null" json:"sender_id"`
	Content     string      `gorm:"type:text" json:"content"`
	Type        MessageType `gorm:"type:varchar(20);not null" json:"type"`
	ReplyToID   *string     `gorm:"type:varchar(36)" json:"reply_to_id,omitempty"` // 回覆對象，須為同聊天室的訊息
	Attachments StringSlice `gorm:"type:text" json:"attachments"`
	Mentions    StringSlice `gorm:"type:text" json:"mentions"`
	Reactions   ReactionMap `gorm:"type:text" json:"reactions"`
	IsEdited    bool        `json:"is_edited"`
	IsDeleted   bool        `json:"is_deleted"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`

	// 僅供回應使用，不入庫
	SenderName   string `gorm:"-" json:"sender_name,omitempty"`
	SenderAvatar string `gorm:"-" json:"sender_avatar,omitempty"`
}

// MessageType 定義訊息類型
type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeFile   MessageType = "file"
	MessageTypeImage  MessageType = "image"
	MessageTypeSystem MessageType = "system"
)

func (Message) TableName() string {
	return "chat_messages"
}

func (m *Message) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Type == "" {
		m.Type = MessageTypeText
	}
	if m.Reactions == nil {
		m.Reactions = ReactionMap{}
	}
	return nil
}

// ReactionMap 表情符號對應到按下該表情的使用者 ID 集合
// 不變量：不會存在使用者集合為空的表情鍵
type ReactionMap map[string][]string

func (r ReactionMap) Value() (driver.Value, error) {
	if r == nil {
		r = ReactionMap{}
	}
	return json.Marshal(r)
}

func (r *ReactionMap) Scan(value interface{}) error {
	if value == nil {
		*r = ReactionMap{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	default:
		return fmt.Errorf("unsupported column type for ReactionMap: %T", value)
	}
}

// Add 為指定表情加入使用者，重複加入不會產生變化
func (r ReactionMap) Add(emoji, userID string) {
	for _, id := range r[emoji] {
		if id == userID {
			return
		}
	}
	r[emoji] = append(r[emoji], userID)
}

// Remove 移除使用者的表情，最後一位使用者移除時刪除整個表情鍵
func (r ReactionMap) Remove(emoji, userID string) {
	users, ok := r[emoji]
	if !ok {
		return
	}
	filtered := users[:0]
	for _, id := range users {
		if id != userID {
			filtered = append(filtered, id)
		}
	}
	if len(filtered) == 0 {
		delete(r, emoji)
		return
	}
	r[emoji] = filtered
}

// Has 檢查使用者是否已對指定表情做出反應
func (r ReactionMap) Has(emoji, userID string) bool {
	for _, id := range r[emoji] {
		if id == userID {
			return true
		}
	}
	return false
}
