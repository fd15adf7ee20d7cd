package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Room 表示一個聊天室
type Room struct {
	ID            string       `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name          string       `gorm:"not null" json:"name"`
	Description   string       `json:"description,omitempty"`
	Type          RoomType     `gorm:"type:varchar(20);not null" json:"type"`
	IsPrivate     bool         `json:"is_private"`
	CreatedBy     string       `gorm:"index;not null" json:"created_by"` // 建立者的使用者 ID
	Participants  StringSlice  `gorm:"type:text" json:"participants"`
	Avatar        string       `json:"avatar,omitempty"`
	Settings      RoomSettings `gorm:"type:text" json:"settings"`
	LastMessageID *string      `gorm:"type:varchar(36)" json:"last_message_id,omitempty"`
	LastActivity  time.Time    `json:"last_activity"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`

	// 僅供回應使用，不入庫
	CreatorName string `gorm:"-" json:"creator_name,omitempty"`
}

// RoomType 定義聊天室類型
type RoomType string

const (
	RoomTypeGroup   RoomType = "group"
	RoomTypeDirect  RoomType = "direct" // 一對一私訊，同一組使用者至多一間
	RoomTypePublic  RoomType = "public"
	RoomTypePrivate RoomType = "private"
)

func (Room) TableName() string {
	return "chat_rooms"
}

func (r *Room) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.LastActivity.IsZero() {
		r.LastActivity = time.Now()
	}
	return nil
}

// IsMember 檢查使用者是否為聊天室成員（建立者或參與者）
func (r *Room) IsMember(userID string) bool {
	return r.CreatedBy == userID || r.Participants.Contains(userID)
}

// AddParticipant 加入參與者，已存在時不做任何事
func (r *Room) AddParticipant(userID string) {
	if !r.Participants.Contains(userID) {
		r.Participants = append(r.Participants, userID)
	}
}

// RemoveParticipant 移除參與者，不存在時不做任何事
func (r *Room) RemoveParticipant(userID string) {
	filtered := r.Participants[:0]
	for _, id := range r.Participants {
		if id != userID {
			filtered = append(filtered, id)
		}
	}
	r.Participants = filtered
}
