package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringSlice 以 JSON 形式存入單一欄位的字串列表
// 用於參與者、提及對象與附件欄位
type StringSlice []string

func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		s = StringSlice{}
	}
	return json.Marshal(s)
}

func (s *StringSlice) Scan(value interface{}) error {
	if value == nil {
		*s = StringSlice{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported column type for StringSlice: %T", value)
	}
}

// Contains 檢查列表中是否包含指定的值
func (s StringSlice) Contains(v string) bool {
	for _, item := range s {
		if item == v {
			return true
		}
	}
	return false
}

// RoomSettings 聊天室設定
type RoomSettings struct {
	AllowFileSharing  bool `json:"allowFileSharing"`
	AllowMentions     bool `json:"allowMentions"`
	MuteNotifications bool `json:"muteNotifications"`
}

// DefaultRoomSettings 建立聊天室時的預設設定
func DefaultRoomSettings() RoomSettings {
	return RoomSettings{
		AllowFileSharing:  true,
		AllowMentions:     true,
		MuteNotifications: false,
	}
}

func (s RoomSettings) Value() (driver.Value, error) {
	return json.Marshal(s)
}

func (s *RoomSettings) Scan(value interface{}) error {
	if value == nil {
		*s = RoomSettings{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("unsupported column type for RoomSettings: %T", value)
	}
}
