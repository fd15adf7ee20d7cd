package service

import (
	"errors"
	"math"
	"time"

	"gorm.io/gorm"

	"backoffice_chat/internal/models"
	"backoffice_chat/internal/repository"
)

// MessageService 管理訊息的生命週期與統計
// 與 RoomService 相同，權限檢查集中在服務層
type MessageService struct {
	messageRepo repository.MessageRepository
	roomRepo    repository.RoomRepository
	userRepo    repository.UserRepository
}

func NewMessageService(messageRepo repository.MessageRepository, roomRepo repository.RoomRepository, userRepo repository.UserRepository) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		roomRepo:    roomRepo,
		userRepo:    userRepo,
	}
}

// CreateMessageInput 建立訊息的輸入
type CreateMessageInput struct {
	RoomID      string
	Content     string
	Type        models.MessageType
	ReplyToID   *string
	Attachments []string
	Mentions    []string
}

// ListMessages 分頁取得聊天室的訊息歷史，由新至舊排序
func (s *MessageService) ListMessages(roomID, callerID string, limit, offset int) ([]models.Message, int64, error) {
	room, err := s.roomRepo.FindByID(roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrRoomNotFound
		}
		return nil, 0, err
	}
	if !room.IsMember(callerID) {
		return nil, 0, ErrNotRoomMember
	}

	messages, total, err := s.messageRepo.FindByRoom(roomID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	s.attachSenders(messages)
	return messages, total, nil
}

func (s *MessageService) GetMessage(id string) (*models.Message, error) {
	message, err := s.findMessage(id)
	if err != nil {
		return nil, err
	}
	if sender, err := s.userRepo.FindByID(message.SenderID); err == nil {
		message.SenderName = sender.Name
		message.SenderAvatar = sender.Avatar
	}
	return message, nil
}

// CreateMessage 建立訊息並更新聊天室的最後訊息指標與活動時間
// 發送者必須是聊天室成員，回覆對象必須在同一個聊天室
func (s *MessageService) CreateMessage(callerID string, input CreateMessageInput) (*models.Message, error) {
	room, err := s.roomRepo.FindByID(input.RoomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	if !room.IsMember(callerID) {
		return nil, ErrNotRoomMember
	}

	if input.ReplyToID != nil {
		parent, err := s.findMessage(*input.ReplyToID)
		if err != nil {
			return nil, err
		}
		if parent.RoomID != input.RoomID {
			return nil, ErrReplyWrongRoom
		}
	}

	message := &models.Message{
		RoomID:      input.RoomID,
		SenderID:    callerID,
		Content:     input.Content,
		Type:        input.Type,
		ReplyToID:   input.ReplyToID,
		Attachments: models.StringSlice(input.Attachments),
		Mentions:    models.StringSlice(input.Mentions),
		Reactions:   models.ReactionMap{},
	}
	if err := s.messageRepo.Create(message); err != nil {
		return nil, err
	}

	// 建立成功後更新聊天室指標，失敗不回滾訊息本身
	if err := s.roomRepo.SetLastMessage(input.RoomID, message.ID, time.Now()); err != nil {
		return nil, err
	}

	if sender, err := s.userRepo.FindByID(callerID); err == nil {
		message.SenderName = sender.Name
		message.SenderAvatar = sender.Avatar
	}
	return message, nil
}

// EditMessage 修改訊息內容並標記為已編輯，僅限發送者本人
func (s *MessageService) EditMessage(id, callerID, content string) (*models.Message, error) {
	message, err := s.findMessage(id)
	if err != nil {
		return nil, err
	}
	if message.SenderID != callerID {
		return nil, ErrNotMessageSender
	}

	message.Content = content
	message.IsEdited = true
	if err := s.messageRepo.Update(message); err != nil {
		return nil, err
	}

	if sender, err := s.userRepo.FindByID(message.SenderID); err == nil {
		message.SenderName = sender.Name
		message.SenderAvatar = sender.Avatar
	}
	return message, nil
}

// DeleteMessage 刪除訊息，僅限發送者本人
// 軟刪除保留資料列並以固定文字覆寫內容，硬刪除直接移除資料列
func (s *MessageService) DeleteMessage(id, callerID string, permanent bool) error {
	message, err := s.findMessage(id)
	if err != nil {
		return err
	}
	if message.SenderID != callerID {
		return ErrNotMessageSender
	}

	if permanent {
		return s.messageRepo.Delete(id)
	}

	message.Content = models.DeletedMessageContent
	message.IsDeleted = true
	return s.messageRepo.Update(message)
}

// AddReaction 為訊息加上表情，重複加入不會產生變化
func (s *MessageService) AddReaction(id, callerID, emoji string) (*models.Message, error) {
	message, err := s.findMessage(id)
	if err != nil {
		return nil, err
	}

	if message.Reactions == nil {
		message.Reactions = models.ReactionMap{}
	}
	message.Reactions.Add(emoji, callerID)

	// 讀取後寫回，沒有版本檢查，併發更新以後寫入者為準
	if err := s.messageRepo.Update(message); err != nil {
		return nil, err
	}
	return message, nil
}

// RemoveReaction 移除表情，移除最後一位使用者時整個表情鍵會消失
func (s *MessageService) RemoveReaction(id, callerID, emoji string) (*models.Message, error) {
	message, err := s.findMessage(id)
	if err != nil {
		return nil, err
	}

	if message.Reactions == nil {
		message.Reactions = models.ReactionMap{}
	}
	message.Reactions.Remove(emoji, callerID)

	if err := s.messageRepo.Update(message); err != nil {
		return nil, err
	}
	return message, nil
}

// SearchMessages 不分大小寫的內容搜尋，排除已刪除訊息
func (s *MessageService) SearchMessages(query, roomID string, limit int) ([]models.Message, error) {
	messages, err := s.messageRepo.Search(query, roomID, limit)
	if err != nil {
		return nil, err
	}
	s.attachSenders(messages)
	return messages, nil
}

// ChatStats 聊天統計摘要
type ChatStats struct {
	Messages struct {
		Total    int64 `json:"total"`
		ThisWeek int64 `json:"this_week"`
	} `json:"messages"`
	Rooms struct {
		Total int64 `json:"total"`
	} `json:"rooms"`
	Users struct {
		Active     int64                    `json:"active"`
		TopSenders []repository.SenderCount `json:"top_senders"`
	} `json:"users"`
}

// UserActivity 單一使用者的活躍度統計
type UserActivity struct {
	MessagesSent          int64   `json:"messages_sent"`
	RoomsParticipated     int64   `json:"rooms_participated"`
	AverageMessagesPerDay float64 `json:"average_messages_per_day"`
}

// GetChatStats 取得整體或單一聊天室的統計摘要
func (s *MessageService) GetChatStats(roomID string) (*ChatStats, error) {
	now := time.Now()
	stats := &ChatStats{}

	total, err := s.messageRepo.CountMessages(roomID)
	if err != nil {
		return nil, err
	}
	thisWeek, err := s.messageRepo.CountMessagesSince(roomID, now.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	rooms, err := s.messageRepo.CountRooms()
	if err != nil {
		return nil, err
	}
	active, err := s.messageRepo.CountActiveSenders(now.AddDate(0, 0, -30))
	if err != nil {
		return nil, err
	}
	topSenders, err := s.messageRepo.TopSenders(roomID, 5)
	if err != nil {
		return nil, err
	}

	stats.Messages.Total = total
	stats.Messages.ThisWeek = thisWeek
	stats.Rooms.Total = rooms
	stats.Users.Active = active
	stats.Users.TopSenders = topSenders
	return stats, nil
}

// GetRoomActivity 取得聊天室近 N 天的每日訊息數
func (s *MessageService) GetRoomActivity(roomID string, days int) ([]repository.DayCount, error) {
	if days <= 0 {
		days = 7
	}
	return s.messageRepo.ActivityByDay(roomID, time.Now().AddDate(0, 0, -days))
}

// GetUserActivity 取得使用者近 N 天的活躍度統計
func (s *MessageService) GetUserActivity(userID string, days int) (*UserActivity, error) {
	if days <= 0 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	sent, err := s.messageRepo.CountSentBy(userID, since)
	if err != nil {
		return nil, err
	}
	rooms, err := s.messageRepo.CountRoomsSentIn(userID, since)
	if err != nil {
		return nil, err
	}

	return &UserActivity{
		MessagesSent:          sent,
		RoomsParticipated:     rooms,
		AverageMessagesPerDay: math.Round(float64(sent)/float64(days)*100) / 100,
	}, nil
}

func (s *MessageService) findMessage(id string) (*models.Message, error) {
	message, err := s.messageRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, err
	}
	return message, nil
}

// attachSenders 補上發送者的顯示名稱與頭像
func (s *MessageService) attachSenders(messages []models.Message) {
	if len(messages) == 0 {
		return
	}
	ids := make([]string, 0, len(messages))
	seen := make(map[string]bool)
	for _, m := range messages {
		if !seen[m.SenderID] {
			seen[m.SenderID] = true
			ids = append(ids, m.SenderID)
		}
	}

	users, err := s.userRepo.FindByIDs(ids)
	if err != nil {
		return
	}
	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	for i := range messages {
		if u, ok := byID[messages[i].SenderID]; ok {
			messages[i].SenderName = u.Name
			messages[i].SenderAvatar = u.Avatar
		}
	}
}
