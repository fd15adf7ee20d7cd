package repository

import (
	"strings"
	"time"

	"backoffice_chat/internal/models"
	"backoffice_chat/internal/storage"
)

type MessageRepository interface {
	Create(message *models.Message) error
	FindByID(id string) (*models.Message, error)
	FindByRoom(roomID string, limit, offset int) ([]models.Message, int64, error)
	Update(message *models.Message) error
	Delete(id string) error
	DeleteByRoom(roomID string) error
	Search(query, roomID string, limit int) ([]models.Message, error)

	CountMessages(roomID string) (int64, error)
	CountMessagesSince(roomID string, since time.Time) (int64, error)
	CountRooms() (int64, error)
	CountActiveSenders(since time.Time) (int64, error)
	TopSenders(roomID string, limit int) ([]SenderCount, error)
	ActivityByDay(roomID string, since time.Time) ([]DayCount, error)
	CountSentBy(userID string, since time.Time) (int64, error)
	CountRoomsSentIn(userID string, since time.Time) (int64, error)
}

// SenderCount 單一使用者的訊息數統計
type SenderCount struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MessageCount int64  `json:"message_count"`
}

// DayCount 單日訊息數統計
type DayCount struct {
	Date         string `json:"date"`
	MessageCount int64  `json:"message_count"`
}

type messageRepository struct {
	db *storage.PostgresDB
}

func NewMessageRepository(db *storage.PostgresDB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(message *models.Message) error {
	return r.db.Create(message).Error
}

func (r *messageRepository) FindByID(id string) (*models.Message, error) {
	var message models.Message
	err := r.db.First(&message, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// FindByRoom 分頁查詢聊天室訊息，由新至舊排序，同時回傳總筆數供分頁使用
func (r *messageRepository) FindByRoom(roomID string, limit, offset int) ([]models.Message, int64, error) {
	var total int64
	if err := r.db.Model(&models.Message{}).Where("room_id = ?", roomID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var messages []models.Message
	err := r.db.
		Where("room_id = ?", roomID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	return messages, total, err
}

func (r *messageRepository) Update(message *models.Message) error {
	return r.db.Save(message).Error
}

func (r *messageRepository) Delete(id string) error {
	return r.db.Delete(&models.Message{}, "id = ?", id).Error
}

func (r *messageRepository) DeleteByRoom(roomID string) error {
	return r.db.Delete(&models.Message{}, "room_id = ?", roomID).Error
}

// Search 不分大小寫的子字串搜尋，排除已刪除的訊息，roomID 為空時搜尋全部聊天室
func (r *messageRepository) Search(query, roomID string, limit int) ([]models.Message, error) {
	q := r.db.
		Where("LOWER(content) LIKE ?", "%"+strings.ToLower(query)+"%").
		Where("is_deleted = ?", false)
	if roomID != "" {
		q = q.Where("room_id = ?", roomID)
	}

	var messages []models.Message
	err := q.Order("created_at DESC").Limit(limit).Find(&messages).Error
	return messages, err
}

func (r *messageRepository) CountMessages(roomID string) (int64, error) {
	q := r.db.Model(&models.Message{}).Where("is_deleted = ?", false)
	if roomID != "" {
		q = q.Where("room_id = ?", roomID)
	}
	var count int64
	err := q.Count(&count).Error
	return count, err
}

func (r *messageRepository) CountMessagesSince(roomID string, since time.Time) (int64, error) {
	q := r.db.Model(&models.Message{}).
		Where("is_deleted = ?", false).
		Where("created_at >= ?", since)
	if roomID != "" {
		q = q.Where("room_id = ?", roomID)
	}
	var count int64
	err := q.Count(&count).Error
	return count, err
}

func (r *messageRepository) CountRooms() (int64, error) {
	var count int64
	err := r.db.Model(&models.Room{}).Count(&count).Error
	return count, err
}

func (r *messageRepository) CountActiveSenders(since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Message{}).
		Where("is_deleted = ?", false).
		Where("created_at >= ?", since).
		Distinct("sender_id").
		Count(&count).Error
	return count, err
}

func (r *messageRepository) TopSenders(roomID string, limit int) ([]SenderCount, error) {
	q := r.db.Table("chat_messages").
		Select("users.id AS id, users.name AS name, COUNT(chat_messages.id) AS message_count").
		Joins("LEFT JOIN users ON users.id = chat_messages.sender_id").
		Where("chat_messages.is_deleted = ?", false)
	if roomID != "" {
		q = q.Where("chat_messages.room_id = ?", roomID)
	}

	var senders []SenderCount
	err := q.Group("users.id, users.name").
		Order("message_count DESC").
		Limit(limit).
		Scan(&senders).Error
	return senders, err
}

// ActivityByDay 以日為單位統計訊息數，CAST 讓 postgres 與 sqlite 都回傳文字日期
func (r *messageRepository) ActivityByDay(roomID string, since time.Time) ([]DayCount, error) {
	var days []DayCount
	err := r.db.Table("chat_messages").
		Select("CAST(DATE(created_at) AS TEXT) AS date, COUNT(*) AS message_count").
		Where("room_id = ?", roomID).
		Where("is_deleted = ?", false).
		Where("created_at >= ?", since).
		Group("DATE(created_at)").
		Order("date ASC").
		Scan(&days).Error
	return days, err
}

func (r *messageRepository) CountSentBy(userID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Message{}).
		Where("sender_id = ?", userID).
		Where("is_deleted = ?", false).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count, err
}

func (r *messageRepository) CountRoomsSentIn(userID string, since time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Message{}).
		Where("sender_id = ?", userID).
		Where("is_deleted = ?", false).
		Where("created_at >= ?", since).
		Distinct("room_id").
		Count(&count).Error
	return count, err
}
