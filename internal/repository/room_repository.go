package repository

import (
	"time"

	"backoffice_chat/internal/models"
	"backoffice_chat/internal/storage"
)

type RoomRepository interface {
	Create(room *models.Room) error
	FindByID(id string) (*models.Room, error)
	FindForUser(userID string) ([]models.Room, error)
	FindDirectRoom(userA, userB string) (*models.Room, error)
	Update(room *models.Room) error
	Delete(id string) error
	SetLastMessage(roomID, messageID string, at time.Time) error
}

type roomRepository struct {
	db *storage.PostgresDB
}

func NewRoomRepository(db *storage.PostgresDB) RoomRepository {
	return &roomRepository{db: db}
}

func (r *roomRepository) Create(room *models.Room) error {
	return r.db.Create(room).Error
}

func (r *roomRepository) FindByID(id string) (*models.Room, error) {
	var room models.Room
	err := r.db.First(&room, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

// FindForUser 查詢使用者建立或參與的聊天室，依最後活動時間由新至舊排序
// participants 欄位是 JSON 序列化後的字串，以 LIKE 比對引號包住的 ID
func (r *roomRepository) FindForUser(userID string) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.
		Where("created_by = ? OR participants LIKE ?", userID, `%"`+userID+`"%`).
		Order("last_activity DESC").
		Find(&rooms).Error
	return rooms, err
}

// FindDirectRoom 查詢兩位使用者之間的私訊聊天室，參與者順序不影響比對結果
// 查無符合時回傳 (nil, nil)
func (r *roomRepository) FindDirectRoom(userA, userB string) (*models.Room, error) {
	var candidates []models.Room
	err := r.db.
		Where("type = ?", models.RoomTypeDirect).
		Where("participants LIKE ? AND participants LIKE ?",
			`%"`+userA+`"%`, `%"`+userB+`"%`).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	for i := range candidates {
		p := candidates[i].Participants
		if len(p) == 2 && p.Contains(userA) && p.Contains(userB) {
			return &candidates[i], nil
		}
	}
	return nil, nil
}

func (r *roomRepository) Update(room *models.Room) error {
	return r.db.Save(room).Error
}

func (r *roomRepository) Delete(id string) error {
	return r.db.Delete(&models.Room{}, "id = ?", id).Error
}

// SetLastMessage 更新聊天室的最後訊息指標與活動時間
func (r *roomRepository) SetLastMessage(roomID, messageID string, at time.Time) error {
	return r.db.Model(&models.Room{}).
		Where("id = ?", roomID).
		Updates(map[string]interface{}{
			"last_message_id": messageID,
			"last_activity":   at,
			"updated_at":      at,
		}).Error
}
