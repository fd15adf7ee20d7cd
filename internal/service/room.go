package service

import (
	"errors"

	"gorm.io/gorm"

	"backoffice_chat/internal/models"
	"backoffice_chat/internal/repository"
)

// RoomService 管理聊天室的生命週期
// 權限檢查集中在服務層：呼叫端只需傳入操作者的使用者 ID
type RoomService struct {
	roomRepo    repository.RoomRepository
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
}

func NewRoomService(roomRepo repository.RoomRepository, messageRepo repository.MessageRepository, userRepo repository.UserRepository) *RoomService {
	return &RoomService{
		roomRepo:    roomRepo,
		messageRepo: messageRepo,
		userRepo:    userRepo,
	}
}

// CreateRoomInput 建立聊天室的輸入
type CreateRoomInput struct {
	Name         string
	Description  string
	Type         models.RoomType
	IsPrivate    bool
	Participants []string
	Avatar       string
	Settings     *models.RoomSettings
}

// UpdateRoomInput 更新聊天室的輸入，nil 欄位表示不變更
type UpdateRoomInput struct {
	Name        *string
	Description *string
	IsPrivate   *bool
	Avatar      *string
	Settings    *models.RoomSettings
}

// ListRooms 取得使用者建立或參與的聊天室，依最後活動時間排序
func (s *RoomService) ListRooms(userID string) ([]models.Room, error) {
	rooms, err := s.roomRepo.FindForUser(userID)
	if err != nil {
		return nil, err
	}
	s.attachCreatorNames(rooms)
	return rooms, nil
}

// GetRoom 取得聊天室，非成員會收到 ErrNotRoomMember
func (s *RoomService) GetRoom(roomID, callerID string) (*models.Room, error) {
	room, err := s.findRoom(roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsMember(callerID) {
		return nil, ErrNotRoomMember
	}
	if creator, err := s.userRepo.FindByID(room.CreatedBy); err == nil {
		room.CreatorName = creator.Name
	}
	return room, nil
}

// CreateRoom 建立聊天室，建立者一律會被加入參與者名單
func (s *RoomService) CreateRoom(callerID string, input CreateRoomInput) (*models.Room, error) {
	roomType := input.Type
	if roomType == "" {
		roomType = models.RoomTypeGroup
	}
	settings := models.DefaultRoomSettings()
	if input.Settings != nil {
		settings = *input.Settings
	}

	room := &models.Room{
		Name:         input.Name,
		Description:  input.Description,
		Type:         roomType,
		IsPrivate:    input.IsPrivate,
		CreatedBy:    callerID,
		Participants: models.StringSlice(input.Participants),
		Avatar:       input.Avatar,
		Settings:     settings,
	}
	room.AddParticipant(callerID)

	if err := s.roomRepo.Create(room); err != nil {
		return nil, err
	}
	return room, nil
}

// UpdateRoom 更新聊天室資料，僅限建立者
func (s *RoomService) UpdateRoom(roomID, callerID string, input UpdateRoomInput) (*models.Room, error) {
	room, err := s.findRoom(roomID)
	if err != nil {
		return nil, err
	}
	if room.CreatedBy != callerID {
		return nil, ErrNotRoomCreator
	}

	if input.Name != nil {
		room.Name = *input.Name
	}
	if input.Description != nil {
		room.Description = *input.Description
	}
	if input.IsPrivate != nil {
		room.IsPrivate = *input.IsPrivate
	}
	if input.Avatar != nil {
		room.Avatar = *input.Avatar
	}
	if input.Settings != nil {
		room.Settings = *input.Settings
	}

	if err := s.roomRepo.Update(room); err != nil {
		return nil, err
	}
	return room, nil
}

// DeleteRoom 刪除聊天室與其所有訊息，僅限建立者
// 先刪訊息再刪聊天室，兩步之間沒有交易保護
func (s *RoomService) DeleteRoom(roomID, callerID string) error {
	room, err := s.findRoom(roomID)
	if err != nil {
		return err
	}
	if room.CreatedBy != callerID {
		return ErrNotRoomCreator
	}

	if err := s.messageRepo.DeleteByRoom(roomID); err != nil {
		return err
	}
	return s.roomRepo.Delete(roomID)
}

// AddParticipant 加入參與者，已是成員時為無作用的成功
// 操作者必須是聊天室成員
func (s *RoomService) AddParticipant(roomID, callerID, userID string) (*models.Room, error) {
	room, err := s.findRoom(roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsMember(callerID) {
		return nil, ErrNotRoomMember
	}
	if room.Participants.Contains(userID) {
		return room, nil
	}

	room.AddParticipant(userID)
	if err := s.roomRepo.Update(room); err != nil {
		return nil, err
	}
	return room, nil
}

// RemoveParticipant 移除參與者，非成員時為無作用的成功
// 使用者可以移除自己，建立者可以移除任何人
func (s *RoomService) RemoveParticipant(roomID, callerID, userID string) (*models.Room, error) {
	room, err := s.findRoom(roomID)
	if err != nil {
		return nil, err
	}
	if callerID != userID && room.CreatedBy != callerID {
		return nil, ErrCannotRemoveMember
	}

	room.RemoveParticipant(userID)
	if err := s.roomRepo.Update(room); err != nil {
		return nil, err
	}
	return room, nil
}

// GetOrCreateDirectRoom 取得或建立兩位使用者之間的私訊聊天室
// 已知問題：participants 沒有唯一性約束，併發呼叫可能建立兩間相同配對的聊天室
func (s *RoomService) GetOrCreateDirectRoom(callerID, otherID string) (*models.Room, error) {
	if callerID == otherID {
		return nil, ErrSelfDirectMessage
	}

	existing, err := s.roomRepo.FindDirectRoom(callerID, otherID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	caller, err := s.userRepo.FindByID(callerID)
	if err != nil {
		return nil, err
	}
	other, err := s.userRepo.FindByID(otherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return s.CreateRoom(callerID, CreateRoomInput{
		Name:         caller.Name + ", " + other.Name,
		Type:         models.RoomTypeDirect,
		IsPrivate:    true,
		Participants: []string{callerID, otherID},
	})
}

func (s *RoomService) findRoom(roomID string) (*models.Room, error) {
	room, err := s.roomRepo.FindByID(roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

func (s *RoomService) attachCreatorNames(rooms []models.Room) {
	if len(rooms) == 0 {
		return
	}
	ids := make([]string, 0, len(rooms))
	seen := make(map[string]bool)
	for _, room := range rooms {
		if !seen[room.CreatedBy] {
			seen[room.CreatedBy] = true
			ids = append(ids, room.CreatedBy)
		}
	}

	users, err := s.userRepo.FindByIDs(ids)
	if err != nil {
		return
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Name
	}
	for i := range rooms {
		rooms[i].CreatorName = names[rooms[i].CreatedBy]
	}
}
