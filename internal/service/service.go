package service

import (
	"backoffice_chat/internal/repository"
)

type Services struct {
	User    *UserService
	Room    *RoomService
	Message *MessageService
	Gateway *Gateway
}

func NewServices(repos *repository.Repositories) *Services {
	userService := NewUserService(repos.User)
	roomService := NewRoomService(repos.Room, repos.Message, repos.User)
	messageService := NewMessageService(repos.Message, repos.Room, repos.User)
	gateway := NewGateway(roomService, messageService)

	return &Services{
		User:    userService,
		Room:    roomService,
		Message: messageService,
		Gateway: gateway,
	}
}
