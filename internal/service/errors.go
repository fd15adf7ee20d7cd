package service

import "errors"

// 服務層統一的錯誤值，API 層與 Gateway 依此對應回應狀態
var (
	ErrRoomNotFound       = errors.New("聊天室不存在")
	ErrMessageNotFound    = errors.New("訊息不存在")
	ErrUserNotFound       = errors.New("使用者不存在")
	ErrNotRoomMember      = errors.New("沒有權限存取此聊天室")
	ErrNotRoomCreator     = errors.New("只有聊天室建立者可以執行此操作")
	ErrNotMessageSender   = errors.New("只能修改或刪除自己的訊息")
	ErrCannotRemoveMember = errors.New("沒有權限移除此參與者")
	ErrSelfDirectMessage  = errors.New("無法與自己建立私訊")
	ErrEmailTaken         = errors.New("此信箱已被註冊")
	ErrInvalidCredentials = errors.New("信箱或密碼錯誤")
	ErrReplyWrongRoom     = errors.New("回覆對象不在同一個聊天室")
)
