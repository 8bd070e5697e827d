package models

import "time"

// RoomEvent 代表一個推送給 WebSocket 客戶端的房間事件
type RoomEvent struct {
	Type      string    `json:"type"` // "room_update" 或 "system"
	RoomCode  string    `json:"roomCode"`
	Content   string    `json:"content,omitempty"`
	Room      *RoomView `json:"room,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRoomUpdateEvent 建立一個房間狀態更新事件
func NewRoomUpdateEvent(view *RoomView) *RoomEvent {
	return &RoomEvent{
		Type:      "room_update",
		RoomCode:  view.RoomCode,
		Room:      view,
		Timestamp: time.Now(),
	}
}

// NewSystemEvent 建立一個純文字系統事件
func NewSystemEvent(roomCode, content string) *RoomEvent {
	return &RoomEvent{
		Type:      "system",
		RoomCode:  roomCode,
		Content:   content,
		Timestamp: time.Now(),
	}
}
