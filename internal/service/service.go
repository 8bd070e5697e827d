package service

import (
	"time"

	"github.com/sirupsen/logrus"

	"speech_arena/internal/ai"
	"speech_arena/internal/repository"
)

type Services struct {
	Room   *RoomService
	Events *RoomEventManager
}

func NewServices(repo repository.RoomRepository, backend ai.Backend, log *logrus.Logger, aiTimeout time.Duration) *Services {
	events := NewRoomEventManager(log)

	roomService := NewRoomService(repo, backend, events, log, aiTimeout)
	return &Services{
		Room:   roomService,
		Events: events,
	}
}
