package repository

import (
	"sync"
	"time"

	"speech_arena/internal/apperrors"
	"speech_arena/internal/models"
)

// RoomRepository 定義房間存放層的介面
type RoomRepository interface {
	Save(room *models.Room) error
	FindByCode(code string) (*models.Room, error)
	Delete(code string)
	Count() int
	Close()
}

// memoryRoomRepository 是整個程序唯一的房間存放處
//
// 讀寫鎖只保護 code -> room 這張表本身；
// 單一房間內部的狀態由房間自己的鎖保護。
type memoryRoomRepository struct {
	mu    sync.RWMutex
	rooms map[string]*models.Room
	ttl   time.Duration
	stop  chan struct{}
}

// NewMemoryRoomRepository 建立記憶體房間存放層
//
// ttl 大於零時會啟動背景回收程序，定期清除過期房間，
// 避免長時間運行下房間無限累積。
func NewMemoryRoomRepository(ttl time.Duration) RoomRepository {
	r := &memoryRoomRepository{
		rooms: make(map[string]*models.Room),
		ttl:   ttl,
		stop:  make(chan struct{}),
	}
	if ttl > 0 {
		go r.janitor()
	}
	return r
}

func (r *memoryRoomRepository) Save(room *models.Room) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[room.Code] = room
	return nil
}

func (r *memoryRoomRepository) FindByCode(code string) (*models.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[code]
	if !ok {
		return nil, apperrors.NotFound("房間不存在")
	}
	return room, nil
}

func (r *memoryRoomRepository) Delete(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, code)
}

// Count 回傳目前的房間數量
func (r *memoryRoomRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}

// Close 停止背景回收程序
func (r *memoryRoomRepository) Close() {
	close(r.stop)
}

// janitor 定期清除超過存活時間的房間
func (r *memoryRoomRepository) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.evictExpired(time.Now())
		case <-r.stop:
			return
		}
	}
}

func (r *memoryRoomRepository) evictExpired(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for code, room := range r.rooms {
		if now.Sub(room.CreatedAt) > r.ttl {
			delete(r.rooms, code)
		}
	}
}
