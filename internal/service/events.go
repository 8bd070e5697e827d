package service

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"speech_arena/internal/models"
)

// EventClient 代表一個訂閱房間事件的 WebSocket 連線
type EventClient struct {
	Conn     *websocket.Conn        // WebSocket 連接
	RoomCode string                 // 訂閱的房間代碼
	SendChan chan *models.RoomEvent // 事件發送通道，用於異步傳送
}

// RoomEventManager 管理所有的房間事件訂閱與推送
//
// 事件流是唯讀的：客戶端只收不發，房間狀態以輪詢端點為準，
// 推送只是讓主持人畫面即時一點，送不出去就斷線，不重試。
type RoomEventManager struct {
	clients    map[string]map[*EventClient]bool // 兩層 map: roomCode -> client -> bool
	clientsMux sync.RWMutex                     // 保護 clients map 的讀寫鎖
	log        *logrus.Logger
}

// NewRoomEventManager 創建並初始化房間事件管理器
func NewRoomEventManager(log *logrus.Logger) *RoomEventManager {
	return &RoomEventManager{
		clients: make(map[string]map[*EventClient]bool),
		log:     log,
	}
}

// HandleConnection 處理新的事件訂閱連線，阻塞直到連線關閉
func (m *RoomEventManager) HandleConnection(conn *websocket.Conn, roomCode string) {
	client := &EventClient{
		Conn:     conn,
		RoomCode: roomCode,
		SendChan: make(chan *models.RoomEvent, 64),
	}

	m.addClient(client)

	defer func() {
		m.removeClient(client)
		conn.Close()
		close(client.SendChan)
	}()

	go m.writePump(client)
	m.readPump(client)
}

// readPump 維持連線存活並丟棄客戶端送來的任何訊息
func (m *RoomEventManager) readPump(client *EventClient) {
	client.Conn.SetReadLimit(512)
	client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				m.log.WithField("error", err).Debug("websocket 連線異常關閉")
			}
			break
		}
	}
}

// writePump 處理向客戶端送出事件與心跳
func (m *RoomEventManager) writePump(client *EventClient) {
	ticker := time.NewTicker(54 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-client.SendChan:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(event)
			if err != nil {
				m.log.WithField("error", err).Warn("事件編碼失敗")
				continue
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// BroadcastRoomUpdate 推送房間狀態快照給該房間的所有訂閱者
func (m *RoomEventManager) BroadcastRoomUpdate(view *models.RoomView) {
	m.broadcast(view.RoomCode, models.NewRoomUpdateEvent(view))
}

// BroadcastSystemEvent 推送純文字系統事件到指定房間
func (m *RoomEventManager) BroadcastSystemEvent(roomCode, content string) {
	m.broadcast(roomCode, models.NewSystemEvent(roomCode, content))
}

func (m *RoomEventManager) broadcast(roomCode string, event *models.RoomEvent) {
	m.clientsMux.RLock()
	clients := m.clients[roomCode]
	m.clientsMux.RUnlock()

	for client := range clients {
		select {
		case client.SendChan <- event:
			// 事件已排入發送隊列
		default:
			// 隊列已滿，放棄這個客戶端
			m.removeClient(client)
			client.Conn.Close()
		}
	}
}

// addClient 安全地登記新的訂閱者
func (m *RoomEventManager) addClient(client *EventClient) {
	m.clientsMux.Lock()
	defer m.clientsMux.Unlock()

	if m.clients[client.RoomCode] == nil {
		m.clients[client.RoomCode] = make(map[*EventClient]bool)
	}
	m.clients[client.RoomCode][client] = true
}

// removeClient 安全地移除訂閱者
func (m *RoomEventManager) removeClient(client *EventClient) {
	m.clientsMux.Lock()
	defer m.clientsMux.Unlock()

	if clients, ok := m.clients[client.RoomCode]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(m.clients, client.RoomCode)
		}
	}
}

// RoomSubscribers 回傳指定房間目前的訂閱者數量
func (m *RoomEventManager) RoomSubscribers(roomCode string) int {
	m.clientsMux.RLock()
	defer m.clientsMux.RUnlock()

	return len(m.clients[roomCode])
}
