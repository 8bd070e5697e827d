package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"speech_arena/internal/models"
	"speech_arena/internal/service"
	"speech_arena/internal/utils"
)

// 定義 WebSocket 升級器
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 注意：在生產環境中，應該檢查 origin
	},
}

// WebSocketHandler 處理房間事件的 WebSocket 訂閱
type WebSocketHandler struct {
	events      *service.RoomEventManager
	roomService *service.RoomService
}

// NewWebSocketHandler 創建一個新的 WebSocketHandler 實例
func NewWebSocketHandler(events *service.RoomEventManager, roomService *service.RoomService) *WebSocketHandler {
	return &WebSocketHandler{
		events:      events,
		roomService: roomService,
	}
}

// HandleWebSocket 處理事件訂閱連線請求
//
// 先確認房間存在再升級連線；連上後立即推送一次目前狀態，
// 之後每次房間變動都會收到新的快照。
func (h *WebSocketHandler) HandleWebSocket(c *gin.Context) {
	code := utils.NormalizeRoomCode(c.Param("code"))

	view, err := h.roomService.GetRoomView(code)
	if err != nil {
		respondError(c, err)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "升級WebSocket失敗"})
		return
	}

	// 先送一次目前狀態，再進入事件迴圈
	if err := conn.WriteJSON(models.NewRoomUpdateEvent(view)); err != nil {
		conn.Close()
		return
	}
	h.events.HandleConnection(conn, code)
}
