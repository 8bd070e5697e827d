package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"speech_arena/internal/service"
)

// RoomHandler 處理與房間相關的請求
type RoomHandler struct {
	roomService *service.RoomService
}

// NewRoomHandler 創建一個新的 RoomHandler 實例
func NewRoomHandler(roomService *service.RoomService) *RoomHandler {
	return &RoomHandler{roomService: roomService}
}

// CreateRoom 處理建立房間的請求
func (h *RoomHandler) CreateRoom(c *gin.Context) {
	var input struct {
		Topic string `json:"topic"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "請求內容格式錯誤"})
		return
	}

	room, err := h.roomService.CreateRoom(input.Topic)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"roomCode": room.Code,
		"topic":    room.Topic,
		"hostId":   room.HostID,
	})
}

// GetRoom 處理取得房間狀態的請求
func (h *RoomHandler) GetRoom(c *gin.Context) {
	view, err := h.roomService.GetRoomView(c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// JoinRoom 處理參賽者加入房間的請求
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	var input struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "請求內容格式錯誤"})
		return
	}

	participant, room, err := h.roomService.JoinRoom(c.Param("code"), input.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"participantId": participant.ID,
		"name":          participant.Name,
		"topic":         room.Topic,
		"roomCode":      room.Code,
	})
}

// StartDebate 處理開始比賽的請求
func (h *RoomHandler) StartDebate(c *gin.Context) {
	view, err := h.roomService.StartDebate(c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"currentTurn":     view.CurrentTurn,
		"currentTurnName": view.CurrentTurnName,
		"round":           view.CurrentRound,
	})
}

// NextTurn 處理換下一位發言的請求
func (h *RoomHandler) NextTurn(c *gin.Context) {
	view, err := h.roomService.AdvanceTurn(c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"currentTurn":     view.CurrentTurn,
		"currentTurnName": view.CurrentTurnName,
		"round":           view.CurrentRound,
	})
}

// EndDebate 處理結束比賽的請求，回覆最終成績
func (h *RoomHandler) EndDebate(c *gin.Context) {
	results, err := h.roomService.EndDebate(c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// GetTurnStatus 處理參賽者查詢發言權的請求
func (h *RoomHandler) GetTurnStatus(c *gin.Context) {
	participantID := c.Query("participantId")
	if participantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 participantId"})
		return
	}

	status, err := h.roomService.GetTurnStatus(c.Param("code"), participantID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// GetResults 處理查詢最終成績的請求
func (h *RoomHandler) GetResults(c *gin.Context) {
	results, err := h.roomService.GetResults(c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}
