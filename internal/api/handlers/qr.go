package handlers

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"speech_arena/internal/service"
)

// QRHandler 產生加入房間用的 QR code
type QRHandler struct {
	roomService *service.RoomService
	baseURL     string
}

// NewQRHandler 創建一個新的 QRHandler 實例
func NewQRHandler(roomService *service.RoomService, baseURL string) *QRHandler {
	return &QRHandler{roomService: roomService, baseURL: baseURL}
}

// GetRoomQR 處理取得房間 QR code 的請求
//
// 回覆 PNG 的 data URL 與對應的加入連結，方便投影在現場畫面上。
func (h *QRHandler) GetRoomQR(c *gin.Context) {
	view, err := h.roomService.GetRoomView(c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}

	joinURL := h.baseURL + "/join/" + view.RoomCode
	png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "產生 QR code 失敗"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"qrCode":  "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		"joinUrl": joinURL,
	})
}
