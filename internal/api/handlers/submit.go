package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"speech_arena/internal/service"
)

// maxAudioSize 單次上傳語音的大小上限（32MB）
const maxAudioSize = 32 << 20

// SubmitHandler 處理發言錄音的上傳與評分
type SubmitHandler struct {
	roomService *service.RoomService
}

// NewSubmitHandler 創建一個新的 SubmitHandler 實例
func NewSubmitHandler(roomService *service.RoomService) *SubmitHandler {
	return &SubmitHandler{roomService: roomService}
}

// SubmitSpeech 處理提交發言的請求
//
// 錄音以 multipart 的 audio 欄位上傳，先落到暫存檔再讀回，
// 無論成功或失敗，暫存檔都會在請求結束前刪除；
// 刪除失敗只記錄，不影響回應。
func (h *SubmitHandler) SubmitSpeech(c *gin.Context) {
	participantID := c.PostForm("participantId")
	if participantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "缺少 participantId"})
		return
	}

	file, err := c.FormFile("audio")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未提供語音檔案"})
		return
	}
	if file.Size > maxAudioSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "語音檔案過大"})
		return
	}

	tmp, err := os.CreateTemp("", "speech_*"+filepath.Ext(file.Filename))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "儲存語音檔案失敗"})
		return
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer func() {
		if err := os.Remove(tmpPath); err != nil {
			logrus.WithFields(logrus.Fields{"path": tmpPath, "error": err}).Warn("暫存語音檔刪除失敗")
		}
	}()
	if err := c.SaveUploadedFile(file, tmpPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "儲存語音檔案失敗"})
		return
	}

	audio, err := os.ReadFile(tmpPath)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "讀取語音檔案失敗"})
		return
	}

	result, err := h.roomService.SubmitResponse(c.Request.Context(), c.Param("code"), participantID, audio, file.Filename)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"transcript": result.Transcript,
		"scores":     result.Scores,
		"round":      result.Round,
	})
}
