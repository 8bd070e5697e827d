package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"speech_arena/internal/apperrors"
)

// respondError 將服務層錯誤統一對應到 HTTP 狀態碼與 {error} 回應
//
// 找不到房間或參賽者回 404，其餘分類一律回 400；
// 任何未分類的錯誤一律回 500，不讓它往外傳。
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch apperrors.KindOf(err) {
	case apperrors.KindNotFound:
		status = http.StatusNotFound
	case apperrors.KindInvalidInput, apperrors.KindInvalidState, apperrors.KindTurnViolation:
		status = http.StatusBadRequest
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
