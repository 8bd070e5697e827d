package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORS 允許任意來源的跨域請求
//
// 這是一個現場展示用的服務，參賽者用手機瀏覽器直連，
// 不做來源限制。
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
