package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	AI     AIConfig
	Room   RoomConfig
}

type ServerConfig struct {
	Address string // HTTP 監聽位址
	BaseURL string // 對外公開的基底網址，用於產生加入連結與 QR code
}

type AIConfig struct {
	APIKey          string // 留空時整個程序使用模擬後端
	BaseURL         string // OpenAI 相容服務的 API 基底網址
	ChatModel       string
	TranscribeModel string
	TimeoutSeconds  int
}

type RoomConfig struct {
	TTLMinutes int // 房間自建立起的存活時間，到期由背景程序回收
}

// Load 讀取應用程式配置
//
// 優先使用環境變數（SERVER_ADDRESS、AI_APIKEY 等），
// 若工作目錄下有 config.yaml 也會讀入作為基底；
// AI 後端的真實/模擬切換只在這裡解析一次。
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./pkg/config")

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("server.baseurl", "http://localhost:8080")
	viper.SetDefault("ai.apikey", "")
	viper.SetDefault("ai.baseurl", "https://api.openai.com/v1")
	viper.SetDefault("ai.chatmodel", "gpt-4o-mini")
	viper.SetDefault("ai.transcribemodel", "whisper-1")
	viper.SetDefault("ai.timeoutseconds", 30)
	viper.SetDefault("room.ttlminutes", 120)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 配置文件是可選的，找不到時直接採用預設值與環境變數
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// AITimeout 回傳單次 AI 呼叫允許的最長時間
func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

// RoomTTL 回傳房間的存活時間
func (c *Config) RoomTTL() time.Duration {
	return time.Duration(c.Room.TTLMinutes) * time.Minute
}

// UseMockAI 判斷是否使用模擬 AI 後端（未配置金鑰時）
func (c *Config) UseMockAI() bool {
	return c.AI.APIKey == ""
}
