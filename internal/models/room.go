package models

import (
	"sync"
	"time"
)

// Room 表示一個演講比賽房間
//
// 每個房間內嵌自己的互斥鎖：同一房間的狀態變更必須互斥進行，
// 不同房間之間則互不影響。持鎖期間不得進行任何外部呼叫。
type Room struct {
	sync.Mutex

	Code         string                  // 房間代碼，6 位大寫
	Topic        string                  // 辯題，建立後不可變
	HostID       string                  // 主持人憑證，建立房間時發放
	Status       RoomStatus              // 房間狀態，只能單向前進
	Participants map[string]*Participant // 參賽者 ID -> 參賽者
	TurnOrder    []string                // 發言順序（同時也是加入順序）
	CurrentTurn  string                  // 當前發言者的參賽者 ID，無人發言時為空字串
	CurrentRound int                     // 當前回合，等待中為 0
	CreatedAt    time.Time
}

// RoomStatus 定義房間狀態的類型
type RoomStatus string

const (
	RoomStatusWaiting    RoomStatus = "waiting"     // 等待參賽者加入
	RoomStatusInProgress RoomStatus = "in_progress" // 比賽進行中
	RoomStatusEnded      RoomStatus = "ended"       // 比賽已結束
)

// NewRoom 建立一個處於等待狀態的空房間
func NewRoom(code, topic, hostID string) *Room {
	return &Room{
		Code:         code,
		Topic:        topic,
		HostID:       hostID,
		Status:       RoomStatusWaiting,
		Participants: make(map[string]*Participant),
		TurnOrder:    []string{},
		CurrentRound: 0,
		CreatedAt:    time.Now(),
	}
}

// Participant 表示房間內的一位參賽者
type Participant struct {
	ID        string
	Name      string // 加入時填寫，之後不可變
	JoinedAt  time.Time
	Responses []Response // 每次被接受的發言追加一筆，不可回溯修改
}

// Response 表示一次已評分的發言，追加後不可變
type Response struct {
	Round       int       `json:"round"`
	Transcript  string    `json:"transcript"`
	Scores      Scores    `json:"scores"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Scores 表示一次發言的完整評分
//
// IsMock 標記這筆分數來自模擬評審（包含 AI 後端故障時的退路），
// 讓前端與測試能夠區分真實評分與模擬評分。
type Scores struct {
	Logic         float64 `json:"logic"`
	Clarity       float64 `json:"clarity"`
	Relevance     float64 `json:"relevance"`
	EmotionalBias float64 `json:"emotionalBias"`
	FinalScore    float64 `json:"finalScore"`
	Insight       string  `json:"insight"`
	IsMock        bool    `json:"isMock"`
}

// Evaluation 是 AI 評審回傳的原始四項指標與短評
type Evaluation struct {
	Logic         float64 `json:"logic"`
	Clarity       float64 `json:"clarity"`
	Relevance     float64 `json:"relevance"`
	EmotionalBias float64 `json:"emotionalBias"`
	Insight       string  `json:"insight"`
}
