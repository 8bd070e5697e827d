package models

import "time"

// RoomView 是房間狀態的唯讀投影，供輪詢與 WebSocket 推送使用
type RoomView struct {
	RoomCode        string            `json:"roomCode"`
	Topic           string            `json:"topic"`
	Status          RoomStatus        `json:"status"`
	CurrentRound    int               `json:"currentRound"`
	CurrentTurn     string            `json:"currentTurn"`
	CurrentTurnName string            `json:"currentTurnName"`
	Participants    []ParticipantView `json:"participants"`
	TurnOrder       []string          `json:"turnOrder"`
}

// ParticipantView 是參賽者的唯讀投影
type ParticipantView struct {
	ParticipantID string    `json:"participantId"`
	Name          string    `json:"name"`
	JoinedAt      time.Time `json:"joinedAt"`
	ResponseCount int       `json:"responseCount"`
}

// TurnStatusView 回答「現在輪到誰」，供參賽者端輪詢
type TurnStatusView struct {
	Status          RoomStatus `json:"status"`
	Round           int        `json:"round"`
	IsMyTurn        bool       `json:"isMyTurn"`
	CurrentTurnName string     `json:"currentTurnName"`
	CurrentTurn     string     `json:"currentTurn"`
}

// CriteriaAverages 是四項指標的算術平均（各取一位小數）
type CriteriaAverages struct {
	Logic         float64 `json:"logic"`
	Clarity       float64 `json:"clarity"`
	Relevance     float64 `json:"relevance"`
	EmotionalBias float64 `json:"emotionalBias"`
}

// ResultEntry 是單一參賽者的最終成績
type ResultEntry struct {
	Rank          int              `json:"rank"`
	ParticipantID string           `json:"participantId"`
	Name          string           `json:"name"`
	AverageScore  float64          `json:"averageScore"`
	AverageScores CriteriaAverages `json:"averageScores"`
	ResponseCount int              `json:"responseCount"`
}

// ResultsView 是最終成績的完整回覆
type ResultsView struct {
	RoomCode string        `json:"roomCode"`
	Topic    string        `json:"topic"`
	Results  []ResultEntry `json:"results"`
}

// SubmitResult 是一次成功發言提交的回覆內容
type SubmitResult struct {
	Transcript string `json:"transcript"`
	Scores     Scores `json:"scores"`
	Round      int    `json:"round"`
}
