// Package ai 封裝語音辨識與評審兩項外部能力。
//
// 協調器只依賴 Transcriber 與 Evaluator 兩個介面；
// 實際後端在程序啟動時依配置決定一次：有 API 金鑰用真實後端，
// 否則用確定性的模擬後端。
package ai

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"speech_arena/internal/models"
	"speech_arena/pkg/config"
)

// ErrTranscription 表示語音辨識失敗
var ErrTranscription = errors.New("transcription failed")

// ErrEvaluation 表示評審呼叫失敗
var ErrEvaluation = errors.New("evaluation failed")

// Transcriber 將一段語音轉為逐字稿
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// Evaluator 依辯題對一段逐字稿評分
type Evaluator interface {
	Evaluate(ctx context.Context, topic, transcript string) (models.Evaluation, error)
}

// Backend 同時具備兩項能力
type Backend interface {
	Transcriber
	Evaluator
}

// NewBackend 依配置選擇 AI 後端，整個程序只呼叫一次
func NewBackend(cfg *config.Config, log *logrus.Logger) Backend {
	if cfg.UseMockAI() {
		log.Info("AI 金鑰未配置，使用模擬評審後端")
		return NewMockBackend()
	}
	log.WithField("base_url", cfg.AI.BaseURL).Info("使用真實 AI 評審後端")
	return NewOpenAIBackend(cfg)
}
