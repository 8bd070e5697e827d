package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"speech_arena/internal/models"
	"speech_arena/pkg/config"
)

// judgePrompt 要求模型以嚴格 JSON 回覆四項指標與一句短評
const judgePrompt = `你是一位演講比賽的評審。根據辯題評估參賽者的發言，` +
	`以 0 到 10 分評估四項指標：logic（邏輯性）、clarity（表達清晰度）、` +
	`relevance（切題程度）、emotionalBias（情緒化程度，越情緒化分數越高）。` +
	`另外用一句話給出 insight（短評）。` +
	`只回覆 JSON，格式：{"logic":0,"clarity":0,"relevance":0,"emotionalBias":0,"insight":""}`

// OpenAIBackend 透過 OpenAI 相容的 HTTP API 提供語音辨識與評審
type OpenAIBackend struct {
	apiKey          string
	baseURL         string
	chatModel       string
	transcribeModel string
	client          *http.Client
}

// NewOpenAIBackend 建立真實 AI 後端
func NewOpenAIBackend(cfg *config.Config) *OpenAIBackend {
	return &OpenAIBackend{
		apiKey:          cfg.AI.APIKey,
		baseURL:         strings.TrimRight(cfg.AI.BaseURL, "/"),
		chatModel:       cfg.AI.ChatModel,
		transcribeModel: cfg.AI.TranscribeModel,
		client:          &http.Client{Timeout: cfg.AITimeout()},
	}
}

// Transcribe 以 multipart 形式上傳語音，取得逐字稿
func (b *OpenAIBackend) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	fw, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscription, err)
	}
	if _, err := fw.Write(audio); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscription, err)
	}
	if err := w.WriteField("model", b.transcribeModel); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscription, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscription, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscription, err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscription, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: %s: %s", ErrTranscription, resp.Status, string(msg))
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode: %v", ErrTranscription, err)
	}
	return out.Text, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Evaluate 請模型對逐字稿評分並解析回覆的 JSON
func (b *OpenAIBackend) Evaluate(ctx context.Context, topic, transcript string) (models.Evaluation, error) {
	payload := chatRequest{
		Model: b.chatModel,
		Messages: []chatMessage{
			{Role: "system", Content: judgePrompt},
			{Role: "user", Content: "辯題：" + topic + "\n發言內容：" + transcript},
		},
		MaxTokens: 512,
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return models.Evaluation{}, fmt.Errorf("%w: %v", ErrEvaluation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return models.Evaluation{}, fmt.Errorf("%w: %v", ErrEvaluation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return models.Evaluation{}, fmt.Errorf("%w: %v", ErrEvaluation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return models.Evaluation{}, fmt.Errorf("%w: %s: %s", ErrEvaluation, resp.Status, string(msg))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return models.Evaluation{}, fmt.Errorf("%w: decode: %v", ErrEvaluation, err)
	}
	if len(out.Choices) == 0 {
		return models.Evaluation{}, fmt.Errorf("%w: empty choices", ErrEvaluation)
	}

	var eval models.Evaluation
	content := stripCodeFence(out.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &eval); err != nil {
		return models.Evaluation{}, fmt.Errorf("%w: parse scores: %v", ErrEvaluation, err)
	}
	return eval, nil
}

// stripCodeFence 去掉模型偶爾包在回覆外的 Markdown 圍欄
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}
