package ai

import (
	"context"
	"hash/fnv"
	"math"
	"math/rand"

	"speech_arena/internal/models"
)

// mockTranscripts 模擬逐字稿的樣本句，依語音內容的雜湊值挑選
var mockTranscripts = []string{
	"我認為這個議題的核心在於我們如何平衡效率與公平。",
	"從歷史經驗來看，類似的變革往往帶來意想不到的結果。",
	"數據顯示，大多數人其實支持更謹慎的做法。",
	"如果我們從另一個角度思考，答案或許並不那麼明顯。",
	"關鍵不在於技術本身，而在於我們如何使用它。",
}

// mockInsights 模擬短評的樣本句
var mockInsights = []string{
	"論點清楚，但可以加入更具體的例證。",
	"切題且有條理，情緒控制得宜。",
	"觀點有新意，邏輯鏈還可以再緊一些。",
	"表達流暢，結尾若能呼應開頭會更完整。",
	"立場明確，建議補充對反方觀點的回應。",
}

// MockBackend 是確定性的模擬 AI 後端
//
// 相同輸入永遠得到相同輸出：以輸入內容的 FNV 雜湊值作為亂數種子，
// 產生看似隨機、實則可重現的分數，方便展示與測試。
type MockBackend struct{}

// NewMockBackend 建立模擬後端
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// Transcribe 依語音內容回傳一句固定的模擬逐字稿，永不失敗
func (m *MockBackend) Transcribe(_ context.Context, audio []byte, _ string) (string, error) {
	h := fnv.New64a()
	h.Write(audio)
	return mockTranscripts[h.Sum64()%uint64(len(mockTranscripts))], nil
}

// Evaluate 依辯題與逐字稿產生可重現的模擬評分，永不失敗
func (m *MockBackend) Evaluate(_ context.Context, topic, transcript string) (models.Evaluation, error) {
	h := fnv.New64a()
	h.Write([]byte(topic))
	h.Write([]byte{0})
	h.Write([]byte(transcript))
	r := rand.New(rand.NewSource(int64(h.Sum64())))

	return models.Evaluation{
		Logic:         mockScore(r),
		Clarity:       mockScore(r),
		Relevance:     mockScore(r),
		EmotionalBias: mockScore(r),
		Insight:       mockInsights[r.Intn(len(mockInsights))],
	}, nil
}

// mockScore 產生 5.0 到 9.0 之間、一位小數的分數
func mockScore(r *rand.Rand) float64 {
	return math.Round((5+r.Float64()*4)*10) / 10
}
