package service

import (
	"math"
	"sort"

	"speech_arena/internal/models"
)

// 四項指標的加權比重，總和為 1
const (
	weightLogic         = 0.35
	weightClarity       = 0.25
	weightRelevance     = 0.30
	weightEmotionalBias = 0.10 // 情緒化是反向指標，以 10-x 計入
)

// ComputeFinalScore 將四項原始指標加權為單一總分
//
// 缺失或超出 [0,10] 的指標一律以中性值 5 代入，因此永不失敗。
// 結果取一位小數，避免浮點雜訊影響排名比較。
func ComputeFinalScore(eval models.Evaluation) float64 {
	logic := coerceScore(eval.Logic)
	clarity := coerceScore(eval.Clarity)
	relevance := coerceScore(eval.Relevance)
	bias := coerceScore(eval.EmotionalBias)

	final := logic*weightLogic +
		clarity*weightClarity +
		relevance*weightRelevance +
		(10-bias)*weightEmotionalBias
	return round1(final)
}

// AggregateParticipant 將一位參賽者的所有發言彙整為平均成績
//
// 契約：先對各項原始指標取平均，再用平均後的指標重新計算總分，
// 而不是對每回合總分取平均。兩者在四捨五入下結果不同，
// 前端顯示的各項平均與總分因此永遠自洽。
// 沒有任何發言時回傳全零結果。
func AggregateParticipant(p *models.Participant) models.ResultEntry {
	entry := models.ResultEntry{
		ParticipantID: p.ID,
		Name:          p.Name,
		ResponseCount: len(p.Responses),
	}
	if len(p.Responses) == 0 {
		return entry
	}

	var logic, clarity, relevance, bias float64
	for _, resp := range p.Responses {
		logic += resp.Scores.Logic
		clarity += resp.Scores.Clarity
		relevance += resp.Scores.Relevance
		bias += resp.Scores.EmotionalBias
	}
	n := float64(len(p.Responses))

	entry.AverageScores = models.CriteriaAverages{
		Logic:         round1(logic / n),
		Clarity:       round1(clarity / n),
		Relevance:     round1(relevance / n),
		EmotionalBias: round1(bias / n),
	}
	entry.AverageScore = ComputeFinalScore(models.Evaluation{
		Logic:         entry.AverageScores.Logic,
		Clarity:       entry.AverageScores.Clarity,
		Relevance:     entry.AverageScores.Relevance,
		EmotionalBias: entry.AverageScores.EmotionalBias,
	})
	return entry
}

// RankParticipants 依平均總分由高到低排名
//
// 使用穩定排序：同分者維持加入順序。名次從 1 開始連續編號。
// 純函式，對相同輸入重複呼叫結果完全一致。
func RankParticipants(participants []*models.Participant) []models.ResultEntry {
	results := make([]models.ResultEntry, 0, len(participants))
	for _, p := range participants {
		results = append(results, AggregateParticipant(p))
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].AverageScore > results[j].AverageScore
	})
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

// coerceScore 將超出範圍或非數值的指標修正為中性值 5
func coerceScore(v float64) float64 {
	if math.IsNaN(v) || v < 0 || v > 10 {
		return 5
	}
	return v
}

// round1 四捨五入到一位小數
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
