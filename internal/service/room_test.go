package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"speech_arena/internal/ai"
	"speech_arena/internal/apperrors"
	"speech_arena/internal/models"
	"speech_arena/internal/repository"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestService(t *testing.T, backend ai.Backend) (*RoomService, repository.RoomRepository) {
	t.Helper()
	log := testLogger()
	repo := repository.NewMemoryRoomRepository(time.Hour)
	t.Cleanup(repo.Close)
	svc := NewRoomService(repo, backend, NewRoomEventManager(log), log, 5*time.Second)
	return svc, repo
}

// failingBackend 模擬兩項外部能力都故障的 AI 後端
type failingBackend struct{}

func (failingBackend) Transcribe(context.Context, []byte, string) (string, error) {
	return "", ai.ErrTranscription
}

func (failingBackend) Evaluate(context.Context, string, string) (models.Evaluation, error) {
	return models.Evaluation{}, ai.ErrEvaluation
}

// scriptedBackend 依提交順序回放預先寫好的評分
type scriptedBackend struct {
	transcript string
	evals      []models.Evaluation
	next       int
}

func (s *scriptedBackend) Transcribe(context.Context, []byte, string) (string, error) {
	return s.transcript, nil
}

func (s *scriptedBackend) Evaluate(context.Context, string, string) (models.Evaluation, error) {
	eval := s.evals[s.next]
	s.next++
	return eval, nil
}

func TestCreateRoom(t *testing.T) {
	svc, _ := newTestService(t, ai.NewMockBackend())

	room, err := svc.CreateRoom("AI 倫理")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}

	if room.Status != models.RoomStatusWaiting {
		t.Fatalf("status = %s, want waiting", room.Status)
	}
	if room.CurrentRound != 0 || room.CurrentTurn != "" {
		t.Fatalf("new room round=%d turn=%q, want 0 and empty", room.CurrentRound, room.CurrentTurn)
	}
	if len(room.Code) != 6 {
		t.Fatalf("room code %q, want 6 characters", room.Code)
	}
	for _, ch := range room.Code {
		if strings.ContainsRune("0O1I", ch) {
			t.Fatalf("room code %q contains ambiguous character %q", room.Code, ch)
		}
	}
	if room.HostID == "" {
		t.Fatal("host credential missing")
	}
}

func TestCreateRoomEmptyTopic(t *testing.T) {
	svc, _ := newTestService(t, ai.NewMockBackend())

	if _, err := svc.CreateRoom("   "); !apperrors.Is(err, apperrors.KindInvalidInput) {
		t.Fatalf("CreateRoom with blank topic: err = %v, want InvalidInput", err)
	}
}

func TestJoinRoom(t *testing.T) {
	svc, _ := newTestService(t, ai.NewMockBackend())
	room, _ := svc.CreateRoom("topic")

	p, joined, err := svc.JoinRoom(room.Code, "Alice")
	if err != nil {
		t.Fatalf("JoinRoom: %v", err)
	}
	if joined.Code != room.Code || p.Name != "Alice" {
		t.Fatalf("joined %s as %s, want %s as Alice", joined.Code, p.Name, room.Code)
	}
	if len(room.TurnOrder) != 1 || room.TurnOrder[0] != p.ID {
		t.Fatalf("turn order %v, want [%s]", room.TurnOrder, p.ID)
	}

	// 房間代碼不分大小寫
	if _, _, err := svc.JoinRoom(strings.ToLower(room.Code), "Bob"); err != nil {
		t.Fatalf("JoinRoom with lowercase code: %v", err)
	}

	if _, _, err := svc.JoinRoom(room.Code, "  "); !apperrors.Is(err, apperrors.KindInvalidInput) {
		t.Fatalf("blank name: err = %v, want InvalidInput", err)
	}
	if _, _, err := svc.JoinRoom("ZZZZZZ", "Carol"); !apperrors.Is(err, apperrors.KindNotFound) {
		t.Fatalf("unknown room: err = %v, want NotFound", err)
	}
}

func TestJoinRoomLateAndAfterEnd(t *testing.T) {
	svc, _ := newTestService(t, ai.NewMockBackend())
	room, _ := svc.CreateRoom("topic")
	a, _, _ := svc.JoinRoom(room.Code, "Alice")
	svc.StartDebate(room.Code)

	// 進行中仍可加入，接在順序尾端，不影響當前發言者
	late, _, err := svc.JoinRoom(room.Code, "Latecomer")
	if err != nil {
		t.Fatalf("late join: %v", err)
	}
	if room.TurnOrder[len(room.TurnOrder)-1] != late.ID {
		t.Fatalf("late joiner not at tail: %v", room.TurnOrder)
	}
	if room.CurrentTurn != a.ID {
		t.Fatalf("current turn moved to %s after late join", room.CurrentTurn)
	}

	svc.EndDebate(room.Code)
	if _, _, err := svc.JoinRoom(room.Code, "TooLate"); !apperrors.Is(err, apperrors.KindInvalidState) {
		t.Fatalf("join after end: err = %v, want InvalidState", err)
	}
}

func TestStartDebate(t *testing.T) {
	svc, _ := newTestService(t, ai.NewMockBackend())
	room, _ := svc.CreateRoom("topic")

	// 沒有參賽者不能開始
	if _, err := svc.StartDebate(room.Code); !apperrors.Is(err, apperrors.KindInvalidInput) {
		t.Fatalf("start with no participants: err = %v, want InvalidInput", err)
	}

	a, _, _ := svc.JoinRoom(room.Code, "Alice")
	svc.JoinRoom(room.Code, "Bob")

	view, err := svc.StartDebate(room.Code)
	if err != nil {
		t.Fatalf("StartDebate: %v", err)
	}
	if view.Status != models.RoomStatusInProgress || view.CurrentRound != 1 || view.CurrentTurn != a.ID {
		t.Fatalf("after start: %+v", view)
	}

	// 嚴格狀態機：重複開始不允許，也不會重置比賽
	if _, err := svc.StartDebate(room.Code); !apperrors.Is(err, apperrors.KindInvalidState) {
		t.Fatalf("second start: err = %v, want InvalidState", err)
	}
}

func TestAdvanceTurnRotation(t *testing.T) {
	svc, _ := newTestService(t, ai.NewMockBackend())
	room, _ := svc.CreateRoom("topic")

	if _, err := svc.AdvanceTurn(room.Code); !apperrors.Is(err, apperrors.KindInvalidState) {
		t.Fatalf("advance before start: err = %v, want InvalidState", err)
	}

	a, _, _ := svc.JoinRoom(room.Code, "Alice")
	b, _, _ := svc.JoinRoom(room.Code, "Bob")
	c, _, _ := svc.JoinRoom(room.Code, "Carol")
	svc.StartDebate(room.Code)

	expect := []struct {
		turn  string
		round int
	}{
		{b.ID, 1},
		{c.ID, 1},
		{a.ID, 2}, // 輪完一圈回到第一位並進入下一回合
	}
	for i, want := range expect {
		view, err := svc.AdvanceTurn(room.Code)
		if err != nil {
			t.Fatalf("AdvanceTurn #%d: %v", i+1, err)
		}
		if view.CurrentTurn != want.turn || view.CurrentRound != want.round {
			t.Fatalf("advance #%d: turn=%s round=%d, want turn=%s round=%d",
				i+1, view.CurrentTurn, view.CurrentRound, want.turn, want.round)
		}
	}
}

func TestAdvanceTurnUnknownCurrent(t *testing.T) {
	svc, repo := newTestService(t, ai.NewMockBackend())
	room, _ := svc.CreateRoom("topic")
	a, _, _ := svc.JoinRoom(room.Code, "Alice")
	svc.JoinRoom(room.Code, "Bob")
	svc.StartDebate(room.Code)

	// 防禦性處理：當前發言者不在順序中時視為從頭開始
	stored, _ := repo.FindByCode(room.Code)
	stored.Lock()
	stored.CurrentTurn = "ghost"
	stored.Unlock()

	view, err := svc.AdvanceTurn(room.Code)
	if err != nil {
		t.Fatalf("AdvanceTurn: %v", err)
	}
	if view.CurrentTurn != a.ID || view.CurrentRound != 1 {
		t.Fatalf("recovered turn=%s round=%d, want %s round=1", view.CurrentTurn, view.CurrentRound, a.ID)
	}
}

func TestEndDebate(t *testing.T) {
	svc, _ := newTestService(t, ai.NewMockBackend())
	room, _ := svc.CreateRoom("topic")
	svc.JoinRoom(room.Code, "Alice")

	if _, err := svc.GetResults(room.Code); !apperrors.Is(err, apperrors.KindInvalidState) {
		t.Fatalf("results before end: err = %v, want InvalidState", err)
	}

	// 等待狀態也可以直接結束
	results, err := svc.EndDebate(room.Code)
	if err != nil {
		t.Fatalf("EndDebate: %v", err)
	}
	if room.Status != models.RoomStatusEnded || room.CurrentTurn != "" {
		t.Fatalf("after end: status=%s turn=%q", room.Status, room.CurrentTurn)
	}
	if len(results.Results) != 1 || results.Results[0].Rank != 1 {
		t.Fatalf("results = %+v", results.Results)
	}

	// 重複結束視為冪等成功
	if _, err := svc.EndDebate(room.Code); err != nil {
		t.Fatalf("second end: %v", err)
	}
	if _, err := svc.EndDebate("ZZZZZZ"); !apperrors.Is(err, apperrors.KindNotFound) {
		t.Fatalf("end unknown room: err = %v, want NotFound", err)
	}
}

func TestSubmitResponseValidation(t *testing.T) {
	svc, _ := newTestService(t, ai.NewMockBackend())
	room, _ := svc.CreateRoom("topic")
	a, _, _ := svc.JoinRoom(room.Code, "Alice")
	b, _, _ := svc.JoinRoom(room.Code, "Bob")

	ctx := context.Background()
	audio := []byte("fake-audio")

	if _, err := svc.SubmitResponse(ctx, room.Code, a.ID, audio, "a.webm"); !apperrors.Is(err, apperrors.KindInvalidState) {
		t.Fatalf("submit before start: err = %v, want InvalidState", err)
	}

	svc.StartDebate(room.Code)

	if _, err := svc.SubmitResponse(ctx, room.Code, b.ID, audio, "b.webm"); !apperrors.Is(err, apperrors.KindTurnViolation) {
		t.Fatalf("submit out of turn: err = %v, want TurnViolation", err)
	}
	if len(room.Participants[b.ID].Responses) != 0 {
		t.Fatal("rejected submission must not append a response")
	}

	if _, err := svc.SubmitResponse(ctx, room.Code, "nobody", audio, "x.webm"); !apperrors.Is(err, apperrors.KindNotFound) {
		t.Fatalf("submit by unknown participant: err = %v, want NotFound", err)
	}
	if _, err := svc.SubmitResponse(ctx, room.Code, a.ID, nil, "a.webm"); !apperrors.Is(err, apperrors.KindInvalidInput) {
		t.Fatalf("submit without audio: err = %v, want InvalidInput", err)
	}
}

func TestSubmitResponseSuccess(t *testing.T) {
	svc, _ := newTestService(t, ai.NewMockBackend())
	room, _ := svc.CreateRoom("topic")
	a, _, _ := svc.JoinRoom(room.Code, "Alice")
	svc.StartDebate(room.Code)

	result, err := svc.SubmitResponse(context.Background(), room.Code, a.ID, []byte("fake-audio"), "a.webm")
	if err != nil {
		t.Fatalf("SubmitResponse: %v", err)
	}

	if result.Round != 1 {
		t.Fatalf("result round = %d, want 1", result.Round)
	}
	if result.Transcript == "" {
		t.Fatal("transcript is empty")
	}
	// 全程使用模擬後端時，分數必須帶模擬標記
	if !result.Scores.IsMock {
		t.Fatal("mock backend scores must be flagged IsMock")
	}

	responses := room.Participants[a.ID].Responses
	if len(responses) != 1 || responses[0].Round != 1 {
		t.Fatalf("stored responses = %+v", responses)
	}
	// 發言權不因提交而自動移轉
	if room.CurrentTurn != a.ID {
		t.Fatalf("turn moved to %s after submit", room.CurrentTurn)
	}
}

func TestSubmitResponseFallbackOnFailure(t *testing.T) {
	svc, _ := newTestService(t, failingBackend{})
	room, _ := svc.CreateRoom("topic")
	a, _, _ := svc.JoinRoom(room.Code, "Alice")
	svc.StartDebate(room.Code)

	result, err := svc.SubmitResponse(context.Background(), room.Code, a.ID, []byte("fake-audio"), "a.webm")
	if err != nil {
		t.Fatalf("SubmitResponse with failing backend: %v", err)
	}

	// AI 故障時退回模擬評審，展示不中斷，但分數必須可辨識
	if !result.Scores.IsMock {
		t.Fatal("fallback scores must be flagged IsMock")
	}
	if result.Transcript == "" || result.Scores.FinalScore < 0 || result.Scores.FinalScore > 10 {
		t.Fatalf("fallback result out of shape: %+v", result)
	}
	if len(room.Participants[a.ID].Responses) != 1 {
		t.Fatal("fallback submission must still append a response")
	}
}

func TestGetTurnStatus(t *testing.T) {
	svc, _ := newTestService(t, ai.NewMockBackend())
	room, _ := svc.CreateRoom("topic")
	a, _, _ := svc.JoinRoom(room.Code, "Alice")
	b, _, _ := svc.JoinRoom(room.Code, "Bob")
	svc.StartDebate(room.Code)

	status, err := svc.GetTurnStatus(room.Code, a.ID)
	if err != nil {
		t.Fatalf("GetTurnStatus: %v", err)
	}
	if !status.IsMyTurn || status.CurrentTurnName != "Alice" || status.Round != 1 {
		t.Fatalf("alice status = %+v", status)
	}

	status, _ = svc.GetTurnStatus(room.Code, b.ID)
	if status.IsMyTurn {
		t.Fatal("bob should not have the turn")
	}

	if _, err := svc.GetTurnStatus(room.Code, "nobody"); !apperrors.Is(err, apperrors.KindNotFound) {
		t.Fatalf("unknown participant: err = %v, want NotFound", err)
	}
}

func TestFullContestScenario(t *testing.T) {
	backend := &scriptedBackend{
		transcript: "我方認為人工智慧需要更嚴格的倫理規範。",
		evals: []models.Evaluation{
			{Logic: 7, Clarity: 6, Relevance: 8, EmotionalBias: 3, Insight: "論點清楚"},
			{Logic: 6, Clarity: 7, Relevance: 6, EmotionalBias: 4, Insight: "切題"},
		},
	}
	svc, _ := newTestService(t, backend)

	room, err := svc.CreateRoom("AI ethics")
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	alice, _, _ := svc.JoinRoom(room.Code, "Alice")
	bob, _, _ := svc.JoinRoom(room.Code, "Bob")

	if _, err := svc.StartDebate(room.Code); err != nil {
		t.Fatalf("StartDebate: %v", err)
	}

	ctx := context.Background()
	aliceResult, err := svc.SubmitResponse(ctx, room.Code, alice.ID, []byte("alice-audio"), "alice.webm")
	if err != nil {
		t.Fatalf("alice submit: %v", err)
	}
	if !almostEqual(aliceResult.Scores.FinalScore, 7.1) {
		t.Fatalf("alice final score = %v, want 7.1", aliceResult.Scores.FinalScore)
	}
	if aliceResult.Scores.IsMock {
		t.Fatal("scripted backend must not be flagged IsMock")
	}

	svc.AdvanceTurn(room.Code)
	if _, err := svc.SubmitResponse(ctx, room.Code, bob.ID, []byte("bob-audio"), "bob.webm"); err != nil {
		t.Fatalf("bob submit: %v", err)
	}

	view, _ := svc.AdvanceTurn(room.Code)
	if view.CurrentTurn != alice.ID || view.CurrentRound != 2 {
		t.Fatalf("after wrap: turn=%s round=%d", view.CurrentTurn, view.CurrentRound)
	}

	results, err := svc.EndDebate(room.Code)
	if err != nil {
		t.Fatalf("EndDebate: %v", err)
	}
	if len(results.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(results.Results))
	}
	if results.Results[0].Name != "Alice" || results.Results[0].Rank != 1 || results.Results[1].Rank != 2 {
		t.Fatalf("unexpected ranking: %+v", results.Results)
	}
	if !almostEqual(results.Results[0].AverageScores.Logic, 7.0) {
		t.Fatalf("alice average logic = %v, want 7.0", results.Results[0].AverageScores.Logic)
	}

	// 結束後成績可重複查詢，且與結束時一致
	again, err := svc.GetResults(room.Code)
	if err != nil {
		t.Fatalf("GetResults after end: %v", err)
	}
	if len(again.Results) != 2 || again.Results[0].Name != "Alice" {
		t.Fatalf("repeated results differ: %+v", again.Results)
	}
}
