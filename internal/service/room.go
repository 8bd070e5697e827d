package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"speech_arena/internal/ai"
	"speech_arena/internal/apperrors"
	"speech_arena/internal/models"
	"speech_arena/internal/repository"
	"speech_arena/internal/utils"
)

// 產生房間代碼時允許的重試次數，碰撞機率極低，重試只是保險
const maxCodeAttempts = 10

// RoomService 是房間與發言順序的協調器
//
// 所有狀態變更都在對應房間的鎖內完成；
// 唯一的例外是 SubmitResponse 的 AI 呼叫，必須在鎖外進行，
// 以免一次網路往返期間擋住同房間的輪詢。
type RoomService struct {
	repo      repository.RoomRepository
	backend   ai.Backend
	fallback  *ai.MockBackend
	events    *RoomEventManager
	log       *logrus.Logger
	aiTimeout time.Duration
	mockMode  bool // 整個程序使用模擬後端
}

// NewRoomService 建立房間協調器
func NewRoomService(repo repository.RoomRepository, backend ai.Backend, events *RoomEventManager, log *logrus.Logger, aiTimeout time.Duration) *RoomService {
	_, mockMode := backend.(*ai.MockBackend)
	return &RoomService{
		repo:      repo,
		backend:   backend,
		fallback:  ai.NewMockBackend(),
		events:    events,
		log:       log,
		aiTimeout: aiTimeout,
		mockMode:  mockMode,
	}
}

// CreateRoom 建立一個新房間，回傳房間與主持人憑證
func (s *RoomService) CreateRoom(topic string) (*models.Room, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, apperrors.InvalidInput("辯題不能為空")
	}

	code, err := s.freshRoomCode()
	if err != nil {
		return nil, err
	}

	room := models.NewRoom(code, topic, uuid.NewString())
	if err := s.repo.Save(room); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"room": code, "topic": topic}).Info("房間已建立")
	return room, nil
}

// freshRoomCode 產生一個尚未被使用的房間代碼
func (s *RoomService) freshRoomCode() (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code := utils.GenerateRoomCode()
		if _, err := s.repo.FindByCode(code); apperrors.Is(err, apperrors.KindNotFound) {
			return code, nil
		}
	}
	return "", apperrors.InvalidState("無法產生唯一的房間代碼")
}

// JoinRoom 讓一位參賽者加入房間
//
// 比賽進行中仍允許加入，新參賽者接在發言順序的尾端；
// 比賽結束後不再接受加入。
func (s *RoomService) JoinRoom(code, name string) (*models.Participant, *models.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, apperrors.InvalidInput("名字不能為空")
	}

	room, err := s.repo.FindByCode(utils.NormalizeRoomCode(code))
	if err != nil {
		return nil, nil, err
	}

	room.Lock()
	if room.Status == models.RoomStatusEnded {
		room.Unlock()
		return nil, nil, apperrors.InvalidState("比賽已結束，無法加入")
	}

	participant := &models.Participant{
		ID:       uuid.NewString(),
		Name:     name,
		JoinedAt: time.Now(),
	}
	room.Participants[participant.ID] = participant
	room.TurnOrder = append(room.TurnOrder, participant.ID)
	view := buildRoomView(room)
	room.Unlock()

	s.notify(view)
	return participant, room, nil
}

// StartDebate 開始比賽
//
// 採嚴格狀態機：只能從等待狀態開始，重複呼叫回傳 InvalidState，
// 不會重置進行中的比賽。
func (s *RoomService) StartDebate(code string) (*models.RoomView, error) {
	room, err := s.repo.FindByCode(utils.NormalizeRoomCode(code))
	if err != nil {
		return nil, err
	}

	room.Lock()
	if room.Status != models.RoomStatusWaiting {
		room.Unlock()
		return nil, apperrors.InvalidState("比賽已經開始或結束")
	}
	if len(room.TurnOrder) == 0 {
		room.Unlock()
		return nil, apperrors.InvalidInput("還沒有參賽者加入")
	}

	room.Status = models.RoomStatusInProgress
	room.CurrentRound = 1
	room.CurrentTurn = room.TurnOrder[0]
	view := buildRoomView(room)
	room.Unlock()

	s.notify(view)
	return view, nil
}

// AdvanceTurn 將發言權交給下一位參賽者
//
// 順序輪完一圈時回到第一位並進入下一回合。
// 找不到當前發言者時（防禦性處理）視為從頭開始，不增加回合。
func (s *RoomService) AdvanceTurn(code string) (*models.RoomView, error) {
	room, err := s.repo.FindByCode(utils.NormalizeRoomCode(code))
	if err != nil {
		return nil, err
	}

	room.Lock()
	if room.Status != models.RoomStatusInProgress {
		room.Unlock()
		return nil, apperrors.InvalidState("比賽不在進行中")
	}

	idx := -1
	for i, id := range room.TurnOrder {
		if id == room.CurrentTurn {
			idx = i
			break
		}
	}
	next := idx + 1
	if next >= len(room.TurnOrder) {
		next = 0
		room.CurrentRound++
	}
	room.CurrentTurn = room.TurnOrder[next]
	view := buildRoomView(room)
	room.Unlock()

	s.notify(view)
	return view, nil
}

// EndDebate 結束比賽並回傳最終成績
//
// 從等待或進行中狀態都可以結束；對已結束的房間重複呼叫
// 視為冪等成功，狀態永不倒退。成績每次都由現存的發言重新計算。
func (s *RoomService) EndDebate(code string) (*models.ResultsView, error) {
	room, err := s.repo.FindByCode(utils.NormalizeRoomCode(code))
	if err != nil {
		return nil, err
	}

	room.Lock()
	if room.Status != models.RoomStatusEnded {
		room.Status = models.RoomStatusEnded
		room.CurrentTurn = ""
	}
	results := &models.ResultsView{
		RoomCode: room.Code,
		Topic:    room.Topic,
		Results:  RankParticipants(orderedParticipants(room)),
	}
	view := buildRoomView(room)
	room.Unlock()

	s.notify(view)
	return results, nil
}

// SubmitResponse 受理一次發言並交給 AI 評分
//
// 分三個階段：持鎖驗證發言權並記下回合數；
// 放開鎖進行語音辨識與評審（有時限）；
// 重新取鎖確認房間仍存在後追加結果。
// 第三階段時發言權可能已經移轉，這是允許的——
// 這筆發言仍記在第一階段快照的回合上。
func (s *RoomService) SubmitResponse(ctx context.Context, code, participantID string, audio []byte, filename string) (*models.SubmitResult, error) {
	if len(audio) == 0 {
		return nil, apperrors.InvalidInput("未提供語音內容")
	}

	code = utils.NormalizeRoomCode(code)
	room, err := s.repo.FindByCode(code)
	if err != nil {
		return nil, err
	}

	// 第一階段：驗證發言權，快照回合數
	room.Lock()
	if _, ok := room.Participants[participantID]; !ok {
		room.Unlock()
		return nil, apperrors.NotFound("參賽者不存在")
	}
	if room.Status != models.RoomStatusInProgress {
		room.Unlock()
		return nil, apperrors.InvalidState("比賽不在進行中")
	}
	if room.CurrentTurn != participantID {
		room.Unlock()
		return nil, apperrors.TurnViolation("還沒輪到你發言")
	}
	round := room.CurrentRound
	topic := room.Topic
	room.Unlock()

	// 第二階段：鎖外呼叫 AI，失敗時退回模擬評審，展示不中斷
	scores, transcript := s.transcribeAndEvaluate(ctx, code, topic, audio, filename)

	// 第三階段：重新確認房間還在，追加發言
	room, err = s.repo.FindByCode(code)
	if err != nil {
		return nil, err
	}

	room.Lock()
	participant, ok := room.Participants[participantID]
	if !ok {
		room.Unlock()
		return nil, apperrors.NotFound("參賽者不存在")
	}
	participant.Responses = append(participant.Responses, models.Response{
		Round:       round,
		Transcript:  transcript,
		Scores:      scores,
		SubmittedAt: time.Now(),
	})
	view := buildRoomView(room)
	room.Unlock()

	s.notify(view)
	return &models.SubmitResult{Transcript: transcript, Scores: scores, Round: round}, nil
}

// transcribeAndEvaluate 進行語音辨識與評分，任一步失敗都退回模擬後端
func (s *RoomService) transcribeAndEvaluate(ctx context.Context, code, topic string, audio []byte, filename string) (models.Scores, string) {
	ctx, cancel := context.WithTimeout(ctx, s.aiTimeout)
	defer cancel()

	usedFallback := false

	transcript, err := s.backend.Transcribe(ctx, audio, filename)
	if err != nil {
		s.log.WithFields(logrus.Fields{"room": code, "error": err}).Warn("語音辨識失敗，改用模擬逐字稿")
		transcript, _ = s.fallback.Transcribe(ctx, audio, filename)
		usedFallback = true
	}

	eval, err := s.backend.Evaluate(ctx, topic, transcript)
	if err != nil {
		s.log.WithFields(logrus.Fields{"room": code, "error": err}).Warn("AI 評審失敗，改用模擬評分")
		eval, _ = s.fallback.Evaluate(ctx, topic, transcript)
		usedFallback = true
	}

	return models.Scores{
		Logic:         eval.Logic,
		Clarity:       eval.Clarity,
		Relevance:     eval.Relevance,
		EmotionalBias: eval.EmotionalBias,
		FinalScore:    ComputeFinalScore(eval),
		Insight:       eval.Insight,
		IsMock:        usedFallback || s.mockMode,
	}, transcript
}

// GetRoomView 取得房間狀態的唯讀投影
func (s *RoomService) GetRoomView(code string) (*models.RoomView, error) {
	room, err := s.repo.FindByCode(utils.NormalizeRoomCode(code))
	if err != nil {
		return nil, err
	}

	room.Lock()
	view := buildRoomView(room)
	room.Unlock()
	return view, nil
}

// GetTurnStatus 回答指定參賽者「輪到我了嗎」
func (s *RoomService) GetTurnStatus(code, participantID string) (*models.TurnStatusView, error) {
	room, err := s.repo.FindByCode(utils.NormalizeRoomCode(code))
	if err != nil {
		return nil, err
	}

	room.Lock()
	defer room.Unlock()

	if _, ok := room.Participants[participantID]; !ok {
		return nil, apperrors.NotFound("參賽者不存在")
	}

	status := &models.TurnStatusView{
		Status:      room.Status,
		Round:       room.CurrentRound,
		IsMyTurn:    room.Status == models.RoomStatusInProgress && room.CurrentTurn == participantID,
		CurrentTurn: room.CurrentTurn,
	}
	if current, ok := room.Participants[room.CurrentTurn]; ok {
		status.CurrentTurnName = current.Name
	}
	return status, nil
}

// GetResults 取得最終成績，只有比賽結束後才可查詢
func (s *RoomService) GetResults(code string) (*models.ResultsView, error) {
	room, err := s.repo.FindByCode(utils.NormalizeRoomCode(code))
	if err != nil {
		return nil, err
	}

	room.Lock()
	defer room.Unlock()

	if room.Status != models.RoomStatusEnded {
		return nil, apperrors.InvalidState("比賽尚未結束")
	}

	return &models.ResultsView{
		RoomCode: room.Code,
		Topic:    room.Topic,
		Results:  RankParticipants(orderedParticipants(room)),
	}, nil
}

// notify 將最新房間狀態推送給 WebSocket 客戶端，盡力而為
func (s *RoomService) notify(view *models.RoomView) {
	if s.events != nil {
		s.events.BroadcastRoomUpdate(view)
	}
}

// orderedParticipants 依加入順序列出參賽者，必須持鎖呼叫
func orderedParticipants(room *models.Room) []*models.Participant {
	participants := make([]*models.Participant, 0, len(room.TurnOrder))
	for _, id := range room.TurnOrder {
		if p, ok := room.Participants[id]; ok {
			participants = append(participants, p)
		}
	}
	return participants
}

// buildRoomView 在鎖內複製房間狀態為唯讀投影
func buildRoomView(room *models.Room) *models.RoomView {
	view := &models.RoomView{
		RoomCode:     room.Code,
		Topic:        room.Topic,
		Status:       room.Status,
		CurrentRound: room.CurrentRound,
		CurrentTurn:  room.CurrentTurn,
		Participants: make([]models.ParticipantView, 0, len(room.TurnOrder)),
		TurnOrder:    append([]string{}, room.TurnOrder...),
	}
	for _, id := range room.TurnOrder {
		p, ok := room.Participants[id]
		if !ok {
			continue
		}
		view.Participants = append(view.Participants, models.ParticipantView{
			ParticipantID: p.ID,
			Name:          p.Name,
			JoinedAt:      p.JoinedAt,
			ResponseCount: len(p.Responses),
		})
	}
	if current, ok := room.Participants[room.CurrentTurn]; ok {
		view.CurrentTurnName = current.Name
	}
	return view
}
