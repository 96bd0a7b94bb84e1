package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"numbers_duel/internal/domain"
	"numbers_duel/internal/game"
	"numbers_duel/internal/relay"
)

// хранилище в памяти, повторяющее контракт pg-репозитория:
// GetByID отдает копию, Save не трогает журнал, ходы пишутся отдельно
type memStore struct {
	mu      sync.Mutex
	matches map[string]*domain.Match
	moves   map[string][]domain.Move
}

func newMemStore() *memStore {
	return &memStore{
		matches: make(map[string]*domain.Match),
		moves:   make(map[string][]domain.Move),
	}
}

func (s *memStore) Create(ctx context.Context, m *domain.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *m
	s.matches[m.ID] = &cp
	return nil
}

func (s *memStore) GetByID(ctx context.Context, id string) (*domain.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, domain.ErrMatchNotFound
	}
	cp := *m
	cp.Moves = append([]domain.Move(nil), s.moves[id]...)
	return &cp, nil
}

func (s *memStore) Save(ctx context.Context, m *domain.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.matches[m.ID]; !ok {
		return domain.ErrMatchNotFound
	}
	cp := *m
	cp.Moves = nil
	s.matches[m.ID] = &cp
	return nil
}

func (s *memStore) AppendMove(ctx context.Context, mv *domain.Move) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moves[mv.MatchID] = append(s.moves[mv.MatchID], *mv)
	return nil
}

type recordedResult struct {
	winner, loser string
}

type memStats struct {
	mu      sync.Mutex
	results []recordedResult
}

func (s *memStats) RecordResult(ctx context.Context, winnerID, loserID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, recordedResult{winnerID, loserID})
	return nil
}

func newTestService(t *testing.T, seed int64) (*MatchService, *memStore, *relay.MemoryRelay, *memStats) {
	t.Helper()
	store := newMemStore()
	r := relay.NewMemoryRelay()
	stats := &memStats{}
	svc := NewMatchService(store, r, time.Second, game.NewLockedRand(seed))
	svc.SetStatsRecorder(stats)
	return svc, store, r, stats
}

func TestCreateAndJoin(t *testing.T) {
	svc, _, r, _ := newTestService(t, 1)
	ctx := context.Background()

	events, cancel := subscribeAfterCreate(ctx, t, svc, r)
	defer cancel()

	m, err := svc.JoinMatch(ctx, events.matchID, "200")
	if err != nil {
		t.Fatalf("присоединение: %v", err)
	}
	if m.ParticipantB == nil || *m.ParticipantB != "200" {
		t.Fatalf("второй участник не записан")
	}

	ev := waitEvent(t, events.ch)
	if ev.Kind != domain.EventParticipantJoined {
		t.Fatalf("ожидалось событие participant_joined, получено %q", ev.Kind)
	}
	if ev.ParticipantJoined == nil || ev.ParticipantJoined.ParticipantID != "200" {
		t.Fatalf("payload события присоединения: %+v", ev.ParticipantJoined)
	}
}

type createdSub struct {
	matchID string
	ch      <-chan domain.MatchEvent
}

func subscribeAfterCreate(ctx context.Context, t *testing.T, svc *MatchService, r *relay.MemoryRelay) (createdSub, func()) {
	t.Helper()
	m, err := svc.CreateMatch(ctx, "100", nil, domain.ModePVP, "")
	if err != nil {
		t.Fatalf("создание матча: %v", err)
	}
	ch, cancel, err := r.Subscribe(ctx, m.ID)
	if err != nil {
		t.Fatalf("подписка: %v", err)
	}
	return createdSub{matchID: m.ID, ch: ch}, cancel
}

func waitEvent(t *testing.T, ch <-chan domain.MatchEvent) domain.MatchEvent {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatalf("событие не пришло за секунду")
		return domain.MatchEvent{}
	}
}

func TestSetSecretStartsMatch(t *testing.T) {
	svc, _, _, _ := newTestService(t, 2)
	ctx := context.Background()

	m, err := svc.CreateMatch(ctx, "100", nil, domain.ModePVP, "")
	if err != nil {
		t.Fatalf("создание: %v", err)
	}
	if _, err := svc.JoinMatch(ctx, m.ID, "200"); err != nil {
		t.Fatalf("присоединение: %v", err)
	}

	if _, err := svc.SetSecret(ctx, m.ID, "100", "3719"); err != nil {
		t.Fatalf("секрет первого: %v", err)
	}
	got, err := svc.SetSecret(ctx, m.ID, "200", "0452")
	if err != nil {
		t.Fatalf("секрет второго: %v", err)
	}

	if got.Phase != domain.PhaseInProgress {
		t.Fatalf("матч должен стартовать, фаза %q", got.Phase)
	}
	if _, err := svc.SetSecret(ctx, m.ID, "100", "8912"); !errors.Is(err, game.ErrNotInProgress) {
		t.Fatalf("секрет после старта: %v", err)
	}
}

func TestBotMatchEndToEnd(t *testing.T) {
	svc, _, _, stats := newTestService(t, 7)
	ctx := context.Background()

	m, err := svc.CreateMatch(ctx, "100", nil, domain.ModeBot, domain.DifficultyHard)
	if err != nil {
		t.Fatalf("создание: %v", err)
	}
	if _, err := svc.SetSecret(ctx, m.ID, "100", "3719"); err != nil {
		t.Fatalf("секрет игрока: %v", err)
	}

	// человек играет той же стратегией согласованных кандидатов
	helper := game.NewBot(domain.DifficultyHard, game.NewLockedRand(8))

	for turn := 0; turn < 40; turn++ {
		cur, err := svc.GetMatch(ctx, m.ID)
		if err != nil {
			t.Fatalf("чтение матча: %v", err)
		}
		if cur.Phase == domain.PhaseFinished {
			break
		}
		if cur.TurnHolder == nil || *cur.TurnHolder != "100" {
			t.Fatalf("после хода бота очередь должна вернуться к игроку, матч %+v", cur.TurnHolder)
		}

		guess := helper.ChooseGuess(domain.CodeLength, cur.MovesOf("100"))
		if _, err := svc.SubmitGuess(ctx, m.ID, "100", guess); err != nil {
			t.Fatalf("ход игрока: %v", err)
		}
	}

	final, err := svc.GetMatch(ctx, m.ID)
	if err != nil {
		t.Fatalf("чтение финала: %v", err)
	}
	if final.Phase != domain.PhaseFinished {
		t.Fatalf("матч с ботом не завершился за 40 ходов")
	}
	if final.Winner == nil {
		t.Fatalf("у завершенного матча должен быть победитель")
	}

	stats.mu.Lock()
	defer stats.mu.Unlock()
	if len(stats.results) != 1 {
		t.Fatalf("статистика должна записаться ровно один раз, записей %d", len(stats.results))
	}
	if stats.results[0].winner != *final.Winner {
		t.Fatalf("статистика записала победителя %q, матч говорит %q", stats.results[0].winner, *final.Winner)
	}
}

func TestConcurrentGuessesExactlyOneWins(t *testing.T) {
	svc, _, _, _ := newTestService(t, 3)
	ctx := context.Background()

	m, err := svc.CreateMatch(ctx, "100", nil, domain.ModePVP, "")
	if err != nil {
		t.Fatalf("создание: %v", err)
	}
	if _, err := svc.JoinMatch(ctx, m.ID, "200"); err != nil {
		t.Fatalf("присоединение: %v", err)
	}
	if _, err := svc.SetSecret(ctx, m.ID, "100", "3719"); err != nil {
		t.Fatalf("секрет: %v", err)
	}
	if _, err := svc.SetSecret(ctx, m.ID, "200", "0452"); err != nil {
		t.Fatalf("секрет: %v", err)
	}

	// десять одинаковых победных догадок наперегонки: применяется ровно одна
	const racers = 10
	var wg sync.WaitGroup
	successes := make(chan *game.GuessResult, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.SubmitGuess(ctx, m.ID, "100", "0452")
			if err == nil {
				successes <- res
				return
			}
			// проигравшие гонку видят либо завершенный матч, либо чужой ход
			if !errors.Is(err, game.ErrNotInProgress) && !errors.Is(err, game.ErrNotYourTurn) {
				t.Errorf("неожиданная ошибка гонки: %v", err)
			}
		}()
	}
	wg.Wait()
	close(successes)

	var wins int
	for res := range successes {
		wins++
		if !res.Finished {
			t.Fatalf("победная догадка должна завершать матч")
		}
	}
	if wins != 1 {
		t.Fatalf("должна примениться ровно одна догадка, применилось %d", wins)
	}

	final, err := svc.GetMatch(ctx, m.ID)
	if err != nil {
		t.Fatalf("чтение финала: %v", err)
	}
	if len(final.Moves) != 1 {
		t.Fatalf("журнал должен содержать ровно один ход, содержит %d", len(final.Moves))
	}
	if final.Winner == nil || *final.Winner != "100" {
		t.Fatalf("победителем должен быть 100")
	}
}

func TestGetJournalFilter(t *testing.T) {
	svc, _, _, _ := newTestService(t, 4)
	ctx := context.Background()

	m, err := svc.CreateMatch(ctx, "100", nil, domain.ModePVP, "")
	if err != nil {
		t.Fatalf("создание: %v", err)
	}
	if _, err := svc.JoinMatch(ctx, m.ID, "200"); err != nil {
		t.Fatalf("присоединение: %v", err)
	}
	if _, err := svc.SetSecret(ctx, m.ID, "100", "3719"); err != nil {
		t.Fatalf("секрет: %v", err)
	}
	if _, err := svc.SetSecret(ctx, m.ID, "200", "0452"); err != nil {
		t.Fatalf("секрет: %v", err)
	}
	if _, err := svc.SubmitGuess(ctx, m.ID, "100", "0123"); err != nil {
		t.Fatalf("ход 100: %v", err)
	}
	if _, err := svc.SubmitGuess(ctx, m.ID, "200", "0123"); err != nil {
		t.Fatalf("ход 200: %v", err)
	}

	all, err := svc.GetJournal(ctx, m.ID, nil)
	if err != nil {
		t.Fatalf("журнал: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("полный журнал: %d ходов", len(all))
	}

	p := "100"
	mine, err := svc.GetJournal(ctx, m.ID, &p)
	if err != nil {
		t.Fatalf("журнал участника: %v", err)
	}
	if len(mine) != 1 || mine[0].ParticipantID != "100" {
		t.Fatalf("фильтр по участнику вернул %+v", mine)
	}
}

func TestGetMatchUnknown(t *testing.T) {
	svc, _, _, _ := newTestService(t, 5)
	if _, err := svc.GetMatch(context.Background(), "nope"); !errors.Is(err, domain.ErrMatchNotFound) {
		t.Fatalf("неизвестный матч: %v", err)
	}
}

func TestReadsDoNotMutate(t *testing.T) {
	svc, _, _, _ := newTestService(t, 6)
	ctx := context.Background()

	m, err := svc.CreateMatch(ctx, "100", nil, domain.ModeBot, "")
	if err != nil {
		t.Fatalf("создание: %v", err)
	}

	a, _ := svc.GetMatch(ctx, m.ID)
	b, _ := svc.GetMatch(ctx, m.ID)
	if a.Phase != b.Phase || a.ID != b.ID || len(a.Moves) != len(b.Moves) {
		t.Fatalf("повторное чтение изменило состояние")
	}
}

func TestConcurrentGuessesFromBothSides(t *testing.T) {
	svc, _, _, _ := newTestService(t, 9)
	ctx := context.Background()

	m, err := svc.CreateMatch(ctx, "100", nil, domain.ModePVP, "")
	if err != nil {
		t.Fatalf("создание: %v", err)
	}
	if _, err := svc.JoinMatch(ctx, m.ID, "200"); err != nil {
		t.Fatalf("присоединение: %v", err)
	}
	if _, err := svc.SetSecret(ctx, m.ID, "100", "3719"); err != nil {
		t.Fatalf("секрет: %v", err)
	}
	if _, err := svc.SetSecret(ctx, m.ID, "200", "0452"); err != nil {
		t.Fatalf("секрет: %v", err)
	}

	// непобедные догадки обоих участников наперегонки при очереди у 100.
	// блокировка сериализует их: каждая либо применяется в свой ход,
	// либо отклоняется как ход вне очереди, но журнал точно равен
	// числу принятых догадок
	var wg sync.WaitGroup
	var mu sync.Mutex
	accepted := 0
	for _, racer := range []struct{ pid, guess string }{
		{"100", "0123"},
		{"200", "4567"},
	} {
		wg.Add(1)
		go func(pid, guess string) {
			defer wg.Done()
			_, err := svc.SubmitGuess(ctx, m.ID, pid, guess)
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
				return
			}
			if !errors.Is(err, game.ErrNotYourTurn) {
				t.Errorf("неожиданная ошибка гонки: %v", err)
			}
		}(racer.pid, racer.guess)
	}
	wg.Wait()

	final, err := svc.GetMatch(ctx, m.ID)
	if err != nil {
		t.Fatalf("чтение финала: %v", err)
	}
	if accepted < 1 {
		t.Fatalf("держатель хода обязан пройти")
	}
	if len(final.Moves) != accepted {
		t.Fatalf("журнал (%d ходов) разошелся с числом принятых догадок (%d)", len(final.Moves), accepted)
	}
	if final.Phase != domain.PhaseInProgress {
		t.Fatalf("непобедные догадки не должны завершать матч")
	}
}
