package service

import (
	"context"
	"math/rand"
	"time"

	"numbers_duel/internal/domain"
	"numbers_duel/internal/game"
	"numbers_duel/internal/logger"
	"numbers_duel/internal/metrics"
	"numbers_duel/internal/relay"

	"github.com/google/uuid"
)

// MatchStore - долговечное хранилище матчей. Атомарность между вызовами
// не предполагается: ее обеспечивает блокировка координатора
type MatchStore interface {
	Create(ctx context.Context, m *domain.Match) error
	// GetByID возвращает матч вместе с журналом ходов,
	// domain.ErrMatchNotFound для неизвестного id
	GetByID(ctx context.Context, id string) (*domain.Match, error)
	// Save заменяет запись матча целиком (журнал пишется через AppendMove)
	Save(ctx context.Context, m *domain.Match) error
	AppendMove(ctx context.Context, mv *domain.Move) error
}

// StatsRecorder обновляет статистику игроков по завершении матча
type StatsRecorder interface {
	RecordResult(ctx context.Context, winnerID, loserID string) error
}

// MatchService - координатор матчей. Все мутации проходят через
// блокировку по id матча: захват, чтение-изменение-запись, публикация
// события, освобождение на любом пути выхода. Чтения блокировку не
// берут и могут видеть слегка устаревший снимок
type MatchService struct {
	store       MatchStore
	relay       relay.Relay
	stats       StatsRecorder
	locks       *KeyedLock
	lockTimeout time.Duration
	rng         *rand.Rand
}

func NewMatchService(store MatchStore, r relay.Relay, lockTimeout time.Duration, rng *rand.Rand) *MatchService {
	if rng == nil {
		rng = game.NewSecureRand()
	}
	return &MatchService{
		store:       store,
		relay:       r,
		locks:       NewKeyedLock(),
		lockTimeout: lockTimeout,
		rng:         rng,
	}
}

// SetStatsRecorder подключает обновление статистики игроков (опционально)
func (s *MatchService) SetStatsRecorder(rec StatsRecorder) {
	s.stats = rec
}

// CreateMatch создает матч в фазе awaiting_secrets. participantB == nil
// при mode == pvp означает открытый матч, ждущий второго игрока
func (s *MatchService) CreateMatch(ctx context.Context, participantA string, participantB *string, mode domain.MatchMode, difficulty domain.BotDifficulty) (*domain.Match, error) {
	m := game.NewMatch(uuid.New().String(), participantA, participantB, mode, difficulty)
	if err := s.store.Create(ctx, m); err != nil {
		return nil, err
	}

	metrics.MatchesCreated.WithLabelValues(string(mode)).Inc()
	logger.Info("матч создан", "match_id", m.ID, "mode", mode, "participant_a", participantA)
	return m, nil
}

// JoinMatch вписывает второго участника в открытый pvp-матч
func (s *MatchService) JoinMatch(ctx context.Context, matchID, participantID string) (*domain.Match, error) {
	release, err := s.acquire(ctx, matchID)
	if err != nil {
		return nil, err
	}
	defer release()

	m, err := s.store.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if err := game.Join(m, participantID); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, m); err != nil {
		return nil, err
	}

	s.publish(ctx, domain.MatchEvent{
		MatchID:           m.ID,
		Kind:              domain.EventParticipantJoined,
		ParticipantJoined: &domain.ParticipantJoinedPayload{ParticipantID: participantID},
	})
	return m, nil
}

// SetSecret записывает секрет участника; когда секреты есть у обоих,
// матч стартует. В режиме bot секрет противника генерируется тут же
func (s *MatchService) SetSecret(ctx context.Context, matchID, participantID, code string) (*domain.Match, error) {
	release, err := s.acquire(ctx, matchID)
	if err != nil {
		return nil, err
	}
	defer release()

	m, err := s.store.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if err := game.SetSecret(m, participantID, code, s.rng); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, m); err != nil {
		return nil, err
	}

	s.publish(ctx, domain.MatchEvent{
		MatchID: m.ID,
		Kind:    domain.EventSecretSet,
		SecretSet: &domain.SecretSetPayload{
			ParticipantID: participantID,
			Phase:         m.Phase,
			TurnHolder:    m.TurnHolder,
		},
	})

	if m.Phase == domain.PhaseInProgress {
		logger.Info("матч стартовал", "match_id", m.ID, "turn", *m.TurnHolder)
	}
	return m, nil
}

// SubmitGuess принимает догадку держателя хода. В матче против бота
// после хода человека координатор немедленно разыгрывает ответный ход
// бота по тому же пути с захватом блокировки
func (s *MatchService) SubmitGuess(ctx context.Context, matchID, participantID, guess string) (*game.GuessResult, error) {
	res, m, err := s.submitLocked(ctx, matchID, participantID, guess)
	if err != nil {
		return nil, err
	}

	// ответный ход синтетического противника
	if !res.Finished && m.Mode == domain.ModeBot && m.TurnHolder != nil && *m.TurnHolder == domain.BotParticipantID {
		if err := s.playBotTurn(ctx, matchID); err != nil {
			logger.Error("ход бота не удался", "match_id", matchID, "error", err)
		}
	}
	return res, nil
}

// submitLocked выполняет один ход под блокировкой матча
func (s *MatchService) submitLocked(ctx context.Context, matchID, participantID, guess string) (*game.GuessResult, *domain.Match, error) {
	release, err := s.acquire(ctx, matchID)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	m, err := s.store.GetByID(ctx, matchID)
	if err != nil {
		return nil, nil, err
	}
	res, err := game.SubmitGuess(m, participantID, guess)
	if err != nil {
		return nil, nil, err
	}

	if err := s.store.AppendMove(ctx, &res.Move); err != nil {
		return nil, nil, err
	}
	if err := s.store.Save(ctx, m); err != nil {
		return nil, nil, err
	}

	metrics.MovesTotal.Inc()

	s.publish(ctx, domain.MatchEvent{
		MatchID: m.ID,
		Kind:    domain.EventGuessSubmitted,
		GuessSubmitted: &domain.GuessSubmittedPayload{
			ParticipantID: participantID,
			Seq:           res.Move.Seq,
			Guess:         res.Move.Guess,
			Feedback:      res.Feedback,
			TurnHolder:    m.TurnHolder,
		},
	})

	if res.Finished {
		s.finishMatch(ctx, m)
	}
	return res, m, nil
}

// playBotTurn разыгрывает ход бота: только его собственная история
// и фидбек на нее, секрет человека боту не передается
func (s *MatchService) playBotTurn(ctx context.Context, matchID string) error {
	m, err := s.store.GetByID(ctx, matchID)
	if err != nil {
		return err
	}
	if m.Phase != domain.PhaseInProgress || m.TurnHolder == nil || *m.TurnHolder != domain.BotParticipantID {
		return nil
	}

	bot := game.NewBot(m.Difficulty, s.rng)
	guess := bot.ChooseGuess(domain.CodeLength, m.MovesOf(domain.BotParticipantID))

	_, _, err = s.submitLocked(ctx, matchID, domain.BotParticipantID, guess)
	return err
}

// finishMatch публикует завершение и обновляет статистику игроков.
// Вызывается под блокировкой матча
func (s *MatchService) finishMatch(ctx context.Context, m *domain.Match) {
	metrics.MatchesFinished.Inc()

	secrets := map[string]string{}
	if m.SecretA != nil {
		secrets[m.ParticipantA] = *m.SecretA
	}
	if m.SecretB != nil && m.ParticipantB != nil {
		secrets[*m.ParticipantB] = *m.SecretB
	}

	s.publish(ctx, domain.MatchEvent{
		MatchID: m.ID,
		Kind:    domain.EventMatchFinished,
		MatchFinished: &domain.MatchFinishedPayload{
			Winner:  *m.Winner,
			Secrets: secrets,
		},
	})

	logger.Info("матч завершен", "match_id", m.ID, "winner", *m.Winner)

	if s.stats != nil && m.ParticipantB != nil {
		loser := m.Opponent(*m.Winner)
		if err := s.stats.RecordResult(ctx, *m.Winner, loser); err != nil {
			logger.Error("не удалось обновить статистику", "match_id", m.ID, "error", err)
		}
	}
}

// GetMatch - чтение без блокировки, допускается слегка устаревший снимок
func (s *MatchService) GetMatch(ctx context.Context, matchID string) (*domain.Match, error) {
	return s.store.GetByID(ctx, matchID)
}

// GetJournal возвращает журнал ходов матча, опционально одного участника
func (s *MatchService) GetJournal(ctx context.Context, matchID string, participantID *string) ([]domain.Move, error) {
	m, err := s.store.GetByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if participantID == nil {
		return m.Moves, nil
	}
	return m.MovesOf(*participantID), nil
}

func (s *MatchService) acquire(ctx context.Context, matchID string) (func(), error) {
	release, err := s.locks.Acquire(ctx, matchID, s.lockTimeout)
	if err == ErrLockTimeout {
		metrics.LockTimeouts.Inc()
	}
	return release, err
}

// publish отправляет событие в relay; неудача доставки не откатывает
// мутацию - клиент доберет состояние через GetMatch
func (s *MatchService) publish(ctx context.Context, ev domain.MatchEvent) {
	ev.At = time.Now().UTC()
	metrics.RelayEvents.WithLabelValues(string(ev.Kind)).Inc()
	if err := s.relay.Publish(ctx, ev); err != nil {
		logger.Error("не удалось опубликовать событие", "match_id", ev.MatchID, "kind", ev.Kind, "error", err)
	}
}
