package game

import (
	"errors"
	"math/rand"
	"time"

	"numbers_duel/internal/domain"
)

// Ошибки предусловий машины состояний. Проверяются до любой записи:
// если операция отклонена, матч остается ровно в прежнем состоянии
var (
	ErrUnknownParticipant = errors.New("участник не принадлежит матчу")
	ErrAlreadySet         = errors.New("секрет уже установлен")
	ErrNotInProgress      = errors.New("матч не в фазе игры")
	ErrNotYourTurn        = errors.New("сейчас не ваш ход")
	ErrMatchFull          = errors.New("в матче уже два участника")
	ErrNotJoinable        = errors.New("к матчу нельзя присоединиться")
)

// NewMatch создает матч в фазе awaiting_secrets. participantB == nil
// в режиме pvp означает ожидание второго игрока, в режиме bot его место
// занимает синтетический противник
func NewMatch(id, participantA string, participantB *string, mode domain.MatchMode, difficulty domain.BotDifficulty) *domain.Match {
	m := &domain.Match{
		ID:           id,
		ParticipantA: participantA,
		ParticipantB: participantB,
		Mode:         mode,
		Phase:        domain.PhaseAwaitingSecrets,
		CreatedAt:    time.Now().UTC(),
	}
	if mode == domain.ModeBot {
		bot := domain.BotParticipantID
		m.ParticipantB = &bot
		if difficulty == "" {
			difficulty = domain.DifficultyEasy
		}
		m.Difficulty = difficulty
	}
	return m
}

// Join вписывает второго участника в pvp-матч
func Join(m *domain.Match, participantID string) error {
	if m.Mode != domain.ModePVP || m.Phase != domain.PhaseAwaitingSecrets {
		return ErrNotJoinable
	}
	if m.ParticipantB != nil {
		return ErrMatchFull
	}
	if participantID == m.ParticipantA {
		return ErrNotJoinable
	}
	m.ParticipantB = &participantID
	return nil
}

// SetSecret записывает секрет участника (строго один раз). Когда секреты
// есть у обоих, матч переходит в in_progress и первый ход получает
// participantA. В режиме bot секрет противника генерируется сразу же
func SetSecret(m *domain.Match, participantID, code string, rng *rand.Rand) error {
	if m.Phase != domain.PhaseAwaitingSecrets {
		return ErrNotInProgress
	}
	if !m.HasParticipant(participantID) {
		return ErrUnknownParticipant
	}
	if s := m.SecretOf(participantID); s != nil {
		return ErrAlreadySet
	}
	if err := ValidateCode(code, domain.CodeLength); err != nil {
		return err
	}

	if participantID == m.ParticipantA {
		m.SecretA = &code
	} else {
		m.SecretB = &code
	}

	// синтетический противник выбирает секрет как только играет человек
	if m.Mode == domain.ModeBot && m.SecretB == nil {
		botSecret := GenerateCode(domain.CodeLength, rng)
		m.SecretB = &botSecret
	}

	if m.SecretA != nil && m.SecretB != nil {
		now := time.Now().UTC()
		m.Phase = domain.PhaseInProgress
		m.StartedAt = &now
		turn := m.ParticipantA
		m.TurnHolder = &turn
	}
	return nil
}

// Результат принятой догадки
type GuessResult struct {
	Move     domain.Move
	Feedback domain.Feedback
	Finished bool
}

// SubmitGuess проверяет очередность и валидность догадки, оценивает ее
// против секрета противника и дописывает ход в журнал. Победный ход
// завершает матч, иначе ход переходит к противнику. Повторная догадка
// того же участника легальна и оценивается как обычно
func SubmitGuess(m *domain.Match, participantID, guess string) (*GuessResult, error) {
	if m.Phase != domain.PhaseInProgress {
		return nil, ErrNotInProgress
	}
	if !m.HasParticipant(participantID) {
		return nil, ErrUnknownParticipant
	}
	if m.TurnHolder == nil || *m.TurnHolder != participantID {
		return nil, ErrNotYourTurn
	}
	if err := ValidateCode(guess, domain.CodeLength); err != nil {
		return nil, err
	}

	opponent := m.Opponent(participantID)
	secret := m.SecretOf(opponent)
	if secret == nil {
		return nil, ErrNotInProgress
	}

	fb := Score(guess, *secret)
	move := domain.Move{
		MatchID:       m.ID,
		ParticipantID: participantID,
		Seq:           m.NextSeq(participantID),
		Guess:         guess,
		Feedback:      fb,
		CreatedAt:     time.Now().UTC(),
	}
	m.Moves = append(m.Moves, move)

	res := &GuessResult{Move: move, Feedback: fb}
	if IsWinningGuess(guess, *secret) {
		now := time.Now().UTC()
		m.Phase = domain.PhaseFinished
		m.Winner = &participantID
		m.EndedAt = &now
		m.TurnHolder = nil
		res.Finished = true
	} else {
		m.TurnHolder = &opponent
	}
	return res, nil
}
