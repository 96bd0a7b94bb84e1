package game

import (
	"errors"
	"testing"

	"numbers_duel/internal/domain"
)

func newPvpMatch(t *testing.T) *domain.Match {
	t.Helper()
	b := "200"
	return NewMatch("m1", "100", &b, domain.ModePVP, "")
}

func startedPvpMatch(t *testing.T) *domain.Match {
	t.Helper()
	m := newPvpMatch(t)
	rng := NewLockedRand(1)
	if err := SetSecret(m, "100", "3719", rng); err != nil {
		t.Fatalf("секрет первого участника: %v", err)
	}
	if err := SetSecret(m, "200", "0452", rng); err != nil {
		t.Fatalf("секрет второго участника: %v", err)
	}
	return m
}

func TestNewMatchPhases(t *testing.T) {
	m := newPvpMatch(t)
	if m.Phase != domain.PhaseAwaitingSecrets {
		t.Fatalf("новый матч должен ждать секреты, фаза %q", m.Phase)
	}
	if m.TurnHolder != nil {
		t.Fatalf("до старта не должно быть очередности")
	}
}

func TestNewMatchBotFillsOpponent(t *testing.T) {
	m := NewMatch("m1", "100", nil, domain.ModeBot, "")
	if m.ParticipantB == nil || *m.ParticipantB != domain.BotParticipantID {
		t.Fatalf("в режиме bot второй участник должен быть %q", domain.BotParticipantID)
	}
	if m.Difficulty != domain.DifficultyEasy {
		t.Fatalf("сложность по умолчанию должна быть easy, получена %q", m.Difficulty)
	}
}

func TestJoin(t *testing.T) {
	m := NewMatch("m1", "100", nil, domain.ModePVP, "")

	if err := Join(m, "100"); !errors.Is(err, ErrNotJoinable) {
		t.Fatalf("создатель не может присоединиться к своему матчу: %v", err)
	}
	if err := Join(m, "200"); err != nil {
		t.Fatalf("присоединение второго игрока: %v", err)
	}
	if err := Join(m, "300"); !errors.Is(err, ErrMatchFull) {
		t.Fatalf("третий игрок должен получить ErrMatchFull: %v", err)
	}

	bot := NewMatch("m2", "100", nil, domain.ModeBot, "")
	if err := Join(bot, "200"); !errors.Is(err, ErrNotJoinable) {
		t.Fatalf("к матчу с ботом нельзя присоединиться: %v", err)
	}
}

func TestSetSecretTransitions(t *testing.T) {
	m := newPvpMatch(t)
	rng := NewLockedRand(1)

	if err := SetSecret(m, "999", "3719", rng); !errors.Is(err, ErrUnknownParticipant) {
		t.Fatalf("чужой участник: %v", err)
	}
	if err := SetSecret(m, "100", "1123", rng); !errors.Is(err, ErrCodeDuplicate) {
		t.Fatalf("невалидный секрет должен отклоняться: %v", err)
	}

	if err := SetSecret(m, "100", "3719", rng); err != nil {
		t.Fatalf("первый секрет: %v", err)
	}
	if m.Phase != domain.PhaseAwaitingSecrets {
		t.Fatalf("после одного секрета матч еще не должен стартовать")
	}
	if err := SetSecret(m, "100", "0452", rng); !errors.Is(err, ErrAlreadySet) {
		t.Fatalf("секрет меняется строго один раз: %v", err)
	}

	if err := SetSecret(m, "200", "0452", rng); err != nil {
		t.Fatalf("второй секрет: %v", err)
	}
	if m.Phase != domain.PhaseInProgress {
		t.Fatalf("оба секрета есть, матч должен быть in_progress, фаза %q", m.Phase)
	}
	if m.TurnHolder == nil || *m.TurnHolder != "100" {
		t.Fatalf("первый ход должен быть у создателя матча")
	}
	if m.StartedAt == nil {
		t.Fatalf("время старта должно быть заполнено")
	}
}

func TestSetSecretBotAuto(t *testing.T) {
	m := NewMatch("m1", "100", nil, domain.ModeBot, domain.DifficultyEasy)
	if err := SetSecret(m, "100", "3719", NewLockedRand(5)); err != nil {
		t.Fatalf("секрет игрока: %v", err)
	}
	if m.SecretB == nil {
		t.Fatalf("секрет бота должен генерироваться сразу")
	}
	if err := ValidateCode(*m.SecretB, domain.CodeLength); err != nil {
		t.Fatalf("секрет бота невалиден: %v", err)
	}
	if m.Phase != domain.PhaseInProgress {
		t.Fatalf("матч с ботом должен стартовать после секрета игрока")
	}
}

func TestSubmitGuessTurnFlow(t *testing.T) {
	m := startedPvpMatch(t)

	if _, err := SubmitGuess(m, "200", "0123"); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("ход вне очереди: %v", err)
	}

	// секрет противника 0452
	res, err := SubmitGuess(m, "100", "0123")
	if err != nil {
		t.Fatalf("первый ход: %v", err)
	}
	if res.Feedback.Dig != 2 || res.Feedback.Pos != 1 {
		t.Fatalf("оценка {dig:%d pos:%d}, ожидалось {dig:2 pos:1}", res.Feedback.Dig, res.Feedback.Pos)
	}
	if res.Finished {
		t.Fatalf("матч не должен завершиться")
	}
	if m.TurnHolder == nil || *m.TurnHolder != "200" {
		t.Fatalf("ход должен перейти к противнику")
	}
	if res.Move.Seq != 1 {
		t.Fatalf("первый ход участника должен иметь seq=1, получен %d", res.Move.Seq)
	}

	// секрет противника 3719
	res, err = SubmitGuess(m, "200", "3719")
	if err != nil {
		t.Fatalf("победный ход: %v", err)
	}
	if !res.Finished {
		t.Fatalf("точная догадка должна завершить матч")
	}
	if m.Phase != domain.PhaseFinished {
		t.Fatalf("фаза после победы %q", m.Phase)
	}
	if m.Winner == nil || *m.Winner != "200" {
		t.Fatalf("победителем должен быть угадавший")
	}
	if m.TurnHolder != nil {
		t.Fatalf("в завершенном матче нет очередности")
	}
	if m.EndedAt == nil {
		t.Fatalf("время завершения должно быть заполнено")
	}
}

func TestSubmitGuessAfterFinish(t *testing.T) {
	m := startedPvpMatch(t)
	if _, err := SubmitGuess(m, "100", "0452"); err != nil {
		t.Fatalf("победный ход: %v", err)
	}

	if _, err := SubmitGuess(m, "200", "3719"); !errors.Is(err, ErrNotInProgress) {
		t.Fatalf("завершенный матч неизменяем: %v", err)
	}
	if err := SetSecret(m, "200", "0123", NewLockedRand(1)); !errors.Is(err, ErrNotInProgress) {
		t.Fatalf("секрет в завершенном матче: %v", err)
	}
}

func TestSubmitGuessRepeatAllowed(t *testing.T) {
	m := startedPvpMatch(t)

	if _, err := SubmitGuess(m, "100", "0123"); err != nil {
		t.Fatalf("ход первого: %v", err)
	}
	if _, err := SubmitGuess(m, "200", "4567"); err != nil {
		t.Fatalf("ход второго: %v", err)
	}

	// повтор той же догадки легален и оценивается заново
	res, err := SubmitGuess(m, "100", "0123")
	if err != nil {
		t.Fatalf("повторная догадка: %v", err)
	}
	if res.Move.Seq != 2 {
		t.Fatalf("второй ход участника должен иметь seq=2, получен %d", res.Move.Seq)
	}
	if len(m.Moves) != 3 {
		t.Fatalf("журнал должен содержать 3 хода, содержит %d", len(m.Moves))
	}
}

func TestSubmitGuessRejectedLeavesStateIntact(t *testing.T) {
	m := startedPvpMatch(t)

	before := len(m.Moves)
	if _, err := SubmitGuess(m, "100", "1123"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("невалидная догадка: %v", err)
	}
	if len(m.Moves) != before {
		t.Fatalf("отклоненная догадка не должна попадать в журнал")
	}
	if m.TurnHolder == nil || *m.TurnHolder != "100" {
		t.Fatalf("отклоненная догадка не должна передавать ход")
	}
}
