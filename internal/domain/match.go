package domain

import (
	"errors"
	"time"
)

// Длина секретного кода в текущей игре
const CodeLength = 4

// Возвращается хранилищем и сервисом для неизвестного id матча
var ErrMatchNotFound = errors.New("матч не найден")

// Фазы жизненного цикла матча, переходы только вперед
type MatchPhase string

const (
	PhaseAwaitingSecrets MatchPhase = "awaiting_secrets"
	PhaseInProgress      MatchPhase = "in_progress"
	PhaseFinished        MatchPhase = "finished"
)

// Режимы матча
type MatchMode string

const (
	ModePVP MatchMode = "pvp"
	ModeBot MatchMode = "bot"
)

// Сложность синтетического противника
type BotDifficulty string

const (
	DifficultyEasy BotDifficulty = "easy"
	DifficultyHard BotDifficulty = "hard"
)

// Идентификатор участника-бота (опаковый, как и у людей)
const BotParticipantID = "bot"

// Feedback - оценка догадки: dig = сколько цифр догадки встречается
// в секрете, pos = сколько стоит на своем месте
type Feedback struct {
	Dig int `json:"dig"`
	Pos int `json:"pos"`
}

// Move - одна запись в журнале ходов участника. Seq нумеруется
// с единицы отдельно для каждого участника и не меняется после записи
type Move struct {
	MatchID       string    `db:"match_id" json:"match_id"`
	ParticipantID string    `db:"participant_id" json:"participant_id"`
	Seq           int       `db:"seq" json:"seq"`
	Guess         string    `db:"guess" json:"guess"`
	Feedback      Feedback  `db:"feedback" json:"feedback"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Match - единица взаимного исключения: одновременно выполняется
// не больше одной мутации на один id матча
type Match struct {
	ID           string        `db:"id" json:"id"`
	ParticipantA string        `db:"participant_a" json:"participant_a"`
	ParticipantB *string       `db:"participant_b" json:"participant_b,omitempty"`
	Mode         MatchMode     `db:"mode" json:"mode"`
	Difficulty   BotDifficulty `db:"difficulty" json:"difficulty,omitempty"`

	// секреты не отдаются наружу как есть, проекция для клиента
	// строится в http-слое
	SecretA *string `db:"secret_a" json:"-"`
	SecretB *string `db:"secret_b" json:"-"`

	Phase      MatchPhase `db:"phase" json:"phase"`
	TurnHolder *string    `db:"turn_holder" json:"turn_holder,omitempty"`
	Winner     *string    `db:"winner" json:"winner,omitempty"`

	Moves []Move `json:"moves"`

	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	StartedAt *time.Time `db:"started_at" json:"started_at,omitempty"`
	EndedAt   *time.Time `db:"ended_at" json:"ended_at,omitempty"`
}

// HasParticipant проверяет что id принадлежит одному из участников матча
func (m *Match) HasParticipant(participantID string) bool {
	if participantID == m.ParticipantA {
		return true
	}
	return m.ParticipantB != nil && participantID == *m.ParticipantB
}

// Opponent возвращает id противника для участника матча
func (m *Match) Opponent(participantID string) string {
	if participantID == m.ParticipantA {
		if m.ParticipantB != nil {
			return *m.ParticipantB
		}
		return ""
	}
	return m.ParticipantA
}

// SecretOf возвращает секрет участника (nil если еще не установлен)
func (m *Match) SecretOf(participantID string) *string {
	if participantID == m.ParticipantA {
		return m.SecretA
	}
	if m.ParticipantB != nil && participantID == *m.ParticipantB {
		return m.SecretB
	}
	return nil
}

// MovesOf возвращает журнал ходов одного участника в порядке seq
func (m *Match) MovesOf(participantID string) []Move {
	var out []Move
	for _, mv := range m.Moves {
		if mv.ParticipantID == participantID {
			out = append(out, mv)
		}
	}
	return out
}

// NextSeq возвращает следующий номер хода для участника
func (m *Match) NextSeq(participantID string) int {
	max := 0
	for _, mv := range m.Moves {
		if mv.ParticipantID == participantID && mv.Seq > max {
			max = mv.Seq
		}
	}
	return max + 1
}
