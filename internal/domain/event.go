package domain

import "time"

// Виды событий матча - закрытый набор, каждому виду соответствует
// ровно одно типизированное поле payload в MatchEvent
type EventKind string

const (
	EventParticipantJoined EventKind = "participant_joined"
	EventSecretSet         EventKind = "secret_set"
	EventGuessSubmitted    EventKind = "guess_submitted"
	EventMatchFinished     EventKind = "match_finished"
)

// MatchEvent публикуется в канал матча после каждой успешной мутации.
// Доставка best-effort без повтора: клиент восстанавливает состояние
// через GET матча
type MatchEvent struct {
	MatchID string    `json:"match_id"`
	Kind    EventKind `json:"kind"`
	At      time.Time `json:"at"`

	ParticipantJoined *ParticipantJoinedPayload `json:"participant_joined,omitempty"`
	SecretSet         *SecretSetPayload         `json:"secret_set,omitempty"`
	GuessSubmitted    *GuessSubmittedPayload    `json:"guess_submitted,omitempty"`
	MatchFinished     *MatchFinishedPayload     `json:"match_finished,omitempty"`
}

type ParticipantJoinedPayload struct {
	ParticipantID string `json:"participant_id"`
}

type SecretSetPayload struct {
	ParticipantID string     `json:"participant_id"`
	Phase         MatchPhase `json:"phase"`
	TurnHolder    *string    `json:"turn_holder,omitempty"`
}

type GuessSubmittedPayload struct {
	ParticipantID string   `json:"participant_id"`
	Seq           int      `json:"seq"`
	Guess         string   `json:"guess"`
	Feedback      Feedback `json:"feedback"`
	TurnHolder    *string  `json:"turn_holder,omitempty"`
}

// Секреты раскрываются обоим только при завершении матча
type MatchFinishedPayload struct {
	Winner  string            `json:"winner"`
	Secrets map[string]string `json:"secrets"`
}
