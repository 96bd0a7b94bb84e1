package domain

import "time"

// Журнал важных действий для разбора инцидентов
type AuditLog struct {
	ID            int64                  `db:"id" json:"id"`
	ParticipantID string                 `db:"participant_id" json:"participant_id"`
	Action        string                 `db:"action" json:"action"`
	Category      string                 `db:"category" json:"category"`
	Details       map[string]interface{} `db:"details" json:"details"`
	IP            string                 `db:"ip" json:"ip,omitempty"`
	CreatedAt     time.Time              `db:"created_at" json:"created_at"`
}

// Категории действий
const (
	AuditCategoryAuth  = "auth"
	AuditCategoryMatch = "match"
	AuditCategoryAdmin = "admin"
)

const (
	// Авторизация
	AuditActionLogin = "login"

	// Жизненный цикл матча
	AuditActionMatchCreate   = "match_create"
	AuditActionMatchJoin     = "match_join"
	AuditActionSecretSet     = "secret_set"
	AuditActionGuessSubmit   = "guess_submit"
	AuditActionMatchFinished = "match_finished"
)
