package domain

import (
	"strconv"
	"time"
)

// Пользователь мини-аппа. ParticipantID() превращает его в опаковый
// ключ участника для ядра матчей
type User struct {
	ID        int64     `db:"id" json:"id"`
	TgID      int64     `db:"tg_id" json:"tg_id"`
	Username  string    `db:"username" json:"username"`
	FirstName string    `db:"first_name" json:"first_name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	// статистика для лидерборда
	Wins   int64 `db:"wins" json:"wins"`
	Losses int64 `db:"losses" json:"losses"`
}

// ParticipantID возвращает опаковый ключ участника для ядра матчей
func (u *User) ParticipantID() string {
	return strconv.FormatInt(u.TgID, 10)
}
