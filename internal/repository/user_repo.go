package repository

import (
	"context"
	"errors"
	"strconv"

	"numbers_duel/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Отвечает за пользователей и их игровую статистику
type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID возвращает пользователя по внутреннему id (nil если не найден)
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, tg_id, username, first_name, created_at, wins, losses
		FROM users
		WHERE id = $1
	`, id)

	var u domain.User
	if err := row.Scan(&u.ID, &u.TgID, &u.Username, &u.FirstName, &u.CreatedAt, &u.Wins, &u.Losses); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

// CreateOrGet создает пользователя телеграма при первом входе
// или возвращает существующего, обновив имя
func (r *UserRepository) CreateOrGet(ctx context.Context, tgID int64, username, firstName string) (*domain.User, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (tg_id, username, first_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (tg_id) DO UPDATE SET username = $2, first_name = $3
		RETURNING id, tg_id, username, first_name, created_at, wins, losses
	`, tgID, username, firstName)

	var u domain.User
	if err := row.Scan(&u.ID, &u.TgID, &u.Username, &u.FirstName, &u.CreatedAt, &u.Wins, &u.Losses); err != nil {
		return nil, err
	}
	return &u, nil
}

// Leaderboard возвращает лучших игроков по числу побед
func (r *UserRepository) Leaderboard(ctx context.Context, limit int) ([]*domain.User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, tg_id, username, first_name, created_at, wins, losses
		FROM users
		ORDER BY wins DESC, losses ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.TgID, &u.Username, &u.FirstName, &u.CreatedAt, &u.Wins, &u.Losses); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// RecordResult обновляет счетчики побед и поражений. Участники матчей
// адресуются telegram id в десятичной записи, бот статистики не имеет
// и пропускается
func (r *UserRepository) RecordResult(ctx context.Context, winnerID, loserID string) error {
	if id, err := strconv.ParseInt(winnerID, 10, 64); err == nil {
		if _, err := r.db.Exec(ctx, `UPDATE users SET wins = wins + 1 WHERE tg_id = $1`, id); err != nil {
			return err
		}
	}
	if id, err := strconv.ParseInt(loserID, 10, 64); err == nil {
		if _, err := r.db.Exec(ctx, `UPDATE users SET losses = losses + 1 WHERE tg_id = $1`, id); err != nil {
			return err
		}
	}
	return nil
}
