package repository

import (
	"context"
	"errors"
	"time"

	"numbers_duel/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Отвечает за хранение матчей и журнала ходов.
// Таблицы:
//
//	matches(id, participant_a, participant_b, mode, difficulty,
//	        secret_a, secret_b, phase, turn_holder, winner,
//	        created_at, started_at, ended_at)
//	moves(match_id, participant_id, seq, guess, dig, pos, created_at,
//	      primary key (match_id, participant_id, seq))
type MatchRepository struct {
	db *pgxpool.Pool
}

func NewMatchRepository(db *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{db: db}
}

// Create вставляет новый матч
func (r *MatchRepository) Create(ctx context.Context, m *domain.Match) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO matches (id, participant_a, participant_b, mode, difficulty,
			secret_a, secret_b, phase, turn_holder, winner, created_at, started_at, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, m.ID, m.ParticipantA, m.ParticipantB, m.Mode, nullIfEmpty(string(m.Difficulty)),
		m.SecretA, m.SecretB, m.Phase, m.TurnHolder, m.Winner, m.CreatedAt, m.StartedAt, m.EndedAt)
	return err
}

// GetByID возвращает матч вместе с журналом ходов
func (r *MatchRepository) GetByID(ctx context.Context, id string) (*domain.Match, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, participant_a, participant_b, mode, difficulty,
			secret_a, secret_b, phase, turn_holder, winner, created_at, started_at, ended_at
		FROM matches
		WHERE id = $1
	`, id)

	var m domain.Match
	var difficulty *string
	if err := row.Scan(
		&m.ID, &m.ParticipantA, &m.ParticipantB, &m.Mode, &difficulty,
		&m.SecretA, &m.SecretB, &m.Phase, &m.TurnHolder, &m.Winner,
		&m.CreatedAt, &m.StartedAt, &m.EndedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMatchNotFound
		}
		return nil, err
	}
	if difficulty != nil {
		m.Difficulty = domain.BotDifficulty(*difficulty)
	}

	rows, err := r.db.Query(ctx, `
		SELECT match_id, participant_id, seq, guess, dig, pos, created_at
		FROM moves
		WHERE match_id = $1
		ORDER BY created_at, seq
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var mv domain.Move
		if err := rows.Scan(&mv.MatchID, &mv.ParticipantID, &mv.Seq, &mv.Guess,
			&mv.Feedback.Dig, &mv.Feedback.Pos, &mv.CreatedAt); err != nil {
			return nil, err
		}
		m.Moves = append(m.Moves, mv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Save заменяет запись матча целиком (журнал пишется через AppendMove)
func (r *MatchRepository) Save(ctx context.Context, m *domain.Match) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE matches
		SET participant_b = $2, secret_a = $3, secret_b = $4, phase = $5,
			turn_holder = $6, winner = $7, started_at = $8, ended_at = $9
		WHERE id = $1
	`, m.ID, m.ParticipantB, m.SecretA, m.SecretB, m.Phase,
		m.TurnHolder, m.Winner, m.StartedAt, m.EndedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMatchNotFound
	}
	return nil
}

// AppendMove дописывает ход в журнал. Первичный ключ
// (match_id, participant_id, seq) защищает от дублей при ретраях
func (r *MatchRepository) AppendMove(ctx context.Context, mv *domain.Move) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO moves (match_id, participant_id, seq, guess, dig, pos, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, mv.MatchID, mv.ParticipantID, mv.Seq, mv.Guess, mv.Feedback.Dig, mv.Feedback.Pos, mv.CreatedAt)
	return err
}

// CountActive возвращает число незавершенных матчей (для админ-бота)
func (r *MatchRepository) CountActive(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM matches WHERE phase != $1
	`, domain.PhaseFinished).Scan(&n)
	return n, err
}

// CountFinishedSince возвращает число матчей, завершенных после отметки
func (r *MatchRepository) CountFinishedSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM matches WHERE phase = $1 AND ended_at >= $2
	`, domain.PhaseFinished, since).Scan(&n)
	return n, err
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
