package db

import (
	"context"
	"time"

	"numbers_duel/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect открывает пул соединений к postgres и проверяет доступность
func Connect(databaseURL string) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		logger.Fatal("неверный DATABASE_URL", "error", err)
	}
	cfg.MaxConns = 10

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		logger.Fatal("не удалось подключиться к базе", "error", err)
	}

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("база недоступна", "error", err)
	}

	logger.Info("подключение к базе установлено")
	return pool
}
