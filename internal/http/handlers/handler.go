package handlers

import (
	"strconv"

	"numbers_duel/internal/repository"
	"numbers_duel/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Handler объединяет зависимости HTTP-обработчиков
type Handler struct {
	DB       *pgxpool.Pool
	Matches  *service.MatchService
	UserRepo *repository.UserRepository
	Audit    *service.AuditService
	BotToken string
}

func NewHandler(db *pgxpool.Pool, matches *service.MatchService, userRepo *repository.UserRepository, audit *service.AuditService, botToken string) *Handler {
	return &Handler{
		DB:       db,
		Matches:  matches,
		UserRepo: userRepo,
		Audit:    audit,
		BotToken: botToken,
	}
}

// идентификатор пользователя кладет в контекст auth middleware
func getUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// участники матчей адресуются строками, пользователи Telegram
// получают свой числовой id в десятичной записи
func getParticipantID(c *gin.Context) (string, bool) {
	id, ok := getUserID(c)
	if !ok {
		return "", false
	}
	return strconv.FormatInt(id, 10), true
}
