package handlers

import (
	"errors"
	"net/http"

	"numbers_duel/internal/domain"
	"numbers_duel/internal/game"
	"numbers_duel/internal/logger"
	"numbers_duel/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateMatch создает матч. Режим pvp ждет второго игрока через join,
// режим bot сразу получает синтетического противника
func (h *Handler) CreateMatch(c *gin.Context) {
	pid, ok := getParticipantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		Mode       string `json:"mode"`
		Difficulty string `json:"difficulty"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	mode := domain.MatchMode(req.Mode)
	if mode != domain.ModePVP && mode != domain.ModeBot {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be pvp or bot"})
		return
	}
	difficulty := domain.BotDifficulty(req.Difficulty)
	if difficulty != "" && difficulty != domain.DifficultyEasy && difficulty != domain.DifficultyHard {
		c.JSON(http.StatusBadRequest, gin.H{"error": "difficulty must be easy or hard"})
		return
	}

	ctx := c.Request.Context()
	m, err := h.Matches.CreateMatch(ctx, pid, nil, mode, difficulty)
	if err != nil {
		logger.Error("не удалось создать матч", "error", err, "participant_id", pid)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}

	if h.Audit != nil {
		h.Audit.LogMatch(ctx, pid, domain.AuditActionMatchCreate, m.ID, map[string]interface{}{"mode": string(mode)})
	}

	c.JSON(http.StatusCreated, h.matchView(m, pid))
}

// JoinMatch вписывает второго участника в pvp-матч
func (h *Handler) JoinMatch(c *gin.Context) {
	pid, ok := getParticipantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ctx := c.Request.Context()
	m, err := h.Matches.JoinMatch(ctx, c.Param("id"), pid)
	if err != nil {
		h.matchError(c, err)
		return
	}

	if h.Audit != nil {
		h.Audit.LogMatch(ctx, pid, domain.AuditActionMatchJoin, m.ID, nil)
	}

	c.JSON(http.StatusOK, h.matchView(m, pid))
}

// SetSecret принимает секретный код участника
func (h *Handler) SetSecret(c *gin.Context) {
	pid, ok := getParticipantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	ctx := c.Request.Context()
	m, err := h.Matches.SetSecret(ctx, c.Param("id"), pid, req.Code)
	if err != nil {
		h.matchError(c, err)
		return
	}

	if h.Audit != nil {
		h.Audit.LogMatch(ctx, pid, domain.AuditActionSecretSet, m.ID, nil)
	}

	c.JSON(http.StatusOK, h.matchView(m, pid))
}

// SubmitGuess принимает догадку и возвращает оценку
func (h *Handler) SubmitGuess(c *gin.Context) {
	pid, ok := getParticipantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req struct {
		Guess string `json:"guess"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	ctx := c.Request.Context()
	matchID := c.Param("id")
	res, err := h.Matches.SubmitGuess(ctx, matchID, pid, req.Guess)
	if err != nil {
		h.matchError(c, err)
		return
	}

	if h.Audit != nil {
		h.Audit.LogMatch(ctx, pid, domain.AuditActionGuessSubmit, matchID, map[string]interface{}{
			"guess": req.Guess,
			"dig":   res.Feedback.Dig,
			"pos":   res.Feedback.Pos,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"seq":      res.Move.Seq,
		"guess":    res.Move.Guess,
		"dig":      res.Feedback.Dig,
		"pos":      res.Feedback.Pos,
		"finished": res.Finished,
	})
}

// GetMatch возвращает состояние матча глазами вызывающего
func (h *Handler) GetMatch(c *gin.Context) {
	pid, ok := getParticipantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	m, err := h.Matches.GetMatch(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.matchError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.matchView(m, pid))
}

// GetJournal возвращает журнал ходов матча.
// ?participant=<id> сужает выборку до ходов одного участника
func (h *Handler) GetJournal(c *gin.Context) {
	if _, ok := getParticipantID(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var filter *string
	if p := c.Query("participant"); p != "" {
		filter = &p
	}

	moves, err := h.Matches.GetJournal(c.Request.Context(), c.Param("id"), filter)
	if err != nil {
		h.matchError(c, err)
		return
	}

	out := make([]gin.H, 0, len(moves))
	for _, mv := range moves {
		out = append(out, gin.H{
			"participant_id": mv.ParticipantID,
			"seq":            mv.Seq,
			"guess":          mv.Guess,
			"dig":            mv.Feedback.Dig,
			"pos":            mv.Feedback.Pos,
			"created_at":     mv.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"moves": out})
}

// matchView проецирует матч для конкретного участника: свой секрет
// виден всегда, секрет противника только после завершения матча
func (h *Handler) matchView(m *domain.Match, viewerID string) gin.H {
	view := gin.H{
		"id":            m.ID,
		"mode":          m.Mode,
		"phase":         m.Phase,
		"participant_a": m.ParticipantA,
		"participant_b": m.ParticipantB,
		"turn_holder":   m.TurnHolder,
		"winner":        m.Winner,
		"moves":         m.Moves,
		"created_at":    m.CreatedAt,
		"started_at":    m.StartedAt,
		"ended_at":      m.EndedAt,
	}
	if m.Mode == domain.ModeBot {
		view["difficulty"] = m.Difficulty
	}

	if s := m.SecretOf(viewerID); s != nil {
		view["your_secret"] = *s
	}
	if m.Phase == domain.PhaseFinished {
		secrets := make(map[string]string)
		if m.SecretA != nil {
			secrets[m.ParticipantA] = *m.SecretA
		}
		if m.SecretB != nil && m.ParticipantB != nil {
			secrets[*m.ParticipantB] = *m.SecretB
		}
		view["secrets"] = secrets
	}
	return view
}

// matchError переводит ошибки доменного слоя в HTTP-ответы
func (h *Handler) matchError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrMatchNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
	case errors.Is(err, game.ErrInvalidCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid code"})
	case errors.Is(err, game.ErrUnknownParticipant):
		c.JSON(http.StatusForbidden, gin.H{"error": "not a participant"})
	case errors.Is(err, game.ErrNotYourTurn):
		c.JSON(http.StatusConflict, gin.H{"error": "not your turn"})
	case errors.Is(err, game.ErrAlreadySet):
		c.JSON(http.StatusConflict, gin.H{"error": "secret already set"})
	case errors.Is(err, game.ErrNotInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "match is not in progress"})
	case errors.Is(err, game.ErrMatchFull):
		c.JSON(http.StatusConflict, gin.H{"error": "match is full"})
	case errors.Is(err, game.ErrNotJoinable):
		c.JSON(http.StatusConflict, gin.H{"error": "match is not joinable"})
	case errors.Is(err, service.ErrLockTimeout):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "match is busy, retry"})
	default:
		logger.Error("ошибка операции матча", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
