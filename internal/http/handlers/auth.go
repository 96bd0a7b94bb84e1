package handlers

import (
	"net/http"

	"numbers_duel/internal/logger"
	"numbers_duel/internal/service"

	"github.com/gin-gonic/gin"
)

// Auth проверяет подпись Telegram initData и выдает JWT
func (h *Handler) Auth(c *gin.Context) {
	var req struct {
		InitData string `json:"init_data"`
	}
	if err := c.BindJSON(&req); err != nil || req.InitData == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "init_data required"})
		return
	}

	values, ok := service.ValidateTelegramInitData(req.InitData, h.BotToken)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid init data"})
		return
	}

	tgUser, ok := service.ParseTelegramUser(values)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid init data"})
		return
	}

	ctx := c.Request.Context()
	user, err := h.UserRepo.CreateOrGet(ctx, tgUser.ID, tgUser.Username, tgUser.FirstName)
	if err != nil {
		logger.Error("не удалось создать пользователя", "error", err, "tg_id", tgUser.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}

	token, err := service.IssueJWT(user.TgID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	if h.Audit != nil {
		h.Audit.LogLogin(ctx, user.ParticipantID(), c.ClientIP())
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"tg_id":      user.TgID,
			"username":   user.Username,
			"first_name": user.FirstName,
			"wins":       user.Wins,
			"losses":     user.Losses,
		},
	})
}
