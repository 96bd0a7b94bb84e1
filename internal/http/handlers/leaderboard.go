package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// список 100 лучших игроков по числу побед
func (h *Handler) GetLeaderboard(c *gin.Context) {
	top, err := h.UserRepo.Leaderboard(c.Request.Context(), 100)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get leaderboard"})
		return
	}

	entries := make([]gin.H, 0, len(top))
	for i, u := range top {
		entries = append(entries, gin.H{
			"rank":       i + 1,
			"tg_id":      u.TgID,
			"username":   u.Username,
			"first_name": u.FirstName,
			"wins":       u.Wins,
			"losses":     u.Losses,
		})
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}
