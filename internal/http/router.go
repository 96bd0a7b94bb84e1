package http

import (
	"numbers_duel/internal/http/handlers"
	"numbers_duel/internal/http/middleware"
	"numbers_duel/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes собирает HTTP-поверхность приложения
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, wsHandler *ws.WSHandler) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/api/auth", middleware.RateLimit(30), h.Auth)

	api := r.Group("/api", middleware.JWTAuth(), middleware.RateLimit(120))
	{
		api.POST("/match", h.CreateMatch)
		api.GET("/match/:id", h.GetMatch)
		api.POST("/match/:id/join", h.JoinMatch)
		api.POST("/match/:id/secret", h.SetSecret)
		api.POST("/match/:id/guess", h.SubmitGuess)
		api.GET("/match/:id/journal", h.GetJournal)
		api.GET("/leaderboard", h.GetLeaderboard)
	}

	r.GET("/ws", wsHandler.HandleWS())
}
