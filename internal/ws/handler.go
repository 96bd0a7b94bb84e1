package ws

import (
	"errors"
	"net/http"
	"os"
	"strconv"

	"numbers_duel/internal/domain"
	"numbers_duel/internal/logger"
	"numbers_duel/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// содержит зависимости для обработки WebSocket
type WSHandler struct {
	Hub     *Hub
	Matches *service.MatchService
}

func NewWSHandler(hub *Hub, matches *service.MatchService) *WSHandler {
	return &WSHandler{
		Hub:     hub,
		Matches: matches,
	}
}

// HandleWS подключает клиента к потоку событий матча.
// Токен передается в query, потому что браузерный WebSocket API
// не позволяет задать заголовок Authorization
func (h *WSHandler) HandleWS() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token required"})
			return
		}

		userID, err := service.ParseJWT(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		matchID := c.Query("match_id")
		if matchID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "match_id required"})
			return
		}

		// подписываться могут только участники матча
		m, err := h.Matches.GetMatch(c.Request.Context(), matchID)
		if err != nil {
			if errors.Is(err, domain.ErrMatchNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		participantID := strconv.FormatInt(userID, 10)
		if !m.HasParticipant(participantID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not a participant"})
			return
		}

		allowedOrigin := os.Getenv("ALLOWED_ORIGIN")
		upgrader := websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("ошибка обновления ws", "error", err)
			return
		}

		client := NewClient(userID, matchID, conn, h.Hub)
		if err := client.Run(); err != nil {
			logger.Error("не удалось подключить ws клиента", "error", err, "match_id", matchID)
		}
	}
}
