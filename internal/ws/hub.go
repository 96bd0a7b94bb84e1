package ws

import (
	"context"
	"encoding/json"
	"sync"

	"numbers_duel/internal/domain"
	"numbers_duel/internal/logger"
	"numbers_duel/internal/metrics"
	"numbers_duel/internal/relay"
)

// room объединяет всех подписчиков одного матча вокруг одной
// подписки на ретранслятор событий
type room struct {
	matchID string
	clients map[*Client]struct{}
	cancel  func()
}

// Hub раздает события матчей подключенным WebSocket-клиентам.
// На каждый матч держится ровно одна подписка на ретранслятор,
// независимо от числа зрителей
type Hub struct {
	relay relay.Relay

	mu    sync.Mutex
	rooms map[string]*room
}

func NewHub(r relay.Relay) *Hub {
	return &Hub{
		relay: r,
		rooms: make(map[string]*room),
	}
}

// Register подключает клиента к комнате его матча, создавая
// подписку на ретранслятор при первом подписчике
func (h *Hub) Register(c *Client) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	rm, ok := h.rooms[c.MatchID]
	if !ok {
		sub, cancel, err := h.relay.Subscribe(context.Background(), c.MatchID)
		if err != nil {
			return err
		}
		rm = &room{
			matchID: c.MatchID,
			clients: make(map[*Client]struct{}),
			cancel:  cancel,
		}
		h.rooms[c.MatchID] = rm
		go h.pump(rm, sub)
	}

	rm.clients[c] = struct{}{}
	metrics.WSConnections.Inc()
	logger.Debug("ws клиент подключен", "match_id", c.MatchID, "user_id", c.UserID, "clients", len(rm.clients))
	return nil
}

// Unregister отключает клиента и сворачивает комнату вместе с
// подпиской, когда уходит последний подписчик
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rm, ok := h.rooms[c.MatchID]
	if !ok {
		return
	}
	if _, present := rm.clients[c]; !present {
		return
	}

	delete(rm.clients, c)
	close(c.Send)
	metrics.WSConnections.Dec()

	if len(rm.clients) == 0 {
		rm.cancel()
		delete(h.rooms, c.MatchID)
		logger.Debug("ws комната закрыта", "match_id", c.MatchID)
	}
}

// pump читает события матча из подписки и рассылает их клиентам
// комнаты. Медленный клиент пропускает событие, а не тормозит остальных
func (h *Hub) pump(rm *room, sub <-chan domain.MatchEvent) {
	for ev := range sub {
		payload, err := json.Marshal(ev)
		if err != nil {
			logger.Error("не удалось сериализовать событие матча", "error", err, "match_id", rm.matchID)
			continue
		}

		h.mu.Lock()
		for c := range rm.clients {
			select {
			case c.Send <- payload:
			default:
				logger.Warn("ws клиент не успевает, событие пропущено", "match_id", rm.matchID, "user_id", c.UserID)
			}
		}
		h.mu.Unlock()
	}
}
