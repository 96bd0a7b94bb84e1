package relay

import (
	"context"
	"sync"

	"numbers_duel/internal/domain"
	"numbers_duel/internal/logger"
)

// размер буфера подписчика: отстающий подписчик теряет события,
// а не тормозит мутации матча
const subscriberBuffer = 32

// MemoryRelay - внутрипроцессная реализация для одного инстанса
// и для тестов
type MemoryRelay struct {
	mu   sync.RWMutex
	subs map[string]map[chan domain.MatchEvent]struct{}
}

func NewMemoryRelay() *MemoryRelay {
	return &MemoryRelay{
		subs: make(map[string]map[chan domain.MatchEvent]struct{}),
	}
}

// Publish рассылает событие всем текущим подписчикам топика.
// Переполненный подписчик пропускает событие
func (r *MemoryRelay) Publish(ctx context.Context, ev domain.MatchEvent) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for ch := range r.subs[ev.MatchID] {
		select {
		case ch <- ev:
		default:
			logger.Warn("relay: подписчик не успевает, событие пропущено",
				"match_id", ev.MatchID, "kind", ev.Kind)
		}
	}
	return nil
}

// Subscribe регистрирует подписчика на топик матча
func (r *MemoryRelay) Subscribe(ctx context.Context, matchID string) (<-chan domain.MatchEvent, func(), error) {
	ch := make(chan domain.MatchEvent, subscriberBuffer)

	r.mu.Lock()
	if r.subs[matchID] == nil {
		r.subs[matchID] = make(map[chan domain.MatchEvent]struct{})
	}
	r.subs[matchID][ch] = struct{}{}
	r.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.subs[matchID], ch)
			if len(r.subs[matchID]) == 0 {
				delete(r.subs, matchID)
			}
			r.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel, nil
}
