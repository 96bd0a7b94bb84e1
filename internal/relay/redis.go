package relay

import (
	"context"
	"encoding/json"
	"sync"

	"numbers_duel/internal/domain"
	"numbers_duel/internal/logger"

	"github.com/redis/go-redis/v9"
)

// RedisRelay - реализация поверх redis pub/sub для запуска нескольких
// инстансов: событие, опубликованное одним процессом, доходит до
// подписчиков на остальных
type RedisRelay struct {
	client *redis.Client
}

func NewRedisRelay(client *redis.Client) *RedisRelay {
	return &RedisRelay{client: client}
}

func channelName(matchID string) string {
	return "match:" + matchID
}

// Publish сериализует событие в json и публикует в канал матча
func (r *RedisRelay) Publish(ctx context.Context, ev domain.MatchEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, channelName(ev.MatchID), data).Err()
}

// Subscribe подписывается на канал матча и декодирует события.
// Отписка закрывает подписку redis и выходной канал
func (r *RedisRelay) Subscribe(ctx context.Context, matchID string) (<-chan domain.MatchEvent, func(), error) {
	sub := r.client.Subscribe(ctx, channelName(matchID))

	// дожидаемся подтверждения подписки, иначе можно потерять
	// события между вызовом и фактической подпиской
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, err
	}

	out := make(chan domain.MatchEvent, subscriberBuffer)

	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var ev domain.MatchEvent
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logger.Error("relay: не удалось декодировать событие", "error", err, "match_id", matchID)
				continue
			}
			select {
			case out <- ev:
			default:
				logger.Warn("relay: подписчик не успевает, событие пропущено",
					"match_id", matchID, "kind", ev.Kind)
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			_ = sub.Close()
		})
	}
	return out, cancel, nil
}
