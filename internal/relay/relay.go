package relay

import (
	"context"

	"numbers_duel/internal/domain"
)

// Relay - канал уведомлений о переходах матча. Доставка best-effort,
// at-most-once: подписчик видит только события, опубликованные после
// подписки, повтора пропущенного нет. Порядок гарантируется только
// внутри одного матча и совпадает с порядком сериализации координатора
type Relay interface {
	// Publish отправляет событие в топик матча
	Publish(ctx context.Context, ev domain.MatchEvent) error

	// Subscribe возвращает канал событий матча и функцию отписки.
	// Канал закрывается после отписки
	Subscribe(ctx context.Context, matchID string) (<-chan domain.MatchEvent, func(), error)
}
