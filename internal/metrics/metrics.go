package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Счетчики ядра матчей, отдаются на /metrics
var (
	MatchesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "numbers_duel_matches_created_total",
		Help: "Создано матчей по режимам",
	}, []string{"mode"})

	MatchesFinished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "numbers_duel_matches_finished_total",
		Help: "Завершено матчей",
	})

	MovesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "numbers_duel_moves_total",
		Help: "Принято догадок",
	})

	LockTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "numbers_duel_lock_timeouts_total",
		Help: "Таймауты захвата блокировки матча",
	})

	RelayEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "numbers_duel_relay_events_total",
		Help: "Опубликовано событий по видам",
	}, []string{"kind"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "numbers_duel_ws_connections",
		Help: "Живые websocket-подключения",
	})
)
