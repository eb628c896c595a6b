package adapters

import (
	"time"

	"github.com/DoktorJohn/RelicWars-sub001/internal/service"
	"github.com/DoktorJohn/RelicWars-sub001/internal/storage"
	"github.com/DoktorJohn/RelicWars-sub001/pkg/metrics"
)

// MetricsAdapter адаптирует metrics для storage.MetricsInterface
type MetricsAdapter struct{}

// NewMetricsAdapter создает новый адаптер для метрик
func NewMetricsAdapter() storage.MetricsInterface {
	return &MetricsAdapter{}
}

// IncDBQuery увеличивает счетчик запросов к БД
func (a *MetricsAdapter) IncDBQuery(operation string) {
	metrics.DBQueriesTotal.WithLabelValues(operation, "world").Inc()
}

// IncCacheHit увеличивает счетчик попаданий в кеш
func (a *MetricsAdapter) IncCacheHit(cacheType string) {
	metrics.RedisOperationsTotal.WithLabelValues("get", "hit").Inc()
}

// IncCacheMiss увеличивает счетчик промахов кеша
func (a *MetricsAdapter) IncCacheMiss(cacheType string) {
	metrics.RedisOperationsTotal.WithLabelValues("get", "miss").Inc()
}

// ObserveDBQueryDuration записывает время выполнения запроса к БД
func (a *MetricsAdapter) ObserveDBQueryDuration(operation string, duration time.Duration) {
	metrics.DBQueryDuration.WithLabelValues(operation, "world").Observe(duration.Seconds())
}

// TickMetricsAdapter адаптирует metrics для service.TickMetrics
type TickMetricsAdapter struct{}

// NewTickMetricsAdapter создает новый адаптер метрик воркера очереди
func NewTickMetricsAdapter() service.TickMetrics {
	return &TickMetricsAdapter{}
}

// IncJobProcessed увеличивает счетчик обработанных работ
func (a *TickMetricsAdapter) IncJobProcessed(kind string, result string) {
	metrics.RecordJobProcessed(kind, result)
}

// ObserveTickDuration записывает длительность прохода по очереди
func (a *TickMetricsAdapter) ObserveTickDuration(duration time.Duration) {
	metrics.TickDuration.Observe(duration.Seconds())
}

// SetQueueDepth выставляет глубину очереди, увиденную последним проходом
func (a *TickMetricsAdapter) SetQueueDepth(depth int) {
	metrics.JobQueueDepth.Set(float64(depth))
}
