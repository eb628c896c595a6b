package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Кеш изученных исследований. Список меняется редко, поэтому читается
// через кеш с инвалидацией при завершении исследования
const (
	completedResearchCacheKeyPrefix = "world:research:completed:"
	completedResearchCacheTTL       = 10 * time.Minute
)

// researchRepository реализует ResearchRepository
type researchRepository struct {
	db      DatabaseInterface
	cache   CacheInterface
	metrics MetricsInterface
}

// NewResearchRepository создает новый экземпляр репозитория исследований
func NewResearchRepository(deps *RepositoryDependencies) ResearchRepository {
	return &researchRepository{
		db:      deps.DB,
		cache:   deps.Cache,
		metrics: deps.MetricsCollector,
	}
}

// GetCompletedResearch возвращает идентификаторы изученных исследований игрока
func (r *researchRepository) GetCompletedResearch(ctx context.Context, playerID uuid.UUID) ([]string, error) {
	cacheKey := completedResearchCacheKeyPrefix + playerID.String()

	if cached, err := r.cache.Get(ctx, cacheKey); err == nil && cached != "" {
		var ids []string
		if err := json.Unmarshal([]byte(cached), &ids); err == nil {
			r.metrics.IncCacheHit("completed_research")
			return ids, nil
		}
	}
	r.metrics.IncCacheMiss("completed_research")

	query := `
		SELECT research_id
		FROM world.player_research
		WHERE player_id = $1
		ORDER BY completed_at ASC`

	rows, err := r.db.Query(ctx, query, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query completed research: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan research id: %w", err)
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate completed research: %w", err)
	}

	r.metrics.IncDBQuery("completed_research_query")

	// Ошибки кеша не критичны для чтения
	if payload, err := json.Marshal(ids); err == nil {
		_ = r.cache.Set(ctx, cacheKey, string(payload), completedResearchCacheTTL)
	}

	return ids, nil
}

// MarkResearchCompleted фиксирует завершение исследования и инвалидирует кеш
func (r *researchRepository) MarkResearchCompleted(ctx context.Context, playerID uuid.UUID, researchID string, completedAt time.Time) error {
	query := `
		INSERT INTO world.player_research (player_id, research_id, completed_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (player_id, research_id) DO NOTHING`

	if err := r.db.Exec(ctx, query, playerID, researchID, completedAt); err != nil {
		return fmt.Errorf("failed to mark research completed: %w", err)
	}

	if err := r.cache.Del(ctx, completedResearchCacheKeyPrefix+playerID.String()); err != nil {
		return fmt.Errorf("failed to invalidate research cache: %w", err)
	}

	r.metrics.IncDBQuery("research_complete")

	return nil
}

// HasCompletedResearch проверяет, изучено ли исследование
func (r *researchRepository) HasCompletedResearch(ctx context.Context, playerID uuid.UUID, researchID string) (bool, error) {
	ids, err := r.GetCompletedResearch(ctx, playerID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == researchID {
			return true, nil
		}
	}
	return false, nil
}
