package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/DoktorJohn/RelicWars-sub001/internal/models"
)

// SettlementRepository определяет интерфейс для работы с поселениями
type SettlementRepository interface {
	// CreateSettlement создает новое поселение со стартовыми постройками
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// GetSettlementByID возвращает поселение со всеми постройками и гарнизоном
	GetSettlementByID(ctx context.Context, settlementID uuid.UUID) (*models.Settlement, error)

	// GetPlayerSettlements возвращает все поселения игрока
	GetPlayerSettlements(ctx context.Context, playerID uuid.UUID) ([]models.Settlement, error)

	// UpdateSettlementState сохраняет запасы и отметку последнего пересчета
	// с оптимистичной проверкой версии. Возвращает ErrVersionConflict, если
	// версия в базе уже изменилась
	UpdateSettlementState(ctx context.Context, settlement *models.Settlement) error

	// UpgradeBuilding фиксирует начало улучшения постройки
	UpgradeBuilding(ctx context.Context, buildingID uuid.UUID, startedAt, finishedAt time.Time) error

	// CompleteBuildingUpgrade повышает уровень постройки и снимает отметку улучшения
	CompleteBuildingUpgrade(ctx context.Context, buildingID uuid.UUID, newLevel int) error

	// AddUnits добавляет юнитов в гарнизон поселения
	AddUnits(ctx context.Context, settlementID uuid.UUID, unitType models.UnitType, quantity int) error

	// GetWorldModifiers возвращает активные глобальные модификаторы мира
	GetWorldModifiers(ctx context.Context, now time.Time) (*models.World, error)
}

// JobRepository определяет интерфейс для работы с очередью отложенных работ
type JobRepository interface {
	// CreateJob создает новую работу в очереди
	CreateJob(ctx context.Context, job *models.Job) error

	// GetJobByID возвращает работу по ID
	GetJobByID(ctx context.Context, jobID uuid.UUID) (*models.Job, error)

	// GetDueJobs возвращает невыполненные работы со сроком не позже now,
	// упорядоченные по (execute_at, id)
	GetDueJobs(ctx context.Context, now time.Time, limit int) ([]models.Job, error)

	// GetPendingJobsForSettlement возвращает незавершенные работы поселения
	GetPendingJobsForSettlement(ctx context.Context, settlementID uuid.UUID) ([]models.Job, error)

	// GetPendingJobsForPlayer возвращает незавершенные работы игрока
	GetPendingJobsForPlayer(ctx context.Context, playerID uuid.UUID) ([]models.Job, error)

	// CompleteJob помечает работу выполненной
	CompleteJob(ctx context.Context, jobID uuid.UUID) error

	// DeleteJob удаляет работу (отмена до завершения)
	DeleteJob(ctx context.Context, jobID uuid.UUID) error

	// UpdateRecruitmentProgress сохраняет частичную выдачу юнитов и переносит
	// срок работы на момент готовности следующего юнита
	UpdateRecruitmentProgress(ctx context.Context, jobID uuid.UUID, delivered int, lastTickAt, executeAt time.Time) error
}

// ResearchRepository определяет интерфейс для работы с изученными исследованиями
type ResearchRepository interface {
	// GetCompletedResearch возвращает идентификаторы изученных исследований игрока
	GetCompletedResearch(ctx context.Context, playerID uuid.UUID) ([]string, error)

	// MarkResearchCompleted фиксирует завершение исследования
	MarkResearchCompleted(ctx context.Context, playerID uuid.UUID, researchID string, completedAt time.Time) error

	// HasCompletedResearch проверяет, изучено ли исследование
	HasCompletedResearch(ctx context.Context, playerID uuid.UUID, researchID string) (bool, error)
}

// Repository объединяет все репозитории
type Repository struct {
	Settlement SettlementRepository
	Job        JobRepository
	Research   ResearchRepository
}

// RepositoryDependencies содержит зависимости для создания репозиториев
type RepositoryDependencies struct {
	DB               DatabaseInterface
	Cache            CacheInterface
	MetricsCollector MetricsInterface
}

// DatabaseInterface определяет интерфейс для работы с базой данных
type DatabaseInterface interface {
	QueryRow(ctx context.Context, query string, args ...interface{}) Row
	Query(ctx context.Context, query string, args ...interface{}) (Rows, error)
	Exec(ctx context.Context, query string, args ...interface{}) error
	BeginTx(ctx context.Context) (Tx, error)
	Health(ctx context.Context) error
}

// CacheInterface определяет интерфейс для работы с кешем
type CacheInterface interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Health(ctx context.Context) error
}

// MetricsInterface определяет интерфейс для сбора метрик
type MetricsInterface interface {
	IncDBQuery(operation string)
	IncCacheHit(cacheType string)
	IncCacheMiss(cacheType string)
	ObserveDBQueryDuration(operation string, duration time.Duration)
}

// Row интерфейс для работы с результатом одной строки
type Row interface {
	Scan(dest ...interface{}) error
}

// Rows интерфейс для работы с результатом множества строк
type Rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
	Close()
}

// Tx интерфейс для работы с транзакциями
type Tx interface {
	QueryRow(ctx context.Context, query string, args ...interface{}) Row
	Query(ctx context.Context, query string, args ...interface{}) (Rows, error)
	Exec(ctx context.Context, query string, args ...interface{}) error
	Commit() error
	Rollback() error
}
