package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/DoktorJohn/RelicWars-sub001/internal/models"
)

// jobRepository реализует JobRepository
type jobRepository struct {
	db      DatabaseInterface
	cache   CacheInterface
	metrics MetricsInterface
}

// NewJobRepository создает новый экземпляр репозитория работ
func NewJobRepository(deps *RepositoryDependencies) JobRepository {
	return &jobRepository{
		db:      deps.DB,
		cache:   deps.Cache,
		metrics: deps.MetricsCollector,
	}
}

const jobColumns = `
	id, player_id, kind, execute_at, completed, created_at,
	settlement_id, building_id, building_type, target_level,
	unit_type, total_quantity, delivered_quantity, seconds_per_unit, last_tick_at,
	research_id`

// CreateJob создает новую работу в очереди. Колонки вариантов, не
// относящиеся к виду работы, остаются NULL
func (r *jobRepository) CreateJob(ctx context.Context, job *models.Job) error {
	query := `
		INSERT INTO world.jobs (
			id, player_id, kind, execute_at, completed,
			settlement_id, building_id, building_type, target_level,
			unit_type, total_quantity, delivered_quantity, seconds_per_unit, last_tick_at,
			research_id
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)`

	var (
		settlementID      *uuid.UUID
		buildingID        *uuid.UUID
		buildingType      *models.BuildingType
		targetLevel       *int
		unitType          *models.UnitType
		totalQuantity     *int
		deliveredQuantity *int
		secondsPerUnit    *float64
		lastTickAt        *time.Time
		researchID        *string
	)

	switch job.Kind {
	case models.JobConstruction:
		if job.Construction == nil {
			return fmt.Errorf("construction job without payload")
		}
		settlementID = &job.Construction.SettlementID
		buildingID = &job.Construction.BuildingID
		buildingType = &job.Construction.BuildingType
		targetLevel = &job.Construction.TargetLevel
	case models.JobRecruitment:
		if job.Recruitment == nil {
			return fmt.Errorf("recruitment job without payload")
		}
		settlementID = &job.Recruitment.SettlementID
		unitType = &job.Recruitment.UnitType
		totalQuantity = &job.Recruitment.TotalQuantity
		deliveredQuantity = &job.Recruitment.DeliveredQuantity
		secondsPerUnit = &job.Recruitment.SecondsPerUnit
		lastTickAt = &job.Recruitment.LastTickAt
	case models.JobResearch:
		if job.Research == nil {
			return fmt.Errorf("research job without payload")
		}
		settlementID = &job.Research.SettlementID
		researchID = &job.Research.ResearchID
	default:
		return fmt.Errorf("unknown job kind: %s", job.Kind)
	}

	err := r.db.Exec(ctx, query,
		job.ID,
		job.PlayerID,
		job.Kind,
		job.ExecuteAt,
		job.Completed,
		settlementID,
		buildingID,
		buildingType,
		targetLevel,
		unitType,
		totalQuantity,
		deliveredQuantity,
		secondsPerUnit,
		lastTickAt,
		researchID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}

	r.metrics.IncDBQuery("job_create")

	return nil
}

// GetJobByID возвращает работу по ID
func (r *jobRepository) GetJobByID(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM world.jobs WHERE id = $1`

	row := r.db.QueryRow(ctx, query, jobID)
	job, err := scanJob(row)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	r.metrics.IncDBQuery("job_get")

	return job, nil
}

// GetDueJobs возвращает невыполненные работы со сроком не позже now.
// Порядок (execute_at, id) фиксирует детерминированную последовательность
// обработки при совпадении сроков
func (r *jobRepository) GetDueJobs(ctx context.Context, now time.Time, limit int) ([]models.Job, error) {
	start := time.Now()

	query := `
		SELECT ` + jobColumns + `
		FROM world.jobs
		WHERE completed = FALSE AND execute_at <= $1
		ORDER BY execute_at ASC, id ASC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query due jobs: %w", err)
	}
	defer rows.Close()

	jobs, err := scanJobs(rows)
	if err != nil {
		return nil, err
	}

	r.metrics.IncDBQuery("due_jobs_query")
	r.metrics.ObserveDBQueryDuration("due_jobs_query", time.Since(start))

	return jobs, nil
}

// GetPendingJobsForSettlement возвращает незавершенные работы поселения
func (r *jobRepository) GetPendingJobsForSettlement(ctx context.Context, settlementID uuid.UUID) ([]models.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM world.jobs
		WHERE completed = FALSE AND settlement_id = $1
		ORDER BY execute_at ASC, id ASC`

	rows, err := r.db.Query(ctx, query, settlementID)
	if err != nil {
		return nil, fmt.Errorf("failed to query settlement jobs: %w", err)
	}
	defer rows.Close()

	jobs, err := scanJobs(rows)
	if err != nil {
		return nil, err
	}

	r.metrics.IncDBQuery("settlement_jobs_query")

	return jobs, nil
}

// GetPendingJobsForPlayer возвращает незавершенные работы игрока
func (r *jobRepository) GetPendingJobsForPlayer(ctx context.Context, playerID uuid.UUID) ([]models.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM world.jobs
		WHERE completed = FALSE AND player_id = $1
		ORDER BY execute_at ASC, id ASC`

	rows, err := r.db.Query(ctx, query, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query player jobs: %w", err)
	}
	defer rows.Close()

	jobs, err := scanJobs(rows)
	if err != nil {
		return nil, err
	}

	r.metrics.IncDBQuery("player_jobs_query")

	return jobs, nil
}

// CompleteJob помечает работу выполненной
func (r *jobRepository) CompleteJob(ctx context.Context, jobID uuid.UUID) error {
	query := `UPDATE world.jobs SET completed = TRUE WHERE id = $1`

	if err := r.db.Exec(ctx, query, jobID); err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}

	r.metrics.IncDBQuery("job_complete")

	return nil
}

// DeleteJob удаляет работу (отмена до завершения)
func (r *jobRepository) DeleteJob(ctx context.Context, jobID uuid.UUID) error {
	query := `DELETE FROM world.jobs WHERE id = $1 AND completed = FALSE`

	if err := r.db.Exec(ctx, query, jobID); err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	r.metrics.IncDBQuery("job_delete")

	return nil
}

// UpdateRecruitmentProgress сохраняет частичную выдачу юнитов и переносит
// срок работы на момент готовности следующего юнита
func (r *jobRepository) UpdateRecruitmentProgress(ctx context.Context, jobID uuid.UUID, delivered int, lastTickAt, executeAt time.Time) error {
	query := `
		UPDATE world.jobs
		SET delivered_quantity = $2, last_tick_at = $3, execute_at = $4
		WHERE id = $1 AND completed = FALSE`

	if err := r.db.Exec(ctx, query, jobID, delivered, lastTickAt, executeAt); err != nil {
		return fmt.Errorf("failed to update recruitment progress: %w", err)
	}

	r.metrics.IncDBQuery("recruitment_progress_update")

	return nil
}

// scanJob читает одну строку очереди и восстанавливает вариант по kind
func scanJob(row Row) (*models.Job, error) {
	var (
		job               models.Job
		settlementID      *uuid.UUID
		buildingID        *uuid.UUID
		buildingType      *models.BuildingType
		targetLevel       *int
		unitType          *models.UnitType
		totalQuantity     *int
		deliveredQuantity *int
		secondsPerUnit    *float64
		lastTickAt        *time.Time
		researchID        *string
	)

	err := row.Scan(
		&job.ID,
		&job.PlayerID,
		&job.Kind,
		&job.ExecuteAt,
		&job.Completed,
		&job.CreatedAt,
		&settlementID,
		&buildingID,
		&buildingType,
		&targetLevel,
		&unitType,
		&totalQuantity,
		&deliveredQuantity,
		&secondsPerUnit,
		&lastTickAt,
		&researchID,
	)
	if err != nil {
		return nil, err
	}

	switch job.Kind {
	case models.JobConstruction:
		if settlementID == nil || buildingID == nil || buildingType == nil || targetLevel == nil {
			return nil, fmt.Errorf("construction job %s has incomplete payload", job.ID)
		}
		job.Construction = &models.ConstructionJob{
			SettlementID: *settlementID,
			BuildingID:   *buildingID,
			BuildingType: *buildingType,
			TargetLevel:  *targetLevel,
		}
	case models.JobRecruitment:
		if settlementID == nil || unitType == nil || totalQuantity == nil || deliveredQuantity == nil || secondsPerUnit == nil || lastTickAt == nil {
			return nil, fmt.Errorf("recruitment job %s has incomplete payload", job.ID)
		}
		job.Recruitment = &models.RecruitmentJob{
			SettlementID:      *settlementID,
			UnitType:          *unitType,
			TotalQuantity:     *totalQuantity,
			DeliveredQuantity: *deliveredQuantity,
			SecondsPerUnit:    *secondsPerUnit,
			LastTickAt:        *lastTickAt,
		}
	case models.JobResearch:
		if settlementID == nil || researchID == nil {
			return nil, fmt.Errorf("research job %s has incomplete payload", job.ID)
		}
		job.Research = &models.ResearchJob{
			ResearchID:   *researchID,
			SettlementID: *settlementID,
		}
	default:
		return nil, fmt.Errorf("unknown job kind: %s", job.Kind)
	}

	return &job, nil
}

func scanJobs(rows Rows) ([]models.Job, error) {
	jobs := make([]models.Job, 0)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, *job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate jobs: %w", err)
	}

	return jobs, nil
}
