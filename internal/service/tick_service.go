package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/DoktorJohn/RelicWars-sub001/internal/models"
	"github.com/DoktorJohn/RelicWars-sub001/internal/statics"
	"github.com/DoktorJohn/RelicWars-sub001/internal/storage"
)

// TickMetrics определяет интерфейс для метрик обработки очереди
type TickMetrics interface {
	IncJobProcessed(kind string, result string)
	ObserveTickDuration(duration time.Duration)
	SetQueueDepth(depth int)
}

// TickService обрабатывает очередь отложенных работ: завершает улучшения
// построек, выдает нанятых юнитов и фиксирует исследования. Работы
// обрабатываются последовательно одним воркером в порядке (execute_at, id),
// что исключает конкурентную обработку работ одного поселения
type TickService struct {
	repo      *storage.Repository
	defs      *statics.Definitions
	resources *ResourceService
	clock     Clock
	metrics   TickMetrics
	logger    *zap.Logger
	config    TickConfig
}

// TickConfig конфигурация воркера очереди
type TickConfig struct {
	// Interval интервал между проходами по очереди
	Interval time.Duration
	// BatchSize максимум работ, обрабатываемых за один проход
	BatchSize int
}

// NewTickService создает новый воркер очереди
func NewTickService(
	repo *storage.Repository,
	defs *statics.Definitions,
	resources *ResourceService,
	clock Clock,
	metrics TickMetrics,
	logger *zap.Logger,
	config TickConfig,
) *TickService {
	return &TickService{
		repo:      repo,
		defs:      defs,
		resources: resources,
		clock:     clock,
		metrics:   metrics,
		logger:    logger,
		config:    config,
	}
}

// Start запускает фоновую обработку очереди
func (s *TickService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	s.logger.Info("Starting tick service",
		zap.Duration("interval", s.config.Interval),
		zap.Int("batch_size", s.config.BatchSize))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stopping tick service")
			return
		case <-ticker.C:
			s.ProcessDueJobs(ctx)
		}
	}
}

// ProcessDueJobs выполняет один проход по очереди работ
func (s *TickService) ProcessDueJobs(ctx context.Context) {
	tickCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	startTime := time.Now()
	now := s.clock.Now()

	jobs, err := s.repo.Job.GetDueJobs(tickCtx, now, s.config.BatchSize)
	if err != nil {
		s.logger.Error("Failed to get due jobs", zap.Error(err))
		return
	}
	s.metrics.SetQueueDepth(len(jobs))

	if len(jobs) == 0 {
		return
	}

	s.logger.Debug("Processing due jobs", zap.Int("count", len(jobs)))

	for i := range jobs {
		s.processJob(tickCtx, &jobs[i], now)
	}

	s.metrics.ObserveTickDuration(time.Since(startTime))
}

// processJob обрабатывает одну работу. Работы с нарушенной целостностью
// данных (пропавшее поселение, постройка или определение) помечаются
// завершенными, чтобы не блокировать очередь бесконечными повторами
func (s *TickService) processJob(ctx context.Context, job *models.Job, now time.Time) {
	var err error
	switch job.Kind {
	case models.JobConstruction:
		err = s.completeConstruction(ctx, job)
	case models.JobRecruitment:
		err = s.advanceRecruitment(ctx, job, now)
	case models.JobResearch:
		err = s.completeResearch(ctx, job)
	default:
		s.quarantineJob(ctx, job, "unknown job kind", nil)
		return
	}

	if err == nil {
		return
	}

	if domainErr, ok := AsDomainError(err); ok && (domainErr.Code == ErrCodeNotFound || domainErr.Code == ErrCodeConfiguration) {
		s.quarantineJob(ctx, job, "data integrity fault", err)
		return
	}

	// Временная ошибка: работа остается в очереди и будет повторена
	s.logger.Error("Failed to process job, will retry",
		zap.String("jobID", job.ID.String()),
		zap.String("kind", string(job.Kind)),
		zap.Error(err))
	s.metrics.IncJobProcessed(string(job.Kind), "retry")
}

// completeConstruction завершает улучшение постройки. Запасы поселения
// материализуются до повышения уровня, чтобы новый темп добычи не
// применялся задним числом
func (s *TickService) completeConstruction(ctx context.Context, job *models.Job) error {
	payload := job.Construction

	settlement, err := s.resources.Materialize(ctx, payload.SettlementID)
	if err != nil {
		return err
	}

	building := settlement.FindBuilding(payload.BuildingID)
	if building == nil {
		return newDomainError(ErrCodeNotFound, "building %s no longer exists", payload.BuildingID)
	}
	if !s.defs.HasBuildingLevel(payload.BuildingType, payload.TargetLevel) {
		return newDomainError(ErrCodeConfiguration, "missing definition for %s level %d", payload.BuildingType, payload.TargetLevel)
	}

	if err := s.repo.Settlement.CompleteBuildingUpgrade(ctx, payload.BuildingID, payload.TargetLevel); err != nil {
		return err
	}
	if err := s.repo.Job.CompleteJob(ctx, job.ID); err != nil {
		return err
	}

	s.logger.Info("Construction completed",
		zap.String("settlementID", payload.SettlementID.String()),
		zap.String("buildingType", string(payload.BuildingType)),
		zap.Int("level", payload.TargetLevel))
	s.metrics.IncJobProcessed(string(models.JobConstruction), "completed")

	return nil
}

// advanceRecruitment выдает готовых юнитов. Доставляется столько юнитов,
// сколько полных интервалов прошло с последней выдачи; остаток времени
// сохраняется переносом отметки ровно на доставленные интервалы, а не на
// текущий момент
func (s *TickService) advanceRecruitment(ctx context.Context, job *models.Job, now time.Time) error {
	payload := job.Recruitment

	if payload.SecondsPerUnit <= 0 {
		return newDomainError(ErrCodeConfiguration, "recruitment job %s has invalid pace", job.ID)
	}

	if _, err := s.repo.Settlement.GetSettlementByID(ctx, payload.SettlementID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return newDomainError(ErrCodeNotFound, "settlement %s no longer exists", payload.SettlementID)
		}
		return err
	}

	elapsed := now.Sub(payload.LastTickAt).Seconds()
	deliverable := int(elapsed / payload.SecondsPerUnit)
	if remaining := payload.RemainingQuantity(); deliverable > remaining {
		deliverable = remaining
	}

	perUnit := time.Duration(payload.SecondsPerUnit * float64(time.Second))

	if deliverable <= 0 {
		// Все юниты уже выданы, но завершение не зафиксировалось на
		// прошлом проходе. Доводим работу до конца вместо переноса
		if payload.RemainingQuantity() == 0 {
			if err := s.repo.Job.CompleteJob(ctx, job.ID); err != nil {
				return err
			}
			s.logger.Info("Recruitment completed",
				zap.String("settlementID", payload.SettlementID.String()),
				zap.String("unitType", string(payload.UnitType)),
				zap.Int("total", payload.TotalQuantity))
			s.metrics.IncJobProcessed(string(models.JobRecruitment), "completed")
			return nil
		}

		// Срок наступил раньше готовности юнита (например, после правки
		// часов). Переносим работу на готовность следующего юнита
		nextDue := payload.LastTickAt.Add(perUnit)
		return s.repo.Job.UpdateRecruitmentProgress(ctx, job.ID, payload.DeliveredQuantity, payload.LastTickAt, nextDue)
	}

	if err := s.repo.Settlement.AddUnits(ctx, payload.SettlementID, payload.UnitType, deliverable); err != nil {
		return err
	}

	newDelivered := payload.DeliveredQuantity + deliverable
	newLastTick := payload.LastTickAt.Add(time.Duration(deliverable) * perUnit)
	nextDue := newLastTick.Add(perUnit)

	if err := s.repo.Job.UpdateRecruitmentProgress(ctx, job.ID, newDelivered, newLastTick, nextDue); err != nil {
		return err
	}

	if newDelivered >= payload.TotalQuantity {
		if err := s.repo.Job.CompleteJob(ctx, job.ID); err != nil {
			return err
		}
		s.logger.Info("Recruitment completed",
			zap.String("settlementID", payload.SettlementID.String()),
			zap.String("unitType", string(payload.UnitType)),
			zap.Int("total", payload.TotalQuantity))
		s.metrics.IncJobProcessed(string(models.JobRecruitment), "completed")
		return nil
	}

	s.logger.Debug("Recruitment advanced",
		zap.String("settlementID", payload.SettlementID.String()),
		zap.String("unitType", string(payload.UnitType)),
		zap.Int("delivered", newDelivered),
		zap.Int("total", payload.TotalQuantity))
	s.metrics.IncJobProcessed(string(models.JobRecruitment), "partial")

	return nil
}

// completeResearch фиксирует завершение исследования игрока
func (s *TickService) completeResearch(ctx context.Context, job *models.Job) error {
	payload := job.Research

	if _, err := s.defs.Research(payload.ResearchID); err != nil {
		return newDomainError(ErrCodeConfiguration, "missing definition for research %s", payload.ResearchID)
	}

	if err := s.repo.Research.MarkResearchCompleted(ctx, job.PlayerID, payload.ResearchID, job.ExecuteAt); err != nil {
		return err
	}
	if err := s.repo.Job.CompleteJob(ctx, job.ID); err != nil {
		return err
	}

	s.logger.Info("Research completed",
		zap.String("playerID", job.PlayerID.String()),
		zap.String("researchID", payload.ResearchID))
	s.metrics.IncJobProcessed(string(models.JobResearch), "completed")

	return nil
}

// quarantineJob помечает работу завершенной без применения эффектов
func (s *TickService) quarantineJob(ctx context.Context, job *models.Job, reason string, cause error) {
	s.logger.Error("Quarantining job",
		zap.String("jobID", job.ID.String()),
		zap.String("kind", string(job.Kind)),
		zap.String("reason", reason),
		zap.Error(cause))

	if err := s.repo.Job.CompleteJob(ctx, job.ID); err != nil {
		s.logger.Error("Failed to quarantine job", zap.String("jobID", job.ID.String()), zap.Error(err))
		return
	}
	s.metrics.IncJobProcessed(string(job.Kind), "quarantined")
}

// GetDefaultTickConfig возвращает конфигурацию воркера по умолчанию
func GetDefaultTickConfig() TickConfig {
	return TickConfig{
		Interval:  time.Second,
		BatchSize: 100,
	}
}
