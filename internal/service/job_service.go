package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoktorJohn/RelicWars-sub001/internal/models"
	"github.com/DoktorJohn/RelicWars-sub001/internal/statics"
	"github.com/DoktorJohn/RelicWars-sub001/internal/storage"
)

// JobService реализует постановку отложенных работ в очередь: улучшение
// построек, найм юнитов и исследования. Стоимость списывается в момент
// постановки, срок исполнения вычисляется с учетом модификаторов
type JobService struct {
	repo       *storage.Repository
	defs       *statics.Definitions
	modifiers  *ModifierService
	resources  *ResourceService
	population *PopulationService
	clock      Clock
	logger     *zap.Logger
	admission  admissionLocks
}

// admissionLocks выдает мьютекс на поселение. Проверка населения и списание
// стоимости идут под этим мьютексом, поэтому два одновременных запроса не
// могут зарезервировать одно и то же население. Сервис работает в одном
// экземпляре, как и воркер очереди, поэтому блокировка в процессе достаточна
type admissionLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func (l *admissionLocks) settlement(id uuid.UUID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.locks == nil {
		l.locks = make(map[uuid.UUID]*sync.Mutex)
	}
	lock, ok := l.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[id] = lock
	}
	return lock
}

// NewJobService создает новый экземпляр JobService
func NewJobService(
	repo *storage.Repository,
	defs *statics.Definitions,
	modifiers *ModifierService,
	resources *ResourceService,
	population *PopulationService,
	clock Clock,
	logger *zap.Logger,
) *JobService {
	return &JobService{
		repo:       repo,
		defs:       defs,
		modifiers:  modifiers,
		resources:  resources,
		population: population,
		clock:      clock,
		logger:     logger,
	}
}

// QueueConstruction ставит в очередь улучшение постройки поселения.
// Отклоняется, если постройка уже улучшается, достигла максимального уровня
// или не хватает ресурсов
func (s *JobService) QueueConstruction(ctx context.Context, playerID, settlementID, buildingID uuid.UUID) (*models.Job, error) {
	lock := s.admission.settlement(settlementID)
	lock.Lock()
	defer lock.Unlock()

	now := s.clock.Now()

	settlement, err := s.loadOwnedSettlement(ctx, playerID, settlementID)
	if err != nil {
		return nil, err
	}

	building := settlement.FindBuilding(buildingID)
	if building == nil {
		return nil, newDomainError(ErrCodeNotFound, "building %s not found in settlement", buildingID)
	}
	if building.IsUpgrading(now) {
		return nil, newDomainError(ErrCodeConflict, "building is already upgrading")
	}

	// Вторая работа на ту же постройку не допускается, даже если отметка
	// улучшения еще не проставлена
	pending, err := s.repo.Job.GetPendingJobsForSettlement(ctx, settlementID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending jobs: %w", err)
	}
	for i := range pending {
		if pending[i].Kind == models.JobConstruction && pending[i].Construction.BuildingID == buildingID {
			return nil, newDomainError(ErrCodeConflict, "building already has a queued upgrade")
		}
	}

	targetLevel := building.Level + 1
	if targetLevel > s.defs.MaxLevel(building.Type) {
		return nil, newDomainError(ErrCodeValidation, "building %s is already at maximum level", building.Type)
	}
	target, err := s.defs.BuildingLevel(building.Type, targetLevel)
	if err != nil {
		return nil, wrapDomainError(err, ErrCodeConfiguration, "missing building level definition")
	}

	mods, err := s.modifiers.EffectiveModifiers(ctx, settlement, now)
	if err != nil {
		return nil, wrapDomainError(err, ErrCodeConfiguration, "failed to resolve settlement modifiers")
	}

	// Прирост населения нового уровня резервируется заранее
	account, err := s.population.Account(ctx, settlement, mods)
	if err != nil {
		return nil, err
	}
	currentCost := 0
	if building.Level > 0 {
		if current, err := s.defs.BuildingLevel(building.Type, building.Level); err == nil {
			currentCost = current.PopulationCost
		}
	}
	if delta := target.PopulationCost - currentCost; delta > account.Available {
		return nil, newDomainError(ErrCodeInsufficientPopulation,
			"not enough population: need %d, available %d", delta, account.Available)
	}

	if _, err := s.resources.SpendResources(ctx, settlementID, target.Cost); err != nil {
		return nil, err
	}

	duration := s.modifiers.ConstructionDuration(target.BuildSeconds, mods)
	executeAt := now.Add(duration)

	job := &models.Job{
		ID:        uuid.New(),
		PlayerID:  playerID,
		Kind:      models.JobConstruction,
		ExecuteAt: executeAt,
		CreatedAt: now,
		Construction: &models.ConstructionJob{
			SettlementID: settlementID,
			BuildingID:   buildingID,
			BuildingType: building.Type,
			TargetLevel:  targetLevel,
		},
	}

	if err := s.repo.Job.CreateJob(ctx, job); err != nil {
		s.compensateSpend(ctx, settlementID, target.Cost)
		return nil, fmt.Errorf("failed to create construction job: %w", err)
	}
	if err := s.repo.Settlement.UpgradeBuilding(ctx, buildingID, now, executeAt); err != nil {
		// Работа уже создана: снимаем и ее, и списание
		if delErr := s.repo.Job.DeleteJob(ctx, job.ID); delErr != nil {
			s.logger.Error("Failed to delete orphaned construction job",
				zap.String("jobID", job.ID.String()), zap.Error(delErr))
		}
		s.compensateSpend(ctx, settlementID, target.Cost)
		return nil, fmt.Errorf("failed to mark building upgrade: %w", err)
	}

	s.logger.Info("Construction queued",
		zap.String("settlementID", settlementID.String()),
		zap.String("buildingType", string(building.Type)),
		zap.Int("targetLevel", targetLevel),
		zap.Time("executeAt", executeAt),
	)

	return job, nil
}

// QueueRecruitment ставит в очередь найм юнитов. Вся стоимость списывается
// сразу, юниты доставляются поштучно по мере готовности
func (s *JobService) QueueRecruitment(ctx context.Context, playerID, settlementID uuid.UUID, unitType models.UnitType, quantity int) (*models.Job, error) {
	lock := s.admission.settlement(settlementID)
	lock.Lock()
	defer lock.Unlock()

	now := s.clock.Now()

	if quantity < 1 {
		return nil, newDomainError(ErrCodeValidation, "quantity must be positive")
	}

	settlement, err := s.loadOwnedSettlement(ctx, playerID, settlementID)
	if err != nil {
		return nil, err
	}

	unit, err := s.defs.Unit(unitType)
	if err != nil {
		return nil, newDomainError(ErrCodeNotFound, "unknown unit type %s", unitType)
	}
	if settlement.HighestLevelOfType(unit.RequiredBuilding) < unit.RequiredLevel {
		return nil, newDomainError(ErrCodeValidation,
			"unit %s requires %s level %d", unitType, unit.RequiredBuilding, unit.RequiredLevel)
	}

	mods, err := s.modifiers.EffectiveModifiers(ctx, settlement, now)
	if err != nil {
		return nil, wrapDomainError(err, ErrCodeConfiguration, "failed to resolve settlement modifiers")
	}

	account, err := s.population.Account(ctx, settlement, mods)
	if err != nil {
		return nil, err
	}
	needed := unit.PopulationCost * quantity
	if needed > account.Available {
		return nil, newDomainError(ErrCodeInsufficientPopulation,
			"not enough population: need %d, available %d", needed, account.Available)
	}

	// Скорость найма собирается по узкой политике: бонусы дает только
	// постройка, ведущая найм этого юнита
	recruitmentMods, err := s.modifiers.RecruitmentModifiers(ctx, settlement, unit, now)
	if err != nil {
		return nil, wrapDomainError(err, ErrCodeConfiguration, "failed to resolve recruitment modifiers")
	}

	cost := unit.Cost.Scale(quantity)
	if _, err := s.resources.SpendResources(ctx, settlementID, cost); err != nil {
		return nil, err
	}

	secondsPerUnit := s.modifiers.RecruitmentSecondsPerUnit(unit, recruitmentMods)
	executeAt := now.Add(time.Duration(secondsPerUnit * float64(time.Second)))

	job := &models.Job{
		ID:        uuid.New(),
		PlayerID:  playerID,
		Kind:      models.JobRecruitment,
		ExecuteAt: executeAt,
		CreatedAt: now,
		Recruitment: &models.RecruitmentJob{
			SettlementID:   settlementID,
			UnitType:       unitType,
			TotalQuantity:  quantity,
			SecondsPerUnit: secondsPerUnit,
			LastTickAt:     now,
		},
	}

	if err := s.repo.Job.CreateJob(ctx, job); err != nil {
		s.compensateSpend(ctx, settlementID, cost)
		return nil, fmt.Errorf("failed to create recruitment job: %w", err)
	}

	s.logger.Info("Recruitment queued",
		zap.String("settlementID", settlementID.String()),
		zap.String("unitType", string(unitType)),
		zap.Int("quantity", quantity),
		zap.Float64("secondsPerUnit", secondsPerUnit),
	)

	return job, nil
}

// QueueResearch ставит в очередь исследование технологии. Исследование
// привязано к игроку, оплачивается указанным поселением. Одновременно у
// игрока может идти только одно исследование
func (s *JobService) QueueResearch(ctx context.Context, playerID uuid.UUID, researchID string, settlementID uuid.UUID) (*models.Job, error) {
	lock := s.admission.settlement(settlementID)
	lock.Lock()
	defer lock.Unlock()

	now := s.clock.Now()

	research, err := s.defs.Research(researchID)
	if err != nil {
		return nil, newDomainError(ErrCodeNotFound, "unknown research %s", researchID)
	}

	done, err := s.repo.Research.HasCompletedResearch(ctx, playerID, researchID)
	if err != nil {
		return nil, fmt.Errorf("failed to check completed research: %w", err)
	}
	if done {
		return nil, newDomainError(ErrCodeConflict, "research %s is already completed", researchID)
	}

	for _, prereq := range research.Prerequisites {
		prereqDone, err := s.repo.Research.HasCompletedResearch(ctx, playerID, prereq)
		if err != nil {
			return nil, fmt.Errorf("failed to check prerequisite: %w", err)
		}
		if !prereqDone {
			return nil, newDomainError(ErrCodeValidation, "research %s requires %s", researchID, prereq)
		}
	}

	pending, err := s.repo.Job.GetPendingJobsForPlayer(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending jobs: %w", err)
	}
	for i := range pending {
		if pending[i].Kind == models.JobResearch {
			return nil, newDomainError(ErrCodeConflict, "another research is already in progress")
		}
	}

	settlement, err := s.loadOwnedSettlement(ctx, playerID, settlementID)
	if err != nil {
		return nil, err
	}

	mods, err := s.modifiers.EffectiveModifiers(ctx, settlement, now)
	if err != nil {
		return nil, wrapDomainError(err, ErrCodeConfiguration, "failed to resolve settlement modifiers")
	}

	if _, err := s.resources.SpendResources(ctx, settlementID, research.Cost); err != nil {
		return nil, err
	}

	duration := s.modifiers.ResearchDuration(research.Seconds, mods)
	executeAt := now.Add(duration)

	job := &models.Job{
		ID:        uuid.New(),
		PlayerID:  playerID,
		Kind:      models.JobResearch,
		ExecuteAt: executeAt,
		CreatedAt: now,
		Research: &models.ResearchJob{
			ResearchID:   researchID,
			SettlementID: settlementID,
		},
	}

	if err := s.repo.Job.CreateJob(ctx, job); err != nil {
		s.compensateSpend(ctx, settlementID, research.Cost)
		return nil, fmt.Errorf("failed to create research job: %w", err)
	}

	s.logger.Info("Research queued",
		zap.String("playerID", playerID.String()),
		zap.String("researchID", researchID),
		zap.Time("executeAt", executeAt),
	)

	return job, nil
}

// CancelResearch отменяет незавершенное исследование игрока с полным
// возвратом стоимости оплатившему поселению
func (s *JobService) CancelResearch(ctx context.Context, playerID, jobID uuid.UUID) error {
	job, err := s.repo.Job.GetJobByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return newDomainError(ErrCodeNotFound, "job %s not found", jobID)
		}
		return fmt.Errorf("failed to load job: %w", err)
	}

	if job.PlayerID != playerID {
		return newDomainError(ErrCodeNotFound, "job %s not found", jobID)
	}
	if job.Kind != models.JobResearch || job.Research == nil {
		return newDomainError(ErrCodeValidation, "job %s is not a research job", jobID)
	}
	if job.Completed {
		return newDomainError(ErrCodeConflict, "research is already completed")
	}

	research, err := s.defs.Research(job.Research.ResearchID)
	if err != nil {
		return wrapDomainError(err, ErrCodeConfiguration, "missing research definition")
	}

	if err := s.repo.Job.DeleteJob(ctx, jobID); err != nil {
		return fmt.Errorf("failed to delete research job: %w", err)
	}

	if _, err := s.resources.RefundResources(ctx, job.Research.SettlementID, research.Cost); err != nil {
		return err
	}

	s.logger.Info("Research cancelled",
		zap.String("playerID", playerID.String()),
		zap.String("researchID", job.Research.ResearchID),
	)

	return nil
}

// Queue возвращает незавершенные работы поселения в порядке исполнения
func (s *JobService) Queue(ctx context.Context, playerID, settlementID uuid.UUID) (*models.QueueResponse, error) {
	if _, err := s.loadOwnedSettlement(ctx, playerID, settlementID); err != nil {
		return nil, err
	}

	jobs, err := s.repo.Job.GetPendingJobsForSettlement(ctx, settlementID)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending jobs: %w", err)
	}

	return &models.QueueResponse{Jobs: jobs}, nil
}

// compensateSpend возвращает списанную стоимость после неудачной постановки
// работы. Ошибка возврата только логируется: наружу уходит исходная причина
func (s *JobService) compensateSpend(ctx context.Context, settlementID uuid.UUID, cost models.Resources) {
	if _, err := s.resources.RefundResources(ctx, settlementID, cost); err != nil {
		s.logger.Error("Failed to refund cost after job creation failure",
			zap.String("settlementID", settlementID.String()),
			zap.Error(err))
	}
}

// loadOwnedSettlement загружает поселение и проверяет принадлежность игроку.
// Чужие поселения неотличимы от несуществующих
func (s *JobService) loadOwnedSettlement(ctx context.Context, playerID, settlementID uuid.UUID) (*models.Settlement, error) {
	settlement, err := s.repo.Settlement.GetSettlementByID(ctx, settlementID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, newDomainError(ErrCodeNotFound, "settlement %s not found", settlementID)
		}
		return nil, fmt.Errorf("failed to load settlement: %w", err)
	}
	if settlement.PlayerID == nil || *settlement.PlayerID != playerID {
		return nil, newDomainError(ErrCodeNotFound, "settlement %s not found", settlementID)
	}
	return settlement, nil
}
