package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoktorJohn/RelicWars-sub001/internal/models"
	"github.com/DoktorJohn/RelicWars-sub001/internal/statics"
	"github.com/DoktorJohn/RelicWars-sub001/internal/storage"
)

// PopulationService вычисляет учет населения поселения: занятое постройками
// и юнитами, зарезервированное незавершенными работами и свободное
type PopulationService struct {
	repo      *storage.Repository
	defs      *statics.Definitions
	modifiers *ModifierService
	clock     Clock
	logger    *zap.Logger
}

// NewPopulationService создает новый экземпляр PopulationService
func NewPopulationService(repo *storage.Repository, defs *statics.Definitions, modifiers *ModifierService, clock Clock, logger *zap.Logger) *PopulationService {
	return &PopulationService{
		repo:      repo,
		defs:      defs,
		modifiers: modifiers,
		clock:     clock,
		logger:    logger,
	}
}

// PopulationAccount представляет разложение населения поселения
type PopulationAccount struct {
	Max       int
	Used      int
	Reserved  int
	Available int
}

// Account вычисляет учет населения поселения. Свободное население не
// опускается ниже нуля даже при переполнении (например, после сноса жилья)
func (s *PopulationService) Account(ctx context.Context, settlement *models.Settlement, mods []models.Modifier) (*PopulationAccount, error) {
	maxPop := s.modifiers.MaxPopulation(settlement, mods)
	used := s.usedPopulation(settlement)

	reserved, err := s.reservedPopulation(ctx, settlement)
	if err != nil {
		return nil, err
	}

	available := maxPop - used - reserved
	if available < 0 {
		available = 0
	}

	return &PopulationAccount{
		Max:       maxPop,
		Used:      used,
		Reserved:  reserved,
		Available: available,
	}, nil
}

// Snapshot возвращает проекцию населения для API
func (s *PopulationService) Snapshot(ctx context.Context, settlementID uuid.UUID) (*models.PopulationResponse, error) {
	now := s.clock.Now()

	settlement, err := s.repo.Settlement.GetSettlementByID(ctx, settlementID)
	if err != nil {
		if err == storage.ErrNotFound {
			return nil, newDomainError(ErrCodeNotFound, "settlement %s not found", settlementID)
		}
		return nil, fmt.Errorf("failed to load settlement: %w", err)
	}

	mods, err := s.modifiers.EffectiveModifiers(ctx, settlement, now)
	if err != nil {
		return nil, wrapDomainError(err, ErrCodeConfiguration, "failed to resolve settlement modifiers")
	}

	account, err := s.Account(ctx, settlement, mods)
	if err != nil {
		return nil, err
	}

	return &models.PopulationResponse{
		SettlementID: settlement.ID,
		Max:          account.Max,
		Used:         account.Used,
		Reserved:     account.Reserved,
		Available:    account.Available,
	}, nil
}

// usedPopulation суммирует население, занятое постройками и юнитами.
// Юниты в походах продолжают занимать население родного поселения
func (s *PopulationService) usedPopulation(settlement *models.Settlement) int {
	used := 0

	for i := range settlement.Buildings {
		building := &settlement.Buildings[i]
		if building.Level <= 0 {
			continue
		}
		level, err := s.defs.BuildingLevel(building.Type, building.Level)
		if err != nil {
			s.logger.Warn("Building level has no definition, population cost skipped",
				zap.String("buildingType", string(building.Type)),
				zap.Int("level", building.Level),
			)
			continue
		}
		used += level.PopulationCost
	}

	for _, stack := range settlement.Units {
		unit, err := s.defs.Unit(stack.UnitType)
		if err != nil {
			continue
		}
		used += unit.PopulationCost * stack.Quantity
	}

	for _, deployment := range settlement.Deployments {
		unit, err := s.defs.Unit(deployment.UnitType)
		if err != nil {
			continue
		}
		used += unit.PopulationCost * deployment.Quantity
	}

	return used
}

// reservedPopulation суммирует население, зарезервированное незавершенными
// работами: приростом населения при улучшении построек и недоставленными
// юнитами в найме
func (s *PopulationService) reservedPopulation(ctx context.Context, settlement *models.Settlement) (int, error) {
	jobs, err := s.repo.Job.GetPendingJobsForSettlement(ctx, settlement.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to load pending jobs: %w", err)
	}

	reserved := 0
	for i := range jobs {
		job := &jobs[i]
		switch job.Kind {
		case models.JobConstruction:
			target, err := s.defs.BuildingLevel(job.Construction.BuildingType, job.Construction.TargetLevel)
			if err != nil {
				continue
			}
			currentCost := 0
			if building := settlement.FindBuilding(job.Construction.BuildingID); building != nil && building.Level > 0 {
				if current, err := s.defs.BuildingLevel(building.Type, building.Level); err == nil {
					currentCost = current.PopulationCost
				}
			}
			delta := target.PopulationCost - currentCost
			if delta > 0 {
				reserved += delta
			}
		case models.JobRecruitment:
			unit, err := s.defs.Unit(job.Recruitment.UnitType)
			if err != nil {
				continue
			}
			reserved += unit.PopulationCost * job.Recruitment.RemainingQuantity()
		}
	}

	return reserved, nil
}
