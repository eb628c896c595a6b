package service

import (
	"go.uber.org/zap"

	"github.com/DoktorJohn/RelicWars-sub001/internal/statics"
	"github.com/DoktorJohn/RelicWars-sub001/internal/storage"
)

// ServiceDependencies содержит зависимости для создания сервисов
type ServiceDependencies struct {
	Repository  *storage.Repository
	Definitions *statics.Definitions
	Clock       Clock
	TickMetrics TickMetrics
	Logger      *zap.Logger
	TickConfig  TickConfig
}

// Service объединяет все сервисы
type Service struct {
	Settlement *SettlementService
	Modifier   *ModifierService
	Resource   *ResourceService
	Population *PopulationService
	Job        *JobService
	Tick       *TickService
}

// NewService создает новый экземпляр Service со всеми сервисами
func NewService(deps *ServiceDependencies) *Service {
	clock := deps.Clock
	if clock == nil {
		clock = NewSystemClock()
	}

	modifier := NewModifierService(deps.Repository, deps.Definitions, deps.Logger)
	resource := NewResourceService(deps.Repository, modifier, clock, deps.Logger)
	population := NewPopulationService(deps.Repository, deps.Definitions, modifier, clock, deps.Logger)
	job := NewJobService(deps.Repository, deps.Definitions, modifier, resource, population, clock, deps.Logger)
	tick := NewTickService(deps.Repository, deps.Definitions, resource, clock, deps.TickMetrics, deps.Logger, deps.TickConfig)
	settlement := NewSettlementService(deps.Repository, deps.Definitions, clock, deps.Logger)

	return &Service{
		Settlement: settlement,
		Modifier:   modifier,
		Resource:   resource,
		Population: population,
		Job:        job,
		Tick:       tick,
	}
}
