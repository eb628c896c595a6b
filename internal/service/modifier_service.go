package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/DoktorJohn/RelicWars-sub001/internal/models"
	"github.com/DoktorJohn/RelicWars-sub001/internal/statics"
	"github.com/DoktorJohn/RelicWars-sub001/internal/storage"
)

// Базовые значения поселения без построек
const (
	baseWarehouseCapacity = 800.0
	basePopulation        = 20.0
)

// ModifierService собирает действующие модификаторы поселения из всех
// источников и вычисляет производные характеристики
type ModifierService struct {
	repo     *storage.Repository
	defs     *statics.Definitions
	resolver *ModifierResolver
	logger   *zap.Logger
}

// NewModifierService создает новый экземпляр ModifierService
func NewModifierService(repo *storage.Repository, defs *statics.Definitions, logger *zap.Logger) *ModifierService {
	return &ModifierService{
		repo:     repo,
		defs:     defs,
		resolver: NewModifierResolver(),
		logger:   logger,
	}
}

// modifierSources собирает источники модификаторов поселения в фиксированном
// порядке: само поселение, бонусы уровней построек, изученные исследования
// игрока, активные фокусы идеологии и глобальные эффекты мира. Фильтр
// buildingFilter задает, постройки каких типов участвуют: потребители с
// узкой политикой сбора (например найм) ограничиваются одной постройкой
func (s *ModifierService) modifierSources(ctx context.Context, settlement *models.Settlement, now time.Time, buildingFilter func(models.BuildingType) bool) ([]models.ModifierProvider, error) {
	providers := []models.ModifierProvider{settlement}

	for i := range settlement.Buildings {
		building := &settlement.Buildings[i]
		if building.Level <= 0 || !buildingFilter(building.Type) {
			continue
		}
		level, err := s.defs.BuildingLevel(building.Type, building.Level)
		if err != nil {
			s.logger.Warn("Building level has no definition, skipping its modifiers",
				zap.String("settlementID", settlement.ID.String()),
				zap.String("buildingType", string(building.Type)),
				zap.Int("level", building.Level),
			)
			continue
		}
		providers = append(providers, level)
	}

	if settlement.PlayerID != nil {
		completed, err := s.repo.Research.GetCompletedResearch(ctx, *settlement.PlayerID)
		if err != nil {
			return nil, fmt.Errorf("failed to load completed research: %w", err)
		}
		for _, researchID := range completed {
			research, err := s.defs.Research(researchID)
			if err != nil {
				s.logger.Warn("Completed research has no definition, skipping",
					zap.String("researchID", researchID),
				)
				continue
			}
			providers = append(providers, research)
		}
	}

	for _, focusName := range settlement.ActiveFoci {
		focus, err := s.defs.IdeologyFocus(focusName)
		if err != nil {
			s.logger.Warn("Active focus has no definition, skipping",
				zap.String("focus", focusName),
			)
			continue
		}
		providers = append(providers, focus)
	}

	world, err := s.repo.Settlement.GetWorldModifiers(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to load world modifiers: %w", err)
	}
	providers = append(providers, world)

	return providers, nil
}

func allBuildings(models.BuildingType) bool { return true }

// EffectiveModifiers возвращает полный набор модификаторов, действующих на
// поселение. Широкая политика сбора: участвуют все постройки. Используется
// потребителями, считающими характеристики поселения целиком (добыча,
// вместимость, население, стройка, исследования)
func (s *ModifierService) EffectiveModifiers(ctx context.Context, settlement *models.Settlement, now time.Time) ([]models.Modifier, error) {
	providers, err := s.modifierSources(ctx, settlement, now, allBuildings)
	if err != nil {
		return nil, err
	}

	var mods []models.Modifier
	for _, p := range providers {
		mods = append(mods, p.Modifiers()...)
	}
	return mods, nil
}

// RecruitmentModifiers собирает модификаторы скорости найма юнита. Узкая
// политика сбора: из построек участвует только та, что ведет найм этого
// юнита. Бонус казарм не ускоряет найм в конюшне или мастерской
func (s *ModifierService) RecruitmentModifiers(ctx context.Context, settlement *models.Settlement, unit *statics.UnitData, now time.Time) ([]models.Modifier, error) {
	providers, err := s.modifierSources(ctx, settlement, now, func(t models.BuildingType) bool {
		return t == unit.RequiredBuilding
	})
	if err != nil {
		return nil, err
	}

	tags := []models.ModifierTag{models.TagRecruitmentSpeed, unit.Category}
	return CollectModifiers(tags, providers...), nil
}

// ProductionRate вычисляет часовую скорость добычи ресурса поселением.
// Суммируется выработка всех построек, производящих этот ресурс, каждая с
// учетом модификаторов. Постройка в процессе улучшения продолжает
// производить на текущем уровне
func (s *ModifierService) ProductionRate(settlement *models.Settlement, kind models.ResourceKind, mods []models.Modifier) float64 {
	tags := []models.ModifierTag{kind.Tag(), models.TagResourceProduction}

	total := 0.0
	for i := range settlement.Buildings {
		building := &settlement.Buildings[i]
		produced, ok := building.Type.ProducedResource()
		if !ok || produced != kind || building.Level <= 0 {
			continue
		}
		level, err := s.defs.BuildingLevel(building.Type, building.Level)
		if err != nil {
			continue
		}
		total += s.resolver.Apply(level.ProductionPerHour, tags, mods)
	}
	return total
}

// ProductionRates вычисляет часовые скорости добычи всех ресурсов
func (s *ModifierService) ProductionRates(settlement *models.Settlement, mods []models.Modifier) models.Resources {
	var rates models.Resources
	for _, kind := range models.ResourceKinds {
		rates.Set(kind, s.ProductionRate(settlement, kind, mods))
	}
	return rates
}

// WarehouseCapacity вычисляет вместимость складов поселения
func (s *ModifierService) WarehouseCapacity(settlement *models.Settlement, mods []models.Modifier) float64 {
	capacity := baseWarehouseCapacity
	for i := range settlement.Buildings {
		building := &settlement.Buildings[i]
		if building.Type != models.BuildingWarehouse || building.Level <= 0 {
			continue
		}
		level, err := s.defs.BuildingLevel(building.Type, building.Level)
		if err != nil {
			continue
		}
		capacity += level.WarehouseCapacity
	}
	return s.resolver.Apply(capacity, []models.ModifierTag{models.TagWarehouseCapacity}, mods)
}

// MaxPopulation вычисляет предельное население поселения
func (s *ModifierService) MaxPopulation(settlement *models.Settlement, mods []models.Modifier) int {
	housing := basePopulation
	for i := range settlement.Buildings {
		building := &settlement.Buildings[i]
		if building.Type != models.BuildingDwelling || building.Level <= 0 {
			continue
		}
		level, err := s.defs.BuildingLevel(building.Type, building.Level)
		if err != nil {
			continue
		}
		housing += level.HousingCapacity
	}
	return int(math.Floor(s.resolver.Apply(housing, []models.ModifierTag{models.TagPopulation}, mods)))
}

// ConstructionDuration вычисляет длительность улучшения постройки
func (s *ModifierService) ConstructionDuration(baseSeconds float64, mods []models.Modifier) time.Duration {
	base := time.Duration(baseSeconds * float64(time.Second))
	return s.resolver.ModifiedDuration(base, []models.ModifierTag{models.TagConstructionSpeed}, mods)
}

// ResearchDuration вычисляет длительность исследования
func (s *ModifierService) ResearchDuration(baseSeconds float64, mods []models.Modifier) time.Duration {
	base := time.Duration(baseSeconds * float64(time.Second))
	return s.resolver.ModifiedDuration(base, []models.ModifierTag{models.TagResearchSpeed}, mods)
}

// RecruitmentSecondsPerUnit вычисляет время найма одного юнита с учетом
// скоростных бонусов. Категория юнита (пехота, кавалерия, осадные) участвует
// в подборе модификаторов. Время на юнита не опускается ниже одной секунды
func (s *ModifierService) RecruitmentSecondsPerUnit(unit *statics.UnitData, mods []models.Modifier) float64 {
	tags := []models.ModifierTag{models.TagRecruitmentSpeed, unit.Category}
	perUnit := time.Duration(unit.SecondsPerUnit * float64(time.Second))
	return s.resolver.ModifiedDuration(perUnit, tags, mods).Seconds()
}
