package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoktorJohn/RelicWars-sub001/internal/models"
	"github.com/DoktorJohn/RelicWars-sub001/internal/storage"
)

// ResourceService реализует ленивое начисление ресурсов: запасы
// пересчитываются от отметки последнего обновления в момент чтения или
// списания, без периодических фоновых начислений
type ResourceService struct {
	repo      *storage.Repository
	modifiers *ModifierService
	clock     Clock
	logger    *zap.Logger
}

// NewResourceService создает новый экземпляр ResourceService
func NewResourceService(repo *storage.Repository, modifiers *ModifierService, clock Clock, logger *zap.Logger) *ResourceService {
	return &ResourceService{
		repo:      repo,
		modifiers: modifiers,
		clock:     clock,
		logger:    logger,
	}
}

// AccrueStock вычисляет текущие запасы поселения в памяти, не записывая их
// в базу. Запасы растут линейно от отметки последнего пересчета и
// ограничиваются вместимостью склада. Начисление не уменьшает уже
// накопленные запасы, даже если они превышают текущую вместимость
func (s *ResourceService) AccrueStock(settlement *models.Settlement, mods []models.Modifier, now time.Time) {
	elapsed := now.Sub(settlement.LastResourceUpdate).Hours()
	if elapsed < 0 {
		elapsed = 0
	}

	capacity := s.modifiers.WarehouseCapacity(settlement, mods)
	for _, kind := range models.ResourceKinds {
		stored := settlement.Stock.Get(kind)
		rate := s.modifiers.ProductionRate(settlement, kind, mods)

		current := stored + rate*elapsed
		if current > capacity {
			current = capacity
		}
		if current < stored {
			current = stored
		}
		settlement.Stock.Set(kind, current)
	}

	settlement.LastResourceUpdate = now
}

// Snapshot возвращает проекцию текущих запасов поселения без записи в базу
func (s *ResourceService) Snapshot(ctx context.Context, settlementID uuid.UUID) (*models.ResourceSnapshotResponse, error) {
	now := s.clock.Now()

	settlement, err := s.getSettlement(ctx, settlementID)
	if err != nil {
		return nil, err
	}

	mods, err := s.modifiers.EffectiveModifiers(ctx, settlement, now)
	if err != nil {
		return nil, wrapDomainError(err, ErrCodeConfiguration, "failed to resolve settlement modifiers")
	}

	s.AccrueStock(settlement, mods, now)

	return &models.ResourceSnapshotResponse{
		SettlementID: settlement.ID,
		Stock:        settlement.Stock,
		Capacity:     s.modifiers.WarehouseCapacity(settlement, mods),
		RatesPerHour: s.modifiers.ProductionRates(settlement, mods),
		AsOf:         now,
	}, nil
}

// Materialize пересчитывает запасы поселения и сохраняет их с оптимистичной
// проверкой версии. При конкурентном изменении делается один повтор с
// перечитыванием состояния
func (s *ResourceService) Materialize(ctx context.Context, settlementID uuid.UUID) (*models.Settlement, error) {
	return s.materializeAndSpend(ctx, settlementID, models.Resources{})
}

// SpendResources пересчитывает запасы и атомарно списывает стоимость.
// Возвращает доменную ошибку insufficient_resources, если запасов не хватает
func (s *ResourceService) SpendResources(ctx context.Context, settlementID uuid.UUID, cost models.Resources) (*models.Settlement, error) {
	return s.materializeAndSpend(ctx, settlementID, cost)
}

// RefundResources пересчитывает запасы и возвращает стоимость на склад.
// Возврат подчиняется вместимости склада: излишки сверх нее сгорают
func (s *ResourceService) RefundResources(ctx context.Context, settlementID uuid.UUID, refund models.Resources) (*models.Settlement, error) {
	for attempt := 0; attempt < 2; attempt++ {
		now := s.clock.Now()

		settlement, err := s.getSettlement(ctx, settlementID)
		if err != nil {
			return nil, err
		}

		mods, err := s.modifiers.EffectiveModifiers(ctx, settlement, now)
		if err != nil {
			return nil, wrapDomainError(err, ErrCodeConfiguration, "failed to resolve settlement modifiers")
		}

		s.AccrueStock(settlement, mods, now)
		settlement.Stock.Add(refund)

		capacity := s.modifiers.WarehouseCapacity(settlement, mods)
		for _, kind := range models.ResourceKinds {
			if settlement.Stock.Get(kind) > capacity {
				settlement.Stock.Set(kind, capacity)
			}
		}

		err = s.repo.Settlement.UpdateSettlementState(ctx, settlement)
		if err == nil {
			return settlement, nil
		}
		if !errors.Is(err, storage.ErrVersionConflict) {
			return nil, fmt.Errorf("failed to persist settlement state: %w", err)
		}

		s.logger.Warn("Settlement version conflict during refund, retrying",
			zap.String("settlementID", settlementID.String()),
			zap.Int("attempt", attempt+1),
		)
	}

	return nil, ErrConcurrentModification
}

func (s *ResourceService) materializeAndSpend(ctx context.Context, settlementID uuid.UUID, cost models.Resources) (*models.Settlement, error) {
	for attempt := 0; attempt < 2; attempt++ {
		now := s.clock.Now()

		settlement, err := s.getSettlement(ctx, settlementID)
		if err != nil {
			return nil, err
		}

		mods, err := s.modifiers.EffectiveModifiers(ctx, settlement, now)
		if err != nil {
			return nil, wrapDomainError(err, ErrCodeConfiguration, "failed to resolve settlement modifiers")
		}

		s.AccrueStock(settlement, mods, now)

		if !settlement.Stock.CanAfford(cost) {
			return nil, newDomainError(ErrCodeInsufficientResources,
				"not enough resources: need %.0f wood, %.0f stone, %.0f metal",
				cost.Wood, cost.Stone, cost.Metal)
		}
		settlement.Stock.Sub(cost)

		err = s.repo.Settlement.UpdateSettlementState(ctx, settlement)
		if err == nil {
			return settlement, nil
		}
		if !errors.Is(err, storage.ErrVersionConflict) {
			return nil, fmt.Errorf("failed to persist settlement state: %w", err)
		}

		s.logger.Warn("Settlement version conflict, retrying",
			zap.String("settlementID", settlementID.String()),
			zap.Int("attempt", attempt+1),
		)
	}

	return nil, ErrConcurrentModification
}

func (s *ResourceService) getSettlement(ctx context.Context, settlementID uuid.UUID) (*models.Settlement, error) {
	settlement, err := s.repo.Settlement.GetSettlementByID(ctx, settlementID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, newDomainError(ErrCodeNotFound, "settlement %s not found", settlementID)
		}
		return nil, fmt.Errorf("failed to load settlement: %w", err)
	}
	return settlement, nil
}
