package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/DoktorJohn/RelicWars-sub001/internal/models"
	"github.com/DoktorJohn/RelicWars-sub001/internal/storage"
)

// timberCampSettlement строит поселение с лесопилкой 1 уровня (30 дерева в
// час) и складом 1 уровня (вместимость 800 + 1000)
func timberCampSettlement(now time.Time, lastUpdate time.Time) *models.Settlement {
	settlementID := uuid.New()
	return &models.Settlement{
		ID:                 settlementID,
		Name:               "Лесной лагерь",
		Stock:              models.Resources{Wood: 100},
		LastResourceUpdate: lastUpdate,
		Version:            1,
		Buildings: []models.Building{
			{ID: uuid.New(), SettlementID: settlementID, Type: models.BuildingTimberCamp, Level: 1},
			{ID: uuid.New(), SettlementID: settlementID, Type: models.BuildingWarehouse, Level: 1},
		},
	}
}

func TestResourceService_AccrueStock(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("linear accrual from last update", func(t *testing.T) {
		env := newTestEnv(t, now)
		settlement := timberCampSettlement(now, now.Add(-3*time.Hour))

		env.svc.Resource.AccrueStock(settlement, nil, now)

		// 100 + 30/час * 3 часа
		assert.InDelta(t, 190.0, settlement.Stock.Wood, 1e-9)
		assert.Equal(t, now, settlement.LastResourceUpdate)
	})

	t.Run("accrual stops at warehouse capacity", func(t *testing.T) {
		env := newTestEnv(t, now)
		settlement := timberCampSettlement(now, now.Add(-100*time.Hour))

		env.svc.Resource.AccrueStock(settlement, nil, now)

		// 100 + 3000 упирается в вместимость 800 + 1000
		assert.InDelta(t, 1800.0, settlement.Stock.Wood, 1e-9)
	})

	t.Run("clock going backwards accrues nothing", func(t *testing.T) {
		env := newTestEnv(t, now)
		settlement := timberCampSettlement(now, now.Add(time.Hour))

		env.svc.Resource.AccrueStock(settlement, nil, now)

		assert.InDelta(t, 100.0, settlement.Stock.Wood, 1e-9)
		assert.Equal(t, now, settlement.LastResourceUpdate)
	})

	t.Run("stock above capacity is preserved", func(t *testing.T) {
		env := newTestEnv(t, now)
		settlement := timberCampSettlement(now, now.Add(-time.Hour))
		settlement.Stock.Wood = 5000

		env.svc.Resource.AccrueStock(settlement, nil, now)

		assert.InDelta(t, 5000.0, settlement.Stock.Wood, 1e-9)
	})

	t.Run("production modifiers scale the rate", func(t *testing.T) {
		env := newTestEnv(t, now)
		settlement := timberCampSettlement(now, now.Add(-2*time.Hour))

		mods := []models.Modifier{
			{Tag: models.TagWood, Type: models.ModifierIncreased, Value: 0.5},
		}
		env.svc.Resource.AccrueStock(settlement, mods, now)

		// 100 + 30 * 1.5 * 2
		assert.InDelta(t, 190.0, settlement.Stock.Wood, 1e-9)
	})

	t.Run("non-producing settlement keeps stock unchanged", func(t *testing.T) {
		env := newTestEnv(t, now)
		settlement := &models.Settlement{
			ID:                 uuid.New(),
			Stock:              models.Resources{Wood: 42},
			LastResourceUpdate: now.Add(-10 * time.Hour),
		}

		env.svc.Resource.AccrueStock(settlement, nil, now)

		assert.InDelta(t, 42.0, settlement.Stock.Wood, 1e-9)
	})
}

func TestResourceService_Snapshot(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	env := newTestEnv(t, now)
	settlement := timberCampSettlement(now, now.Add(-time.Hour))

	env.settlementRepo.On("GetSettlementByID", mock.Anything, settlement.ID).Return(settlement, nil)
	env.expectNoWorldModifiers()

	snapshot, err := env.svc.Resource.Snapshot(context.Background(), settlement.ID)
	require.NoError(t, err)

	assert.Equal(t, settlement.ID, snapshot.SettlementID)
	assert.InDelta(t, 130.0, snapshot.Stock.Wood, 1e-9)
	assert.InDelta(t, 1800.0, snapshot.Capacity, 1e-9)
	assert.InDelta(t, 30.0, snapshot.RatesPerHour.Wood, 1e-9)
	assert.Zero(t, snapshot.RatesPerHour.Stone)
	assert.Equal(t, now, snapshot.AsOf)

	// Проекция не записывает состояние в базу
	env.settlementRepo.AssertNotCalled(t, "UpdateSettlementState", mock.Anything, mock.Anything)
}

func TestResourceService_SpendResources(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("spend after accrual", func(t *testing.T) {
		env := newTestEnv(t, now)
		settlement := timberCampSettlement(now, now.Add(-time.Hour))

		env.settlementRepo.On("GetSettlementByID", mock.Anything, settlement.ID).Return(settlement, nil)
		env.settlementRepo.On("UpdateSettlementState", mock.Anything, settlement).Return(nil)
		env.expectNoWorldModifiers()

		updated, err := env.svc.Resource.SpendResources(context.Background(), settlement.ID, models.Resources{Wood: 120})
		require.NoError(t, err)

		// 100 + 30 начислено, 120 списано
		assert.InDelta(t, 10.0, updated.Stock.Wood, 1e-9)
	})

	t.Run("insufficient resources", func(t *testing.T) {
		env := newTestEnv(t, now)
		settlement := timberCampSettlement(now, now.Add(-time.Hour))

		env.settlementRepo.On("GetSettlementByID", mock.Anything, settlement.ID).Return(settlement, nil)
		env.expectNoWorldModifiers()

		_, err := env.svc.Resource.SpendResources(context.Background(), settlement.ID, models.Resources{Wood: 10000})
		require.Error(t, err)

		domainErr, ok := AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, ErrCodeInsufficientResources, domainErr.Code)
		env.settlementRepo.AssertNotCalled(t, "UpdateSettlementState", mock.Anything, mock.Anything)
	})

	t.Run("version conflict is retried once", func(t *testing.T) {
		env := newTestEnv(t, now)
		settlement := timberCampSettlement(now, now.Add(-time.Hour))

		env.settlementRepo.On("GetSettlementByID", mock.Anything, settlement.ID).Return(settlement, nil)
		env.settlementRepo.On("UpdateSettlementState", mock.Anything, mock.Anything).Return(storage.ErrVersionConflict).Once()
		env.settlementRepo.On("UpdateSettlementState", mock.Anything, mock.Anything).Return(nil).Once()
		env.expectNoWorldModifiers()

		_, err := env.svc.Resource.SpendResources(context.Background(), settlement.ID, models.Resources{Wood: 50})
		assert.NoError(t, err)
		env.settlementRepo.AssertExpectations(t)
	})

	t.Run("persistent conflict surfaces as concurrency error", func(t *testing.T) {
		env := newTestEnv(t, now)
		settlement := timberCampSettlement(now, now.Add(-time.Hour))

		env.settlementRepo.On("GetSettlementByID", mock.Anything, settlement.ID).Return(settlement, nil)
		env.settlementRepo.On("UpdateSettlementState", mock.Anything, mock.Anything).Return(storage.ErrVersionConflict)
		env.expectNoWorldModifiers()

		_, err := env.svc.Resource.SpendResources(context.Background(), settlement.ID, models.Resources{Wood: 50})
		require.Error(t, err)

		domainErr, ok := AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, ErrCodeConflict, domainErr.Code)
	})

	t.Run("missing settlement", func(t *testing.T) {
		env := newTestEnv(t, now)
		settlementID := uuid.New()

		env.settlementRepo.On("GetSettlementByID", mock.Anything, settlementID).Return(nil, storage.ErrNotFound)

		_, err := env.svc.Resource.SpendResources(context.Background(), settlementID, models.Resources{Wood: 1})
		require.Error(t, err)

		domainErr, ok := AsDomainError(err)
		require.True(t, ok)
		assert.Equal(t, ErrCodeNotFound, domainErr.Code)
	})
}

func TestResourceService_RefundResources(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	env := newTestEnv(t, now)
	settlement := timberCampSettlement(now, now)
	settlement.Stock.Wood = 1750

	env.settlementRepo.On("GetSettlementByID", mock.Anything, settlement.ID).Return(settlement, nil)
	env.settlementRepo.On("UpdateSettlementState", mock.Anything, settlement).Return(nil)
	env.expectNoWorldModifiers()

	updated, err := env.svc.Resource.RefundResources(context.Background(), settlement.ID, models.Resources{Wood: 200})
	require.NoError(t, err)

	// Возврат упирается в вместимость склада
	assert.InDelta(t, 1800.0, updated.Stock.Wood, 1e-9)
}
