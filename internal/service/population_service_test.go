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
)

func TestPopulationService_Snapshot(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("buildings units and reservations are accounted", func(t *testing.T) {
		env := newTestEnv(t, now)

		settlementID := uuid.New()
		playerID := uuid.New()
		settlement := &models.Settlement{
			ID:       settlementID,
			PlayerID: &playerID,
			Buildings: []models.Building{
				// dwelling 1: +10 жилья, 0 населения
				{ID: uuid.New(), SettlementID: settlementID, Type: models.BuildingDwelling, Level: 1},
				// barracks 1: 2 населения
				{ID: uuid.New(), SettlementID: settlementID, Type: models.BuildingBarracks, Level: 1},
				// timber_camp 1: 1 населения
				{ID: uuid.New(), SettlementID: settlementID, Type: models.BuildingTimberCamp, Level: 1},
			},
			Units: []models.UnitStack{
				// spearman: 1 населения за юнита
				{SettlementID: settlementID, UnitType: models.UnitType("spearman"), Quantity: 5},
			},
			LastResourceUpdate: now,
		}

		pendingJobs := []models.Job{
			{
				ID:       uuid.New(),
				PlayerID: playerID,
				Kind:     models.JobRecruitment,
				Recruitment: &models.RecruitmentJob{
					SettlementID:      settlementID,
					UnitType:          models.UnitType("spearman"),
					TotalQuantity:     10,
					DeliveredQuantity: 4,
					SecondsPerUnit:    25,
					LastTickAt:        now,
				},
			},
		}

		env.settlementRepo.On("GetSettlementByID", mock.Anything, settlementID).Return(settlement, nil)
		env.jobRepo.On("GetPendingJobsForSettlement", mock.Anything, settlementID).Return(pendingJobs, nil)
		env.researchRepo.On("GetCompletedResearch", mock.Anything, playerID).Return([]string{}, nil)
		env.expectNoWorldModifiers()

		snapshot, err := env.svc.Population.Snapshot(context.Background(), settlementID)
		require.NoError(t, err)

		// База 20 + жилье 10
		assert.Equal(t, 30, snapshot.Max)
		// Постройки 2+1, юниты 5
		assert.Equal(t, 8, snapshot.Used)
		// 6 недоставленных копейщиков
		assert.Equal(t, 6, snapshot.Reserved)
		assert.Equal(t, 16, snapshot.Available)
	})

	t.Run("available is clamped at zero", func(t *testing.T) {
		env := newTestEnv(t, now)

		settlementID := uuid.New()
		settlement := &models.Settlement{
			ID: settlementID,
			Units: []models.UnitStack{
				// Население переполнено, например после сноса жилья
				{SettlementID: settlementID, UnitType: models.UnitType("spearman"), Quantity: 50},
			},
			LastResourceUpdate: now,
		}

		env.settlementRepo.On("GetSettlementByID", mock.Anything, settlementID).Return(settlement, nil)
		env.jobRepo.On("GetPendingJobsForSettlement", mock.Anything, settlementID).Return([]models.Job{}, nil)
		env.expectNoWorldModifiers()

		snapshot, err := env.svc.Population.Snapshot(context.Background(), settlementID)
		require.NoError(t, err)

		assert.Equal(t, 20, snapshot.Max)
		assert.Equal(t, 50, snapshot.Used)
		assert.Equal(t, 0, snapshot.Available)
	})

	t.Run("population modifiers raise the cap", func(t *testing.T) {
		env := newTestEnv(t, now)

		settlementID := uuid.New()
		settlement := &models.Settlement{
			ID: settlementID,
			Mods: models.ModifierList{
				{Tag: models.TagPopulation, Type: models.ModifierAdditive, Value: 10, Source: "test"},
			},
			LastResourceUpdate: now,
		}

		env.settlementRepo.On("GetSettlementByID", mock.Anything, settlementID).Return(settlement, nil)
		env.jobRepo.On("GetPendingJobsForSettlement", mock.Anything, settlementID).Return([]models.Job{}, nil)
		env.expectNoWorldModifiers()

		snapshot, err := env.svc.Population.Snapshot(context.Background(), settlementID)
		require.NoError(t, err)

		assert.Equal(t, 30, snapshot.Max)
		assert.Equal(t, 30, snapshot.Available)
	})

	t.Run("deployed units keep occupying population", func(t *testing.T) {
		env := newTestEnv(t, now)

		settlementID := uuid.New()
		settlement := &models.Settlement{
			ID: settlementID,
			Deployments: []models.UnitDeployment{
				{
					ID:                 uuid.New(),
					OriginSettlementID: settlementID,
					UnitType:           models.UnitType("lancer"), // 3 населения
					Quantity:           4,
					Status:             models.DeploymentMoving,
					ArrivesAt:          now.Add(time.Hour),
				},
			},
			LastResourceUpdate: now,
		}

		env.settlementRepo.On("GetSettlementByID", mock.Anything, settlementID).Return(settlement, nil)
		env.jobRepo.On("GetPendingJobsForSettlement", mock.Anything, settlementID).Return([]models.Job{}, nil)
		env.expectNoWorldModifiers()

		snapshot, err := env.svc.Population.Snapshot(context.Background(), settlementID)
		require.NoError(t, err)

		assert.Equal(t, 12, snapshot.Used)
		assert.Equal(t, 8, snapshot.Available)
	})
}

func TestPopulationService_ConstructionReservation(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	env := newTestEnv(t, now)

	settlementID := uuid.New()
	buildingID := uuid.New()
	settlement := &models.Settlement{
		ID: settlementID,
		Buildings: []models.Building{
			// timber_camp 2 -> 3: прирост населения 2 - 1 = 1
			{ID: buildingID, SettlementID: settlementID, Type: models.BuildingTimberCamp, Level: 2},
		},
		LastResourceUpdate: now,
	}

	pendingJobs := []models.Job{
		{
			ID:   uuid.New(),
			Kind: models.JobConstruction,
			Construction: &models.ConstructionJob{
				SettlementID: settlementID,
				BuildingID:   buildingID,
				BuildingType: models.BuildingTimberCamp,
				TargetLevel:  3,
			},
		},
	}

	env.settlementRepo.On("GetSettlementByID", mock.Anything, settlementID).Return(settlement, nil)
	env.jobRepo.On("GetPendingJobsForSettlement", mock.Anything, settlementID).Return(pendingJobs, nil)
	env.expectNoWorldModifiers()

	snapshot, err := env.svc.Population.Snapshot(context.Background(), settlementID)
	require.NoError(t, err)

	assert.Equal(t, 1, snapshot.Used)
	assert.Equal(t, 1, snapshot.Reserved)
	assert.Equal(t, 18, snapshot.Available)
}
