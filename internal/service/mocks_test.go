package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoktorJohn/RelicWars-sub001/internal/models"
	"github.com/DoktorJohn/RelicWars-sub001/internal/statics"
	"github.com/DoktorJohn/RelicWars-sub001/internal/storage"
)

// fixedClock - детерминированные часы для тестов
type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	return c.now
}

// MockSettlementRepository - мок для storage.SettlementRepository
type MockSettlementRepository struct {
	mock.Mock
}

func (m *MockSettlementRepository) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	args := m.Called(ctx, settlement)
	return args.Error(0)
}

func (m *MockSettlementRepository) GetSettlementByID(ctx context.Context, settlementID uuid.UUID) (*models.Settlement, error) {
	args := m.Called(ctx, settlementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) GetPlayerSettlements(ctx context.Context, playerID uuid.UUID) ([]models.Settlement, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Settlement), args.Error(1)
}

func (m *MockSettlementRepository) UpdateSettlementState(ctx context.Context, settlement *models.Settlement) error {
	args := m.Called(ctx, settlement)
	return args.Error(0)
}

func (m *MockSettlementRepository) UpgradeBuilding(ctx context.Context, buildingID uuid.UUID, startedAt, finishedAt time.Time) error {
	args := m.Called(ctx, buildingID, startedAt, finishedAt)
	return args.Error(0)
}

func (m *MockSettlementRepository) CompleteBuildingUpgrade(ctx context.Context, buildingID uuid.UUID, newLevel int) error {
	args := m.Called(ctx, buildingID, newLevel)
	return args.Error(0)
}

func (m *MockSettlementRepository) AddUnits(ctx context.Context, settlementID uuid.UUID, unitType models.UnitType, quantity int) error {
	args := m.Called(ctx, settlementID, unitType, quantity)
	return args.Error(0)
}

func (m *MockSettlementRepository) GetWorldModifiers(ctx context.Context, now time.Time) (*models.World, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.World), args.Error(1)
}

// MockJobRepository - мок для storage.JobRepository
type MockJobRepository struct {
	mock.Mock
}

func (m *MockJobRepository) CreateJob(ctx context.Context, job *models.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockJobRepository) GetJobByID(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Job), args.Error(1)
}

func (m *MockJobRepository) GetDueJobs(ctx context.Context, now time.Time, limit int) ([]models.Job, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Job), args.Error(1)
}

func (m *MockJobRepository) GetPendingJobsForSettlement(ctx context.Context, settlementID uuid.UUID) ([]models.Job, error) {
	args := m.Called(ctx, settlementID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Job), args.Error(1)
}

func (m *MockJobRepository) GetPendingJobsForPlayer(ctx context.Context, playerID uuid.UUID) ([]models.Job, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Job), args.Error(1)
}

func (m *MockJobRepository) CompleteJob(ctx context.Context, jobID uuid.UUID) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}

func (m *MockJobRepository) DeleteJob(ctx context.Context, jobID uuid.UUID) error {
	args := m.Called(ctx, jobID)
	return args.Error(0)
}

func (m *MockJobRepository) UpdateRecruitmentProgress(ctx context.Context, jobID uuid.UUID, delivered int, lastTickAt, executeAt time.Time) error {
	args := m.Called(ctx, jobID, delivered, lastTickAt, executeAt)
	return args.Error(0)
}

// MockResearchRepository - мок для storage.ResearchRepository
type MockResearchRepository struct {
	mock.Mock
}

func (m *MockResearchRepository) GetCompletedResearch(ctx context.Context, playerID uuid.UUID) ([]string, error) {
	args := m.Called(ctx, playerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockResearchRepository) MarkResearchCompleted(ctx context.Context, playerID uuid.UUID, researchID string, completedAt time.Time) error {
	args := m.Called(ctx, playerID, researchID, completedAt)
	return args.Error(0)
}

func (m *MockResearchRepository) HasCompletedResearch(ctx context.Context, playerID uuid.UUID, researchID string) (bool, error) {
	args := m.Called(ctx, playerID, researchID)
	return args.Bool(0), args.Error(1)
}

// MockTickMetrics - мок для TickMetrics
type MockTickMetrics struct {
	mock.Mock
}

func (m *MockTickMetrics) IncJobProcessed(kind string, result string) {
	m.Called(kind, result)
}

func (m *MockTickMetrics) ObserveTickDuration(duration time.Duration) {
	m.Called(duration)
}

func (m *MockTickMetrics) SetQueueDepth(depth int) {
	m.Called(depth)
}

// noopTickMetrics - метрики-заглушка для тестов, где они не проверяются
type noopTickMetrics struct{}

func (noopTickMetrics) IncJobProcessed(kind string, result string) {}
func (noopTickMetrics) ObserveTickDuration(duration time.Duration) {}
func (noopTickMetrics) SetQueueDepth(depth int)                    {}

// testEnv собирает сервисный слой на моках репозиториев и реальных
// определениях из definitions/
type testEnv struct {
	settlementRepo *MockSettlementRepository
	jobRepo        *MockJobRepository
	researchRepo   *MockResearchRepository
	repo           *storage.Repository
	defs           *statics.Definitions
	clock          *fixedClock
	svc            *Service
}

func newTestEnv(t *testing.T, now time.Time) *testEnv {
	t.Helper()

	defs, err := statics.Load("../../definitions")
	require.NoError(t, err)

	settlementRepo := &MockSettlementRepository{}
	jobRepo := &MockJobRepository{}
	researchRepo := &MockResearchRepository{}

	repo := &storage.Repository{
		Settlement: settlementRepo,
		Job:        jobRepo,
		Research:   researchRepo,
	}

	clock := &fixedClock{now: now}

	svc := NewService(&ServiceDependencies{
		Repository:  repo,
		Definitions: defs,
		Clock:       clock,
		TickMetrics: noopTickMetrics{},
		Logger:      zap.NewNop(),
		TickConfig:  GetDefaultTickConfig(),
	})

	return &testEnv{
		settlementRepo: settlementRepo,
		jobRepo:        jobRepo,
		researchRepo:   researchRepo,
		repo:           repo,
		defs:           defs,
		clock:          clock,
		svc:            svc,
	}
}

// expectNoWorldModifiers настраивает пустые глобальные эффекты мира
func (e *testEnv) expectNoWorldModifiers() {
	e.settlementRepo.On("GetWorldModifiers", mock.Anything, mock.Anything).Return(&models.World{}, nil)
}
