package storage

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/DoktorJohn/RelicWars-sub001/internal/models"
)

// MockDatabaseInterface - мок для DatabaseInterface
type MockDatabaseInterface struct {
	mock.Mock
}

func (m *MockDatabaseInterface) QueryRow(ctx context.Context, query string, args ...interface{}) Row {
	mockArgs := m.Called(ctx, query, args)
	return mockArgs.Get(0).(Row)
}

func (m *MockDatabaseInterface) Query(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	mockArgs := m.Called(ctx, query, args)
	return mockArgs.Get(0).(Rows), mockArgs.Error(1)
}

func (m *MockDatabaseInterface) Exec(ctx context.Context, query string, args ...interface{}) error {
	mockArgs := m.Called(ctx, query, args)
	return mockArgs.Error(0)
}

func (m *MockDatabaseInterface) BeginTx(ctx context.Context) (Tx, error) {
	mockArgs := m.Called(ctx)
	return mockArgs.Get(0).(Tx), mockArgs.Error(1)
}

func (m *MockDatabaseInterface) Health(ctx context.Context) error {
	mockArgs := m.Called(ctx)
	return mockArgs.Error(0)
}

// MockTx - мок для транзакции
type MockTx struct {
	mock.Mock
}

func (m *MockTx) QueryRow(ctx context.Context, query string, args ...interface{}) Row {
	mockArgs := m.Called(ctx, query, args)
	return mockArgs.Get(0).(Row)
}

func (m *MockTx) Query(ctx context.Context, query string, args ...interface{}) (Rows, error) {
	mockArgs := m.Called(ctx, query, args)
	return mockArgs.Get(0).(Rows), mockArgs.Error(1)
}

func (m *MockTx) Exec(ctx context.Context, query string, args ...interface{}) error {
	mockArgs := m.Called(ctx, query, args)
	return mockArgs.Error(0)
}

func (m *MockTx) Commit() error {
	mockArgs := m.Called()
	return mockArgs.Error(0)
}

func (m *MockTx) Rollback() error {
	mockArgs := m.Called()
	return mockArgs.Error(0)
}

// MockCacheInterface - мок для CacheInterface
type MockCacheInterface struct {
	mock.Mock
}

func (m *MockCacheInterface) Get(ctx context.Context, key string) (string, error) {
	mockArgs := m.Called(ctx, key)
	return mockArgs.String(0), mockArgs.Error(1)
}

func (m *MockCacheInterface) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	mockArgs := m.Called(ctx, key, value, ttl)
	return mockArgs.Error(0)
}

func (m *MockCacheInterface) Del(ctx context.Context, key string) error {
	mockArgs := m.Called(ctx, key)
	return mockArgs.Error(0)
}

func (m *MockCacheInterface) Health(ctx context.Context) error {
	mockArgs := m.Called(ctx)
	return mockArgs.Error(0)
}

// MockMetricsInterface - мок для MetricsInterface
type MockMetricsInterface struct {
	mock.Mock
}

func (m *MockMetricsInterface) IncDBQuery(operation string) {
	m.Called(operation)
}

func (m *MockMetricsInterface) IncCacheHit(cacheType string) {
	m.Called(cacheType)
}

func (m *MockMetricsInterface) IncCacheMiss(cacheType string) {
	m.Called(cacheType)
}

func (m *MockMetricsInterface) ObserveDBQueryDuration(operation string, duration time.Duration) {
	m.Called(operation, duration)
}

// assignScanRow копирует значения строки в целевые указатели Scan
func assignScanRow(row []interface{}, dest []interface{}) {
	for i, d := range dest {
		if i >= len(row) {
			return
		}
		switch target := d.(type) {
		case *uuid.UUID:
			*target = row[i].(uuid.UUID)
		case **uuid.UUID:
			if row[i] != nil {
				v := row[i].(uuid.UUID)
				*target = &v
			}
		case *string:
			*target = row[i].(string)
		case **string:
			if row[i] != nil {
				v := row[i].(string)
				*target = &v
			}
		case *int:
			*target = row[i].(int)
		case **int:
			if row[i] != nil {
				v := row[i].(int)
				*target = &v
			}
		case *int64:
			*target = row[i].(int64)
		case *float64:
			*target = row[i].(float64)
		case **float64:
			if row[i] != nil {
				v := row[i].(float64)
				*target = &v
			}
		case *bool:
			*target = row[i].(bool)
		case *time.Time:
			*target = row[i].(time.Time)
		case **time.Time:
			if row[i] != nil {
				v := row[i].(time.Time)
				*target = &v
			}
		case *[]string:
			if row[i] != nil {
				*target = row[i].([]string)
			}
		case *models.JobKind:
			*target = row[i].(models.JobKind)
		case *models.BuildingType:
			*target = row[i].(models.BuildingType)
		case **models.BuildingType:
			if row[i] != nil {
				v := row[i].(models.BuildingType)
				*target = &v
			}
		case *models.UnitType:
			*target = row[i].(models.UnitType)
		case **models.UnitType:
			if row[i] != nil {
				v := row[i].(models.UnitType)
				*target = &v
			}
		case *models.DeploymentStatus:
			*target = row[i].(models.DeploymentStatus)
		case *models.ModifierList:
			if row[i] != nil {
				*target = row[i].(models.ModifierList)
			}
		}
	}
}

// MockRow - мок для результата одной строки
type MockRow struct {
	data []interface{}
	err  error
}

func (m *MockRow) Scan(dest ...interface{}) error {
	if m.err != nil {
		return m.err
	}
	assignScanRow(m.data, dest)
	return nil
}

// MockRows - мок для Rows
type MockRows struct {
	mock.Mock
	data [][]interface{}
	pos  int
}

func (m *MockRows) Next() bool {
	m.pos++
	return m.pos <= len(m.data)
}

func (m *MockRows) Scan(dest ...interface{}) error {
	if m.pos <= 0 || m.pos > len(m.data) {
		return nil
	}
	assignScanRow(m.data[m.pos-1], dest)
	return nil
}

func (m *MockRows) Err() error {
	mockArgs := m.Called()
	return mockArgs.Error(0)
}

func (m *MockRows) Close() {
	m.Called()
}

func newMockDeps() (*MockDatabaseInterface, *MockCacheInterface, *MockMetricsInterface, *RepositoryDependencies) {
	mockDB := &MockDatabaseInterface{}
	mockCache := &MockCacheInterface{}
	mockMetrics := &MockMetricsInterface{}
	return mockDB, mockCache, mockMetrics, &RepositoryDependencies{
		DB:               mockDB,
		Cache:            mockCache,
		MetricsCollector: mockMetrics,
	}
}

func TestJobRepository_CreateJob_Construction(t *testing.T) {
	// Arrange
	mockDB, _, mockMetrics, deps := newMockDeps()
	repo := NewJobRepository(deps)

	job := &models.Job{
		ID:        uuid.New(),
		PlayerID:  uuid.New(),
		Kind:      models.JobConstruction,
		ExecuteAt: time.Now().Add(time.Minute),
		Construction: &models.ConstructionJob{
			SettlementID: uuid.New(),
			BuildingID:   uuid.New(),
			BuildingType: models.BuildingTimberCamp,
			TargetLevel:  2,
		},
	}

	// Setup mocks
	mockDB.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(nil)
	mockMetrics.On("IncDBQuery", "job_create")

	// Act
	err := repo.CreateJob(context.Background(), job)

	// Assert
	assert.NoError(t, err)
	mockDB.AssertExpectations(t)
	mockMetrics.AssertExpectations(t)
}

func TestJobRepository_CreateJob_MissingPayload(t *testing.T) {
	_, _, _, deps := newMockDeps()
	repo := NewJobRepository(deps)

	job := &models.Job{
		ID:       uuid.New(),
		PlayerID: uuid.New(),
		Kind:     models.JobRecruitment,
	}

	err := repo.CreateJob(context.Background(), job)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "without payload")
}

func TestJobRepository_GetDueJobs(t *testing.T) {
	// Arrange
	mockDB, _, mockMetrics, deps := newMockDeps()
	repo := NewJobRepository(deps)

	now := time.Now()
	playerID := uuid.New()
	settlementID := uuid.New()
	buildingID := uuid.New()
	constructionID := uuid.New()
	recruitmentID := uuid.New()

	mockRows := &MockRows{
		data: [][]interface{}{
			{
				constructionID,            // id
				playerID,                  // player_id
				models.JobConstruction,    // kind
				now.Add(-time.Minute),     // execute_at
				false,                     // completed
				now.Add(-time.Hour),       // created_at
				settlementID,              // settlement_id
				buildingID,                // building_id
				models.BuildingTimberCamp, // building_type
				3,                         // target_level
				nil,                       // unit_type
				nil,                       // total_quantity
				nil,                       // delivered_quantity
				nil,                       // seconds_per_unit
				nil,                       // last_tick_at
				nil,                       // research_id
			},
			{
				recruitmentID,               // id
				playerID,                    // player_id
				models.JobRecruitment,       // kind
				now.Add(-30 * time.Second),  // execute_at
				false,                       // completed
				now.Add(-2 * time.Hour),     // created_at
				settlementID,                // settlement_id
				nil,                         // building_id
				nil,                         // building_type
				nil,                         // target_level
				models.UnitType("spearman"), // unit_type
				10,                          // total_quantity
				4,                           // delivered_quantity
				25.0,                        // seconds_per_unit
				now.Add(-100 * time.Second), // last_tick_at
				nil,                         // research_id
			},
		},
	}

	// Setup mocks
	mockDB.On("Query", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(mockRows, nil)
	mockRows.On("Err").Return(nil)
	mockRows.On("Close")
	mockMetrics.On("IncDBQuery", "due_jobs_query")
	mockMetrics.On("ObserveDBQueryDuration", "due_jobs_query", mock.Anything)

	// Act
	jobs, err := repo.GetDueJobs(context.Background(), now, 100)

	// Assert
	assert.NoError(t, err)
	assert.Len(t, jobs, 2)

	assert.Equal(t, constructionID, jobs[0].ID)
	assert.Equal(t, models.JobConstruction, jobs[0].Kind)
	assert.NotNil(t, jobs[0].Construction)
	assert.Equal(t, 3, jobs[0].Construction.TargetLevel)
	assert.Nil(t, jobs[0].Recruitment)

	assert.Equal(t, recruitmentID, jobs[1].ID)
	assert.Equal(t, models.JobRecruitment, jobs[1].Kind)
	assert.NotNil(t, jobs[1].Recruitment)
	assert.Equal(t, 10, jobs[1].Recruitment.TotalQuantity)
	assert.Equal(t, 4, jobs[1].Recruitment.DeliveredQuantity)
	assert.Equal(t, 6, jobs[1].Recruitment.RemainingQuantity())

	mockDB.AssertExpectations(t)
	mockRows.AssertExpectations(t)
	mockMetrics.AssertExpectations(t)
}

func TestJobRepository_GetJobByID_NotFound(t *testing.T) {
	mockDB, _, _, deps := newMockDeps()
	repo := NewJobRepository(deps)

	mockDB.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), mock.Anything).
		Return(&MockRow{err: pgx.ErrNoRows})

	job, err := repo.GetJobByID(context.Background(), uuid.New())
	assert.Nil(t, job)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestJobRepository_CompleteJob(t *testing.T) {
	mockDB, _, mockMetrics, deps := newMockDeps()
	repo := NewJobRepository(deps)

	mockDB.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(nil)
	mockMetrics.On("IncDBQuery", "job_complete")

	err := repo.CompleteJob(context.Background(), uuid.New())
	assert.NoError(t, err)
	mockDB.AssertExpectations(t)
	mockMetrics.AssertExpectations(t)
}

func TestJobRepository_UpdateRecruitmentProgress(t *testing.T) {
	mockDB, _, mockMetrics, deps := newMockDeps()
	repo := NewJobRepository(deps)

	now := time.Now()

	mockDB.On("Exec", mock.Anything, mock.AnythingOfType("string"), mock.Anything).Return(nil)
	mockMetrics.On("IncDBQuery", "recruitment_progress_update")

	err := repo.UpdateRecruitmentProgress(context.Background(), uuid.New(), 7, now, now.Add(25*time.Second))
	assert.NoError(t, err)
	mockDB.AssertExpectations(t)
	mockMetrics.AssertExpectations(t)
}
