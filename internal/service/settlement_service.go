package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoktorJohn/RelicWars-sub001/internal/models"
	"github.com/DoktorJohn/RelicWars-sub001/internal/statics"
	"github.com/DoktorJohn/RelicWars-sub001/internal/storage"
)

// Стартовое состояние нового поселения
var (
	starterStock = models.Resources{Wood: 500, Stone: 500, Metal: 250}

	starterBuildings = []models.BuildingType{
		models.BuildingTimberCamp,
		models.BuildingStoneQuarry,
		models.BuildingMetalMine,
		models.BuildingWarehouse,
		models.BuildingDwelling,
	}
)

// SettlementService управляет жизненным циклом поселений
type SettlementService struct {
	repo   *storage.Repository
	defs   *statics.Definitions
	clock  Clock
	logger *zap.Logger
}

// NewSettlementService создает новый экземпляр SettlementService
func NewSettlementService(repo *storage.Repository, defs *statics.Definitions, clock Clock, logger *zap.Logger) *SettlementService {
	return &SettlementService{
		repo:   repo,
		defs:   defs,
		clock:  clock,
		logger: logger,
	}
}

// CreateSettlement создает поселение со стартовым набором построек первого
// уровня и стартовыми запасами. PlayerID nil создает NPC-поселение
func (s *SettlementService) CreateSettlement(ctx context.Context, req *models.CreateSettlementRequest) (*models.Settlement, error) {
	now := s.clock.Now()

	for _, buildingType := range starterBuildings {
		if !s.defs.HasBuildingLevel(buildingType, 1) {
			return nil, newDomainError(ErrCodeConfiguration, "missing level 1 definition for %s", buildingType)
		}
	}

	settlement := &models.Settlement{
		ID:                 uuid.New(),
		PlayerID:           req.PlayerID,
		Name:               req.Name,
		X:                  req.X,
		Y:                  req.Y,
		Stock:              starterStock,
		LastResourceUpdate: now,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	for _, buildingType := range starterBuildings {
		settlement.Buildings = append(settlement.Buildings, models.Building{
			ID:           uuid.New(),
			SettlementID: settlement.ID,
			Type:         buildingType,
			Level:        1,
		})
	}

	if err := s.repo.Settlement.CreateSettlement(ctx, settlement); err != nil {
		return nil, fmt.Errorf("failed to create settlement: %w", err)
	}

	s.logger.Info("Settlement created",
		zap.String("settlementID", settlement.ID.String()),
		zap.String("name", settlement.Name),
		zap.Int("x", settlement.X),
		zap.Int("y", settlement.Y),
	)

	return settlement, nil
}

// GetSettlement возвращает поселение игрока. Чужие поселения неотличимы от
// несуществующих
func (s *SettlementService) GetSettlement(ctx context.Context, playerID, settlementID uuid.UUID) (*models.Settlement, error) {
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

// ListSettlements возвращает все поселения игрока
func (s *SettlementService) ListSettlements(ctx context.Context, playerID uuid.UUID) ([]models.Settlement, error) {
	settlements, err := s.repo.Settlement.GetPlayerSettlements(ctx, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	return settlements, nil
}
