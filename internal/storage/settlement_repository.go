package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/DoktorJohn/RelicWars-sub001/internal/models"
)

// settlementRepository реализует SettlementRepository
type settlementRepository struct {
	db      DatabaseInterface
	cache   CacheInterface
	metrics MetricsInterface
}

// NewSettlementRepository создает новый экземпляр репозитория поселений
func NewSettlementRepository(deps *RepositoryDependencies) SettlementRepository {
	return &settlementRepository{
		db:      deps.DB,
		cache:   deps.Cache,
		metrics: deps.MetricsCollector,
	}
}

// CreateSettlement создает новое поселение со стартовыми постройками
func (r *settlementRepository) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO world.settlements (
			id, player_id, name, x, y, wood, stone, metal,
			last_resource_update, active_foci, modifiers, version
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)`

	err = tx.Exec(ctx, query,
		settlement.ID,
		settlement.PlayerID,
		settlement.Name,
		settlement.X,
		settlement.Y,
		settlement.Stock.Wood,
		settlement.Stock.Stone,
		settlement.Stock.Metal,
		settlement.LastResourceUpdate,
		settlement.ActiveFoci,
		settlement.Mods,
		settlement.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	for _, building := range settlement.Buildings {
		buildingQuery := `
			INSERT INTO world.buildings (
				id, settlement_id, building_type, level
			) VALUES (
				$1, $2, $3, $4
			)`

		err = tx.Exec(ctx, buildingQuery,
			building.ID,
			settlement.ID,
			building.Type,
			building.Level,
		)
		if err != nil {
			return fmt.Errorf("failed to insert building: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.IncDBQuery("settlement_create")

	return nil
}

// GetSettlementByID возвращает поселение со всеми постройками и гарнизоном
func (r *settlementRepository) GetSettlementByID(ctx context.Context, settlementID uuid.UUID) (*models.Settlement, error) {
	start := time.Now()
	var settlement models.Settlement

	query := `
		SELECT
			id, player_id, name, x, y, wood, stone, metal,
			last_resource_update, active_foci, modifiers, version,
			created_at, updated_at
		FROM world.settlements
		WHERE id = $1`

	row := r.db.QueryRow(ctx, query, settlementID)
	err := row.Scan(
		&settlement.ID,
		&settlement.PlayerID,
		&settlement.Name,
		&settlement.X,
		&settlement.Y,
		&settlement.Stock.Wood,
		&settlement.Stock.Stone,
		&settlement.Stock.Metal,
		&settlement.LastResourceUpdate,
		&settlement.ActiveFoci,
		&settlement.Mods,
		&settlement.Version,
		&settlement.CreatedAt,
		&settlement.UpdatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}

	if err := r.loadBuildings(ctx, &settlement); err != nil {
		return nil, err
	}
	if err := r.loadUnits(ctx, &settlement); err != nil {
		return nil, err
	}
	if err := r.loadDeployments(ctx, &settlement); err != nil {
		return nil, err
	}

	r.metrics.IncDBQuery("settlement_get")
	r.metrics.ObserveDBQueryDuration("settlement_get", time.Since(start))

	return &settlement, nil
}

// GetPlayerSettlements возвращает все поселения игрока
func (r *settlementRepository) GetPlayerSettlements(ctx context.Context, playerID uuid.UUID) ([]models.Settlement, error) {
	query := `
		SELECT
			id, player_id, name, x, y, wood, stone, metal,
			last_resource_update, active_foci, modifiers, version,
			created_at, updated_at
		FROM world.settlements
		WHERE player_id = $1
		ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query, playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get player settlements: %w", err)
	}
	defer rows.Close()

	settlements := make([]models.Settlement, 0)
	for rows.Next() {
		var settlement models.Settlement
		err = rows.Scan(
			&settlement.ID,
			&settlement.PlayerID,
			&settlement.Name,
			&settlement.X,
			&settlement.Y,
			&settlement.Stock.Wood,
			&settlement.Stock.Stone,
			&settlement.Stock.Metal,
			&settlement.LastResourceUpdate,
			&settlement.ActiveFoci,
			&settlement.Mods,
			&settlement.Version,
			&settlement.CreatedAt,
			&settlement.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, settlement)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	for i := range settlements {
		if err := r.loadBuildings(ctx, &settlements[i]); err != nil {
			return nil, err
		}
		if err := r.loadUnits(ctx, &settlements[i]); err != nil {
			return nil, err
		}
	}

	r.metrics.IncDBQuery("player_settlements_get")

	return settlements, nil
}

// UpdateSettlementState сохраняет запасы и отметку последнего пересчета с
// оптимистичной проверкой версии. При записи версия инкрементируется,
// условие WHERE version = $n отсекает конкурентные изменения
func (r *settlementRepository) UpdateSettlementState(ctx context.Context, settlement *models.Settlement) error {
	query := `
		UPDATE world.settlements
		SET wood = $2, stone = $3, metal = $4,
			last_resource_update = $5,
			active_foci = $6,
			version = version + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND version = $7
		RETURNING version`

	var newVersion int64
	row := r.db.QueryRow(ctx, query,
		settlement.ID,
		settlement.Stock.Wood,
		settlement.Stock.Stone,
		settlement.Stock.Metal,
		settlement.LastResourceUpdate,
		settlement.ActiveFoci,
		settlement.Version,
	)
	if err := row.Scan(&newVersion); err != nil {
		if isNoRows(err) {
			return ErrVersionConflict
		}
		return fmt.Errorf("failed to update settlement state: %w", err)
	}

	settlement.Version = newVersion
	r.metrics.IncDBQuery("settlement_state_update")

	return nil
}

// UpgradeBuilding фиксирует начало улучшения постройки
func (r *settlementRepository) UpgradeBuilding(ctx context.Context, buildingID uuid.UUID, startedAt, finishedAt time.Time) error {
	query := `
		UPDATE world.buildings
		SET upgrade_started_at = $2, upgrade_finished_at = $3
		WHERE id = $1`

	if err := r.db.Exec(ctx, query, buildingID, startedAt, finishedAt); err != nil {
		return fmt.Errorf("failed to mark building upgrade: %w", err)
	}

	r.metrics.IncDBQuery("building_upgrade_start")

	return nil
}

// CompleteBuildingUpgrade повышает уровень постройки и снимает отметку улучшения
func (r *settlementRepository) CompleteBuildingUpgrade(ctx context.Context, buildingID uuid.UUID, newLevel int) error {
	query := `
		UPDATE world.buildings
		SET level = $2, upgrade_started_at = NULL, upgrade_finished_at = NULL
		WHERE id = $1`

	if err := r.db.Exec(ctx, query, buildingID, newLevel); err != nil {
		return fmt.Errorf("failed to complete building upgrade: %w", err)
	}

	r.metrics.IncDBQuery("building_upgrade_complete")

	return nil
}

// AddUnits добавляет юнитов в гарнизон поселения
func (r *settlementRepository) AddUnits(ctx context.Context, settlementID uuid.UUID, unitType models.UnitType, quantity int) error {
	query := `
		INSERT INTO world.unit_stacks (settlement_id, unit_type, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (settlement_id, unit_type)
		DO UPDATE SET quantity = world.unit_stacks.quantity + EXCLUDED.quantity`

	if err := r.db.Exec(ctx, query, settlementID, unitType, quantity); err != nil {
		return fmt.Errorf("failed to add units: %w", err)
	}

	r.metrics.IncDBQuery("units_add")

	return nil
}

// GetWorldModifiers возвращает активные глобальные модификаторы мира
func (r *settlementRepository) GetWorldModifiers(ctx context.Context, now time.Time) (*models.World, error) {
	query := `
		SELECT modifiers
		FROM world.world_modifiers
		WHERE starts_at <= $1 AND (expires_at IS NULL OR expires_at > $1)`

	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get world modifiers: %w", err)
	}
	defer rows.Close()

	world := &models.World{}
	for rows.Next() {
		var mods models.ModifierList
		if err = rows.Scan(&mods); err != nil {
			return nil, fmt.Errorf("failed to scan world modifiers: %w", err)
		}
		world.Mods = append(world.Mods, mods...)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate world modifiers: %w", err)
	}

	r.metrics.IncDBQuery("world_modifiers_get")

	return world, nil
}

func (r *settlementRepository) loadBuildings(ctx context.Context, settlement *models.Settlement) error {
	query := `
		SELECT id, settlement_id, building_type, level, upgrade_started_at, upgrade_finished_at
		FROM world.buildings
		WHERE settlement_id = $1
		ORDER BY building_type, level DESC`

	rows, err := r.db.Query(ctx, query, settlement.ID)
	if err != nil {
		return fmt.Errorf("failed to get buildings: %w", err)
	}
	defer rows.Close()

	settlement.Buildings = make([]models.Building, 0)
	for rows.Next() {
		var building models.Building
		err = rows.Scan(
			&building.ID,
			&building.SettlementID,
			&building.Type,
			&building.Level,
			&building.UpgradeStartedAt,
			&building.UpgradeFinishedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to scan building: %w", err)
		}
		settlement.Buildings = append(settlement.Buildings, building)
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate buildings: %w", err)
	}

	return nil
}

func (r *settlementRepository) loadUnits(ctx context.Context, settlement *models.Settlement) error {
	query := `
		SELECT settlement_id, unit_type, quantity
		FROM world.unit_stacks
		WHERE settlement_id = $1 AND quantity > 0
		ORDER BY unit_type`

	rows, err := r.db.Query(ctx, query, settlement.ID)
	if err != nil {
		return fmt.Errorf("failed to get unit stacks: %w", err)
	}
	defer rows.Close()

	settlement.Units = make([]models.UnitStack, 0)
	for rows.Next() {
		var stack models.UnitStack
		if err = rows.Scan(&stack.SettlementID, &stack.UnitType, &stack.Quantity); err != nil {
			return fmt.Errorf("failed to scan unit stack: %w", err)
		}
		settlement.Units = append(settlement.Units, stack)
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate unit stacks: %w", err)
	}

	return nil
}

func (r *settlementRepository) loadDeployments(ctx context.Context, settlement *models.Settlement) error {
	query := `
		SELECT id, origin_settlement_id, target_settlement_id, unit_type, quantity, status, arrives_at, modifiers
		FROM world.unit_deployments
		WHERE origin_settlement_id = $1
		ORDER BY arrives_at ASC`

	rows, err := r.db.Query(ctx, query, settlement.ID)
	if err != nil {
		return fmt.Errorf("failed to get deployments: %w", err)
	}
	defer rows.Close()

	settlement.Deployments = make([]models.UnitDeployment, 0)
	for rows.Next() {
		var deployment models.UnitDeployment
		err = rows.Scan(
			&deployment.ID,
			&deployment.OriginSettlementID,
			&deployment.TargetSettlementID,
			&deployment.UnitType,
			&deployment.Quantity,
			&deployment.Status,
			&deployment.ArrivesAt,
			&deployment.Mods,
		)
		if err != nil {
			return fmt.Errorf("failed to scan deployment: %w", err)
		}
		settlement.Deployments = append(settlement.Deployments, deployment)
	}

	if err = rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate deployments: %w", err)
	}

	return nil
}
