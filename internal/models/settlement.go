package models

import (
	"time"

	"github.com/google/uuid"
)

// ResourceKind представляет вид ресурса поселения
type ResourceKind string

const (
	ResourceWood  ResourceKind = "wood"
	ResourceStone ResourceKind = "stone"
	ResourceMetal ResourceKind = "metal"
)

// ResourceKinds перечисляет все виды ресурсов в фиксированном порядке
var ResourceKinds = []ResourceKind{ResourceWood, ResourceStone, ResourceMetal}

// Tag возвращает тег модификатора, соответствующий ресурсу
func (k ResourceKind) Tag() ModifierTag {
	return ModifierTag(k)
}

// Resources представляет запасы ресурсов поселения
type Resources struct {
	Wood  float64 `json:"wood" db:"wood"`
	Stone float64 `json:"stone" db:"stone"`
	Metal float64 `json:"metal" db:"metal"`
}

// Get возвращает запас ресурса по виду
func (r Resources) Get(kind ResourceKind) float64 {
	switch kind {
	case ResourceWood:
		return r.Wood
	case ResourceStone:
		return r.Stone
	case ResourceMetal:
		return r.Metal
	}
	return 0
}

// Set устанавливает запас ресурса по виду
func (r *Resources) Set(kind ResourceKind, value float64) {
	switch kind {
	case ResourceWood:
		r.Wood = value
	case ResourceStone:
		r.Stone = value
	case ResourceMetal:
		r.Metal = value
	}
}

// CanAfford проверяет, хватает ли запасов на оплату стоимости
func (r Resources) CanAfford(cost Resources) bool {
	return r.Wood >= cost.Wood && r.Stone >= cost.Stone && r.Metal >= cost.Metal
}

// Sub вычитает стоимость из запасов
func (r *Resources) Sub(cost Resources) {
	r.Wood -= cost.Wood
	r.Stone -= cost.Stone
	r.Metal -= cost.Metal
}

// Add прибавляет ресурсы к запасам
func (r *Resources) Add(other Resources) {
	r.Wood += other.Wood
	r.Stone += other.Stone
	r.Metal += other.Metal
}

// Scale возвращает стоимость, умноженную на количество
func (r Resources) Scale(n int) Resources {
	f := float64(n)
	return Resources{Wood: r.Wood * f, Stone: r.Stone * f, Metal: r.Metal * f}
}

// BuildingType представляет тип здания
type BuildingType string

// Constants для типов зданий
const (
	BuildingTimberCamp  BuildingType = "timber_camp"
	BuildingStoneQuarry BuildingType = "stone_quarry"
	BuildingMetalMine   BuildingType = "metal_mine"
	BuildingWarehouse   BuildingType = "warehouse"
	BuildingDwelling    BuildingType = "dwelling"
	BuildingBarracks    BuildingType = "barracks"
	BuildingStable      BuildingType = "stable"
	BuildingWorkshop    BuildingType = "workshop"
	BuildingAcademy     BuildingType = "academy"
	BuildingWall        BuildingType = "wall"
)

// ProducedResource возвращает ресурс, который производит тип здания
// (ok == false для непроизводящих зданий)
func (t BuildingType) ProducedResource() (ResourceKind, bool) {
	switch t {
	case BuildingTimberCamp:
		return ResourceWood, true
	case BuildingStoneQuarry:
		return ResourceStone, true
	case BuildingMetalMine:
		return ResourceMetal, true
	}
	return "", false
}

// Building представляет здание поселения
type Building struct {
	ID                uuid.UUID    `json:"id" db:"id"`
	SettlementID      uuid.UUID    `json:"settlement_id" db:"settlement_id"`
	Type              BuildingType `json:"type" db:"building_type"`
	Level             int          `json:"level" db:"level"`
	UpgradeStartedAt  *time.Time   `json:"upgrade_started_at,omitempty" db:"upgrade_started_at"`
	UpgradeFinishedAt *time.Time   `json:"upgrade_finished_at,omitempty" db:"upgrade_finished_at"`
}

// IsUpgrading возвращает true, если улучшение здания в процессе.
// Производное свойство: таймстемп завершения установлен и еще не наступил.
func (b *Building) IsUpgrading(now time.Time) bool {
	return b.UpgradeFinishedAt != nil && b.UpgradeFinishedAt.After(now)
}

// UnitType представляет тип юнита
type UnitType string

// UnitStack представляет отряд юнитов одного типа в поселении
type UnitStack struct {
	SettlementID uuid.UUID `json:"settlement_id" db:"settlement_id"`
	UnitType     UnitType  `json:"unit_type" db:"unit_type"`
	Quantity     int       `json:"quantity" db:"quantity"`
}

// DeploymentStatus представляет состояние отряда в походе
type DeploymentStatus string

const (
	DeploymentMoving    DeploymentStatus = "moving"
	DeploymentStationed DeploymentStatus = "stationed"
	DeploymentReturning DeploymentStatus = "returning"
)

// UnitDeployment представляет юниты в пути или размещенные вне родного поселения
type UnitDeployment struct {
	ID                 uuid.UUID        `json:"id" db:"id"`
	OriginSettlementID uuid.UUID        `json:"origin_settlement_id" db:"origin_settlement_id"`
	TargetSettlementID uuid.UUID        `json:"target_settlement_id" db:"target_settlement_id"`
	UnitType           UnitType         `json:"unit_type" db:"unit_type"`
	Quantity           int              `json:"quantity" db:"quantity"`
	Status             DeploymentStatus `json:"status" db:"status"`
	ArrivesAt          time.Time        `json:"arrives_at" db:"arrives_at"`
	Mods               ModifierList     `json:"modifiers,omitempty" db:"modifiers"`
}

// Modifiers реализует ModifierProvider для отряда (бонусы добычи и т.п.)
func (d *UnitDeployment) Modifiers() []Modifier {
	return d.Mods
}

// AffectedTags реализует ModifierProvider для отряда
func (d *UnitDeployment) AffectedTags() []ModifierTag {
	return []ModifierTag{TagLoot}
}

// Settlement представляет поселение (игрока или NPC)
type Settlement struct {
	ID                 uuid.UUID    `json:"id" db:"id"`
	PlayerID           *uuid.UUID   `json:"player_id,omitempty" db:"player_id"`
	Name               string       `json:"name" db:"name"`
	X                  int          `json:"x" db:"x"`
	Y                  int          `json:"y" db:"y"`
	Stock              Resources    `json:"stock"`
	LastResourceUpdate time.Time    `json:"last_resource_update" db:"last_resource_update"`
	Version            int64        `json:"-" db:"version"`
	CreatedAt          time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at" db:"updated_at"`

	// Связанные данные
	Buildings   []Building       `json:"buildings,omitempty"`
	Units       []UnitStack      `json:"units,omitempty"`
	Deployments []UnitDeployment `json:"deployments,omitempty"`
	ActiveFoci  []string         `json:"active_foci,omitempty"`
	Mods        ModifierList     `json:"modifiers,omitempty"`
}

// Modifiers реализует ModifierProvider для поселения
func (s *Settlement) Modifiers() []Modifier {
	return s.Mods
}

// AffectedTags реализует ModifierProvider для поселения
func (s *Settlement) AffectedTags() []ModifierTag {
	tags := make([]ModifierTag, 0, len(s.Mods))
	seen := make(map[ModifierTag]struct{}, len(s.Mods))
	for _, m := range s.Mods {
		if _, ok := seen[m.Tag]; ok {
			continue
		}
		seen[m.Tag] = struct{}{}
		tags = append(tags, m.Tag)
	}
	return tags
}

// FindBuilding возвращает здание поселения по ID (nil, если не найдено)
func (s *Settlement) FindBuilding(buildingID uuid.UUID) *Building {
	for i := range s.Buildings {
		if s.Buildings[i].ID == buildingID {
			return &s.Buildings[i]
		}
	}
	return nil
}

// BuildingsOfType возвращает все здания поселения указанного типа
func (s *Settlement) BuildingsOfType(t BuildingType) []*Building {
	var out []*Building
	for i := range s.Buildings {
		if s.Buildings[i].Type == t {
			out = append(out, &s.Buildings[i])
		}
	}
	return out
}

// HighestLevelOfType возвращает максимальный уровень среди зданий типа (0, если зданий нет)
func (s *Settlement) HighestLevelOfType(t BuildingType) int {
	level := 0
	for i := range s.Buildings {
		if s.Buildings[i].Type == t && s.Buildings[i].Level > level {
			level = s.Buildings[i].Level
		}
	}
	return level
}

// World представляет глобальные эффекты мира
type World struct {
	Mods ModifierList `json:"modifiers"`
}

// Modifiers реализует ModifierProvider для мира
func (w *World) Modifiers() []Modifier {
	return w.Mods
}

// AffectedTags реализует ModifierProvider для мира
func (w *World) AffectedTags() []ModifierTag {
	tags := make([]ModifierTag, 0, len(w.Mods))
	for _, m := range w.Mods {
		tags = append(tags, m.Tag)
	}
	return tags
}

// Tile представляет тайл карты, на котором стоит поселение
type Tile struct {
	X       int          `json:"x" db:"x"`
	Y       int          `json:"y" db:"y"`
	Terrain string       `json:"terrain" db:"terrain"`
	Mods    ModifierList `json:"modifiers,omitempty" db:"modifiers"`
}

// Modifiers реализует ModifierProvider для тайла
func (t *Tile) Modifiers() []Modifier {
	return t.Mods
}

// AffectedTags реализует ModifierProvider для тайла
func (t *Tile) AffectedTags() []ModifierTag {
	tags := make([]ModifierTag, 0, len(t.Mods))
	for _, m := range t.Mods {
		tags = append(tags, m.Tag)
	}
	return tags
}

// PlayerResearch представляет завершенное исследование игрока
type PlayerResearch struct {
	PlayerID    uuid.UUID `json:"player_id" db:"player_id"`
	ResearchID  string    `json:"research_id" db:"research_id"`
	CompletedAt time.Time `json:"completed_at" db:"completed_at"`
}
