package models

import (
	"database/sql/driver"
	"encoding/json"
)

// ModifierTag представляет семантическую категорию, на которую действует модификатор
type ModifierTag string

// Constants для тегов модификаторов
const (
	TagWood  ModifierTag = "wood"
	TagStone ModifierTag = "stone"
	TagMetal ModifierTag = "metal"

	TagResourceProduction ModifierTag = "resource_production"
	TagWarehouseCapacity  ModifierTag = "warehouse_capacity"
	TagPopulation         ModifierTag = "population"
	TagRecruitmentSpeed   ModifierTag = "recruitment_speed"
	TagConstructionSpeed  ModifierTag = "construction_speed"
	TagResearchSpeed      ModifierTag = "research_speed"
	TagWallDefense        ModifierTag = "wall_defense"
	TagLoot               ModifierTag = "loot"

	// Категории юнитов
	TagInfantry ModifierTag = "infantry"
	TagCavalry  ModifierTag = "cavalry"
	TagSiege    ModifierTag = "siege"
)

// ModifierType представляет тип применения модификатора
type ModifierType string

const (
	ModifierAdditive  ModifierType = "additive"  // Плоская добавка к базовому значению
	ModifierIncreased ModifierType = "increased" // Процентное увеличение (суммируется)
	ModifierDecreased ModifierType = "decreased" // Процентное уменьшение (суммируется)
)

// Modifier представляет бонус или штраф от некоторой сущности мира
type Modifier struct {
	Tag    ModifierTag  `json:"tag" db:"tag"`
	Type   ModifierType `json:"type" db:"mod_type"`
	Value  float64      `json:"value" db:"value"`
	Source string       `json:"source" db:"source"` // только для диагностики, не участвует в расчетах
}

// ModifierList представляет набор модификаторов (сохраняется как JSONB)
type ModifierList []Modifier

// Value реализует driver.Valuer для ModifierList
func (m ModifierList) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan реализует sql.Scanner для ModifierList
func (m *ModifierList) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, m)
}

// ModifierProvider описывает способность сущности отдавать свои модификаторы.
// Реализуется независимо каждым видом сущностей (поселение, мир, отряд в
// походе, уровень здания, идеология, фокус идеологии, тайл карты),
// общего базового типа нет, только контракт.
type ModifierProvider interface {
	// Modifiers возвращает модификаторы, которые сущность вносит
	Modifiers() []Modifier
	// AffectedTags возвращает теги, на которые влияет сущность
	AffectedTags() []ModifierTag
}

// TagSet представляет множество целевых тегов для резолвера
type TagSet map[ModifierTag]struct{}

// NewTagSet создает множество тегов из списка
func NewTagSet(tags ...ModifierTag) TagSet {
	set := make(TagSet, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return set
}

// Contains проверяет принадлежность тега множеству
func (s TagSet) Contains(tag ModifierTag) bool {
	_, ok := s[tag]
	return ok
}
