// Package statics holds the immutable definition tables (building levels,
// units, research, ideologies). They are loaded once at startup from
// versioned YAML files and injected into consumers; a missing key at the
// point of use is a configuration fault, not a recoverable condition.
package statics

import (
	"errors"
	"fmt"

	"github.com/DoktorJohn/RelicWars-sub001/internal/models"
)

// ErrMissingDefinition is returned when a referenced definition does not exist.
var ErrMissingDefinition = errors.New("missing static definition")

// BuildingLevelData describes one level of one building type.
type BuildingLevelData struct {
	Type              models.BuildingType
	Level             int
	Cost              models.Resources
	BuildSeconds      float64
	PopulationCost    int
	ProductionPerHour float64
	WarehouseCapacity float64
	HousingCapacity   float64
	Mods              []models.Modifier
}

// Modifiers implements models.ModifierProvider for a building-level definition.
func (d *BuildingLevelData) Modifiers() []models.Modifier {
	return d.Mods
}

// AffectedTags implements models.ModifierProvider for a building-level definition.
func (d *BuildingLevelData) AffectedTags() []models.ModifierTag {
	tags := make([]models.ModifierTag, 0, len(d.Mods))
	for _, m := range d.Mods {
		tags = append(tags, m.Tag)
	}
	return tags
}

// UnitData describes one unit type.
type UnitData struct {
	Type             models.UnitType
	Category         models.ModifierTag
	Cost             models.Resources
	SecondsPerUnit   float64
	PopulationCost   int
	RequiredBuilding models.BuildingType
	RequiredLevel    int
}

// ResearchData describes one research node.
type ResearchData struct {
	ID            string
	Cost          models.Resources
	Seconds       float64
	Prerequisites []string
	Mods          []models.Modifier
}

// Modifiers implements models.ModifierProvider for a completed research node.
func (d *ResearchData) Modifiers() []models.Modifier {
	return d.Mods
}

// AffectedTags implements models.ModifierProvider for a completed research node.
func (d *ResearchData) AffectedTags() []models.ModifierTag {
	tags := make([]models.ModifierTag, 0, len(d.Mods))
	for _, m := range d.Mods {
		tags = append(tags, m.Tag)
	}
	return tags
}

// IdeologyData describes an ideology and its foci.
type IdeologyData struct {
	Name string
	Mods []models.Modifier
	Foci []IdeologyFocusData
}

// Modifiers implements models.ModifierProvider for an ideology.
func (d *IdeologyData) Modifiers() []models.Modifier {
	return d.Mods
}

// AffectedTags implements models.ModifierProvider for an ideology.
func (d *IdeologyData) AffectedTags() []models.ModifierTag {
	tags := make([]models.ModifierTag, 0, len(d.Mods))
	for _, m := range d.Mods {
		tags = append(tags, m.Tag)
	}
	return tags
}

// IdeologyFocusData describes a selectable focus inside an ideology.
type IdeologyFocusData struct {
	Name string
	Mods []models.Modifier
}

// Modifiers implements models.ModifierProvider for an ideology focus.
func (d *IdeologyFocusData) Modifiers() []models.Modifier {
	return d.Mods
}

// AffectedTags implements models.ModifierProvider for an ideology focus.
func (d *IdeologyFocusData) AffectedTags() []models.ModifierTag {
	tags := make([]models.ModifierTag, 0, len(d.Mods))
	for _, m := range d.Mods {
		tags = append(tags, m.Tag)
	}
	return tags
}

type buildingLevelKey struct {
	Type  models.BuildingType
	Level int
}

// Definitions is the read-only definition set. Built once by Load, safe for
// concurrent reads, never mutated afterwards.
type Definitions struct {
	buildingLevels map[buildingLevelKey]*BuildingLevelData
	maxLevels      map[models.BuildingType]int
	units          map[models.UnitType]*UnitData
	research       map[string]*ResearchData
	ideologies     map[string]*IdeologyData
	foci           map[string]*IdeologyFocusData
}

// BuildingLevel returns the definition for (buildingType, level).
func (d *Definitions) BuildingLevel(t models.BuildingType, level int) (*BuildingLevelData, error) {
	data, ok := d.buildingLevels[buildingLevelKey{Type: t, Level: level}]
	if !ok {
		return nil, fmt.Errorf("%w: building %s level %d", ErrMissingDefinition, t, level)
	}
	return data, nil
}

// HasBuildingLevel reports whether a definition exists for (buildingType, level).
// Used to distinguish "max level reached" from a configuration fault.
func (d *Definitions) HasBuildingLevel(t models.BuildingType, level int) bool {
	_, ok := d.buildingLevels[buildingLevelKey{Type: t, Level: level}]
	return ok
}

// MaxLevel returns the highest defined level for a building type (0 if unknown).
func (d *Definitions) MaxLevel(t models.BuildingType) int {
	return d.maxLevels[t]
}

// Unit returns the definition for a unit type.
func (d *Definitions) Unit(t models.UnitType) (*UnitData, error) {
	data, ok := d.units[t]
	if !ok {
		return nil, fmt.Errorf("%w: unit %s", ErrMissingDefinition, t)
	}
	return data, nil
}

// Research returns the definition for a research node.
func (d *Definitions) Research(id string) (*ResearchData, error) {
	data, ok := d.research[id]
	if !ok {
		return nil, fmt.Errorf("%w: research %s", ErrMissingDefinition, id)
	}
	return data, nil
}

// Ideology returns the definition for an ideology.
func (d *Definitions) Ideology(name string) (*IdeologyData, error) {
	data, ok := d.ideologies[name]
	if !ok {
		return nil, fmt.Errorf("%w: ideology %s", ErrMissingDefinition, name)
	}
	return data, nil
}

// IdeologyFocus returns the definition for an ideology focus.
func (d *Definitions) IdeologyFocus(name string) (*IdeologyFocusData, error) {
	data, ok := d.foci[name]
	if !ok {
		return nil, fmt.Errorf("%w: ideology focus %s", ErrMissingDefinition, name)
	}
	return data, nil
}

// Buildings returns all building-level definitions, for catalog endpoints.
func (d *Definitions) Buildings() []*BuildingLevelData {
	out := make([]*BuildingLevelData, 0, len(d.buildingLevels))
	for _, data := range d.buildingLevels {
		out = append(out, data)
	}
	return out
}

// Units returns all unit definitions, for catalog endpoints.
func (d *Definitions) Units() []*UnitData {
	out := make([]*UnitData, 0, len(d.units))
	for _, data := range d.units {
		out = append(out, data)
	}
	return out
}

// ResearchNodes returns all research definitions, for catalog endpoints.
func (d *Definitions) ResearchNodes() []*ResearchData {
	out := make([]*ResearchData, 0, len(d.research))
	for _, data := range d.research {
		out = append(out, data)
	}
	return out
}
