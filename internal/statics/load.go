package statics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/DoktorJohn/RelicWars-sub001/internal/models"
)

// YAML file shapes. Kept separate from the runtime types so the file format
// can evolve without leaking into consumers.

type resourcesYAML struct {
	Wood  float64 `yaml:"wood"`
	Stone float64 `yaml:"stone"`
	Metal float64 `yaml:"metal"`
}

func (r resourcesYAML) toResources() models.Resources {
	return models.Resources{Wood: r.Wood, Stone: r.Stone, Metal: r.Metal}
}

type modifierYAML struct {
	Tag    string  `yaml:"tag" validate:"required"`
	Type   string  `yaml:"type" validate:"required,oneof=additive increased decreased"`
	Value  float64 `yaml:"value"`
	Source string  `yaml:"source"`
}

func toModifiers(raw []modifierYAML) []models.Modifier {
	if len(raw) == 0 {
		return nil
	}
	mods := make([]models.Modifier, len(raw))
	for i, m := range raw {
		mods[i] = models.Modifier{
			Tag:    models.ModifierTag(m.Tag),
			Type:   models.ModifierType(m.Type),
			Value:  m.Value,
			Source: m.Source,
		}
	}
	return mods
}

type buildingLevelYAML struct {
	Level             int            `yaml:"level" validate:"min=0"`
	Cost              resourcesYAML  `yaml:"cost"`
	BuildSeconds      float64        `yaml:"build_seconds" validate:"min=0"`
	PopulationCost    int            `yaml:"population_cost" validate:"min=0"`
	ProductionPerHour float64        `yaml:"production_per_hour" validate:"min=0"`
	WarehouseCapacity float64        `yaml:"warehouse_capacity" validate:"min=0"`
	HousingCapacity   float64        `yaml:"housing_capacity" validate:"min=0"`
	Modifiers         []modifierYAML `yaml:"modifiers" validate:"dive"`
}

type buildingYAML struct {
	Type   string              `yaml:"type" validate:"required"`
	Levels []buildingLevelYAML `yaml:"levels" validate:"required,min=1,dive"`
}

type buildingsFileYAML struct {
	Buildings []buildingYAML `yaml:"buildings" validate:"required,min=1,dive"`
}

type unitYAML struct {
	Type             string        `yaml:"type" validate:"required"`
	Category         string        `yaml:"category" validate:"required"`
	Cost             resourcesYAML `yaml:"cost"`
	SecondsPerUnit   float64       `yaml:"seconds_per_unit" validate:"gt=0"`
	PopulationCost   int           `yaml:"population_cost" validate:"min=0"`
	RequiredBuilding string        `yaml:"required_building" validate:"required"`
	RequiredLevel    int           `yaml:"required_level" validate:"min=0"`
}

type unitsFileYAML struct {
	Units []unitYAML `yaml:"units" validate:"required,min=1,dive"`
}

type researchYAML struct {
	ID            string         `yaml:"id" validate:"required"`
	Cost          resourcesYAML  `yaml:"cost"`
	Seconds       float64        `yaml:"seconds" validate:"gt=0"`
	Prerequisites []string       `yaml:"prerequisites"`
	Modifiers     []modifierYAML `yaml:"modifiers" validate:"dive"`
}

type researchFileYAML struct {
	Research []researchYAML `yaml:"research" validate:"required,min=1,dive"`
}

type focusYAML struct {
	Name      string         `yaml:"name" validate:"required"`
	Modifiers []modifierYAML `yaml:"modifiers" validate:"dive"`
}

type ideologyYAML struct {
	Name      string         `yaml:"name" validate:"required"`
	Modifiers []modifierYAML `yaml:"modifiers" validate:"dive"`
	Foci      []focusYAML    `yaml:"foci" validate:"dive"`
}

type ideologiesFileYAML struct {
	Ideologies []ideologyYAML `yaml:"ideologies" validate:"required,min=1,dive"`
}

// Load reads and validates the definition set from a directory containing
// buildings.yaml, units.yaml, research.yaml and ideologies.yaml.
func Load(dir string) (*Definitions, error) {
	validate := validator.New()

	defs := &Definitions{
		buildingLevels: make(map[buildingLevelKey]*BuildingLevelData),
		maxLevels:      make(map[models.BuildingType]int),
		units:          make(map[models.UnitType]*UnitData),
		research:       make(map[string]*ResearchData),
		ideologies:     make(map[string]*IdeologyData),
		foci:           make(map[string]*IdeologyFocusData),
	}

	var buildings buildingsFileYAML
	if err := loadFile(filepath.Join(dir, "buildings.yaml"), validate, &buildings); err != nil {
		return nil, err
	}
	for _, b := range buildings.Buildings {
		buildingType := models.BuildingType(b.Type)
		for _, l := range b.Levels {
			key := buildingLevelKey{Type: buildingType, Level: l.Level}
			if _, exists := defs.buildingLevels[key]; exists {
				return nil, fmt.Errorf("duplicate building level definition: %s level %d", b.Type, l.Level)
			}
			defs.buildingLevels[key] = &BuildingLevelData{
				Type:              buildingType,
				Level:             l.Level,
				Cost:              l.Cost.toResources(),
				BuildSeconds:      l.BuildSeconds,
				PopulationCost:    l.PopulationCost,
				ProductionPerHour: l.ProductionPerHour,
				WarehouseCapacity: l.WarehouseCapacity,
				HousingCapacity:   l.HousingCapacity,
				Mods:              toModifiers(l.Modifiers),
			}
			if l.Level > defs.maxLevels[buildingType] {
				defs.maxLevels[buildingType] = l.Level
			}
		}
	}

	var units unitsFileYAML
	if err := loadFile(filepath.Join(dir, "units.yaml"), validate, &units); err != nil {
		return nil, err
	}
	for _, u := range units.Units {
		unitType := models.UnitType(u.Type)
		if _, exists := defs.units[unitType]; exists {
			return nil, fmt.Errorf("duplicate unit definition: %s", u.Type)
		}
		defs.units[unitType] = &UnitData{
			Type:             unitType,
			Category:         models.ModifierTag(u.Category),
			Cost:             u.Cost.toResources(),
			SecondsPerUnit:   u.SecondsPerUnit,
			PopulationCost:   u.PopulationCost,
			RequiredBuilding: models.BuildingType(u.RequiredBuilding),
			RequiredLevel:    u.RequiredLevel,
		}
	}

	var research researchFileYAML
	if err := loadFile(filepath.Join(dir, "research.yaml"), validate, &research); err != nil {
		return nil, err
	}
	for _, r := range research.Research {
		if _, exists := defs.research[r.ID]; exists {
			return nil, fmt.Errorf("duplicate research definition: %s", r.ID)
		}
		defs.research[r.ID] = &ResearchData{
			ID:            r.ID,
			Cost:          r.Cost.toResources(),
			Seconds:       r.Seconds,
			Prerequisites: r.Prerequisites,
			Mods:          toModifiers(r.Modifiers),
		}
	}
	// Prerequisites must reference known nodes.
	for _, r := range defs.research {
		for _, prereq := range r.Prerequisites {
			if _, ok := defs.research[prereq]; !ok {
				return nil, fmt.Errorf("research %s references unknown prerequisite %s", r.ID, prereq)
			}
		}
	}

	var ideologies ideologiesFileYAML
	if err := loadFile(filepath.Join(dir, "ideologies.yaml"), validate, &ideologies); err != nil {
		return nil, err
	}
	for _, ideo := range ideologies.Ideologies {
		if _, exists := defs.ideologies[ideo.Name]; exists {
			return nil, fmt.Errorf("duplicate ideology definition: %s", ideo.Name)
		}
		data := &IdeologyData{
			Name: ideo.Name,
			Mods: toModifiers(ideo.Modifiers),
		}
		data.Foci = make([]IdeologyFocusData, 0, len(ideo.Foci))
		for _, f := range ideo.Foci {
			if _, exists := defs.foci[f.Name]; exists {
				return nil, fmt.Errorf("duplicate ideology focus definition: %s", f.Name)
			}
			data.Foci = append(data.Foci, IdeologyFocusData{
				Name: f.Name,
				Mods: toModifiers(f.Modifiers),
			})
		}
		// Indexing after all appends: growing the slice would invalidate
		// earlier element pointers.
		for i := range data.Foci {
			defs.foci[data.Foci[i].Name] = &data.Foci[i]
		}
		defs.ideologies[ideo.Name] = data
	}

	// Units must reference defined buildings.
	for _, u := range defs.units {
		if !defs.HasBuildingLevel(u.RequiredBuilding, u.RequiredLevel) && u.RequiredLevel > 0 {
			return nil, fmt.Errorf("unit %s requires undefined building %s level %d", u.Type, u.RequiredBuilding, u.RequiredLevel)
		}
	}

	return defs, nil
}

func loadFile(path string, validate *validator.Validate, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read definition file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse definition file %s: %w", path, err)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("definition file %s failed validation: %w", path, err)
	}
	return nil
}
