package statics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoktorJohn/RelicWars-sub001/internal/models"
)

func TestLoad_GameDefinitions(t *testing.T) {
	defs, err := Load("../../definitions")
	require.NoError(t, err)

	t.Run("building levels are resolvable", func(t *testing.T) {
		level, err := defs.BuildingLevel(models.BuildingTimberCamp, 1)
		require.NoError(t, err)
		assert.Equal(t, models.BuildingTimberCamp, level.Type)
		assert.Equal(t, 1, level.Level)
		assert.Greater(t, level.ProductionPerHour, 0.0)
		assert.Greater(t, level.BuildSeconds, 0.0)

		assert.True(t, defs.HasBuildingLevel(models.BuildingWarehouse, 1))
		assert.False(t, defs.HasBuildingLevel(models.BuildingWarehouse, 99))
	})

	t.Run("max level reflects highest defined level", func(t *testing.T) {
		assert.Equal(t, 5, defs.MaxLevel(models.BuildingTimberCamp))
		assert.Equal(t, 3, defs.MaxLevel(models.BuildingWall))
	})

	t.Run("storage buildings carry capacity instead of production", func(t *testing.T) {
		warehouse, err := defs.BuildingLevel(models.BuildingWarehouse, 1)
		require.NoError(t, err)
		assert.Greater(t, warehouse.WarehouseCapacity, 0.0)
		assert.Zero(t, warehouse.ProductionPerHour)

		dwelling, err := defs.BuildingLevel(models.BuildingDwelling, 1)
		require.NoError(t, err)
		assert.Greater(t, dwelling.HousingCapacity, 0.0)
	})

	t.Run("units reference defined buildings", func(t *testing.T) {
		for _, u := range defs.Units() {
			assert.True(t, defs.HasBuildingLevel(u.RequiredBuilding, u.RequiredLevel),
				"unit %s requires %s level %d", u.Type, u.RequiredBuilding, u.RequiredLevel)
			assert.Greater(t, u.SecondsPerUnit, 0.0)
			assert.Greater(t, u.PopulationCost, 0)
		}
	})

	t.Run("research prerequisites form a valid graph", func(t *testing.T) {
		for _, r := range defs.ResearchNodes() {
			for _, prereq := range r.Prerequisites {
				_, err := defs.Research(prereq)
				assert.NoError(t, err, "research %s prerequisite %s", r.ID, prereq)
			}
		}
	})

	t.Run("ideology foci are resolvable independently", func(t *testing.T) {
		ideo, err := defs.Ideology("militarism")
		require.NoError(t, err)
		require.NotEmpty(t, ideo.Foci)

		// The index must point at the slice elements themselves, not at
		// copies left behind in an outgrown backing array
		for i := range ideo.Foci {
			focus, err := defs.IdeologyFocus(ideo.Foci[i].Name)
			require.NoError(t, err)
			assert.Same(t, &ideo.Foci[i], focus)
		}
	})
}

func TestLoad_MissingLookupsReturnTypedError(t *testing.T) {
	defs, err := Load("../../definitions")
	require.NoError(t, err)

	_, err = defs.BuildingLevel(models.BuildingTimberCamp, 999)
	assert.ErrorIs(t, err, ErrMissingDefinition)

	_, err = defs.Unit(models.UnitType("dragon"))
	assert.ErrorIs(t, err, ErrMissingDefinition)

	_, err = defs.Research("alchemy")
	assert.ErrorIs(t, err, ErrMissingDefinition)

	_, err = defs.Ideology("nihilism")
	assert.ErrorIs(t, err, ErrMissingDefinition)
}

func TestLoad_InvalidDefinitions(t *testing.T) {
	writeDefs := func(t *testing.T, buildings, units, research, ideologies string) string {
		t.Helper()
		dir := t.TempDir()
		files := map[string]string{
			"buildings.yaml":  buildings,
			"units.yaml":      units,
			"research.yaml":   research,
			"ideologies.yaml": ideologies,
		}
		for name, content := range files {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
		}
		return dir
	}

	validBuildings := `
buildings:
  - type: barracks
    levels:
      - level: 1
        cost: { wood: 10, stone: 10, metal: 10 }
        build_seconds: 10
        population_cost: 1
`
	validUnits := `
units:
  - type: spearman
    category: infantry
    cost: { wood: 10, stone: 10, metal: 10 }
    seconds_per_unit: 10
    population_cost: 1
    required_building: barracks
    required_level: 1
`
	validResearch := `
research:
  - id: forestry
    cost: { wood: 10, stone: 10, metal: 10 }
    seconds: 10
`
	validIdeologies := `
ideologies:
  - name: militarism
`

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(t.TempDir())
		assert.Error(t, err)
	})

	t.Run("zero recruitment time rejected", func(t *testing.T) {
		badUnits := `
units:
  - type: spearman
    category: infantry
    cost: { wood: 10, stone: 10, metal: 10 }
    seconds_per_unit: 0
    population_cost: 1
    required_building: barracks
    required_level: 1
`
		dir := writeDefs(t, validBuildings, badUnits, validResearch, validIdeologies)
		_, err := Load(dir)
		assert.Error(t, err)
	})

	t.Run("unknown prerequisite rejected", func(t *testing.T) {
		badResearch := `
research:
  - id: forestry
    cost: { wood: 10, stone: 10, metal: 10 }
    seconds: 10
    prerequisites: [alchemy]
`
		dir := writeDefs(t, validBuildings, validUnits, badResearch, validIdeologies)
		_, err := Load(dir)
		assert.ErrorContains(t, err, "unknown prerequisite")
	})

	t.Run("duplicate building level rejected", func(t *testing.T) {
		dupBuildings := `
buildings:
  - type: barracks
    levels:
      - level: 1
        cost: { wood: 10, stone: 10, metal: 10 }
        build_seconds: 10
        population_cost: 1
      - level: 1
        cost: { wood: 20, stone: 20, metal: 20 }
        build_seconds: 20
        population_cost: 1
`
		dir := writeDefs(t, dupBuildings, validUnits, validResearch, validIdeologies)
		_, err := Load(dir)
		assert.ErrorContains(t, err, "duplicate building level")
	})

	t.Run("unit with undefined required building rejected", func(t *testing.T) {
		badUnits := `
units:
  - type: lancer
    category: cavalry
    cost: { wood: 10, stone: 10, metal: 10 }
    seconds_per_unit: 10
    population_cost: 1
    required_building: stable
    required_level: 2
`
		dir := writeDefs(t, validBuildings, badUnits, validResearch, validIdeologies)
		_, err := Load(dir)
		assert.ErrorContains(t, err, "undefined building")
	})
}
