package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/DoktorJohn/RelicWars-sub001/internal/models"
)

func TestModifierResolver_Apply(t *testing.T) {
	resolver := NewModifierResolver()
	woodTags := []models.ModifierTag{models.TagWood, models.TagResourceProduction}

	tests := []struct {
		name     string
		base     float64
		tags     []models.ModifierTag
		mods     []models.Modifier
		expected float64
	}{
		{
			name:     "no modifiers returns base",
			base:     100,
			tags:     woodTags,
			mods:     nil,
			expected: 100,
		},
		{
			name: "additive applied before percentage",
			base: 100,
			tags: woodTags,
			mods: []models.Modifier{
				{Tag: models.TagWood, Type: models.ModifierAdditive, Value: 20},
				{Tag: models.TagWood, Type: models.ModifierIncreased, Value: 0.5},
			},
			expected: 180,
		},
		{
			name: "increased and decreased sum independently",
			base: 100,
			tags: woodTags,
			mods: []models.Modifier{
				{Tag: models.TagWood, Type: models.ModifierIncreased, Value: 0.3},
				{Tag: models.TagWood, Type: models.ModifierIncreased, Value: 0.2},
				{Tag: models.TagWood, Type: models.ModifierDecreased, Value: 0.1},
			},
			expected: 140,
		},
		{
			name: "irrelevant tags are ignored",
			base: 100,
			tags: woodTags,
			mods: []models.Modifier{
				{Tag: models.TagStone, Type: models.ModifierIncreased, Value: 1.0},
				{Tag: models.TagRecruitmentSpeed, Type: models.ModifierAdditive, Value: 500},
			},
			expected: 100,
		},
		{
			name: "broad tag matches alongside specific one",
			base: 100,
			tags: woodTags,
			mods: []models.Modifier{
				{Tag: models.TagResourceProduction, Type: models.ModifierIncreased, Value: 0.1},
				{Tag: models.TagWood, Type: models.ModifierIncreased, Value: 0.1},
			},
			expected: 120,
		},
		{
			name: "heavy penalties clamp at ten percent of base",
			base: 100,
			tags: woodTags,
			mods: []models.Modifier{
				{Tag: models.TagWood, Type: models.ModifierDecreased, Value: 2.5},
			},
			expected: 10,
		},
		{
			name: "clamp applies after additive",
			base: 100,
			tags: woodTags,
			mods: []models.Modifier{
				{Tag: models.TagWood, Type: models.ModifierAdditive, Value: 100},
				{Tag: models.TagWood, Type: models.ModifierDecreased, Value: 5},
			},
			expected: 20,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := resolver.Apply(tt.base, tt.tags, tt.mods)
			assert.InDelta(t, tt.expected, result, 1e-9)
		})
	}
}

func TestModifierResolver_ModifiedDuration(t *testing.T) {
	resolver := NewModifierResolver()
	tags := []models.ModifierTag{models.TagConstructionSpeed}

	t.Run("speed bonus shortens duration", func(t *testing.T) {
		mods := []models.Modifier{
			{Tag: models.TagConstructionSpeed, Type: models.ModifierIncreased, Value: 1.0},
		}
		result := resolver.ModifiedDuration(100*time.Second, tags, mods)
		assert.Equal(t, 50*time.Second, result)
	})

	t.Run("penalty lengthens duration", func(t *testing.T) {
		mods := []models.Modifier{
			{Tag: models.TagConstructionSpeed, Type: models.ModifierDecreased, Value: 0.5},
		}
		result := resolver.ModifiedDuration(100*time.Second, tags, mods)
		assert.Equal(t, 200*time.Second, result)
	})

	t.Run("duration never drops below one second", func(t *testing.T) {
		mods := []models.Modifier{
			{Tag: models.TagConstructionSpeed, Type: models.ModifierIncreased, Value: 1000},
		}
		result := resolver.ModifiedDuration(100*time.Millisecond, tags, mods)
		assert.Equal(t, time.Second, result)
	})

	t.Run("no modifiers keeps base duration", func(t *testing.T) {
		result := resolver.ModifiedDuration(42*time.Second, tags, nil)
		assert.Equal(t, 42*time.Second, result)
	})

	t.Run("additive modifier does not scale duration", func(t *testing.T) {
		mods := []models.Modifier{
			{Tag: models.TagConstructionSpeed, Type: models.ModifierAdditive, Value: 1.0},
		}
		result := resolver.ModifiedDuration(100*time.Second, tags, mods)
		assert.Equal(t, 100*time.Second, result)
	})

	t.Run("additive alongside percentage affects nothing but the percentage", func(t *testing.T) {
		mods := []models.Modifier{
			{Tag: models.TagConstructionSpeed, Type: models.ModifierAdditive, Value: 5.0},
			{Tag: models.TagConstructionSpeed, Type: models.ModifierIncreased, Value: 0.25},
		}
		result := resolver.ModifiedDuration(100*time.Second, tags, mods)
		assert.Equal(t, 80*time.Second, result)
	})
}

func TestModifierResolver_Multiplier(t *testing.T) {
	resolver := NewModifierResolver()
	tags := []models.ModifierTag{models.TagRecruitmentSpeed}

	t.Run("sums only percentage modifiers", func(t *testing.T) {
		mods := []models.Modifier{
			{Tag: models.TagRecruitmentSpeed, Type: models.ModifierAdditive, Value: 1.0},
			{Tag: models.TagRecruitmentSpeed, Type: models.ModifierIncreased, Value: 0.3},
			{Tag: models.TagRecruitmentSpeed, Type: models.ModifierDecreased, Value: 0.1},
		}
		assert.InDelta(t, 1.2, resolver.Multiplier(tags, mods), 1e-9)
	})

	t.Run("clamps at the floor", func(t *testing.T) {
		mods := []models.Modifier{
			{Tag: models.TagRecruitmentSpeed, Type: models.ModifierDecreased, Value: 2.0},
		}
		assert.InDelta(t, 0.1, resolver.Multiplier(tags, mods), 1e-9)
	})

	t.Run("ignores modifiers with other tags", func(t *testing.T) {
		mods := []models.Modifier{
			{Tag: models.TagConstructionSpeed, Type: models.ModifierIncreased, Value: 0.5},
		}
		assert.InDelta(t, 1.0, resolver.Multiplier(tags, mods), 1e-9)
	})
}

func TestCollectModifiers(t *testing.T) {
	settlement := &models.Settlement{
		Mods: models.ModifierList{
			{Tag: models.TagWood, Type: models.ModifierIncreased, Value: 0.1, Source: "settlement"},
			{Tag: models.TagInfantry, Type: models.ModifierIncreased, Value: 0.2, Source: "settlement"},
		},
	}
	world := &models.World{
		Mods: models.ModifierList{
			{Tag: models.TagResourceProduction, Type: models.ModifierIncreased, Value: 0.05, Source: "world"},
		},
	}

	t.Run("filters by requested tags", func(t *testing.T) {
		mods := CollectModifiers([]models.ModifierTag{models.TagWood, models.TagResourceProduction}, settlement, world)
		assert.Len(t, mods, 2)
		for _, m := range mods {
			assert.NotEqual(t, models.TagInfantry, m.Tag)
		}
	})

	t.Run("nil providers are skipped", func(t *testing.T) {
		mods := CollectModifiers([]models.ModifierTag{models.TagWood}, nil, settlement)
		assert.Len(t, mods, 1)
		assert.Equal(t, models.TagWood, mods[0].Tag)
	})

	t.Run("no relevant providers yields empty result", func(t *testing.T) {
		mods := CollectModifiers([]models.ModifierTag{models.TagWallDefense}, settlement, world)
		assert.Empty(t, mods)
	})
}
