package service

import (
	"time"

	"github.com/DoktorJohn/RelicWars-sub001/internal/models"
)

// Нижняя граница итогового множителя. Штрафы не могут опустить значение
// ниже 10% от базы.
const minMultiplier = 0.1

// minJobDuration - минимальная длительность любой работы.
const minJobDuration = time.Second

// ModifierResolver применяет модификаторы к базовым значениям.
// Порядок применения фиксирован: сначала суммируются аддитивные бонусы,
// затем результат масштабируется суммой процентных бонусов и штрафов.
type ModifierResolver struct{}

func NewModifierResolver() *ModifierResolver {
	return &ModifierResolver{}
}

// Apply вычисляет итоговое значение для базы base по модификаторам mods,
// релевантным хотя бы одному из тегов tags.
func (r *ModifierResolver) Apply(base float64, tags []models.ModifierTag, mods []models.Modifier) float64 {
	tagSet := models.NewTagSet(tags...)

	var additive, increased, decreased float64
	for _, m := range mods {
		if !tagSet.Contains(m.Tag) {
			continue
		}
		switch m.Type {
		case models.ModifierAdditive:
			additive += m.Value
		case models.ModifierIncreased:
			increased += m.Value
		case models.ModifierDecreased:
			decreased += m.Value
		}
	}

	multiplier := 1 + increased - decreased
	if multiplier < minMultiplier {
		multiplier = minMultiplier
	}

	return (base + additive) * multiplier
}

// Multiplier возвращает только процентную часть: 1 + increased - decreased
// с нижней границей minMultiplier. Аддитивные модификаторы в множитель не
// входят, они участвуют только в Apply.
func (r *ModifierResolver) Multiplier(tags []models.ModifierTag, mods []models.Modifier) float64 {
	tagSet := models.NewTagSet(tags...)

	var increased, decreased float64
	for _, m := range mods {
		if !tagSet.Contains(m.Tag) {
			continue
		}
		switch m.Type {
		case models.ModifierIncreased:
			increased += m.Value
		case models.ModifierDecreased:
			decreased += m.Value
		}
	}

	multiplier := 1 + increased - decreased
	if multiplier < minMultiplier {
		multiplier = minMultiplier
	}
	return multiplier
}

// ModifiedDuration сокращает базовую длительность пропорционально множителю
// скорости. Длительность никогда не опускается ниже одной секунды.
func (r *ModifierResolver) ModifiedDuration(base time.Duration, tags []models.ModifierTag, mods []models.Modifier) time.Duration {
	multiplier := r.Multiplier(tags, mods)
	if multiplier <= 0 {
		multiplier = minMultiplier
	}

	result := time.Duration(float64(base) / multiplier)
	if result < minJobDuration {
		result = minJobDuration
	}
	return result
}

// CollectModifiers собирает модификаторы со всех провайдеров, отфильтрованные
// по интересующим тегам. Провайдеры без пересечения тегов пропускаются
// целиком.
func CollectModifiers(tags []models.ModifierTag, providers ...models.ModifierProvider) []models.Modifier {
	tagSet := models.NewTagSet(tags...)

	var result []models.Modifier
	for _, p := range providers {
		if p == nil {
			continue
		}
		relevant := false
		for _, t := range p.AffectedTags() {
			if tagSet.Contains(t) {
				relevant = true
				break
			}
		}
		if !relevant {
			continue
		}
		for _, m := range p.Modifiers() {
			if tagSet.Contains(m.Tag) {
				result = append(result, m)
			}
		}
	}
	return result
}
