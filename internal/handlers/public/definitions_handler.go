package public

import (
	"net/http"
	"sort"

	"go.uber.org/zap"

	"github.com/DoktorJohn/RelicWars-sub001/internal/models"
	"github.com/DoktorJohn/RelicWars-sub001/internal/statics"
)

// DefinitionsHandler отдает каталог игровых определений. Определения
// неизменяемы в рамках процесса, ответ собирается из загруженных таблиц
type DefinitionsHandler struct {
	defs   *statics.Definitions
	logger *zap.Logger
}

// NewDefinitionsHandler создает новый экземпляр DefinitionsHandler
func NewDefinitionsHandler(defs *statics.Definitions, logger *zap.Logger) *DefinitionsHandler {
	return &DefinitionsHandler{
		defs:   defs,
		logger: logger,
	}
}

// Get обрабатывает GET /definitions
func (h *DefinitionsHandler) Get(w http.ResponseWriter, r *http.Request) {
	buildings := h.defs.Buildings()
	sort.Slice(buildings, func(i, j int) bool {
		if buildings[i].Type != buildings[j].Type {
			return buildings[i].Type < buildings[j].Type
		}
		return buildings[i].Level < buildings[j].Level
	})

	units := h.defs.Units()
	sort.Slice(units, func(i, j int) bool {
		return units[i].Type < units[j].Type
	})

	research := h.defs.ResearchNodes()
	sort.Slice(research, func(i, j int) bool {
		return research[i].ID < research[j].ID
	})

	response := models.DefinitionsResponse{
		Buildings: make([]models.BuildingLevelView, 0, len(buildings)),
		Units:     make([]models.UnitView, 0, len(units)),
		Research:  make([]models.ResearchView, 0, len(research)),
	}

	for _, b := range buildings {
		response.Buildings = append(response.Buildings, models.BuildingLevelView{
			Type:              b.Type,
			Level:             b.Level,
			Cost:              b.Cost,
			BuildSeconds:      b.BuildSeconds,
			PopulationCost:    b.PopulationCost,
			ProductionPerHour: b.ProductionPerHour,
			WarehouseCapacity: b.WarehouseCapacity,
			HousingCapacity:   b.HousingCapacity,
			Modifiers:         b.Mods,
		})
	}
	for _, u := range units {
		response.Units = append(response.Units, models.UnitView{
			Type:             u.Type,
			Category:         u.Category,
			Cost:             u.Cost,
			SecondsPerUnit:   u.SecondsPerUnit,
			PopulationCost:   u.PopulationCost,
			RequiredBuilding: u.RequiredBuilding,
			RequiredLevel:    u.RequiredLevel,
		})
	}
	for _, node := range research {
		response.Research = append(response.Research, models.ResearchView{
			ID:            node.ID,
			Cost:          node.Cost,
			Seconds:       node.Seconds,
			Prerequisites: node.Prerequisites,
			Modifiers:     node.Mods,
		})
	}

	writeJSON(w, h.logger, http.StatusOK, response)
}
