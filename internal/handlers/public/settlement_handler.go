package public

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoktorJohn/RelicWars-sub001/internal/auth"
	"github.com/DoktorJohn/RelicWars-sub001/internal/models"
	"github.com/DoktorJohn/RelicWars-sub001/internal/service"
)

// SettlementHandler обрабатывает HTTP запросы к поселениям
type SettlementHandler struct {
	settlements *service.SettlementService
	resources   *service.ResourceService
	population  *service.PopulationService
	logger      *zap.Logger
	validator   *validator.Validate
}

// NewSettlementHandler создает новый экземпляр SettlementHandler
func NewSettlementHandler(
	settlements *service.SettlementService,
	resources *service.ResourceService,
	population *service.PopulationService,
	logger *zap.Logger,
) *SettlementHandler {
	return &SettlementHandler{
		settlements: settlements,
		resources:   resources,
		population:  population,
		logger:      logger,
		validator:   validator.New(),
	}
}

// List обрабатывает GET /settlements
func (h *SettlementHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playerID, ok := h.playerID(w, r)
	if !ok {
		return
	}

	settlements, err := h.settlements.ListSettlements(ctx, playerID)
	if err != nil {
		h.logger.Error("Failed to list settlements",
			zap.Error(err),
			zap.String("player_id", playerID.String()),
			zap.String("request_id", getRequestID(r)),
		)
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, models.SettlementsResponse{Settlements: settlements})
}

// Get обрабатывает GET /settlements/{settlementID}
func (h *SettlementHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playerID, ok := h.playerID(w, r)
	if !ok {
		return
	}
	settlementID, ok := h.settlementID(w, r)
	if !ok {
		return
	}

	settlement, err := h.settlements.GetSettlement(ctx, playerID, settlementID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, settlement)
}

// GetResources обрабатывает GET /settlements/{settlementID}/resources.
// Запасы вычисляются на момент запроса без записи в базу
func (h *SettlementHandler) GetResources(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playerID, ok := h.playerID(w, r)
	if !ok {
		return
	}
	settlementID, ok := h.settlementID(w, r)
	if !ok {
		return
	}

	if _, err := h.settlements.GetSettlement(ctx, playerID, settlementID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	snapshot, err := h.resources.Snapshot(ctx, settlementID)
	if err != nil {
		h.logger.Error("Failed to build resource snapshot",
			zap.Error(err),
			zap.String("settlement_id", settlementID.String()),
			zap.String("request_id", getRequestID(r)),
		)
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, snapshot)
}

// GetPopulation обрабатывает GET /settlements/{settlementID}/population
func (h *SettlementHandler) GetPopulation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playerID, ok := h.playerID(w, r)
	if !ok {
		return
	}
	settlementID, ok := h.settlementID(w, r)
	if !ok {
		return
	}

	if _, err := h.settlements.GetSettlement(ctx, playerID, settlementID); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	snapshot, err := h.population.Snapshot(ctx, settlementID)
	if err != nil {
		h.logger.Error("Failed to build population snapshot",
			zap.Error(err),
			zap.String("settlement_id", settlementID.String()),
			zap.String("request_id", getRequestID(r)),
		)
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, snapshot)
}

// Create обрабатывает POST /admin/settlements. Используется администратором
// и внутренними сервисами мира для основания поселений
func (h *SettlementHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var request models.CreateSettlementRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, models.ErrorCodeValidation, err.Error())
		return
	}

	settlement, err := h.settlements.CreateSettlement(ctx, &request)
	if err != nil {
		h.logger.Error("Failed to create settlement",
			zap.Error(err),
			zap.String("name", request.Name),
			zap.String("request_id", getRequestID(r)),
		)
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusCreated, models.CreateSettlementResponse{
		Success:      true,
		SettlementID: settlement.ID,
	})
}

// playerID извлекает идентификатор игрока из JWT контекста
func (h *SettlementHandler) playerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	player, err := auth.GetPlayer(r.Context())
	if err != nil {
		writeError(w, h.logger, http.StatusUnauthorized, models.ErrorCodeMissingPlayerID, "Player ID not found in context")
		return uuid.Nil, false
	}

	playerID, err := uuid.Parse(player.PlayerID)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid player ID format")
		return uuid.Nil, false
	}
	return playerID, true
}

// settlementID извлекает идентификатор поселения из пути запроса
func (h *SettlementHandler) settlementID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	settlementID, err := uuid.Parse(chi.URLParam(r, "settlementID"))
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid settlement ID format")
		return uuid.Nil, false
	}
	return settlementID, true
}
