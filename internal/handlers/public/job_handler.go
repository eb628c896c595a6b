package public

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoktorJohn/RelicWars-sub001/internal/auth"
	"github.com/DoktorJohn/RelicWars-sub001/internal/models"
	"github.com/DoktorJohn/RelicWars-sub001/internal/service"
)

// JobHandler обрабатывает постановку отложенных работ: строительство, найм
// и исследования
type JobHandler struct {
	jobs      *service.JobService
	logger    *zap.Logger
	validator *validator.Validate
}

// NewJobHandler создает новый экземпляр JobHandler
func NewJobHandler(jobs *service.JobService, logger *zap.Logger) *JobHandler {
	return &JobHandler{
		jobs:      jobs,
		logger:    logger,
		validator: validator.New(),
	}
}

// GetQueue обрабатывает GET /settlements/{settlementID}/queue
func (h *JobHandler) GetQueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playerID, ok := h.playerID(w, r)
	if !ok {
		return
	}
	settlementID, ok := h.settlementID(w, r)
	if !ok {
		return
	}

	queue, err := h.jobs.Queue(ctx, playerID, settlementID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, queue)
}

// QueueConstruction обрабатывает POST /settlements/{settlementID}/construction
func (h *JobHandler) QueueConstruction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playerID, ok := h.playerID(w, r)
	if !ok {
		return
	}
	settlementID, ok := h.settlementID(w, r)
	if !ok {
		return
	}

	var request models.QueueConstructionRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, models.ErrorCodeValidation, err.Error())
		return
	}

	job, err := h.jobs.QueueConstruction(ctx, playerID, settlementID, request.BuildingID)
	if err != nil {
		h.logger.Warn("Failed to queue construction",
			zap.Error(err),
			zap.String("player_id", playerID.String()),
			zap.String("settlement_id", settlementID.String()),
			zap.String("request_id", getRequestID(r)),
		)
		writeServiceError(w, h.logger, err)
		return
	}

	h.writeQueued(w, job)
}

// QueueRecruitment обрабатывает POST /settlements/{settlementID}/recruitment
func (h *JobHandler) QueueRecruitment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playerID, ok := h.playerID(w, r)
	if !ok {
		return
	}
	settlementID, ok := h.settlementID(w, r)
	if !ok {
		return
	}

	var request models.QueueRecruitmentRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, models.ErrorCodeValidation, err.Error())
		return
	}

	job, err := h.jobs.QueueRecruitment(ctx, playerID, settlementID, models.UnitType(request.UnitType), request.Quantity)
	if err != nil {
		h.logger.Warn("Failed to queue recruitment",
			zap.Error(err),
			zap.String("player_id", playerID.String()),
			zap.String("settlement_id", settlementID.String()),
			zap.String("unit_type", request.UnitType),
			zap.String("request_id", getRequestID(r)),
		)
		writeServiceError(w, h.logger, err)
		return
	}

	h.writeQueued(w, job)
}

// QueueResearch обрабатывает POST /research
func (h *JobHandler) QueueResearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playerID, ok := h.playerID(w, r)
	if !ok {
		return
	}

	var request models.QueueResearchRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, models.ErrorCodeValidation, err.Error())
		return
	}

	job, err := h.jobs.QueueResearch(ctx, playerID, request.ResearchID, request.SettlementID)
	if err != nil {
		h.logger.Warn("Failed to queue research",
			zap.Error(err),
			zap.String("player_id", playerID.String()),
			zap.String("research_id", request.ResearchID),
			zap.String("request_id", getRequestID(r)),
		)
		writeServiceError(w, h.logger, err)
		return
	}

	h.writeQueued(w, job)
}

// CancelResearch обрабатывает POST /research/cancel
func (h *JobHandler) CancelResearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	playerID, ok := h.playerID(w, r)
	if !ok {
		return
	}

	var request models.CancelResearchRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}
	if request.JobID == uuid.Nil {
		writeError(w, h.logger, http.StatusBadRequest, models.ErrorCodeValidation, "Job ID is required")
		return
	}

	if err := h.jobs.CancelResearch(ctx, playerID, request.JobID); err != nil {
		h.logger.Warn("Failed to cancel research",
			zap.Error(err),
			zap.String("player_id", playerID.String()),
			zap.String("job_id", request.JobID.String()),
			zap.String("request_id", getRequestID(r)),
		)
		writeServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, h.logger, http.StatusOK, models.OperationResponse{
		Success: true,
		Message: "Research cancelled successfully",
	})
}

// writeQueued отправляет стандартный ответ на постановку работы в очередь
func (h *JobHandler) writeQueued(w http.ResponseWriter, job *models.Job) {
	writeJSON(w, h.logger, http.StatusCreated, models.QueueJobResponse{
		Success:   true,
		JobID:     job.ID,
		Kind:      job.Kind,
		ExecuteAt: job.ExecuteAt.Format(time.RFC3339),
	})
}

// playerID извлекает идентификатор игрока из JWT контекста
func (h *JobHandler) playerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
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
func (h *JobHandler) settlementID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	settlementID, err := uuid.Parse(chi.URLParam(r, "settlementID"))
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid settlement ID format")
		return uuid.Nil, false
	}
	return settlementID, true
}
