package models

import (
	"time"

	"github.com/google/uuid"
)

// ResourceSnapshotResponse представляет ответ GET /settlements/{id}/resources
type ResourceSnapshotResponse struct {
	SettlementID uuid.UUID `json:"settlement_id"`
	Stock        Resources `json:"stock"`
	Capacity     float64   `json:"capacity"`
	RatesPerHour Resources `json:"rates_per_hour"`
	AsOf         time.Time `json:"as_of"`
}

// PopulationResponse представляет ответ GET /settlements/{id}/population
type PopulationResponse struct {
	SettlementID uuid.UUID `json:"settlement_id"`
	Max          int       `json:"max"`
	Used         int       `json:"used"`
	Reserved     int       `json:"reserved"`
	Available    int       `json:"available"`
}

// QueueResponse представляет ответ GET /settlements/{id}/queue
type QueueResponse struct {
	Jobs []Job `json:"jobs"`
}

// QueueConstructionRequest представляет запрос POST /settlements/{id}/construction
type QueueConstructionRequest struct {
	BuildingID uuid.UUID `json:"building_id" validate:"required"`
}

// QueueRecruitmentRequest представляет запрос POST /settlements/{id}/recruitment
type QueueRecruitmentRequest struct {
	UnitType string `json:"unit_type" validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

// QueueResearchRequest представляет запрос POST /research
type QueueResearchRequest struct {
	ResearchID   string    `json:"research_id" validate:"required"`
	SettlementID uuid.UUID `json:"settlement_id" validate:"required"` // поселение, оплачивающее исследование
}

// CancelResearchRequest представляет запрос POST /research/cancel
type CancelResearchRequest struct {
	JobID uuid.UUID `json:"job_id" validate:"required"`
}

// QueueJobResponse представляет ответ на постановку задания в очередь
type QueueJobResponse struct {
	Success   bool      `json:"success"`
	JobID     uuid.UUID `json:"job_id"`
	Kind      JobKind   `json:"kind"`
	ExecuteAt string    `json:"execute_at"` // ISO 8601 format
}

// CreateSettlementRequest представляет внутренний запрос создания поселения
type CreateSettlementRequest struct {
	PlayerID *uuid.UUID `json:"player_id,omitempty"`
	Name     string     `json:"name" validate:"required"`
	X        int        `json:"x"`
	Y        int        `json:"y"`
}

// CreateSettlementResponse представляет ответ создания поселения
type CreateSettlementResponse struct {
	Success      bool      `json:"success"`
	SettlementID uuid.UUID `json:"settlement_id"`
}

// SettlementsResponse представляет ответ GET /settlements
type SettlementsResponse struct {
	Settlements []Settlement `json:"settlements"`
}

// BuildingLevelView представляет уровень постройки в каталоге определений
type BuildingLevelView struct {
	Type              BuildingType `json:"type"`
	Level             int          `json:"level"`
	Cost              Resources    `json:"cost"`
	BuildSeconds      float64      `json:"build_seconds"`
	PopulationCost    int          `json:"population_cost"`
	ProductionPerHour float64      `json:"production_per_hour,omitempty"`
	WarehouseCapacity float64      `json:"warehouse_capacity,omitempty"`
	HousingCapacity   float64      `json:"housing_capacity,omitempty"`
	Modifiers         []Modifier   `json:"modifiers,omitempty"`
}

// UnitView представляет тип юнита в каталоге определений
type UnitView struct {
	Type             UnitType     `json:"type"`
	Category         ModifierTag  `json:"category"`
	Cost             Resources    `json:"cost"`
	SecondsPerUnit   float64      `json:"seconds_per_unit"`
	PopulationCost   int          `json:"population_cost"`
	RequiredBuilding BuildingType `json:"required_building"`
	RequiredLevel    int          `json:"required_level"`
}

// ResearchView представляет узел исследований в каталоге определений
type ResearchView struct {
	ID            string     `json:"id"`
	Cost          Resources  `json:"cost"`
	Seconds       float64    `json:"seconds"`
	Prerequisites []string   `json:"prerequisites,omitempty"`
	Modifiers     []Modifier `json:"modifiers,omitempty"`
}

// DefinitionsResponse представляет ответ GET /definitions
type DefinitionsResponse struct {
	Buildings []BuildingLevelView `json:"buildings"`
	Units     []UnitView          `json:"units"`
	Research  []ResearchView      `json:"research"`
}

// OperationResponse представляет стандартный ответ операции
type OperationResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse представляет стандартный ответ с ошибкой
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ValidationFieldError представляет ошибку валидации поля
type ValidationFieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// Constants для ошибок
const (
	ErrorCodeValidation             = "validation_error"
	ErrorCodeInsufficientResources  = "insufficient_resources"
	ErrorCodeInsufficientPopulation = "insufficient_population"
	ErrorCodeConflict               = "conflict"
	ErrorCodeMissingToken           = "missing_token"
	ErrorCodeInvalidToken           = "invalid_token_format"
	ErrorCodeMissingPlayerID        = "missing_player_id"
	ErrorCodeForbidden              = "forbidden"
	ErrorCodeNotFound               = "not_found"
	ErrorCodeBadRequest             = "bad_request"
	ErrorCodeInternalError          = "internal_error"
)
