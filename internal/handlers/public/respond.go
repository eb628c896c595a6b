package public

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/DoktorJohn/RelicWars-sub001/internal/models"
	"github.com/DoktorJohn/RelicWars-sub001/internal/service"
)

// writeJSON отправляет JSON ответ
func writeJSON(w http.ResponseWriter, logger *zap.Logger, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Failed to encode JSON response", zap.Error(err))
	}
}

// writeError отправляет ошибку в JSON формате
func writeError(w http.ResponseWriter, logger *zap.Logger, statusCode int, errorCode, message string) {
	writeJSON(w, logger, statusCode, models.ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// writeServiceError транслирует ошибку сервисного слоя в HTTP статус.
// Доменные ошибки несут машинный код, все остальное считается внутренней
// ошибкой
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	domainErr, ok := service.AsDomainError(err)
	if !ok {
		writeError(w, logger, http.StatusInternalServerError, models.ErrorCodeInternalError, "Internal server error")
		return
	}

	switch domainErr.Code {
	case service.ErrCodeValidation:
		writeError(w, logger, http.StatusBadRequest, models.ErrorCodeValidation, domainErr.Message)
	case service.ErrCodeInsufficientResources:
		writeError(w, logger, http.StatusConflict, models.ErrorCodeInsufficientResources, domainErr.Message)
	case service.ErrCodeInsufficientPopulation:
		writeError(w, logger, http.StatusConflict, models.ErrorCodeInsufficientPopulation, domainErr.Message)
	case service.ErrCodeNotFound:
		writeError(w, logger, http.StatusNotFound, models.ErrorCodeNotFound, domainErr.Message)
	case service.ErrCodeConflict:
		writeError(w, logger, http.StatusConflict, models.ErrorCodeConflict, domainErr.Message)
	default:
		writeError(w, logger, http.StatusInternalServerError, models.ErrorCodeInternalError, "Internal server error")
	}
}

// getRequestID извлекает request ID из заголовков
func getRequestID(r *http.Request) string {
	if requestID := r.Header.Get("X-Request-ID"); requestID != "" {
		return requestID
	}
	return "unknown"
}
