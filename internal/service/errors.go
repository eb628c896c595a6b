package service

import (
	"errors"
	"fmt"
)

// Коды доменных ошибок. Обработчики HTTP транслируют их в статусы ответов.
const (
	ErrCodeValidation             = "validation"
	ErrCodeInsufficientResources  = "insufficient_resources"
	ErrCodeInsufficientPopulation = "insufficient_population"
	ErrCodeNotFound               = "not_found"
	ErrCodeConflict               = "conflict"
	ErrCodeConfiguration          = "configuration"
)

// DomainError описывает ошибку бизнес-логики с машинно-читаемым кодом.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func newDomainError(code, format string, args ...interface{}) *DomainError {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func wrapDomainError(err error, code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err}
}

// AsDomainError извлекает DomainError из цепочки ошибок.
func AsDomainError(err error) (*DomainError, bool) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr, true
	}
	return nil, false
}

// ErrConcurrentModification сигнализирует о проигранной гонке оптимистичной
// блокировки после исчерпания повторов.
var ErrConcurrentModification = &DomainError{
	Code:    ErrCodeConflict,
	Message: "settlement was modified concurrently, please retry",
}
