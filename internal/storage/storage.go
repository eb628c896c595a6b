package storage

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

// NewRepository создает новый экземпляр Repository со всеми репозиториями
func NewRepository(deps *RepositoryDependencies) *Repository {
	return &Repository{
		Settlement: NewSettlementRepository(deps),
		Job:        NewJobRepository(deps),
		Research:   NewResearchRepository(deps),
	}
}

// ErrVersionConflict возвращается при нарушении оптимистичной блокировки:
// версия поселения в базе изменилась между чтением и записью
var ErrVersionConflict = errors.New("settlement version conflict")

// ErrNotFound возвращается, когда запись отсутствует в базе
var ErrNotFound = errors.New("record not found")

// isNoRows проверяет, что ошибка означает пустой результат запроса
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
