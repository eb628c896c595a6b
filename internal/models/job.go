package models

import (
	"time"

	"github.com/google/uuid"
)

// JobKind представляет вид отложенного задания
type JobKind string

const (
	JobConstruction JobKind = "construction"
	JobRecruitment  JobKind = "recruitment"
	JobResearch     JobKind = "research"
)

// Job представляет отложенное действие игрока. Размеченное объединение:
// Kind задает дискриминант, заполнен ровно один из вариантов.
type Job struct {
	ID        uuid.UUID `json:"id" db:"id"`
	PlayerID  uuid.UUID `json:"player_id" db:"player_id"`
	Kind      JobKind   `json:"kind" db:"kind"`
	ExecuteAt time.Time `json:"execute_at" db:"execute_at"`
	Completed bool      `json:"completed" db:"completed"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Construction *ConstructionJob `json:"construction,omitempty"`
	Recruitment  *RecruitmentJob  `json:"recruitment,omitempty"`
	Research     *ResearchJob     `json:"research,omitempty"`
}

// ConstructionJob представляет улучшение здания до целевого уровня
type ConstructionJob struct {
	SettlementID uuid.UUID    `json:"settlement_id" db:"settlement_id"`
	BuildingID   uuid.UUID    `json:"building_id" db:"building_id"`
	BuildingType BuildingType `json:"building_type" db:"building_type"`
	TargetLevel  int          `json:"target_level" db:"target_level"`
}

// RecruitmentJob представляет найм юнитов с поштучной доставкой
type RecruitmentJob struct {
	SettlementID      uuid.UUID `json:"settlement_id" db:"settlement_id"`
	UnitType          UnitType  `json:"unit_type" db:"unit_type"`
	TotalQuantity     int       `json:"total_quantity" db:"total_quantity"`
	DeliveredQuantity int       `json:"delivered_quantity" db:"delivered_quantity"`
	SecondsPerUnit    float64   `json:"seconds_per_unit" db:"seconds_per_unit"`
	LastTickAt        time.Time `json:"last_tick_at" db:"last_tick_at"`
}

// ResearchJob представляет исследование технологии (привязано к игроку).
// SettlementID указывает поселение, оплатившее исследование (для возврата при отмене).
type ResearchJob struct {
	ResearchID   string    `json:"research_id" db:"research_id"`
	SettlementID uuid.UUID `json:"settlement_id" db:"settlement_id"`
}

// IsDue возвращает true, если задание не завершено и срок его исполнения наступил
func (j *Job) IsDue(now time.Time) bool {
	return !j.Completed && !j.ExecuteAt.After(now)
}

// SettlementID возвращает поселение, к которому относится задание
// (ok == false для вариантов без поселения)
func (j *Job) SettlementID() (uuid.UUID, bool) {
	switch j.Kind {
	case JobConstruction:
		if j.Construction != nil {
			return j.Construction.SettlementID, true
		}
	case JobRecruitment:
		if j.Recruitment != nil {
			return j.Recruitment.SettlementID, true
		}
	case JobResearch:
		if j.Research != nil {
			return j.Research.SettlementID, true
		}
	}
	return uuid.Nil, false
}

// RemainingQuantity возвращает количество еще не доставленных юнитов
func (r *RecruitmentJob) RemainingQuantity() int {
	remaining := r.TotalQuantity - r.DeliveredQuantity
	if remaining < 0 {
		return 0
	}
	return remaining
}
