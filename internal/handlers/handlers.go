package handlers

import (
	"go.uber.org/zap"

	"github.com/DoktorJohn/RelicWars-sub001/internal/database"
	"github.com/DoktorJohn/RelicWars-sub001/internal/handlers/public"
	"github.com/DoktorJohn/RelicWars-sub001/internal/service"
	"github.com/DoktorJohn/RelicWars-sub001/internal/statics"
)

// Handlers содержит все HTTP обработчики
type Handlers struct {
	Health      *HealthHandler
	Settlement  *public.SettlementHandler
	Job         *public.JobHandler
	Definitions *public.DefinitionsHandler
}

// HandlerDependencies содержит зависимости для создания handlers
type HandlerDependencies struct {
	Service     *service.Service
	Definitions *statics.Definitions
	DB          *database.DB
	Redis       *database.RedisClient
	Logger      *zap.Logger
}

// NewHandlers создает новый экземпляр Handlers со всеми обработчиками
func NewHandlers(deps *HandlerDependencies) *Handlers {
	return &Handlers{
		Health:      NewHealthHandler(deps.DB, deps.Redis),
		Settlement:  public.NewSettlementHandler(deps.Service.Settlement, deps.Service.Resource, deps.Service.Population, deps.Logger),
		Job:         public.NewJobHandler(deps.Service.Job, deps.Logger),
		Definitions: public.NewDefinitionsHandler(deps.Definitions, deps.Logger),
	}
}
