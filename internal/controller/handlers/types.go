package handlers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/studbot/timetable_bot/internal/controller/state"
	"github.com/studbot/timetable_bot/internal/model"
	"github.com/studbot/timetable_bot/internal/repository"
	"github.com/studbot/timetable_bot/internal/service"
)

// DeliveryStats - чтение агрегатов журнала для админской команды
type DeliveryStats interface {
	Stats(ctx context.Context, filter repository.LogFilter) ([]model.DeliveryStats, error)
}

type Handlers struct {
	userService     *service.UserService
	scheduleService *service.ScheduleService
	deliveryStats   DeliveryStats
	stateManager    *state.Manager
	loc             *time.Location
	adminTgID       int64
	logger          *zap.Logger
}

func NewHandlers(
	userService *service.UserService,
	scheduleService *service.ScheduleService,
	deliveryStats DeliveryStats,
	stateManager *state.Manager,
	loc *time.Location,
	adminTgID int64,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		userService:     userService,
		scheduleService: scheduleService,
		deliveryStats:   deliveryStats,
		stateManager:    stateManager,
		loc:             loc,
		adminTgID:       adminTgID,
		logger:          logger,
	}
}
