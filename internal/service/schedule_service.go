package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/studbot/timetable_bot/internal/model"
	"github.com/studbot/timetable_bot/internal/repository"
)

// ScheduleService - операции над расписанием: выдача пар пользователю
// и административный CRUD
type ScheduleService struct {
	pairRepo *repository.PairRepository
	slotRepo *repository.SlotRepository
	logger   *zap.Logger
}

func NewScheduleService(pairRepo *repository.PairRepository, slotRepo *repository.SlotRepository, logger *zap.Logger) *ScheduleService {
	return &ScheduleService{
		pairRepo: pairRepo,
		slotRepo: slotRepo,
		logger:   logger,
	}
}

// ForDirection получает пары направления на день недели
func (s *ScheduleService) ForDirection(ctx context.Context, directionID int64, dayOfWeek int) ([]model.PairWithTime, error) {
	return s.pairRepo.GetByDirectionAndDay(ctx, directionID, dayOfWeek)
}

// AllPairs получает все пары
func (s *ScheduleService) AllPairs(ctx context.Context) ([]model.PairWithTime, error) {
	return s.pairRepo.GetAll(ctx)
}

// PairByID получает пару по ID, nil если пары нет
func (s *ScheduleService) PairByID(ctx context.Context, id int64) (*model.PairWithTime, error) {
	return s.pairRepo.GetByID(ctx, id)
}

// CreatePair создаёт пару с привязкой к направлениям
func (s *ScheduleService) CreatePair(ctx context.Context, pair *model.Pair, directionIDs []int64) error {
	if pair.DayOfWeek < 0 || pair.DayOfWeek > 6 {
		return fmt.Errorf("day_of_week out of range: %d", pair.DayOfWeek)
	}

	if err := s.pairRepo.Create(ctx, pair, directionIDs); err != nil {
		return err
	}

	s.logger.Info("Pair created",
		zap.Int64("pair_id", pair.ID),
		zap.String("title", pair.Title),
		zap.Int("day_of_week", pair.DayOfWeek),
		zap.Int("directions", len(directionIDs)),
	)

	return nil
}

// UpdatePair обновляет пару; directionIDs == nil сохраняет привязки
func (s *ScheduleService) UpdatePair(ctx context.Context, pair *model.Pair, directionIDs []int64) error {
	if pair.DayOfWeek < 0 || pair.DayOfWeek > 6 {
		return fmt.Errorf("day_of_week out of range: %d", pair.DayOfWeek)
	}

	if err := s.pairRepo.Update(ctx, pair, directionIDs); err != nil {
		return err
	}

	s.logger.Info("Pair updated", zap.Int64("pair_id", pair.ID))

	return nil
}

// DeletePair удаляет пару
func (s *ScheduleService) DeletePair(ctx context.Context, id int64) error {
	if err := s.pairRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Pair deleted", zap.Int64("pair_id", id))

	return nil
}

// PairDirections получает направления пары
func (s *ScheduleService) PairDirections(ctx context.Context, pairID int64) ([]int64, error) {
	return s.pairRepo.GetAssignedDirections(ctx, pairID)
}

// Slots получает все слоты
func (s *ScheduleService) Slots(ctx context.Context) ([]model.TimeSlot, error) {
	return s.slotRepo.GetAll(ctx)
}

// SlotByNumber получает слот по порядковому номеру, nil если слота нет
func (s *ScheduleService) SlotByNumber(ctx context.Context, slotNumber int) (*model.TimeSlot, error) {
	return s.slotRepo.GetByNumber(ctx, slotNumber)
}

// UpdateSlotTimes меняет время слота. Триггеры напоминаний
// пересчитаются на следующем цикле планировщика.
func (s *ScheduleService) UpdateSlotTimes(ctx context.Context, slotNumber int, startTime, endTime string) error {
	if err := s.slotRepo.UpdateTimes(ctx, slotNumber, startTime, endTime); err != nil {
		return err
	}

	s.logger.Info("Time slot updated",
		zap.Int("slot", slotNumber),
		zap.String("start_time", startTime),
		zap.String("end_time", endTime),
	)

	return nil
}
