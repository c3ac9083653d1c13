package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/studbot/timetable_bot/internal/model"
)

// Kind триггера
const (
	TriggerMorning  = "morning"
	TriggerReminder = "reminder"
)

// Trigger - одно запланированное срабатывание. Пересчитывается заново
// на каждом цикле, NextFireAt всегда строго в будущем.
type Trigger struct {
	Kind       string
	Slot       model.TimeSlot // заполнен только для напоминаний
	NextFireAt time.Time
}

// SlotSource отдаёт актуальную конфигурацию слотов. Читается на каждом
// цикле, поэтому правки времени слота подхватываются без рестарта.
type SlotSource interface {
	GetAll(ctx context.Context) ([]model.TimeSlot, error)
}

// Jobs - задачи, которые запускает планировщик
type Jobs interface {
	SendMorning(ctx context.Context, now time.Time) error
	SendReminder(ctx context.Context, now time.Time, slot model.TimeSlot) error
}

// Scheduler управляет фоновыми рассылками: утреннее расписание в
// фиксированное время и напоминание перед каждым слотом. Пропущенные
// за время простоя срабатывания не навёрстываются - после рестарта
// берётся ближайшее будущее время.
type Scheduler struct {
	jobs     Jobs
	slots    SlotSource
	loc      *time.Location
	hour     int // время утренней рассылки
	minute   int
	lead     time.Duration // за сколько до начала слота напоминать
	logger   *zap.Logger
	stopChan chan struct{}
	wg       sync.WaitGroup
	now      func() time.Time
}

// NewScheduler создаёт новый планировщик
func NewScheduler(jobs Jobs, slots SlotSource, loc *time.Location, hour, minute int, lead time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		jobs:     jobs,
		slots:    slots,
		loc:      loc,
		hour:     hour,
		minute:   minute,
		lead:     lead,
		logger:   logger,
		stopChan: make(chan struct{}),
		now:      time.Now,
	}
}

// Start запускает цикл планировщика
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting trigger scheduler",
		zap.String("timezone", s.loc.String()),
		zap.Int("morning_hour", s.hour),
		zap.Int("morning_minute", s.minute),
	)

	s.wg.Add(1)
	go s.run(ctx)
}

// Stop останавливает планировщик и дожидается завершения текущего
// срабатывания, чтобы не оборвать рассылку на середине
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping trigger scheduler")
	close(s.stopChan)
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	for {
		now := s.now()

		triggers, err := s.computeTriggers(ctx, now)
		if err != nil {
			// Сбой чтения слотов не должен останавливать цикл
			s.logger.Error("Failed to compute triggers", zap.Error(err))
			triggers = []Trigger{morningTrigger(now, s.loc, s.hour, s.minute)}
		}

		next := earliest(triggers)
		timer := time.NewTimer(next.Sub(now))

		select {
		case <-timer.C:
			fireAt := s.now()
			for _, t := range triggers {
				if !t.NextFireAt.After(fireAt) {
					s.fire(ctx, t)
				}
			}
		case <-s.stopChan:
			timer.Stop()
			s.logger.Info("Trigger scheduler stopped")
			return
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("Trigger scheduler cancelled")
			return
		}
	}
}

// fire запускает задачу триггера. Паника или ошибка задачи логируется
// и не мешает следующим срабатываниям.
func (s *Scheduler) fire(ctx context.Context, t Trigger) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("Job panicked",
					zap.String("kind", t.Kind),
					zap.Any("panic", r),
				)
			}
		}()

		firingID := uuid.New().String()
		start := s.now()

		s.logger.Info("Trigger fired",
			zap.String("firing_id", firingID),
			zap.String("kind", t.Kind),
			zap.Int("slot", t.Slot.SlotNumber),
		)

		var err error
		switch t.Kind {
		case TriggerMorning:
			err = s.jobs.SendMorning(ctx, start)
		case TriggerReminder:
			err = s.jobs.SendReminder(ctx, start, t.Slot)
		}

		if err != nil {
			// Срыв одного дня не останавливает рассылку, но оператору
			// нужно это видеть
			s.logger.Error("Job failed",
				zap.String("firing_id", firingID),
				zap.String("kind", t.Kind),
				zap.Error(err),
			)
			return
		}

		s.logger.Info("Job completed",
			zap.String("firing_id", firingID),
			zap.String("kind", t.Kind),
			zap.Duration("elapsed", s.now().Sub(start)),
		)
	}()
}

// computeTriggers собирает полный набор триггеров от текущего момента:
// утренняя рассылка плюс напоминание на каждый настроенный слот
func (s *Scheduler) computeTriggers(ctx context.Context, now time.Time) ([]Trigger, error) {
	slots, err := s.slots.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load time slots: %w", err)
	}

	triggers := make([]Trigger, 0, len(slots)+1)
	triggers = append(triggers, morningTrigger(now, s.loc, s.hour, s.minute))

	for _, slot := range slots {
		hour, minute, err := slot.ReminderClock(s.lead)
		if err != nil {
			s.logger.Warn("Skipping slot with invalid time",
				zap.Int("slot", slot.SlotNumber),
				zap.String("start_time", slot.StartTime),
				zap.Error(err),
			)
			continue
		}

		triggers = append(triggers, Trigger{
			Kind:       TriggerReminder,
			Slot:       slot,
			NextFireAt: nextOccurrence(now, s.loc, hour, minute),
		})
	}

	return triggers, nil
}

func morningTrigger(now time.Time, loc *time.Location, hour, minute int) Trigger {
	return Trigger{
		Kind:       TriggerMorning,
		NextFireAt: nextOccurrence(now, loc, hour, minute),
	}
}

// nextOccurrence возвращает ближайший будущий момент с заданным
// гражданским временем. Переходы на летнее время разруливает time.Date.
func nextOccurrence(now time.Time, loc *time.Location, hour, minute int) time.Time {
	local := now.In(loc)
	candidate := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)

	if !candidate.After(now) {
		candidate = time.Date(local.Year(), local.Month(), local.Day()+1, hour, minute, 0, 0, loc)
	}

	return candidate
}

func earliest(triggers []Trigger) time.Time {
	next := triggers[0].NextFireAt
	for _, t := range triggers[1:] {
		if t.NextFireAt.Before(next) {
			next = t.NextFireAt
		}
	}
	return next
}
