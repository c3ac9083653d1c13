package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/studbot/timetable_bot/internal/model"
	"github.com/studbot/timetable_bot/internal/notify"
	"github.com/studbot/timetable_bot/internal/repository"
)

// UserDirectory - запросы "кому отправлять". Реализуется UserRepository.
type UserDirectory interface {
	GetActive(ctx context.Context) ([]*model.User, error)
	GetReminderTargets(ctx context.Context, dayOfWeek, slotNumber int) ([]repository.ReminderTarget, error)
	GetByFilter(ctx context.Context, course *int, directionID *int64) ([]*model.User, error)
}

// ScheduleCatalog - запросы к расписанию. Реализуется PairRepository.
type ScheduleCatalog interface {
	GetByDirectionAndDay(ctx context.Context, directionID int64, dayOfWeek int) ([]model.PairWithTime, error)
}

// BatchDispatcher отправляет собранную пачку сообщений
type BatchDispatcher interface {
	DeliverBatch(ctx context.Context, msgType model.MessageType, items []notify.Item) (notify.Summary, error)
}

// NotificationService собирает и запускает рассылки: утреннее
// расписание, напоминания перед слотами и сообщения оператора
type NotificationService struct {
	users      UserDirectory
	catalog    ScheduleCatalog
	dispatcher BatchDispatcher
	lead       time.Duration
	logger     *zap.Logger
}

func NewNotificationService(
	users UserDirectory,
	catalog ScheduleCatalog,
	dispatcher BatchDispatcher,
	lead time.Duration,
	logger *zap.Logger,
) *NotificationService {
	return &NotificationService{
		users:      users,
		catalog:    catalog,
		dispatcher: dispatcher,
		lead:       lead,
		logger:     logger,
	}
}

// SendMorning отправляет всем активным пользователям расписание на
// сегодня. Сбой запроса к базе срывает всю рассылку - без списка
// получателей отправлять нечего, записи в журнал не пишутся.
func (s *NotificationService) SendMorning(ctx context.Context, now time.Time) error {
	users, err := s.users.GetActive(ctx)
	if err != nil {
		return fmt.Errorf("resolve morning recipients: %w", err)
	}

	if len(users) == 0 {
		s.logger.Info("No active users for morning delivery")
		return nil
	}

	dayOfWeek := notify.WeekdayIndex(now)

	items := make([]notify.Item, 0, len(users))
	for _, user := range users {
		pairs, err := s.catalog.GetByDirectionAndDay(ctx, user.DirectionID, dayOfWeek)
		if err != nil {
			return fmt.Errorf("resolve schedule for direction %d: %w", user.DirectionID, err)
		}

		items = append(items, notify.Item{
			TelegramID: user.TelegramID,
			Text:       notify.ComposeDaily(user.Name, dayOfWeek, now, pairs),
		})
	}

	summary, err := s.dispatcher.DeliverBatch(ctx, model.MessageTypeMorning, items)
	if err != nil {
		return fmt.Errorf("morning delivery: %w", err)
	}

	s.logger.Info("Morning delivery completed",
		zap.Int("recipients", len(items)),
		zap.Int("sent", summary.Sent),
		zap.Int("errors", summary.Errors),
	)

	return nil
}

// SendReminder отправляет напоминание о паре слота всем, у кого она
// есть сегодня и включены напоминания. Право на напоминание
// проверяется заново в момент срабатывания - включивший напоминания
// за минуту до пары его получит.
func (s *NotificationService) SendReminder(ctx context.Context, now time.Time, slot model.TimeSlot) error {
	dayOfWeek := notify.WeekdayIndex(now)

	targets, err := s.users.GetReminderTargets(ctx, dayOfWeek, slot.SlotNumber)
	if err != nil {
		return fmt.Errorf("resolve reminder targets for slot %d: %w", slot.SlotNumber, err)
	}

	if len(targets) == 0 {
		s.logger.Info("No reminder targets", zap.Int("slot", slot.SlotNumber))
		return nil
	}

	// Одно напоминание на пользователя за срабатывание, даже если
	// в слоте у его направления несколько пар
	items := make([]notify.Item, 0, len(targets))
	seen := make(map[int64]struct{}, len(targets))
	for _, t := range targets {
		if _, ok := seen[t.User.TelegramID]; ok {
			continue
		}
		seen[t.User.TelegramID] = struct{}{}

		items = append(items, notify.Item{
			TelegramID: t.User.TelegramID,
			Text:       notify.ComposeReminder(t.Pair, s.lead),
		})
	}

	summary, err := s.dispatcher.DeliverBatch(ctx, model.MessageTypeReminder, items)
	if err != nil {
		return fmt.Errorf("reminder delivery for slot %d: %w", slot.SlotNumber, err)
	}

	s.logger.Info("Reminder delivery completed",
		zap.Int("slot", slot.SlotNumber),
		zap.Int("recipients", len(items)),
		zap.Int("sent", summary.Sent),
		zap.Int("errors", summary.Errors),
	)

	return nil
}

// SendBroadcast отправляет сообщение оператора активным пользователям
// с фильтром по курсу и/или направлению
func (s *NotificationService) SendBroadcast(ctx context.Context, text string, course *int, directionID *int64) (notify.Summary, error) {
	users, err := s.users.GetByFilter(ctx, course, directionID)
	if err != nil {
		return notify.Summary{}, fmt.Errorf("resolve broadcast recipients: %w", err)
	}

	items := make([]notify.Item, 0, len(users))
	for _, user := range users {
		items = append(items, notify.Item{
			TelegramID: user.TelegramID,
			Text:       text,
		})
	}

	summary, err := s.dispatcher.DeliverBatch(ctx, model.MessageTypeBroadcast, items)
	if err != nil {
		return summary, fmt.Errorf("broadcast delivery: %w", err)
	}

	s.logger.Info("Broadcast completed",
		zap.Int("recipients", len(items)),
		zap.Int("sent", summary.Sent),
		zap.Int("errors", summary.Errors),
	)

	return summary, nil
}
