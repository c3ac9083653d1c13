package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/studbot/timetable_bot/internal/model"
	"github.com/studbot/timetable_bot/internal/notify"
	"github.com/studbot/timetable_bot/internal/repository"
)

type fakeDirectory struct {
	active    []*model.User
	activeErr error

	targets    []repository.ReminderTarget
	targetsErr error

	filtered []*model.User

	gotDay    int
	gotSlot   int
	gotCourse *int
	gotDir    *int64
}

func (f *fakeDirectory) GetActive(ctx context.Context) ([]*model.User, error) {
	return f.active, f.activeErr
}

func (f *fakeDirectory) GetReminderTargets(ctx context.Context, dayOfWeek, slotNumber int) ([]repository.ReminderTarget, error) {
	f.gotDay = dayOfWeek
	f.gotSlot = slotNumber
	return f.targets, f.targetsErr
}

func (f *fakeDirectory) GetByFilter(ctx context.Context, course *int, directionID *int64) ([]*model.User, error) {
	f.gotCourse = course
	f.gotDir = directionID
	return f.filtered, nil
}

type fakeCatalog struct {
	byDirection map[int64][]model.PairWithTime
	err         error
}

func (f *fakeCatalog) GetByDirectionAndDay(ctx context.Context, directionID int64, dayOfWeek int) ([]model.PairWithTime, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byDirection[directionID], nil
}

type fakeBatchDispatcher struct {
	calls []dispatchCall
	err   error
}

type dispatchCall struct {
	msgType model.MessageType
	items   []notify.Item
}

func (f *fakeBatchDispatcher) DeliverBatch(ctx context.Context, msgType model.MessageType, items []notify.Item) (notify.Summary, error) {
	f.calls = append(f.calls, dispatchCall{msgType: msgType, items: items})
	if f.err != nil {
		return notify.Summary{}, f.err
	}
	return notify.Summary{Sent: len(items)}, nil
}

// monday - понедельник в Europe/Moscow
var monday = time.Date(2026, 9, 7, 8, 0, 0, 0, time.FixedZone("MSK", 3*3600))

func samplePair(title string, slot int) model.PairWithTime {
	return model.PairWithTime{
		Pair:       model.Pair{Title: title, Teacher: "Иванов И.И.", Room: "205", Type: "Лекция"},
		SlotNumber: slot,
		StartTime:  "09:00",
		EndTime:    "10:30",
	}
}

func TestSendMorning_ComposesPerUser(t *testing.T) {
	users := &fakeDirectory{active: []*model.User{
		{ID: 1, TelegramID: 100, Name: "Маша", DirectionID: 1},
		{ID: 2, TelegramID: 200, Name: "Петя", DirectionID: 2},
	}}
	catalog := &fakeCatalog{byDirection: map[int64][]model.PairWithTime{
		1: {samplePair("Алгебра", 1)},
		// У направления 2 в понедельник пар нет
	}}
	dispatcher := &fakeBatchDispatcher{}

	s := NewNotificationService(users, catalog, dispatcher, 5*time.Minute, zap.NewNop())

	err := s.SendMorning(context.Background(), monday)
	require.NoError(t, err)

	require.Len(t, dispatcher.calls, 1)
	call := dispatcher.calls[0]
	assert.Equal(t, model.MessageTypeMorning, call.msgType)
	require.Len(t, call.items, 2)

	assert.Equal(t, int64(100), call.items[0].TelegramID)
	assert.Contains(t, call.items[0].Text, "Алгебра")

	// Пустой день - не пропуск, а отдельный вариант текста
	assert.Equal(t, int64(200), call.items[1].TelegramID)
	assert.Contains(t, call.items[1].Text, "нет пар")
}

func TestSendMorning_NoActiveUsers(t *testing.T) {
	dispatcher := &fakeBatchDispatcher{}
	s := NewNotificationService(&fakeDirectory{}, &fakeCatalog{}, dispatcher, 5*time.Minute, zap.NewNop())

	err := s.SendMorning(context.Background(), monday)
	require.NoError(t, err)
	assert.Empty(t, dispatcher.calls)
}

func TestSendMorning_RecipientResolutionFailureAborts(t *testing.T) {
	users := &fakeDirectory{activeErr: errors.New("db down")}
	dispatcher := &fakeBatchDispatcher{}
	s := NewNotificationService(users, &fakeCatalog{}, dispatcher, 5*time.Minute, zap.NewNop())

	err := s.SendMorning(context.Background(), monday)
	require.Error(t, err)

	// Рассылка не стартовала, журнал не тронут
	assert.Empty(t, dispatcher.calls)
}

func TestSendMorning_ScheduleResolutionFailureAborts(t *testing.T) {
	users := &fakeDirectory{active: []*model.User{{ID: 1, TelegramID: 100, Name: "Маша", DirectionID: 1}}}
	catalog := &fakeCatalog{err: errors.New("db down")}
	dispatcher := &fakeBatchDispatcher{}
	s := NewNotificationService(users, catalog, dispatcher, 5*time.Minute, zap.NewNop())

	err := s.SendMorning(context.Background(), monday)
	require.Error(t, err)
	assert.Empty(t, dispatcher.calls)
}

func TestSendReminder_TargetsResolvedAtFireTime(t *testing.T) {
	users := &fakeDirectory{targets: []repository.ReminderTarget{
		{
			User: model.User{ID: 1, TelegramID: 100, Name: "Маша"},
			Pair: samplePair("Алгебра", 1),
		},
	}}
	dispatcher := &fakeBatchDispatcher{}
	s := NewNotificationService(users, &fakeCatalog{}, dispatcher, 5*time.Minute, zap.NewNop())

	slot := model.TimeSlot{ID: 1, SlotNumber: 1, StartTime: "09:00", EndTime: "10:30"}
	err := s.SendReminder(context.Background(), monday, slot)
	require.NoError(t, err)

	assert.Equal(t, 0, users.gotDay)
	assert.Equal(t, 1, users.gotSlot)

	require.Len(t, dispatcher.calls, 1)
	call := dispatcher.calls[0]
	assert.Equal(t, model.MessageTypeReminder, call.msgType)
	require.Len(t, call.items, 1)
	assert.Equal(t, int64(100), call.items[0].TelegramID)
	assert.Contains(t, call.items[0].Text, "Через 5 минут")
	assert.Contains(t, call.items[0].Text, "Алгебра")
}

func TestSendReminder_OneItemPerUser(t *testing.T) {
	// Две пары одного направления в одном слоте - пользователь
	// получает одно напоминание и одну запись в журнале
	users := &fakeDirectory{targets: []repository.ReminderTarget{
		{
			User: model.User{ID: 1, TelegramID: 100, Name: "Маша"},
			Pair: samplePair("Алгебра", 1),
		},
		{
			User: model.User{ID: 1, TelegramID: 100, Name: "Маша"},
			Pair: samplePair("Физика", 1),
		},
		{
			User: model.User{ID: 2, TelegramID: 200, Name: "Петя"},
			Pair: samplePair("Алгебра", 1),
		},
	}}
	dispatcher := &fakeBatchDispatcher{}
	s := NewNotificationService(users, &fakeCatalog{}, dispatcher, 5*time.Minute, zap.NewNop())

	slot := model.TimeSlot{ID: 1, SlotNumber: 1, StartTime: "09:00", EndTime: "10:30"}
	err := s.SendReminder(context.Background(), monday, slot)
	require.NoError(t, err)

	require.Len(t, dispatcher.calls, 1)
	call := dispatcher.calls[0]
	require.Len(t, call.items, 2)
	assert.Equal(t, int64(100), call.items[0].TelegramID)
	assert.Contains(t, call.items[0].Text, "Алгебра")
	assert.Equal(t, int64(200), call.items[1].TelegramID)
}

func TestSendReminder_NoTargets(t *testing.T) {
	dispatcher := &fakeBatchDispatcher{}
	s := NewNotificationService(&fakeDirectory{}, &fakeCatalog{}, dispatcher, 5*time.Minute, zap.NewNop())

	slot := model.TimeSlot{ID: 3, SlotNumber: 3, StartTime: "12:40", EndTime: "14:10"}
	err := s.SendReminder(context.Background(), monday, slot)
	require.NoError(t, err)
	assert.Empty(t, dispatcher.calls)
}

func TestSendBroadcast_PassesFilterAndText(t *testing.T) {
	users := &fakeDirectory{filtered: []*model.User{
		{ID: 1, TelegramID: 100},
		{ID: 2, TelegramID: 200},
	}}
	dispatcher := &fakeBatchDispatcher{}
	s := NewNotificationService(users, &fakeCatalog{}, dispatcher, 5*time.Minute, zap.NewNop())

	course := 2
	summary, err := s.SendBroadcast(context.Background(), "Пары отменены", &course, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Sent)
	require.NotNil(t, users.gotCourse)
	assert.Equal(t, 2, *users.gotCourse)
	assert.Nil(t, users.gotDir)

	require.Len(t, dispatcher.calls, 1)
	call := dispatcher.calls[0]
	assert.Equal(t, model.MessageTypeBroadcast, call.msgType)
	require.Len(t, call.items, 2)
	assert.Equal(t, "Пары отменены", call.items[0].Text)
}

func TestSendBroadcast_DispatcherErrorPropagates(t *testing.T) {
	users := &fakeDirectory{filtered: []*model.User{{ID: 1, TelegramID: 100}}}
	dispatcher := &fakeBatchDispatcher{err: notify.ErrTransportAuth}
	s := NewNotificationService(users, &fakeCatalog{}, dispatcher, 5*time.Minute, zap.NewNop())

	_, err := s.SendBroadcast(context.Background(), "тест", nil, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, notify.ErrTransportAuth)
}
