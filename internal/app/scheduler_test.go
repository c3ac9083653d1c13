package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/studbot/timetable_bot/internal/model"
)

type fakeSlots struct {
	slots []model.TimeSlot
	err   error
}

func (f *fakeSlots) GetAll(ctx context.Context) ([]model.TimeSlot, error) {
	return f.slots, f.err
}

type fakeJobs struct {
	mu        sync.Mutex
	mornings  []time.Time
	reminders []model.TimeSlot
}

func (f *fakeJobs) SendMorning(ctx context.Context, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mornings = append(f.mornings, now)
	return nil
}

func (f *fakeJobs) SendReminder(ctx context.Context, now time.Time, slot model.TimeSlot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reminders = append(f.reminders, slot)
	return nil
}

func (f *fakeJobs) reminderSlots() []model.TimeSlot {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.TimeSlot, len(f.reminders))
	copy(out, f.reminders)
	return out
}

func testScheduler(t *testing.T, slots SlotSource, jobs Jobs) *Scheduler {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)
	return NewScheduler(jobs, slots, loc, 8, 0, 5*time.Minute, zap.NewNop())
}

func TestNextOccurrence_StrictlyFuture(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	// До утренней рассылки - сегодня
	now := time.Date(2026, 9, 7, 6, 30, 0, 0, loc)
	next := nextOccurrence(now, loc, 8, 0)
	assert.Equal(t, time.Date(2026, 9, 7, 8, 0, 0, 0, loc), next)

	// Ровно в момент рассылки - уже завтра, без повторного срабатывания
	now = time.Date(2026, 9, 7, 8, 0, 0, 0, loc)
	next = nextOccurrence(now, loc, 8, 0)
	assert.Equal(t, time.Date(2026, 9, 8, 8, 0, 0, 0, loc), next)

	// После - завтра: пропущенные срабатывания не навёрстываются
	now = time.Date(2026, 9, 7, 12, 0, 0, 0, loc)
	next = nextOccurrence(now, loc, 8, 0)
	assert.Equal(t, time.Date(2026, 9, 8, 8, 0, 0, 0, loc), next)
}

func TestNextOccurrence_MonthRollover(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	now := time.Date(2026, 9, 30, 23, 0, 0, 0, loc)
	next := nextOccurrence(now, loc, 8, 0)
	assert.Equal(t, time.Date(2026, 10, 1, 8, 0, 0, 0, loc), next)
}

func TestComputeTriggers_OnePerSlotPlusMorning(t *testing.T) {
	slots := &fakeSlots{slots: []model.TimeSlot{
		{ID: 1, SlotNumber: 1, StartTime: "09:00", EndTime: "10:30"},
		{ID: 2, SlotNumber: 2, StartTime: "10:40", EndTime: "12:10"},
	}}
	s := testScheduler(t, slots, &fakeJobs{})

	now := time.Date(2026, 9, 7, 6, 0, 0, 0, s.loc)
	triggers, err := s.computeTriggers(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, triggers, 3)

	assert.Equal(t, TriggerMorning, triggers[0].Kind)
	assert.Equal(t, time.Date(2026, 9, 7, 8, 0, 0, 0, s.loc), triggers[0].NextFireAt)

	// Напоминание за lead до начала слота
	assert.Equal(t, TriggerReminder, triggers[1].Kind)
	assert.Equal(t, time.Date(2026, 9, 7, 8, 55, 0, 0, s.loc), triggers[1].NextFireAt)
	assert.Equal(t, 1, triggers[1].Slot.SlotNumber)

	assert.Equal(t, time.Date(2026, 9, 7, 10, 35, 0, 0, s.loc), triggers[2].NextFireAt)
}

func TestComputeTriggers_SkipsInvalidSlot(t *testing.T) {
	slots := &fakeSlots{slots: []model.TimeSlot{
		{ID: 1, SlotNumber: 1, StartTime: "garbage", EndTime: "10:30"},
		{ID: 2, SlotNumber: 2, StartTime: "10:40", EndTime: "12:10"},
	}}
	s := testScheduler(t, slots, &fakeJobs{})

	triggers, err := s.computeTriggers(context.Background(), time.Now())
	require.NoError(t, err)
	require.Len(t, triggers, 2)
	assert.Equal(t, TriggerMorning, triggers[0].Kind)
	assert.Equal(t, 2, triggers[1].Slot.SlotNumber)
}

func TestComputeTriggers_SlotReadError(t *testing.T) {
	slots := &fakeSlots{err: errors.New("db down")}
	s := testScheduler(t, slots, &fakeJobs{})

	_, err := s.computeTriggers(context.Background(), time.Now())
	assert.Error(t, err)
}

func TestEarliest(t *testing.T) {
	base := time.Date(2026, 9, 7, 8, 0, 0, 0, time.UTC)
	triggers := []Trigger{
		{Kind: TriggerMorning, NextFireAt: base.Add(2 * time.Hour)},
		{Kind: TriggerReminder, NextFireAt: base.Add(30 * time.Minute)},
		{Kind: TriggerReminder, NextFireAt: base.Add(time.Hour)},
	}

	assert.Equal(t, base.Add(30*time.Minute), earliest(triggers))
}

func TestScheduler_FiresDueTrigger(t *testing.T) {
	jobs := &fakeJobs{}
	slot := model.TimeSlot{ID: 1, SlotNumber: 1, StartTime: "09:00", EndTime: "10:30"}
	s := testScheduler(t, &fakeSlots{slots: []model.TimeSlot{slot}}, jobs)

	// Виртуальные часы: за 20мс до напоминания слота
	target := time.Date(2026, 9, 7, 8, 55, 0, 0, s.loc)
	start := time.Now()
	s.now = func() time.Time {
		return target.Add(time.Since(start) - 20*time.Millisecond)
	}

	s.Start(context.Background())

	assert.Eventually(t, func() bool {
		return len(jobs.reminderSlots()) >= 1
	}, 2*time.Second, 10*time.Millisecond)

	s.Stop()

	got := jobs.reminderSlots()
	require.NotEmpty(t, got)
	assert.Equal(t, 1, got[0].SlotNumber)
}

func TestScheduler_StopWithoutFiring(t *testing.T) {
	jobs := &fakeJobs{}
	s := testScheduler(t, &fakeSlots{}, jobs)

	s.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	assert.Empty(t, jobs.mornings)
	assert.Empty(t, jobs.reminderSlots())
}
