package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/studbot/timetable_bot/internal/model"
)

// fakeSender считает попытки отправки по каждому получателю и следит
// за числом одновременных вызовов Send.
type fakeSender struct {
	mu       sync.Mutex
	attempts map[int64]int

	inFlight    atomic.Int64
	maxInFlight atomic.Int64

	// fail возвращает ошибку для конкретной попытки (1-based) либо nil
	fail func(telegramID int64, attempt int) error
}

func newFakeSender(fail func(telegramID int64, attempt int) error) *fakeSender {
	return &fakeSender{
		attempts: make(map[int64]int),
		fail:     fail,
	}
}

func (s *fakeSender) Send(ctx context.Context, telegramID int64, text string) error {
	cur := s.inFlight.Add(1)
	for {
		max := s.maxInFlight.Load()
		if cur <= max || s.maxInFlight.CompareAndSwap(max, cur) {
			break
		}
	}
	defer s.inFlight.Add(-1)

	s.mu.Lock()
	s.attempts[telegramID]++
	attempt := s.attempts[telegramID]
	s.mu.Unlock()

	if s.fail != nil {
		return s.fail(telegramID, attempt)
	}
	return nil
}

func (s *fakeSender) attemptCount(telegramID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts[telegramID]
}

// fakeLog собирает записи журнала в память
type fakeLog struct {
	mu      sync.Mutex
	records []model.DeliveryRecord

	appendErr error
}

func (l *fakeLog) Append(ctx context.Context, rec *model.DeliveryRecord) error {
	if l.appendErr != nil {
		return l.appendErr
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, *rec)
	return nil
}

func (l *fakeLog) byTelegramID(telegramID int64) []model.DeliveryRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []model.DeliveryRecord
	for _, r := range l.records {
		if r.TelegramID == telegramID {
			out = append(out, r)
		}
	}
	return out
}

func (l *fakeLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

func makeItems(n int) []Item {
	items := make([]Item, n)
	for i := range items {
		items[i] = Item{TelegramID: int64(i + 1), Text: "hi"}
	}
	return items
}

func TestDeliverBatch_OneRecordPerItem(t *testing.T) {
	sender := newFakeSender(func(telegramID int64, attempt int) error {
		// Нечётные получатели падают всегда, чётные проходят сразу
		if telegramID%2 == 1 {
			return errors.New("network down")
		}
		return nil
	})
	log := &fakeLog{}

	d := NewDispatcher(sender, log, Options{BatchSize: 10, MaxRetries: 1}, zap.NewNop())

	summary, err := d.DeliverBatch(context.Background(), model.MessageTypeMorning, makeItems(20))
	require.NoError(t, err)

	assert.Equal(t, 10, summary.Sent)
	assert.Equal(t, 10, summary.Errors)
	assert.Equal(t, 20, log.count())

	for id := int64(1); id <= 20; id++ {
		recs := log.byTelegramID(id)
		require.Len(t, recs, 1, "telegram_id %d", id)
		assert.Equal(t, model.MessageTypeMorning, recs[0].MessageType)
		if id%2 == 1 {
			assert.Equal(t, model.DeliveryStatusError, recs[0].Status)
			require.NotNil(t, recs[0].ErrorMessage)
		} else {
			assert.Equal(t, model.DeliveryStatusSent, recs[0].Status)
			assert.Nil(t, recs[0].ErrorMessage)
		}
	}
}

func TestDeliverBatch_TransientErrorRecoversOnRetry(t *testing.T) {
	sender := newFakeSender(func(telegramID int64, attempt int) error {
		if attempt == 1 {
			return errors.New("timeout")
		}
		return nil
	})
	log := &fakeLog{}

	d := NewDispatcher(sender, log, Options{BatchSize: 30, MaxRetries: 1}, zap.NewNop())

	summary, err := d.DeliverBatch(context.Background(), model.MessageTypeReminder, makeItems(1))
	require.NoError(t, err)

	assert.Equal(t, Summary{Sent: 1, Errors: 0}, summary)
	assert.Equal(t, 2, sender.attemptCount(1))

	recs := log.byTelegramID(1)
	require.Len(t, recs, 1)
	assert.Equal(t, model.DeliveryStatusSent, recs[0].Status)
}

func TestDeliverBatch_RetryBudgetExhausted(t *testing.T) {
	sender := newFakeSender(func(telegramID int64, attempt int) error {
		return fmt.Errorf("attempt %d failed", attempt)
	})
	log := &fakeLog{}

	d := NewDispatcher(sender, log, Options{BatchSize: 30, MaxRetries: 1}, zap.NewNop())

	summary, err := d.DeliverBatch(context.Background(), model.MessageTypeBroadcast, makeItems(1))
	require.NoError(t, err)

	assert.Equal(t, Summary{Sent: 0, Errors: 1}, summary)
	// Исходная попытка + ровно один повтор
	assert.Equal(t, 2, sender.attemptCount(1))

	recs := log.byTelegramID(1)
	require.Len(t, recs, 1)
	assert.Equal(t, model.DeliveryStatusError, recs[0].Status)
	require.NotNil(t, recs[0].ErrorMessage)
	assert.Contains(t, *recs[0].ErrorMessage, "attempt 2")
}

func TestDeliverBatch_UnreachableRecipientNotRetried(t *testing.T) {
	sender := newFakeSender(func(telegramID int64, attempt int) error {
		return fmt.Errorf("send: %w", ErrRecipientUnreachable)
	})
	log := &fakeLog{}

	d := NewDispatcher(sender, log, Options{BatchSize: 30, MaxRetries: 1}, zap.NewNop())

	summary, err := d.DeliverBatch(context.Background(), model.MessageTypeMorning, makeItems(1))
	require.NoError(t, err)

	assert.Equal(t, Summary{Sent: 0, Errors: 1}, summary)
	assert.Equal(t, 1, sender.attemptCount(1))

	recs := log.byTelegramID(1)
	require.Len(t, recs, 1)
	assert.Equal(t, model.DeliveryStatusError, recs[0].Status)
}

func TestDeliverBatch_AuthErrorAbortsWithoutRecord(t *testing.T) {
	sender := newFakeSender(func(telegramID int64, attempt int) error {
		return fmt.Errorf("send: %w", ErrTransportAuth)
	})
	log := &fakeLog{}

	d := NewDispatcher(sender, log, Options{BatchSize: 30, MaxRetries: 1}, zap.NewNop())

	_, err := d.DeliverBatch(context.Background(), model.MessageTypeMorning, makeItems(3))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransportAuth)

	// Фатальная ошибка транспорта не оставляет строк в журнале
	assert.Equal(t, 0, log.count())
}

func TestDeliverBatch_RateLimitedRetriesAfterWait(t *testing.T) {
	sender := newFakeSender(func(telegramID int64, attempt int) error {
		if attempt == 1 {
			return &RateLimitedError{RetryAfter: 10 * time.Millisecond, Err: errors.New("429")}
		}
		return nil
	})
	log := &fakeLog{}

	d := NewDispatcher(sender, log, Options{BatchSize: 30, MaxRetries: 1}, zap.NewNop())

	start := time.Now()
	summary, err := d.DeliverBatch(context.Background(), model.MessageTypeMorning, makeItems(1))
	require.NoError(t, err)

	assert.Equal(t, Summary{Sent: 1, Errors: 0}, summary)
	assert.Equal(t, 2, sender.attemptCount(1))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestDeliverBatch_RateLimitedNoWaitOnLastAttempt(t *testing.T) {
	retryAfter := 80 * time.Millisecond
	sender := newFakeSender(func(telegramID int64, attempt int) error {
		return &RateLimitedError{RetryAfter: retryAfter, Err: errors.New("429")}
	})
	log := &fakeLog{}

	d := NewDispatcher(sender, log, Options{BatchSize: 30, MaxRetries: 1}, zap.NewNop())

	start := time.Now()
	summary, err := d.DeliverBatch(context.Background(), model.MessageTypeMorning, makeItems(1))
	require.NoError(t, err)
	elapsed := time.Since(start)

	assert.Equal(t, Summary{Sent: 0, Errors: 1}, summary)
	assert.Equal(t, 2, sender.attemptCount(1))

	// Пауза выдерживается перед повтором, но не после последней попытки
	assert.GreaterOrEqual(t, elapsed, retryAfter)
	assert.Less(t, elapsed, 2*retryAfter)
}

func TestDeliverBatch_PausesBetweenGroups(t *testing.T) {
	sender := newFakeSender(nil)
	log := &fakeLog{}

	delay := 30 * time.Millisecond
	d := NewDispatcher(sender, log, Options{BatchSize: 30, BatchDelay: delay, MaxRetries: 1}, zap.NewNop())

	start := time.Now()
	summary, err := d.DeliverBatch(context.Background(), model.MessageTypeMorning, makeItems(90))
	require.NoError(t, err)

	assert.Equal(t, 90, summary.Sent)
	// Три группы - две паузы между ними, после последней паузы нет
	assert.GreaterOrEqual(t, time.Since(start), 2*delay)
}

func TestDeliverBatch_GroupSizeBoundsConcurrency(t *testing.T) {
	sender := newFakeSender(nil)
	log := &fakeLog{}

	d := NewDispatcher(sender, log, Options{BatchSize: 30, MaxRetries: 1}, zap.NewNop())

	summary, err := d.DeliverBatch(context.Background(), model.MessageTypeMorning, makeItems(90))
	require.NoError(t, err)

	assert.Equal(t, 90, summary.Sent)
	assert.Equal(t, 90, log.count())
	assert.LessOrEqual(t, sender.maxInFlight.Load(), int64(30))
}

func TestDeliverBatch_LogFailureDoesNotFailDelivery(t *testing.T) {
	sender := newFakeSender(nil)
	log := &fakeLog{appendErr: errors.New("db down")}

	d := NewDispatcher(sender, log, Options{BatchSize: 30, MaxRetries: 1}, zap.NewNop())

	summary, err := d.DeliverBatch(context.Background(), model.MessageTypeMorning, makeItems(2))
	require.NoError(t, err)
	assert.Equal(t, Summary{Sent: 2, Errors: 0}, summary)
}

func TestDeliverBatch_EmptyItems(t *testing.T) {
	d := NewDispatcher(newFakeSender(nil), &fakeLog{}, Options{}, zap.NewNop())

	summary, err := d.DeliverBatch(context.Background(), model.MessageTypeMorning, nil)
	require.NoError(t, err)
	assert.Equal(t, Summary{}, summary)
}
