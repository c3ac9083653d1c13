package notify

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/studbot/timetable_bot/internal/model"
)

// Sender отправляет одно сообщение получателю. Реализация обязана
// классифицировать ошибки через ErrRecipientUnreachable, ErrTransportAuth
// и RateLimitedError; всё остальное считается временным сбоем.
type Sender interface {
	Send(ctx context.Context, telegramID int64, text string) error
}

// DeliveryLog - журнал доставки, в который диспетчер пишет итоги
type DeliveryLog interface {
	Append(ctx context.Context, rec *model.DeliveryRecord) error
}

// Item - одно сообщение для отправки
type Item struct {
	TelegramID int64
	Text       string
}

// Summary - агрегированный результат рассылки
type Summary struct {
	Sent   int
	Errors int
}

// Options - настройки диспетчера, передаются при создании и не меняются
type Options struct {
	BatchSize  int           // сообщений в группе, отправляются параллельно
	BatchDelay time.Duration // пауза между группами
	MaxRetries int           // повторов на сообщение (по умолчанию 1)
}

// Dispatcher отправляет пачку сообщений группами с ограничением
// параллелизма и паузой между группами, чтобы не упереться в лимиты
// Telegram. Каждое сообщение получает ровно одну запись в журнале
// доставки - с финальным итогом после ретрая.
type Dispatcher struct {
	sender Sender
	log    DeliveryLog
	opts   Options
	logger *zap.Logger
	now    func() time.Time
}

func NewDispatcher(sender Sender, log DeliveryLog, opts Options, logger *zap.Logger) *Dispatcher {
	if opts.BatchSize < 1 {
		opts.BatchSize = 30
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 1
	}

	return &Dispatcher{
		sender: sender,
		log:    log,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

// DeliverBatch отправляет все items группами. Ошибки отдельных сообщений
// не прерывают рассылку - наружу уходит только фатальная ошибка
// транспорта (ErrTransportAuth) или отмена контекста.
func (d *Dispatcher) DeliverBatch(ctx context.Context, msgType model.MessageType, items []Item) (Summary, error) {
	var sent, failed atomic.Int64

	for start := 0; start < len(items); start += d.opts.BatchSize {
		end := start + d.opts.BatchSize
		if end > len(items) {
			end = len(items)
		}

		group, gctx := errgroup.WithContext(ctx)
		for _, item := range items[start:end] {
			item := item
			group.Go(func() error {
				outcome, err := d.deliverOne(gctx, msgType, item)
				if err != nil {
					return err
				}
				if outcome == model.DeliveryStatusSent {
					sent.Add(1)
				} else {
					failed.Add(1)
				}
				return nil
			})
		}

		if err := group.Wait(); err != nil {
			return d.summary(&sent, &failed), fmt.Errorf("deliver %s batch: %w", msgType, err)
		}

		// Пауза между группами, после последней не нужна
		if end < len(items) {
			select {
			case <-ctx.Done():
				return d.summary(&sent, &failed), ctx.Err()
			case <-time.After(d.opts.BatchDelay):
			}
		}
	}

	summary := d.summary(&sent, &failed)
	d.logger.Info("Batch delivery completed",
		zap.String("message_type", string(msgType)),
		zap.Int("sent", summary.Sent),
		zap.Int("errors", summary.Errors),
	)

	return summary, nil
}

func (d *Dispatcher) summary(sent, failed *atomic.Int64) Summary {
	return Summary{Sent: int(sent.Load()), Errors: int(failed.Load())}
}

// deliverOne отправляет одно сообщение с ретраем и пишет итог в журнал.
// Возвращает ошибку только если рассылку надо прервать целиком.
func (d *Dispatcher) deliverOne(ctx context.Context, msgType model.MessageType, item Item) (model.DeliveryStatus, error) {
	sendErr := d.trySend(ctx, item)

	if sendErr != nil && errors.Is(sendErr, ErrTransportAuth) {
		// Токен невалиден - дальше слать бессмысленно
		return "", sendErr
	}

	rec := &model.DeliveryRecord{
		TelegramID:  item.TelegramID,
		MessageType: msgType,
		Status:      model.DeliveryStatusSent,
		DeliveredAt: d.now(),
	}

	if sendErr != nil {
		msg := sendErr.Error()
		rec.Status = model.DeliveryStatusError
		rec.ErrorMessage = &msg

		d.logger.Warn("Message delivery failed",
			zap.Int64("telegram_id", item.TelegramID),
			zap.String("message_type", string(msgType)),
			zap.Error(sendErr),
		)
	}

	if err := d.log.Append(ctx, rec); err != nil {
		// Потеря строки журнала не должна валить рассылку
		d.logger.Error("Failed to append delivery record",
			zap.Int64("telegram_id", item.TelegramID),
			zap.Error(err),
		)
	}

	return rec.Status, nil
}

// trySend выполняет отправку с не более чем MaxRetries повторами.
// Повтор немедленный; для rate limit сначала выдерживается retry-after.
func (d *Dispatcher) trySend(ctx context.Context, item Item) error {
	backoff := retry.WithMaxRetries(
		uint64(d.opts.MaxRetries),
		retry.BackoffFunc(func() (time.Duration, bool) { return 0, false }),
	)

	attempt := 0

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++

		err := d.sender.Send(ctx, item.TelegramID, item.Text)
		if err == nil {
			return nil
		}

		var limited *RateLimitedError
		switch {
		case errors.Is(err, ErrRecipientUnreachable), errors.Is(err, ErrTransportAuth):
			// Ретрай не поможет
			return err
		case errors.As(err, &limited):
			// Ждём retry-after только если повтор ещё будет,
			// после последней попытки ждать нечего
			if attempt <= d.opts.MaxRetries {
				wait := limited.RetryAfter
				if wait <= 0 {
					wait = time.Second
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(wait):
				}
			}
			return retry.RetryableError(err)
		default:
			// Сетевой сбой или 5xx
			return retry.RetryableError(err)
		}
	})
}
