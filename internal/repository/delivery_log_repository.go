package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studbot/timetable_bot/internal/model"
)

type DeliveryLogRepository struct {
	pool *pgxpool.Pool
}

func NewDeliveryLogRepository(pool *pgxpool.Pool) *DeliveryLogRepository {
	return &DeliveryLogRepository{pool: pool}
}

// Append добавляет запись в журнал доставки. Журнал append-only,
// строки независимы, поэтому конкурентные записи безопасны.
func (r *DeliveryLogRepository) Append(ctx context.Context, rec *model.DeliveryRecord) error {
	query := `
		INSERT INTO delivery_log (telegram_id, message_type, status, error_message, delivered_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	err := r.pool.QueryRow(
		ctx, query,
		rec.TelegramID,
		rec.MessageType,
		rec.Status,
		rec.ErrorMessage,
		rec.DeliveredAt,
	).Scan(&rec.ID)

	if err != nil {
		return fmt.Errorf("append delivery record: %w", err)
	}

	return nil
}

// LogFilter - фильтры выборки из журнала
type LogFilter struct {
	MessageType *model.MessageType
	Status      *model.DeliveryStatus
	From        *time.Time
	To          *time.Time
	Limit       int
}

// List получает записи журнала, новые первыми
func (r *DeliveryLogRepository) List(ctx context.Context, filter LogFilter) ([]model.DeliveryRecord, error) {
	query := `
		SELECT id, telegram_id, message_type, status, error_message, delivered_at
		FROM delivery_log
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.MessageType != nil {
		args = append(args, *filter.MessageType)
		query += fmt.Sprintf(" AND message_type = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND delivered_at >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND delivered_at < $%d", len(args))
	}

	query += " ORDER BY delivered_at DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list delivery records: %w", err)
	}
	defer rows.Close()

	var records []model.DeliveryRecord
	for rows.Next() {
		var rec model.DeliveryRecord
		err := rows.Scan(&rec.ID, &rec.TelegramID, &rec.MessageType, &rec.Status, &rec.ErrorMessage, &rec.DeliveredAt)
		if err != nil {
			return nil, fmt.Errorf("scan delivery record: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate delivery records: %w", err)
	}

	return records, nil
}

// Stats считает итоги доставки по типам сообщений за период
func (r *DeliveryLogRepository) Stats(ctx context.Context, filter LogFilter) ([]model.DeliveryStats, error) {
	query := `
		SELECT message_type,
		       COUNT(*) FILTER (WHERE status = 'sent') AS sent,
		       COUNT(*) FILTER (WHERE status = 'error') AS errors
		FROM delivery_log
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.MessageType != nil {
		args = append(args, *filter.MessageType)
		query += fmt.Sprintf(" AND message_type = $%d", len(args))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		query += fmt.Sprintf(" AND delivered_at >= $%d", len(args))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		query += fmt.Sprintf(" AND delivered_at < $%d", len(args))
	}

	query += " GROUP BY message_type ORDER BY message_type"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("delivery stats: %w", err)
	}
	defer rows.Close()

	var stats []model.DeliveryStats
	for rows.Next() {
		var s model.DeliveryStats
		if err := rows.Scan(&s.MessageType, &s.Sent, &s.Errors); err != nil {
			return nil, fmt.Errorf("scan delivery stats: %w", err)
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate delivery stats: %w", err)
	}

	return stats, nil
}
