package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studbot/timetable_bot/internal/model"
)

type SlotRepository struct {
	pool *pgxpool.Pool
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{pool: pool}
}

// GetAll получает все слоты по порядку номеров
func (r *SlotRepository) GetAll(ctx context.Context) ([]model.TimeSlot, error) {
	query := `SELECT id, slot_number, start_time, end_time FROM time_slots ORDER BY slot_number`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get time slots: %w", err)
	}
	defer rows.Close()

	var slots []model.TimeSlot
	for rows.Next() {
		var s model.TimeSlot
		if err := rows.Scan(&s.ID, &s.SlotNumber, &s.StartTime, &s.EndTime); err != nil {
			return nil, fmt.Errorf("scan time slot: %w", err)
		}
		slots = append(slots, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate time slots: %w", err)
	}

	return slots, nil
}

// GetByNumber получает слот по порядковому номеру
func (r *SlotRepository) GetByNumber(ctx context.Context, slotNumber int) (*model.TimeSlot, error) {
	query := `SELECT id, slot_number, start_time, end_time FROM time_slots WHERE slot_number = $1`

	var s model.TimeSlot
	err := r.pool.QueryRow(ctx, query, slotNumber).Scan(&s.ID, &s.SlotNumber, &s.StartTime, &s.EndTime)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get time slot by number: %w", err)
	}

	return &s, nil
}

// UpdateTimes меняет время слота. Планировщик подхватит изменение
// на следующем цикле - уже запланированное срабатывание не двигается.
func (r *SlotRepository) UpdateTimes(ctx context.Context, slotNumber int, startTime, endTime string) error {
	if _, _, err := model.ParseClock(startTime); err != nil {
		return fmt.Errorf("invalid start_time: %w", err)
	}
	if _, _, err := model.ParseClock(endTime); err != nil {
		return fmt.Errorf("invalid end_time: %w", err)
	}

	query := `UPDATE time_slots SET start_time = $1, end_time = $2 WHERE slot_number = $3`

	result, err := r.pool.Exec(ctx, query, startTime, endTime, slotNumber)
	if err != nil {
		return fmt.Errorf("update time slot: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("time slot not found")
	}

	return nil
}
