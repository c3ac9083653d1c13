package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studbot/timetable_bot/internal/model"
)

const pairWithTimeColumns = `
	p.id, p.title, p.teacher, p.room, p.type, p.day_of_week, p.time_slot_id, p.extra_link, p.created_at, p.updated_at,
	ts.slot_number, ts.start_time, ts.end_time
`

type PairRepository struct {
	pool *pgxpool.Pool
}

func NewPairRepository(pool *pgxpool.Pool) *PairRepository {
	return &PairRepository{pool: pool}
}

// GetByDirectionAndDay получает пары направления на день недели,
// отсортированные по номеру слота
func (r *PairRepository) GetByDirectionAndDay(ctx context.Context, directionID int64, dayOfWeek int) ([]model.PairWithTime, error) {
	query := `
		SELECT ` + pairWithTimeColumns + `
		FROM pairs p
		JOIN pair_assignments pa ON pa.pair_id = p.id
		JOIN time_slots ts ON ts.id = p.time_slot_id
		WHERE pa.direction_id = $1 AND p.day_of_week = $2
		ORDER BY ts.slot_number
	`

	rows, err := r.pool.Query(ctx, query, directionID, dayOfWeek)
	if err != nil {
		return nil, fmt.Errorf("get pairs by direction and day: %w", err)
	}
	defer rows.Close()

	return collectPairs(rows)
}

// GetAll получает все пары с временем слотов
func (r *PairRepository) GetAll(ctx context.Context) ([]model.PairWithTime, error) {
	query := `
		SELECT ` + pairWithTimeColumns + `
		FROM pairs p
		JOIN time_slots ts ON ts.id = p.time_slot_id
		ORDER BY p.day_of_week, ts.slot_number
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all pairs: %w", err)
	}
	defer rows.Close()

	return collectPairs(rows)
}

// GetByID получает пару по ID
func (r *PairRepository) GetByID(ctx context.Context, id int64) (*model.PairWithTime, error) {
	query := `
		SELECT ` + pairWithTimeColumns + `
		FROM pairs p
		JOIN time_slots ts ON ts.id = p.time_slot_id
		WHERE p.id = $1
	`

	var p model.PairWithTime
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&p.ID, &p.Title, &p.Teacher, &p.Room, &p.Type, &p.DayOfWeek, &p.TimeSlotID, &p.ExtraLink, &p.CreatedAt, &p.UpdatedAt,
		&p.SlotNumber, &p.StartTime, &p.EndTime,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get pair by id: %w", err)
	}

	return &p, nil
}

// Create создаёт пару и привязывает её к направлениям в одной транзакции.
// Пара без направлений допустима - она просто никому не рассылается.
func (r *PairRepository) Create(ctx context.Context, pair *model.Pair, directionIDs []int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO pairs (title, teacher, room, type, day_of_week, time_slot_id, extra_link)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err = tx.QueryRow(
		ctx, query,
		pair.Title, pair.Teacher, pair.Room, pair.Type, pair.DayOfWeek, pair.TimeSlotID, pair.ExtraLink,
	).Scan(&pair.ID, &pair.CreatedAt, &pair.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create pair: %w", err)
	}

	for _, directionID := range directionIDs {
		_, err = tx.Exec(ctx,
			`INSERT INTO pair_assignments (pair_id, direction_id) VALUES ($1, $2)`,
			pair.ID, directionID,
		)
		if err != nil {
			return fmt.Errorf("assign pair to direction %d: %w", directionID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create pair: %w", err)
	}

	return nil
}

// Update обновляет пару; directionIDs == nil оставляет привязки как есть
func (r *PairRepository) Update(ctx context.Context, pair *model.Pair, directionIDs []int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE pairs
		SET title = $1, teacher = $2, room = $3, type = $4, day_of_week = $5, time_slot_id = $6, extra_link = $7, updated_at = now()
		WHERE id = $8
	`

	result, err := tx.Exec(
		ctx, query,
		pair.Title, pair.Teacher, pair.Room, pair.Type, pair.DayOfWeek, pair.TimeSlotID, pair.ExtraLink, pair.ID,
	)
	if err != nil {
		return fmt.Errorf("update pair: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("pair not found")
	}

	if directionIDs != nil {
		_, err = tx.Exec(ctx, `DELETE FROM pair_assignments WHERE pair_id = $1`, pair.ID)
		if err != nil {
			return fmt.Errorf("clear pair assignments: %w", err)
		}

		for _, directionID := range directionIDs {
			_, err = tx.Exec(ctx,
				`INSERT INTO pair_assignments (pair_id, direction_id) VALUES ($1, $2)`,
				pair.ID, directionID,
			)
			if err != nil {
				return fmt.Errorf("assign pair to direction %d: %w", directionID, err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit update pair: %w", err)
	}

	return nil
}

// Delete удаляет пару, привязки уходят каскадом
func (r *PairRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM pairs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete pair: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("pair not found")
	}

	return nil
}

// GetAssignedDirections получает ID направлений, привязанных к паре
func (r *PairRepository) GetAssignedDirections(ctx context.Context, pairID int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT direction_id FROM pair_assignments WHERE pair_id = $1 ORDER BY direction_id`,
		pairID,
	)
	if err != nil {
		return nil, fmt.Errorf("get pair directions: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan direction id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate direction ids: %w", err)
	}

	return ids, nil
}

func collectPairs(rows pgx.Rows) ([]model.PairWithTime, error) {
	var pairs []model.PairWithTime
	for rows.Next() {
		var p model.PairWithTime
		err := rows.Scan(
			&p.ID, &p.Title, &p.Teacher, &p.Room, &p.Type, &p.DayOfWeek, &p.TimeSlotID, &p.ExtraLink, &p.CreatedAt, &p.UpdatedAt,
			&p.SlotNumber, &p.StartTime, &p.EndTime,
		)
		if err != nil {
			return nil, fmt.Errorf("scan pair: %w", err)
		}
		pairs = append(pairs, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pairs: %w", err)
	}

	return pairs, nil
}
