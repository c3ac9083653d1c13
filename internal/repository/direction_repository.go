package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studbot/timetable_bot/internal/model"
)

type DirectionRepository struct {
	pool *pgxpool.Pool
}

func NewDirectionRepository(pool *pgxpool.Pool) *DirectionRepository {
	return &DirectionRepository{pool: pool}
}

// Create создаёт новое направление
func (r *DirectionRepository) Create(ctx context.Context, direction *model.Direction) error {
	query := `
		INSERT INTO directions (name, course)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query, direction.Name, direction.Course).
		Scan(&direction.ID, &direction.CreatedAt)
	if err != nil {
		return fmt.Errorf("create direction: %w", err)
	}

	return nil
}

// GetAll получает все направления
func (r *DirectionRepository) GetAll(ctx context.Context) ([]model.Direction, error) {
	query := `SELECT id, name, course, created_at FROM directions ORDER BY course, name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get directions: %w", err)
	}
	defer rows.Close()

	var directions []model.Direction
	for rows.Next() {
		var d model.Direction
		if err := rows.Scan(&d.ID, &d.Name, &d.Course, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan direction: %w", err)
		}
		directions = append(directions, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate directions: %w", err)
	}

	return directions, nil
}

// GetByID получает направление по ID
func (r *DirectionRepository) GetByID(ctx context.Context, id int64) (*model.Direction, error) {
	query := `SELECT id, name, course, created_at FROM directions WHERE id = $1`

	var d model.Direction
	err := r.pool.QueryRow(ctx, query, id).Scan(&d.ID, &d.Name, &d.Course, &d.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get direction by id: %w", err)
	}

	return &d, nil
}

// GetByCourse получает направления курса
func (r *DirectionRepository) GetByCourse(ctx context.Context, course int) ([]model.Direction, error) {
	query := `SELECT id, name, course, created_at FROM directions WHERE course = $1 ORDER BY name`

	rows, err := r.pool.Query(ctx, query, course)
	if err != nil {
		return nil, fmt.Errorf("get directions by course: %w", err)
	}
	defer rows.Close()

	var directions []model.Direction
	for rows.Next() {
		var d model.Direction
		if err := rows.Scan(&d.ID, &d.Name, &d.Course, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan direction: %w", err)
		}
		directions = append(directions, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate directions: %w", err)
	}

	return directions, nil
}

// Update переименовывает направление
func (r *DirectionRepository) Update(ctx context.Context, direction *model.Direction) error {
	query := `UPDATE directions SET name = $1, course = $2 WHERE id = $3`

	result, err := r.pool.Exec(ctx, query, direction.Name, direction.Course, direction.ID)
	if err != nil {
		return fmt.Errorf("update direction: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("direction not found")
	}

	return nil
}

// Delete удаляет направление
func (r *DirectionRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM directions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete direction: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("direction not found")
	}

	return nil
}
