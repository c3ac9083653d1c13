package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/studbot/timetable_bot/internal/model"
)

const userColumns = `id, telegram_id, name, course, direction_id, remind_before, paused_until, paused_indefinitely, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create создаёт нового пользователя
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (telegram_id, name, course, direction_id, remind_before)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(
		ctx, query,
		user.TelegramID,
		user.Name,
		user.Course,
		user.DirectionID,
		user.RemindBefore,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// GetByTelegramID получает пользователя по Telegram ID
func (r *UserRepository) GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_id = $1`

	user, err := scanUser(r.pool.QueryRow(ctx, query, telegramID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil // Пользователь не найден
		}
		return nil, fmt.Errorf("get user by telegram id: %w", err)
	}

	return user, nil
}

// Update обновляет профиль пользователя
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET name = $1, course = $2, direction_id = $3, remind_before = $4, updated_at = now()
		WHERE telegram_id = $5
	`

	result, err := r.pool.Exec(
		ctx, query,
		user.Name,
		user.Course,
		user.DirectionID,
		user.RemindBefore,
		user.TelegramID,
	)

	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// SetRemindBefore включает или выключает напоминания
func (r *UserRepository) SetRemindBefore(ctx context.Context, telegramID int64, enabled bool) error {
	query := `UPDATE users SET remind_before = $1, updated_at = now() WHERE telegram_id = $2`

	result, err := r.pool.Exec(ctx, query, enabled, telegramID)
	if err != nil {
		return fmt.Errorf("set remind_before: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// Pause приостанавливает рассылку. until == nil вместе с
// indefinitely == true означает паузу без срока.
func (r *UserRepository) Pause(ctx context.Context, telegramID int64, until *time.Time, indefinitely bool) error {
	query := `
		UPDATE users
		SET paused_until = $1, paused_indefinitely = $2, updated_at = now()
		WHERE telegram_id = $3
	`

	result, err := r.pool.Exec(ctx, query, until, indefinitely, telegramID)
	if err != nil {
		return fmt.Errorf("pause user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// Resume снимает паузу рассылки
func (r *UserRepository) Resume(ctx context.Context, telegramID int64) error {
	return r.Pause(ctx, telegramID, nil, false)
}

// UpdateDirection меняет курс и направление пользователя
func (r *UserRepository) UpdateDirection(ctx context.Context, telegramID int64, course int, directionID int64) error {
	query := `
		UPDATE users
		SET course = $1, direction_id = $2, updated_at = now()
		WHERE telegram_id = $3
	`

	result, err := r.pool.Exec(ctx, query, course, directionID, telegramID)
	if err != nil {
		return fmt.Errorf("update direction: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}

// GetActive получает всех пользователей с активной рассылкой.
// Всегда читает живое состояние - изменения настроек действуют
// со следующего срабатывания.
func (r *UserRepository) GetActive(ctx context.Context) ([]*model.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE NOT paused_indefinitely
		  AND (paused_until IS NULL OR paused_until < now())
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get active users: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

// ReminderTarget - пользователь вместе с парой, о которой его
// нужно предупредить
type ReminderTarget struct {
	User model.User
	Pair model.PairWithTime
}

// GetReminderTargets получает пользователей, которым нужно напоминание
// для слота: активные, с включёнными напоминаниями и с парой их
// направления в (день, слот). Ровно одна строка на пользователя: если
// в слоте у направления несколько пар, берётся пара с меньшим id.
func (r *UserRepository) GetReminderTargets(ctx context.Context, dayOfWeek, slotNumber int) ([]ReminderTarget, error) {
	query := `
		SELECT DISTINCT ON (u.id)
		       u.id, u.telegram_id, u.name, u.course, u.direction_id, u.remind_before, u.paused_until, u.paused_indefinitely, u.created_at, u.updated_at,
		       p.id, p.title, p.teacher, p.room, p.type, p.day_of_week, p.time_slot_id, p.extra_link, p.created_at, p.updated_at,
		       ts.slot_number, ts.start_time, ts.end_time
		FROM users u
		JOIN pair_assignments pa ON pa.direction_id = u.direction_id
		JOIN pairs p ON p.id = pa.pair_id
		JOIN time_slots ts ON ts.id = p.time_slot_id
		WHERE NOT u.paused_indefinitely
		  AND (u.paused_until IS NULL OR u.paused_until < now())
		  AND u.remind_before
		  AND p.day_of_week = $1
		  AND ts.slot_number = $2
		ORDER BY u.id, p.id
	`

	rows, err := r.pool.Query(ctx, query, dayOfWeek, slotNumber)
	if err != nil {
		return nil, fmt.Errorf("get reminder targets: %w", err)
	}
	defer rows.Close()

	var targets []ReminderTarget
	for rows.Next() {
		var t ReminderTarget
		err := rows.Scan(
			&t.User.ID,
			&t.User.TelegramID,
			&t.User.Name,
			&t.User.Course,
			&t.User.DirectionID,
			&t.User.RemindBefore,
			&t.User.PausedUntil,
			&t.User.PausedIndefinitely,
			&t.User.CreatedAt,
			&t.User.UpdatedAt,
			&t.Pair.ID,
			&t.Pair.Title,
			&t.Pair.Teacher,
			&t.Pair.Room,
			&t.Pair.Type,
			&t.Pair.DayOfWeek,
			&t.Pair.TimeSlotID,
			&t.Pair.ExtraLink,
			&t.Pair.CreatedAt,
			&t.Pair.UpdatedAt,
			&t.Pair.SlotNumber,
			&t.Pair.StartTime,
			&t.Pair.EndTime,
		)
		if err != nil {
			return nil, fmt.Errorf("scan reminder target: %w", err)
		}
		targets = append(targets, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reminder targets: %w", err)
	}

	return targets, nil
}

// GetByFilter получает активных пользователей с фильтром по курсу
// и/или направлению (для рассылки оператора)
func (r *UserRepository) GetByFilter(ctx context.Context, course *int, directionID *int64) ([]*model.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE NOT paused_indefinitely
		  AND (paused_until IS NULL OR paused_until < now())
	`
	args := []interface{}{}

	if course != nil {
		args = append(args, *course)
		query += fmt.Sprintf(" AND course = $%d", len(args))
	}

	if directionID != nil {
		args = append(args, *directionID)
		query += fmt.Sprintf(" AND direction_id = $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get users by filter: %w", err)
	}
	defer rows.Close()

	return collectUsers(rows)
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.TelegramID,
		&user.Name,
		&user.Course,
		&user.DirectionID,
		&user.RemindBefore,
		&user.PausedUntil,
		&user.PausedIndefinitely,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func collectUsers(rows pgx.Rows) ([]*model.User, error) {
	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}
