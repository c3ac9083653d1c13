package model

import "time"

type User struct {
	ID                 int64      `json:"id"`
	TelegramID         int64      `json:"telegram_id"`
	Name               string     `json:"name"`
	Course             int        `json:"course"`
	DirectionID        int64      `json:"direction_id"`
	RemindBefore       bool       `json:"remind_before"`       // Напоминания за 5 минут до пары
	PausedUntil        *time.Time `json:"paused_until"`        // nil - рассылка активна
	PausedIndefinitely bool       `json:"paused_indefinitely"` // Пауза без срока, имеет приоритет над paused_until
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// IsActive сообщает получает ли пользователь рассылку в момент now
func (u *User) IsActive(now time.Time) bool {
	if u.PausedIndefinitely {
		return false
	}
	return u.PausedUntil == nil || u.PausedUntil.Before(now)
}
