package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeSlot - фиксированный интервал учебного дня.
// Времена хранятся строками HH:MM в локальной (civil) таймзоне.
type TimeSlot struct {
	ID         int64  `json:"id"`
	SlotNumber int    `json:"slot_number"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
}

// ParseClock разбирает строку HH:MM в часы и минуты
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid clock value %q", s)
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}

	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}

	return hour, minute, nil
}

// StartClock возвращает начало слота как часы и минуты
func (ts *TimeSlot) StartClock() (hour, minute int, err error) {
	return ParseClock(ts.StartTime)
}

// ReminderClock возвращает время напоминания: начало слота минус lead.
// Переход через полночь корректно заворачивается.
func (ts *TimeSlot) ReminderClock(lead time.Duration) (hour, minute int, err error) {
	h, m, err := ts.StartClock()
	if err != nil {
		return 0, 0, err
	}

	total := h*60 + m - int(lead.Minutes())
	for total < 0 {
		total += 24 * 60
	}

	return total / 60, total % 60, nil
}
