package model

import "time"

// Pair - занятие в расписании. Привязано к дню недели и номеру слота,
// видимость для направлений задаётся через pair_assignments.
type Pair struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Teacher    string    `json:"teacher"`
	Room       string    `json:"room"`
	Type       string    `json:"type"` // Лекция, Семинар и т.д.
	DayOfWeek  int       `json:"day_of_week"` // 0 = понедельник
	TimeSlotID int64     `json:"time_slot_id"`
	ExtraLink  *string   `json:"extra_link"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PairWithTime - занятие вместе со временем его слота, как отдаёт каталог
type PairWithTime struct {
	Pair
	SlotNumber int    `json:"slot_number"`
	StartTime  string `json:"start_time"` // HH:MM
	EndTime    string `json:"end_time"`   // HH:MM
}
