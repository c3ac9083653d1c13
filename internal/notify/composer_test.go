package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studbot/timetable_bot/internal/model"
)

func samplePairs() []model.PairWithTime {
	link := "https://example.com/algebra"
	return []model.PairWithTime{
		{
			Pair:       model.Pair{Title: "Физика", Teacher: "Петров П.П.", Room: "301", Type: "Лекция"},
			SlotNumber: 3,
			StartTime:  "12:40",
			EndTime:    "14:10",
		},
		{
			Pair:       model.Pair{Title: "Алгебра", Teacher: "Иванов И.И.", Room: "205", Type: "Семинар", ExtraLink: &link},
			SlotNumber: 1,
			StartTime:  "09:00",
			EndTime:    "10:30",
		},
		{
			Pair:       model.Pair{Title: "История", Teacher: "Сидорова А.А.", Room: "110", Type: "Лекция"},
			SlotNumber: 2,
			StartTime:  "10:40",
			EndTime:    "12:10",
		},
	}
}

func TestComposeDaily_OrdersPairsBySlot(t *testing.T) {
	date := time.Date(2026, 9, 7, 8, 0, 0, 0, time.UTC)

	text := ComposeDaily("Маша", 0, date, samplePairs())

	assert.Contains(t, text, "Понедельник, 07.09.2026")
	assert.Contains(t, text, "Привет, Маша!")

	first := strings.Index(text, "Алгебра")
	second := strings.Index(text, "История")
	third := strings.Index(text, "Физика")
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	require.NotEqual(t, -1, third)
	assert.Less(t, first, second)
	assert.Less(t, second, third)

	assert.Contains(t, text, "https://example.com/algebra")
}

func TestComposeDaily_Deterministic(t *testing.T) {
	date := time.Date(2026, 9, 8, 8, 0, 0, 0, time.UTC)
	pairs := samplePairs()

	a := ComposeDaily("Петя", 1, date, pairs)
	b := ComposeDaily("Петя", 1, date, pairs)

	assert.Equal(t, a, b)
}

func TestComposeDaily_DoesNotMutateInput(t *testing.T) {
	pairs := samplePairs()
	ComposeDaily("Петя", 1, time.Now(), pairs)

	assert.Equal(t, 3, pairs[0].SlotNumber)
	assert.Equal(t, 1, pairs[1].SlotNumber)
}

func TestComposeDaily_EmptyDay(t *testing.T) {
	date := time.Date(2026, 9, 12, 8, 0, 0, 0, time.UTC)

	text := ComposeDaily("Маша", 5, date, nil)

	assert.Contains(t, text, "Суббота, 12.09.2026")
	assert.Contains(t, text, "Сегодня у тебя нет пар")
	assert.NotContains(t, text, "🕐")
}

func TestComposeReminder(t *testing.T) {
	p := samplePairs()[1]

	text := ComposeReminder(p, 5*time.Minute)

	assert.Contains(t, text, "Напоминание")
	assert.Contains(t, text, "Через 5 минут")
	assert.Contains(t, text, "Алгебра")
	assert.Contains(t, text, "09:00 - 10:30")
	assert.Contains(t, text, "https://example.com/algebra")
}

func TestWeekdayIndex(t *testing.T) {
	// 7 сентября 2026 - понедельник
	monday := time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 7; i++ {
		assert.Equal(t, i, WeekdayIndex(monday.AddDate(0, 0, i)))
	}
}
