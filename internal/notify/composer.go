package notify

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/studbot/timetable_bot/internal/model"
)

var weekdayNames = [7]string{
	"Понедельник",
	"Вторник",
	"Среда",
	"Четверг",
	"Пятница",
	"Суббота",
	"Воскресенье",
}

// WeekdayName возвращает русское название дня недели (0 = понедельник)
func WeekdayName(dayOfWeek int) string {
	return weekdayNames[dayOfWeek]
}

// WeekdayIndex переводит time.Weekday в нумерацию с понедельника
func WeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// ComposeDaily собирает текст утренней рассылки. Чистая функция:
// одинаковые аргументы всегда дают байт-в-байт одинаковый текст.
// Пары выводятся строго по возрастанию номера слота.
func ComposeDaily(name string, dayOfWeek int, date time.Time, pairs []model.PairWithTime) string {
	header := fmt.Sprintf("📅 <b>%s, %s</b>", WeekdayName(dayOfWeek), date.Format("02.01.2006"))

	if len(pairs) == 0 {
		return fmt.Sprintf(
			"%s\n\nПривет, %s! 👋\n\nСегодня у тебя нет пар. Отдыхай! 😊",
			header, name,
		)
	}

	sorted := make([]model.PairWithTime, len(pairs))
	copy(sorted, pairs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SlotNumber < sorted[j].SlotNumber
	})

	var b strings.Builder
	b.WriteString(header)
	b.WriteString(fmt.Sprintf("\n\nПривет, %s! 👋\nВот твоё расписание на сегодня:\n", name))

	for _, p := range sorted {
		b.WriteString(fmt.Sprintf(
			"\n🕐 <b>%s - %s</b>\n📚 %s\n👨‍🏫 %s\n🏛 %s\n📝 %s\n",
			p.StartTime, p.EndTime, p.Title, p.Teacher, p.Room, p.Type,
		))
		if p.ExtraLink != nil && *p.ExtraLink != "" {
			b.WriteString(fmt.Sprintf("🔗 <a href='%s'>Ссылка на занятие</a>\n", *p.ExtraLink))
		}
	}

	b.WriteString("\nУдачного дня! 🍀")

	return b.String()
}

// ComposeReminder собирает текст напоминания о конкретной паре
func ComposeReminder(p model.PairWithTime, lead time.Duration) string {
	var b strings.Builder

	b.WriteString("⏰ <b>Напоминание!</b>\n\n")
	b.WriteString(fmt.Sprintf("Через %d минут начинается пара:\n\n", int(lead.Minutes())))
	b.WriteString(fmt.Sprintf(
		"🕐 %s - %s\n📚 <b>%s</b>\n👨‍🏫 %s\n🏛 %s",
		p.StartTime, p.EndTime, p.Title, p.Teacher, p.Room,
	))

	if p.ExtraLink != nil && *p.ExtraLink != "" {
		b.WriteString(fmt.Sprintf("\n\n🔗 <a href='%s'>Перейти к занятию</a>", *p.ExtraLink))
	}

	return b.String()
}
