package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/studbot/timetable_bot/internal/controller/state"
)

const maxNameLength = 100

// handleNameStep - шаг регистрации: ввод имени
func (h *Handlers) handleNameStep(ctx context.Context, b *bot.Bot, update *models.Update) {
	telegramID := update.Message.From.ID
	name := strings.TrimSpace(update.Message.Text)

	if name == "" || len([]rune(name)) > maxNameLength {
		h.reply(ctx, b, update.Message.Chat.ID, "Имя должно быть от 1 до 100 символов. Попробуй ещё раз:")
		return
	}

	h.stateManager.UpdateDraft(telegramID, func(d *state.Draft) {
		d.Name = name
	})
	h.stateManager.SetState(telegramID, state.StateRegistrationCourse)

	h.sendCourseKeyboard(ctx, b, update.Message.Chat.ID)
}

// sendCourseKeyboard отправляет выбор курса
func (h *Handlers) sendCourseKeyboard(ctx context.Context, b *bot.Bot, chatID int64) {
	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "1 курс", CallbackData: "reg_course:1"},
				{Text: "2 курс", CallbackData: "reg_course:2"},
			},
			{
				{Text: "3 курс", CallbackData: "reg_course:3"},
				{Text: "4 курс", CallbackData: "reg_course:4"},
			},
		},
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        "📚 На каком ты курсе?",
		ReplyMarkup: keyboard,
	})
}

// sendDirectionKeyboard отправляет выбор направления для курса
func (h *Handlers) sendDirectionKeyboard(ctx context.Context, b *bot.Bot, chatID int64, course int) {
	directions, err := h.userService.GetDirections(ctx, course)
	if err != nil {
		h.logger.Error("Failed to get directions", zap.Int("course", course), zap.Error(err))
		h.reply(ctx, b, chatID, "❌ Не удалось загрузить направления. Попробуйте позже.")
		return
	}

	if len(directions) == 0 {
		h.reply(ctx, b, chatID, "На этом курсе пока нет направлений. Обратись к администратору.")
		return
	}

	rows := make([][]models.InlineKeyboardButton, 0, len(directions))
	for _, d := range directions {
		rows = append(rows, []models.InlineKeyboardButton{
			{Text: d.Name, CallbackData: fmt.Sprintf("reg_dir:%d", d.ID)},
		})
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        "📍 Выбери своё направление:",
		ReplyMarkup: &models.InlineKeyboardMarkup{InlineKeyboard: rows},
	})
}

// sendRemindKeyboard отправляет выбор настройки напоминаний
func (h *Handlers) sendRemindKeyboard(ctx context.Context, b *bot.Bot, chatID int64) {
	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "Да, напоминай", CallbackData: "reg_remind:yes"},
				{Text: "Нет, не нужно", CallbackData: "reg_remind:no"},
			},
		},
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        "⏰ Присылать напоминание за 5 минут до начала пары?",
		ReplyMarkup: keyboard,
	})
}
