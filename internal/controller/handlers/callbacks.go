package handlers

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/studbot/timetable_bot/internal/controller/state"
)

// HandleCallbackQuery маршрутизирует нажатия inline-кнопок по префиксу
func (h *Handlers) HandleCallbackQuery(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.CallbackQuery == nil {
		return
	}

	query := update.CallbackQuery
	if query.Message.Message == nil {
		return
	}

	data := query.Data
	telegramID := query.From.ID
	chatID := query.Message.Message.Chat.ID

	// Убираем "часики" на кнопке
	b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: query.ID,
	})

	prefix, value, _ := strings.Cut(data, ":")

	switch prefix {
	case "reg_course":
		h.handleCourseChosen(ctx, b, telegramID, chatID, value)
	case "reg_dir":
		h.handleDirectionChosen(ctx, b, telegramID, chatID, value)
	case "reg_remind":
		h.handleRemindChosen(ctx, b, telegramID, chatID, value)
	case "settings":
		h.handleSettingsAction(ctx, b, telegramID, chatID, value)
	default:
		h.logger.Warn("Unknown callback data", zap.String("data", data))
	}
}

func (h *Handlers) handleCourseChosen(ctx context.Context, b *bot.Bot, telegramID, chatID int64, value string) {
	if h.stateManager.GetState(telegramID) != state.StateRegistrationCourse {
		return
	}

	course, err := strconv.Atoi(value)
	if err != nil || course < 1 || course > 4 {
		h.logger.Warn("Invalid course callback", zap.String("value", value))
		return
	}

	h.stateManager.UpdateDraft(telegramID, func(d *state.Draft) {
		d.Course = course
	})
	h.stateManager.SetState(telegramID, state.StateRegistrationDirection)

	h.sendDirectionKeyboard(ctx, b, chatID, course)
}

func (h *Handlers) handleDirectionChosen(ctx context.Context, b *bot.Bot, telegramID, chatID int64, value string) {
	if h.stateManager.GetState(telegramID) != state.StateRegistrationDirection {
		return
	}

	directionID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		h.logger.Warn("Invalid direction callback", zap.String("value", value))
		return
	}

	draft := h.stateManager.GetDraft(telegramID)

	if draft.ChangeOnly {
		// Смена направления существующего пользователя
		if err := h.userService.UpdateDirection(ctx, telegramID, draft.Course, directionID); err != nil {
			h.logger.Error("Failed to update direction", zap.Error(err))
			h.reply(ctx, b, chatID, "❌ Не удалось сменить направление. Попробуйте позже.")
			return
		}

		h.stateManager.Clear(telegramID)
		h.reply(ctx, b, chatID, "✅ Направление обновлено! Со следующего утра придёт расписание новой группы.")
		return
	}

	h.stateManager.UpdateDraft(telegramID, func(d *state.Draft) {
		d.DirectionID = directionID
	})
	h.stateManager.SetState(telegramID, state.StateRegistrationRemind)

	h.sendRemindKeyboard(ctx, b, chatID)
}

func (h *Handlers) handleRemindChosen(ctx context.Context, b *bot.Bot, telegramID, chatID int64, value string) {
	if h.stateManager.GetState(telegramID) != state.StateRegistrationRemind {
		return
	}

	draft := h.stateManager.GetDraft(telegramID)
	remindBefore := value == "yes"

	user, err := h.userService.Register(ctx, telegramID, draft.Name, draft.Course, draft.DirectionID, remindBefore)
	if err != nil {
		h.logger.Error("Failed to register user", zap.Error(err))
		h.reply(ctx, b, chatID, "❌ Произошла ошибка при регистрации. Попробуйте позже.")
		return
	}

	h.stateManager.Clear(telegramID)

	remindText := "выключены"
	if remindBefore {
		remindText = "включены"
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text: fmt.Sprintf(
			"✅ <b>Регистрация завершена!</b>\n\n"+
				"👤 Имя: %s\n"+
				"📚 Курс: %d\n"+
				"⏰ Напоминания: %s\n\n"+
				"Теперь каждое утро в <b>08:00</b> я буду присылать расписание.\n"+
				"Используй /settings для изменения настроек.",
			user.Name, user.Course, remindText,
		),
		ParseMode: models.ParseModeHTML,
	})
}

func (h *Handlers) handleSettingsAction(ctx context.Context, b *bot.Bot, telegramID, chatID int64, action string) {
	switch action {
	case "remind_on", "remind_off":
		enabled := action == "remind_on"
		if err := h.userService.SetRemindBefore(ctx, telegramID, enabled); err != nil {
			h.logger.Error("Failed to toggle reminders", zap.Error(err))
			h.reply(ctx, b, chatID, "❌ Не удалось изменить настройку. Попробуйте позже.")
			return
		}
		if enabled {
			h.reply(ctx, b, chatID, "✅ Напоминания включены. Действует со следующей пары.")
		} else {
			h.reply(ctx, b, chatID, "✅ Напоминания выключены. Утренняя рассылка сохраняется.")
		}

	case "pause":
		keyboard := &models.InlineKeyboardMarkup{
			InlineKeyboard: [][]models.InlineKeyboardButton{
				{
					{Text: "На 1 день", CallbackData: "settings:pause_day"},
					{Text: "На неделю", CallbackData: "settings:pause_week"},
				},
				{{Text: "Бессрочно", CallbackData: "settings:pause_forever"}},
			},
		}
		b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      chatID,
			Text:        "📭 На какой срок поставить рассылку на паузу?",
			ReplyMarkup: keyboard,
		})

	case "pause_day":
		h.pauseFor(ctx, b, telegramID, chatID, 24*time.Hour, "на 1 день")
	case "pause_week":
		h.pauseFor(ctx, b, telegramID, chatID, 7*24*time.Hour, "на неделю")

	case "pause_forever":
		if err := h.userService.PauseIndefinitely(ctx, telegramID); err != nil {
			h.logger.Error("Failed to pause user", zap.Error(err))
			h.reply(ctx, b, chatID, "❌ Не удалось поставить паузу. Попробуйте позже.")
			return
		}
		h.reply(ctx, b, chatID, "📭 Рассылка на паузе. Вернуть её можно в /settings в любой момент.")

	case "resume":
		if err := h.userService.Resume(ctx, telegramID); err != nil {
			h.logger.Error("Failed to resume user", zap.Error(err))
			h.reply(ctx, b, chatID, "❌ Не удалось возобновить рассылку. Попробуйте позже.")
			return
		}
		h.reply(ctx, b, chatID, "📬 Рассылка возобновлена! Завтра утром придёт расписание.")

	case "change_dir":
		h.stateManager.UpdateDraft(telegramID, func(d *state.Draft) {
			d.ChangeOnly = true
		})
		h.stateManager.SetState(telegramID, state.StateRegistrationCourse)
		h.sendCourseKeyboard(ctx, b, chatID)

	default:
		h.logger.Warn("Unknown settings action", zap.String("action", action))
	}
}

func (h *Handlers) pauseFor(ctx context.Context, b *bot.Bot, telegramID, chatID int64, d time.Duration, label string) {
	if err := h.userService.PauseFor(ctx, telegramID, d); err != nil {
		h.logger.Error("Failed to pause user", zap.Error(err))
		h.reply(ctx, b, chatID, "❌ Не удалось поставить паузу. Попробуйте позже.")
		return
	}
	h.reply(ctx, b, chatID, fmt.Sprintf("📭 Рассылка на паузе %s. Вернуть раньше - /settings.", label))
}
