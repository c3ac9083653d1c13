package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/studbot/timetable_bot/internal/controller/state"
	"github.com/studbot/timetable_bot/internal/notify"
	"github.com/studbot/timetable_bot/internal/repository"
)

// HandleStart обрабатывает команду /start - начало регистрации
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	telegramID := update.Message.From.ID

	existing, err := h.userService.GetByTelegramID(ctx, telegramID)
	if err != nil {
		h.logger.Error("Failed to check user", zap.Error(err))
		h.reply(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка. Попробуйте позже.")
		return
	}

	if existing != nil {
		h.reply(ctx, b, update.Message.Chat.ID,
			fmt.Sprintf("👋 Привет, %s!\n\n"+
				"Ты уже зарегистрирован и получаешь расписание каждое утро.\n\n"+
				"/today - расписание на сегодня\n"+
				"/settings - настройки рассылки\n"+
				"/help - справка", existing.Name))
		return
	}

	h.stateManager.SetState(telegramID, state.StateRegistrationName)

	h.reply(ctx, b, update.Message.Chat.ID,
		"👋 Привет! Я буду присылать тебе расписание пар каждое утро.\n\n"+
			"Давай познакомимся. Как тебя зовут?")
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	helpText := "📚 Справка по командам:\n\n" +
		"/start - Регистрация\n" +
		"/today - Расписание на сегодня\n" +
		"/tomorrow - Расписание на завтра\n" +
		"/settings - Настройки рассылки\n" +
		"/cancel - Отменить текущий диалог\n" +
		"/help - Показать эту справку\n\n" +
		"Каждое утро в 08:00 я присылаю расписание на день,\n" +
		"а за 5 минут до пары - напоминание (если включено)."

	h.reply(ctx, b, update.Message.Chat.ID, helpText)
}

// HandleToday обрабатывает команду /today
func (h *Handlers) HandleToday(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.sendScheduleFor(ctx, b, update, time.Now().In(h.loc))
}

// HandleTomorrow обрабатывает команду /tomorrow
func (h *Handlers) HandleTomorrow(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.sendScheduleFor(ctx, b, update, time.Now().In(h.loc).AddDate(0, 0, 1))
}

func (h *Handlers) sendScheduleFor(ctx context.Context, b *bot.Bot, update *models.Update, date time.Time) {
	if update.Message == nil {
		return
	}

	user, err := h.userService.GetByTelegramID(ctx, update.Message.From.ID)
	if err != nil {
		h.logger.Error("Failed to get user", zap.Error(err))
		h.reply(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка. Попробуйте позже.")
		return
	}

	if user == nil {
		h.reply(ctx, b, update.Message.Chat.ID, "Сначала нужно зарегистрироваться: /start")
		return
	}

	dayOfWeek := notify.WeekdayIndex(date)

	pairs, err := h.scheduleService.ForDirection(ctx, user.DirectionID, dayOfWeek)
	if err != nil {
		h.logger.Error("Failed to get schedule", zap.Error(err))
		h.reply(ctx, b, update.Message.Chat.ID, "❌ Не удалось получить расписание. Попробуйте позже.")
		return
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    update.Message.Chat.ID,
		Text:      notify.ComposeDaily(user.Name, dayOfWeek, date, pairs),
		ParseMode: models.ParseModeHTML,
	})
}

// HandleSettings обрабатывает команду /settings
func (h *Handlers) HandleSettings(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	user, err := h.userService.GetByTelegramID(ctx, update.Message.From.ID)
	if err != nil {
		h.logger.Error("Failed to get user", zap.Error(err))
		h.reply(ctx, b, update.Message.Chat.ID, "❌ Произошла ошибка. Попробуйте позже.")
		return
	}

	if user == nil {
		h.reply(ctx, b, update.Message.Chat.ID, "Сначала нужно зарегистрироваться: /start")
		return
	}

	remindText := "⏰ Напоминания: выключены"
	remindButton := "Включить напоминания"
	remindAction := "settings:remind_on"
	if user.RemindBefore {
		remindText = "⏰ Напоминания: включены"
		remindButton = "Выключить напоминания"
		remindAction = "settings:remind_off"
	}

	pauseText := "📬 Рассылка: активна"
	if !user.IsActive(time.Now()) {
		if user.PausedIndefinitely {
			pauseText = "📭 Рассылка: на паузе (бессрочно)"
		} else {
			pauseText = fmt.Sprintf("📭 Рассылка: на паузе до %s", user.PausedUntil.In(h.loc).Format("02.01.2006"))
		}
	}

	keyboard := &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{{Text: remindButton, CallbackData: remindAction}},
			{{Text: "Пауза рассылки", CallbackData: "settings:pause"}},
			{{Text: "Возобновить рассылку", CallbackData: "settings:resume"}},
			{{Text: "Сменить направление", CallbackData: "settings:change_dir"}},
		},
	}

	b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      update.Message.Chat.ID,
		Text:        fmt.Sprintf("⚙️ Настройки\n\n%s\n%s", remindText, pauseText),
		ReplyMarkup: keyboard,
	})
}

// HandleStats обрабатывает команду /stats - итоги доставки за сутки,
// доступна только администратору
func (h *Handlers) HandleStats(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	if h.adminTgID == 0 || update.Message.From.ID != h.adminTgID {
		return
	}

	from := time.Now().Add(-24 * time.Hour)
	stats, err := h.deliveryStats.Stats(ctx, repository.LogFilter{From: &from})
	if err != nil {
		h.logger.Error("Failed to get delivery stats", zap.Error(err))
		h.reply(ctx, b, update.Message.Chat.ID, "❌ Не удалось получить статистику.")
		return
	}

	if len(stats) == 0 {
		h.reply(ctx, b, update.Message.Chat.ID, "📊 За последние сутки рассылок не было.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 Доставка за последние сутки:\n")
	for _, s := range stats {
		sb.WriteString(fmt.Sprintf("\n%s: ✅ %d / ❌ %d", s.MessageType, s.Sent, s.Errors))
	}

	h.reply(ctx, b, update.Message.Chat.ID, sb.String())
}

// HandleCancel обрабатывает команду /cancel - отмена текущего диалога
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	telegramID := update.Message.From.ID

	if h.stateManager.GetState(telegramID) == state.StateNone {
		h.reply(ctx, b, update.Message.Chat.ID, "❌ Нет активных операций для отмены.")
		return
	}

	h.stateManager.Clear(telegramID)

	h.reply(ctx, b, update.Message.Chat.ID, "✅ Операция отменена.\n\nИспользуйте /help для просмотра доступных команд.")
}

// HandleTextMessage обрабатывает текстовые сообщения в зависимости от
// состояния диалога пользователя
func (h *Handlers) HandleTextMessage(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}

	// Команды обрабатываются другими handlers
	if strings.HasPrefix(update.Message.Text, "/") {
		return
	}

	telegramID := update.Message.From.ID

	switch h.stateManager.GetState(telegramID) {
	case state.StateRegistrationName:
		h.handleNameStep(ctx, b, update)
	case state.StateNone:
		// Нет активного диалога, игнорируем
	default:
		h.reply(ctx, b, update.Message.Chat.ID, "Пожалуйста, используй кнопки выше 👆 или /cancel для отмены.")
	}
}

func (h *Handlers) reply(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send reply", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
