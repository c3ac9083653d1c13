package telegram

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/studbot/timetable_bot/internal/notify"
)

// Sender отправляет сообщения через Telegram Bot API и переводит ошибки
// API в классификацию пакета notify.
type Sender struct {
	bot *bot.Bot
}

func NewSender(b *bot.Bot) *Sender {
	return &Sender{bot: b}
}

// Send отправляет одно HTML-сообщение в чат
func (s *Sender) Send(ctx context.Context, telegramID int64, text string) error {
	_, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    telegramID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	})
	if err != nil {
		return classify(err)
	}
	return nil
}

// classify переводит ошибку Telegram API в таксономию notify
func classify(err error) error {
	var tooMany *bot.TooManyRequestsError

	switch {
	case errors.Is(err, bot.ErrorForbidden):
		// Пользователь заблокировал бота или удалил аккаунт
		return fmt.Errorf("%w: %s", notify.ErrRecipientUnreachable, err)
	case errors.Is(err, bot.ErrorUnauthorized):
		return fmt.Errorf("%w: %s", notify.ErrTransportAuth, err)
	case errors.As(err, &tooMany):
		return &notify.RateLimitedError{
			RetryAfter: time.Duration(tooMany.RetryAfter) * time.Second,
			Err:        err,
		}
	}

	return fmt.Errorf("send message: %w", err)
}
