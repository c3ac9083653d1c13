package notify

import (
	"errors"
	"fmt"
	"time"
)

// Классификация ошибок отправки. Транспорт (telegram.Sender) оборачивает
// свои ошибки в эти типы, диспетчер по ним решает что делать с ретраем.
var (
	// ErrRecipientUnreachable - получатель недоступен навсегда
	// (заблокировал бота, удалил аккаунт). Ретрай не поможет.
	ErrRecipientUnreachable = errors.New("recipient unreachable")

	// ErrTransportAuth - транспорт не авторизован (невалидный токен).
	// Фатально для всей рассылки, требует вмешательства оператора.
	ErrTransportAuth = errors.New("transport authorization failed")
)

// RateLimitedError - внешний сервис попросил подождать перед повтором
type RateLimitedError struct {
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s: %v", e.RetryAfter, e.Err)
}

func (e *RateLimitedError) Unwrap() error {
	return e.Err
}
