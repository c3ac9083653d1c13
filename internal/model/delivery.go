package model

import "time"

// MessageType - категория отправляемого сообщения
type MessageType string

const (
	MessageTypeMorning   MessageType = "morning"
	MessageTypeReminder  MessageType = "reminder"
	MessageTypeBroadcast MessageType = "broadcast"
)

// DeliveryStatus - итог доставки после всех ретраев
type DeliveryStatus string

const (
	DeliveryStatusSent  DeliveryStatus = "sent"
	DeliveryStatusError DeliveryStatus = "error"
)

// DeliveryRecord - одна строка журнала доставки.
// Ровно одна запись на пару (получатель, срабатывание), фиксирует
// финальный результат, а не каждую попытку.
type DeliveryRecord struct {
	ID           int64          `json:"id"`
	TelegramID   int64          `json:"telegram_id"`
	MessageType  MessageType    `json:"message_type"`
	Status       DeliveryStatus `json:"status"`
	ErrorMessage *string        `json:"error_message"`
	DeliveredAt  time.Time      `json:"delivered_at"`
}

// DeliveryStats - агрегаты журнала для дашборда
type DeliveryStats struct {
	MessageType MessageType `json:"message_type"`
	Sent        int64       `json:"sent"`
	Errors      int64       `json:"errors"`
}
