package entity

import (
	"time"
)

// InvalidToken фиксирует момент, до которого все JWT пользователя считаются отозванными.
// Запись появляется после сброса пароля.
type InvalidToken struct {
	UserID           uint      `gorm:"primaryKey" json:"user_id"`
	InvalidationTime time.Time `gorm:"not null" json:"invalidation_time"`
}

// TableName задает имя таблицы для GORM
func (InvalidToken) TableName() string {
	return "invalid_tokens"
}

// IsTokenInvalidAt проверяет, выпущен ли токен до момента инвалидации
func (it *InvalidToken) IsTokenInvalidAt(issuedAt time.Time) bool {
	return issuedAt.Before(it.InvalidationTime)
}
