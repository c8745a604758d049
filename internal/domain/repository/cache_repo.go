package repository

import (
	"context"
	"time"
)

// CacheRepository определяет методы для работы с кешем
type CacheRepository interface {
	// SetNX устанавливает ключ, только если его нет. Возвращает true, если ключ установлен.
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
	// Increment увеличивает счетчик и при первом увеличении ставит TTL окна
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}
