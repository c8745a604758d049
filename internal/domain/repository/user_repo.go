package repository

import (
	"context"
	"time"

	"github.com/uchennaezeilo/ExamCert/internal/domain/entity"
)

// UserRepository определяет методы для работы с учетными записями
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id uint) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// UpdatePassword записывает готовый bcrypt-хеш
	UpdatePassword(ctx context.Context, userID uint, passwordHash string) error

	// SetResetToken сохраняет хеш токена сброса и срок его действия
	SetResetToken(ctx context.Context, userID uint, tokenHash string, expiresAt time.Time) error
	// ConsumeResetToken атомарно меняет пароль по действующему токену и очищает токен.
	// Возвращает ErrInvalidOrExpiredToken, если подходящей записи нет.
	ConsumeResetToken(ctx context.Context, tokenHash string, passwordHash string, now time.Time) (uint, error)
}
