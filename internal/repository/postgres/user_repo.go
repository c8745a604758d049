package postgres

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/uchennaezeilo/ExamCert/internal/domain/entity"
	apperrors "github.com/uchennaezeilo/ExamCert/internal/pkg/errors"
)

// UserRepo реализует repository.UserRepository
type UserRepo struct {
	db *gorm.DB
}

// NewUserRepo создает новый репозиторий пользователей
func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create создает нового пользователя. Дубликат email возвращается как ErrConflict.
func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email already registered", apperrors.ErrConflict)
		}
		return err
	}
	return nil
}

// GetByID возвращает пользователя по ID
func (r *UserRepo) GetByID(ctx context.Context, id uint) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &user, nil
}

// GetByEmail возвращает пользователя по email
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	var user entity.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &user, nil
}

// UpdatePassword обновляет хеш пароля пользователя
func (r *UserRepo) UpdatePassword(ctx context.Context, userID uint, passwordHash string) error {
	result := r.db.WithContext(ctx).Model(&entity.User{}).
		Where("id = ?", userID).
		UpdateColumns(map[string]interface{}{
			"password":   passwordHash,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		log.Printf("[UserRepo] Ошибка при обновлении пароля пользователя %d: %v", userID, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SetResetToken сохраняет хеш токена сброса пароля
func (r *UserRepo) SetResetToken(ctx context.Context, userID uint, tokenHash string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).Model(&entity.User{}).
		Where("id = ?", userID).
		UpdateColumns(map[string]interface{}{
			"reset_password_token":   tokenHash,
			"reset_password_expires": expiresAt,
			"updated_at":             time.Now(),
		}).Error
}

// ConsumeResetToken меняет пароль одним условным UPDATE. Конкурентные запросы
// с одним и тем же токеном не могут оба пройти условие.
func (r *UserRepo) ConsumeResetToken(ctx context.Context, tokenHash string, passwordHash string, now time.Time) (uint, error) {
	var row struct {
		ID uint
	}
	err := consumeResetTokenQuery(r.db.WithContext(ctx), tokenHash, passwordHash, now).Scan(&row).Error
	if err != nil {
		log.Printf("[UserRepo] Ошибка при использовании токена сброса: %v", err)
		return 0, err
	}
	if row.ID == 0 {
		return 0, apperrors.ErrInvalidOrExpiredToken
	}
	return row.ID, nil
}

// consumeResetTokenQuery меняет пароль и гасит токен, только если токен совпал и не истек
func consumeResetTokenQuery(db *gorm.DB, tokenHash, passwordHash string, now time.Time) *gorm.DB {
	return db.Raw(`
		UPDATE users
		SET password = ?, reset_password_token = NULL, reset_password_expires = NULL, updated_at = ?
		WHERE reset_password_token = ? AND reset_password_expires > ?
		RETURNING id
	`, passwordHash, now, tokenHash, now)
}
