package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/uchennaezeilo/ExamCert/internal/domain/entity"
	"github.com/uchennaezeilo/ExamCert/internal/domain/repository"
	apperrors "github.com/uchennaezeilo/ExamCert/internal/pkg/errors"
)

const resetTokenBytes = 32

// TokenIssuer выпускает и отзывает bearer-токены
type TokenIssuer interface {
	GenerateToken(user *entity.User) (string, time.Time, error)
	InvalidateTokensForUser(ctx context.Context, userID uint) error
}

// AuthConfig - параметры AuthService
type AuthConfig struct {
	PasswordResetURL      string
	PasswordResetTTL      time.Duration
	PasswordResetCooldown time.Duration
	MinPasswordLength     int
}

// LoginResult - результат успешного входа
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *entity.User
}

// AuthService предоставляет методы для аутентификации и восстановления пароля
type AuthService struct {
	userRepo     repository.UserRepository
	cacheRepo    repository.CacheRepository
	tokens       TokenIssuer
	emailService EmailService
	cfg          AuthConfig
	now          func() time.Time
}

// NewAuthService создает новый сервис аутентификации.
// cacheRepo может быть nil, тогда ограничение частоты писем сброса не применяется.
func NewAuthService(
	userRepo repository.UserRepository,
	cacheRepo repository.CacheRepository,
	tokens TokenIssuer,
	emailService EmailService,
	cfg AuthConfig,
) (*AuthService, error) {
	if userRepo == nil || tokens == nil {
		return nil, fmt.Errorf("userRepo and tokens are required for AuthService")
	}
	if emailService == nil {
		emailService = &NoopEmailService{}
	}
	if cfg.PasswordResetTTL <= 0 {
		cfg.PasswordResetTTL = time.Hour
	}
	if cfg.MinPasswordLength <= 0 {
		cfg.MinPasswordLength = 6
	}
	return &AuthService{
		userRepo:     userRepo,
		cacheRepo:    cacheRepo,
		tokens:       tokens,
		emailService: emailService,
		cfg:          cfg,
		now:          time.Now,
	}, nil
}

func (s *AuthService) validatePassword(password string) error {
	if len(password) < s.cfg.MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", apperrors.ErrValidation, s.cfg.MinPasswordLength)
	}
	return nil
}

// Register создает учетную запись. Пароль хешируется в entity.User.BeforeSave.
func (s *AuthService) Register(ctx context.Context, email, password string) (*entity.User, error) {
	email = entity.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password required", apperrors.ErrValidation)
	}
	if err := s.validatePassword(password); err != nil {
		return nil, err
	}

	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, fmt.Errorf("%w: email already exists", apperrors.ErrConflict)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	user := &entity.User{Email: email, Password: password}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// гонка двух регистраций: уникальный индекс вернул ErrConflict
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("%w: email already exists", apperrors.ErrConflict)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	log.Printf("[AuthService] Зарегистрирован пользователь ID=%d", user.ID)
	return user, nil
}

// Login проверяет учетные данные. Неизвестный email и неверный пароль дают одинаковую ошибку.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = entity.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password required", apperrors.ErrValidation)
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.CheckPassword(password) {
		return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
	}

	token, expiresAt, err := s.tokens.GenerateToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// GetMe возвращает профиль аутентифицированного пользователя
func (s *AuthService) GetMe(ctx context.Context, userID uint) (*entity.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// RequestPasswordReset всегда завершается без ошибки для вызывающего: результат
// не должен выдавать, существует ли аккаунт. Сбои пишутся в лог.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = entity.NormalizeEmail(email)
	if email == "" {
		return nil
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[AuthService] Ошибка поиска пользователя для сброса пароля: %v", err)
		}
		return nil
	}

	if s.cacheRepo != nil && s.cfg.PasswordResetCooldown > 0 {
		acquired, cacheErr := s.cacheRepo.SetNX(ctx, resetCooldownKey(user.ID), 1, s.cfg.PasswordResetCooldown)
		if cacheErr != nil {
			log.Printf("[AuthService] Redis недоступен для cooldown сброса пароля user=%d: %v", user.ID, cacheErr)
		} else if !acquired {
			log.Printf("[AuthService] Повторный запрос сброса пароля user=%d в пределах cooldown, письмо не отправлено", user.ID)
			return nil
		}
	}

	token, err := generateResetToken()
	if err != nil {
		log.Printf("[AuthService] Не удалось сгенерировать токен сброса: %v", err)
		return nil
	}
	expiresAt := s.now().Add(s.cfg.PasswordResetTTL)
	if err := s.userRepo.SetResetToken(ctx, user.ID, hashResetToken(token), expiresAt); err != nil {
		log.Printf("[AuthService] Не удалось сохранить токен сброса user=%d: %v", user.ID, err)
		return nil
	}

	link, err := buildResetLink(s.cfg.PasswordResetURL, token)
	if err != nil {
		log.Printf("[AuthService] Некорректный password_reset_url: %v", err)
		return nil
	}
	if err := s.emailService.SendPasswordReset(ctx, user.Email, link, uuid.NewString()); err != nil {
		log.Printf("[AuthService] Ошибка отправки письма сброса пароля user=%d: %v", user.ID, err)
	}
	return nil
}

// ResetPassword устанавливает новый пароль по одноразовому токену и отзывает старые JWT
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return fmt.Errorf("%w: token and password required", apperrors.ErrValidation)
	}
	if err := s.validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := entity.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	userID, err := s.userRepo.ConsumeResetToken(ctx, hashResetToken(token), hash, s.now())
	if err != nil {
		return err
	}

	if err := s.tokens.InvalidateTokensForUser(ctx, userID); err != nil {
		// пароль уже сменен, ответ остается успешным
		log.Printf("[AuthService] Не удалось инвалидировать токены user=%d после сброса пароля: %v", userID, err)
	}
	if s.cacheRepo != nil {
		if err := s.cacheRepo.Delete(ctx, resetCooldownKey(userID)); err != nil {
			log.Printf("[AuthService] Не удалось снять cooldown сброса пароля user=%d: %v", userID, err)
		}
	}

	log.Printf("[AuthService] Пароль сброшен для пользователя ID=%d", userID)
	return nil
}

// ChangePassword меняет пароль аутентифицированного пользователя
func (s *AuthService) ChangePassword(ctx context.Context, userID uint, currentPassword, newPassword string) error {
	if currentPassword == "" || newPassword == "" {
		return fmt.Errorf("%w: current and new password required", apperrors.ErrValidation)
	}
	if err := s.validatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.CheckPassword(currentPassword) {
		return fmt.Errorf("%w: current password is incorrect", apperrors.ErrUnauthorized)
	}

	hash, err := entity.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.userRepo.UpdatePassword(ctx, userID, hash)
}

func resetCooldownKey(userID uint) string {
	return fmt.Sprintf("pwreset:cooldown:%d", userID)
}

// generateResetToken возвращает 32 случайных байта в hex
func generateResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// hashResetToken - в БД хранится только хеш токена
func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func buildResetLink(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
