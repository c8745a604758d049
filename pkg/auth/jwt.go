package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/uchennaezeilo/ExamCert/internal/domain/entity"
	"github.com/uchennaezeilo/ExamCert/internal/domain/repository"
)

const (
	tokenIssuer = "cert-api"
	// InvalidationChannel - канал Pub/Sub для событий инвалидации токенов
	InvalidationChannel = "jwt_invalidation_events"
)

// Ошибки разбора токена
var (
	ErrTokenMalformed   = errors.New("token is malformed")
	ErrTokenExpired     = errors.New("token is expired")
	ErrTokenInvalid     = errors.New("token validation failed")
	ErrTokenInvalidated = errors.New("token has been invalidated")
)

// JWTCustomClaims содержит пользовательские поля для токена
type JWTCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// JWTService выпускает и проверяет bearer-токены (HS256)
type JWTService struct {
	secret     []byte
	expiration time.Duration
	// Черный список пользователей: время, до которого их токены недействительны
	invalidatedUsers map[uint]time.Time
	mu               sync.RWMutex
	invalidTokenRepo repository.InvalidTokenRepository
	cleanupInterval  time.Duration
	pubSubProvider   PubSubProvider
	appCtx           context.Context
	now              func() time.Time
}

// NewJWTService создает сервис, загружает список инвалидаций из БД
// и запускает фоновые очистку и прослушивание Pub/Sub до отмены appCtx
func NewJWTService(
	secret string,
	expirationHrs int,
	invalidTokenRepo repository.InvalidTokenRepository,
	cleanupInterval time.Duration,
	pubSubProvider PubSubProvider,
	appCtx context.Context,
) (*JWTService, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required for JWTService")
	}
	if invalidTokenRepo == nil {
		return nil, fmt.Errorf("InvalidTokenRepository is required for JWTService")
	}
	if pubSubProvider == nil {
		return nil, fmt.Errorf("PubSubProvider is required for JWTService")
	}
	if appCtx == nil {
		return nil, fmt.Errorf("appCtx is required for JWTService")
	}
	if expirationHrs <= 0 {
		expirationHrs = 24
	}
	if cleanupInterval <= 0 {
		cleanupInterval = time.Hour
	}

	service := &JWTService{
		secret:           []byte(secret),
		expiration:       time.Duration(expirationHrs) * time.Hour,
		invalidatedUsers: make(map[uint]time.Time),
		invalidTokenRepo: invalidTokenRepo,
		cleanupInterval:  cleanupInterval,
		pubSubProvider:   pubSubProvider,
		appCtx:           appCtx,
		now:              time.Now,
	}

	startupCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	service.loadInvalidatedTokensFromDB(startupCtx)

	go service.runCleanupRoutine()
	go service.listenForInvalidationEvents()

	return service, nil
}

func (s *JWTService) loadInvalidatedTokensFromDB(ctx context.Context) {
	tokens, err := s.invalidTokenRepo.GetAllInvalidTokens(ctx)
	if err != nil {
		log.Printf("[JWT] Error loading invalidated tokens from DB: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, token := range tokens {
		s.invalidatedUsers[token.UserID] = token.InvalidationTime.Truncate(time.Second)
	}
	log.Printf("[JWT] Loaded %d invalidated tokens from database", len(tokens))
}

// TokenLifetime возвращает срок жизни выпускаемых токенов
func (s *JWTService) TokenLifetime() time.Duration {
	return s.expiration
}

// GenerateToken создает токен доступа для пользователя и возвращает момент его истечения
func (s *JWTService) GenerateToken(user *entity.User) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.expiration)

	claims := &JWTCustomClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			Issuer:    tokenIssuer,
			Subject:   fmt.Sprintf("%d", user.ID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		log.Printf("[JWT] Ошибка генерации токена для пользователя ID=%d: %v", user.ID, err)
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken проверяет подпись, срок действия и список инвалидаций
func (s *JWTService) ParseToken(ctx context.Context, tokenString string) (*JWTCustomClaims, error) {
	claims := &JWTCustomClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) {
			switch {
			case ve.Errors&jwt.ValidationErrorMalformed != 0:
				return nil, ErrTokenMalformed
			case ve.Errors&jwt.ValidationErrorExpired != 0:
				return nil, ErrTokenExpired
			}
		}
		log.Printf("[JWT] Ошибка при разборе токена: %v", err)
		return nil, ErrTokenInvalid
	}
	if !token.Valid || claims.UserID == 0 || claims.IssuedAt == nil {
		return nil, ErrTokenInvalid
	}

	s.mu.RLock()
	invalidationTime, exists := s.invalidatedUsers[claims.UserID]
	s.mu.RUnlock()

	// iat хранится с точностью до секунды, отметка инвалидации тоже
	if exists && claims.IssuedAt.Time.Before(invalidationTime) {
		log.Printf("[JWT] Токен инвалидирован для пользователя ID=%d, выдан в %v, время инвалидации %v",
			claims.UserID, claims.IssuedAt.Time, invalidationTime)
		return nil, ErrTokenInvalidated
	}

	return claims, nil
}

// InvalidateTokensForUser отзывает все токены пользователя, выпущенные до текущего момента
func (s *JWTService) InvalidateTokensForUser(ctx context.Context, userID uint) error {
	now := s.now().Truncate(time.Second)

	s.mu.Lock()
	s.invalidatedUsers[userID] = now
	s.mu.Unlock()

	if err := s.invalidTokenRepo.AddInvalidToken(ctx, userID, now); err != nil {
		log.Printf("[JWT] Ошибка при добавлении записи инвалидации в БД для пользователя ID=%d: %v", userID, err)
		return err
	}

	event, err := json.Marshal(invalidationEvent{UserID: userID, InvalidationTime: now.Unix()})
	if err != nil {
		log.Printf("[JWT] Ошибка сериализации события инвалидации для userID %d: %v", userID, err)
		return nil
	}
	if pubErr := s.pubSubProvider.Publish(InvalidationChannel, event); pubErr != nil {
		log.Printf("[JWT] Ошибка публикации события инвалидации для userID %d: %v", userID, pubErr)
	}

	log.Printf("[JWT] Токены инвалидированы для пользователя ID=%d в %v", userID, now)
	return nil
}

type invalidationEvent struct {
	UserID           uint  `json:"user_id"`
	InvalidationTime int64 `json:"invalidation_time"`
}

// CleanupInvalidatedUsers удаляет записи старше двух сроков жизни токена:
// к этому моменту все затронутые токены уже истекли сами
func (s *JWTService) CleanupInvalidatedUsers(ctx context.Context) error {
	cutoffTime := s.now().Add(-2 * s.expiration)

	if err := s.invalidTokenRepo.CleanupOldInvalidTokens(ctx, cutoffTime); err != nil {
		log.Printf("[JWT] Error cleaning up invalid tokens from DB: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cleaned := 0
	for userID, invalidationTime := range s.invalidatedUsers {
		if invalidationTime.Before(cutoffTime) {
			delete(s.invalidatedUsers, userID)
			cleaned++
		}
	}
	if cleaned > 0 {
		log.Printf("[JWT] Cleaned up %d stale entries from invalidatedUsers cache", cleaned)
	}
	return nil
}

func (s *JWTService) runCleanupRoutine() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cleanupCtx, cancel := context.WithTimeout(context.Background(), s.cleanupInterval/2)
			if err := s.CleanupInvalidatedUsers(cleanupCtx); err != nil {
				log.Printf("[JWT] Error during periodic cleanup: %v", err)
			}
			cancel()
		case <-s.appCtx.Done():
			return
		}
	}
}

// applyInvalidationEvent обновляет локальный кеш по событию другого инстанса.
// Более ранняя отметка не затирает более позднюю.
func (s *JWTService) applyInvalidationEvent(msg []byte) {
	var event invalidationEvent
	if err := json.Unmarshal(msg, &event); err != nil {
		log.Printf("[JWT] Ошибка десериализации сообщения из Pub/Sub: %v. Сообщение: %s", err, string(msg))
		return
	}
	if event.UserID == 0 {
		return
	}

	invalidationTime := time.Unix(event.InvalidationTime, 0)
	s.mu.Lock()
	if current, ok := s.invalidatedUsers[event.UserID]; !ok || invalidationTime.After(current) {
		s.invalidatedUsers[event.UserID] = invalidationTime
	}
	s.mu.Unlock()
}

func (s *JWTService) listenForInvalidationEvents() {
	messages, err := s.pubSubProvider.Subscribe(s.appCtx, InvalidationChannel)
	if err != nil {
		log.Printf("[JWT] Ошибка подписки на канал %s: %v", InvalidationChannel, err)
		return
	}

	for {
		select {
		case <-s.appCtx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}
			s.applyInvalidationEvent(msg)
		}
	}
}
