package auth

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uchennaezeilo/ExamCert/internal/domain/entity"
)

// memoryInvalidTokenRepo - простая in-memory реализация InvalidTokenRepository для тестов
type memoryInvalidTokenRepo struct {
	mu      sync.Mutex
	records map[uint]time.Time
}

func newMemoryInvalidTokenRepo() *memoryInvalidTokenRepo {
	return &memoryInvalidTokenRepo{records: make(map[uint]time.Time)}
}

func (r *memoryInvalidTokenRepo) AddInvalidToken(ctx context.Context, userID uint, t time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[userID] = t
	return nil
}

func (r *memoryInvalidTokenRepo) IsTokenInvalid(ctx context.Context, userID uint, issuedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.records[userID]
	return ok && issuedAt.Before(t), nil
}

func (r *memoryInvalidTokenRepo) GetAllInvalidTokens(ctx context.Context) ([]entity.InvalidToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.InvalidToken, 0, len(r.records))
	for id, t := range r.records {
		out = append(out, entity.InvalidToken{UserID: id, InvalidationTime: t})
	}
	return out, nil
}

func (r *memoryInvalidTokenRepo) CleanupOldInvalidTokens(ctx context.Context, cutoff time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range r.records {
		if t.Before(cutoff) {
			delete(r.records, id)
		}
	}
	return nil
}

func newTestJWTService(t *testing.T, repo *memoryInvalidTokenRepo) *JWTService {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	svc, err := NewJWTService("test-secret", 24, repo, time.Hour, &NoOpPubSub{}, ctx)
	require.NoError(t, err, "Создание JWTService должно быть успешным")
	return svc
}

func TestNewJWTService_Validation(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryInvalidTokenRepo()

	_, err := NewJWTService("", 24, repo, time.Hour, &NoOpPubSub{}, ctx)
	assert.Error(t, err, "Пустой секрет недопустим")

	_, err = NewJWTService("s", 24, nil, time.Hour, &NoOpPubSub{}, ctx)
	assert.Error(t, err, "Репозиторий обязателен")

	_, err = NewJWTService("s", 24, repo, time.Hour, nil, ctx)
	assert.Error(t, err, "PubSub обязателен")
}

func TestJWTService_GenerateAndParse(t *testing.T) {
	svc := newTestJWTService(t, newMemoryInvalidTokenRepo())
	user := &entity.User{ID: 42, Email: "user@example.com"}

	token, expiresAt, err := svc.GenerateToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, time.Minute)

	claims, err := svc.ParseToken(context.Background(), token)
	require.NoError(t, err, "Свежий токен должен проходить проверку")
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
	assert.Equal(t, "cert-api", claims.Issuer)
	assert.NotEmpty(t, claims.ID, "jti должен быть заполнен")
}

func TestJWTService_ParseToken_Rejects(t *testing.T) {
	svc := newTestJWTService(t, newMemoryInvalidTokenRepo())

	t.Run("мусор", func(t *testing.T) {
		_, err := svc.ParseToken(context.Background(), "not-a-token")
		assert.ErrorIs(t, err, ErrTokenMalformed)
	})

	t.Run("чужая подпись", func(t *testing.T) {
		claims := &JWTCustomClaims{
			UserID: 1,
			RegisteredClaims: jwt.RegisteredClaims{
				IssuedAt:  jwt.NewNumericDate(time.Now()),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
		require.NoError(t, err)

		_, err = svc.ParseToken(context.Background(), foreign)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("истекший", func(t *testing.T) {
		svc.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
		defer func() { svc.now = time.Now }()

		old, _, err := svc.GenerateToken(&entity.User{ID: 1})
		require.NoError(t, err)
		svc.now = time.Now

		_, err = svc.ParseToken(context.Background(), old)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})
}

func TestJWTService_InvalidateTokensForUser(t *testing.T) {
	repo := newMemoryInvalidTokenRepo()
	svc := newTestJWTService(t, repo)
	user := &entity.User{ID: 7, Email: "u@example.com"}
	base := time.Now().Add(-time.Minute)

	// Arrange: токен выпущен до сброса пароля
	svc.now = func() time.Time { return base }
	oldToken, _, err := svc.GenerateToken(user)
	require.NoError(t, err)

	// Act: инвалидация через секунду
	svc.now = func() time.Time { return base.Add(time.Second) }
	require.NoError(t, svc.InvalidateTokensForUser(context.Background(), user.ID))

	// Новый токен выпущен позже инвалидации
	svc.now = func() time.Time { return base.Add(3 * time.Second) }
	newToken, _, err := svc.GenerateToken(user)
	require.NoError(t, err)
	svc.now = time.Now

	// Assert
	_, err = svc.ParseToken(context.Background(), oldToken)
	assert.ErrorIs(t, err, ErrTokenInvalidated, "Старый токен должен быть отозван")

	_, err = svc.ParseToken(context.Background(), newToken)
	assert.NoError(t, err, "Токен, выпущенный после инвалидации, действителен")

	records, _ := repo.GetAllInvalidTokens(context.Background())
	assert.Len(t, records, 1, "Инвалидация должна сохраниться в репозитории")
}

func TestJWTService_TokenIssuedInSameSecondAfterInvalidation(t *testing.T) {
	repo := newMemoryInvalidTokenRepo()
	svc := newTestJWTService(t, repo)
	user := &entity.User{ID: 9, Email: "same-second@example.com"}
	resetAt := time.Now().Add(-time.Minute).Truncate(time.Second).Add(500 * time.Millisecond)

	svc.now = func() time.Time { return resetAt }
	require.NoError(t, svc.InvalidateTokensForUser(context.Background(), user.ID))

	// Вход сразу после сброса, в ту же секунду
	svc.now = func() time.Time { return resetAt.Add(300 * time.Millisecond) }
	token, _, err := svc.GenerateToken(user)
	require.NoError(t, err)
	svc.now = time.Now

	_, err = svc.ParseToken(context.Background(), token)
	assert.NoError(t, err, "Токен, выпущенный после сброса в ту же секунду, действителен")

	records, _ := repo.GetAllInvalidTokens(context.Background())
	require.Len(t, records, 1)
	assert.True(t, records[0].InvalidationTime.Equal(resetAt.Truncate(time.Second)),
		"В БД сохраняется та же секундная отметка, что и в памяти")
}

func TestJWTService_LoadsInvalidationsOnStartup(t *testing.T) {
	repo := newMemoryInvalidTokenRepo()
	require.NoError(t, repo.AddInvalidToken(context.Background(), 5, time.Now()))

	svc := newTestJWTService(t, repo)

	svc.mu.RLock()
	_, ok := svc.invalidatedUsers[5]
	svc.mu.RUnlock()
	assert.True(t, ok, "Инвалидации из БД должны загружаться при старте")
}

func TestJWTService_CleanupInvalidatedUsers(t *testing.T) {
	repo := newMemoryInvalidTokenRepo()
	svc := newTestJWTService(t, repo)
	now := time.Now()

	svc.mu.Lock()
	svc.invalidatedUsers[1] = now.Add(-72 * time.Hour)
	svc.invalidatedUsers[2] = now.Add(-time.Hour)
	svc.mu.Unlock()
	require.NoError(t, repo.AddInvalidToken(context.Background(), 1, now.Add(-72*time.Hour)))

	require.NoError(t, svc.CleanupInvalidatedUsers(context.Background()))

	svc.mu.RLock()
	_, stale := svc.invalidatedUsers[1]
	_, fresh := svc.invalidatedUsers[2]
	svc.mu.RUnlock()
	assert.False(t, stale, "Запись старше двух сроков жизни токена удаляется")
	assert.True(t, fresh)

	records, _ := repo.GetAllInvalidTokens(context.Background())
	assert.Empty(t, records)
}

func TestJWTService_ApplyInvalidationEvent(t *testing.T) {
	svc := newTestJWTService(t, newMemoryInvalidTokenRepo())
	later := time.Unix(2_000_000_000, 0)
	earlier := time.Unix(1_000_000_000, 0)

	msg, _ := json.Marshal(invalidationEvent{UserID: 3, InvalidationTime: later.Unix()})
	svc.applyInvalidationEvent(msg)
	msg, _ = json.Marshal(invalidationEvent{UserID: 3, InvalidationTime: earlier.Unix()})
	svc.applyInvalidationEvent(msg)
	svc.applyInvalidationEvent([]byte("{broken"))

	svc.mu.RLock()
	got := svc.invalidatedUsers[3]
	svc.mu.RUnlock()
	assert.True(t, got.Equal(later), "Более раннее событие не должно затирать позднее")
}

func TestNoOpPubSub(t *testing.T) {
	p := &NoOpPubSub{}
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := p.Subscribe(ctx, InvalidationChannel)
	require.NoError(t, err)
	require.NoError(t, p.Publish(InvalidationChannel, []byte("x")))

	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok, "Канал должен закрыться после отмены контекста")
	case <-time.After(time.Second):
		t.Fatal("канал не закрылся")
	}
	assert.NoError(t, p.Close())
}
