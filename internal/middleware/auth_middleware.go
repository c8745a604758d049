package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/uchennaezeilo/ExamCert/pkg/auth"
)

// Ключи gin-контекста, заполняемые middleware аутентификации
const (
	ContextUserIDKey = "user_id"
	ContextEmailKey  = "email"
)

// TokenParser проверяет bearer-токен и возвращает его claims
type TokenParser interface {
	ParseToken(ctx context.Context, tokenString string) (*auth.JWTCustomClaims, error)
}

// AuthMiddleware обеспечивает аутентификацию для защищенных маршрутов
type AuthMiddleware struct {
	tokens TokenParser
}

// NewAuthMiddleware создает middleware аутентификации
func NewAuthMiddleware(tokens TokenParser) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// RequireAuth пропускает запрос только с действительным токеном в заголовке Authorization
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, errType := bearerToken(c)
		if errType != "" {
			message := "Authorization header is required"
			if errType == "token_format" {
				message = "Authorization header format must be Bearer {token}"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message, "error_type": errType})
			return
		}

		claims, err := m.tokens.ParseToken(c.Request.Context(), token)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token expired", "error_type": "token_expired"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "error_type": "token_invalid"})
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextEmailKey, claims.Email)
		c.Next()
	}
}

// OptionalAuth заполняет user_id, если передан действительный токен, и никогда не отклоняет запрос
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, errType := bearerToken(c)
		if errType == "" {
			if claims, err := m.tokens.ParseToken(c.Request.Context(), token); err == nil {
				c.Set(ContextUserIDKey, claims.UserID)
				c.Set(ContextEmailKey, claims.Email)
			}
		}
		c.Next()
	}
}

// bearerToken достает токен из "Authorization: Bearer {token}".
// Второе значение - error_type для ответа, пустое при успехе.
func bearerToken(c *gin.Context) (string, string) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", "token_missing"
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", "token_format"
	}
	return parts[1], ""
}

// UserIDFromContext возвращает ID аутентифицированного пользователя
func UserIDFromContext(c *gin.Context) (uint, bool) {
	value, exists := c.Get(ContextUserIDKey)
	if !exists {
		return 0, false
	}
	userID, ok := value.(uint)
	if !ok || userID == 0 {
		return 0, false
	}
	return userID, true
}
