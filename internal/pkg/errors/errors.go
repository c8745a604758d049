package errors

import "errors"

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется для ошибок аутентификации (неверные учетные данные, нет токена).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда пользователь не владеет ресурсом.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrConflict используется для конфликтов состояния: дубликат email,
	// запись ответа в уже завершенную попытку и т.п.
	ErrConflict = errors.New("resource state conflict")

	// ErrInvalidOrExpiredToken используется, когда токен сброса пароля не найден или истек.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
)
