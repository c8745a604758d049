package repository

import (
	"context"
	"time"

	"github.com/uchennaezeilo/ExamCert/internal/domain/entity"
)

// ScoreFunc считает баллы по ответам попытки
type ScoreFunc func(keys []entity.AnswerKey) int

// ExamRepository определяет операции над попытками и ответами.
// Инварианты уникальности обеспечиваются хранилищем, а не проверкой в коде.
type ExamRepository interface {
	// FindOrCreateActive возвращает незавершенную попытку пользователя по сертификации
	// или создает новую. created == true, если попытка создана этим вызовом.
	FindOrCreateActive(ctx context.Context, userID, certificationID uint, now time.Time) (attempt *entity.ExamAttempt, created bool, err error)

	GetByID(ctx context.Context, attemptID uint) (*entity.ExamAttempt, error)

	// GetLatestActive возвращает самую свежую незавершенную попытку пользователя
	GetLatestActive(ctx context.Context, userID uint) (*entity.ExamAttempt, error)

	// SaveAnswer атомарно вставляет или перезаписывает ответ и двигает указатель
	// текущего вопроса. ErrConflict, если попытка уже завершена.
	SaveAnswer(ctx context.Context, answer *entity.ExamAnswer, currentQuestion int) error

	ListAnswers(ctx context.Context, attemptID uint) ([]entity.ExamAnswer, error)

	// FinishAttempt подсчитывает баллы и завершает попытку ровно один раз.
	// Для уже завершенной попытки возвращает сохраненный результат.
	FinishAttempt(ctx context.Context, attemptID uint, score ScoreFunc, finishedAt time.Time) (*entity.ExamAttempt, error)

	// History возвращает все попытки пользователя, новые первыми
	History(ctx context.Context, userID uint) ([]entity.AttemptSummary, error)

	// Review возвращает отвеченные вопросы попытки по возрастанию id вопроса
	Review(ctx context.Context, attemptID uint) ([]entity.ReviewItem, error)
}
