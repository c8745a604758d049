package repository

import (
	"context"

	"github.com/uchennaezeilo/ExamCert/internal/domain/entity"
)

// CertificationRepository определяет методы чтения каталога сертификаций
type CertificationRepository interface {
	List(ctx context.Context) ([]entity.Certification, error)
	GetByID(ctx context.Context, id uint) (*entity.Certification, error)
}

// QuestionRepository определяет методы для работы с вопросами
type QuestionRepository interface {
	Create(ctx context.Context, question *entity.Question) error
	GetByID(ctx context.Context, id uint) (*entity.Question, error)
	// List возвращает вопросы по возрастанию id; certificationID == nil - все вопросы
	List(ctx context.Context, certificationID *uint) ([]entity.Question, error)
}
