package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/uchennaezeilo/ExamCert/internal/domain/entity"
)

// CertificationRepo реализует repository.CertificationRepository
type CertificationRepo struct {
	db *gorm.DB
}

// NewCertificationRepo создает репозиторий сертификаций
func NewCertificationRepo(db *gorm.DB) *CertificationRepo {
	return &CertificationRepo{db: db}
}

// List возвращает сертификации по возрастанию id
func (r *CertificationRepo) List(ctx context.Context) ([]entity.Certification, error) {
	var certs []entity.Certification
	err := r.db.WithContext(ctx).Order("certification_id ASC").Find(&certs).Error
	return certs, err
}

// GetByID возвращает сертификацию по id
func (r *CertificationRepo) GetByID(ctx context.Context, id uint) (*entity.Certification, error) {
	var cert entity.Certification
	if err := r.db.WithContext(ctx).Where("certification_id = ?", id).First(&cert).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &cert, nil
}

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// Create создает новый вопрос
func (r *QuestionRepo) Create(ctx context.Context, question *entity.Question) error {
	return r.db.WithContext(ctx).Create(question).Error
}

// GetByID возвращает вопрос по ID
func (r *QuestionRepo) GetByID(ctx context.Context, id uint) (*entity.Question, error) {
	var question entity.Question
	if err := r.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &question, nil
}

// List возвращает вопросы по возрастанию id с опциональным фильтром по сертификации
func (r *QuestionRepo) List(ctx context.Context, certificationID *uint) ([]entity.Question, error) {
	var questions []entity.Question
	query := r.db.WithContext(ctx).Order("id ASC")
	if certificationID != nil {
		query = query.Where("certification_id = ?", *certificationID)
	}
	err := query.Find(&questions).Error
	return questions, err
}
