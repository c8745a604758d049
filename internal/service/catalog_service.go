package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/uchennaezeilo/ExamCert/internal/domain/entity"
	"github.com/uchennaezeilo/ExamCert/internal/domain/repository"
	apperrors "github.com/uchennaezeilo/ExamCert/internal/pkg/errors"
)

// CreateQuestionInput - поля нового вопроса
type CreateQuestionInput struct {
	CertificationID uint
	Question        string
	OptionA         string
	OptionB         string
	OptionC         string
	OptionD         string
	OptionE         string
	CorrectOption   string
}

// CatalogService отдает справочник сертификаций и вопросов
type CatalogService struct {
	certRepo     repository.CertificationRepository
	questionRepo repository.QuestionRepository
}

// NewCatalogService создает сервис каталога
func NewCatalogService(certRepo repository.CertificationRepository, questionRepo repository.QuestionRepository) *CatalogService {
	return &CatalogService{certRepo: certRepo, questionRepo: questionRepo}
}

// ListCertifications возвращает сертификации по возрастанию id
func (s *CatalogService) ListCertifications(ctx context.Context) ([]entity.Certification, error) {
	return s.certRepo.List(ctx)
}

// GetCertification возвращает сертификацию или ErrNotFound
func (s *CatalogService) GetCertification(ctx context.Context, id uint) (*entity.Certification, error) {
	return s.certRepo.GetByID(ctx, id)
}

// ListQuestions возвращает вопросы по возрастанию id, опционально по одной сертификации
func (s *CatalogService) ListQuestions(ctx context.Context, certificationID *uint) ([]entity.Question, error) {
	return s.questionRepo.List(ctx, certificationID)
}

// CreateQuestion проверяет поля и сохраняет вопрос
func (s *CatalogService) CreateQuestion(ctx context.Context, in CreateQuestionInput) (*entity.Question, error) {
	question := &entity.Question{
		CertificationID: in.CertificationID,
		Text:            strings.TrimSpace(in.Question),
		OptionA:         strings.TrimSpace(in.OptionA),
		OptionB:         strings.TrimSpace(in.OptionB),
		OptionC:         strings.TrimSpace(in.OptionC),
		OptionD:         strings.TrimSpace(in.OptionD),
		OptionE:         strings.TrimSpace(in.OptionE),
		CorrectOption:   strings.TrimSpace(in.CorrectOption),
	}

	if question.CertificationID == 0 {
		return nil, fmt.Errorf("%w: certification_id is required", apperrors.ErrValidation)
	}
	if question.Text == "" || !question.HasAllOptions() {
		return nil, fmt.Errorf("%w: question text and all five options are required", apperrors.ErrValidation)
	}
	if !entity.IsValidOptionLabel(question.CorrectOption) {
		return nil, fmt.Errorf("%w: correct_option must be one of A, B, C, D, E", apperrors.ErrValidation)
	}

	if _, err := s.certRepo.GetByID(ctx, question.CertificationID); err != nil {
		return nil, err
	}

	if err := s.questionRepo.Create(ctx, question); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return question, nil
}
