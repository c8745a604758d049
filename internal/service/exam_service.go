package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/uchennaezeilo/ExamCert/internal/domain/entity"
	"github.com/uchennaezeilo/ExamCert/internal/domain/repository"
	apperrors "github.com/uchennaezeilo/ExamCert/internal/pkg/errors"
)

// StartResult - результат старта или возобновления попытки
type StartResult struct {
	AttemptID uint
	Resumed   bool
}

// AnswerInput - ответ на один вопрос попытки
type AnswerInput struct {
	AttemptID       uint
	QuestionID      uint
	SelectedOption  string
	CurrentQuestion int
}

// ActiveAttempt - незавершенная попытка вместе с уже записанными ответами
type ActiveAttempt struct {
	Attempt *entity.ExamAttempt
	Answers []entity.ExamAnswer
	Expired bool
}

// ExamService управляет жизненным циклом попыток экзамена.
// Все операции над конкретной попыткой доступны только ее владельцу.
type ExamService struct {
	examRepo     repository.ExamRepository
	certRepo     repository.CertificationRepository
	questionRepo repository.QuestionRepository
	// attemptTTL <= 0 - попытки не истекают
	attemptTTL time.Duration
	now        func() time.Time
}

// NewExamService создает сервис попыток
func NewExamService(
	examRepo repository.ExamRepository,
	certRepo repository.CertificationRepository,
	questionRepo repository.QuestionRepository,
	attemptTTL time.Duration,
) *ExamService {
	return &ExamService{
		examRepo:     examRepo,
		certRepo:     certRepo,
		questionRepo: questionRepo,
		attemptTTL:   attemptTTL,
		now:          time.Now,
	}
}

// Start возвращает единственную незавершенную попытку пользователя по сертификации,
// создавая ее при необходимости. Просроченная попытка сначала завершается.
func (s *ExamService) Start(ctx context.Context, userID, certificationID uint) (*StartResult, error) {
	if certificationID == 0 {
		return nil, fmt.Errorf("%w: certificationId is required", apperrors.ErrValidation)
	}
	if _, err := s.certRepo.GetByID(ctx, certificationID); err != nil {
		return nil, err
	}

	now := s.now()
	attempt, created, err := s.examRepo.FindOrCreateActive(ctx, userID, certificationID, now)
	if err != nil {
		return nil, err
	}

	if !created && attempt.IsExpired(now, s.attemptTTL) {
		log.Printf("[ExamService] Попытка #%d пользователя %d просрочена (начата %v), завершаем и начинаем новую",
			attempt.ID, userID, attempt.StartedAt)
		if _, err := s.examRepo.FinishAttempt(ctx, attempt.ID, entity.ScoreAnswers, now); err != nil {
			return nil, fmt.Errorf("finish expired attempt #%d: %w", attempt.ID, err)
		}
		attempt, created, err = s.examRepo.FindOrCreateActive(ctx, userID, certificationID, now)
		if err != nil {
			return nil, err
		}
	}

	if created {
		log.Printf("[ExamService] Пользователь %d начал попытку #%d по сертификации %d", userID, attempt.ID, certificationID)
	}
	return &StartResult{AttemptID: attempt.ID, Resumed: !created}, nil
}

// loadOwnedAttempt загружает попытку и проверяет владельца
func (s *ExamService) loadOwnedAttempt(ctx context.Context, userID, attemptID uint) (*entity.ExamAttempt, error) {
	if attemptID == 0 {
		return nil, fmt.Errorf("%w: attemptId is required", apperrors.ErrValidation)
	}
	attempt, err := s.examRepo.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if !attempt.IsOwnedBy(userID) {
		return nil, fmt.Errorf("%w: attempt #%d belongs to another user", apperrors.ErrForbidden, attemptID)
	}
	return attempt, nil
}

// Answer записывает или перезаписывает ответ и сдвигает указатель текущего вопроса
func (s *ExamService) Answer(ctx context.Context, userID uint, in AnswerInput) error {
	if in.QuestionID == 0 {
		return fmt.Errorf("%w: questionId is required", apperrors.ErrValidation)
	}
	if !entity.IsValidOptionLabel(in.SelectedOption) {
		return fmt.Errorf("%w: selectedOption must be one of A, B, C, D, E", apperrors.ErrValidation)
	}
	if in.CurrentQuestion < 0 {
		return fmt.Errorf("%w: currentQuestion must not be negative", apperrors.ErrValidation)
	}

	attempt, err := s.loadOwnedAttempt(ctx, userID, in.AttemptID)
	if err != nil {
		return err
	}
	if !attempt.IsInProgress() {
		return fmt.Errorf("%w: attempt #%d is already completed", apperrors.ErrConflict, attempt.ID)
	}
	if attempt.IsExpired(s.now(), s.attemptTTL) {
		return fmt.Errorf("%w: attempt #%d has expired", apperrors.ErrConflict, attempt.ID)
	}

	question, err := s.questionRepo.GetByID(ctx, in.QuestionID)
	if err != nil {
		return err
	}
	if question.CertificationID != attempt.CertificationID {
		return fmt.Errorf("%w: question #%d does not belong to this exam", apperrors.ErrValidation, question.ID)
	}

	answer := &entity.ExamAnswer{
		AttemptID:      attempt.ID,
		QuestionID:     question.ID,
		SelectedOption: in.SelectedOption,
	}
	return s.examRepo.SaveAnswer(ctx, answer, in.CurrentQuestion)
}

// Finish подсчитывает баллы и завершает попытку. Повторный вызов возвращает тот же балл.
func (s *ExamService) Finish(ctx context.Context, userID, attemptID uint) (int, error) {
	if _, err := s.loadOwnedAttempt(ctx, userID, attemptID); err != nil {
		return 0, err
	}

	finished, err := s.examRepo.FinishAttempt(ctx, attemptID, entity.ScoreAnswers, s.now())
	if err != nil {
		return 0, err
	}
	if finished.Score == nil {
		return 0, fmt.Errorf("attempt #%d completed without score", attemptID)
	}
	return *finished.Score, nil
}

// Active возвращает самую свежую незавершенную попытку с ответами или nil
func (s *ExamService) Active(ctx context.Context, userID uint) (*ActiveAttempt, error) {
	attempt, err := s.examRepo.GetLatestActive(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	answers, err := s.examRepo.ListAnswers(ctx, attempt.ID)
	if err != nil {
		return nil, err
	}
	if answers == nil {
		answers = []entity.ExamAnswer{}
	}
	return &ActiveAttempt{
		Attempt: attempt,
		Answers: answers,
		Expired: attempt.IsExpired(s.now(), s.attemptTTL),
	}, nil
}

// History возвращает все попытки пользователя, новые первыми
func (s *ExamService) History(ctx context.Context, userID uint) ([]entity.AttemptSummary, error) {
	rows, err := s.examRepo.History(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []entity.AttemptSummary{}
	}
	return rows, nil
}

// Review возвращает разбор попытки. Статус попытки не проверяется.
func (s *ExamService) Review(ctx context.Context, userID, attemptID uint) ([]entity.ReviewItem, error) {
	if _, err := s.loadOwnedAttempt(ctx, userID, attemptID); err != nil {
		return nil, err
	}
	items, err := s.examRepo.Review(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []entity.ReviewItem{}
	}
	return items, nil
}
