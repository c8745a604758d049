package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/uchennaezeilo/ExamCert/internal/domain/entity"
	"github.com/uchennaezeilo/ExamCert/internal/domain/repository"
	apperrors "github.com/uchennaezeilo/ExamCert/internal/pkg/errors"
)

// ExamRepo реализует repository.ExamRepository
type ExamRepo struct {
	db *gorm.DB
}

// NewExamRepo создает репозиторий попыток экзамена
func NewExamRepo(db *gorm.DB) *ExamRepo {
	return &ExamRepo{db: db}
}

// activeAttemptConflict соответствует частичному уникальному индексу
// idx_exam_attempts_one_in_progress. Предикат должен быть литералом,
// иначе Postgres не сопоставит ON CONFLICT с индексом.
var activeAttemptConflict = clause.OnConflict{
	Columns: []clause.Column{{Name: "user_id"}, {Name: "certification_id"}},
	TargetWhere: clause.Where{Exprs: []clause.Expression{
		clause.Expr{SQL: "attempt_status = 'IN_PROGRESS'"},
	}},
	DoNothing: true,
}

// insertActiveAttempt вставляет попытку, не трогая уже существующую незавершенную
func insertActiveAttempt(db *gorm.DB, attempt *entity.ExamAttempt) *gorm.DB {
	return db.Clauses(activeAttemptConflict).Create(attempt)
}

// advanceAttempt двигает указатель вопроса только у незавершенной попытки
func advanceAttempt(tx *gorm.DB, attemptID uint, currentQuestion int) *gorm.DB {
	return tx.Model(&entity.ExamAttempt{}).
		Where("id = ? AND attempt_status = ?", attemptID, entity.AttemptInProgress).
		Update("current_question", currentQuestion)
}

// upsertAnswer перезаписывает выбранный вариант, если ответ на вопрос уже есть
func upsertAnswer(tx *gorm.DB, answer *entity.ExamAnswer) *gorm.DB {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"selected_option", "updated_at"}),
	}).Create(answer)
}

func lockAttempt(tx *gorm.DB, attempt *entity.ExamAttempt, attemptID uint) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(attempt, attemptID)
}

// completeAttempt фиксирует балл; строка меняется только один раз
func completeAttempt(tx *gorm.DB, attemptID uint, score int, finishedAt time.Time) *gorm.DB {
	return tx.Model(&entity.ExamAttempt{}).
		Where("id = ? AND attempt_status = ?", attemptID, entity.AttemptInProgress).
		Updates(map[string]interface{}{
			"score":          score,
			"finished_at":    finishedAt,
			"attempt_status": entity.AttemptCompleted,
		})
}

func (r *ExamRepo) findActive(db *gorm.DB, userID, certificationID uint) (*entity.ExamAttempt, error) {
	var attempt entity.ExamAttempt
	err := db.Where("user_id = ? AND certification_id = ? AND attempt_status = ?",
		userID, certificationID, entity.AttemptInProgress).
		First(&attempt).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &attempt, nil
}

// FindOrCreateActive находит или создает незавершенную попытку.
// Если конкурентный запрос успел вставить строку раньше, INSERT ничего не делает
// и возвращается попытка-победитель.
func (r *ExamRepo) FindOrCreateActive(ctx context.Context, userID, certificationID uint, now time.Time) (*entity.ExamAttempt, bool, error) {
	db := r.db.WithContext(ctx)

	existing, err := r.findActive(db, userID, certificationID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, false, err
	}

	attempt := &entity.ExamAttempt{
		UserID:          userID,
		CertificationID: certificationID,
		StartedAt:       now,
		AttemptStatus:   entity.AttemptInProgress,
		CurrentQuestion: 0,
	}
	result := insertActiveAttempt(db, attempt)
	if result.Error != nil {
		return nil, false, fmt.Errorf("create exam attempt (user %d, cert %d): %w", userID, certificationID, result.Error)
	}
	if result.RowsAffected > 0 {
		return attempt, true, nil
	}

	log.Printf("[ExamRepo] Конкурентный старт попытки: user=%d cert=%d, возвращаем существующую", userID, certificationID)
	existing, err = r.findActive(db, userID, certificationID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// победитель успел завершить попытку между INSERT и SELECT
			return nil, false, fmt.Errorf("%w: attempt finished concurrently", apperrors.ErrConflict)
		}
		return nil, false, err
	}
	return existing, false, nil
}

// GetByID возвращает попытку по ID
func (r *ExamRepo) GetByID(ctx context.Context, attemptID uint) (*entity.ExamAttempt, error) {
	var attempt entity.ExamAttempt
	if err := r.db.WithContext(ctx).First(&attempt, attemptID).Error; err != nil {
		return nil, mapNotFound(err)
	}
	return &attempt, nil
}

// GetLatestActive возвращает самую свежую незавершенную попытку пользователя
func (r *ExamRepo) GetLatestActive(ctx context.Context, userID uint) (*entity.ExamAttempt, error) {
	var attempt entity.ExamAttempt
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND attempt_status = ?", userID, entity.AttemptInProgress).
		Order("started_at DESC, id DESC").
		First(&attempt).Error
	if err != nil {
		return nil, mapNotFound(err)
	}
	return &attempt, nil
}

// SaveAnswer в одной транзакции двигает указатель вопроса и делает upsert ответа.
// UPDATE берет блокировку строки попытки, поэтому запись ответа не может
// проскочить мимо параллельного завершения.
func (r *ExamRepo) SaveAnswer(ctx context.Context, answer *entity.ExamAnswer, currentQuestion int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := advanceAttempt(tx, answer.AttemptID, currentQuestion)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: attempt #%d is not in progress", apperrors.ErrConflict, answer.AttemptID)
		}

		return upsertAnswer(tx, answer).Error
	})
}

// ListAnswers возвращает ответы попытки по возрастанию id вопроса
func (r *ExamRepo) ListAnswers(ctx context.Context, attemptID uint) ([]entity.ExamAnswer, error) {
	var answers []entity.ExamAnswer
	err := r.db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("question_id ASC").
		Find(&answers).Error
	return answers, err
}

// FinishAttempt блокирует строку попытки, считает баллы и завершает ее.
// Повторный вызов возвращает сохраненный результат без пересчета.
func (r *ExamRepo) FinishAttempt(ctx context.Context, attemptID uint, score repository.ScoreFunc, finishedAt time.Time) (*entity.ExamAttempt, error) {
	var finished entity.ExamAttempt

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockAttempt(tx, &finished, attemptID).Error; err != nil {
			return mapNotFound(err)
		}
		if !finished.IsInProgress() {
			return nil
		}

		var keys []entity.AnswerKey
		err := tx.Table("exam_answers AS ea").
			Select("ea.question_id, ea.selected_option, q.correct_option").
			Joins("JOIN questions q ON q.id = ea.question_id").
			Where("ea.attempt_id = ?", attemptID).
			Scan(&keys).Error
		if err != nil {
			return fmt.Errorf("load answer keys for attempt #%d: %w", attemptID, err)
		}

		total := score(keys)
		result := completeAttempt(tx, attemptID, total, finishedAt)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: attempt #%d finished concurrently", apperrors.ErrConflict, attemptID)
		}

		finished.Score = &total
		finished.FinishedAt = &finishedAt
		finished.AttemptStatus = entity.AttemptCompleted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &finished, nil
}

// History возвращает попытки пользователя с названием сертификации, новые первыми
func (r *ExamRepo) History(ctx context.Context, userID uint) ([]entity.AttemptSummary, error) {
	var rows []entity.AttemptSummary
	err := r.db.WithContext(ctx).
		Table("exam_attempts AS ea").
		Select("ea.id, ea.certification_id, c.name AS certification_name, ea.attempt_status, ea.score, ea.started_at, ea.finished_at").
		Joins("JOIN certifications c ON c.certification_id = ea.certification_id").
		Where("ea.user_id = ?", userID).
		Order("ea.started_at DESC, ea.id DESC").
		Scan(&rows).Error
	return rows, err
}

// Review возвращает отвеченные вопросы попытки вместе с правильными ответами
func (r *ExamRepo) Review(ctx context.Context, attemptID uint) ([]entity.ReviewItem, error) {
	var items []entity.ReviewItem
	err := r.db.WithContext(ctx).
		Table("exam_answers AS ea").
		Select(`q.id AS question_id, q.question, q.option_a, q.option_b, q.option_c,
			q.option_d, q.option_e, q.correct_option, ea.selected_option`).
		Joins("JOIN questions q ON q.id = ea.question_id").
		Where("ea.attempt_id = ?", attemptID).
		Order("q.id ASC").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].IsCorrect = items[i].SelectedOption == items[i].CorrectOption
	}
	return items, nil
}
