package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/uchennaezeilo/ExamCert/internal/domain/entity"
	"github.com/uchennaezeilo/ExamCert/internal/domain/repository"
	apperrors "github.com/uchennaezeilo/ExamCert/internal/pkg/errors"
)

// memCatalog - in-memory CertificationRepository и QuestionRepository
type memCatalog struct {
	mu        sync.Mutex
	certs     map[uint]*entity.Certification
	questions map[uint]*entity.Question
	nextQID   uint
}

func newMemCatalog() *memCatalog {
	return &memCatalog{
		certs:     make(map[uint]*entity.Certification),
		questions: make(map[uint]*entity.Question),
	}
}

func (c *memCatalog) addCert(id uint, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.certs[id] = &entity.Certification{ID: id, Name: name}
}

func (c *memCatalog) addQuestion(certID uint, text, correct string) uint {
	q := &entity.Question{
		CertificationID: certID,
		Text:            text,
		OptionA:         "a", OptionB: "b", OptionC: "c", OptionD: "d", OptionE: "e",
		CorrectOption: correct,
	}
	_ = c.Create(context.Background(), q)
	return q.ID
}

func (c *memCatalog) List(ctx context.Context) ([]entity.Certification, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]entity.Certification, 0, len(c.certs))
	for _, cert := range c.certs {
		out = append(out, *cert)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *memCatalog) GetByID(ctx context.Context, id uint) (*entity.Certification, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cert, ok := c.certs[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *cert
	return &cp, nil
}

// memQuestions - отдельный тип, чтобы не конфликтовали методы GetByID
type memQuestions struct{ *memCatalog }

func (c *memCatalog) Create(ctx context.Context, q *entity.Question) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextQID++
	q.ID = c.nextQID
	cp := *q
	c.questions[q.ID] = &cp
	return nil
}

func (q memQuestions) GetByID(ctx context.Context, id uint) (*entity.Question, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	question, ok := q.questions[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *question
	return &cp, nil
}

func (q memQuestions) List(ctx context.Context, certificationID *uint) ([]entity.Question, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]entity.Question, 0, len(q.questions))
	for _, question := range q.questions {
		if certificationID != nil && question.CertificationID != *certificationID {
			continue
		}
		out = append(out, *question)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type answerKey struct {
	attemptID  uint
	questionID uint
}

// memExamRepo повторяет ограничения схемы: одна IN_PROGRESS попытка на
// (пользователь, сертификация) и один ответ на (попытка, вопрос)
type memExamRepo struct {
	mu       sync.Mutex
	catalog  *memCatalog
	attempts map[uint]*entity.ExamAttempt
	answers  map[answerKey]*entity.ExamAnswer
	nextID   uint
}

var _ repository.ExamRepository = (*memExamRepo)(nil)

func newMemExamRepo(catalog *memCatalog) *memExamRepo {
	return &memExamRepo{
		catalog:  catalog,
		attempts: make(map[uint]*entity.ExamAttempt),
		answers:  make(map[answerKey]*entity.ExamAnswer),
	}
}

func (r *memExamRepo) FindOrCreateActive(ctx context.Context, userID, certificationID uint, now time.Time) (*entity.ExamAttempt, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.attempts {
		if a.UserID == userID && a.CertificationID == certificationID && a.IsInProgress() {
			cp := *a
			return &cp, false, nil
		}
	}
	r.nextID++
	a := &entity.ExamAttempt{
		ID:              r.nextID,
		UserID:          userID,
		CertificationID: certificationID,
		StartedAt:       now,
		AttemptStatus:   entity.AttemptInProgress,
	}
	r.attempts[a.ID] = a
	cp := *a
	return &cp, true, nil
}

func (r *memExamRepo) GetByID(ctx context.Context, attemptID uint) (*entity.ExamAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[attemptID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memExamRepo) GetLatestActive(ctx context.Context, userID uint) (*entity.ExamAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *entity.ExamAttempt
	for _, a := range r.attempts {
		if a.UserID != userID || !a.IsInProgress() {
			continue
		}
		if latest == nil || a.StartedAt.After(latest.StartedAt) ||
			(a.StartedAt.Equal(latest.StartedAt) && a.ID > latest.ID) {
			latest = a
		}
	}
	if latest == nil {
		return nil, apperrors.ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func (r *memExamRepo) SaveAnswer(ctx context.Context, answer *entity.ExamAnswer, currentQuestion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[answer.AttemptID]
	if !ok {
		return apperrors.ErrNotFound
	}
	if !a.IsInProgress() {
		return apperrors.ErrConflict
	}
	a.CurrentQuestion = currentQuestion
	cp := *answer
	r.answers[answerKey{answer.AttemptID, answer.QuestionID}] = &cp
	return nil
}

func (r *memExamRepo) ListAnswers(ctx context.Context, attemptID uint) ([]entity.ExamAnswer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.answersLocked(attemptID), nil
}

func (r *memExamRepo) answersLocked(attemptID uint) []entity.ExamAnswer {
	var out []entity.ExamAnswer
	for k, ans := range r.answers {
		if k.attemptID == attemptID {
			out = append(out, *ans)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuestionID < out[j].QuestionID })
	return out
}

func (r *memExamRepo) FinishAttempt(ctx context.Context, attemptID uint, score repository.ScoreFunc, finishedAt time.Time) (*entity.ExamAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.attempts[attemptID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	if a.IsInProgress() {
		var keys []entity.AnswerKey
		for _, ans := range r.answersLocked(attemptID) {
			q := r.catalog.questions[ans.QuestionID]
			keys = append(keys, entity.AnswerKey{
				QuestionID:     ans.QuestionID,
				SelectedOption: ans.SelectedOption,
				CorrectOption:  q.CorrectOption,
			})
		}
		total := score(keys)
		a.Score = &total
		a.FinishedAt = &finishedAt
		a.AttemptStatus = entity.AttemptCompleted
	}
	cp := *a
	return &cp, nil
}

func (r *memExamRepo) History(ctx context.Context, userID uint) ([]entity.AttemptSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.AttemptSummary
	for _, a := range r.attempts {
		if a.UserID != userID {
			continue
		}
		out = append(out, entity.AttemptSummary{
			ID:                a.ID,
			CertificationID:   a.CertificationID,
			CertificationName: r.catalog.certs[a.CertificationID].Name,
			AttemptStatus:     a.AttemptStatus,
			Score:             a.Score,
			StartedAt:         a.StartedAt,
			FinishedAt:        a.FinishedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}

func (r *memExamRepo) Review(ctx context.Context, attemptID uint) ([]entity.ReviewItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.ReviewItem
	for _, ans := range r.answersLocked(attemptID) {
		q := r.catalog.questions[ans.QuestionID]
		out = append(out, entity.ReviewItem{
			QuestionID:     q.ID,
			Question:       q.Text,
			OptionA:        q.OptionA,
			OptionB:        q.OptionB,
			OptionC:        q.OptionC,
			OptionD:        q.OptionD,
			OptionE:        q.OptionE,
			CorrectOption:  q.CorrectOption,
			SelectedOption: ans.SelectedOption,
			IsCorrect:      q.IsCorrect(ans.SelectedOption),
		})
	}
	return out, nil
}
