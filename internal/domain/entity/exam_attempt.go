package entity

import "time"

// AttemptStatus - состояние попытки экзамена
type AttemptStatus string

// Попытка создается в IN_PROGRESS и переходит в COMPLETED ровно один раз
const (
	AttemptInProgress AttemptStatus = "IN_PROGRESS"
	AttemptCompleted  AttemptStatus = "COMPLETED"
)

// ExamAttempt представляет один проход пользователя по вопросам сертификации
type ExamAttempt struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	UserID          uint          `gorm:"not null;index" json:"user_id"`
	CertificationID uint          `gorm:"not null;index" json:"certification_id"`
	StartedAt       time.Time     `gorm:"not null" json:"started_at"`
	FinishedAt      *time.Time    `json:"finished_at"`
	AttemptStatus   AttemptStatus `gorm:"size:20;not null" json:"attempt_status"`
	CurrentQuestion int           `gorm:"not null;default:0" json:"current_question"`
	Score           *int          `json:"score"`
}

// TableName определяет имя таблицы для GORM
func (ExamAttempt) TableName() string {
	return "exam_attempts"
}

// IsInProgress возвращает true для незавершенной попытки
func (a *ExamAttempt) IsInProgress() bool {
	return a.AttemptStatus == AttemptInProgress
}

// IsOwnedBy проверяет владельца попытки
func (a *ExamAttempt) IsOwnedBy(userID uint) bool {
	return a.UserID == userID
}

// IsExpired сообщает, просрочена ли незавершенная попытка на момент now.
// ttl <= 0 означает, что попытки не истекают. Завершенная попытка не истекает.
func (a *ExamAttempt) IsExpired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 || !a.IsInProgress() {
		return false
	}
	return !now.Before(a.StartedAt.Add(ttl))
}

// ExamAnswer - выбранный вариант для пары (попытка, вопрос)
type ExamAnswer struct {
	AttemptID      uint      `gorm:"primaryKey" json:"attempt_id"`
	QuestionID     uint      `gorm:"primaryKey" json:"question_id"`
	SelectedOption string    `gorm:"size:1;not null" json:"selected_option"`
	CreatedAt      time.Time `json:"-"`
	UpdatedAt      time.Time `json:"-"`
}

// TableName определяет имя таблицы для GORM
func (ExamAnswer) TableName() string {
	return "exam_answers"
}

// AnswerKey - ответ пользователя вместе с правильной меткой вопроса
type AnswerKey struct {
	QuestionID     uint
	SelectedOption string
	CorrectOption  string
}

// ScoreAnswers считает количество ответов, где выбранная метка точно
// (с учетом регистра) совпадает с правильной
func ScoreAnswers(keys []AnswerKey) int {
	score := 0
	for _, k := range keys {
		if k.SelectedOption == k.CorrectOption {
			score++
		}
	}
	return score
}

// AttemptSummary - строка истории попыток
type AttemptSummary struct {
	ID                uint          `json:"id"`
	CertificationID   uint          `json:"certification_id"`
	CertificationName string        `json:"certification_name"`
	AttemptStatus     AttemptStatus `json:"attempt_status"`
	Score             *int          `json:"score"`
	StartedAt         time.Time     `json:"started_at"`
	FinishedAt        *time.Time    `json:"finished_at"`
}

// ReviewItem - строка разбора попытки по одному отвеченному вопросу
type ReviewItem struct {
	QuestionID     uint   `json:"question_id"`
	Question       string `json:"question"`
	OptionA        string `json:"option_a"`
	OptionB        string `json:"option_b"`
	OptionC        string `json:"option_c"`
	OptionD        string `json:"option_d"`
	OptionE        string `json:"option_e"`
	CorrectOption  string `json:"correct_option"`
	SelectedOption string `json:"selected_option"`
	IsCorrect      bool   `json:"is_correct"`
}
