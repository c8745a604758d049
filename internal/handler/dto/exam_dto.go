package dto

import (
	"time"

	"github.com/uchennaezeilo/ExamCert/internal/domain/entity"
)

// StartExamRequest - старт или возобновление попытки
type StartExamRequest struct {
	CertificationID uint `json:"certificationId" binding:"required"`
}

// AnswerRequest - ответ на вопрос. CurrentQuestion может быть 0, поэтому не required.
type AnswerRequest struct {
	AttemptID       uint   `json:"attemptId" binding:"required"`
	QuestionID      uint   `json:"questionId" binding:"required"`
	SelectedOption  string `json:"selectedOption" binding:"required"`
	CurrentQuestion int    `json:"currentQuestion"`
}

// FinishExamRequest - завершение попытки
type FinishExamRequest struct {
	AttemptID uint `json:"attemptId" binding:"required"`
}

// StartExamResponse - результат старта
type StartExamResponse struct {
	AttemptID uint `json:"attemptId"`
	Resumed   bool `json:"resumed"`
}

// AnswerStateResponse - сохраненный ответ незавершенной попытки
type AnswerStateResponse struct {
	QuestionID     uint   `json:"question_id"`
	SelectedOption string `json:"selected_option"`
}

// ActiveAttemptResponse - незавершенная попытка с ответами
type ActiveAttemptResponse struct {
	Attempt *entity.ExamAttempt   `json:"attempt"`
	Answers []AnswerStateResponse `json:"answers"`
	Expired bool                  `json:"expired"`
}

// NewAnswerStateList преобразует ответы попытки
func NewAnswerStateList(answers []entity.ExamAnswer) []AnswerStateResponse {
	out := make([]AnswerStateResponse, 0, len(answers))
	for _, a := range answers {
		out = append(out, AnswerStateResponse{QuestionID: a.QuestionID, SelectedOption: a.SelectedOption})
	}
	return out
}

// HistoryItemResponse - строка истории. name дублирует certification_name для веб-клиента.
type HistoryItemResponse struct {
	ID                uint                 `json:"id"`
	CertificationID   uint                 `json:"certification_id"`
	Name              string               `json:"name"`
	CertificationName string               `json:"certification_name"`
	AttemptStatus     entity.AttemptStatus `json:"attempt_status"`
	Score             *int                 `json:"score"`
	StartedAt         time.Time            `json:"started_at"`
	FinishedAt        *time.Time           `json:"finished_at"`
}

// NewHistoryResponse преобразует историю попыток, сохраняя порядок
func NewHistoryResponse(rows []entity.AttemptSummary) []HistoryItemResponse {
	out := make([]HistoryItemResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, HistoryItemResponse{
			ID:                r.ID,
			CertificationID:   r.CertificationID,
			Name:              r.CertificationName,
			CertificationName: r.CertificationName,
			AttemptStatus:     r.AttemptStatus,
			Score:             r.Score,
			StartedAt:         r.StartedAt,
			FinishedAt:        r.FinishedAt,
		})
	}
	return out
}

// ReviewItemResponse - строка разбора. id дублирует question_id для веб-клиента.
type ReviewItemResponse struct {
	ID uint `json:"id"`
	entity.ReviewItem
}

// NewReviewResponse преобразует разбор попытки, сохраняя порядок вопросов
func NewReviewResponse(items []entity.ReviewItem) []ReviewItemResponse {
	out := make([]ReviewItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, ReviewItemResponse{ID: item.QuestionID, ReviewItem: item})
	}
	return out
}
