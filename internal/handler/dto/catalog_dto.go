package dto

import (
	"github.com/uchennaezeilo/ExamCert/internal/domain/entity"
	"github.com/uchennaezeilo/ExamCert/internal/handler/helper"
)

// CreateQuestionRequest представляет новый вопрос
type CreateQuestionRequest struct {
	CertificationID uint   `json:"certification_id" binding:"required"`
	Question        string `json:"question" binding:"required"`
	OptionA         string `json:"option_a" binding:"required"`
	OptionB         string `json:"option_b" binding:"required"`
	OptionC         string `json:"option_c" binding:"required"`
	OptionD         string `json:"option_d" binding:"required"`
	OptionE         string `json:"option_e" binding:"required"`
	CorrectOption   string `json:"correct_option" binding:"required"`
}

// QuestionResponse представляет вопрос в формате для ответа клиенту.
// CorrectOption отдается только аутентифицированным пользователям.
type QuestionResponse struct {
	ID              uint                    `json:"id"`
	CertificationID uint                    `json:"certification_id"`
	Question        string                  `json:"question"`
	OptionA         string                  `json:"option_a"`
	OptionB         string                  `json:"option_b"`
	OptionC         string                  `json:"option_c"`
	OptionD         string                  `json:"option_d"`
	OptionE         string                  `json:"option_e"`
	Options         []helper.QuestionOption `json:"options"`
	CorrectOption   *string                 `json:"correct_option,omitempty"`
}

// NewQuestionResponse создает DTO для вопроса
func NewQuestionResponse(q *entity.Question, withAnswer bool) QuestionResponse {
	resp := QuestionResponse{
		ID:              q.ID,
		CertificationID: q.CertificationID,
		Question:        q.Text,
		OptionA:         q.OptionA,
		OptionB:         q.OptionB,
		OptionC:         q.OptionC,
		OptionD:         q.OptionD,
		OptionE:         q.OptionE,
		Options:         helper.ConvertOptionsToObjects(q),
	}
	if withAnswer {
		correct := q.CorrectOption
		resp.CorrectOption = &correct
	}
	return resp
}

// NewQuestionListResponse создает список DTO, сохраняя порядок
func NewQuestionListResponse(questions []entity.Question, withAnswer bool) []QuestionResponse {
	out := make([]QuestionResponse, 0, len(questions))
	for i := range questions {
		out = append(out, NewQuestionResponse(&questions[i], withAnswer))
	}
	return out
}
