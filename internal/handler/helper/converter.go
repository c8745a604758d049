package helper

import (
	"github.com/uchennaezeilo/ExamCert/internal/domain/entity"
)

// QuestionOption представляет вариант ответа для фронтенда
type QuestionOption struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// ConvertOptionsToObjects раскладывает пять колонок вариантов в упорядоченный
// список объектов с меткой и текстом
func ConvertOptionsToObjects(q *entity.Question) []QuestionOption {
	converted := make([]QuestionOption, 0, len(entity.OptionLabels))
	for _, label := range entity.OptionLabels {
		converted = append(converted, QuestionOption{Label: label, Text: q.Option(label)})
	}
	return converted
}
