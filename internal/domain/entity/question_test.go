package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestQuestion() *Question {
	return &Question{
		ID:              1,
		CertificationID: 1,
		Text:            "Какой порт по умолчанию у PostgreSQL?",
		OptionA:         "5432",
		OptionB:         "3306",
		OptionC:         "6379",
		OptionD:         "27017",
		OptionE:         "1521",
		CorrectOption:   OptionA,
	}
}

func TestQuestion_IsCorrect(t *testing.T) {
	question := newTestQuestion()

	assert.True(t, question.IsCorrect("A"), "IsCorrect должен вернуть true для правильного ответа")
	assert.False(t, question.IsCorrect("B"), "IsCorrect должен вернуть false для неправильного ответа")
	assert.False(t, question.IsCorrect("a"), "Сравнение должно быть регистрозависимым")
}

func TestQuestion_Option(t *testing.T) {
	question := newTestQuestion()

	assert.Equal(t, "5432", question.Option("A"))
	assert.Equal(t, "1521", question.Option("E"))
	assert.Equal(t, "", question.Option("F"), "Неизвестная метка возвращает пустую строку")
}

func TestQuestion_HasAllOptions(t *testing.T) {
	question := newTestQuestion()
	assert.True(t, question.HasAllOptions())

	question.OptionD = ""
	assert.False(t, question.HasAllOptions(), "Пустой вариант D должен делать вопрос неполным")
}

func TestIsValidOptionLabel(t *testing.T) {
	for _, label := range []string{"A", "B", "C", "D", "E"} {
		assert.True(t, IsValidOptionLabel(label), "Метка %s должна быть валидной", label)
	}
	for _, label := range []string{"", "a", "F", "AB", " A"} {
		assert.False(t, IsValidOptionLabel(label), "Метка %q должна быть невалидной", label)
	}
}

func TestQuestion_TableName(t *testing.T) {
	assert.Equal(t, "questions", Question{}.TableName())
}
