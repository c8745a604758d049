package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestScoreAnswers(t *testing.T) {
	tests := []struct {
		name     string
		keys     []AnswerKey
		expected int
	}{
		{"нет ответов", nil, 0},
		{
			"один верный из двух",
			[]AnswerKey{
				{QuestionID: 1, SelectedOption: "A", CorrectOption: "A"},
				{QuestionID: 2, SelectedOption: "B", CorrectOption: "C"},
			},
			1,
		},
		{
			"регистр имеет значение",
			[]AnswerKey{{QuestionID: 1, SelectedOption: "a", CorrectOption: "A"}},
			0,
		},
		{
			"все верные",
			[]AnswerKey{
				{QuestionID: 1, SelectedOption: "E", CorrectOption: "E"},
				{QuestionID: 2, SelectedOption: "D", CorrectOption: "D"},
				{QuestionID: 3, SelectedOption: "A", CorrectOption: "A"},
			},
			3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ScoreAnswers(tt.keys))
		})
	}
}

func TestExamAttempt_IsExpired(t *testing.T) {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	attempt := &ExamAttempt{StartedAt: started, AttemptStatus: AttemptInProgress}

	assert.False(t, attempt.IsExpired(started.Add(100*time.Hour), 0), "TTL 0 отключает истечение")
	assert.False(t, attempt.IsExpired(started.Add(59*time.Minute), time.Hour))
	assert.True(t, attempt.IsExpired(started.Add(time.Hour), time.Hour), "Граница TTL считается истечением")
	assert.True(t, attempt.IsExpired(started.Add(2*time.Hour), time.Hour))

	attempt.AttemptStatus = AttemptCompleted
	assert.False(t, attempt.IsExpired(started.Add(2*time.Hour), time.Hour), "Завершенная попытка не истекает")
}

func TestExamAttempt_Ownership(t *testing.T) {
	attempt := &ExamAttempt{UserID: 7, AttemptStatus: AttemptInProgress}

	assert.True(t, attempt.IsOwnedBy(7))
	assert.False(t, attempt.IsOwnedBy(8))
	assert.True(t, attempt.IsInProgress())
}

func TestExamTableNames(t *testing.T) {
	assert.Equal(t, "exam_attempts", ExamAttempt{}.TableName())
	assert.Equal(t, "exam_answers", ExamAnswer{}.TableName())
	assert.Equal(t, "certifications", Certification{}.TableName())
	assert.Equal(t, "invalid_tokens", InvalidToken{}.TableName())
}
