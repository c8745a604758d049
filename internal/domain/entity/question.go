package entity

import "time"

// Метки вариантов ответа
const (
	OptionA = "A"
	OptionB = "B"
	OptionC = "C"
	OptionD = "D"
	OptionE = "E"
)

// OptionLabels перечисляет допустимые метки в порядке отображения
var OptionLabels = []string{OptionA, OptionB, OptionC, OptionD, OptionE}

// IsValidOptionLabel проверяет метку варианта. Сравнение регистрозависимое,
// как и при подсчете баллов.
func IsValidOptionLabel(label string) bool {
	for _, l := range OptionLabels {
		if l == label {
			return true
		}
	}
	return false
}

// Question представляет вопрос сертификации с пятью вариантами ответа
type Question struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	CertificationID uint      `gorm:"not null;index" json:"certification_id"`
	Text            string    `gorm:"column:question;type:text;not null" json:"question"`
	OptionA         string    `gorm:"column:option_a;type:text;not null" json:"option_a"`
	OptionB         string    `gorm:"column:option_b;type:text;not null" json:"option_b"`
	OptionC         string    `gorm:"column:option_c;type:text;not null" json:"option_c"`
	OptionD         string    `gorm:"column:option_d;type:text;not null" json:"option_d"`
	OptionE         string    `gorm:"column:option_e;type:text;not null" json:"option_e"`
	CorrectOption   string    `gorm:"size:1;not null" json:"correct_option"`
	CreatedAt       time.Time `json:"-"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// IsCorrect проверяет, совпадает ли выбранная метка с правильной
func (q *Question) IsCorrect(selected string) bool {
	return selected == q.CorrectOption
}

// Option возвращает текст варианта по метке или пустую строку
func (q *Question) Option(label string) string {
	switch label {
	case OptionA:
		return q.OptionA
	case OptionB:
		return q.OptionB
	case OptionC:
		return q.OptionC
	case OptionD:
		return q.OptionD
	case OptionE:
		return q.OptionE
	}
	return ""
}

// HasAllOptions проверяет, что все пять вариантов заполнены
func (q *Question) HasAllOptions() bool {
	for _, l := range OptionLabels {
		if q.Option(l) == "" {
			return false
		}
	}
	return true
}
