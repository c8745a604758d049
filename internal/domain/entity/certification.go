package entity

import "time"

// Certification представляет сертификацию (справочные данные каталога)
type Certification struct {
	ID        uint      `gorm:"column:certification_id;primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	CreatedAt time.Time `json:"-"`
}

// TableName определяет имя таблицы для GORM
func (Certification) TableName() string {
	return "certifications"
}
