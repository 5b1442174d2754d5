package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MaxAnswerRunes bounds the length of a positive answer.
const MaxAnswerRunes = 300

// PositiveQuestion is a catalog entry. Sequence numbers start at 1.
type PositiveQuestion struct {
	ID       string `gorm:"type:varchar(36);primaryKey"`
	Sequence int    `gorm:"uniqueIndex;not null"`
	Text     string `gorm:"type:text;not null"`
}

func (q *PositiveQuestion) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

type PositiveAnswer struct {
	ID         string           `gorm:"type:varchar(36);primaryKey"`
	UserID     string           `gorm:"type:varchar(36);not null;uniqueIndex:idx_answer_user_date,priority:1"`
	QuestionID string           `gorm:"type:varchar(36);not null;index"`
	Question   PositiveQuestion `gorm:"constraint:OnDelete:RESTRICT"`
	AnswerDate time.Time        `gorm:"not null;uniqueIndex:idx_answer_user_date,priority:2"`
	Answer     string           `gorm:"type:text;not null"`
	CreatedAt  time.Time        `gorm:"autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"autoUpdateTime"`
}

func (a *PositiveAnswer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
