package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID                string `gorm:"type:varchar(36);primaryKey"`
	LoginID           string `gorm:"type:varchar(50);uniqueIndex;not null"`
	Name              string `gorm:"type:varchar(50);not null"`
	PasswordHash      string `gorm:"not null"`
	BirthDate         time.Time
	Gender            string `gorm:"type:varchar(1)"`
	Diaries           []Diary
	PositiveAnswers   []PositiveAnswer
	PushSubscriptions []PushSubscription
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

func (u User) IsSet() bool {
	return u.ID != ""
}

func ValidGender(g string) bool {
	return g == "M" || g == "F"
}
