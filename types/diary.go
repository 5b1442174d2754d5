package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/oliverisaac/grooming/lib/emotion"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MaxDiaryRunes bounds the length of a diary entry.
const MaxDiaryRunes = 100

// Diary is one user's entry for one calendar day.
type Diary struct {
	ID           string    `gorm:"type:varchar(36);primaryKey"`
	UserID       string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_diary_user_date,priority:1"`
	EntryDate    time.Time `gorm:"not null;uniqueIndex:idx_diary_user_date,priority:2"`
	Content      string    `gorm:"type:text;not null"`
	ImageURL     string
	EmotionLabel emotion.Label `gorm:"type:varchar(20);not null"`
	EmotionScore float64       `gorm:"not null"`
	EmotionEmoji string        `gorm:"type:varchar(255);not null"`
	Distribution datatypes.JSONType[emotion.Distribution]
	AIComment    string    `gorm:"type:text;not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (d *Diary) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// ApplyAnalysis stores an engine result on the entry.
func (d *Diary) ApplyAnalysis(a emotion.Analysis) {
	d.EmotionLabel = a.Label
	d.EmotionScore = a.Confidence
	d.EmotionEmoji = a.ImageKey
	d.Distribution = datatypes.NewJSONType(a.Distribution)
	d.AIComment = a.Comment
}

func (d Diary) Sample() emotion.Sample {
	return emotion.Sample{Date: d.EntryDate, Label: d.EmotionLabel, Confidence: d.EmotionScore}
}

func (d Diary) DayRecord() emotion.DayRecord {
	return emotion.DayRecord{Date: d.EntryDate, Label: d.EmotionLabel, Distribution: d.Distribution.Data()}
}

// DayOf is the calendar day of t in t's location, as midnight UTC. Every
// stored date goes through it so dates compare equal across drivers.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay reads a YYYY-MM-DD date.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, err
	}
	return DayOf(t), nil
}
