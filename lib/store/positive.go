package store

import (
	"context"
	"time"

	"github.com/oliverisaac/grooming/lib/apperr"
	"github.com/oliverisaac/grooming/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// DefaultQuestions is the catalog seeded into an empty database, in order.
var DefaultQuestions = []string{
	"Today I am grateful for...",
	"What simple pleasure brought a smile to your face today?",
	"Name one person who made your day better. Why?",
	"What is a small detail you appreciate about your surroundings right now?",
	"What is something you learned today that you're grateful for?",
	"Think about a challenge you overcame. What are you grateful for in that experience?",
	"Today I am thankful for my ability to...",
	"What sound or sight are you grateful for today?",
	"What's one thing you have that you sometimes take for granted?",
	"Today's best moment was...",
	"Who is someone you are grateful to have in your life, and why?",
	"What about your own body or mind are you grateful for?",
	"What is a specific food or drink you enjoyed today?",
	"What about your home or living space are you grateful for?",
	"Think about a quiet moment you had. What did you appreciate about it?",
	"What skill or talent are you grateful to have?",
}

// SeedQuestions fills the catalog when it is empty. Existing catalogs are
// never touched.
func SeedQuestions(db *gorm.DB, texts []string) error {
	var count int64
	if err := db.Model(&types.PositiveQuestion{}).Count(&count).Error; err != nil {
		return errors.Wrap(err, "counting positive questions")
	}
	if count > 0 {
		return nil
	}

	questions := make([]types.PositiveQuestion, len(texts))
	for i, text := range texts {
		questions[i] = types.PositiveQuestion{Sequence: i + 1, Text: text}
	}
	if err := db.Create(&questions).Error; err != nil {
		return errors.Wrap(err, "seeding positive questions")
	}
	logrus.Infof("Seeded %d positive questions", len(questions))
	return nil
}

func (s *Store) Question(ctx context.Context, id string) (types.PositiveQuestion, error) {
	var q types.PositiveQuestion
	err := s.conn(ctx).First(&q, "id = ?", id).Error
	return q, readErr(err, "question")
}

// QuestionBySequence returns nil when the catalog has no such question.
func (s *Store) QuestionBySequence(ctx context.Context, seq int) (*types.PositiveQuestion, error) {
	var q types.PositiveQuestion
	err := s.conn(ctx).First(&q, "sequence = ?", seq).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Persistence(err, "finding question %d", seq)
	}
	return &q, nil
}

// LastAnswer returns the user's most recent answer, or nil.
func (s *Store) LastAnswer(ctx context.Context, userID string) (*types.PositiveAnswer, error) {
	var a types.PositiveAnswer
	err := s.conn(ctx).Preload("Question").
		Where("user_id = ?", userID).
		Order("answer_date DESC").
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Persistence(err, "finding last answer")
	}
	return &a, nil
}

func (s *Store) AnsweredOn(ctx context.Context, userID string, day time.Time) (bool, error) {
	var count int64
	err := s.conn(ctx).Model(&types.PositiveAnswer{}).
		Where("user_id = ? AND answer_date = ?", userID, types.DayOf(day)).
		Count(&count).Error
	if err != nil {
		return false, apperr.Persistence(err, "checking answer date")
	}
	return count > 0, nil
}

func (s *Store) CreateAnswer(ctx context.Context, a *types.PositiveAnswer) error {
	a.AnswerDate = types.DayOf(a.AnswerDate)
	err := s.conn(ctx).Omit("Question").Create(a).Error
	return writeErr(err, "already answered today", "saving answer")
}

// Answers lists the user's answers newest first.
func (s *Store) Answers(ctx context.Context, userID string) ([]types.PositiveAnswer, error) {
	ret := []types.PositiveAnswer{}
	err := s.conn(ctx).Preload("Question").
		Where("user_id = ?", userID).
		Order("answer_date DESC").
		Find(&ret).Error
	if err != nil {
		return nil, apperr.Persistence(err, "listing answers")
	}
	return ret, nil
}

// AnswerForUser loads an answer only if userID owns it.
func (s *Store) AnswerForUser(ctx context.Context, userID, id string) (types.PositiveAnswer, error) {
	var a types.PositiveAnswer
	err := s.conn(ctx).Preload("Question").First(&a, "id = ? AND user_id = ?", id, userID).Error
	return a, readErr(err, "answer")
}

func (s *Store) UpdateAnswerText(ctx context.Context, a *types.PositiveAnswer, text string) error {
	err := s.conn(ctx).Model(a).Update("answer", text).Error
	if err != nil {
		return apperr.Persistence(err, "updating answer %s", a.ID)
	}
	a.Answer = text
	return nil
}
