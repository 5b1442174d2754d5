package positive

import (
	"context"
	"time"

	"github.com/oliverisaac/grooming/lib/apperr"
	"github.com/oliverisaac/grooming/types"
	"github.com/sirupsen/logrus"
)

// Store is the persistence the sequencer needs. *store.Store satisfies it.
type Store interface {
	Question(ctx context.Context, id string) (types.PositiveQuestion, error)
	QuestionBySequence(ctx context.Context, seq int) (*types.PositiveQuestion, error)
	LastAnswer(ctx context.Context, userID string) (*types.PositiveAnswer, error)
	AnsweredOn(ctx context.Context, userID string, day time.Time) (bool, error)
	CreateAnswer(ctx context.Context, a *types.PositiveAnswer) error
	Answers(ctx context.Context, userID string) ([]types.PositiveAnswer, error)
	AnswerForUser(ctx context.Context, userID, id string) (types.PositiveAnswer, error)
	UpdateAnswerText(ctx context.Context, a *types.PositiveAnswer, text string) error
}

// State is how far a user has come through the catalog.
type State struct {
	LastSequence int
	LastAnswered time.Time
}

func (s State) NextSequence() int {
	return s.LastSequence + 1
}

// Eligible reports whether a new question may be shown on today. A full
// calendar day must pass after the last answer.
func (s State) Eligible(today time.Time) bool {
	if s.LastAnswered.IsZero() {
		return true
	}
	return types.DayOf(today).After(types.DayOf(s.LastAnswered))
}

// CanSubmit reports whether a question with sequence seq is next in order.
func (s State) CanSubmit(seq int) bool {
	return seq == s.NextSequence()
}

// Sequencer hands out catalog questions one per day in strict order.
type Sequencer struct {
	store Store
	now   func() time.Time
}

func NewSequencer(store Store, now func() time.Time) *Sequencer {
	if now == nil {
		now = time.Now
	}
	return &Sequencer{store: store, now: now}
}

func (s *Sequencer) today() time.Time {
	return types.DayOf(s.now())
}

func (s *Sequencer) State(ctx context.Context, userID string) (State, error) {
	last, err := s.store.LastAnswer(ctx, userID)
	if err != nil {
		return State{}, err
	}
	if last == nil {
		return State{}, nil
	}
	return State{LastSequence: last.Question.Sequence, LastAnswered: last.AnswerDate}, nil
}

// NextQuestion returns the question the user may answer today, or nil when
// they already answered today or have reached the end of the catalog.
func (s *Sequencer) NextQuestion(ctx context.Context, userID string) (*types.PositiveQuestion, error) {
	state, err := s.State(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !state.Eligible(s.today()) {
		return nil, nil
	}
	return s.store.QuestionBySequence(ctx, state.NextSequence())
}

// Submit records text as the user's answer to questionID for today.
func (s *Sequencer) Submit(ctx context.Context, userID, questionID, text string) (types.PositiveAnswer, error) {
	text, err := types.ValidateContent("answer", text, types.MaxAnswerRunes)
	if err != nil {
		return types.PositiveAnswer{}, err
	}

	question, err := s.store.Question(ctx, questionID)
	if err != nil {
		return types.PositiveAnswer{}, err
	}

	state, err := s.State(ctx, userID)
	if err != nil {
		return types.PositiveAnswer{}, err
	}
	if !state.CanSubmit(question.Sequence) {
		return types.PositiveAnswer{}, apperr.Conflict("question %d is out of order; next is %d", question.Sequence, state.NextSequence())
	}

	today := s.today()
	answered, err := s.store.AnsweredOn(ctx, userID, today)
	if err != nil {
		return types.PositiveAnswer{}, err
	}
	if answered {
		return types.PositiveAnswer{}, apperr.Conflict("already answered today")
	}

	answer := types.PositiveAnswer{
		UserID:     userID,
		QuestionID: question.ID,
		AnswerDate: today,
		Answer:     text,
	}
	if err := s.store.CreateAnswer(ctx, &answer); err != nil {
		return types.PositiveAnswer{}, err
	}
	answer.Question = question

	logrus.WithField("user", userID).Infof("Answered positive question %d", question.Sequence)
	return answer, nil
}

func (s *Sequencer) History(ctx context.Context, userID string) ([]types.PositiveAnswer, error) {
	return s.store.Answers(ctx, userID)
}

func (s *Sequencer) Answer(ctx context.Context, userID, answerID string) (types.PositiveAnswer, error) {
	return s.store.AnswerForUser(ctx, userID, answerID)
}

// Edit replaces the text of an answer. Dates and questions never change.
func (s *Sequencer) Edit(ctx context.Context, userID, answerID, text string) (types.PositiveAnswer, error) {
	text, err := types.ValidateContent("answer", text, types.MaxAnswerRunes)
	if err != nil {
		return types.PositiveAnswer{}, err
	}
	answer, err := s.store.AnswerForUser(ctx, userID, answerID)
	if err != nil {
		return types.PositiveAnswer{}, err
	}
	if err := s.store.UpdateAnswerText(ctx, &answer, text); err != nil {
		return types.PositiveAnswer{}, err
	}
	return answer, nil
}

// MainPage combines today's question with the answer history.
func (s *Sequencer) MainPage(ctx context.Context, userID string) (types.PositiveMainPage, error) {
	question, err := s.NextQuestion(ctx, userID)
	if err != nil {
		return types.PositiveMainPage{}, err
	}
	answers, err := s.History(ctx, userID)
	if err != nil {
		return types.PositiveMainPage{}, err
	}
	return types.NewPositiveMainPage().
		WithQuestion(question).
		WithAnswers(answers, s.today()), nil
}
