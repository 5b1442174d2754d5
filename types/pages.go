package types

import (
	"time"

	"github.com/oliverisaac/grooming/lib/emotion"
)

// EmojiURL is where the image for an emotion image key is served.
func EmojiURL(key string) string {
	if key == "" {
		key = emotion.DefaultImageKey
	}
	return "/static/emoji/" + key
}

type DiaryResponse struct {
	ID              string               `json:"diary_id"`
	Date            string               `json:"diary_date"`
	Content         string               `json:"content"`
	ImageURL        string               `json:"image_url,omitempty"`
	PrimaryImageURL string               `json:"primary_image_url"`
	EmotionLabel    emotion.Label        `json:"emotion_label"`
	EmotionScore    float64              `json:"emotion_score"`
	EmotionEmoji    string               `json:"emotion_emoji"`
	Distribution    emotion.Distribution `json:"overall_emotion_score"`
	AIComment       string               `json:"ai_comment"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// NewDiaryResponse renders confidence as a percentage. The primary image is
// the uploaded picture when there is one and the emotion image otherwise.
func NewDiaryResponse(d Diary) DiaryResponse {
	primary := EmojiURL(d.EmotionEmoji)
	if d.ImageURL != "" {
		primary = d.ImageURL
	}
	return DiaryResponse{
		ID:              d.ID,
		Date:            d.EntryDate.Format(time.DateOnly),
		Content:         d.Content,
		ImageURL:        d.ImageURL,
		PrimaryImageURL: primary,
		EmotionLabel:    d.EmotionLabel,
		EmotionScore:    float64(int(d.EmotionScore*1000+0.5)) / 10,
		EmotionEmoji:    EmojiURL(d.EmotionEmoji),
		Distribution:    d.Distribution.Data(),
		AIComment:       d.AIComment,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

type CalendarDay struct {
	ID              string        `json:"diary_id"`
	Date            string        `json:"diary_date"`
	EmotionLabel    emotion.Label `json:"emotion_label"`
	EmotionEmoji    string        `json:"emotion_emoji"`
	PrimaryImageURL string        `json:"primary_image_url"`
}

// CalendarPage is the monthly calendar with the trailing mood score.
type CalendarPage struct {
	Month     string        `json:"month"`
	MonthName string        `json:"month_name"`
	Year      int           `json:"year"`
	MoodScore float64       `json:"mood_score"`
	Diaries   []CalendarDay `json:"diaries"`
}

func NewCalendarPage(m emotion.Month) CalendarPage {
	return CalendarPage{
		Month:     m.String(),
		MonthName: m.Month.String(),
		Year:      m.Year,
		Diaries:   []CalendarDay{},
	}
}

func (p CalendarPage) WithMoodScore(score float64) CalendarPage {
	p.MoodScore = score
	return p
}

func (p CalendarPage) WithDiaries(diaries []Diary) CalendarPage {
	for _, d := range diaries {
		r := NewDiaryResponse(d)
		p.Diaries = append(p.Diaries, CalendarDay{
			ID:              r.ID,
			Date:            r.Date,
			EmotionLabel:    r.EmotionLabel,
			EmotionEmoji:    r.EmotionEmoji,
			PrimaryImageURL: r.PrimaryImageURL,
		})
	}
	return p
}

type MyPage struct {
	LoginID    string  `json:"user_id"`
	Name       string  `json:"user_name"`
	Gender     string  `json:"gender,omitempty"`
	BirthDate  string  `json:"birth_date,omitempty"`
	CreatedAt  string  `json:"created_at"`
	DaysJoined int     `json:"days_since_signup"`
	MoodScore  float64 `json:"mood_score"`
}

// NewMyPage counts the signup day as day one.
func NewMyPage(u User, today time.Time) MyPage {
	p := MyPage{
		LoginID:    u.LoginID,
		Name:       u.Name,
		Gender:     u.Gender,
		CreatedAt:  u.CreatedAt.Format(time.DateOnly),
		DaysJoined: int(DayOf(today).Sub(DayOf(u.CreatedAt)).Hours()/24) + 1,
	}
	if !u.BirthDate.IsZero() {
		p.BirthDate = u.BirthDate.Format(time.DateOnly)
	}
	return p
}

func (p MyPage) WithMoodScore(score float64) MyPage {
	p.MoodScore = score
	return p
}

type QuestionResponse struct {
	ID       string `json:"question_id"`
	Sequence int    `json:"sequence"`
	Text     string `json:"question"`
}

func NewQuestionResponse(q PositiveQuestion) QuestionResponse {
	return QuestionResponse{ID: q.ID, Sequence: q.Sequence, Text: q.Text}
}

type AnswerResponse struct {
	ID       string           `json:"answer_id"`
	Date     string           `json:"answer_date"`
	Answer   string           `json:"answer"`
	Question QuestionResponse `json:"question"`
}

func NewAnswerResponse(a PositiveAnswer) AnswerResponse {
	return AnswerResponse{
		ID:       a.ID,
		Date:     a.AnswerDate.Format(time.DateOnly),
		Answer:   a.Answer,
		Question: NewQuestionResponse(a.Question),
	}
}

// PositiveMainPage is today's question, if any, plus the answer history.
type PositiveMainPage struct {
	Question      *QuestionResponse `json:"question"`
	AnsweredToday bool              `json:"answered_today"`
	LastAnswered  string            `json:"last_answered_date,omitempty"`
	Answers       []AnswerResponse  `json:"answers"`
}

func NewPositiveMainPage() PositiveMainPage {
	return PositiveMainPage{Answers: []AnswerResponse{}}
}

func (p PositiveMainPage) WithQuestion(q *PositiveQuestion) PositiveMainPage {
	if q != nil {
		r := NewQuestionResponse(*q)
		p.Question = &r
	}
	return p
}

// WithAnswers expects answers newest first.
func (p PositiveMainPage) WithAnswers(answers []PositiveAnswer, today time.Time) PositiveMainPage {
	for _, a := range answers {
		p.Answers = append(p.Answers, NewAnswerResponse(a))
	}
	if len(answers) > 0 {
		last := answers[0].AnswerDate
		p.LastAnswered = last.Format(time.DateOnly)
		p.AnsweredToday = DayOf(last).Equal(DayOf(today))
	}
	return p
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
}
