package types

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oliverisaac/grooming/lib/apperr"
)

var loginIDPattern = regexp.MustCompile(`^[A-Za-z0-9_]{4,20}$`)

const minPasswordLength = 8

type RegisterForm struct {
	LoginID   string `json:"user_id" form:"user_id"`
	Password  string `json:"password" form:"password"`
	Name      string `json:"user_name" form:"user_name"`
	BirthDate string `json:"birth_date" form:"birth_date"`
	Gender    string `json:"gender" form:"gender"`
}

func ValidLoginID(id string) bool {
	return loginIDPattern.MatchString(id)
}

// Validate checks the form and returns the parsed birth date, if given.
func (f RegisterForm) Validate() (time.Time, error) {
	if !ValidLoginID(f.LoginID) {
		return time.Time{}, apperr.Validation("user_id must be 4-20 letters, digits or underscores")
	}
	if len(f.Password) < minPasswordLength {
		return time.Time{}, apperr.Validation("password must be at least %d characters", minPasswordLength)
	}
	name := strings.TrimSpace(f.Name)
	if name == "" || utf8.RuneCountInString(name) > 50 {
		return time.Time{}, apperr.Validation("user_name must be 1-50 characters")
	}
	if f.Gender != "" && !ValidGender(f.Gender) {
		return time.Time{}, apperr.Validation("gender must be M or F")
	}
	if f.BirthDate == "" {
		return time.Time{}, nil
	}
	birth, err := ParseDay(f.BirthDate)
	if err != nil {
		return time.Time{}, apperr.Validation("birth_date must be YYYY-MM-DD")
	}
	return birth, nil
}

type LoginForm struct {
	LoginID  string `json:"user_id" form:"user_id"`
	Password string `json:"password" form:"password"`
}

type AnswerForm struct {
	QuestionID string `json:"question_id" form:"question_id"`
	Answer     string `json:"answer" form:"answer"`
}

// ValidateContent trims text and checks it is non-empty and at most max runes.
func ValidateContent(field, text string, max int) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", apperr.Validation("%s must not be empty", field)
	}
	if utf8.RuneCountInString(text) > max {
		return "", apperr.Validation("%s must be at most %d characters", field, max)
	}
	return text, nil
}
