package types

import (
	errs "errors"
	"fmt"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/oliverisaac/goli"
	"github.com/oliverisaac/grooming/lib/emotion"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Listen              string
	Hostname            string
	DBDriver            string
	DBDSN               string
	CookieSecret        []byte
	JWTSecret           []byte
	TokenTTL            time.Duration
	UploadDir           string
	EmojiDir            string
	OpenAIKey           string
	ClassifierModel     string
	CommentModel        string
	AITimeout           time.Duration
	ConfidenceThreshold float64
	ScoreMode           emotion.ScoreMode
	VapidPublicKey      string
	VapidPrivateKey     string
	ReminderHour        int
	Location            *time.Location
	LogLevel            logrus.Level
}

// RemindersEnabled reports whether both VAPID keys are configured.
func (c Config) RemindersEnabled() bool {
	return c.VapidPublicKey != "" && c.VapidPrivateKey != ""
}

// AIEnabled reports whether a model API key is configured.
func (c Config) AIEnabled() bool {
	return c.OpenAIKey != ""
}

func ConfigFromEnv() (Config, error) {
	ret := Config{}
	var retErr error
	var err error

	ret.Listen = goli.DefaultEnv("GROOMING_LISTEN", ":8080")
	ret.Hostname = goli.DefaultEnv("GROOMING_HOSTNAME", "localhost")

	ret.DBDriver = goli.DefaultEnv("GROOMING_DB_DRIVER", "sqlite")
	switch ret.DBDriver {
	case "sqlite", "postgres", "mysql":
	default:
		retErr = errs.Join(retErr, fmt.Errorf("GROOMING_DB_DRIVER must be one of sqlite, postgres, mysql; got %q", ret.DBDriver))
	}

	var ok bool
	ret.DBDSN, ok = os.LookupEnv("GROOMING_DB_DSN")
	if !ok {
		retErr = errs.Join(retErr, fmt.Errorf("You must define env GROOMING_DB_DSN"))
	} else if ret.DBDriver == "sqlite" {
		if _, err := os.Stat(path.Dir(ret.DBDSN)); err != nil {
			retErr = errs.Join(retErr, errors.Wrap(err, "Directory for GROOMING_DB_DSN must exist"))
		}
	}

	cookieSecret, ok := os.LookupEnv("GROOMING_COOKIE_STORE_SECRET")
	if !ok {
		retErr = errs.Join(retErr, fmt.Errorf("You must define env GROOMING_COOKIE_STORE_SECRET"))
	} else {
		ret.CookieSecret = []byte(cookieSecret)
	}

	jwtSecret, ok := os.LookupEnv("GROOMING_JWT_SECRET")
	if !ok {
		retErr = errs.Join(retErr, fmt.Errorf("You must define env GROOMING_JWT_SECRET"))
	} else {
		ret.JWTSecret = []byte(jwtSecret)
	}

	ret.TokenTTL, err = time.ParseDuration(goli.DefaultEnv("GROOMING_TOKEN_TTL", "168h"))
	if err != nil {
		retErr = errs.Join(retErr, errors.Wrap(err, "parsing GROOMING_TOKEN_TTL"))
	}

	ret.UploadDir = goli.DefaultEnv("GROOMING_UPLOAD_DIR", "./data/images")
	ret.EmojiDir = goli.DefaultEnv("GROOMING_EMOJI_DIR", "./static/emoji")

	ret.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	if ret.OpenAIKey == "" {
		logrus.Warn("OPENAI_API_KEY is not set; emotion analysis will use the fallback result")
	}
	ret.ClassifierModel = goli.DefaultEnv("GROOMING_CLASSIFIER_MODEL", "gpt-4o-mini")
	ret.CommentModel = goli.DefaultEnv("GROOMING_COMMENT_MODEL", "gpt-4o-mini")

	ret.AITimeout, err = time.ParseDuration(goli.DefaultEnv("GROOMING_AI_TIMEOUT", emotion.DefaultTimeout.String()))
	if err != nil {
		retErr = errs.Join(retErr, errors.Wrap(err, "parsing GROOMING_AI_TIMEOUT"))
	}

	ret.ConfidenceThreshold, err = strconv.ParseFloat(goli.DefaultEnv("GROOMING_CONFIDENCE_THRESHOLD", strconv.FormatFloat(emotion.DefaultConfidenceThreshold, 'f', -1, 64)), 64)
	if err != nil {
		retErr = errs.Join(retErr, errors.Wrap(err, "parsing GROOMING_CONFIDENCE_THRESHOLD"))
	} else if ret.ConfidenceThreshold <= 0 || ret.ConfidenceThreshold > 1 {
		retErr = errs.Join(retErr, fmt.Errorf("GROOMING_CONFIDENCE_THRESHOLD must be in (0, 1]; got %v", ret.ConfidenceThreshold))
	}

	ret.ScoreMode, err = emotion.ParseScoreMode(os.Getenv("GROOMING_SCORE_MODE"))
	if err != nil {
		retErr = errs.Join(retErr, errors.Wrap(err, "parsing GROOMING_SCORE_MODE"))
	}

	ret.VapidPrivateKey = os.Getenv("VAPID_PRIVATE_KEY")
	ret.VapidPublicKey = os.Getenv("VAPID_PUBLIC_KEY")
	if !ret.RemindersEnabled() {
		logrus.Info("VAPID keys are not set; daily reminders are disabled")
	}

	ret.ReminderHour, err = strconv.Atoi(goli.DefaultEnv("GROOMING_REMINDER_HOUR", "21"))
	if err != nil {
		retErr = errs.Join(retErr, errors.Wrap(err, "parsing GROOMING_REMINDER_HOUR"))
	} else if ret.ReminderHour < 0 || ret.ReminderHour > 23 {
		retErr = errs.Join(retErr, fmt.Errorf("GROOMING_REMINDER_HOUR must be between 0 and 23; got %d", ret.ReminderHour))
	}

	ret.LogLevel, err = logrus.ParseLevel(goli.DefaultEnv("GROOMING_LOG_LEVEL", "debug"))
	if err != nil {
		retErr = errs.Join(retErr, errors.Wrap(err, "parsing GROOMING_LOG_LEVEL"))
		ret.LogLevel = logrus.DebugLevel
	}

	ret.Location, err = time.LoadLocation(goli.DefaultEnv("TZ", "Local"))
	if err != nil {
		retErr = errs.Join(retErr, errors.Wrap(err, "loading TZ"))
		ret.Location = time.Local
	}

	return ret, retErr
}
