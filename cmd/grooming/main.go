package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/oliverisaac/goli"
	"github.com/oliverisaac/grooming/lib/aiclient"
	"github.com/oliverisaac/grooming/lib/apperr"
	"github.com/oliverisaac/grooming/lib/auth"
	"github.com/oliverisaac/grooming/lib/emotion"
	"github.com/oliverisaac/grooming/lib/positive"
	"github.com/oliverisaac/grooming/lib/store"
	"github.com/oliverisaac/grooming/lib/uploads"
	"github.com/oliverisaac/grooming/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func init() {
	goli.InitLogrus(logrus.DebugLevel)
}

const SessionKey = "session"
const UserKey = "session-user"
const SessionUserIDKey = "userid"

// clock is the server's notion of the current calendar day.
type clock struct {
	now func() time.Time
	loc *time.Location
}

func (c clock) Now() time.Time {
	return c.now().In(c.loc)
}

func (c clock) Today() time.Time {
	return types.DayOf(c.Now())
}

type server struct {
	cfg       types.Config
	store     *store.Store
	engine    *emotion.Engine
	sequencer *positive.Sequencer
	uploads   *uploads.Store
	tokens    *auth.TokenIssuer
	clock     clock
}

func main() {
	err := run()
	if err != nil {
		logrus.Fatal(err)
	}
}

func run() error {
	err := godotenv.Load(".env")
	if err != nil {
		logrus.Error(errors.Wrap(err, "Failed to load .env"))
	}

	tz := os.Getenv("TZ")
	if tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return errors.Wrap(err, "failed to load timezone")
		}
		time.Local = loc
	}

	cfg, err := types.ConfigFromEnv()
	if err != nil {
		return errors.Wrap(err, "Loading config from env")
	}
	logrus.SetLevel(cfg.LogLevel)

	db, err := store.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		return err
	}
	if err := store.Migrate(db); err != nil {
		return err
	}
	if err := store.SeedQuestions(db, store.DefaultQuestions); err != nil {
		return err
	}

	s, err := newServer(cfg, store.New(db), time.Now)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.RemindersEnabled() {
		startReminderWorker(ctx, cfg, s.store, s.sequencer, s.clock)
	}

	e := s.echo()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			logrus.Error(errors.Wrap(err, "shutting down server"))
		}
	}()

	logrus.Infof("Listening on %s", cfg.Listen)
	if err := e.Start(cfg.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newServer(cfg types.Config, st *store.Store, now func() time.Time) (*server, error) {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	up, err := uploads.New(cfg.UploadDir)
	if err != nil {
		return nil, err
	}

	clk := clock{now: now, loc: cfg.Location}
	classifier, commenter := aiclient.FromConfig(cfg)
	engine := emotion.NewEngine(classifier, commenter, emotion.EngineConfig{
		ConfidenceThreshold: cfg.ConfidenceThreshold,
		Timeout:             cfg.AITimeout,
	})

	return &server{
		cfg:       cfg,
		store:     st,
		engine:    engine,
		sequencer: positive.NewSequencer(st, clk.Now),
		uploads:   up,
		tokens:    auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		clock:     clk,
	}, nil
}

// scoreConfig applies the configured normalization mode to a profile.
func (s *server) scoreConfig(profile emotion.ScoreConfig) emotion.ScoreConfig {
	if s.cfg.ScoreMode != "" {
		profile.Mode = s.cfg.ScoreMode
	}
	return profile
}

func (s *server) echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.HTTPErrorHandler = httpErrorHandler

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		Skipper:           middleware.DefaultSkipper,
		StackSize:         4 << 10, // 4 KB
		DisableStackAll:   false,
		DisablePrintStack: false,
		LogLevel:          log.ERROR,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logrus.Error(errors.Wrap(err, "recovered panic:"))
			for _, l := range strings.Split(string(stack), "\n") {
				logrus.Errorf("stack: %s", strings.ReplaceAll(l, "\t", "  "))
			}
			return nil
		},
		DisableErrorHandler: false,
	}))

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	e.Use(middleware.Secure())

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "id=${id}, method=${method}, uri=${uri}, status=${status}, latency=${latency_human}\n",
		Skipper: func(c echo.Context) bool {
			return c.Request().URL.Path == "/healthz"
		},
	}))

	e.Static("/static/emoji", s.cfg.EmojiDir)
	e.Static(strings.TrimSuffix(uploads.URLPrefix, "/"), s.uploads.Dir())

	cookies := sessions.NewCookieStore(s.cfg.CookieSecret)
	e.Use(session.Middleware(cookies))
	e.Use(UserMiddleware(s.store, s.tokens))

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	// auth
	e.GET("/auth/check_id", checkLoginID(s.store))
	e.POST("/auth/register", register(s.store, s.clock))
	e.POST("/auth/login", login(s.store, s.tokens))
	e.GET("/auth/logout", logout())
	e.DELETE("/auth/unsubscribe", withdraw(s.store, s.uploads), requireUser)

	api := e.Group("/api", requireUser)

	// diaries
	api.GET("/diaries/main/:month", calendar(s.store, s.scoreConfig(emotion.CalendarProfile()), s.clock))
	api.POST("/diaries/new", createDiary(s.store, s.engine, s.uploads))
	api.GET("/diaries/detail/:id", diaryDetail(s.store))
	api.PUT("/diaries/modify/:id", modifyDiary(s.store, s.engine, s.uploads))
	api.DELETE("/diaries/:id", deleteDiary(s.store, s.uploads))

	// graphs
	api.GET("/graphs/monthly/:month", monthlyGraph(s.store))

	// mypage
	api.GET("/mypage", myPage(s.store, s.scoreConfig(emotion.MyPageProfile()), s.clock))

	// positive
	api.GET("/positive/main", positiveMain(s.sequencer))
	api.GET("/positive/question", positiveQuestion(s.sequencer))
	api.POST("/positive/answer", submitAnswer(s.sequencer))
	api.GET("/positive/answers/:id", answerDetail(s.sequencer))
	api.PUT("/positive/modify/:id", modifyAnswer(s.sequencer))

	// push
	e.POST("/push/subscribe", saveSubscription(s.store), requireUser)
	e.POST("/push/unsubscribe", removeSubscription(s.store), requireUser)
	e.GET("/push/vapid", vapidKey(s.cfg))

	return e
}

// httpErrorHandler renders every error as {"detail": ...} with the status
// its kind maps to.
func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := apperr.KindOf(err).HTTPStatus()
	detail := apperr.Message(err)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		detail = http.StatusText(he.Code)
		if msg, ok := he.Message.(string); ok {
			detail = msg
		}
	}

	entry := logrus.WithField("request", c.Response().Header().Get(echo.HeaderXRequestID))
	if status >= http.StatusInternalServerError {
		entry.Error(err)
	} else {
		entry.Debug(err)
	}

	var respErr error
	if c.Request().Method == http.MethodHead {
		respErr = c.NoContent(status)
	} else {
		respErr = c.JSON(status, types.ErrorResponse{Detail: detail})
	}
	if respErr != nil {
		logrus.Error(errors.Wrap(respErr, "writing error response"))
	}
}

func UserMiddleware(st *store.Store, tokens *auth.TokenIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := ""
			sess, _ := session.Get(SessionKey, c)
			if sess != nil {
				if id, ok := sess.Values[SessionUserIDKey].(string); ok {
					userID = id
				}
			}
			if userID == "" {
				if token, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer "); ok {
					id, err := tokens.Parse(strings.TrimSpace(token))
					if err != nil {
						logrus.Debugf("Ignoring bearer token: %v", err)
					} else {
						userID = id
					}
				}
			}
			if userID == "" {
				return next(c)
			}

			user, err := st.UserByID(c.Request().Context(), userID)
			if apperr.Is(err, apperr.KindNotFound) {
				logrus.Debugf("Ignoring credentials for missing user %s", userID)
				return next(c)
			}
			if err != nil {
				return errors.Wrap(err, "getting user by id")
			}
			c.Set(UserKey, user)
			return next(c)
		}
	}
}

func GetSessionUser(c echo.Context) (types.User, bool) {
	u := c.Get(UserKey)
	if u != nil {
		user := u.(types.User)
		logrus.Debugf("Found session user %s", user.LoginID)
		return user, true
	}
	return types.User{}, false
}

func requireUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := GetSessionUser(c); !ok {
			return apperr.Unauthorized("login required")
		}
		return next(c)
	}
}
