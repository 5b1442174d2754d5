package main

import (
	"mime/multipart"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/oliverisaac/grooming/lib/apperr"
	"github.com/oliverisaac/grooming/lib/emotion"
	"github.com/oliverisaac/grooming/lib/store"
	"github.com/oliverisaac/grooming/lib/uploads"
	"github.com/oliverisaac/grooming/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// formImage returns the uploaded image, or nil when none was sent.
func formImage(c echo.Context) (*multipart.FileHeader, error) {
	fh, err := c.FormFile("image_file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Validation("invalid image_file")
	}
	return fh, nil
}

func calendar(st *store.Store, scoring emotion.ScoreConfig, clk clock) echo.HandlerFunc {
	return func(c echo.Context) error {
		month, err := emotion.ParseMonth(c.Param("month"))
		if err != nil {
			return err
		}
		user, _ := GetSessionUser(c)
		ctx := c.Request().Context()

		diaries, err := st.DiariesBetween(ctx, user.ID, month.First(), month.Last())
		if err != nil {
			return err
		}

		today := clk.Today()
		recent, err := st.DiariesBetween(ctx, user.ID, scoring.WindowStart(today), today)
		if err != nil {
			return err
		}
		samples := make([]emotion.Sample, 0, len(recent))
		for _, d := range recent {
			samples = append(samples, d.Sample())
		}

		page := types.NewCalendarPage(month).
			WithDiaries(diaries).
			WithMoodScore(scoring.Score(samples, today))
		return c.JSON(http.StatusOK, page)
	}
}

func createDiary(st *store.Store, engine *emotion.Engine, up *uploads.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, _ := GetSessionUser(c)
		ctx := c.Request().Context()
		log := logrus.WithField("user", user.ID)

		date, err := types.ParseDay(c.FormValue("diary_date"))
		if err != nil {
			return apperr.Validation("diary_date must be YYYY-MM-DD")
		}
		content, err := types.ValidateContent("content", c.FormValue("content"), types.MaxDiaryRunes)
		if err != nil {
			return err
		}
		image, err := formImage(c)
		if err != nil {
			return err
		}

		exists, err := st.DiaryOn(ctx, user.ID, date)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict("a diary already exists for this date")
		}

		diary := types.Diary{
			UserID:    user.ID,
			EntryDate: date,
			Content:   content,
		}
		if image != nil {
			if diary.ImageURL, err = up.Save(user.ID, image); err != nil {
				return err
			}
		}

		diary.ApplyAnalysis(engine.Analyze(ctx, user.Name, content))

		if err := st.CreateDiary(ctx, &diary); err != nil {
			up.Remove(diary.ImageURL)
			return err
		}

		log.Infof("Created diary for %s as %s", diary.EntryDate.Format(time.DateOnly), diary.EmotionLabel)
		return c.JSON(http.StatusCreated, types.NewDiaryResponse(diary))
	}
}

func diaryDetail(st *store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, _ := GetSessionUser(c)
		diary, err := st.DiaryForUser(c.Request().Context(), user.ID, c.Param("id"))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, types.NewDiaryResponse(diary))
	}
}

// modifyDiary re-analyses the entry only when its text changed.
func modifyDiary(st *store.Store, engine *emotion.Engine, up *uploads.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, _ := GetSessionUser(c)
		ctx := c.Request().Context()

		diary, err := st.DiaryForUser(ctx, user.ID, c.Param("id"))
		if err != nil {
			return err
		}

		contentChanged := false
		if raw := c.FormValue("content"); raw != "" {
			content, err := types.ValidateContent("content", raw, types.MaxDiaryRunes)
			if err != nil {
				return err
			}
			contentChanged = content != diary.Content
			diary.Content = content
		}

		image, err := formImage(c)
		if err != nil {
			return err
		}
		oldImage := ""
		if image != nil {
			url, err := up.Save(user.ID, image)
			if err != nil {
				return err
			}
			oldImage, diary.ImageURL = diary.ImageURL, url
		}

		if contentChanged {
			diary.ApplyAnalysis(engine.Analyze(ctx, user.Name, diary.Content))
		}

		if err := st.UpdateDiary(ctx, &diary); err != nil {
			if image != nil {
				up.Remove(diary.ImageURL)
			}
			return err
		}
		up.Remove(oldImage)

		return c.JSON(http.StatusOK, types.NewDiaryResponse(diary))
	}
}

func deleteDiary(st *store.Store, up *uploads.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, _ := GetSessionUser(c)
		diary, err := st.DeleteDiary(c.Request().Context(), user.ID, c.Param("id"))
		if err != nil {
			return err
		}
		up.Remove(diary.ImageURL)
		return c.NoContent(http.StatusNoContent)
	}
}

func monthlyGraph(st *store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		month, err := emotion.ParseMonth(c.Param("month"))
		if err != nil {
			return err
		}
		user, _ := GetSessionUser(c)

		diaries, err := st.DiariesBetween(c.Request().Context(), user.ID, month.First(), month.Last())
		if err != nil {
			return err
		}
		records := make([]emotion.DayRecord, 0, len(diaries))
		for _, d := range diaries {
			records = append(records, d.DayRecord())
		}
		stats := emotion.BuildMonthlyStats(month, records)
		for i, lc := range stats.Histogram {
			stats.Histogram[i].ImageKey = types.EmojiURL(lc.ImageKey)
		}
		return c.JSON(http.StatusOK, stats)
	}
}

func myPage(st *store.Store, scoring emotion.ScoreConfig, clk clock) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, _ := GetSessionUser(c)
		today := clk.Today()

		recent, err := st.DiariesBetween(c.Request().Context(), user.ID, scoring.WindowStart(today), today)
		if err != nil {
			return err
		}
		samples := make([]emotion.Sample, 0, len(recent))
		for _, d := range recent {
			samples = append(samples, d.Sample())
		}

		page := types.NewMyPage(user, today).WithMoodScore(scoring.Score(samples, today))
		return c.JSON(http.StatusOK, page)
	}
}
