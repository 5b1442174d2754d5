package main

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/oliverisaac/grooming/lib/apperr"
	"github.com/oliverisaac/grooming/lib/positive"
	"github.com/oliverisaac/grooming/types"
)

func positiveMain(seq *positive.Sequencer) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, _ := GetSessionUser(c)
		page, err := seq.MainPage(c.Request().Context(), user.ID)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, page)
	}
}

func positiveQuestion(seq *positive.Sequencer) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, _ := GetSessionUser(c)
		q, err := seq.NextQuestion(c.Request().Context(), user.ID)
		if err != nil {
			return err
		}
		if q == nil {
			return c.JSON(http.StatusOK, map[string]any{
				"question": nil,
				"message":  "no new question yet, come back tomorrow",
			})
		}
		return c.JSON(http.StatusOK, map[string]any{
			"question": types.NewQuestionResponse(*q),
		})
	}
}

func submitAnswer(seq *positive.Sequencer) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, _ := GetSessionUser(c)
		var form types.AnswerForm
		if err := c.Bind(&form); err != nil {
			return apperr.Validation("invalid answer form")
		}
		if form.QuestionID == "" {
			return apperr.Validation("question_id is required")
		}

		answer, err := seq.Submit(c.Request().Context(), user.ID, form.QuestionID, form.Answer)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, types.NewAnswerResponse(answer))
	}
}

func answerDetail(seq *positive.Sequencer) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, _ := GetSessionUser(c)
		answer, err := seq.Answer(c.Request().Context(), user.ID, c.Param("id"))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, types.NewAnswerResponse(answer))
	}
}

func modifyAnswer(seq *positive.Sequencer) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, _ := GetSessionUser(c)
		var form types.AnswerForm
		if err := c.Bind(&form); err != nil {
			return apperr.Validation("invalid answer form")
		}

		answer, err := seq.Edit(c.Request().Context(), user.ID, c.Param("id"), form.Answer)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, types.NewAnswerResponse(answer))
	}
}
