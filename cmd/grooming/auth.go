package main

import (
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/oliverisaac/grooming/lib/apperr"
	"github.com/oliverisaac/grooming/lib/auth"
	"github.com/oliverisaac/grooming/lib/store"
	"github.com/oliverisaac/grooming/lib/uploads"
	"github.com/oliverisaac/grooming/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func checkLoginID(st *store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		loginID := c.QueryParam("user_id")
		if !types.ValidLoginID(loginID) {
			return apperr.Validation("user_id must be 4-20 letters, digits or underscores")
		}
		exists, err := st.LoginIDExists(c.Request().Context(), loginID)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]any{
			"user_id":   loginID,
			"available": !exists,
		})
	}
}

func register(st *store.Store, clk clock) echo.HandlerFunc {
	return func(c echo.Context) error {
		var form types.RegisterForm
		if err := c.Bind(&form); err != nil {
			return apperr.Validation("invalid registration form")
		}
		birth, err := form.Validate()
		if err != nil {
			return err
		}

		hash, err := auth.HashPassword(form.Password)
		if err != nil {
			return err
		}

		user := types.User{
			LoginID:      form.LoginID,
			Name:         form.Name,
			PasswordHash: hash,
			BirthDate:    birth,
			Gender:       form.Gender,
			CreatedAt:    clk.Now(),
		}
		if err := st.CreateUser(c.Request().Context(), &user); err != nil {
			return err
		}

		logrus.WithField("user", user.ID).Infof("Registered %s", user.LoginID)
		return c.JSON(http.StatusCreated, map[string]string{
			"user_id":   user.LoginID,
			"user_name": user.Name,
		})
	}
}

func login(st *store.Store, tokens *auth.TokenIssuer) echo.HandlerFunc {
	return func(c echo.Context) error {
		var form types.LoginForm
		if err := c.Bind(&form); err != nil {
			return apperr.Validation("invalid login form")
		}

		user, err := st.UserByLoginID(c.Request().Context(), form.LoginID)
		if err != nil && !apperr.Is(err, apperr.KindNotFound) {
			return err
		}
		if err != nil || !auth.CheckPassword(user.PasswordHash, form.Password) {
			return apperr.Unauthorized("invalid user_id or password")
		}

		token, err := tokens.Issue(user.ID)
		if err != nil {
			return err
		}

		sess, _ := session.Get(SessionKey, c)
		sess.Options = &sessions.Options{
			Path:     "/",
			MaxAge:   3600 * 24 * 365,
			HttpOnly: true,
		}
		sess.Values[SessionUserIDKey] = user.ID
		if err := sess.Save(c.Request(), c.Response()); err != nil {
			return errors.Wrap(err, "saving session")
		}

		return c.JSON(http.StatusOK, map[string]string{
			"access_token": token,
			"token_type":   "bearer",
			"user_name":    user.Name,
		})
	}
}

func clearSession(c echo.Context) error {
	sess, err := session.Get(SessionKey, c)
	if err != nil {
		return nil
	}
	sess.Options = &sessions.Options{Path: "/", MaxAge: -1, HttpOnly: true}
	return errors.Wrap(sess.Save(c.Request(), c.Response()), "clearing session")
}

func logout() echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := clearSession(c); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
	}
}

func withdraw(st *store.Store, up *uploads.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, _ := GetSessionUser(c)
		if err := st.Withdraw(c.Request().Context(), user.ID); err != nil {
			return err
		}
		up.RemoveUser(user.ID)
		if err := clearSession(c); err != nil {
			logrus.Warn(err)
		}
		return c.JSON(http.StatusOK, map[string]string{"message": "account deleted"})
	}
}
