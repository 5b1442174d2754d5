package main

import (
	"encoding/json"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/labstack/echo/v4"
	"github.com/oliverisaac/grooming/lib/apperr"
	"github.com/oliverisaac/grooming/lib/store"
	"github.com/oliverisaac/grooming/types"
	"github.com/pkg/errors"
)

func removeSubscription(st *store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, _ := GetSessionUser(c)
		if err := st.RemoveSubscriptions(c.Request().Context(), user.ID); err != nil {
			return err
		}
		return c.JSON(http.StatusOK, map[string]string{"message": "subscription removed"})
	}
}

func saveSubscription(st *store.Store) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, _ := GetSessionUser(c)

		var sub webpush.Subscription
		if err := c.Bind(&sub); err != nil {
			return apperr.Validation("invalid subscription")
		}
		if sub.Endpoint == "" || sub.Keys.P256dh == "" || sub.Keys.Auth == "" {
			return apperr.Validation("subscription needs an endpoint and keys")
		}

		keys, err := json.Marshal(sub.Keys)
		if err != nil {
			return errors.Wrap(err, "marshalling subscription keys")
		}

		pushSubscription := types.PushSubscription{
			UserID:   user.ID,
			Endpoint: sub.Endpoint,
			P256DH:   sub.Keys.P256dh,
			Auth:     sub.Keys.Auth,
			Keys:     string(keys),
		}
		if err := st.SaveSubscription(c.Request().Context(), &pushSubscription); err != nil {
			return err
		}

		return c.JSON(http.StatusOK, map[string]string{"message": "subscription saved"})
	}
}

func vapidKey(cfg types.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !cfg.RemindersEnabled() {
			return apperr.NotFound("push notifications are disabled")
		}
		return c.JSON(http.StatusOK, map[string]string{"public_key": cfg.VapidPublicKey})
	}
}
