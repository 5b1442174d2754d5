package main

import (
	"context"
	"fmt"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/oliverisaac/grooming/lib/positive"
	"github.com/oliverisaac/grooming/lib/pushclient"
	"github.com/oliverisaac/grooming/lib/store"
	"github.com/oliverisaac/grooming/types"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const reminderTopic = "grooming-daily-question"

type reminder struct {
	cfg       types.Config
	store     *store.Store
	sequencer *positive.Sequencer
	push      *pushclient.Client
}

func newReminder(cfg types.Config, st *store.Store, seq *positive.Sequencer) *reminder {
	return &reminder{
		cfg:       cfg,
		store:     st,
		sequencer: seq,
		push:      pushclient.New(cfg.VapidPublicKey, cfg.VapidPrivateKey, "reminders@"+cfg.Hostname),
	}
}

// startReminderWorker pushes once a day at the configured hour to every user
// who has a positive question waiting.
func startReminderWorker(ctx context.Context, cfg types.Config, st *store.Store, seq *positive.Sequencer, clk clock) {
	r := newReminder(cfg, st, seq)
	ticker := time.NewTicker(1 * time.Minute)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				now := clk.Now()
				if now.Hour() == cfg.ReminderHour && now.Minute() == 0 {
					logrus.Info("Triggering positive question reminders for all users")
					r.sendAll(ctx)
				}
			}
		}
	}()
}

func (r *reminder) sendAll(ctx context.Context) {
	users, err := r.store.UsersWithSubscriptions(ctx)
	if err != nil {
		logrus.Error(errors.Wrap(err, "getting all users"))
		return
	}
	for _, user := range users {
		if err := r.sendToUser(ctx, user); err != nil {
			logrus.WithField("user", user.ID).Error(errors.Wrap(err, "sending push notification"))
		}
	}
}

func (r *reminder) sendToUser(ctx context.Context, user types.User) error {
	q, err := r.sequencer.NextQuestion(ctx, user.ID)
	if err != nil {
		return err
	}
	if q == nil {
		return nil
	}

	log := logrus.WithField("user", user.ID)
	push := pushclient.Push{
		Topic: reminderTopic,
		Title: "Grooming",
		Body:  q.Text,
		Icon:  fmt.Sprintf("https://%s/static/emoji/happy.png", r.cfg.Hostname),
		Link:  "/positive",
	}
	for _, subData := range user.PushSubscriptions {
		sub := &webpush.Subscription{
			Endpoint: subData.Endpoint,
			Keys: webpush.Keys{
				P256dh: subData.P256DH,
				Auth:   subData.Auth,
			},
		}
		gone, err := r.push.Send(ctx, sub, push)
		if err != nil {
			log.WithField("subscription", subData.ID).Error(err)
			continue
		}
		if gone {
			log.Info("Subscriber no longer active")
			if err := r.store.DeleteSubscription(ctx, subData.ID); err != nil {
				log.Error(err)
			}
			continue
		}
		log.Info("Sent push notification to user")
	}
	return nil
}
