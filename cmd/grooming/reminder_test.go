package main

import (
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/oliverisaac/grooming/types"
)

func subscribe(t *testing.T, ts *testServer, userID, endpoint string) {
	t.Helper()

	key, err := ecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	secret := make([]byte, 16)
	rand.Read(secret)
	sub := types.PushSubscription{
		UserID:   userID,
		Endpoint: endpoint,
		P256DH:   base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		Auth:     base64.RawURLEncoding.EncodeToString(secret),
	}
	if err := ts.srv.store.SaveSubscription(context.Background(), &sub); err != nil {
		t.Fatalf("SaveSubscription: %v", err)
	}
}

func TestReminderSkipsAnsweredAndDropsGone(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	ctx := context.Background()

	var hits atomic.Int32
	var status atomic.Int32
	status.Store(http.StatusCreated)
	push := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(int(status.Load()))
	}))
	defer push.Close()

	priv, pub, err := webpush.GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("GenerateVAPIDKeys: %v", err)
	}
	cfg := ts.srv.cfg
	cfg.VapidPrivateKey, cfg.VapidPublicKey, cfg.Hostname = priv, pub, "example.com"
	r := newReminder(cfg, ts.srv.store, ts.srv.sequencer)

	ts.signUp("alice")
	alice, err := ts.srv.store.UserByLoginID(ctx, "alice")
	if err != nil {
		t.Fatalf("UserByLoginID: %v", err)
	}
	subscribe(t, ts, alice.ID, push.URL)

	r.sendAll(ctx)
	if hits.Load() != 1 {
		t.Fatalf("hits=%d", hits.Load())
	}

	q, _ := ts.srv.sequencer.NextQuestion(ctx, alice.ID)
	if _, err := ts.srv.sequencer.Submit(ctx, alice.ID, q.ID, "sunshine"); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	r.sendAll(ctx)
	if hits.Load() != 1 {
		t.Fatalf("pushed after answering: hits=%d", hits.Load())
	}

	ts.today = ts.today.AddDate(0, 0, 1)
	status.Store(http.StatusGone)
	r.sendAll(ctx)
	if hits.Load() != 2 {
		t.Fatalf("hits=%d", hits.Load())
	}
	users, err := ts.srv.store.UsersWithSubscriptions(ctx)
	if err != nil || len(users) != 0 {
		t.Fatalf("gone subscription kept: %+v %v", users, err)
	}
}
