package pushclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/pkg/errors"
)

const defaultTTL = 24 * 3600

type Push struct {
	Topic string `json:"-"`
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon,omitempty"`
	Badge string `json:"badge,omitempty"`
	Link  string `json:"-"`
}

func (p Push) payload() ([]byte, error) {
	type data struct {
		URL string `json:"url,omitempty"`
	}
	return json.Marshal(struct {
		Push
		Data data `json:"data"`
	}{p, data{URL: p.Link}})
}

// Client sends Web Push messages signed with a VAPID key pair.
type Client struct {
	PublicKey  string
	PrivateKey string
	Subscriber string
	TTL        int
}

func New(publicKey, privateKey, subscriber string) *Client {
	return &Client{
		PublicKey:  publicKey,
		PrivateKey: privateKey,
		Subscriber: subscriber,
		TTL:        defaultTTL,
	}
}

// Send delivers push to one subscription. gone reports that the push service
// no longer knows the subscription and it should be deleted.
func (c *Client) Send(ctx context.Context, sub *webpush.Subscription, push Push) (gone bool, err error) {
	body, err := push.payload()
	if err != nil {
		return false, errors.Wrap(err, "marshalling push payload")
	}

	ttl := c.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	resp, err := webpush.SendNotificationWithContext(ctx, body, sub, &webpush.Options{
		Subscriber:      c.Subscriber,
		Topic:           push.Topic,
		VAPIDPublicKey:  c.PublicKey,
		VAPIDPrivateKey: c.PrivateKey,
		TTL:             ttl,
		Urgency:         webpush.UrgencyNormal,
	})
	if err != nil {
		return false, errors.Wrap(err, "sending push notification")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		return false, nil
	case http.StatusGone, http.StatusNotFound:
		return true, nil
	}
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return false, fmt.Errorf("Failed to send push (%d): %s", resp.StatusCode, string(respBody))
}
