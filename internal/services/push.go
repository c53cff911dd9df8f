package services

import (
	"context"
	"fmt"

	"story-backend/internal/config"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// PushNotification is the content of a device push
type PushNotification struct {
	Title   string
	Body    string
	StoryID string
}

type pushTokenLookup interface {
	GetPushToken(ctx context.Context, userID string) (*string, error)
}

// APNsNotifier sends push notifications through Apple's token based API
type APNsNotifier struct {
	client *apns2.Client
	topic  string
	users  pushTokenLookup
}

// NewAPNsNotifier creates a notifier from the apns config section
func NewAPNsNotifier(cfg config.APNsConfig, users pushTokenLookup) (*APNsNotifier, error) {
	authKey, err := token.AuthKeyFromFile(cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs auth key: %w", err)
	}

	tok := &token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	}

	client := apns2.NewTokenClient(tok)
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNsNotifier{
		client: client,
		topic:  cfg.Topic,
		users:  users,
	}, nil
}

// Notify pushes n to the user's registered device. Users without a device
// token are skipped.
func (n *APNsNotifier) Notify(ctx context.Context, userID string, push PushNotification) error {
	deviceToken, err := n.users.GetPushToken(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get push token: %w", err)
	}
	if deviceToken == nil || *deviceToken == "" {
		return nil
	}

	p := payload.NewPayload().
		AlertTitle(push.Title).
		AlertBody(push.Body).
		Sound("default")
	if push.StoryID != "" {
		p = p.Custom("story_id", push.StoryID)
	}

	notification := &apns2.Notification{
		DeviceToken: *deviceToken,
		Topic:       n.topic,
		Payload:     p,
	}

	res, err := n.client.PushWithContext(ctx, notification)
	if err != nil {
		return fmt.Errorf("failed to send push notification: %w", err)
	}
	if !res.Sent() {
		return fmt.Errorf("push notification rejected: %d %s", res.StatusCode, res.Reason)
	}

	log.Debug().Str("user_id", userID).Str("apns_id", res.ApnsID).Msg("Push notification sent")
	return nil
}

// NoopNotifier is wired when push notifications are disabled
type NoopNotifier struct{}

// Notify does nothing
func (NoopNotifier) Notify(context.Context, string, PushNotification) error { return nil }
