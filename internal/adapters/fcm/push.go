// Package fcm delivers offline-fallback notifications through Firebase
// Cloud Messaging.
package fcm

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// Sender sends data-only multicast messages with zero TTL: a missed
// ring is worthless once it is stale, so it must never be queued for
// later delivery.
type Sender struct {
	client *messaging.Client
}

func NewSender(ctx context.Context, credentialsFile string) (*Sender, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init messaging client: %w", err)
	}
	return &Sender{client: client}, nil
}

func (s *Sender) Send(ctx context.Context, tokens []string, data map[string]string) error {
	ttl := time.Duration(0)
	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Data:   data,
		Android: &messaging.AndroidConfig{
			TTL: &ttl,
		},
	}
	resp, err := s.client.SendEachForMulticast(ctx, msg)
	if err != nil {
		return fmt.Errorf("send multicast: %w", err)
	}
	if resp.FailureCount > 0 {
		// Partial failure is acceptable: one reachable device is enough
		// to surface the missed ring.
		log.Warn().Str("module", "fcm").Int("failed", resp.FailureCount).Int("sent", resp.SuccessCount).Msg("partial push delivery")
	}
	return nil
}
