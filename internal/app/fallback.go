package app

import (
	"context"
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/dialpoint/signaling/internal/core"
	"github.com/dialpoint/signaling/internal/domain"
)

// Fallback submits an out-of-band push notification when a ring cannot
// reach a live connection. The contract is best-effort notify: every
// failure path is logged and swallowed, nothing reaches the caller's
// transport.
type Fallback struct {
	Tokens core.TokenSource
	Push   core.PushSender
}

// Dispatch fires the push asynchronously. The task outlives the
// sender's request context; a disconnecting caller must not cancel an
// in-flight notification.
func (f *Fallback) Dispatch(ctx context.Context, sig *domain.Signal) {
	go f.send(context.WithoutCancel(ctx), sig)
}

func (f *Fallback) send(ctx context.Context, sig *domain.Signal) {
	tokens, err := f.Tokens.Tokens(ctx, sig.To)
	if err != nil {
		log.Error().Err(err).Str("module", "app.fallback").Str("to", string(sig.To)).Msg("token lookup failed")
		return
	}
	if len(tokens) == 0 {
		log.Info().Str("module", "app.fallback").Str("to", string(sig.To)).Msg("no registration tokens, push skipped")
		return
	}

	payload, err := json.Marshal(sig.Info())
	if err != nil {
		log.Error().Err(err).Str("module", "app.fallback").Msg("payload encode failed")
		return
	}

	data := map[string]string{"payload": string(payload)}
	if err := f.Push.Send(ctx, tokens, data); err != nil {
		log.Error().Err(err).Str("module", "app.fallback").Str("to", string(sig.To)).Msg("push dispatch failed")
		return
	}
	log.Info().Str("module", "app.fallback").Str("to", string(sig.To)).Int("tokens", len(tokens)).Msg("push dispatched")
}

// NopSender is wired when push credentials are not configured.
type NopSender struct{}

func (NopSender) Send(ctx context.Context, tokens []string, data map[string]string) error {
	log.Warn().Str("module", "app.fallback").Msg("push disabled, notification dropped")
	return nil
}
