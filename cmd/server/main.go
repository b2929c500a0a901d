package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dialpoint/signaling/internal/adapters/fcm"
	"github.com/dialpoint/signaling/internal/adapters/httpapi"
	"github.com/dialpoint/signaling/internal/adapters/memstore"
	"github.com/dialpoint/signaling/internal/adapters/natsbus"
	"github.com/dialpoint/signaling/internal/adapters/redisstore"
	"github.com/dialpoint/signaling/internal/adapters/ws"
	"github.com/dialpoint/signaling/internal/app"
	"github.com/dialpoint/signaling/internal/config"
	"github.com/dialpoint/signaling/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	node := cfg.NodeID
	if node == "" {
		node = uuid.NewString()
	}

	registry := app.NewRegistry()

	var (
		presence core.PresenceStore
		bcast    core.Broadcaster
		users    core.UserStore
	)
	if cfg.Redis.Addr == "" {
		// Single-process mode: process-local presence, loopback bus.
		log.Warn().Msg("redis.addr empty, running single-node with in-memory stores")
		presence = memstore.NewPresence()
		bcast = memstore.NewBroadcaster(registry.Deliver)
		users = memstore.NewUserStore()
	} else {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable")
		}
		presence = redisstore.NewPresenceStore(rdb)
		users = redisstore.NewUserStore(rdb)

		switch cfg.Broadcast.Driver {
		case "nats":
			nc, err := natsbus.Dial(cfg.NATS.URL)
			if err != nil {
				log.Fatal().Err(err).Msg("nats unreachable")
			}
			bcast = natsbus.NewBroadcaster(nc, registry.Deliver)
		default:
			bcast = redisstore.NewBroadcaster(ctx, rdb, registry.Deliver)
		}
	}
	defer func() {
		if err := bcast.Close(); err != nil {
			log.Warn().Err(err).Msg("broadcaster close")
		}
	}()

	var push core.PushSender = app.NopSender{}
	if cfg.Push.CredentialsFile != "" {
		sender, err := fcm.NewSender(ctx, cfg.Push.CredentialsFile)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to init push sender")
		}
		push = sender
	} else {
		log.Warn().Msg("push.credentials_file empty, offline fallback disabled")
	}

	var tracker *app.CallTracker
	if cfg.Tracker.Enabled {
		tracker = app.NewCallTracker(cfg.Tracker.RingTimeout)
		go tracker.Run(ctx)
	}

	relay := &app.Relay{
		Node:     node,
		Presence: presence,
		Conns:    registry,
		Bcast:    bcast,
		Fallback: &app.Fallback{Tokens: users, Push: push},
		Tracker:  tracker,
	}
	orch := &app.Orchestrator{
		Node:     node,
		Registry: registry,
		Presence: presence,
		Bcast:    bcast,
		Relay:    relay,
	}

	wsCtl := ws.NewController(orch, cfg.WS.ReadLimit, cfg.WS.PingPeriod)
	if cfg.WS.CallLimit > 0 {
		wsCtl.Calls = ws.NewCallRateLimiter(cfg.WS.CallLimit, cfg.WS.CallWindow)
	}

	router := httpapi.SetupRouter(ctx, httpapi.Deps{
		Orch:    orch,
		Users:   users,
		Tracker: tracker,
		WS:      wsCtl,
		Mode:    cfg.Mode,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", addr).Str("node", node).Msg("signaling server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited gracefully")
}
