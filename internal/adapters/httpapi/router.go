// Package httpapi wires the REST plumbing around the relay core:
// registration, contact sync, the out-of-band call reject, and the
// websocket entry point.
package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dialpoint/signaling/internal/adapters/ws"
	"github.com/dialpoint/signaling/internal/app"
	"github.com/dialpoint/signaling/internal/core"
	"github.com/dialpoint/signaling/internal/domain"
)

type Deps struct {
	Orch    *app.Orchestrator
	Users   core.UserStore
	Tracker *app.CallTracker // may be nil
	WS      *ws.Controller
	Mode    string
}

func SetupRouter(ctx context.Context, d Deps) *gin.Engine {
	if d.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if d.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	r.POST("/registerUser", func(c *gin.Context) {
		var req struct {
			PhoneNumber string `json:"phoneNumber"`
			Token       string `json:"token"`
		}
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		id, err := domain.ParsePeerID(req.PhoneNumber)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid phone number"})
			return
		}
		if err := d.Users.Register(c.Request.Context(), id, req.Token); err != nil {
			log.Error().Err(err).Str("module", "httpapi").Str("peer", string(id)).Msg("register failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
			return
		}
		c.String(http.StatusOK, "User Registered")
	})

	r.POST("/deleteUser", func(c *gin.Context) {
		var req struct {
			PhoneNumber string `json:"phoneNumber"`
		}
		if err := c.BindJSON(&req); err != nil || req.PhoneNumber == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := d.Users.Unregister(c.Request.Context(), domain.PeerID(req.PhoneNumber)); err != nil {
			log.Error().Err(err).Str("module", "httpapi").Msg("unregister failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "unregistration failed"})
			return
		}
		c.String(http.StatusOK, "User Unregistered")
	})

	r.POST("/syncContacts", func(c *gin.Context) {
		var req struct {
			PhoneNumbers []string `json:"phoneNumbers"`
		}
		if err := c.BindJSON(&req); err != nil || req.PhoneNumbers == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		ids := make([]domain.PeerID, 0, len(req.PhoneNumbers))
		for _, n := range req.PhoneNumbers {
			if n != "" {
				ids = append(ids, domain.PeerID(n))
			}
		}
		found, err := d.Users.Lookup(c.Request.Context(), ids)
		if err != nil {
			log.Error().Err(err).Str("module", "httpapi").Msg("contact sync failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
			return
		}
		c.JSON(http.StatusOK, found)
	})

	// Out-of-band reject, used when the callee's app answers the push
	// notification without opening a socket.
	r.POST("/rejectCall", func(c *gin.Context) {
		var req struct {
			Who string `json:"who"`
		}
		if err := c.BindJSON(&req); err != nil || req.Who == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		sig := domain.NewSignal(domain.EventCallDeclined, "", domain.PeerID(req.Who))
		if d.Orch.OnSignal(c.Request.Context(), sig) != app.StatusDelivered {
			c.Status(http.StatusNotFound)
			return
		}
		c.Status(http.StatusOK)
	})

	r.GET("/calls", func(c *gin.Context) {
		if d.Tracker == nil {
			c.JSON(http.StatusOK, []app.ActiveCall{})
			return
		}
		c.JSON(http.StatusOK, d.Tracker.Snapshot())
	})

	r.GET("/ws/signal", func(c *gin.Context) {
		d.WS.HandleSignal(ctx, c)
	})

	return r
}
