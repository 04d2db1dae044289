// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 The keydrop Authors

package http

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/keydrop/keydrop/internal/logger"
	"github.com/keydrop/keydrop/internal/notify"
)

const (
	// wsAuthTimeout bounds how long a fresh connection may take to send
	// its token frame.
	wsAuthTimeout = 10 * time.Second

	wsWriteTimeout = 10 * time.Second
	wsPongTimeout  = 60 * time.Second
	wsPingInterval = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// clients are native apps, not browsers; origin checks do not apply
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsAuthFrame struct {
	Token string `json:"token"`
}

type wsStatusFrame struct {
	Status string `json:"status"`
}

// wsLagFrame tells a slow subscriber how many events were dropped; the
// stream continues afterwards and the client should issue a full pull.
type wsLagFrame struct {
	Kind    string `json:"kind"`
	Skipped int    `json:"skipped"`
}

// notify upgrades the connection to a WebSocket and streams sync
// notifications for the authenticated device. Authentication happens on
// the socket itself: the first inbound frame must carry the access
// token, answered with {"status":"connected"} before any events flow.
func (h *Handler) notify(w http.ResponseWriter, r *http.Request) {
	log := logger.FromRequest(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already answered the client
		log.Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(wsAuthTimeout))

	var authFrame wsAuthFrame
	if err := conn.ReadJSON(&authFrame); err != nil {
		log.Err(err).Msg("reading websocket auth frame failed")
		return
	}

	claims, err := h.services.AuthService.ParseAccessToken(r.Context(), authFrame.Token)
	if err != nil {
		log.Err(err).Msg("websocket token rejected")
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		_ = conn.WriteJSON(wsStatusFrame{Status: "unauthorized"})
		return
	}

	userID, err := claims.UserID()
	if err != nil {
		log.Err(err).Msg("websocket token carries malformed user id")
		return
	}
	deviceID, err := claims.Device()
	if err != nil {
		log.Err(err).Msg("websocket token carries malformed device id")
		return
	}

	// subscribe before confirming, so no event published after the
	// handshake can be missed
	sub := h.bus.Subscribe(userID, deviceID)
	defer sub.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(wsStatusFrame{Status: "connected"}); err != nil {
		log.Err(err).Msg("writing websocket handshake reply failed")
		return
	}

	log.Debug().
		Str("user_id", userID.String()).
		Str("device_id", deviceID.String()).
		Msg("notification stream connected")

	// Reader goroutine: after the handshake the client only sends
	// ping/pong/close control frames, so discard everything until the
	// connection drops. Pongs extend the read deadline.
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	pinger := time.NewTicker(wsPingInterval)
	defer pinger.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case event, open := <-sub.C:
			if !open {
				return
			}
			if err := writeEvent(conn, event); err != nil {
				log.Err(err).Msg("writing notification frame failed")
				return
			}
		case <-pinger.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, event notify.Event) error {
	if event.Lagged {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(wsLagFrame{Kind: "lagged", Skipped: event.Skipped}); err != nil {
			return err
		}
	}

	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(event.Notification)
}
