package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"pigeonflight/pkg/config"
	"pigeonflight/pkg/core"
	"pigeonflight/pkg/model"
	"pigeonflight/pkg/tracker"
)

const (
	initTimeout  = 10 * time.Second
	writeTimeout = 5 * time.Second
	maxInitBytes = 4096
)

// SimulateHandler runs one simulation per WebSocket connection. The client
// sends a single init message; the server answers with a path message, one
// update per tick and a normal close once the pigeon arrives.
type SimulateHandler struct {
	ctrl     *core.Controller
	limiter  *rate.Limiter
	tracker  *tracker.Tracker
	buffer   int
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewSimulateHandler creates the handler. A non-positive StartsPerSecond
// disables start limiting.
func NewSimulateHandler(ctrl *core.Controller, cfg config.SimConfig, tr *tracker.Tracker) *SimulateHandler {
	limit := rate.Inf
	if cfg.StartsPerSecond > 0 {
		limit = rate.Limit(cfg.StartsPerSecond)
	}
	burst := cfg.StartsBurst
	if burst < 1 {
		burst = 1
	}
	return &SimulateHandler{
		ctrl:     ctrl,
		limiter:  rate.NewLimiter(limit, burst),
		tracker:  tr,
		buffer:   cfg.UpdateBuffer,
		upgrader: websocket.Upgrader{EnableCompression: false},
		logger:   slog.With("component", "simulate"),
	}
}

func (h *SimulateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.Allow() {
		if h.tracker != nil {
			h.tracker.TrackRunRejected()
		}
		h.logger.Warn("Simulation start rate limited", "remote", r.RemoteAddr)
		http.Error(w, "too many simulations, retry later", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error
		h.logger.Warn("Unable to upgrade simulate websocket", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(maxInitBytes)
	_ = conn.SetReadDeadline(time.Now().Add(initTimeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		h.logger.Debug("No init received", "error", err)
		return
	}
	_ = conn.SetReadDeadline(time.Time{})

	cmd, err := model.DecodeInit(data)
	if err != nil {
		if h.tracker != nil {
			h.tracker.TrackRunRejected()
		}
		h.logger.Info("Rejected init", "error", err)
		_ = h.write(conn, model.NewErrorEvent(err))
		closeConn(conn, websocket.CloseUnsupportedData, "invalid init")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A hijacked connection does not cancel r.Context(); watch the socket
	// for the client going away instead.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	sink := core.NewChannelSink(h.buffer)
	written := make(chan struct{})
	go func() {
		defer close(written)
		failed := false
		for ev := range sink.Events() {
			if failed {
				continue
			}
			if err := h.write(conn, ev); err != nil {
				h.logger.Debug("Write failed, canceling run", "error", err)
				failed = true
				cancel()
			}
		}
	}()

	_, err = h.ctrl.Run(ctx, cmd, sink)
	sink.Close()
	<-written

	switch {
	case err == nil:
		closeConn(conn, websocket.CloseNormalClosure, "arrived")
	case errors.Is(err, core.ErrTickLimit):
		closeConn(conn, websocket.CloseInternalServerErr, err.Error())
	}
}

func (h *SimulateHandler) write(conn *websocket.Conn, ev model.Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(ev)
}

func closeConn(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout))
}
