package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/octobees/anycrm/internal/metrics"
	"github.com/octobees/anycrm/internal/notify"
)

const wsWriteWait = 10 * time.Second

// NotificationsHandler upgrades account pages to WebSockets and keeps each
// socket registered for as long as it stays open.
type NotificationsHandler struct {
	registry *notify.Registry
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewNotificationsHandler creates a handler backed by registry.
func NewNotificationsHandler(registry *notify.Registry, logger *slog.Logger) *NotificationsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationsHandler{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger.With("component", "ws"),
	}
}

// Account handles GET /ws/account/:id.
func (h *NotificationsHandler) Account(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return Error(c, http.StatusBadRequest, "invalid account id")
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.logger.Debug("websocket upgrade failed", "account_id", id, "error", err)
		return nil
	}

	ch := &wsChannel{conn: conn}
	h.registry.Register(ch, id)
	metrics.ChannelOpened()
	defer func() {
		h.registry.Unregister(ch, id)
		metrics.ChannelClosed()
		ch.close()
	}()

	// Inbound frames are ignored; the loop only detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				h.logger.Debug("websocket closed", "account_id", id, "error", err)
			}
			return nil
		}
	}
}

// wsChannel adapts a WebSocket connection to notify.Channel. gorilla allows
// one concurrent writer, so writes are serialized.
type wsChannel struct {
	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

func (w *wsChannel) Send(ctx context.Context, v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	deadline := time.Now().Add(wsWriteWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := w.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	if err := w.conn.WriteJSON(v); err != nil {
		// A failed write leaves the socket unusable; closing it ends the read loop.
		w.closeLocked()
		return err
	}
	return nil
}

func (w *wsChannel) close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closeLocked()
}

func (w *wsChannel) closeLocked() {
	if w.closed {
		return
	}
	w.closed = true
	_ = w.conn.Close()
}
