package handler

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	appmw "github.com/shinyyama/zaposlitev-backend/internal/middleware"
	"github.com/shinyyama/zaposlitev-backend/internal/model"
	"github.com/shinyyama/zaposlitev-backend/internal/reqctx"
	"github.com/shinyyama/zaposlitev-backend/internal/service"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// StreamHandler pushes read-model snapshots over websockets.
type StreamHandler struct {
	svc service.MessagingService
}

func NewStreamHandler(svc service.MessagingService) *StreamHandler {
	return &StreamHandler{svc: svc}
}

func (h *StreamHandler) Inbox(c echo.Context) error {
	uid := appmw.UID(c)
	if uid == "" {
		return unauthorized(c)
	}
	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()
	snaps, err := h.svc.WatchInbox(ctx, uid)
	if err != nil {
		return writeError(c, err, "conversations")
	}
	return pump(c, cancel, snaps, func(in service.Inbox) interface{} {
		return toInboxResponse(in, uid)
	})
}

func (h *StreamHandler) Conversation(c echo.Context) error {
	uid := appmw.UID(c)
	if uid == "" {
		return unauthorized(c)
	}
	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()
	snaps, err := h.svc.WatchMessages(ctx, uid, c.Param("id"))
	if err != nil {
		return writeError(c, err, "conversation")
	}
	return pump(c, cancel, snaps, func(msgs []model.Message) interface{} {
		return toMessageResponses(msgs)
	})
}

// pump upgrades the connection and writes every snapshot as JSON until the
// client goes away or the watch ends.
func pump[T any](c echo.Context, cancel context.CancelFunc, snaps <-chan T, render func(T) interface{}) error {
	rid := reqctx.RID(c.Request().Context())
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		log.Printf("[ws] rid=%s stage=upgrade err=%v", rid, err)
		return nil
	}
	defer func() {
		_ = conn.Close()
	}()

	// Client frames are ignored; a read error means the peer left.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	for snap := range snaps {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(render(snap)); err != nil {
			log.Printf("[ws] rid=%s path=%s stage=write err=%v", rid, c.Path(), err)
			return nil
		}
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return nil
}
