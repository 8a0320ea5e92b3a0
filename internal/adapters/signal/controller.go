// Package signal exposes the relay over a gorilla/websocket endpoint.
package signal

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/globalbridge/bridge/internal/app"
)

type Controller struct {
	relay      *app.Relay
	readLimit  int64
	pingPeriod time.Duration
}

func NewController(relay *app.Relay, readLimit int64, pingPeriod time.Duration) *Controller {
	return &Controller{relay: relay, readLimit: readLimit, pingPeriod: pingPeriod}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignaling upgrades the request and runs the read/write pumps
// for the lifetime of the socket.
func (ctl *Controller) HandleSignaling(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.readLimit > 0 {
		ws.SetReadLimit(ctl.readLimit)
	}

	conn := newWSConn(ws)
	id := ctl.relay.HandleConnect(conn)
	log.Info().Str("module", "signal").Str("conn", string(id)).Msg("new signaling client")

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, id, conn)
}
