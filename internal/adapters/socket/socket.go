// Package socket is the websocket transport adapter: handshake
// verification, the read/write pumps and event dispatch into the
// presence service.
package socket

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/studyhall/server/internal/app"
	"github.com/studyhall/server/internal/core"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Controller struct {
	Service  *app.PresenceService
	Verifier core.TokenVerifier

	ReadLimit  int64
	PingPeriod time.Duration
}

// Handle authenticates the handshake and, on success, upgrades and
// runs the connection until the transport closes. A bad token is
// rejected before the upgrade; it never reaches the state machine.
func (ctl *Controller) Handle(ctx context.Context, c *gin.Context) {
	token := handshakeToken(c)
	userID, err := ctl.Verifier.Verify(token)
	if err != nil {
		log.Warn().Str("module", "socket").Msg("handshake rejected, invalid token")
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "socket").Msg("ws upgrade")
		return
	}

	conn := newWSConn(core.ConnID(uuid.NewString()), ws)
	sess, err := ctl.Service.Connect(ctx, conn, userID)
	if err != nil {
		log.Warn().Err(err).Str("module", "socket").
			Str("user", string(userID)).Msg("connect rejected")
		conn.Emit(app.EventError, app.ErrorPayload{Message: "user not found"})
		conn.Close()
		return
	}

	connCtx, cancel := context.WithCancel(ctx)
	go ctl.writePump(connCtx, conn)
	go func() {
		defer cancel()
		reason := ctl.readPump(connCtx, sess, conn)
		ctl.Service.Disconnect(ctx, sess, reason)
		conn.Close()
	}()
}

// handshakeToken accepts the token either as a query parameter or as a
// bearer header, whichever the client can set on a websocket dial.
func handshakeToken(c *gin.Context) string {
	if t := c.Query("token"); t != "" {
		return t
	}
	h := c.GetHeader("Authorization")
	if after, ok := strings.CutPrefix(h, "Bearer "); ok {
		return after
	}
	return ""
}
