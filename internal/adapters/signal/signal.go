package signal

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"sync"

	"github.com/dkeye/coderoom/internal/app/orch"
	"github.com/dkeye/coderoom/internal/config"
	"github.com/dkeye/coderoom/internal/core"
	"github.com/dkeye/coderoom/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

const defaultUsername = "guest"

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

type SignalWSController struct {
	Orch *orch.Orchestrator

	cfg      *config.Config
	limiter  *RoomRateLimiter
	upgrader websocket.Upgrader
	handlers map[string]handlerFunc
}

func NewSignalWSController(o *orch.Orchestrator, cfg *config.Config) *SignalWSController {
	ctl := &SignalWSController{
		Orch:    o,
		cfg:     cfg,
		limiter: NewRoomRateLimiter(cfg.CreateLimit, cfg.CreateInterval),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     OriginChecker(cfg.AllowedOrigins),
		},
	}
	ctl.handlers = ctl.routes()
	return ctl
}

// OriginChecker allows the listed origins; "*" or an empty list allows any.
// Requests without an Origin header are not browsers and pass.
func OriginChecker(allowed []string) func(r *http.Request) bool {
	open := len(allowed) == 0 || slices.Contains(allowed, "*")
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return open || origin == "" || slices.Contains(allowed, origin)
	}
}

// WsSignalConn is the outbound side of one socket. Frames are queued on a
// bounded channel drained by writePump.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame
	ctx  context.Context

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// HandleSignal upgrades the request and serves the socket until it closes.
// Every connection gets a fresh session id; the client token only names the user.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(uuid.NewString())
	userID := domain.UserID(c.GetString("client_token"))
	logger := log.With().Str("module", "signal").Str("sid", string(sid)).Logger()

	ws, err := ctl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Error().Err(err).Msg("ws upgrade")
		return
	}
	logger.Info().Str("user_id", string(userID)).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.cfg.SendBuffer),
		ctx:  ctx,
	}

	user := domain.User{ID: userID, Username: defaultUsername}
	if u, err := domain.NewUser(userID, defaultUsername); err == nil {
		user = *u
	}
	sess := core.NewMemberSession(sid, user, conn)
	ctl.Orch.Registry.BindSignal(sid, sess, cancel)

	var wg conc.WaitGroup
	wg.Go(func() { ctl.writePump(ctx, conn) })
	wg.Go(func() {
		ctl.readPump(ctx, sid, conn)
		cancel()
	})
	wg.Wait()

	ctl.Orch.OnDisconnect(sid)
	logger.Info().Msg("WS connection closed")
}
