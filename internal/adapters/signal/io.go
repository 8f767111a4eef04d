package signal

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/dkeye/coderoom/internal/core"
	"github.com/dkeye/coderoom/internal/metrics"
	"github.com/dkeye/coderoom/internal/protocol"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.cfg.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.cfg.WriteWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping failed")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, sid core.SessionID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.cfg.PongWait))
	})

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump ctx done")
			return
		default:
		}
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
			}
			return
		}
		ctl.handleSignal(sid, c, data)
	}
}

// handleSignal dispatches one inbound frame. A panicking handler costs the
// frame, not the connection.
func (ctl *SignalWSController) handleSignal(sid core.SessionID, c *WsSignalConn, data []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Str("module", "signal").
				Str("sid", string(sid)).
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Msg("handler panic")
			_ = c.TrySend(protocol.EncodeError("internal", "internal error"))
		}
	}()

	env, err := protocol.Decode(data)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad json")
		_ = c.TrySend(protocol.EncodeError("bad_json", err.Error()))
		return
	}

	h, ok := ctl.handlers[env.Type]
	if !ok {
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown signal")
		ctl.replyError(c, env, "unknown_type", env.Type)
		return
	}
	metrics.ActionsTotal.WithLabelValues(env.Type).Inc()
	h(sid, c, env)
}

// decode fills v from the payload. Malformed payloads are logged and the
// partially decoded request is still handled.
func (ctl *SignalWSController) decode(sid core.SessionID, env protocol.Envelope, v any) {
	if err := protocol.DecodePayload(env.Payload, v); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("type", env.Type).Msg("bad payload")
	}
}

// reply answers env: as an ack when the frame asked for one, otherwise as
// an event named after the action.
func (ctl *SignalWSController) reply(c *WsSignalConn, env protocol.Envelope, payload any) {
	ctl.replyAs(c, env, env.Type, payload)
}

func (ctl *SignalWSController) replyAs(c *WsSignalConn, env protocol.Envelope, event string, payload any) {
	var (
		f   core.Frame
		err error
	)
	if env.Ack != nil {
		f, err = protocol.EncodeAck(*env.Ack, payload)
	} else {
		f, err = protocol.Encode(event, payload)
	}
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("type", env.Type).Msg("encode reply")
		return
	}
	ctl.sendFrame(c, f)
}

func (ctl *SignalWSController) replyError(c *WsSignalConn, env protocol.Envelope, code, msg string) {
	if env.Ack != nil {
		ctl.replyAs(c, env, protocol.EventError, protocol.ErrorPayload{Code: code, Error: msg})
		return
	}
	ctl.sendFrame(c, protocol.EncodeError(code, msg))
}

func (ctl *SignalWSController) sendFrame(c *WsSignalConn, f core.Frame) {
	if err := c.TrySend(f); err != nil {
		metrics.BroadcastDropped.Inc()
		log.Warn().Err(err).Str("module", "signal").Msg("reply dropped")
	}
}
