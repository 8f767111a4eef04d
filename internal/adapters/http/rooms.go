package http

import (
	"errors"
	nethttp "net/http"

	"github.com/dkeye/coderoom/internal/app/orch"
	"github.com/dkeye/coderoom/internal/core"
	"github.com/dkeye/coderoom/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type roomsHandler struct {
	rooms core.RoomManager
}

func (h *roomsHandler) list(c *gin.Context) {
	c.JSON(nethttp.StatusOK, gin.H{"rooms": h.rooms.List()})
}

func (h *roomsHandler) get(c *gin.Context) {
	var info core.RoomInfo
	err := h.rooms.Do(domain.RoomID(c.Param("id")), func(s *core.RoomState) {
		info = s.Info()
	})
	if h.notFound(c, err) {
		return
	}
	c.JSON(nethttp.StatusOK, info)
}

func (h *roomsHandler) members(c *gin.Context) {
	var members []core.MemberDTO
	err := h.rooms.Do(domain.RoomID(c.Param("id")), func(s *core.RoomState) {
		members = s.Members()
	})
	if h.notFound(c, err) {
		return
	}
	c.JSON(nethttp.StatusOK, gin.H{"members": members})
}

func (h *roomsHandler) notFound(c *gin.Context, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, core.ErrRoomNotFound):
		c.JSON(nethttp.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).Str("module", "adapters.http").Msg("room lookup")
		c.JSON(nethttp.StatusInternalServerError, gin.H{"error": "internal error"})
	}
	return true
}

func health(o *orch.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(nethttp.StatusOK, gin.H{
			"status":   "ok",
			"rooms":    o.Rooms.Count(),
			"sessions": o.Registry.Count(),
		})
	}
}
