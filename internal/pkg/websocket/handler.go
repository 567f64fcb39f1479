package websocket

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yigit/sqlguide/internal/app/models/dto"
)

// Handler for WebSocket connections
type Handler struct {
	hub    *Hub
	logger zerolog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, logger zerolog.Logger) *Handler {
	return &Handler{
		hub:    hub,
		logger: logger,
	}
}

// HandleConnection godoc
// @Summary Stream verification progress
// @Description Upgrades the connection to a WebSocket that receives verification events. Without a run ID every run is followed.
// @Tags admin, websocket
// @Security BearerAuth
// @Param run query string false "Verification run ID"
// @Success 101 {string} string "Switching Protocols to WebSocket"
// @Failure 400 {object} dto.ErrorResponse "Invalid run ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /admin/ws [get]
func (h *Handler) HandleConnection(c *gin.Context) {
	topic := AllTopics
	if run := c.Query("run"); run != "" {
		id, err := uuid.Parse(run)
		if err != nil {
			detail := dto.NewErrorDetail(dto.ErrorCodeBadRequest, "Invalid run ID").WithField("run")
			c.JSON(http.StatusBadRequest, dto.NewErrorResponse(detail))
			return
		}
		topic = id.String()
	}

	username := c.GetString("username")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().
			Err(err).
			Str("topic", topic).
			Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := &Client{
		hub:      h.hub,
		conn:     conn,
		send:     make(chan []byte, 256),
		username: username,
		topic:    topic,
		logger:   h.logger,
	}
	if !client.hub.join(client) {
		h.logger.Warn().Str("topic", topic).Msg("WebSocket hub stopped, closing connection")
		conn.Close()
		return
	}

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()
}
