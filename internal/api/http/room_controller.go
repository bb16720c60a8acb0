package http

import (
	"context"
	"log/slog"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/immxrtalbeast/mystery_room/internal/api/http/converter"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
	"github.com/immxrtalbeast/mystery_room/internal/service"
	"github.com/immxrtalbeast/mystery_room/internal/ws"
	"github.com/immxrtalbeast/mystery_room/lib/logger/sl"
)

// Hub tracks live connections.
type Hub interface {
	Register(roomID, userID uuid.UUID, ch ws.Channel)
	Release(userID uuid.UUID, ch ws.Channel) bool
}

type RoomController struct {
	rooms    service.RoomInteractor
	tokens   TokenParser
	hub      Hub
	wsOpts   ws.Options
	upgrader websocket.Upgrader
	log      *slog.Logger
}

func NewRoomController(rooms service.RoomInteractor, tokens TokenParser, hub Hub, wsOpts ws.Options, origins []string, log *slog.Logger) *RoomController {
	return &RoomController{
		rooms:  rooms,
		tokens: tokens,
		hub:    hub,
		wsOpts: wsOpts,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return len(origins) == 0 || origin == "" || slices.Contains(origins, origin)
			},
		},
	}
}

func (c *RoomController) CreateRoom(ctx *gin.Context) {
	type request struct {
		Name     string          `json:"name" binding:"required"`
		Password string          `json:"password"`
		Capacity int             `json:"capacity" binding:"omitempty,min=1"`
		Settings domain.Settings `json:"settings"`
	}
	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	room, err := c.rooms.CreateRoom(ctx.Request.Context(), service.CreateRoomInput{
		HostID:   currentUser(ctx),
		Name:     req.Name,
		Password: req.Password,
		Capacity: req.Capacity,
		Settings: req.Settings,
	})
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"room": converter.RoomToApi(room)})
}

func (c *RoomController) ListRooms(ctx *gin.Context) {
	rooms, err := c.rooms.ListRooms(ctx.Request.Context())
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"rooms": converter.RoomsToApi(rooms)})
}

func (c *RoomController) GetRoomByCode(ctx *gin.Context) {
	room, err := c.rooms.GetRoomByCode(ctx.Request.Context(), ctx.Param("code"))
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"room": converter.RoomToApi(room)})
}

func (c *RoomController) JoinRoom(ctx *gin.Context) {
	type request struct {
		Password string `json:"password"`
	}
	var req request
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
			return
		}
	}

	room, err := c.rooms.JoinRoom(ctx.Request.Context(), ctx.Param("code"), currentUser(ctx), req.Password)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"room": converter.RoomToApi(room)})
}

func (c *RoomController) LeaveRoom(ctx *gin.Context) {
	room, _, err := c.rooms.Authorize(ctx.Request.Context(), ctx.Param("code"), currentUser(ctx))
	if err != nil {
		writeError(ctx, err)
		return
	}
	if err := c.rooms.Leave(ctx.Request.Context(), room.ID, currentUser(ctx)); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// Connect upgrades a seated participant to the live protocol. Browsers cannot
// set headers on websocket requests, so the token comes in the query.
func (c *RoomController) Connect(ctx *gin.Context) {
	identity, err := c.tokens.Parse(ctx.Query("token"))
	if err != nil {
		writeError(ctx, err)
		return
	}
	room, _, err := c.rooms.Authorize(ctx.Request.Context(), ctx.Param("code"), identity.UserID)
	if err != nil {
		writeError(ctx, err)
		return
	}

	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.log.Warn("failed to upgrade connection", slog.String("room_id", room.ID.String()), sl.Err(err))
		return
	}

	c.serve(conn, room.ID, identity.UserID)
}

func (c *RoomController) serve(conn ws.Conn, roomID, userID uuid.UUID) {
	log := c.log.With(slog.String("room_id", roomID.String()), slog.String("user_id", userID.String()))
	client := ws.NewClient(conn, c.wsOpts, log)
	c.hub.Register(roomID, userID, client)
	go client.WritePump()

	// the request context ends with the upgrade handler
	bg := context.Background()
	c.rooms.Connected(bg, roomID, userID)
	client.ReadLoop(
		func(raw []byte) { c.rooms.HandleFrame(bg, roomID, userID, raw) },
		func() { c.rooms.Reject(userID, "", domain.ErrRateLimited) },
	)

	if c.hub.Release(userID, client) {
		c.rooms.Disconnected(bg, roomID, userID)
	}
}
