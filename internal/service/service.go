package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/mystery_room/internal/content"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
	"github.com/immxrtalbeast/mystery_room/internal/protocol"
)

type RoomInteractor interface {
	CreateRoom(ctx context.Context, in CreateRoomInput) (*domain.Room, error)
	JoinRoom(ctx context.Context, code string, userID uuid.UUID, password string) (*domain.Room, error)
	GetRoomByCode(ctx context.Context, code string) (*domain.Room, error)
	ListRooms(ctx context.Context) ([]*domain.Room, error)
	Authorize(ctx context.Context, code string, userID uuid.UUID) (*domain.Room, *domain.Participant, error)
	Connected(ctx context.Context, roomID, userID uuid.UUID)
	Disconnected(ctx context.Context, roomID, userID uuid.UUID)
	HandleFrame(ctx context.Context, roomID, userID uuid.UUID, raw []byte)
	Reject(userID uuid.UUID, cmd protocol.CommandType, err error)
	Leave(ctx context.Context, roomID, userID uuid.UUID) error
	CreateAgentProfile(ctx context.Context, in AgentProfileInput) (*domain.AgentProfile, error)
	ListAgentProfiles(ctx context.Context) ([]*domain.AgentProfile, error)
}

type UserInteractor interface {
	CreateUser(ctx context.Context, nickname string, guest bool) (*domain.User, string, error)
	GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, nickname string) (*domain.User, error)
}

// Broadcaster delivers outbound events to connected users.
type Broadcaster interface {
	Unicast(userID uuid.UUID, msg protocol.Outbound) error
	Broadcast(roomID uuid.UUID, msg protocol.Outbound, exclude ...uuid.UUID)
	Online(roomID uuid.UUID) map[uuid.UUID]bool
	UsersIn(roomID uuid.UUID) []uuid.UUID
	CloseRoom(roomID uuid.UUID)
	Disconnect(userID uuid.UUID)
}

// Generator produces a script for a room.
type Generator interface {
	Generate(ctx context.Context, req content.Request) (*domain.Script, error)
}

// AgentHooks is notified about rooms that need autonomous agents.
type AgentHooks interface {
	RoomActivated(roomID uuid.UUID)
	RoomDeactivated(roomID uuid.UUID)
	HumanMessage(trig domain.AgentTrigger)
}

type nopHooks struct{}

func (nopHooks) RoomActivated(uuid.UUID)          {}
func (nopHooks) RoomDeactivated(uuid.UUID)        {}
func (nopHooks) HumanMessage(domain.AgentTrigger) {}

// TokenIssuer signs identity tokens for new users.
type TokenIssuer interface {
	Issue(user *domain.User) (string, error)
}
