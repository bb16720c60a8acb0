package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
)

var (
	ErrRoomNotFound        = domain.ErrRoomNotFound
	ErrUserNotFound        = domain.ErrUserNotFound
	ErrCharacterTaken      = domain.ErrCharacterTaken
	ErrAlreadySearched     = domain.ErrAlreadySearched
	ErrNoSearchAttempts    = domain.ErrNoSearchAttempts
	ErrProfileNotFound     = domain.ErrAgentProfileNotFound
	ErrRoomCodeExists      = errors.New("room code already exists")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrParticipantExists   = errors.New("participant already in room")
	ErrScriptNotFound      = errors.New("script not found")
	ErrInteractionNotFound = errors.New("interaction not found")
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type RoomRepository interface {
	Create(ctx context.Context, room *domain.Room) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Room, error)
	GetByCode(ctx context.Context, code string) (*domain.Room, error)
	Update(ctx context.Context, room *domain.Room) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, phases ...domain.Phase) ([]*domain.Room, error)

	AddParticipant(ctx context.Context, p *domain.Participant) error
	UpdateParticipant(ctx context.Context, p *domain.Participant) error
	RemoveParticipant(ctx context.Context, roomID, userID uuid.UUID) error
	GetParticipant(ctx context.Context, roomID, userID uuid.UUID) (*domain.Participant, error)
	ListParticipants(ctx context.Context, roomID uuid.UUID) ([]*domain.Participant, error)
}

// ScriptRepository stores generated bundles. Create is all-or-nothing.
type ScriptRepository interface {
	Create(ctx context.Context, script *domain.Script) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Script, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type GameRepository interface {
	// RecordSearch decrements the goal counter and stores the action and log
	// entry in one transaction, returning the attempts left.
	RecordSearch(ctx context.Context, action *domain.SearchAction, goalID uuid.UUID, entry *domain.LogEntry) (int, error)
	ListSearches(ctx context.Context, roomID uuid.UUID) ([]*domain.SearchAction, error)

	// SaveVote inserts or overwrites the voter's single ballot.
	SaveVote(ctx context.Context, vote *domain.Vote) error
	ClearVotes(ctx context.Context, roomID uuid.UUID) error
	ListVotes(ctx context.Context, roomID uuid.UUID) ([]*domain.Vote, error)

	AppendLog(ctx context.Context, entry *domain.LogEntry) error
	ListLogs(ctx context.Context, roomID uuid.UUID, limit int) ([]*domain.LogEntry, error)
}

type AgentRepository interface {
	CreateProfile(ctx context.Context, profile *domain.AgentProfile) error
	GetProfile(ctx context.Context, id uuid.UUID) (*domain.AgentProfile, error)
	ListProfiles(ctx context.Context) ([]*domain.AgentProfile, error)

	RecordInteraction(ctx context.Context, in *domain.Interaction) error
	LastInteraction(ctx context.Context, roomID, agentID uuid.UUID) (*domain.Interaction, error)
}
