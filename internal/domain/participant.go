package domain

import (
	"time"

	"github.com/google/uuid"
)

// Participant is a user's seat in one room.
type Participant struct {
	ID             uuid.UUID
	RoomID         uuid.UUID
	UserID         uuid.UUID
	Nickname       string
	CharacterID    *uuid.UUID
	Ready          bool
	Alive          bool
	IsAgent        bool
	AgentProfileID *uuid.UUID
	JoinedAt       time.Time
}

func NewParticipant(roomID uuid.UUID, user *User) *Participant {
	return &Participant{
		ID:       uuid.New(),
		RoomID:   roomID,
		UserID:   user.ID,
		Nickname: user.Nickname,
		Alive:    true,
		JoinedAt: time.Now().UTC(),
	}
}

// NewAgentParticipant seats an agent; agents never block the ready check.
func NewAgentParticipant(roomID uuid.UUID, user *User, profile *AgentProfile) *Participant {
	p := NewParticipant(roomID, user)
	p.IsAgent = true
	p.Ready = true
	id := profile.ID
	p.AgentProfileID = &id
	return p
}

func (p *Participant) HasCharacter() bool {
	return p != nil && p.CharacterID != nil && *p.CharacterID != uuid.Nil
}

func (p *Participant) Holds(characterID uuid.UUID) bool {
	return p.HasCharacter() && *p.CharacterID == characterID
}
