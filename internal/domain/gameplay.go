package domain

import (
	"time"

	"github.com/google/uuid"
)

// SearchAction records that SearcherID obtained ClueID from TargetID's character.
type SearchAction struct {
	ID         uuid.UUID
	RoomID     uuid.UUID
	SearcherID uuid.UUID
	TargetID   uuid.UUID
	ClueID     uuid.UUID
	Stage      int
	IsPublic   bool
	CreatedAt  time.Time
}

// Vote is the single active ballot of VoterID. CastAt moves on every re-vote.
type Vote struct {
	ID       uuid.UUID
	RoomID   uuid.UUID
	VoterID  uuid.UUID
	TargetID uuid.UUID
	Stage    int
	CastAt   time.Time
}
