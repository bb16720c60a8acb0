package domain

import (
	"time"

	"github.com/google/uuid"
)

type LogKind string

const (
	LogSystem      LogKind = "system"
	LogPublicChat  LogKind = "public_chat"
	LogPrivateChat LogKind = "private_chat"
	LogNarration   LogKind = "narration"
	LogAction      LogKind = "action"
	LogClueReveal  LogKind = "clue_reveal"
)

// LogEntry is an append-only audit or chat record.
type LogEntry struct {
	ID          uuid.UUID
	RoomID      uuid.UUID
	Kind        LogKind
	SenderID    *uuid.UUID
	RecipientID *uuid.UUID
	ClueID      *uuid.UUID
	Stage       int
	Message     string
	CreatedAt   time.Time
}

func NewLogEntry(roomID uuid.UUID, kind LogKind, sender *uuid.UUID, message string) *LogEntry {
	return &LogEntry{
		ID:        uuid.New(),
		RoomID:    roomID,
		Kind:      kind,
		SenderID:  sender,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
}
