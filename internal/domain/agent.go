package domain

import (
	"time"

	"github.com/google/uuid"
)

const DefaultResponseInterval = 90 * time.Second

// AgentProfile configures how an autonomous participant behaves.
type AgentProfile struct {
	ID                 uuid.UUID
	Name               string
	Persona            string
	RespondProbability float64
	ResponseInterval   time.Duration
	CreatedAt          time.Time
}

func NewAgentProfile(name, persona string, probability float64, interval time.Duration) *AgentProfile {
	if interval <= 0 {
		interval = DefaultResponseInterval
	}
	return &AgentProfile{
		ID:                 uuid.New(),
		Name:               name,
		Persona:            persona,
		RespondProbability: probability,
		ResponseInterval:   interval,
		CreatedAt:          time.Now().UTC(),
	}
}

// Interaction is the audit row written before every agent action.
type Interaction struct {
	ID            uuid.UUID
	RoomID        uuid.UUID
	AgentID       uuid.UUID
	TriggerUserID *uuid.UUID
	Kind          string
	Context       map[string]any
	Response      string
	CreatedAt     time.Time
}

type TriggerKind string

const (
	TriggerChat    TriggerKind = "chat"
	TriggerPrivate TriggerKind = "private_message"
)

// AgentTrigger is a human message that may draw a reactive agent response.
type AgentTrigger struct {
	RoomID      uuid.UUID
	Kind        TriggerKind
	SenderID    uuid.UUID
	RecipientID uuid.UUID
	Message     string
}
