package protocol

import (
	"strings"

	"github.com/google/uuid"
)

type trimmer interface {
	trim()
}

type ChatPayload struct {
	Message string `json:"message" validate:"required,max=1000"`
}

func (p *ChatPayload) trim() { p.Message = strings.TrimSpace(p.Message) }

type PrivateMessagePayload struct {
	RecipientID uuid.UUID `json:"recipient_id" validate:"required"`
	Message     string    `json:"message" validate:"required,max=1000"`
}

func (p *PrivateMessagePayload) trim() { p.Message = strings.TrimSpace(p.Message) }

type PlayerActionPayload struct {
	Action string `json:"action" validate:"required,max=500"`
}

func (p *PlayerActionPayload) trim() { p.Action = strings.TrimSpace(p.Action) }

type UpdateRoomSettingsPayload struct {
	Theme         *string `json:"theme" validate:"omitempty,max=100"`
	Difficulty    *string `json:"difficulty" validate:"omitempty,max=32"`
	DMPersonality *string `json:"dm_personality" validate:"omitempty,max=100"`
	DurationMins  *int    `json:"duration_mins" validate:"omitempty,min=1,max=480"`
	SpecialRules  *string `json:"special_rules" validate:"omitempty,max=500"`
}

type SelectCharacterPayload struct {
	CharacterID uuid.UUID `json:"character_id" validate:"required"`
}

type ReadyPayload struct {
	Ready *bool `json:"ready" validate:"required"`
}

type SearchCluePayload struct {
	ClueID uuid.UUID `json:"clue_id" validate:"required"`
	Public bool      `json:"public"`
}

type GameVotePayload struct {
	TargetUserID uuid.UUID `json:"target_user_id" validate:"required"`
}

type AddAgentPayload struct {
	ProfileID uuid.UUID `json:"profile_id" validate:"required"`
}

type RemoveAgentPayload struct {
	UserID uuid.UUID `json:"user_id" validate:"required"`
}

// EmptyPayload is the schema of commands that carry no data.
type EmptyPayload struct{}
