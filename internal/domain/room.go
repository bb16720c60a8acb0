package domain

import (
	"time"

	"github.com/google/uuid"
)

// Phase is the authoritative status of a room.
type Phase string

const (
	PhaseWaiting           Phase = "waiting"
	PhaseGeneratingContent Phase = "generating_content"
	PhaseSelectingRole     Phase = "selecting_role"
	PhaseInProgress        Phase = "in_progress"
	PhaseSearching         Phase = "searching"
	PhaseVoting            Phase = "voting"
	PhaseFinished          Phase = "finished"
	PhaseDissolved         Phase = "dissolved"
)

// InPlay reports whether stages and clues are visible in this phase.
func (p Phase) InPlay() bool {
	return p == PhaseInProgress || p == PhaseSearching
}

// Lobby reports whether the room is still being assembled.
func (p Phase) Lobby() bool {
	return p == PhaseWaiting || p == PhaseGeneratingContent || p == PhaseSelectingRole
}

// Active reports whether autonomous agents may act in this phase.
func (p Phase) Active() bool {
	return p.InPlay() || p == PhaseVoting
}

const (
	DefaultCapacity = 3
	codeLength      = 6
	codeAlphabet    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Settings are host-chosen generation parameters.
type Settings struct {
	Theme         string `json:"theme,omitempty"`
	Difficulty    string `json:"difficulty,omitempty"`
	DMPersonality string `json:"dm_personality,omitempty"`
	DurationMins  int    `json:"duration_mins,omitempty"`
	SpecialRules  string `json:"special_rules,omitempty"`
}

// Complete reports whether every field needed for content generation is set.
func (s Settings) Complete() bool {
	return s.Theme != "" &&
		s.Difficulty != "" &&
		s.DMPersonality != "" &&
		s.DurationMins > 0 &&
		s.SpecialRules != ""
}

// SettingsPatch carries a partial settings update; nil fields are left untouched.
type SettingsPatch struct {
	Theme         *string
	Difficulty    *string
	DMPersonality *string
	DurationMins  *int
	SpecialRules  *string
}

func (s Settings) Merge(p SettingsPatch) Settings {
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.Difficulty != nil {
		s.Difficulty = *p.Difficulty
	}
	if p.DMPersonality != nil {
		s.DMPersonality = *p.DMPersonality
	}
	if p.DurationMins != nil {
		s.DurationMins = *p.DurationMins
	}
	if p.SpecialRules != nil {
		s.SpecialRules = *p.SpecialRules
	}
	return s
}

// Room is one play session.
type Room struct {
	ID           uuid.UUID
	Code         string
	Name         string
	Password     string
	Capacity     int
	Phase        Phase
	HostID       uuid.UUID
	ScriptID     *uuid.UUID
	CurrentStage int
	Settings     Settings
	CreatedAt    time.Time
	UpdatedAt    time.Time
	StartedAt    *time.Time
	FinishedAt   *time.Time
}

// NewRoom constructs a waiting room owned by host.
func NewRoom(name string, host uuid.UUID, capacity int) *Room {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	now := time.Now().UTC()
	return &Room{
		ID:        uuid.New(),
		Code:      GenerateCode(),
		Name:      name,
		Capacity:  capacity,
		Phase:     PhaseWaiting,
		HostID:    host,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (r *Room) IsHost(userID uuid.UUID) bool {
	return r != nil && r.HostID == userID
}

func (r *Room) HasScript() bool {
	return r.ScriptID != nil && *r.ScriptID != uuid.Nil
}

// GenerateCode returns a join code drawn from an alphabet without look-alike glyphs.
func GenerateCode() string {
	raw := uuid.New()
	// the tail bytes of a v4 uuid carry no version or variant bits
	tail := raw[len(raw)-codeLength:]
	code := make([]byte, codeLength)
	for i := range code {
		code[i] = codeAlphabet[int(tail[i])%len(codeAlphabet)]
	}
	return string(code)
}
