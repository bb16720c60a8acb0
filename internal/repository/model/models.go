package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Nickname  string    `gorm:"size:64;not null"`
	IsGuest   bool      `gorm:"not null"`
	IsAgent   bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type Room struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Code         string         `gorm:"size:16;uniqueIndex;not null"`
	Name         string         `gorm:"size:255;not null"`
	Password     string         `gorm:"size:64"`
	Capacity     int            `gorm:"not null"`
	Phase        string         `gorm:"size:32;index;not null"`
	HostID       uuid.UUID      `gorm:"type:uuid;not null"`
	ScriptID     *uuid.UUID     `gorm:"type:uuid"`
	CurrentStage int            `gorm:"not null;default:0"`
	Settings     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time      `gorm:"not null"`
	UpdatedAt    time.Time      `gorm:"not null"`
	StartedAt    *time.Time
	FinishedAt   *time.Time

	Participants []Participant      `gorm:"constraint:OnDelete:CASCADE"`
	Searches     []SearchAction     `gorm:"constraint:OnDelete:CASCADE"`
	Votes        []Vote             `gorm:"constraint:OnDelete:CASCADE"`
	Logs         []GameLog          `gorm:"constraint:OnDelete:CASCADE"`
	Interactions []AgentInteraction `gorm:"constraint:OnDelete:CASCADE"`
}

type Participant struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	RoomID         uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_participant_room_user;uniqueIndex:idx_participant_room_character"`
	UserID         uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_participant_room_user"`
	Nickname       string     `gorm:"size:64;not null"`
	CharacterID    *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_participant_room_character"`
	Ready          bool       `gorm:"not null"`
	Alive          bool       `gorm:"not null"`
	IsAgent        bool       `gorm:"not null"`
	AgentProfileID *uuid.UUID `gorm:"type:uuid"`
	JoinedAt       time.Time  `gorm:"not null"`
}

type Script struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	AuthorID     uuid.UUID `gorm:"type:uuid;index;not null"`
	Title        string    `gorm:"size:255;not null"`
	Description  string    `gorm:"type:text"`
	Overview     string    `gorm:"type:text"`
	Difficulty   string    `gorm:"size:32"`
	Tags         string    `gorm:"size:255"`
	PlayerCount  int       `gorm:"not null"`
	DurationMins int       `gorm:"not null"`
	Solution     string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"not null"`

	Stages     []ScriptStage     `gorm:"constraint:OnDelete:CASCADE"`
	Characters []ScriptCharacter `gorm:"constraint:OnDelete:CASCADE"`
	Goals      []CharacterGoal   `gorm:"constraint:OnDelete:CASCADE"`
	Clues      []ScriptClue      `gorm:"constraint:OnDelete:CASCADE"`
	Timeline   []TimelineEvent   `gorm:"constraint:OnDelete:CASCADE"`
}

type ScriptStage struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	ScriptID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stage_script_number"`
	Number           int       `gorm:"not null;uniqueIndex:idx_stage_script_number"`
	Name             string    `gorm:"size:255;not null"`
	OpeningNarrative string    `gorm:"type:text"`
	Goal             string    `gorm:"type:text"`
}

type ScriptCharacter struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	ScriptID   uuid.UUID `gorm:"type:uuid;index;not null"`
	Name       string    `gorm:"size:128;not null"`
	Gender     string    `gorm:"size:16"`
	IsCulprit  bool      `gorm:"not null"`
	Backstory  string    `gorm:"type:text"`
	PublicInfo string    `gorm:"type:text"`
}

type CharacterGoal struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	ScriptID       uuid.UUID `gorm:"type:uuid;index;not null"`
	CharacterID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_goal_character_stage"`
	Stage          int       `gorm:"not null;uniqueIndex:idx_goal_character_stage"`
	Description    string    `gorm:"type:text"`
	Mandatory      bool      `gorm:"not null"`
	SearchAttempts int       `gorm:"not null;check:search_attempts >= 0"`
}

type ScriptClue struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ScriptID    uuid.UUID  `gorm:"type:uuid;index;not null"`
	Name        string     `gorm:"size:255;not null"`
	Description string     `gorm:"type:text"`
	ImageURL    string     `gorm:"size:512"`
	Location    string     `gorm:"size:255"`
	Stage       int        `gorm:"not null;default:0"`
	IsPublic    bool       `gorm:"not null"`
	CharacterID *uuid.UUID `gorm:"type:uuid;index"`
}

type TimelineEvent struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ScriptID    uuid.UUID  `gorm:"type:uuid;index;not null"`
	Position    int        `gorm:"not null"`
	CharacterID *uuid.UUID `gorm:"type:uuid"`
	Description string     `gorm:"type:text"`
	Truth       string     `gorm:"type:text"`
	IsPublic    bool       `gorm:"not null"`
}

type SearchAction struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	RoomID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_search_room_searcher_clue"`
	SearcherID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_search_room_searcher_clue"`
	ClueID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_search_room_searcher_clue"`
	TargetID   uuid.UUID `gorm:"type:uuid;not null"`
	Stage      int       `gorm:"not null"`
	IsPublic   bool      `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

type Vote struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	RoomID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_vote_room_voter"`
	VoterID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_vote_room_voter"`
	TargetID uuid.UUID `gorm:"type:uuid;not null"`
	Stage    int       `gorm:"not null"`
	CastAt   time.Time `gorm:"not null"`
}

type GameLog struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	RoomID      uuid.UUID  `gorm:"type:uuid;index;not null"`
	Kind        string     `gorm:"size:32;not null"`
	SenderID    *uuid.UUID `gorm:"type:uuid"`
	RecipientID *uuid.UUID `gorm:"type:uuid"`
	ClueID      *uuid.UUID `gorm:"type:uuid"`
	Stage       int        `gorm:"not null;default:0"`
	Message     string     `gorm:"type:text"`
	CreatedAt   time.Time  `gorm:"index;not null"`
}

type AgentProfile struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name               string    `gorm:"size:64;not null"`
	Persona            string    `gorm:"type:text"`
	RespondProbability float64   `gorm:"not null"`
	ResponseInterval   int64     `gorm:"not null"`
	CreatedAt          time.Time `gorm:"not null"`
}

type AgentInteraction struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey"`
	RoomID        uuid.UUID      `gorm:"type:uuid;not null;index:idx_interaction_room_agent"`
	AgentID       uuid.UUID      `gorm:"type:uuid;not null;index:idx_interaction_room_agent"`
	TriggerUserID *uuid.UUID     `gorm:"type:uuid"`
	Kind          string         `gorm:"size:64;not null"`
	Context       datatypes.JSON `gorm:"type:jsonb"`
	Response      string         `gorm:"type:text"`
	CreatedAt     time.Time      `gorm:"index:idx_interaction_room_agent;not null"`
}

// All lists every table for AutoMigrate.
func All() []any {
	return []any{
		&User{}, &Room{}, &Participant{},
		&Script{}, &ScriptStage{}, &ScriptCharacter{}, &CharacterGoal{}, &ScriptClue{}, &TimelineEvent{},
		&SearchAction{}, &Vote{}, &GameLog{},
		&AgentProfile{}, &AgentInteraction{},
	}
}
