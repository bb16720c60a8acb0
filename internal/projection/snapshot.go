package projection

import (
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
)

// Snapshot is the viewer-scoped room state. The concrete type depends on the phase.
type Snapshot interface {
	SnapshotPhase() domain.Phase
}

type RoomSummary struct {
	ID           uuid.UUID       `json:"id"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	Phase        domain.Phase    `json:"phase"`
	Capacity     int             `json:"capacity"`
	HostID       uuid.UUID       `json:"host_id"`
	Settings     domain.Settings `json:"settings"`
	CurrentStage int             `json:"current_stage"`
	StageCount   int             `json:"stage_count"`
	ScriptTitle  string          `json:"script_title,omitempty"`
	Description  string          `json:"script_description,omitempty"`
	Overview     string          `json:"overview,omitempty"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	FinishedAt   *time.Time      `json:"finished_at,omitempty"`
}

type PlayerView struct {
	UserID        uuid.UUID  `json:"user_id"`
	Nickname      string     `json:"nickname"`
	IsHost        bool       `json:"is_host"`
	IsOnline      bool       `json:"is_online"`
	IsReady       bool       `json:"is_ready"`
	IsAlive       bool       `json:"is_alive"`
	IsAgent       bool       `json:"is_agent"`
	CharacterID   *uuid.UUID `json:"character_id,omitempty"`
	CharacterName string     `json:"character_name,omitempty"`
}

type CharacterOption struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Gender     string     `json:"gender"`
	PublicInfo string     `json:"public_info"`
	SelectedBy *uuid.UUID `json:"selected_by,omitempty"`
}

type CharacterView struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Gender     string     `json:"gender"`
	PublicInfo string     `json:"public_info"`
	HolderID   *uuid.UUID `json:"holder_id,omitempty"`
	IsSelf     bool       `json:"is_self"`
}

// SelfCharacter is the viewer's own character including private fields.
type SelfCharacter struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Gender     string    `json:"gender"`
	PublicInfo string    `json:"public_info"`
	Backstory  string    `json:"backstory"`
	IsCulprit  bool      `json:"is_culprit"`
}

type GoalView struct {
	Description    string `json:"description"`
	Mandatory      bool   `json:"mandatory"`
	SearchAttempts int    `json:"search_attempts"`
}

type StageView struct {
	Number           int       `json:"number"`
	Name             string    `json:"name"`
	OpeningNarrative string    `json:"opening_narrative"`
	Goal             string    `json:"goal"`
	MyGoal           *GoalView `json:"my_goal,omitempty"`
}

type ClueSource string

const (
	SourceScript ClueSource = "script"
	SourceSearch ClueSource = "search"
)

type ClueView struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Location    string     `json:"location,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	Stage       int        `json:"stage"`
	IsPublic    bool       `json:"is_public"`
	Source      ClueSource `json:"source"`
}

// HiddenClue exposes only what a searcher may know before obtaining a clue.
type HiddenClue struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Stage    int       `json:"stage"`
	Location string    `json:"location,omitempty"`
}

type SearchTarget struct {
	UserID         uuid.UUID    `json:"user_id"`
	Nickname       string       `json:"nickname"`
	CharacterID    uuid.UUID    `json:"character_id"`
	CharacterName  string       `json:"character_name"`
	AvailableClues []HiddenClue `json:"available_clues"`
}

type SearchInfo struct {
	Targets      []SearchTarget `json:"targets"`
	Obtained     []ClueView     `json:"obtained"`
	AttemptsLeft int            `json:"attempts_left"`
}

type TimelineView struct {
	Order       int        `json:"order"`
	Description string     `json:"description"`
	CharacterID *uuid.UUID `json:"character_id,omitempty"`
	IsPublic    bool       `json:"is_public"`
	Truth       string     `json:"truth,omitempty"`
}

type VoteCount struct {
	UserID   uuid.UUID `json:"user_id"`
	Nickname string    `json:"nickname"`
	Count    int       `json:"vote_count"`
}

type VoteDetail struct {
	VoterID        uuid.UUID `json:"voter_id"`
	VoterNickname  string    `json:"voter_nickname"`
	TargetID       uuid.UUID `json:"target_id"`
	TargetNickname string    `json:"target_nickname"`
	CastAt         time.Time `json:"cast_at"`
}

type Tally struct {
	Counts     []VoteCount  `json:"vote_counts"`
	Details    []VoteDetail `json:"vote_details"`
	TotalVotes int          `json:"total_votes"`
	Voters     int          `json:"eligible_voters"`
	LeaderID   *uuid.UUID   `json:"leader_id,omitempty"`
}

type Outcome struct {
	AccusedID     *uuid.UUID `json:"accused_user_id,omitempty"`
	AccusedName   string     `json:"accused_nickname,omitempty"`
	CulpritID     *uuid.UUID `json:"culprit_user_id,omitempty"`
	CulpritName   string     `json:"culprit_character_name"`
	CulpritCaught bool       `json:"culprit_caught"`
}

type LobbySnapshot struct {
	Phase   domain.Phase `json:"phase"`
	Room    RoomSummary  `json:"room"`
	Players []PlayerView `json:"players"`
}

func (s *LobbySnapshot) SnapshotPhase() domain.Phase { return s.Phase }

type RoleSelectionSnapshot struct {
	Phase         domain.Phase      `json:"phase"`
	Room          RoomSummary       `json:"room"`
	Players       []PlayerView      `json:"players"`
	Characters    []CharacterOption `json:"characters"`
	MyCharacterID *uuid.UUID        `json:"my_character_id,omitempty"`
}

func (s *RoleSelectionSnapshot) SnapshotPhase() domain.Phase { return s.Phase }

type PlaySnapshot struct {
	Phase      domain.Phase    `json:"phase"`
	Room       RoomSummary     `json:"room"`
	Players    []PlayerView    `json:"players"`
	Me         *SelfCharacter  `json:"me,omitempty"`
	Characters []CharacterView `json:"characters"`
	Stages     []StageView     `json:"stages"`
	Clues      []ClueView      `json:"clues"`
	Timeline   []TimelineView  `json:"timeline"`
	Search     *SearchInfo     `json:"search,omitempty"`
}

func (s *PlaySnapshot) SnapshotPhase() domain.Phase { return s.Phase }

type VotingSnapshot struct {
	Phase      domain.Phase    `json:"phase"`
	Room       RoomSummary     `json:"room"`
	Players    []PlayerView    `json:"players"`
	Me         *SelfCharacter  `json:"me,omitempty"`
	Characters []CharacterView `json:"characters"`
	Tally      Tally           `json:"voting"`
	MyVote     *uuid.UUID      `json:"my_vote,omitempty"`
}

func (s *VotingSnapshot) SnapshotPhase() domain.Phase { return s.Phase }

type FinishedSnapshot struct {
	PlaySnapshot
	Tally    Tally   `json:"voting"`
	Solution string  `json:"solution"`
	Outcome  Outcome `json:"outcome"`
}

type DissolvedSnapshot struct {
	Phase domain.Phase `json:"phase"`
	Room  RoomSummary  `json:"room"`
}

func (s *DissolvedSnapshot) SnapshotPhase() domain.Phase { return s.Phase }
