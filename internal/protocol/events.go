package protocol

import (
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
)

type ErrorData struct {
	Kind    domain.Kind `json:"kind"`
	Message string      `json:"message"`
	Command CommandType `json:"command,omitempty"`
}

type ConnectedData struct {
	RoomCode string    `json:"room_code"`
	UserID   uuid.UUID `json:"user_id"`
	Nickname string    `json:"nickname"`
}

type NoticeData struct {
	Message string `json:"message"`
}

type PlayerData struct {
	UserID   uuid.UUID `json:"user_id"`
	Nickname string    `json:"nickname"`
	IsAgent  bool      `json:"is_agent,omitempty"`
}

type HostChangedData struct {
	HostID   uuid.UUID `json:"host_id"`
	Nickname string    `json:"nickname"`
}

type ChatData struct {
	SenderID       uuid.UUID `json:"sender_id"`
	SenderNickname string    `json:"sender_nickname"`
	Message        string    `json:"message"`
}

type PrivateMessageData struct {
	SenderID       uuid.UUID `json:"sender_id"`
	SenderNickname string    `json:"sender_nickname"`
	RecipientID    uuid.UUID `json:"recipient_id"`
	Message        string    `json:"message"`
}

type PlayerActionData struct {
	UserID   uuid.UUID `json:"user_id"`
	Nickname string    `json:"nickname"`
	Action   string    `json:"action"`
}

type CharacterSelectedData struct {
	UserID        uuid.UUID `json:"user_id"`
	CharacterID   uuid.UUID `json:"character_id"`
	CharacterName string    `json:"character_name"`
}

type PlayerReadyData struct {
	UserID uuid.UUID `json:"user_id"`
	Ready  bool      `json:"ready"`
}

type PhaseChangedData struct {
	From domain.Phase `json:"from"`
	To   domain.Phase `json:"to"`
}

type StageChangedData struct {
	Stage            int    `json:"stage"`
	Name             string `json:"name"`
	OpeningNarrative string `json:"opening_narrative"`
}

type SearchResultData struct {
	ClueID       uuid.UUID `json:"clue_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	TargetUserID uuid.UUID `json:"target_user_id"`
	AttemptsLeft int       `json:"attempts_left"`
	Public       bool      `json:"public"`
}

type ClueDiscoveredData struct {
	SearcherID       uuid.UUID `json:"searcher_id"`
	SearcherNickname string    `json:"searcher_nickname"`
	TargetUserID     uuid.UUID `json:"target_user_id"`
	ClueID           uuid.UUID `json:"clue_id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
}

type AgentData struct {
	UserID    uuid.UUID `json:"user_id"`
	Nickname  string    `json:"nickname"`
	ProfileID uuid.UUID `json:"profile_id,omitempty"`
}

type SettingsData struct {
	Settings domain.Settings `json:"settings"`
}

type ScriptGenerationData struct {
	ScriptID *uuid.UUID `json:"script_id,omitempty"`
	Title    string     `json:"title,omitempty"`
	Message  string     `json:"message,omitempty"`
}

type GameStartedData struct {
	Stage     int       `json:"stage"`
	StartedAt time.Time `json:"started_at"`
}

type VoteStartedData struct {
	Stage  int `json:"stage"`
	Voters int `json:"voters"`
}
