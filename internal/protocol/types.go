package protocol

// CommandType enumerates every inbound message a client may send.
type CommandType string

const (
	CmdChat               CommandType = "CHAT"
	CmdPrivateMessage     CommandType = "PRIVATE_MESSAGE"
	CmdPlayerAction       CommandType = "PLAYER_ACTION"
	CmdUpdateRoomSettings CommandType = "UPDATE_ROOM_SETTINGS"
	CmdGenerateScript     CommandType = "GENERATE_SCRIPT"
	CmdSelectCharacter    CommandType = "SELECT_CHARACTER"
	CmdReady              CommandType = "READY"
	CmdStartGame          CommandType = "START_GAME"
	CmdNextStage          CommandType = "NEXT_STAGE"
	CmdSearchBegin        CommandType = "SEARCH_BEGIN"
	CmdSearchEnd          CommandType = "SEARCH_END"
	CmdSearchClue         CommandType = "SEARCH_CLUE"
	CmdStartVote          CommandType = "START_VOTE"
	CmdGameVote           CommandType = "GAME_VOTE"
	CmdEndVote            CommandType = "END_VOTE"
	CmdAddAgent           CommandType = "ADD_AGENT"
	CmdRemoveAgent        CommandType = "REMOVE_AGENT"
	CmdLeaveRoom          CommandType = "LEAVE_ROOM"
	CmdRequestStatus      CommandType = "REQUEST_STATUS"
)

// EventType enumerates every outbound notification.
type EventType string

const (
	EvtConnected               EventType = "CONNECTED"
	EvtError                   EventType = "ERROR"
	EvtRoomStatus              EventType = "ROOM_STATUS"
	EvtRoomSettingsUpdated     EventType = "ROOM_SETTINGS_UPDATED"
	EvtPlayerJoined            EventType = "PLAYER_JOINED"
	EvtPlayerLeft              EventType = "PLAYER_LEFT"
	EvtPlayerOnline            EventType = "PLAYER_ONLINE"
	EvtPlayerOffline           EventType = "PLAYER_OFFLINE"
	EvtHostChanged             EventType = "HOST_CHANGED"
	EvtRoomDissolved           EventType = "ROOM_DISSOLVED"
	EvtChat                    EventType = "CHAT"
	EvtPrivateMessage          EventType = "PRIVATE_MESSAGE"
	EvtPlayerAction            EventType = "PLAYER_ACTION"
	EvtCharacterSelected       EventType = "CHARACTER_SELECTED"
	EvtPlayerReady             EventType = "PLAYER_READY"
	EvtAllReady                EventType = "ALL_READY"
	EvtGameStarted             EventType = "GAME_STARTED"
	EvtPhaseChanged            EventType = "PHASE_CHANGED"
	EvtStageChanged            EventType = "STAGE_CHANGED"
	EvtSearchResult            EventType = "SEARCH_RESULT"
	EvtClueDiscovered          EventType = "CLUE_DISCOVERED"
	EvtVoteStarted             EventType = "VOTE_STARTED"
	EvtVoteUpdated             EventType = "VOTE_UPDATED"
	EvtVoteEnded               EventType = "VOTE_ENDED"
	EvtScriptGenerationStarted EventType = "SCRIPT_GENERATION_STARTED"
	EvtScriptGenerationDone    EventType = "SCRIPT_GENERATION_COMPLETED"
	EvtScriptGenerationFailed  EventType = "SCRIPT_GENERATION_FAILED"
	EvtAgentAdded              EventType = "AGENT_ADDED"
	EvtAgentRemoved            EventType = "AGENT_REMOVED"
)
