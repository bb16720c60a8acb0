package domain

import "errors"

type Kind string

const (
	KindValidation      Kind = "validation"
	KindAuthorization   Kind = "authorization"
	KindPrecondition    Kind = "precondition"
	KindExternalService Kind = "external_service"
	KindTransport       Kind = "transport"
	KindInternal        Kind = "internal"
)

// Error is a classified gameplay error. Sentinels below are compared with errors.Is.
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// KindOf classifies err; unclassified errors are internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

var (
	ErrUnknownMessageType = newError(KindValidation, "unknown message type")
	ErrMalformedMessage   = newError(KindValidation, "malformed message")
	ErrInvalidPayload     = newError(KindValidation, "invalid message payload")
	ErrRateLimited        = newError(KindValidation, "too many messages")
)

var (
	ErrNotHost        = newError(KindAuthorization, "only the host can do this")
	ErrNotParticipant = newError(KindAuthorization, "user is not a participant of this room")
	ErrInvalidToken   = newError(KindAuthorization, "invalid or expired token")
)

var (
	ErrRoomNotFound    = newError(KindPrecondition, "room not found")
	ErrRoomFull        = newError(KindPrecondition, "room is full")
	ErrWrongPassword   = newError(KindPrecondition, "wrong room password")
	ErrRoomNotJoinable = newError(KindPrecondition, "room is not accepting new participants")
	ErrUserNotFound    = newError(KindPrecondition, "user not found")

	ErrNotInWaiting       = newError(KindPrecondition, "room is not in waiting")
	ErrNotSelectingRole   = newError(KindPrecondition, "room is not selecting roles")
	ErrNotInProgress      = newError(KindPrecondition, "game is not in progress")
	ErrNotSearching       = newError(KindPrecondition, "room is not searching")
	ErrNotVoting          = newError(KindPrecondition, "room is not voting")
	ErrWrongPhase         = newError(KindPrecondition, "action not allowed in the current phase")
	ErrSettingsIncomplete = newError(KindPrecondition, "room settings are incomplete")
	ErrScriptAlreadyBound = newError(KindPrecondition, "room already has a script")
	ErrNoScript           = newError(KindPrecondition, "room has no script")

	ErrCharacterNotFound = newError(KindPrecondition, "character not found")
	ErrCharacterTaken    = newError(KindPrecondition, "character already taken")
	ErrPlayersNotReady   = newError(KindPrecondition, "not every player is ready with a character")

	ErrNoCharacter        = newError(KindPrecondition, "you have no character")
	ErrClueNotFound       = newError(KindPrecondition, "clue not found")
	ErrClueNotAvailable   = newError(KindPrecondition, "clue is not available at this stage")
	ErrAlreadySearched    = newError(KindPrecondition, "already searched")
	ErrNoSearchAttempts   = newError(KindPrecondition, "no search attempts left")
	ErrClueHolderNotFound = newError(KindPrecondition, "nobody holds the character owning this clue")
	ErrOwnClue            = newError(KindPrecondition, "clue already belongs to you")

	ErrVoterNotAlive        = newError(KindPrecondition, "voter has no living character")
	ErrVoteSelf             = newError(KindPrecondition, "cannot vote for yourself")
	ErrTargetNotParticipant = newError(KindPrecondition, "vote target is not in this room")
	ErrRedundantVote        = newError(KindPrecondition, "already voted for this player")

	ErrRecipientNotFound    = newError(KindPrecondition, "recipient is not in this room")
	ErrAgentProfileNotFound = newError(KindPrecondition, "agent profile not found")
	ErrAgentNotFound        = newError(KindPrecondition, "agent not found in this room")
)

var (
	ErrGenerationFailed = newError(KindExternalService, "script generation failed")
	ErrInvalidScript    = newError(KindExternalService, "generated script is invalid")
)

var (
	ErrSendBufferFull = newError(KindTransport, "send buffer full")
	ErrChannelClosed  = newError(KindTransport, "channel closed")
)
