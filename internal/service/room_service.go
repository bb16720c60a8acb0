package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
	"github.com/immxrtalbeast/mystery_room/internal/projection"
	"github.com/immxrtalbeast/mystery_room/internal/protocol"
	"github.com/immxrtalbeast/mystery_room/internal/repository"
	"github.com/immxrtalbeast/mystery_room/lib/logger/sl"
)

type Repositories struct {
	Rooms   repository.RoomRepository
	Users   repository.UserRepository
	Scripts repository.ScriptRepository
	Game    repository.GameRepository
	Agents  repository.AgentRepository
}

type Options struct {
	DefaultCapacity int
	MaxCapacity     int
}

type actor struct {
	roomID uuid.UUID
	userID uuid.UUID
}

type handler func(ctx context.Context, a actor, payload any) error

// RoomService owns every room mutation. Mutations of one room are serialized
// by a per-room lock that is released before anything is sent.
type RoomService struct {
	rooms     repository.RoomRepository
	users     repository.UserRepository
	scripts   repository.ScriptRepository
	game      repository.GameRepository
	agents    repository.AgentRepository
	events    Broadcaster
	generator Generator
	hooks     AgentHooks
	opts      Options
	log       *slog.Logger

	locks    *roomLocks
	handlers map[protocol.CommandType]handler

	root context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	genMu sync.Mutex
	gens  map[uuid.UUID]*genJob
}

func NewRoomService(repos Repositories, events Broadcaster, generator Generator, opts Options, log *slog.Logger) *RoomService {
	if log == nil {
		log = slog.Default()
	}
	if opts.DefaultCapacity <= 0 {
		opts.DefaultCapacity = domain.DefaultCapacity
	}
	if opts.MaxCapacity < opts.DefaultCapacity {
		opts.MaxCapacity = opts.DefaultCapacity
	}
	root, stop := context.WithCancel(context.Background())
	s := &RoomService{
		rooms:     repos.Rooms,
		users:     repos.Users,
		scripts:   repos.Scripts,
		game:      repos.Game,
		agents:    repos.Agents,
		events:    events,
		generator: generator,
		hooks:     nopHooks{},
		opts:      opts,
		log:       log,
		locks:     newRoomLocks(),
		root:      root,
		stop:      stop,
		gens:      make(map[uuid.UUID]*genJob),
	}
	s.handlers = s.routes()
	return s
}

// SetAgentHooks wires the agent scheduler after both sides exist.
func (s *RoomService) SetAgentHooks(h AgentHooks) {
	if h == nil {
		h = nopHooks{}
	}
	s.hooks = h
}

// Shutdown cancels background generation and waits for it.
func (s *RoomService) Shutdown() {
	s.stop()
	s.wg.Wait()
}

// Wait blocks until background work started so far has finished.
func (s *RoomService) Wait() {
	s.wg.Wait()
}

// Resume restores scheduler registrations and unsticks rooms interrupted
// mid-generation by a restart.
func (s *RoomService) Resume(ctx context.Context) error {
	const op = "service.room.Resume"
	log := s.log.With(slog.String("op", op))

	active, err := s.rooms.List(ctx, domain.PhaseInProgress, domain.PhaseSearching, domain.PhaseVoting)
	if err != nil {
		return err
	}
	for _, room := range active {
		s.hooks.RoomActivated(room.ID)
	}

	stuck, err := s.rooms.List(ctx, domain.PhaseGeneratingContent)
	if err != nil {
		return err
	}
	for _, room := range stuck {
		unlock := s.locks.lock(room.ID)
		room.Phase = domain.PhaseWaiting
		if err := s.rooms.Update(ctx, room); err != nil {
			log.Error("failed to revert interrupted generation", slog.String("room_id", room.ID.String()), sl.Err(err))
		}
		unlock()
	}

	log.Info("rooms resumed", slog.Int("active", len(active)), slog.Int("reverted", len(stuck)))
	return nil
}

// State loads a consistent view of roomID without taking the room lock.
func (s *RoomService) State(ctx context.Context, roomID uuid.UUID) (*domain.GameState, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	participants, err := s.rooms.ListParticipants(ctx, roomID)
	if err != nil {
		return nil, err
	}
	st := &domain.GameState{Room: room, Participants: participants}

	if room.HasScript() {
		script, err := s.scripts.GetByID(ctx, *room.ScriptID)
		if err != nil {
			return nil, err
		}
		st.Script = script
	}
	if room.Phase.Active() || room.Phase == domain.PhaseFinished {
		if st.Searches, err = s.game.ListSearches(ctx, roomID); err != nil {
			return nil, err
		}
		if st.Votes, err = s.game.ListVotes(ctx, roomID); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// mutate runs fn under the room lock against freshly loaded state. fn sees the
// acting participant and is expected to persist its own changes.
func (s *RoomService) mutate(ctx context.Context, a actor, fn func(st *domain.GameState, me *domain.Participant) error) error {
	unlock := s.locks.lock(a.roomID)
	defer unlock()

	st, err := s.State(ctx, a.roomID)
	if err != nil {
		return err
	}
	me := st.Participant(a.userID)
	if me == nil {
		return domain.ErrNotParticipant
	}
	return fn(st, me)
}

// Dispatch runs one decoded command on behalf of userID. Agents use it too.
func (s *RoomService) Dispatch(ctx context.Context, roomID, userID uuid.UUID, cmd *protocol.Command) error {
	if cmd == nil {
		return domain.ErrMalformedMessage
	}
	h, ok := s.handlers[cmd.Type]
	if !ok {
		return domain.ErrUnknownMessageType
	}
	return h(ctx, actor{roomID: roomID, userID: userID}, cmd.Payload)
}

// HandleFrame decodes a raw inbound frame, dispatches it and reports any
// rejection to the sender only.
func (s *RoomService) HandleFrame(ctx context.Context, roomID, userID uuid.UUID, raw []byte) {
	cmd, err := protocol.Decode(raw)
	if err != nil {
		s.Reject(userID, "", err)
		return
	}
	if err := s.Dispatch(ctx, roomID, userID, cmd); err != nil {
		s.Reject(userID, cmd.Type, err)
	}
}

// Reject unicasts an ERROR event to userID.
func (s *RoomService) Reject(userID uuid.UUID, cmd protocol.CommandType, err error) {
	kind := domain.KindOf(err)
	msg := err.Error()
	if kind == domain.KindInternal {
		s.log.Error("command failed",
			slog.String("user_id", userID.String()),
			slog.String("command", string(cmd)),
			sl.Err(err),
		)
		msg = "internal error"
	}
	s.unicast(userID, protocol.NewEvent(protocol.EvtError, protocol.ErrorData{
		Kind:    kind,
		Message: msg,
		Command: cmd,
	}))
}

func (s *RoomService) routes() map[protocol.CommandType]handler {
	return map[protocol.CommandType]handler{
		protocol.CmdChat:               typed(s.chat),
		protocol.CmdPrivateMessage:     typed(s.privateMessage),
		protocol.CmdPlayerAction:       typed(s.playerAction),
		protocol.CmdUpdateRoomSettings: typed(s.updateSettings),
		protocol.CmdGenerateScript:     typed(s.generateScript),
		protocol.CmdSelectCharacter:    typed(s.selectCharacter),
		protocol.CmdReady:              typed(s.setReady),
		protocol.CmdStartGame:          typed(s.startGame),
		protocol.CmdNextStage:          typed(s.nextStage),
		protocol.CmdSearchBegin:        typed(s.searchBegin),
		protocol.CmdSearchEnd:          typed(s.searchEnd),
		protocol.CmdSearchClue:         typed(s.searchClue),
		protocol.CmdStartVote:          typed(s.startVote),
		protocol.CmdGameVote:           typed(s.castVote),
		protocol.CmdEndVote:            typed(s.endVote),
		protocol.CmdAddAgent:           typed(s.addAgent),
		protocol.CmdRemoveAgent:        typed(s.removeAgent),
		protocol.CmdLeaveRoom:          typed(s.leaveRoom),
		protocol.CmdRequestStatus:      typed(s.requestStatus),
	}
}

// typed adapts a handler taking a concrete payload type.
func typed[T any](fn func(ctx context.Context, a actor, p *T) error) handler {
	return func(ctx context.Context, a actor, payload any) error {
		p, ok := payload.(*T)
		if !ok {
			return domain.ErrInvalidPayload
		}
		return fn(ctx, a, p)
	}
}

func (s *RoomService) unicast(userID uuid.UUID, msg protocol.Outbound) {
	if err := s.events.Unicast(userID, msg); err != nil {
		s.log.Warn("unicast failed",
			slog.String("user_id", userID.String()),
			slog.String("type", string(msg.Type)),
			sl.Err(err),
		)
	}
}

func (s *RoomService) broadcast(roomID uuid.UUID, t protocol.EventType, data any, exclude ...uuid.UUID) {
	s.events.Broadcast(roomID, protocol.NewEvent(t, data), exclude...)
}

func (s *RoomService) phaseChanged(roomID uuid.UUID, from, to domain.Phase) {
	s.broadcast(roomID, protocol.EvtPhaseChanged, protocol.PhaseChangedData{From: from, To: to})
}

// broadcastStatus sends every connected member its own projection of the
// current state.
func (s *RoomService) broadcastStatus(ctx context.Context, roomID uuid.UUID) {
	users := s.events.UsersIn(roomID)
	if len(users) == 0 {
		return
	}
	st, err := s.State(ctx, roomID)
	if err != nil {
		if !errors.Is(err, repository.ErrRoomNotFound) {
			s.log.Error("failed to load state for status", slog.String("room_id", roomID.String()), sl.Err(err))
		}
		return
	}
	online := s.events.Online(roomID)
	for _, userID := range users {
		if st.Participant(userID) == nil {
			continue
		}
		snap := projection.Project(projection.Input{State: st, Viewer: userID, Online: online})
		s.unicast(userID, protocol.NewEvent(protocol.EvtRoomStatus, snap))
	}
}

func (s *RoomService) sendStatus(ctx context.Context, roomID, userID uuid.UUID) error {
	st, err := s.State(ctx, roomID)
	if err != nil {
		return err
	}
	if st.Participant(userID) == nil {
		return domain.ErrNotParticipant
	}
	snap := projection.Project(projection.Input{State: st, Viewer: userID, Online: s.events.Online(roomID)})
	return s.events.Unicast(userID, protocol.NewEvent(protocol.EvtRoomStatus, snap))
}

func (s *RoomService) requestStatus(ctx context.Context, a actor, _ *protocol.EmptyPayload) error {
	return s.sendStatus(ctx, a.roomID, a.userID)
}

func (s *RoomService) appendLog(ctx context.Context, entry *domain.LogEntry) {
	if err := s.game.AppendLog(ctx, entry); err != nil {
		s.log.Error("failed to append log",
			slog.String("room_id", entry.RoomID.String()),
			slog.String("kind", string(entry.Kind)),
			sl.Err(err),
		)
	}
}

func requireHost(st *domain.GameState, me *domain.Participant) error {
	if !st.Room.IsHost(me.UserID) {
		return domain.ErrNotHost
	}
	return nil
}

var _ RoomInteractor = (*RoomService)(nil)
