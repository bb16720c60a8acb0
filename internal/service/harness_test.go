package service

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/mystery_room/internal/content"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
	"github.com/immxrtalbeast/mystery_room/internal/protocol"
	"github.com/immxrtalbeast/mystery_room/internal/repository"
	"github.com/immxrtalbeast/mystery_room/internal/ws"
	"github.com/stretchr/testify/require"
)

type frame struct {
	Type protocol.EventType `json:"type"`
	Data json.RawMessage    `json:"data"`
}

// recorder is a live connection that keeps every frame it was sent.
type recorder struct {
	mu     sync.Mutex
	frames []frame
	closed bool
}

func (r *recorder) Send(raw []byte) error {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	return nil
}

func (r *recorder) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

func (r *recorder) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *recorder) count(t protocol.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, f := range r.frames {
		if f.Type == t {
			n++
		}
	}
	return n
}

// last decodes the most recent frame of type t into out.
func (r *recorder) last(t *testing.T, typ protocol.EventType, out any) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.frames) - 1; i >= 0; i-- {
		if r.frames[i].Type == typ {
			require.NoError(t, json.Unmarshal(r.frames[i].Data, out))
			return
		}
	}
	t.Fatalf("no %s frame received", typ)
}

func (r *recorder) reset() {
	r.mu.Lock()
	r.frames = nil
	r.mu.Unlock()
}

type recordingHooks struct {
	mu          sync.Mutex
	activated   []uuid.UUID
	deactivated []uuid.UUID
	messages    []domain.AgentTrigger
}

func (h *recordingHooks) RoomActivated(roomID uuid.UUID) {
	h.mu.Lock()
	h.activated = append(h.activated, roomID)
	h.mu.Unlock()
}

func (h *recordingHooks) RoomDeactivated(roomID uuid.UUID) {
	h.mu.Lock()
	h.deactivated = append(h.deactivated, roomID)
	h.mu.Unlock()
}

func (h *recordingHooks) HumanMessage(trig domain.AgentTrigger) {
	h.mu.Lock()
	h.messages = append(h.messages, trig)
	h.mu.Unlock()
}

func (h *recordingHooks) snapshot() (activated, deactivated []uuid.UUID, messages []domain.AgentTrigger) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]uuid.UUID(nil), h.activated...),
		append([]uuid.UUID(nil), h.deactivated...),
		append([]domain.AgentTrigger(nil), h.messages...)
}

// scriptGenerator returns a fresh copy of the three character fixture.
type scriptGenerator struct {
	calls atomic.Int32
	seats atomic.Int32
	err   error
}

func (g *scriptGenerator) Generate(ctx context.Context, req content.Request) (*domain.Script, error) {
	g.calls.Add(1)
	g.seats.Store(int32(req.Seats))
	if g.err != nil {
		return nil, g.err
	}
	return fixtureScript(req.AuthorID), nil
}

// fixtureScript has characters Alice, Bob and the culprit Carol. Alice and
// Bob may search once in stage one.
func fixtureScript(author uuid.UUID) *domain.Script {
	alice := domain.Character{ID: uuid.New(), Name: "Alice"}
	bob := domain.Character{ID: uuid.New(), Name: "Bob"}
	carol := domain.Character{ID: uuid.New(), Name: "Carol", IsCulprit: true}
	owned := func(c domain.Character) *uuid.UUID {
		id := c.ID
		return &id
	}
	return &domain.Script{
		ID:          uuid.New(),
		AuthorID:    author,
		Title:       "Death at the Manor",
		PlayerCount: 3,
		Stages: []domain.Stage{
			{ID: uuid.New(), Number: 1, Name: "Arrival", OpeningNarrative: "The guests gather."},
			{ID: uuid.New(), Number: 2, Name: "Discovery", OpeningNarrative: "A body is found."},
		},
		Characters: []domain.Character{alice, bob, carol},
		Clues: []domain.Clue{
			{ID: uuid.New(), Name: "Guest list", Stage: 0, IsPublic: true},
			{ID: uuid.New(), Name: "Torn letter", Stage: 1, CharacterID: owned(alice)},
			{ID: uuid.New(), Name: "Muddy boots", Stage: 1, CharacterID: owned(bob)},
			{ID: uuid.New(), Name: "Bloody glove", Stage: 2, CharacterID: owned(carol)},
		},
		Goals: []domain.CharacterGoal{
			{ID: uuid.New(), CharacterID: alice.ID, Stage: 1, SearchAttempts: 1},
			{ID: uuid.New(), CharacterID: bob.ID, Stage: 1, SearchAttempts: 1},
			{ID: uuid.New(), CharacterID: carol.ID, Stage: 1, SearchAttempts: 0},
		},
	}
}

type harness struct {
	svc     *RoomService
	reg     *ws.Registry
	rooms   *repository.InMemoryRoomRepository
	users   *repository.InMemoryUserRepository
	scripts *repository.InMemoryScriptRepository
	agents  *repository.InMemoryAgentRepository
	hooks   *recordingHooks
	gen     *scriptGenerator
	conns   map[uuid.UUID]*recorder
}

func newHarness(t *testing.T) *harness {
	return newHarnessWith(t, nil)
}

// newHarnessWith builds the harness around gen; wrap may swap repositories
// before the service is built.
func newHarnessWith(t *testing.T, gen Generator, wrap ...func(*Repositories)) *harness {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := &harness{
		reg:     ws.NewRegistry(log),
		rooms:   repository.NewInMemoryRoomRepository(),
		users:   repository.NewInMemoryUserRepository(),
		scripts: repository.NewInMemoryScriptRepository(),
		agents:  repository.NewInMemoryAgentRepository(),
		hooks:   &recordingHooks{},
		gen:     &scriptGenerator{},
		conns:   make(map[uuid.UUID]*recorder),
	}
	if gen == nil {
		gen = h.gen
	}
	repos := Repositories{
		Rooms:   h.rooms,
		Users:   h.users,
		Scripts: h.scripts,
		Game:    repository.NewInMemoryGameRepository(h.scripts),
		Agents:  h.agents,
	}
	for _, w := range wrap {
		w(&repos)
	}
	h.svc = NewRoomService(repos, h.reg, gen, Options{DefaultCapacity: 3, MaxCapacity: 6}, log)
	h.svc.SetAgentHooks(h.hooks)
	t.Cleanup(h.svc.Shutdown)
	return h
}

func (h *harness) user(t *testing.T, nickname string) *domain.User {
	t.Helper()
	u := domain.NewUser(nickname)
	require.NoError(t, h.users.Create(context.Background(), u))
	return u
}

func (h *harness) connect(roomID, userID uuid.UUID) *recorder {
	rec := &recorder{}
	h.reg.Register(roomID, userID, rec)
	h.conns[userID] = rec
	return rec
}

func (h *harness) send(t *testing.T, roomID, userID uuid.UUID, typ protocol.CommandType, payload any) error {
	t.Helper()
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		raw = b
	}
	cmd, err := protocol.Build(typ, raw)
	require.NoError(t, err)
	return h.svc.Dispatch(context.Background(), roomID, userID, cmd)
}

func (h *harness) state(t *testing.T, roomID uuid.UUID) *domain.GameState {
	t.Helper()
	st, err := h.svc.State(context.Background(), roomID)
	require.NoError(t, err)
	return st
}

var completeSettings = map[string]any{
	"theme":          "Victorian manor",
	"difficulty":     "medium",
	"dm_personality": "dry",
	"duration_mins":  60,
	"special_rules":  "none",
}

// table seats a host and two guests, all connected, in a waiting room.
type table struct {
	room    *domain.Room
	host    *domain.User
	players []*domain.User
}

func (tb table) everyone() []*domain.User {
	return append([]*domain.User{tb.host}, tb.players...)
}

func (h *harness) openTable(t *testing.T, guests int) table {
	t.Helper()
	ctx := context.Background()
	host := h.user(t, "host")
	room, err := h.svc.CreateRoom(ctx, CreateRoomInput{HostID: host.ID, Name: "manor", Capacity: 3})
	require.NoError(t, err)
	h.connect(room.ID, host.ID)

	tb := table{room: room, host: host}
	for i := 0; i < guests; i++ {
		u := h.user(t, "guest"+string(rune('A'+i)))
		_, err := h.svc.JoinRoom(ctx, room.Code, u.ID, "")
		require.NoError(t, err)
		h.connect(room.ID, u.ID)
		tb.players = append(tb.players, u)
	}
	return tb
}

// generated drives the table to SelectingRole with the fixture script bound.
func (h *harness) generated(t *testing.T, tb table) *domain.Script {
	t.Helper()
	require.NoError(t, h.send(t, tb.room.ID, tb.host.ID, protocol.CmdUpdateRoomSettings, completeSettings))
	require.NoError(t, h.send(t, tb.room.ID, tb.host.ID, protocol.CmdGenerateScript, nil))
	h.svc.Wait()

	st := h.state(t, tb.room.ID)
	require.Equal(t, domain.PhaseSelectingRole, st.Room.Phase)
	require.NotNil(t, st.Script)
	return st.Script
}

// seated picks characters in script order and readies every human.
func (h *harness) seated(t *testing.T, tb table, script *domain.Script) {
	t.Helper()
	for i, u := range tb.everyone() {
		require.NoError(t, h.send(t, tb.room.ID, u.ID, protocol.CmdSelectCharacter,
			map[string]any{"character_id": script.Characters[i].ID}))
		require.NoError(t, h.send(t, tb.room.ID, u.ID, protocol.CmdReady, map[string]any{"ready": true}))
	}
}

// started returns a table in stage one of InProgress.
func (h *harness) started(t *testing.T) (table, *domain.Script) {
	t.Helper()
	tb := h.openTable(t, 2)
	script := h.generated(t, tb)
	h.seated(t, tb, script)
	require.NoError(t, h.send(t, tb.room.ID, tb.host.ID, protocol.CmdStartGame, nil))
	return tb, script
}

func clueNamed(t *testing.T, script *domain.Script, name string) domain.Clue {
	t.Helper()
	for _, c := range script.Clues {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("clue %q not in script", name)
	return domain.Clue{}
}
