package agent

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
	"github.com/immxrtalbeast/mystery_room/internal/protocol"
	"github.com/immxrtalbeast/mystery_room/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type dispatched struct {
	userID uuid.UUID
	cmd    *protocol.Command
}

type fakeGame struct {
	mu    sync.Mutex
	state *domain.GameState
	sent  []dispatched
}

func (g *fakeGame) State(context.Context, uuid.UUID) (*domain.GameState, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state, nil
}

func (g *fakeGame) Dispatch(_ context.Context, _ uuid.UUID, userID uuid.UUID, cmd *protocol.Command) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, dispatched{userID: userID, cmd: cmd})
	return nil
}

func (g *fakeGame) commands() []dispatched {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]dispatched(nil), g.sent...)
}

type fixture struct {
	game    *fakeGame
	repo    *repository.InMemoryAgentRepository
	sched   *Scheduler
	agent   *domain.Participant
	human   *domain.Participant
	profile *domain.AgentProfile
	now     time.Time
}

func newFixture(t *testing.T, phase domain.Phase, probability float64) *fixture {
	t.Helper()

	repo := repository.NewInMemoryAgentRepository()
	profile := domain.NewAgentProfile("Watson", "curious doctor", probability, time.Minute)
	require.NoError(t, repo.CreateProfile(context.Background(), profile))

	room := domain.NewRoom("r", uuid.New(), 3)
	room.Phase = phase
	room.CurrentStage = 1

	culprit := domain.Character{ID: uuid.New(), Name: "Moriarty", IsCulprit: true}
	doctor := domain.Character{ID: uuid.New(), Name: "Watson"}
	clueID := uuid.New()
	script := &domain.Script{
		Stages:     []domain.Stage{{Number: 1, Name: "One"}},
		Characters: []domain.Character{culprit, doctor},
		Clues:      []domain.Clue{{ID: clueID, Name: "letter", Stage: 1, CharacterID: &culprit.ID}},
		Goals:      []domain.CharacterGoal{{ID: uuid.New(), CharacterID: doctor.ID, Stage: 1, SearchAttempts: 1}},
	}

	humanUser := domain.NewUser("holmes")
	human := domain.NewParticipant(room.ID, humanUser)
	human.CharacterID = &culprit.ID
	agentUser := domain.NewAgentUser(profile)
	agent := domain.NewAgentParticipant(room.ID, agentUser, profile)
	agent.CharacterID = &doctor.ID

	game := &fakeGame{state: &domain.GameState{
		Room:         room,
		Participants: []*domain.Participant{human, agent},
		Script:       script,
	}}

	f := &fixture{game: game, repo: repo, agent: agent, human: human, profile: profile, now: time.Now()}
	f.sched = NewScheduler(
		Config{TickInterval: time.Hour},
		game,
		repo,
		NewMemoryClaimer(),
		CannedSpeaker{},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithClock(func() time.Time { return f.now }),
		WithRandom(func() float64 { return 0.5 }, func(int) int { return 0 }),
	)
	f.sched.RoomActivated(room.ID)
	return f
}

func TestTickRemarksInProgress(t *testing.T) {
	f := newFixture(t, domain.PhaseInProgress, 0)

	f.sched.Tick()

	sent := f.game.commands()
	require.Len(t, sent, 1)
	assert.Equal(t, f.agent.UserID, sent[0].userID)
	assert.Equal(t, protocol.CmdChat, sent[0].cmd.Type)
	assert.NotEmpty(t, sent[0].cmd.Payload.(*protocol.ChatPayload).Message)

	recorded := f.repo.Interactions(f.agent.UserID)
	require.Len(t, recorded, 1)
	assert.Equal(t, string(IntentRemark), recorded[0].Kind)
}

func TestTickRespectsInterval(t *testing.T) {
	f := newFixture(t, domain.PhaseInProgress, 0)

	f.sched.Tick()
	f.now = f.now.Add(30 * time.Second)
	f.sched.Tick()
	assert.Len(t, f.game.commands(), 1)

	f.now = f.now.Add(time.Minute)
	f.sched.Tick()
	assert.Len(t, f.game.commands(), 2)
}

func TestConcurrentTicksActOnce(t *testing.T) {
	f := newFixture(t, domain.PhaseInProgress, 0)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.sched.Tick()
		}()
	}
	wg.Wait()

	assert.Len(t, f.game.commands(), 1)
	assert.Len(t, f.repo.Interactions(f.agent.UserID), 1)
}

func TestTickSearchesInSearching(t *testing.T) {
	f := newFixture(t, domain.PhaseSearching, 0)

	f.sched.Tick()

	sent := f.game.commands()
	require.Len(t, sent, 1)
	assert.Equal(t, protocol.CmdSearchClue, sent[0].cmd.Type)
	assert.Equal(t, f.game.state.Script.Clues[0].ID, sent[0].cmd.Payload.(*protocol.SearchCluePayload).ClueID)
}

func TestTickSkipsSearchWithoutAttempts(t *testing.T) {
	f := newFixture(t, domain.PhaseSearching, 0)
	f.game.state.Script.Goals[0].SearchAttempts = 0

	f.sched.Tick()

	assert.Empty(t, f.game.commands())
	assert.Empty(t, f.repo.Interactions(f.agent.UserID))
}

func TestTickVotesOnce(t *testing.T) {
	f := newFixture(t, domain.PhaseVoting, 0)

	f.sched.Tick()
	sent := f.game.commands()
	require.Len(t, sent, 1)
	assert.Equal(t, protocol.CmdGameVote, sent[0].cmd.Type)
	assert.Equal(t, f.human.UserID, sent[0].cmd.Payload.(*protocol.GameVotePayload).TargetUserID)

	f.game.state.Votes = []*domain.Vote{{VoterID: f.agent.UserID, TargetID: f.human.UserID}}
	f.now = f.now.Add(time.Hour)
	f.sched.Tick()
	assert.Len(t, f.game.commands(), 1)
}

func TestPrivateMessageAlwaysAnswered(t *testing.T) {
	f := newFixture(t, domain.PhaseInProgress, 0)

	f.sched.HumanMessage(domain.AgentTrigger{
		RoomID:      f.game.state.Room.ID,
		Kind:        domain.TriggerPrivate,
		SenderID:    f.human.UserID,
		RecipientID: f.agent.UserID,
		Message:     "where were you?",
	})
	f.sched.Wait()

	sent := f.game.commands()
	require.Len(t, sent, 1)
	assert.Equal(t, protocol.CmdPrivateMessage, sent[0].cmd.Type)
	assert.Equal(t, f.human.UserID, sent[0].cmd.Payload.(*protocol.PrivateMessagePayload).RecipientID)

	recorded := f.repo.Interactions(f.agent.UserID)
	require.Len(t, recorded, 1)
	require.NotNil(t, recorded[0].TriggerUserID)
	assert.Equal(t, f.human.UserID, *recorded[0].TriggerUserID)
}

func TestPublicChatUsesProbability(t *testing.T) {
	quiet := newFixture(t, domain.PhaseInProgress, 0.1)
	quiet.sched.HumanMessage(domain.AgentTrigger{RoomID: quiet.game.state.Room.ID, Kind: domain.TriggerChat, SenderID: quiet.human.UserID, Message: "hi"})
	quiet.sched.Wait()
	assert.Empty(t, quiet.game.commands())

	chatty := newFixture(t, domain.PhaseInProgress, 0.9)
	chatty.sched.HumanMessage(domain.AgentTrigger{RoomID: chatty.game.state.Room.ID, Kind: domain.TriggerChat, SenderID: chatty.human.UserID, Message: "hi"})
	chatty.sched.Wait()
	require.Len(t, chatty.game.commands(), 1)
	assert.Equal(t, protocol.CmdChat, chatty.game.commands()[0].cmd.Type)
}

func TestDeactivatedRoomIsIgnored(t *testing.T) {
	f := newFixture(t, domain.PhaseInProgress, 1)
	f.sched.RoomDeactivated(f.game.state.Room.ID)

	f.sched.Tick()
	f.sched.HumanMessage(domain.AgentTrigger{RoomID: f.game.state.Room.ID, Kind: domain.TriggerChat, SenderID: f.human.UserID})
	f.sched.Wait()

	assert.Empty(t, f.game.commands())
	assert.False(t, f.sched.Active(f.game.state.Room.ID))
}

type manualTicker struct{ ch chan time.Time }

func (m manualTicker) C() <-chan time.Time { return m.ch }
func (m manualTicker) Stop()               {}

func TestRunTicksAndStops(t *testing.T) {
	f := newFixture(t, domain.PhaseInProgress, 0)
	tick := manualTicker{ch: make(chan time.Time)}
	f.sched.newTicker = func(time.Duration) Ticker { return tick }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- f.sched.Run(ctx) }()

	tick.ch <- time.Now()
	assert.Eventually(t, func() bool { return len(f.game.commands()) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestMemoryClaimerExcludes(t *testing.T) {
	c := NewMemoryClaimer()
	ctx := context.Background()

	release, ok, err := c.Claim(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = c.Claim(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	release()
	_, ok, _ = c.Claim(ctx, "k", time.Minute)
	assert.True(t, ok)
}

func TestMemoryClaimerExpires(t *testing.T) {
	c := NewMemoryClaimer()
	now := time.Now()
	c.now = func() time.Time { return now }

	_, ok, _ := c.Claim(context.Background(), "k", time.Second)
	require.True(t, ok)

	now = now.Add(2 * time.Second)
	_, ok, _ = c.Claim(context.Background(), "k", time.Second)
	assert.True(t, ok)
}
