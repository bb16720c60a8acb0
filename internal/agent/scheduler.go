package agent

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
	"github.com/immxrtalbeast/mystery_room/internal/protocol"
	"github.com/immxrtalbeast/mystery_room/internal/repository"
	"github.com/immxrtalbeast/mystery_room/lib/logger/sl"
)

// Game is the slice of the game service the scheduler drives.
type Game interface {
	State(ctx context.Context, roomID uuid.UUID) (*domain.GameState, error)
	Dispatch(ctx context.Context, roomID, userID uuid.UUID, cmd *protocol.Command) error
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.Ticker.C }

func NewTimeTicker(d time.Duration) Ticker {
	return timeTicker{time.NewTicker(d)}
}

type Config struct {
	TickInterval time.Duration
	ClaimTTL     time.Duration
}

type Scheduler struct {
	cfg       Config
	game      Game
	agents    repository.AgentRepository
	claims    Claimer
	speaker   Speaker
	log       *slog.Logger
	newTicker func(time.Duration) Ticker
	now       func() time.Time
	roll      func() float64
	pick      func(n int) int

	mu     sync.Mutex
	root   context.Context
	stop   context.CancelFunc
	active map[uuid.UUID]context.CancelFunc
	ctxs   map[uuid.UUID]context.Context
	wg     sync.WaitGroup
}

type Option func(*Scheduler)

func WithTicker(f func(time.Duration) Ticker) Option {
	return func(s *Scheduler) { s.newTicker = f }
}

func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithRandom replaces the probability roll and the index picker.
func WithRandom(roll func() float64, pick func(n int) int) Option {
	return func(s *Scheduler) {
		s.roll = roll
		s.pick = pick
	}
}

func NewScheduler(
	cfg Config,
	game Game,
	agents repository.AgentRepository,
	claims Claimer,
	speaker Speaker,
	log *slog.Logger,
	opts ...Option,
) *Scheduler {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 30 * time.Second
	}
	if cfg.ClaimTTL <= 0 {
		cfg.ClaimTTL = time.Minute
	}
	root, stop := context.WithCancel(context.Background())
	s := &Scheduler{
		cfg:       cfg,
		game:      game,
		agents:    agents,
		claims:    claims,
		speaker:   speaker,
		log:       log,
		newTicker: NewTimeTicker,
		now:       time.Now,
		roll:      rand.Float64,
		pick:      rand.IntN,
		root:      root,
		stop:      stop,
		active:    make(map[uuid.UUID]context.CancelFunc),
		ctxs:      make(map[uuid.UUID]context.Context),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run ticks until ctx is done, then cancels every room and waits for in-flight actions.
func (s *Scheduler) Run(ctx context.Context) error {
	const op = "agent.scheduler.Run"
	log := s.log.With(slog.String("op", op))

	t := s.newTicker(s.cfg.TickInterval)
	defer t.Stop()
	log.Info("agent scheduler started", slog.Duration("tick", s.cfg.TickInterval))

	for {
		select {
		case <-ctx.Done():
			s.stop()
			s.wg.Wait()
			log.Info("agent scheduler stopped")
			return nil
		case <-t.C():
			s.Tick()
		}
	}
}

// RoomActivated registers roomID for autonomous ticks.
func (s *Scheduler) RoomActivated(roomID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.active[roomID]; ok {
		return
	}
	ctx, cancel := context.WithCancel(s.root)
	s.active[roomID] = cancel
	s.ctxs[roomID] = ctx
}

// RoomDeactivated cancels every in-flight action of roomID.
func (s *Scheduler) RoomDeactivated(roomID uuid.UUID) {
	s.mu.Lock()
	cancel, ok := s.active[roomID]
	delete(s.active, roomID)
	delete(s.ctxs, roomID)
	s.mu.Unlock()
	if ok {
		cancel()
	}
}

func (s *Scheduler) Active(roomID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.active[roomID]
	return ok
}

// Tick evaluates every active room once and waits for the evaluations.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	rooms := make(map[uuid.UUID]context.Context, len(s.ctxs))
	for id, ctx := range s.ctxs {
		rooms[id] = ctx
	}
	s.mu.Unlock()

	var wg sync.WaitGroup
	for roomID, ctx := range rooms {
		wg.Add(1)
		s.wg.Add(1)
		go func() {
			defer wg.Done()
			defer s.wg.Done()
			s.tickRoom(ctx, roomID)
		}()
	}
	wg.Wait()
}

// HumanMessage starts the reactive path for trig without blocking the caller.
func (s *Scheduler) HumanMessage(trig domain.AgentTrigger) {
	s.mu.Lock()
	ctx, ok := s.ctxs[trig.RoomID]
	s.mu.Unlock()
	if !ok {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.react(ctx, trig)
	}()
}

// Wait blocks until every spawned action has returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) tickRoom(ctx context.Context, roomID uuid.UUID) {
	const op = "agent.scheduler.tickRoom"
	log := s.log.With(slog.String("op", op), slog.String("room_id", roomID.String()))

	st, err := s.game.State(ctx, roomID)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			s.RoomDeactivated(roomID)
			return
		}
		log.Error("failed to load room", sl.Err(err))
		return
	}

	for _, p := range st.Agents() {
		if ctx.Err() != nil {
			return
		}
		s.actAutonomously(ctx, roomID, p.UserID)
	}
}

func (s *Scheduler) react(ctx context.Context, trig domain.AgentTrigger) {
	const op = "agent.scheduler.react"
	log := s.log.With(slog.String("op", op), slog.String("room_id", trig.RoomID.String()))

	st, err := s.game.State(ctx, trig.RoomID)
	if err != nil {
		log.Error("failed to load room", sl.Err(err))
		return
	}

	for _, p := range st.Agents() {
		if p.UserID == trig.SenderID {
			continue
		}
		if trig.Kind == domain.TriggerPrivate && p.UserID != trig.RecipientID {
			continue
		}
		s.actReactively(ctx, trig, p.UserID)
	}
}

func (s *Scheduler) actAutonomously(ctx context.Context, roomID, agentID uuid.UUID) {
	s.withClaim(ctx, roomID, agentID, func(st *domain.GameState, me *domain.Participant, profile *domain.AgentProfile) (*domain.Interaction, decision, bool) {
		if !s.due(ctx, roomID, agentID, profile) {
			return nil, decision{}, false
		}
		d, ok := decideAutonomous(st, me, s.pick)
		if !ok {
			return nil, decision{}, false
		}
		return s.interaction(roomID, agentID, nil, d, st), d, true
	}, nil)
}

func (s *Scheduler) actReactively(ctx context.Context, trig domain.AgentTrigger, agentID uuid.UUID) {
	s.withClaim(ctx, trig.RoomID, agentID, func(st *domain.GameState, me *domain.Participant, profile *domain.AgentProfile) (*domain.Interaction, decision, bool) {
		d, ok := decideReactive(st, trig, profile, s.roll())
		if !ok {
			return nil, decision{}, false
		}
		sender := trig.SenderID
		in := s.interaction(trig.RoomID, agentID, &sender, d, st)
		in.Context["heard"] = trig.Message
		in.Context["trigger"] = string(trig.Kind)
		return in, d, true
	}, &trig)
}

type chooser func(st *domain.GameState, me *domain.Participant, profile *domain.AgentProfile) (*domain.Interaction, decision, bool)

// withClaim serializes one agent's actions, records the interaction and then
// dispatches the command.
func (s *Scheduler) withClaim(ctx context.Context, roomID, agentID uuid.UUID, choose chooser, trig *domain.AgentTrigger) {
	const op = "agent.scheduler.act"
	log := s.log.With(
		slog.String("op", op),
		slog.String("room_id", roomID.String()),
		slog.String("agent_id", agentID.String()),
	)

	release, ok, err := s.claims.Claim(ctx, roomID.String()+":"+agentID.String(), s.cfg.ClaimTTL)
	if err != nil {
		log.Error("failed to claim agent", sl.Err(err))
		return
	}
	if !ok {
		log.Debug("agent busy, skipping")
		return
	}
	defer release()

	// reload under the claim so a concurrent action is visible
	st, err := s.game.State(ctx, roomID)
	if err != nil {
		log.Error("failed to load room", sl.Err(err))
		return
	}
	me := st.Participant(agentID)
	if me == nil || !me.IsAgent || me.AgentProfileID == nil {
		return
	}
	profile, err := s.agents.GetProfile(ctx, *me.AgentProfileID)
	if err != nil {
		log.Error("failed to load agent profile", sl.Err(err))
		return
	}

	in, d, ok := choose(st, me, profile)
	if !ok {
		return
	}

	line := ""
	if d.speaks {
		line, err = s.speaker.Speak(ctx, s.cue(st, me, profile, trig))
		if err != nil {
			log.Warn("speaker failed", sl.Err(err))
			return
		}
		in.Response = line
	}

	if err := s.agents.RecordInteraction(ctx, in); err != nil {
		log.Error("failed to record interaction", sl.Err(err))
		return
	}

	if err := s.game.Dispatch(ctx, roomID, agentID, d.command(line)); err != nil {
		log.Warn("agent action rejected", slog.String("intent", string(d.intent)), sl.Err(err))
		return
	}
	log.Debug("agent acted", slog.String("intent", string(d.intent)))
}

// due reports whether the agent's cool-down since its last interaction has passed.
func (s *Scheduler) due(ctx context.Context, roomID, agentID uuid.UUID, profile *domain.AgentProfile) bool {
	last, err := s.agents.LastInteraction(ctx, roomID, agentID)
	if errors.Is(err, repository.ErrInteractionNotFound) {
		return true
	}
	if err != nil {
		s.log.Error("failed to load last interaction", slog.String("agent_id", agentID.String()), sl.Err(err))
		return false
	}
	interval := profile.ResponseInterval
	if interval <= 0 {
		interval = domain.DefaultResponseInterval
	}
	return s.now().Sub(last.CreatedAt) >= interval
}

func (s *Scheduler) interaction(roomID, agentID uuid.UUID, trigger *uuid.UUID, d decision, st *domain.GameState) *domain.Interaction {
	meta := map[string]any{
		"phase": string(st.Room.Phase),
		"stage": st.Room.CurrentStage,
	}
	switch d.intent {
	case IntentSearch:
		meta["clue_id"] = d.clueID.String()
	case IntentVote:
		meta["target_user_id"] = d.targetID.String()
	}
	return &domain.Interaction{
		ID:            uuid.New(),
		RoomID:        roomID,
		AgentID:       agentID,
		TriggerUserID: trigger,
		Kind:          string(d.intent),
		Context:       meta,
		CreatedAt:     s.now().UTC(),
	}
}

func (s *Scheduler) cue(st *domain.GameState, me *domain.Participant, profile *domain.AgentProfile, trig *domain.AgentTrigger) Cue {
	cue := Cue{Profile: profile, Phase: st.Room.Phase}
	if st.Script != nil {
		if me.HasCharacter() {
			cue.Character = st.Script.Character(*me.CharacterID)
		}
		cue.Stage = st.Script.Stage(st.Room.CurrentStage)
	}
	if trig != nil {
		cue.Heard = trig.Message
		cue.Private = trig.Kind == domain.TriggerPrivate
	}
	return cue
}
