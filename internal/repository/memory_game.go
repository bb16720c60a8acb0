package repository

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
)

type InMemoryScriptRepository struct {
	mu      sync.RWMutex
	scripts map[uuid.UUID]*domain.Script
}

func NewInMemoryScriptRepository() *InMemoryScriptRepository {
	return &InMemoryScriptRepository{scripts: make(map[uuid.UUID]*domain.Script)}
}

func (r *InMemoryScriptRepository) Create(ctx context.Context, script *domain.Script) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if script == nil {
		return errors.New("script is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.scripts[script.ID]; ok {
		return errors.New("script already exists")
	}
	r.scripts[script.ID] = cloneScript(script)
	return nil
}

func (r *InMemoryScriptRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Script, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.scripts[id]
	if !ok {
		return nil, ErrScriptNotFound
	}
	return cloneScript(s), nil
}

func (r *InMemoryScriptRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.scripts[id]; !ok {
		return ErrScriptNotFound
	}
	delete(r.scripts, id)
	return nil
}

// Count returns the number of stored scripts.
func (r *InMemoryScriptRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.scripts)
}

func (r *InMemoryScriptRepository) decrementGoal(goalID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.scripts {
		for i := range s.Goals {
			if s.Goals[i].ID != goalID {
				continue
			}
			if s.Goals[i].SearchAttempts <= 0 {
				return 0, ErrNoSearchAttempts
			}
			s.Goals[i].SearchAttempts--
			return s.Goals[i].SearchAttempts, nil
		}
	}
	return 0, ErrNoSearchAttempts
}

func (r *InMemoryScriptRepository) restoreGoal(goalID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, s := range r.scripts {
		for i := range s.Goals {
			if s.Goals[i].ID == goalID {
				s.Goals[i].SearchAttempts++
				return
			}
		}
	}
}

type InMemoryGameRepository struct {
	mu       sync.RWMutex
	scripts  *InMemoryScriptRepository
	searches map[uuid.UUID][]*domain.SearchAction
	votes    map[uuid.UUID][]*domain.Vote
	logs     map[uuid.UUID][]*domain.LogEntry
}

func NewInMemoryGameRepository(scripts *InMemoryScriptRepository) *InMemoryGameRepository {
	return &InMemoryGameRepository{
		scripts:  scripts,
		searches: make(map[uuid.UUID][]*domain.SearchAction),
		votes:    make(map[uuid.UUID][]*domain.Vote),
		logs:     make(map[uuid.UUID][]*domain.LogEntry),
	}
}

func (r *InMemoryGameRepository) RecordSearch(ctx context.Context, action *domain.SearchAction, goalID uuid.UUID, entry *domain.LogEntry) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if action == nil {
		return 0, errors.New("search action is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	remaining, err := r.scripts.decrementGoal(goalID)
	if err != nil {
		return 0, err
	}

	for _, existing := range r.searches[action.RoomID] {
		if existing.SearcherID == action.SearcherID && existing.ClueID == action.ClueID {
			r.scripts.restoreGoal(goalID)
			return 0, ErrAlreadySearched
		}
	}

	cp := *action
	r.searches[action.RoomID] = append(r.searches[action.RoomID], &cp)
	if entry != nil {
		le := *entry
		r.logs[entry.RoomID] = append(r.logs[entry.RoomID], &le)
	}
	return remaining, nil
}

func (r *InMemoryGameRepository) ListSearches(ctx context.Context, roomID uuid.UUID) ([]*domain.SearchAction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.SearchAction, 0, len(r.searches[roomID]))
	for _, a := range r.searches[roomID] {
		cp := *a
		result = append(result, &cp)
	}
	return result, nil
}

func (r *InMemoryGameRepository) SaveVote(ctx context.Context, vote *domain.Vote) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if vote == nil {
		return errors.New("vote is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.votes[vote.RoomID] {
		if existing.VoterID == vote.VoterID {
			existing.TargetID = vote.TargetID
			existing.Stage = vote.Stage
			existing.CastAt = vote.CastAt
			return nil
		}
	}

	cp := *vote
	r.votes[vote.RoomID] = append(r.votes[vote.RoomID], &cp)
	return nil
}

func (r *InMemoryGameRepository) ClearVotes(ctx context.Context, roomID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.votes, roomID)
	return nil
}

func (r *InMemoryGameRepository) ListVotes(ctx context.Context, roomID uuid.UUID) ([]*domain.Vote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Vote, 0, len(r.votes[roomID]))
	for _, v := range r.votes[roomID] {
		cp := *v
		result = append(result, &cp)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].CastAt.Before(result[j].CastAt) })
	return result, nil
}

func (r *InMemoryGameRepository) AppendLog(ctx context.Context, entry *domain.LogEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entry == nil {
		return errors.New("log entry is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *entry
	r.logs[entry.RoomID] = append(r.logs[entry.RoomID], &cp)
	return nil
}

func (r *InMemoryGameRepository) ListLogs(ctx context.Context, roomID uuid.UUID, limit int) ([]*domain.LogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.logs[roomID]
	if limit > 0 && len(list) > limit {
		list = list[len(list)-limit:]
	}
	result := make([]*domain.LogEntry, 0, len(list))
	for _, e := range list {
		cp := *e
		result = append(result, &cp)
	}
	return result, nil
}

type InMemoryAgentRepository struct {
	mu           sync.RWMutex
	profiles     map[uuid.UUID]*domain.AgentProfile
	interactions []*domain.Interaction
}

func NewInMemoryAgentRepository() *InMemoryAgentRepository {
	return &InMemoryAgentRepository{profiles: make(map[uuid.UUID]*domain.AgentProfile)}
}

func (r *InMemoryAgentRepository) CreateProfile(ctx context.Context, profile *domain.AgentProfile) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *profile
	r.profiles[profile.ID] = &cp
	return nil
}

func (r *InMemoryAgentRepository) GetProfile(ctx context.Context, id uuid.UUID) (*domain.AgentProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[id]
	if !ok {
		return nil, ErrProfileNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *InMemoryAgentRepository) ListProfiles(ctx context.Context) ([]*domain.AgentProfile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.AgentProfile, 0, len(r.profiles))
	for _, p := range r.profiles {
		cp := *p
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (r *InMemoryAgentRepository) RecordInteraction(ctx context.Context, in *domain.Interaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *in
	r.interactions = append(r.interactions, &cp)
	return nil
}

func (r *InMemoryAgentRepository) LastInteraction(ctx context.Context, roomID, agentID uuid.UUID) (*domain.Interaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	var last *domain.Interaction
	for _, in := range r.interactions {
		if in.RoomID != roomID || in.AgentID != agentID {
			continue
		}
		if last == nil || !in.CreatedAt.Before(last.CreatedAt) {
			last = in
		}
	}
	if last == nil {
		return nil, ErrInteractionNotFound
	}
	cp := *last
	return &cp, nil
}

// Interactions returns every recorded interaction of agentID.
func (r *InMemoryAgentRepository) Interactions(agentID uuid.UUID) []*domain.Interaction {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Interaction
	for _, in := range r.interactions {
		if in.AgentID == agentID {
			cp := *in
			out = append(out, &cp)
		}
	}
	return out
}

func cloneScript(s *domain.Script) *domain.Script {
	cp := *s
	cp.Stages = append([]domain.Stage(nil), s.Stages...)
	cp.Characters = append([]domain.Character(nil), s.Characters...)
	cp.Goals = append([]domain.CharacterGoal(nil), s.Goals...)
	cp.Clues = make([]domain.Clue, len(s.Clues))
	for i, c := range s.Clues {
		c.CharacterID = cloneID(c.CharacterID)
		cp.Clues[i] = c
	}
	cp.Timeline = make([]domain.TimelineEvent, len(s.Timeline))
	for i, e := range s.Timeline {
		e.CharacterID = cloneID(e.CharacterID)
		cp.Timeline[i] = e
	}
	return &cp
}
