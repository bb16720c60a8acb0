package repository

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
)

// In-memory twins copy on the way in and out so callers never share state
// with the store.

type InMemoryRoomRepository struct {
	mu           sync.RWMutex
	rooms        map[uuid.UUID]*domain.Room
	codes        map[string]uuid.UUID
	participants map[uuid.UUID][]*domain.Participant
}

func NewInMemoryRoomRepository() *InMemoryRoomRepository {
	return &InMemoryRoomRepository{
		rooms:        make(map[uuid.UUID]*domain.Room),
		codes:        make(map[string]uuid.UUID),
		participants: make(map[uuid.UUID][]*domain.Participant),
	}
}

func (r *InMemoryRoomRepository) Create(ctx context.Context, room *domain.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if room == nil {
		return errors.New("room is nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.codes[room.Code]; ok {
		return ErrRoomCodeExists
	}

	cp := *room
	r.rooms[room.ID] = &cp
	r.codes[room.Code] = room.ID
	return nil
}

func (r *InMemoryRoomRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	cp := *room
	return &cp, nil
}

func (r *InMemoryRoomRepository) GetByCode(ctx context.Context, code string) (*domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	id, ok := r.codes[code]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *InMemoryRoomRepository) Update(ctx context.Context, room *domain.Room) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[room.ID]; !ok {
		return ErrRoomNotFound
	}

	cp := *room
	r.rooms[room.ID] = &cp
	return nil
}

func (r *InMemoryRoomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[id]
	if !ok {
		return ErrRoomNotFound
	}

	delete(r.codes, room.Code)
	delete(r.rooms, id)
	delete(r.participants, id)
	return nil
}

func (r *InMemoryRoomRepository) List(ctx context.Context, phases ...domain.Phase) ([]*domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*domain.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		if len(phases) > 0 && !containsPhase(phases, room.Phase) {
			continue
		}
		cp := *room
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (r *InMemoryRoomRepository) AddParticipant(ctx context.Context, p *domain.Participant) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[p.RoomID]; !ok {
		return ErrRoomNotFound
	}
	for _, existing := range r.participants[p.RoomID] {
		if existing.UserID == p.UserID {
			return ErrParticipantExists
		}
		if p.HasCharacter() && existing.Holds(*p.CharacterID) {
			return ErrCharacterTaken
		}
	}

	r.participants[p.RoomID] = append(r.participants[p.RoomID], cloneParticipant(p))
	return nil
}

func (r *InMemoryRoomRepository) UpdateParticipant(ctx context.Context, p *domain.Participant) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.participants[p.RoomID]
	idx := -1
	for i, existing := range list {
		if existing.UserID == p.UserID {
			idx = i
			continue
		}
		if p.HasCharacter() && existing.Holds(*p.CharacterID) {
			return ErrCharacterTaken
		}
	}
	if idx < 0 {
		return ErrParticipantNotFound
	}

	updated := cloneParticipant(list[idx])
	updated.Nickname = p.Nickname
	updated.CharacterID = cloneID(p.CharacterID)
	updated.Ready = p.Ready
	updated.Alive = p.Alive
	list[idx] = updated
	return nil
}

func (r *InMemoryRoomRepository) RemoveParticipant(ctx context.Context, roomID, userID uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.participants[roomID]
	for i, existing := range list {
		if existing.UserID == userID {
			r.participants[roomID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return ErrParticipantNotFound
}

func (r *InMemoryRoomRepository) GetParticipant(ctx context.Context, roomID, userID uuid.UUID) (*domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, existing := range r.participants[roomID] {
		if existing.UserID == userID {
			return cloneParticipant(existing), nil
		}
	}
	return nil, ErrParticipantNotFound
}

func (r *InMemoryRoomRepository) ListParticipants(ctx context.Context, roomID uuid.UUID) ([]*domain.Participant, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	list := r.participants[roomID]
	result := make([]*domain.Participant, 0, len(list))
	for _, p := range list {
		result = append(result, cloneParticipant(p))
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].JoinedAt.Before(result[j].JoinedAt) })
	return result, nil
}

type InMemoryUserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
}

func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users: make(map[uuid.UUID]*domain.User),
	}
}

func (r *InMemoryUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *InMemoryUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (r *InMemoryUserRepository) Update(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return ErrUserNotFound
	}

	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *InMemoryUserRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users)
}

func (r *InMemoryUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func containsPhase(phases []domain.Phase, p domain.Phase) bool {
	for _, candidate := range phases {
		if candidate == p {
			return true
		}
	}
	return false
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	cp := *id
	return &cp
}

func cloneParticipant(p *domain.Participant) *domain.Participant {
	cp := *p
	cp.CharacterID = cloneID(p.CharacterID)
	cp.AgentProfileID = cloneID(p.AgentProfileID)
	return &cp
}
