package ws

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/mystery_room/internal/domain"
	"github.com/immxrtalbeast/mystery_room/internal/protocol"
	"github.com/immxrtalbeast/mystery_room/lib/logger/sl"
)

// Channel is one live outbound stream to a user.
type Channel interface {
	Send(msg []byte) error
	Close()
}

type entry struct {
	roomID uuid.UUID
	ch     Channel
}

// Registry maps room -> user -> channel with at most one channel per user.
type Registry struct {
	log   *slog.Logger
	mu    sync.RWMutex
	rooms map[uuid.UUID]map[uuid.UUID]Channel
	users map[uuid.UUID]entry
	wg    sync.WaitGroup
}

func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		log:   log,
		rooms: make(map[uuid.UUID]map[uuid.UUID]Channel),
		users: make(map[uuid.UUID]entry),
	}
}

// Register binds ch to (roomID, userID), closing any channel the user held before.
func (r *Registry) Register(roomID, userID uuid.UUID, ch Channel) {
	r.mu.Lock()
	old, had := r.users[userID]
	if had {
		r.removeLocked(userID, old)
	}
	members := r.rooms[roomID]
	if members == nil {
		members = make(map[uuid.UUID]Channel)
		r.rooms[roomID] = members
	}
	members[userID] = ch
	r.users[userID] = entry{roomID: roomID, ch: ch}
	r.mu.Unlock()

	if had && old.ch != ch {
		old.ch.Close()
		r.log.Info("replaced connection",
			slog.String("user_id", userID.String()),
			slog.String("old_room_id", old.roomID.String()),
			slog.String("room_id", roomID.String()),
		)
	}
}

// Unicast sends msg to userID. An offline user is not an error.
func (r *Registry) Unicast(userID uuid.UUID, msg protocol.Outbound) error {
	data, err := msg.Encode()
	if err != nil {
		return err
	}

	r.mu.RLock()
	e, ok := r.users[userID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	if err := e.ch.Send(data); err != nil {
		r.failed(userID, e.ch, err)
		return fmt.Errorf("unicast to %s: %w", userID, err)
	}
	return nil
}

// Broadcast fans msg out to every channel in roomID except the excluded users.
func (r *Registry) Broadcast(roomID uuid.UUID, msg protocol.Outbound, exclude ...uuid.UUID) {
	data, err := msg.Encode()
	if err != nil {
		r.log.Error("failed to encode broadcast", slog.String("type", string(msg.Type)), sl.Err(err))
		return
	}

	type target struct {
		userID uuid.UUID
		ch     Channel
	}

	r.mu.RLock()
	targets := make([]target, 0, len(r.rooms[roomID]))
	for userID, ch := range r.rooms[roomID] {
		if excluded(userID, exclude) {
			continue
		}
		targets = append(targets, target{userID: userID, ch: ch})
	}
	r.mu.RUnlock()

	for _, t := range targets {
		if err := t.ch.Send(data); err != nil {
			r.failed(t.userID, t.ch, err)
		}
	}
}

// Disconnect removes whatever channel userID holds.
func (r *Registry) Disconnect(userID uuid.UUID) {
	r.mu.Lock()
	e, ok := r.users[userID]
	if ok {
		r.removeLocked(userID, e)
	}
	r.mu.Unlock()

	if ok {
		e.ch.Close()
	}
}

// Release removes ch only if it is still the user's current channel. It
// reports whether anything was removed.
func (r *Registry) Release(userID uuid.UUID, ch Channel) bool {
	r.mu.Lock()
	e, ok := r.users[userID]
	current := ok && e.ch == ch
	if current {
		r.removeLocked(userID, e)
	}
	r.mu.Unlock()

	if current {
		ch.Close()
	}
	return current
}

// CloseRoom disconnects every member of roomID.
func (r *Registry) CloseRoom(roomID uuid.UUID) {
	r.mu.Lock()
	members := r.rooms[roomID]
	closing := make([]Channel, 0, len(members))
	for userID, ch := range members {
		delete(r.users, userID)
		closing = append(closing, ch)
	}
	delete(r.rooms, roomID)
	r.mu.Unlock()

	for _, ch := range closing {
		ch.Close()
	}
}

func (r *Registry) IsOnline(userID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.users[userID]
	return ok
}

func (r *Registry) UsersIn(roomID uuid.UUID) []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]uuid.UUID, 0, len(r.rooms[roomID]))
	for userID := range r.rooms[roomID] {
		out = append(out, userID)
	}
	return out
}

// Online returns the presence set of roomID.
func (r *Registry) Online(roomID uuid.UUID) map[uuid.UUID]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[uuid.UUID]bool, len(r.rooms[roomID]))
	for userID := range r.rooms[roomID] {
		out[userID] = true
	}
	return out
}

// Wait blocks until every asynchronous disconnect has run.
func (r *Registry) Wait() {
	r.wg.Wait()
}

func (r *Registry) failed(userID uuid.UUID, ch Channel, err error) {
	r.log.Warn("send failed, dropping connection",
		slog.String("user_id", userID.String()),
		slog.String("kind", string(domain.KindOf(err))),
		sl.Err(err),
	)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.Release(userID, ch)
	}()
}

func (r *Registry) removeLocked(userID uuid.UUID, e entry) {
	delete(r.users, userID)
	if members, ok := r.rooms[e.roomID]; ok {
		if members[userID] == e.ch {
			delete(members, userID)
		}
		if len(members) == 0 {
			delete(r.rooms, e.roomID)
		}
	}
}

func excluded(id uuid.UUID, list []uuid.UUID) bool {
	for _, x := range list {
		if x == id {
			return true
		}
	}
	return false
}
