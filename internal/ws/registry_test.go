package ws

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/mystery_room/internal/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	mu     sync.Mutex
	msgs   [][]byte
	fail   error
	closed bool
}

func (f *fakeChannel) Send(msg []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeChannel) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeChannel) types(t *testing.T) []protocol.EventType {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]protocol.EventType, 0, len(f.msgs))
	for _, raw := range f.msgs {
		var env struct {
			Type protocol.EventType `json:"type"`
		}
		require.NoError(t, json.Unmarshal(raw, &env))
		out = append(out, env.Type)
	}
	return out
}

func (f *fakeChannel) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func TestBroadcastExcludes(t *testing.T) {
	r := NewRegistry(nil)
	room := uuid.New()
	a, b := uuid.New(), uuid.New()
	chA, chB := &fakeChannel{}, &fakeChannel{}
	r.Register(room, a, chA)
	r.Register(room, b, chB)

	r.Broadcast(room, protocol.NewEvent(protocol.EvtChat, nil), a)

	assert.Empty(t, chA.types(t))
	assert.Equal(t, []protocol.EventType{protocol.EvtChat}, chB.types(t))
}

func TestBroadcastStaysInRoom(t *testing.T) {
	r := NewRegistry(nil)
	roomA, roomB := uuid.New(), uuid.New()
	chA, chB := &fakeChannel{}, &fakeChannel{}
	r.Register(roomA, uuid.New(), chA)
	r.Register(roomB, uuid.New(), chB)

	r.Broadcast(roomA, protocol.NewEvent(protocol.EvtChat, nil))

	assert.Len(t, chA.types(t), 1)
	assert.Empty(t, chB.types(t))
}

func TestRegisterReplacesPreviousChannel(t *testing.T) {
	r := NewRegistry(nil)
	roomA, roomB := uuid.New(), uuid.New()
	user := uuid.New()
	first, second := &fakeChannel{}, &fakeChannel{}

	r.Register(roomA, user, first)
	r.Register(roomB, user, second)

	assert.True(t, first.isClosed())
	assert.Empty(t, r.UsersIn(roomA))
	assert.Equal(t, []uuid.UUID{user}, r.UsersIn(roomB))

	// the stale channel must not evict the new one
	assert.False(t, r.Release(user, first))
	assert.True(t, r.IsOnline(user))
}

func TestFailingSendDisconnects(t *testing.T) {
	r := NewRegistry(nil)
	room := uuid.New()
	bad, good := uuid.New(), uuid.New()
	chBad := &fakeChannel{fail: errors.New("broken pipe")}
	chGood := &fakeChannel{}
	r.Register(room, bad, chBad)
	r.Register(room, good, chGood)

	r.Broadcast(room, protocol.NewEvent(protocol.EvtChat, nil))
	r.Wait()

	assert.False(t, r.IsOnline(bad))
	assert.True(t, chBad.isClosed())
	assert.True(t, r.IsOnline(good))
	assert.Len(t, chGood.types(t), 1)
}

func TestUnicast(t *testing.T) {
	r := NewRegistry(nil)
	room := uuid.New()
	user := uuid.New()
	ch := &fakeChannel{}
	r.Register(room, user, ch)

	require.NoError(t, r.Unicast(user, protocol.NewEvent(protocol.EvtPrivateMessage, nil)))
	require.NoError(t, r.Unicast(uuid.New(), protocol.NewEvent(protocol.EvtPrivateMessage, nil)))
	assert.Equal(t, []protocol.EventType{protocol.EvtPrivateMessage}, ch.types(t))

	ch.fail = errors.New("gone")
	assert.Error(t, r.Unicast(user, protocol.NewEvent(protocol.EvtChat, nil)))
	r.Wait()
	assert.False(t, r.IsOnline(user))
}

func TestCloseRoom(t *testing.T) {
	r := NewRegistry(nil)
	room := uuid.New()
	chs := []*fakeChannel{{}, {}}
	for _, ch := range chs {
		r.Register(room, uuid.New(), ch)
	}

	r.CloseRoom(room)

	assert.Empty(t, r.UsersIn(room))
	for _, ch := range chs {
		assert.True(t, ch.isClosed())
	}
}

func TestDisconnect(t *testing.T) {
	r := NewRegistry(nil)
	room := uuid.New()
	user := uuid.New()
	ch := &fakeChannel{}
	r.Register(room, user, ch)

	r.Disconnect(user)

	assert.False(t, r.IsOnline(user))
	assert.Empty(t, r.Online(room))
	assert.True(t, ch.isClosed())
}
