package realtime

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHub(buffer int) *Hub {
	return NewHub(NewRegistry(), slog.New(slog.NewTextHandler(io.Discard, nil)), buffer)
}

// connect регистрирует клиента без сетевого соединения: сообщения читаются прямо из очереди.
func connect(h *Hub) *Client {
	c := newClient(h, nil, h.sendBuffer)
	h.Register(c)
	return c
}

func drain(t *testing.T, c *Client) []Envelope {
	t.Helper()
	var out []Envelope
	for {
		select {
		case raw, ok := <-c.send:
			if !ok {
				return out
			}
			var env Envelope
			require.NoError(t, json.Unmarshal(raw, &env))
			out = append(out, env)
		default:
			return out
		}
	}
}

func TestRegistryJoinLeaveIdempotent(t *testing.T) {
	h := newTestHub(8)
	r := h.Registry()
	c := connect(h)

	assert.True(t, r.Join(c, "m1"))
	assert.False(t, r.Join(c, "m1"))
	assert.Len(t, r.Members("m1"), 1)
	assert.Equal(t, []string{"m1"}, c.Rooms())

	assert.True(t, r.Leave(c, "m1"))
	assert.False(t, r.Leave(c, "m1"))
	assert.False(t, r.Leave(c, "never-joined"))
	assert.Empty(t, r.Members("m1"))
	assert.Empty(t, c.Rooms())
	assert.Zero(t, r.RoomCount(), "empty rooms are dropped")
}

func TestRegistryRemoveClientCleansAllRooms(t *testing.T) {
	h := newTestHub(8)
	r := h.Registry()
	a, b := connect(h), connect(h)

	r.Join(a, "m1")
	r.Join(a, "m2")
	r.Join(b, "m2")

	r.RemoveClient(a)
	assert.Empty(t, r.Members("m1"))
	assert.Equal(t, []*Client{b}, r.Members("m2"))
	assert.Equal(t, []string{"m2"}, r.MatchIDs())
}

func TestRegistryConcurrentMembershipChanges(t *testing.T) {
	h := newTestHub(8)
	r := h.Registry()

	const clients = 20
	const rooms = 5
	all := make([]*Client, clients)
	for i := range all {
		all[i] = connect(h)
	}

	var wg sync.WaitGroup
	for _, c := range all {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			for round := 0; round < 50; round++ {
				for j := 0; j < rooms; j++ {
					id := fmt.Sprintf("m%d", j)
					r.Join(c, id)
					if round%2 == 1 {
						r.Leave(c, id)
					}
				}
			}
			// последний раунд нечётный: клиент вышел из всех комнат, заходим снова
			for j := 0; j < rooms; j++ {
				r.Join(c, fmt.Sprintf("m%d", j))
			}
		}(c)
	}
	wg.Wait()

	for j := 0; j < rooms; j++ {
		assert.Len(t, r.Members(fmt.Sprintf("m%d", j)), clients)
	}
}

func TestPublishRoomOnlyReachesMembers(t *testing.T) {
	h := newTestHub(8)
	joined, outsider := connect(h), connect(h)
	h.Join(joined, "m1")

	h.Publish("m1", "timerUpdated", map[string]interface{}{"match_id": "m1", "total_seconds": 600, "is_paused": false})

	got := drain(t, joined)
	require.Len(t, got, 2)
	assert.Equal(t, ScopeGlobal, got[0].Scope)
	assert.Equal(t, ScopeRoom, got[1].Scope)
	for _, env := range got {
		assert.Equal(t, "timerUpdated", env.Type)
		assert.Equal(t, "match_m1", env.RoomID)
	}

	other := drain(t, outsider)
	require.Len(t, other, 1, "non-members only get the global emission")
	assert.Equal(t, ScopeGlobal, other[0].Scope)
}

func TestPublishPreservesOrderPerConnection(t *testing.T) {
	h := newTestHub(64)
	c := connect(h)
	h.Join(c, "m1")

	for i := 0; i < 10; i++ {
		h.Publish("m1", "scoreUpdated", map[string]int{"team1_score": i})
	}

	var scores []int
	for _, env := range drain(t, c) {
		if env.Scope != ScopeRoom {
			continue
		}
		p := env.Payload.(map[string]interface{})
		scores = append(scores, int(p["team1_score"].(float64)))
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, scores)
}

func TestPublishDropsWhenQueueFull(t *testing.T) {
	h := newTestHub(1)
	c := connect(h)

	h.Publish("m1", "a", nil)
	h.Publish("m1", "b", nil)

	got := drain(t, c)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Type)
}

func TestUnregisterClosesQueueOnce(t *testing.T) {
	h := newTestHub(4)
	c := connect(h)
	h.Join(c, "m1")

	h.Unregister(c)
	h.Unregister(c)
	assert.Zero(t, h.ClientCount())
	assert.Empty(t, h.Registry().Members("m1"))

	_, open := <-c.send
	assert.False(t, open)

	assert.NotPanics(t, func() { h.Publish("m1", "scoreUpdated", nil) })
	assert.False(t, c.enqueue([]byte("late")))
}

func TestHandleMessageJoinAndLeave(t *testing.T) {
	h := newTestHub(8)
	c := connect(h)

	c.handleMessage([]byte(`{"type":"joinMatch","match_id":" m1 "}`))
	assert.Equal(t, []*Client{c}, h.Registry().Members("m1"))

	c.handleMessage([]byte(`{"type":"leaveMatch","match_id":"m1"}`))
	assert.Empty(t, h.Registry().Members("m1"))

	c.handleMessage([]byte(`not json`))
	c.handleMessage([]byte(`{"type":"joinMatch"}`))
	c.handleMessage([]byte(`{"type":"dance","match_id":"m1"}`))

	got := drain(t, c)
	require.Len(t, got, 5)
	assert.Equal(t, MessageJoinedMatch, got[0].Type)
	assert.Equal(t, "match_m1", got[0].RoomID)
	assert.Equal(t, ScopeDirect, got[0].Scope)
	assert.Equal(t, MessageLeftMatch, got[1].Type)
	for _, env := range got[2:] {
		assert.Equal(t, MessageError, env.Type)
	}
}

func TestHandleMessageAcceptsCamelCaseMatchID(t *testing.T) {
	h := newTestHub(8)
	c := connect(h)

	c.handleMessage([]byte(`{"type":"joinMatch","matchId":"m7"}`))
	assert.Equal(t, []*Client{c}, h.Registry().Members("m7"))
	assert.Equal(t, []string{"m7"}, c.Rooms())

	c.handleMessage([]byte(`{"type":"leaveMatch","matchId":"m7"}`))
	assert.Empty(t, h.Registry().Members("m7"))

	got := drain(t, c)
	require.Len(t, got, 2)
	assert.Equal(t, MessageJoinedMatch, got[0].Type)
	assert.Equal(t, "match_m7", got[0].RoomID)
	assert.Equal(t, MessageLeftMatch, got[1].Type)
}
