package registry

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRoomIdsAreMonotonic(t *testing.T) {
	r := NewRoomRegistry(0)

	first, err := r.CreateRoom()
	require.NoError(t, err)
	second, err := r.CreateRoom()
	require.NoError(t, err)

	assert.Equal(t, "ROOM_1", first)
	assert.Equal(t, "ROOM_2", second)

	// Deleting a room never recycles its id.
	r.DeleteRoom(first)
	third, err := r.CreateRoom()
	require.NoError(t, err)
	assert.Equal(t, "ROOM_3", third)
}

func TestCreateRoomHonorsTheCap(t *testing.T) {
	r := NewRoomRegistry(2)

	_, err := r.CreateRoom()
	require.NoError(t, err)
	_, err = r.CreateRoom()
	require.NoError(t, err)

	_, err = r.CreateRoom()
	assert.ErrorIs(t, err, ErrRoomLimit)

	// Room slots free up when rooms die.
	r.DeleteRoom("ROOM_1")
	_, err = r.CreateRoom()
	assert.NoError(t, err)
}

func TestJoinRoom(t *testing.T) {
	r := NewRoomRegistry(0)
	id, err := r.CreateRoom()
	require.NoError(t, err)

	require.NoError(t, r.JoinRoom("Alice", id))
	require.NoError(t, r.JoinRoom("Bob", id))
	assert.True(t, r.IsRoomFull(id))
	assert.Equal(t, []string{"Alice", "Bob"}, r.RoomPlayers(id))

	assert.ErrorIs(t, r.JoinRoom("Carol", id), ErrRoomFull)
	assert.ErrorIs(t, r.JoinRoom("Alice", id), ErrAlreadySeated)
	assert.ErrorIs(t, r.JoinRoom("Dave", "ROOM_99"), ErrRoomNotFound)
}

func TestOneRoomInvariant(t *testing.T) {
	r := NewRoomRegistry(0)
	first, err := r.CreateRoom()
	require.NoError(t, err)
	second, err := r.CreateRoom()
	require.NoError(t, err)

	require.NoError(t, r.JoinRoom("Alice", first))
	assert.ErrorIs(t, r.JoinRoom("Alice", second), ErrAlreadySeated)

	_, err = r.JoinAnyAvailableRoom("Alice")
	assert.ErrorIs(t, err, ErrAlreadySeated)
}

func TestJoinAnyAvailableRoomFillsLowestIdFirst(t *testing.T) {
	r := NewRoomRegistry(0)

	id, err := r.JoinAnyAvailableRoom("Alice")
	require.NoError(t, err)
	assert.Equal(t, "ROOM_1", id, "no open room means a fresh one")

	id, err = r.JoinAnyAvailableRoom("Bob")
	require.NoError(t, err)
	assert.Equal(t, "ROOM_1", id, "the half-full room fills first")
	assert.True(t, r.IsRoomFull("ROOM_1"))

	id, err = r.JoinAnyAvailableRoom("Carol")
	require.NoError(t, err)
	assert.Equal(t, "ROOM_2", id)

	// Two half-full rooms: the lower id wins.
	id, err = r.JoinAnyAvailableRoom("Dave")
	require.NoError(t, err)
	assert.Equal(t, "ROOM_2", id)
}

func TestJoinAnyAvailableRoomAtTheCap(t *testing.T) {
	r := NewRoomRegistry(1)

	_, err := r.JoinAnyAvailableRoom("Alice")
	require.NoError(t, err)
	_, err = r.JoinAnyAvailableRoom("Bob")
	require.NoError(t, err)

	id, err := r.JoinAnyAvailableRoom("Carol")
	assert.ErrorIs(t, err, ErrRoomLimit)
	assert.Equal(t, "", id)
}

func TestLeaveRoomRoundTrip(t *testing.T) {
	r := NewRoomRegistry(0)
	id, err := r.CreateRoom()
	require.NoError(t, err)

	require.NoError(t, r.JoinRoom("Alice", id))
	require.NoError(t, r.JoinRoom("Bob", id))

	// join then leave restores the seat list.
	require.NoError(t, r.LeaveRoom("Bob", id))
	assert.Equal(t, []string{"Alice"}, r.RoomPlayers(id))

	assert.ErrorIs(t, r.LeaveRoom("Bob", id), ErrNotSeated)

	// The last occupant leaving deletes the room.
	require.NoError(t, r.LeaveRoom("Alice", id))
	assert.False(t, r.RoomExists(id))
	assert.ErrorIs(t, r.LeaveRoom("Alice", id), ErrRoomNotFound)
}

func TestWithRoom(t *testing.T) {
	r := NewRoomRegistry(0)
	id, err := r.CreateRoom()
	require.NoError(t, err)
	require.NoError(t, r.JoinRoom("Alice", id))
	require.NoError(t, r.JoinRoom("Bob", id))

	r.WithRoom(id, func(room *Room) {
		require.NotNil(t, room)
		assert.Equal(t, id, room.ID())
		assert.False(t, room.Playing())

		g := room.Game()
		for _, name := range room.Seats() {
			require.NoError(t, g.AddPlayer(name))
		}
		require.NoError(t, g.Start())
	})

	r.WithRoom(id, func(room *Room) {
		require.NotNil(t, room)
		assert.True(t, room.Playing())
		assert.Equal(t, "Alice", room.Game().CurrentPlayer())
	})

	r.WithRoom("ROOM_404", func(room *Room) {
		assert.Nil(t, room, "absent rooms hand the callback nil")
	})
}

func TestJoinAnyAvailableRoomSkipsPlayingRooms(t *testing.T) {
	r := NewRoomRegistry(0)
	id, err := r.CreateRoom()
	require.NoError(t, err)
	require.NoError(t, r.JoinRoom("Alice", id))
	require.NoError(t, r.JoinRoom("Bob", id))

	r.WithRoom(id, func(room *Room) {
		g := room.Game()
		require.NoError(t, g.AddPlayer("Alice"))
		require.NoError(t, g.AddPlayer("Bob"))
		require.NoError(t, g.Start())
	})

	// Bob's seat empties mid-game; a fresh joiner must not land in it.
	require.NoError(t, r.LeaveRoom("Bob", id))
	got, err := r.JoinAnyAvailableRoom("Carol")
	require.NoError(t, err)
	assert.NotEqual(t, id, got)
}

func TestConcurrentAutoJoinSeatsEveryoneOnce(t *testing.T) {
	r := NewRoomRegistry(0)

	const players = 16
	var wg sync.WaitGroup
	ids := make([]string, players)

	for i := 0; i < players; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()

			id, err := r.JoinAnyAvailableRoom(fmt.Sprintf("player_%d", i))
			require.NoError(t, err)
			ids[i] = id
		}()
	}
	wg.Wait()

	assert.Equal(t, players/2, r.RoomCount())

	seen := make(map[string]int)
	for _, id := range ids {
		require.NotEmpty(t, id)
		seen[id]++
	}

	for id, count := range seen {
		assert.Equal(t, 2, count, "room %s must hold exactly two seats", id)
		assert.True(t, r.IsRoomFull(id))
	}
}
