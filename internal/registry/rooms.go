package registry

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/cyberinferno/gamba-server/idgenerator"
	"github.com/cyberinferno/gamba-server/internal/game"
)

// RoomSeats is the seat capacity of every room. The protocol and the game
// flow are written for exactly two seats.
const RoomSeats = 2

// Room registry errors.
var (
	ErrRoomLimit     = errors.New("registry: room limit reached")
	ErrRoomNotFound  = errors.New("registry: room not found")
	ErrRoomFull      = errors.New("registry: room is full")
	ErrAlreadySeated = errors.New("registry: player already seated")
	ErrNotSeated     = errors.New("registry: player not seated in room")
)

// Room is one two-seat table and its game. Seats refer to players by name
// only; the room never holds player records or sessions.
type Room struct {
	id    string
	seats []string
	game  *game.Game
}

// ID returns the room id.
func (r *Room) ID() string {
	return r.id
}

// Seats returns the seated names in join order.
func (r *Room) Seats() []string {
	out := make([]string, len(r.seats))
	copy(out, r.seats)
	return out
}

// Game returns the room's game, creating it on first use.
func (r *Room) Game() *game.Game {
	if r.game == nil {
		r.game = game.New()
	}

	return r.game
}

// SetGame installs a prepared game, replacing any existing one. Tooling and
// tests use it to seat a scripted deal; production rooms build their game
// through Game.
func (r *Room) SetGame(g *game.Game) {
	r.game = g
}

// Playing reports whether the room's game has started and not finished.
func (r *Room) Playing() bool {
	return r.game != nil && r.game.Started() && !r.game.Finished()
}

func (r *Room) seated(name string) bool {
	for _, s := range r.seats {
		if s == name {
			return true
		}
	}

	return false
}

// RoomRegistry owns every room. Ids are ROOM_<n> with n strictly increasing
// for the life of the process; ids are never reused. All room and game state
// is read and written under the registry mutex, almost always through
// WithRoom.
type RoomRegistry struct {
	mu       sync.Mutex
	rooms    map[string]*Room
	ids      *idgenerator.IdGenerator
	maxRooms int
}

// NewRoomRegistry returns a registry capped at maxRooms concurrently live
// rooms; zero or less means no cap.
func NewRoomRegistry(maxRooms int) *RoomRegistry {
	return &RoomRegistry{
		rooms:    make(map[string]*Room),
		ids:      idgenerator.NewIdGenerator(0),
		maxRooms: maxRooms,
	}
}

// CreateRoom makes a new empty room and returns its id.
func (r *RoomRegistry) CreateRoom() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.createRoom()
}

func (r *RoomRegistry) createRoom() (string, error) {
	if r.maxRooms > 0 && len(r.rooms) >= r.maxRooms {
		return "", ErrRoomLimit
	}

	id := fmt.Sprintf("ROOM_%d", r.ids.Id())
	r.rooms[id] = &Room{id: id}
	return id, nil
}

// JoinRoom seats name in the given room. It fails when the room is missing
// or full, and enforces the one-room invariant: a name seated anywhere may
// not join again.
func (r *RoomRegistry) JoinRoom(name, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[roomID]
	if !exists {
		return ErrRoomNotFound
	}

	if r.roomOf(name) != nil {
		return ErrAlreadySeated
	}

	if len(room.seats) >= RoomSeats {
		return ErrRoomFull
	}

	room.seats = append(room.seats, name)
	return nil
}

// JoinAnyAvailableRoom seats name in the lowest-numbered room with exactly
// one free seat, creating a new room when none is open. It returns the
// assigned room id, or "" with an error when no room could be found or made.
func (r *RoomRegistry) JoinAnyAvailableRoom(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.roomOf(name) != nil {
		return "", ErrAlreadySeated
	}

	for _, id := range r.sortedIDs() {
		room := r.rooms[id]
		if len(room.seats) == RoomSeats-1 && !room.Playing() {
			room.seats = append(room.seats, name)
			return id, nil
		}
	}

	id, err := r.createRoom()
	if err != nil {
		return "", err
	}

	r.rooms[id].seats = append(r.rooms[id].seats, name)
	return id, nil
}

// LeaveRoom removes name's seat; the room is deleted once its last seat
// empties.
func (r *RoomRegistry) LeaveRoom(name, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[roomID]
	if !exists {
		return ErrRoomNotFound
	}

	for i, s := range room.seats {
		if s != name {
			continue
		}

		room.seats = append(room.seats[:i], room.seats[i+1:]...)
		if len(room.seats) == 0 {
			delete(r.rooms, roomID)
		}

		return nil
	}

	return ErrNotSeated
}

// DeleteRoom removes the room outright, seats and game included.
func (r *RoomRegistry) DeleteRoom(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.rooms, roomID)
}

// RoomExists reports whether the id names a live room.
func (r *RoomRegistry) RoomExists(roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, exists := r.rooms[roomID]
	return exists
}

// IsRoomFull reports whether the room has both seats taken. Unknown rooms
// are not full.
func (r *RoomRegistry) IsRoomFull(roomID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[roomID]
	return exists && len(room.seats) >= RoomSeats
}

// RoomPlayers returns the room's seated names, or nil for unknown rooms.
func (r *RoomRegistry) RoomPlayers(roomID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, exists := r.rooms[roomID]
	if !exists {
		return nil
	}

	return room.Seats()
}

// RoomCount returns the number of live rooms.
func (r *RoomRegistry) RoomCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.rooms)
}

// WithRoom runs fn under the registry mutex with the room, or with nil when
// the id names no room. Every game-state read and write goes through here;
// fn must not call back into the registries.
func (r *RoomRegistry) WithRoom(roomID string, fn func(room *Room)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fn(r.rooms[roomID])
}

// roomOf returns the room name is seated in, or nil. Caller holds r.mu.
func (r *RoomRegistry) roomOf(name string) *Room {
	for _, room := range r.rooms {
		if room.seated(name) {
			return room
		}
	}

	return nil
}

// sortedIDs returns the live room ids in ascending numeric order, giving
// JoinAnyAvailableRoom its deterministic matchmaking order. Caller holds
// r.mu.
func (r *RoomRegistry) sortedIDs() []string {
	ids := make([]string, 0, len(r.rooms))
	for id := range r.rooms {
		ids = append(ids, id)
	}

	sort.Slice(ids, func(i, j int) bool {
		return roomNumber(ids[i]) < roomNumber(ids[j])
	})

	return ids
}

func roomNumber(id string) int {
	n, _ := strconv.Atoi(strings.TrimPrefix(id, "ROOM_"))
	return n
}
