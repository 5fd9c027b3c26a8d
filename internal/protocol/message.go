// Package protocol implements the Gamba wire protocol: newline-terminated,
// pipe-delimited frames of the form TYPE|PLAYER|ROOM|key=value|... with an
// integer TYPE in [0, 200]. It provides the frame codec, incremental framing
// for stream transports, inbound validation, and constructors for every
// outbound frame the server produces.
package protocol

// Pair is a single key=value data entry of a frame. Frames carry data as an
// ordered list, not a map; encoding emits pairs in insertion order.
type Pair struct {
	Key   string
	Value string
}

// Message is one protocol frame. Player and Room are opaque and may be empty.
type Message struct {
	Type   int
	Player string
	Room   string
	Data   []Pair
}

// NewMessage returns a message of the given type with no data.
func NewMessage(msgType int) *Message {
	return &Message{Type: msgType}
}

// Set adds the key with the given value, replacing the value in place when
// the key is already present.
func (m *Message) Set(key, value string) {
	for i := range m.Data {
		if m.Data[i].Key == key {
			m.Data[i].Value = value
			return
		}
	}

	m.Data = append(m.Data, Pair{Key: key, Value: value})
}

// Get returns the value for the key, or "" when absent.
func (m *Message) Get(key string) string {
	for i := range m.Data {
		if m.Data[i].Key == key {
			return m.Data[i].Value
		}
	}

	return ""
}

// Has reports whether the key is present, even with an empty value.
func (m *Message) Has(key string) bool {
	for i := range m.Data {
		if m.Data[i].Key == key {
			return true
		}
	}

	return false
}

// Clone returns a deep copy of the message.
func (m *Message) Clone() *Message {
	c := &Message{Type: m.Type, Player: m.Player, Room: m.Room}
	if len(m.Data) > 0 {
		c.Data = make([]Pair, len(m.Data))
		copy(c.Data, m.Data)
	}

	return c
}

// TaggedCopy returns a copy of the message marked as a room notification.
// Broadcast dispatch sends the original to the originator and a tagged copy,
// carrying broadcast_type plus one type-specific key, to every other seat.
func (m *Message) TaggedCopy(key, value string) *Message {
	c := m.Clone()
	c.Set("broadcast_type", "room_notification")
	c.Set(key, value)
	return c
}
