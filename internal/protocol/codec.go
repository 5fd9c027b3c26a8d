package protocol

import (
	"errors"
	"strconv"
	"strings"
)

// Codec errors. All of them mean the frame is not well formed; the session
// layer treats them uniformly as format failures.
var (
	ErrEmptyFrame  = errors.New("protocol: empty frame")
	ErrNoSeparator = errors.New("protocol: frame has no field separator")
	ErrBadType     = errors.New("protocol: bad type token")
)

// Encode renders the message as a single wire frame terminated by '\n'.
// Data pairs are emitted in insertion order; a message without data encodes
// as TYPE|PLAYER|ROOM with no trailing separator.
func Encode(m *Message) []byte {
	var b strings.Builder
	b.WriteString(strconv.Itoa(m.Type))
	b.WriteByte('|')
	b.WriteString(m.Player)
	b.WriteByte('|')
	b.WriteString(m.Room)

	for i := range m.Data {
		b.WriteByte('|')
		b.WriteString(m.Data[i].Key)
		b.WriteByte('=')
		b.WriteString(m.Data[i].Value)
	}

	b.WriteByte('\n')
	return []byte(b.String())
}

// Decode parses one frame without its trailing newline. A frame is well
// formed iff it contains at least one '|' and the prefix before the first
// '|' parses as an integer in [0, MaxType]. Data segments without '=' are
// dropped silently.
func Decode(line string) (*Message, error) {
	if line == "" {
		return nil, ErrEmptyFrame
	}

	if !strings.Contains(line, "|") {
		return nil, ErrNoSeparator
	}

	fields := strings.Split(line, "|")
	msgType, err := strconv.Atoi(fields[0])
	if err != nil || msgType < 0 || msgType > MaxType {
		return nil, ErrBadType
	}

	m := &Message{Type: msgType}
	if len(fields) > 1 {
		m.Player = fields[1]
	}
	if len(fields) > 2 {
		m.Room = fields[2]
	}

	for _, segment := range fields[3:] {
		key, value, ok := strings.Cut(segment, "=")
		if !ok {
			continue
		}

		m.Data = append(m.Data, Pair{Key: key, Value: value})
	}

	return m, nil
}
