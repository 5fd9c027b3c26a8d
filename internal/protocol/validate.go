package protocol

// Name length bounds for player identities.
const (
	MinNameLen = 1
	MaxNameLen = 32
)

// ValidName reports whether the name is a legal player identity: 1 to 32
// characters from [A-Za-z0-9_-].
func ValidName(name string) bool {
	if len(name) < MinNameLen || len(name) > MaxNameLen {
		return false
	}

	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_' || c == '-':
		default:
			return false
		}
	}

	return true
}

// Error texts for frames missing a required data key.
const (
	ErrTextNameRequired  = "Player name required"
	ErrTextCardsRequired = "No cards specified"
)

// MissingRequiredData returns the error text for a routed inbound frame
// that lacks a required data key, or "" when the frame carries everything
// its type needs. CONNECT and RECONNECT need a non-empty name, PLAY_CARDS a
// non-empty cards list; every other routed type needs no data.
func MissingRequiredData(m *Message) string {
	switch m.Type {
	case TypeConnect, TypeReconnect:
		if m.Get("name") == "" {
			return ErrTextNameRequired
		}
	case TypePlayCards:
		if m.Get("cards") == "" {
			return ErrTextCardsRequired
		}
	}

	return ""
}
