package protocol

// Message type codes. The table is the full protocol numbering; DISCONNECT,
// GAME_PAUSED and GAME_RESUMED are reserved codes the server neither routes
// nor emits.
const (
	TypeConnect    = 0
	TypeDisconnect = 1
	TypeJoinRoom   = 2
	TypeLeaveRoom  = 3
	TypePing       = 4
	TypeStartGame  = 5
	TypeReconnect  = 6
	TypePlayCards  = 7
	TypePickupPile = 8

	TypeConnected          = 100
	TypeRoomJoined         = 101
	TypeRoomLeft           = 102
	TypeError              = 103
	TypePong               = 104
	TypeGameStarted        = 105
	TypeGameState          = 106
	TypePlayerDisconnected = 107
	TypeGamePaused         = 108
	TypePlayerReconnected  = 109
	TypeGameResumed        = 110
	TypeTurnResult         = 111
	TypeGameOver           = 112
)

// MaxType is the largest type token the codec accepts.
const MaxType = 200

var typeNames = map[int]string{
	TypeConnect:            "CONNECT",
	TypeDisconnect:         "DISCONNECT",
	TypeJoinRoom:           "JOIN_ROOM",
	TypeLeaveRoom:          "LEAVE_ROOM",
	TypePing:               "PING",
	TypeStartGame:          "START_GAME",
	TypeReconnect:          "RECONNECT",
	TypePlayCards:          "PLAY_CARDS",
	TypePickupPile:         "PICKUP_PILE",
	TypeConnected:          "CONNECTED",
	TypeRoomJoined:         "ROOM_JOINED",
	TypeRoomLeft:           "ROOM_LEFT",
	TypeError:              "ERROR",
	TypePong:               "PONG",
	TypeGameStarted:        "GAME_STARTED",
	TypeGameState:          "GAME_STATE",
	TypePlayerDisconnected: "PLAYER_DISCONNECTED",
	TypeGamePaused:         "GAME_PAUSED",
	TypePlayerReconnected:  "PLAYER_RECONNECTED",
	TypeGameResumed:        "GAME_RESUMED",
	TypeTurnResult:         "TURN_RESULT",
	TypeGameOver:           "GAME_OVER",
}

// TypeName returns the protocol name of a type code, or "UNKNOWN".
func TypeName(msgType int) string {
	if name, ok := typeNames[msgType]; ok {
		return name
	}

	return "UNKNOWN"
}

// Routed reports whether the type is an inbound operation the server routes.
func Routed(msgType int) bool {
	switch msgType {
	case TypeConnect, TypeJoinRoom, TypeLeaveRoom, TypePing,
		TypeStartGame, TypeReconnect, TypePlayCards, TypePickupPile:
		return true
	default:
		return false
	}
}
