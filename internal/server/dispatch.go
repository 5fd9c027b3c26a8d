package server

import (
	"github.com/cyberinferno/gamba-server/internal/protocol"
	"github.com/cyberinferno/gamba-server/internal/registry"
	"github.com/cyberinferno/gamba-server/logger"
)

// deliveryKind selects how an outbound frame finds its recipients.
type deliveryKind int

const (
	// deliverDirect writes to the originating session only.
	deliverDirect deliveryKind = iota
	// deliverTargeted writes to one named player; detached players are
	// dropped silently.
	deliverTargeted
	// deliverBroadcast writes the frame unmodified to the originator and a
	// tagged room-notification copy to every other seat in the room.
	deliverBroadcast
)

// delivery is one outbound frame with its dispatch category. Handlers return
// deliveries in order; the dispatcher preserves that order per recipient.
type delivery struct {
	kind     deliveryKind
	msg      *protocol.Message
	target   string
	room     string
	tagKey   string
	tagValue string
}

func direct(msg *protocol.Message) delivery {
	return delivery{kind: deliverDirect, msg: msg}
}

func targeted(name string, msg *protocol.Message) delivery {
	return delivery{kind: deliverTargeted, msg: msg, target: name}
}

func broadcast(roomID string, msg *protocol.Message, tagKey, tagValue string) delivery {
	return delivery{kind: deliverBroadcast, msg: msg, room: roomID, tagKey: tagKey, tagValue: tagValue}
}

// dispatcher routes encoded frames to sessions through the player registry.
// All writes happen outside registry locks; a failed write skips that
// recipient and the rest of the dispatch continues.
type dispatcher struct {
	players *registry.PlayerRegistry
	rooms   *registry.RoomRegistry
	logger  logger.Logger
}

// dispatchAll delivers every frame in order. origin is the session the
// inbound frame arrived on; it receives direct and broadcast originals.
func (d *dispatcher) dispatchAll(origin registry.Session, deliveries []delivery) {
	for _, dv := range deliveries {
		d.dispatch(origin, dv)
	}
}

func (d *dispatcher) dispatch(origin registry.Session, dv delivery) {
	switch dv.kind {
	case deliverDirect:
		if origin != nil {
			d.send(origin, dv.msg)
		}

	case deliverTargeted:
		d.sendTo(dv.target, dv.msg)

	case deliverBroadcast:
		if origin != nil {
			d.send(origin, dv.msg)
		}

		originName := ""
		if origin != nil {
			originName = d.players.BySession(origin.ID())
		}

		tagged := dv.msg.TaggedCopy(dv.tagKey, dv.tagValue)
		for _, seat := range d.rooms.RoomPlayers(dv.room) {
			if seat == originName {
				continue
			}

			d.sendTo(seat, tagged)
		}
	}
}

// sendTo resolves name to a live session and writes the frame, dropping it
// silently for detached players.
func (d *dispatcher) sendTo(name string, msg *protocol.Message) {
	sess := d.players.SessionFor(name)
	if sess == nil {
		return
	}

	d.send(sess, msg)
}

func (d *dispatcher) send(sess registry.Session, msg *protocol.Message) {
	if err := sess.Send(protocol.Encode(msg)); err != nil {
		d.logger.Warn("frame write failed",
			logger.Field{Key: "session_id", Value: sess.ID()},
			logger.Field{Key: "type", Value: protocol.TypeName(msg.Type)},
			logger.Field{Key: "error", Value: err})
	}
}
