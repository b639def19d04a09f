package model

// RoomKind names one of the room applications. The values are the party
// names clients connect to.
type RoomKind string

const (
	KindPolls    RoomKind = "polls"
	KindKahoot   RoomKind = "kahoot"
	KindFeedback RoomKind = "feedback"
	KindFeelings RoomKind = "feelings"
)

// Kinds lists every supported room kind
var Kinds = []RoomKind{KindPolls, KindKahoot, KindFeedback, KindFeelings}

// Valid reports whether k is a known kind
func (k RoomKind) Valid() bool {
	switch k {
	case KindPolls, KindKahoot, KindFeedback, KindFeelings:
		return true
	}
	return false
}

// RoomInfo is the REST view of a room
type RoomInfo struct {
	Kind        RoomKind `json:"kind"`
	Room        string   `json:"room"`
	Live        bool     `json:"live"`
	Connections int      `json:"connections"`
	State       any      `json:"state"`
}
