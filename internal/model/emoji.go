package model

// EmojiPop is one relayed emoji reaction. It is never persisted.
type EmojiPop struct {
	Emoji        string  `json:"emoji"`
	OriginatorID string  `json:"userId"`
	Timestamp    int64   `json:"timestamp"` // assigned by the server, unix millis
	X            float64 `json:"x"`         // percent of viewport width
	Y            float64 `json:"y"`         // percent of viewport height
}
