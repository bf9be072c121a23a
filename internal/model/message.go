package model

// MaxMessageLen caps the length of a direct message in characters.
const MaxMessageLen = 500

// Message is one entry in a two-party conversation log.  Messages are
// append-only; each conversation keeps only a bounded rolling window of the
// most recent entries.  Timestamp is epoch milliseconds, matching the wire
// format pushed to clients.
type Message struct {
	ID        string `json:"id"`        // messages.id (UUID)
	Sender    string `json:"sender"`    // messages.sender
	Receiver  string `json:"receiver"`  // messages.receiver
	Text      string `json:"text"`      // messages.text (<= MaxMessageLen)
	Timestamp int64  `json:"timestamp"` // messages.timestamp (epoch ms)
}
