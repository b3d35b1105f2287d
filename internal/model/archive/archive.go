package archive

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrInvalidDocument    = errors.New("invalid chat export document")
	ErrTooFewParticipants = errors.New("chat export must name at least two participants")
)

// Participant identifies one side of the exported conversation.
type Participant struct {
	Name string `json:"name"`
}

// Message is a single exported message. Content may be empty for media-only
// messages.
type Message struct {
	SenderName  string `json:"sender_name"`
	Content     string `json:"content"`
	TimestampMS int64  `json:"timestamp_ms"`
}

// Archive is the parsed chat export backing one upload session. Export tools
// list messages newest first; the stored order is kept as uploaded.
type Archive struct {
	Participants []Participant `json:"participants"`
	Messages     []Message     `json:"messages"`
}

// Parse decodes and validates an uploaded chat export document.
func Parse(data []byte) (*Archive, error) {
	var doc Archive
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if len(doc.Participants) < 2 {
		return nil, ErrTooFewParticipants
	}
	return &doc, nil
}

// ParticipantNames returns the participant names in document order.
func (a *Archive) ParticipantNames() []string {
	names := make([]string, 0, len(a.Participants))
	for _, p := range a.Participants {
		names = append(names, p.Name)
	}
	return names
}

// Chronological returns a copy of the messages in oldest-first order. The
// synthesis pipeline and the session seed both consume this view.
func (a *Archive) Chronological() []Message {
	out := make([]Message, len(a.Messages))
	for i, msg := range a.Messages {
		out[len(a.Messages)-1-i] = msg
	}
	return out
}
