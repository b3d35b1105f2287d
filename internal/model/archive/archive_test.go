package archive_test

import (
	"errors"
	"testing"

	"github.com/echotwin/echotwin/internal/model/archive"
)

func TestParseValidExport(t *testing.T) {
	data := []byte(`{
		"participants": [{"name": "Alice"}, {"name": "Bob"}],
		"messages": [
			{"sender_name": "Bob", "content": "see ya", "timestamp_ms": 3000},
			{"sender_name": "Alice", "content": "hello there", "timestamp_ms": 2000},
			{"sender_name": "Bob", "content": "hi", "timestamp_ms": 1000}
		]
	}`)

	doc, err := archive.Parse(data)
	if err != nil {
		t.Fatalf("Parse err: %v", err)
	}

	names := doc.ParticipantNames()
	if len(names) != 2 || names[0] != "Alice" || names[1] != "Bob" {
		t.Fatalf("unexpected participants: %v", names)
	}
	if len(doc.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(doc.Messages))
	}
}

func TestParseTooFewParticipants(t *testing.T) {
	data := []byte(`{"participants": [{"name": "Alice"}], "messages": []}`)

	if _, err := archive.Parse(data); !errors.Is(err, archive.ErrTooFewParticipants) {
		t.Fatalf("expected ErrTooFewParticipants, got %v", err)
	}
}

func TestParseMalformedDocument(t *testing.T) {
	if _, err := archive.Parse([]byte("not json")); !errors.Is(err, archive.ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
}

func TestChronologicalReversesExportOrder(t *testing.T) {
	doc := &archive.Archive{
		Participants: []archive.Participant{{Name: "Alice"}, {Name: "Bob"}},
		Messages: []archive.Message{
			{SenderName: "Bob", Content: "third", TimestampMS: 3000},
			{SenderName: "Alice", Content: "second", TimestampMS: 2000},
			{SenderName: "Bob", Content: "first", TimestampMS: 1000},
		},
	}

	ordered := doc.Chronological()
	if ordered[0].Content != "first" || ordered[2].Content != "third" {
		t.Fatalf("unexpected order: %v", ordered)
	}

	// The stored view must stay untouched.
	if doc.Messages[0].Content != "third" {
		t.Fatalf("Chronological mutated the archive")
	}
}
