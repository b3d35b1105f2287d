package chat_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/echotwin/echotwin/internal/model/archive"
	replicamodel "github.com/echotwin/echotwin/internal/model/replica"
	"github.com/echotwin/echotwin/internal/service/chat"
)

type fakeRetriever struct {
	excerpts []string
	err      error

	lastQuery  string
	lastSender string
}

func (f *fakeRetriever) Search(_ context.Context, _, query, senderFilter string, _ int) ([]string, error) {
	f.lastQuery = query
	f.lastSender = senderFilter
	return f.excerpts, f.err
}

type fakeChatter struct {
	reply string
	err   error

	lastInstruction string
	lastHistory     []*schema.Message
	lastMessage     string
	calls           int
}

func (f *fakeChatter) Chat(_ context.Context, _, instruction string, history []*schema.Message, message string) (string, error) {
	f.calls++
	f.lastInstruction = instruction
	f.lastHistory = history
	f.lastMessage = message
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func exportDoc() *archive.Archive {
	return &archive.Archive{
		Participants: []archive.Participant{{Name: "Alice"}, {Name: "Bob"}},
		Messages: []archive.Message{
			{SenderName: "Bob", Content: "see ya", TimestampMS: 3000},
			{SenderName: "Alice", Content: "hello there", TimestampMS: 2000},
			{SenderName: "Bob", Content: "hi", TimestampMS: 1000},
		},
	}
}

func profileFor(instruction string) replicamodel.Profile {
	return replicamodel.Profile{
		Persona:     "Alice",
		Counterpart: "Bob",
		Instruction: instruction,
	}
}

func newFixture(t *testing.T, retriever *fakeRetriever, llm *fakeChatter) (*chat.Service, *replicamodel.MemoryStore, *archive.FileStore) {
	t.Helper()
	store, err := archive.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore err: %v", err)
	}
	profiles := replicamodel.NewMemoryStore()
	svc := chat.NewService(store, profiles, retriever, llm)
	return svc, profiles, store
}

func TestSendMessageSessionNotReady(t *testing.T) {
	svc, _, _ := newFixture(t, &fakeRetriever{}, &fakeChatter{reply: "hey"})

	_, err := svc.SendMessage(context.Background(), "key", "abc", "hi")
	if !errors.Is(err, chat.ErrSessionNotReady) {
		t.Fatalf("expected ErrSessionNotReady, got %v", err)
	}
}

func TestSendMessageReplyAndPrompt(t *testing.T) {
	llm := &fakeChatter{reply: "  hey you!  "}
	svc, profiles, store := newFixture(t, &fakeRetriever{}, llm)

	if err := store.SaveArchive("abc", exportDoc()); err != nil {
		t.Fatalf("SaveArchive err: %v", err)
	}
	profiles.Put("abc", profileFor("INSTRUCTION-1"))

	reply, err := svc.SendMessage(context.Background(), "key", "abc", "hi")
	if err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	if reply != "  hey you!  " {
		t.Fatalf("reply must be returned verbatim, got %q", reply)
	}

	if llm.lastInstruction != "INSTRUCTION-1" {
		t.Fatalf("unexpected bound instruction: %q", llm.lastInstruction)
	}
	// Seed history: user(hi), model(hello there), user(see ya).
	if len(llm.lastHistory) != 3 {
		t.Fatalf("expected 3 seeded turns, got %d", len(llm.lastHistory))
	}

	prompt := llm.lastMessage
	if !strings.HasPrefix(prompt, "INSTRUCTION-1") {
		t.Fatal("instruction must be re-injected into every turn")
	}
	if !strings.Contains(prompt, "(No relevant memories found. If you don't remember, say so. Never make up facts.)") {
		t.Fatal("missing no-relevant-memories notice")
	}
	if !strings.Contains(prompt, "Never make up facts.") {
		t.Fatal("missing fabrication reminder")
	}
	if !strings.HasSuffix(prompt, "User: hi\nAlice:") {
		t.Fatalf("prompt must end with the literal user message, got tail %q", prompt[len(prompt)-30:])
	}
}

func TestSendMessageIncludesRetrievedMemories(t *testing.T) {
	retriever := &fakeRetriever{excerpts: []string{"Alice: we went to Rome", "Bob: best trip ever"}}
	llm := &fakeChatter{reply: "remember Rome?"}
	svc, profiles, store := newFixture(t, retriever, llm)

	if err := store.SaveArchive("abc", exportDoc()); err != nil {
		t.Fatalf("SaveArchive err: %v", err)
	}
	profiles.Put("abc", profileFor("INSTRUCTION-1"))

	if _, err := svc.SendMessage(context.Background(), "key", "abc", "trip"); err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}

	prompt := llm.lastMessage
	if !strings.Contains(prompt, "REAL MESSAGES FROM YOUR MEMORY (use only these for factual answers):") {
		t.Fatal("missing grounding block header")
	}
	if !strings.Contains(prompt, "Alice: we went to Rome\nBob: best trip ever") {
		t.Fatal("excerpts must appear verbatim in order")
	}
}

func TestSendMessageRetrievalScopedToPersona(t *testing.T) {
	retriever := &fakeRetriever{}
	llm := &fakeChatter{reply: "ok"}
	svc, profiles, store := newFixture(t, retriever, llm)

	if err := store.SaveArchive("abc", exportDoc()); err != nil {
		t.Fatalf("SaveArchive err: %v", err)
	}
	profiles.Put("abc", profileFor("INSTRUCTION-1"))

	if _, err := svc.SendMessage(context.Background(), "key", "abc", "did we visit Rome?"); err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}

	// Only the persona's own messages count as the replica's memory; the
	// counterpart's side must not surface in the grounding block.
	if retriever.lastSender != "Alice" {
		t.Fatalf("retrieval must filter to the persona's messages, got sender %q", retriever.lastSender)
	}
	if retriever.lastQuery != "did we visit Rome?" {
		t.Fatalf("retrieval must search the literal user message, got %q", retriever.lastQuery)
	}
}

func TestSendMessageRebindsWhenProfileReplaced(t *testing.T) {
	llm := &fakeChatter{reply: "ok"}
	svc, profiles, store := newFixture(t, &fakeRetriever{}, llm)

	if err := store.SaveArchive("abc", exportDoc()); err != nil {
		t.Fatalf("SaveArchive err: %v", err)
	}
	profiles.Put("abc", profileFor("INSTRUCTION-1"))

	if _, err := svc.SendMessage(context.Background(), "key", "abc", "first"); err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	// One turn appended: seed(3) + user + assistant.
	if _, err := svc.SendMessage(context.Background(), "key", "abc", "second"); err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	if len(llm.lastHistory) != 5 {
		t.Fatalf("expected accumulated history of 5, got %d", len(llm.lastHistory))
	}

	// A new persona invalidates the session; the next turn rebinds to the
	// fresh instruction with a re-seeded history.
	profiles.Put("abc", profileFor("INSTRUCTION-2"))
	if _, err := svc.SendMessage(context.Background(), "key", "abc", "third"); err != nil {
		t.Fatalf("SendMessage err: %v", err)
	}
	if llm.lastInstruction != "INSTRUCTION-2" {
		t.Fatalf("stale binding served: %q", llm.lastInstruction)
	}
	if len(llm.lastHistory) != 3 {
		t.Fatalf("rebind must reset to seed history, got %d turns", len(llm.lastHistory))
	}
}

func TestSendMessageModelFailureLeavesSessionUsable(t *testing.T) {
	llm := &fakeChatter{err: errors.New("upstream timeout")}
	svc, profiles, store := newFixture(t, &fakeRetriever{}, llm)

	if err := store.SaveArchive("abc", exportDoc()); err != nil {
		t.Fatalf("SaveArchive err: %v", err)
	}
	profiles.Put("abc", profileFor("INSTRUCTION-1"))

	if _, err := svc.SendMessage(context.Background(), "key", "abc", "hi"); err == nil {
		t.Fatal("expected model failure to surface")
	}

	llm.err = nil
	llm.reply = "recovered"
	reply, err := svc.SendMessage(context.Background(), "key", "abc", "hi again")
	if err != nil {
		t.Fatalf("session must stay usable after a failed turn, got %v", err)
	}
	if reply != "recovered" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	// The failed turn must not have polluted the transcript.
	if len(llm.lastHistory) != 3 {
		t.Fatalf("failed turn leaked into history: %d turns", len(llm.lastHistory))
	}
}

func TestSendMessageRetrievalFailureDegrades(t *testing.T) {
	retriever := &fakeRetriever{err: errors.New("store offline")}
	llm := &fakeChatter{reply: "still here"}
	svc, profiles, store := newFixture(t, retriever, llm)

	if err := store.SaveArchive("abc", exportDoc()); err != nil {
		t.Fatalf("SaveArchive err: %v", err)
	}
	profiles.Put("abc", profileFor("INSTRUCTION-1"))

	reply, err := svc.SendMessage(context.Background(), "key", "abc", "hi")
	if err != nil {
		t.Fatalf("retrieval failure must not fail the turn, got %v", err)
	}
	if reply != "still here" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if !strings.Contains(llm.lastMessage, "No relevant memories found") {
		t.Fatal("degraded turn must carry the no-memories notice")
	}
}
