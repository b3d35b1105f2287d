package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/cloudwego/eino/schema"

	"github.com/echotwin/echotwin/internal/model/archive"
	replicamodel "github.com/echotwin/echotwin/internal/model/replica"
)

// ErrSessionNotReady reports a chat turn addressed to a session with no
// published persona profile.
var ErrSessionNotReady = errors.New("no replica exists for this session")

// Retriever supplies grounding excerpts for a turn.
type Retriever interface {
	Search(ctx context.Context, sessionID, query, senderFilter string, limit int) ([]string, error)
}

// Chatter is the conversational surface of the AI service.
type Chatter interface {
	Chat(ctx context.Context, credential, instruction string, history []*schema.Message, message string) (string, error)
}

// Service manages live chat sessions, one per upload session. A session is
// bound to the instruction text it was seeded with; when the owning profile
// is replaced the binding goes stale and the next turn rebinds before it is
// served.
type Service struct {
	archives  archive.Store
	profiles  replicamodel.Store
	retriever Retriever
	llm       Chatter

	mu       sync.Mutex
	sessions map[string]*session
}

// session is the live state for one upload session. Turns within a session
// are serialized on mu; distinct sessions proceed in parallel.
type session struct {
	mu          sync.Mutex
	instruction string
	history     []*schema.Message
}

// NewService wires the session manager to its collaborators.
func NewService(archives archive.Store, profiles replicamodel.Store, retriever Retriever, llm Chatter) *Service {
	return &Service{
		archives:  archives,
		profiles:  profiles,
		retriever: retriever,
		llm:       llm,
		sessions:  make(map[string]*session),
	}
}

// SendMessage serves one chat turn: resolve the profile, rebind if stale,
// retrieve grounding excerpts, assemble the outbound prompt and return the
// model's reply verbatim. A model failure leaves the session usable for the
// next attempt.
func (s *Service) SendMessage(ctx context.Context, credential, sessionID, message string) (string, error) {
	profile, ok := s.profiles.Get(sessionID)
	if !ok {
		return "", ErrSessionNotReady
	}

	sess := s.sessionFor(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.instruction != profile.Instruction {
		if err := s.bind(sess, sessionID, profile); err != nil {
			return "", err
		}
	}

	// Grounding excerpts are scoped to the persona's own messages; the
	// counterpart's side of the transcript is not the replica's memory.
	excerpts, err := s.retriever.Search(ctx, sessionID, message, profile.Persona, 0)
	if err != nil {
		// Grounding is best-effort; a failed lookup degrades to the
		// no-memories notice rather than failing the turn.
		log.Printf("[chat] session %s: memory search failed: %v", sessionID, err)
		excerpts = nil
	}

	prompt := buildTurnPrompt(profile, excerpts, message)
	reply, err := s.llm.Chat(ctx, credential, profile.Instruction, sess.history, prompt)
	if err != nil {
		return "", err
	}

	sess.history = append(sess.history,
		schema.UserMessage(prompt),
		schema.AssistantMessage(reply, nil),
	)
	return reply, nil
}

func (s *Service) sessionFor(sessionID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		sess = &session{}
		s.sessions[sessionID] = sess
	}
	return sess
}

// bind seeds the session with the normalized raw history and records the
// instruction it is bound to. A missing or unusable archive seeds an empty
// history; the replica still chats, just without the transcript.
func (s *Service) bind(sess *session, sessionID string, profile replicamodel.Profile) error {
	var seed []*schema.Message

	doc, err := s.archives.LoadArchive(sessionID)
	switch {
	case err == nil:
		turns, nerr := archive.Normalize(doc.Chronological(), profile.Persona)
		if nerr == nil {
			seed = make([]*schema.Message, 0, len(turns))
			for _, t := range turns {
				if t.Role == archive.RoleModel {
					seed = append(seed, schema.AssistantMessage(t.Text, nil))
				} else {
					seed = append(seed, schema.UserMessage(t.Text))
				}
			}
		}
	case errors.Is(err, archive.ErrNotFound):
		// Raw history may already be cleaned up.
	default:
		return err
	}

	sess.instruction = profile.Instruction
	sess.history = seed
	log.Printf("[chat] session %s bound to current instruction, seed=%d turns", sessionID, len(seed))
	return nil
}

// buildTurnPrompt reassembles the persona instruction, the grounding block
// and the literal user message into the outbound prompt. The instruction is
// re-injected on every turn, not just at session creation.
func buildTurnPrompt(profile replicamodel.Profile, excerpts []string, message string) string {
	var b strings.Builder
	b.WriteString(profile.Instruction)

	if len(excerpts) > 0 {
		b.WriteString("\n\n**REAL MESSAGES FROM YOUR MEMORY (use only these for factual answers):**\n")
		b.WriteString(strings.Join(excerpts, "\n"))
	} else {
		b.WriteString("\n\n**REAL MESSAGES FROM YOUR MEMORY:**\n(No relevant memories found. If you don't remember, say so. Never make up facts.)")
	}

	fmt.Fprintf(&b, "\n\n**REMEMBER:** You are %s. Only use your real memories above for factual answers. Never make up facts. Always reply in your true style and thinking.", profile.Persona)
	fmt.Fprintf(&b, "\n\nUser: %s\n%s:", message, profile.Persona)
	return b.String()
}
