package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/echotwin/echotwin/internal/config"
)

var (
	// ErrMissingCredential is returned before any model call when neither a
	// per-request credential nor a server default is available.
	ErrMissingCredential = errors.New("no API credential supplied and no server default configured")

	// ErrContentBlocked marks a request rejected by the provider's safety
	// filter. Callers may recover from this class; everything else is fatal
	// for the call.
	ErrContentBlocked = errors.New("request blocked by content policy")
)

// Service mediates all traffic to the external generative model. Models are
// constructed per credential and cached, so a caller-supplied key gets its
// own client while everyone else shares the server default.
type Service struct {
	cfg     config.AIConfig
	factory func(ctx context.Context, apiKey string) (model.ChatModel, error)

	mu      sync.Mutex
	clients map[string]*client
}

type client struct {
	chatModel model.ChatModel
	chain     compose.Runnable[map[string]any, *schema.Message]
}

// NewService wires the service to the ark provider from the configuration.
func NewService(cfg config.AIConfig) *Service {
	svc := &Service{cfg: cfg, clients: make(map[string]*client)}
	svc.factory = func(ctx context.Context, apiKey string) (model.ChatModel, error) {
		return cfg.NewChatModel(ctx, apiKey)
	}
	return svc
}

// Generate issues a single standalone prompt and returns the model text.
func (s *Service) Generate(ctx context.Context, credential, promptText string) (string, error) {
	c, err := s.clientFor(ctx, credential)
	if err != nil {
		return "", err
	}

	callCtx, cancel := s.boundedContext(ctx)
	defer cancel()

	msg, err := c.chatModel.Generate(callCtx, []*schema.Message{schema.UserMessage(promptText)})
	if err != nil {
		return "", classify(err)
	}
	return msg.Content, nil
}

// Chat sends one conversational turn through the persona chain: system
// instruction, seeded history, then the assembled user prompt.
func (s *Service) Chat(ctx context.Context, credential, instruction string, history []*schema.Message, message string) (string, error) {
	c, err := s.clientFor(ctx, credential)
	if err != nil {
		return "", err
	}

	callCtx, cancel := s.boundedContext(ctx)
	defer cancel()

	out, err := c.chain.Invoke(callCtx, map[string]any{
		"system":  instruction,
		"history": history,
		"query":   message,
	})
	if err != nil {
		return "", classify(err)
	}

	log.Printf("[ai] generated reply, length=%d", len(out.Content))
	return out.Content, nil
}

func (s *Service) clientFor(ctx context.Context, credential string) (*client, error) {
	key := strings.TrimSpace(credential)
	if key == "" {
		key = s.cfg.APIKey
	}
	if key == "" {
		return nil, ErrMissingCredential
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.clients[key]; ok {
		return c, nil
	}

	chatModel, err := s.factory(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("create chat model: %w", err)
	}

	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile chat chain: %w", err)
	}

	c := &client{chatModel: chatModel, chain: runnable}
	s.clients[key] = c
	return c, nil
}

// boundedContext caps each external call so an unresponsive provider cannot
// hang a chunk indefinitely.
func (s *Service) boundedContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

// classify maps provider failures onto the service error taxonomy. The safety
// filter reports blocked prompts as plain errors whose text names the finish
// reason, so matching is by marker substring.
func classify(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"prohibited_content", "content_filter", "content policy", "sensitive"} {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %v", ErrContentBlocked, err)
		}
	}
	return err
}
