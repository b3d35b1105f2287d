package ai_test

import (
	"context"
	"errors"
	"testing"

	"github.com/echotwin/echotwin/internal/config"
	"github.com/echotwin/echotwin/internal/service/ai"
)

func TestGenerateRequiresCredential(t *testing.T) {
	svc := ai.NewService(config.AIConfig{Model: "test-model"})

	_, err := svc.Generate(context.Background(), "", "prompt")
	if !errors.Is(err, ai.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}

func TestChatRequiresCredential(t *testing.T) {
	svc := ai.NewService(config.AIConfig{Model: "test-model"})

	_, err := svc.Chat(context.Background(), "", "instruction", nil, "hi")
	if !errors.Is(err, ai.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
}
