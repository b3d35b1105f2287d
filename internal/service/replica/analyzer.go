package replica

import (
	"context"

	"golang.org/x/sync/errgroup"
)

type analyses struct {
	style        string
	relationship string
	patterns     string
	rules        string
	psychology   string
}

// analyze issues the five derived-analysis calls over the combined summary.
// The calls share no mutable state, so they fan out concurrently; all five
// must succeed before compilation, and the first failure cancels the rest.
func (s *Service) analyze(ctx context.Context, credential, persona, counterpart, combined string) (*analyses, error) {
	var out analyses

	stages := []struct {
		prompt string
		dst    *string
	}{
		{stylePrompt(persona, combined), &out.style},
		{relationshipPrompt(persona, counterpart, combined), &out.relationship},
		{patternsPrompt(persona, combined), &out.patterns},
		{rulesPrompt(persona, combined), &out.rules},
		{psychologyPrompt(persona, combined), &out.psychology},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, stage := range stages {
		stage := stage
		g.Go(func() error {
			text, err := s.llm.Generate(gctx, credential, stage.prompt)
			if err != nil {
				return err
			}
			*stage.dst = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &out, nil
}
