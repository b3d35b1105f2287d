package replica

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/echotwin/echotwin/internal/model/archive"
	"github.com/echotwin/echotwin/internal/service/ai"
)

// chunkCount is the number of model calls a history of n messages costs.
func chunkCount(n, size int) int {
	if n == 0 {
		return 0
	}
	return (n + size - 1) / size
}

// chunkMessages partitions chronologically ordered messages into contiguous
// slices of at most size messages, order preserved.
func chunkMessages(messages []archive.Message, size int) [][]archive.Message {
	chunks := make([][]archive.Message, 0, chunkCount(len(messages), size))
	for start := 0; start < len(messages); start += size {
		end := start + size
		if end > len(messages) {
			end = len(messages)
		}
		chunks = append(chunks, messages[start:end])
	}
	return chunks
}

// summarize runs one model call per chunk, persisting each summary as a
// discrete artifact. A content-policy rejection skips the chunk and moves on;
// any other failure aborts the job. Progress advances exactly once per chunk
// regardless of outcome.
func (s *Service) summarize(ctx context.Context, credential, sessionID string, messages []archive.Message, persona, counterpart string) (string, error) {
	chunks := chunkMessages(messages, s.chunkSize)
	summaries := make([]string, 0, len(chunks))

	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		prompt := chunkSummaryPrompt(persona, counterpart, renderChunk(chunk))
		summary, err := s.llm.Generate(ctx, credential, prompt)
		switch {
		case err == nil:
			summaries = append(summaries, summary)
			if err := s.archives.SaveChunkSummary(sessionID, i+1, summary); err != nil {
				return "", fmt.Errorf("persist chunk %d summary: %w", i+1, err)
			}
		case errors.Is(err, ai.ErrContentBlocked):
			log.Printf("[replica] chunk %d/%d blocked by content policy, skipping", i+1, len(chunks))
		default:
			return "", fmt.Errorf("summarize chunk %d: %w", i+1, err)
		}

		s.progress.Advance(sessionID)
	}

	return strings.Join(summaries, summarySeparator), nil
}
