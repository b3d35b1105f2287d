package memory

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/echotwin/echotwin/internal/model/archive"
)

// ErrSessionNotFound reports that no history exists for the session id.
var ErrSessionNotFound = errors.New("session not found")

// DefaultLimit caps the number of excerpts returned per search.
const DefaultLimit = 15

// Service retrieves grounding excerpts from a session's raw history.
// Matching is deliberately plain: case-insensitive substring containment,
// recency as the only ranking.
type Service struct {
	archives archive.Store
	limit    int
}

// NewService wires retrieval to the archive store. limit <= 0 selects the
// default cap.
func NewService(archives archive.Store, limit int) *Service {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Service{archives: archives, limit: limit}
}

// Search returns up to the cap of "sender: body" excerpts whose body contains
// the query, newest first. senderFilter, when set, restricts results to that
// sender. No matches is a successful empty result, not an error.
func (s *Service) Search(_ context.Context, sessionID, query, senderFilter string, limit int) ([]string, error) {
	doc, err := s.archives.LoadArchive(sessionID)
	if errors.Is(err, archive.ErrNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > s.limit {
		limit = s.limit
	}

	needle := strings.ToLower(query)
	matched := make([]archive.Message, 0, limit)
	for _, msg := range doc.Messages {
		if msg.Content == "" {
			continue
		}
		if !strings.Contains(strings.ToLower(msg.Content), needle) {
			continue
		}
		if senderFilter != "" && msg.SenderName != senderFilter {
			continue
		}
		matched = append(matched, msg)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].TimestampMS > matched[j].TimestampMS
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}

	results := make([]string, 0, len(matched))
	for _, msg := range matched {
		results = append(results, msg.SenderName+": "+msg.Content)
	}
	return results, nil
}
