package replica

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/echotwin/echotwin/internal/model/archive"
	replicamodel "github.com/echotwin/echotwin/internal/model/replica"
)

// TextGenerator is the single-call surface of the AI service the pipeline
// needs.
type TextGenerator interface {
	Generate(ctx context.Context, credential, prompt string) (string, error)
}

// Service owns persona synthesis: chunked summarization, the five derived
// analyses, instruction compilation and publication, plus the job table used
// for progress and cancellation.
type Service struct {
	archives  archive.Store
	profiles  replicamodel.Store
	llm       TextGenerator
	progress  *Tracker
	chunkSize int

	mu   sync.Mutex
	jobs map[string]*job
}

type job struct {
	cancel context.CancelFunc
}

// NewService wires the pipeline to its stores and the model.
func NewService(archives archive.Store, profiles replicamodel.Store, llm TextGenerator, progress *Tracker, chunkSize int) *Service {
	if chunkSize < 1 {
		chunkSize = 400
	}
	return &Service{
		archives:  archives,
		profiles:  profiles,
		llm:       llm,
		progress:  progress,
		chunkSize: chunkSize,
		jobs:      make(map[string]*job),
	}
}

// Create runs the full synthesis pipeline for a session and publishes the
// resulting profile. Publication is all-or-nothing: any prior profile stays
// untouched until the new instruction is fully compiled. Starting a new job
// for a session cancels one already in flight.
func (s *Service) Create(ctx context.Context, credential, sessionID, persona, counterpart string) error {
	doc, err := s.archives.LoadArchive(sessionID)
	if err != nil {
		return err
	}

	messages := doc.Chronological()

	// Validate the seed history up front so an unusable archive aborts
	// before any model call is spent.
	if _, err := archive.Normalize(messages, persona); err != nil {
		return err
	}

	jobCtx, j := s.beginJob(ctx, sessionID)
	defer s.endJob(sessionID, j)

	total := chunkCount(len(messages), s.chunkSize)
	s.progress.Begin(sessionID, total)
	log.Printf("[replica] session %s: summarizing %d messages in %d chunks", sessionID, len(messages), total)

	combined, err := s.summarize(jobCtx, credential, sessionID, messages, persona, counterpart)
	if err != nil {
		s.clearIfOwner(sessionID, j)
		return err
	}

	results, err := s.analyze(jobCtx, credential, persona, counterpart, combined)
	if err != nil {
		s.clearIfOwner(sessionID, j)
		return fmt.Errorf("derived analysis: %w", err)
	}

	profile := replicamodel.Profile{
		Persona:       persona,
		Counterpart:   counterpart,
		StyleAnalysis: results.style,
		Relationship:  results.relationship,
		Patterns:      results.patterns,
		Rules:         results.rules,
		Psychology:    results.psychology,
	}
	profile.Instruction = buildInstruction(profile)

	s.profiles.Put(sessionID, profile)
	s.clearIfOwner(sessionID, j)
	log.Printf("[replica] session %s: profile published for persona %q", sessionID, persona)
	return nil
}

// Progress reports the chunk counters for a session.
func (s *Service) Progress(sessionID string) replicamodel.Progress {
	return s.progress.Snapshot(sessionID)
}

// Cancel aborts any in-flight synthesis job for the session and discards its
// progress counters. In-flight model calls observe the cancellation through
// their context.
func (s *Service) Cancel(sessionID string) {
	s.mu.Lock()
	if j, ok := s.jobs[sessionID]; ok {
		j.cancel()
		delete(s.jobs, sessionID)
	}
	s.mu.Unlock()
	s.progress.Clear(sessionID)
}

// Cleanup cancels any running job and removes every derived artifact for the
// session. Safe to call repeatedly.
func (s *Service) Cleanup(sessionID string) error {
	s.Cancel(sessionID)
	return s.archives.Cleanup(sessionID)
}

func (s *Service) beginJob(ctx context.Context, sessionID string) (context.Context, *job) {
	jobCtx, cancel := context.WithCancel(ctx)
	j := &job{cancel: cancel}

	s.mu.Lock()
	if prev, ok := s.jobs[sessionID]; ok {
		// A superseding request takes over the session; the old job's model
		// calls must not be awaited any longer.
		prev.cancel()
	}
	s.jobs[sessionID] = j
	s.mu.Unlock()

	return jobCtx, j
}

// clearIfOwner discards the session's progress counters only while the job
// still owns the session. A superseded job's counters belong to its
// successor, which has already re-registered them.
func (s *Service) clearIfOwner(sessionID string, j *job) {
	s.mu.Lock()
	current, ok := s.jobs[sessionID]
	s.mu.Unlock()
	if ok && current == j {
		s.progress.Clear(sessionID)
	}
}

func (s *Service) endJob(sessionID string, j *job) {
	j.cancel()

	s.mu.Lock()
	if current, ok := s.jobs[sessionID]; ok && current == j {
		delete(s.jobs, sessionID)
	}
	s.mu.Unlock()
}
