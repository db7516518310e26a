// Package memory provides the in-memory storage.Store implementation used by
// the CLI and by tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/spigell/ai-interviewer/internal/chat"
	"github.com/spigell/ai-interviewer/internal/storage"
)

type Store struct {
	mu      sync.RWMutex
	records map[string]*storage.Record
}

func NewStore() *Store {
	return &Store{records: make(map[string]*storage.Record)}
}

func (s *Store) CreateSession(_ context.Context, record *storage.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.ID]; exists {
		return fmt.Errorf("session %s already exists", record.ID)
	}

	stored := cloneRecord(record)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}

	s.records[record.ID] = stored
	return nil
}

func (s *Store) LoadSession(_ context.Context, sessionID string) (*storage.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[sessionID]
	if !exists {
		return nil, fmt.Errorf("%w: %s", storage.ErrSessionNotFound, sessionID)
	}

	return cloneRecord(record), nil
}

func (s *Store) ListSessions(_ context.Context, limit, offset int) ([]*storage.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*storage.Record, 0, len(s.records))
	for _, record := range s.records {
		records = append(records, record)
	}

	sort.Slice(records, func(a, b int) bool {
		return records[a].CreatedAt.Before(records[b].CreatedAt)
	})

	if offset >= len(records) {
		return nil, nil
	}
	records = records[offset:]

	if limit > 0 && limit < len(records) {
		records = records[:limit]
	}

	result := make([]*storage.Record, 0, len(records))
	for _, record := range records {
		result = append(result, cloneRecord(record))
	}
	return result, nil
}

func (s *Store) AppendMessage(_ context.Context, sessionID string, msg chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.records[sessionID]
	if !exists {
		return fmt.Errorf("%w: %s", storage.ErrSessionNotFound, sessionID)
	}

	record.Messages = append(record.Messages, msg)
	return nil
}

func (s *Store) SetEvaluation(_ context.Context, sessionID, evaluation, report string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.records[sessionID]
	if !exists {
		return fmt.Errorf("%w: %s", storage.ErrSessionNotFound, sessionID)
	}

	if record.Evaluation == "" {
		record.Evaluation = evaluation
	}
	if record.Report == "" {
		record.Report = report
	}
	return nil
}

func (s *Store) DeleteSession(_ context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[sessionID]; !exists {
		return false, nil
	}

	delete(s.records, sessionID)
	return true, nil
}

func cloneRecord(record *storage.Record) *storage.Record {
	cloned := *record
	cloned.Messages = chat.CloneLog(record.Messages)
	return &cloned
}
