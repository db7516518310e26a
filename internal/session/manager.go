// Package session keeps at most one live workflow instance per session id
// and rebuilds instances from the persisted message log when the cache
// misses, so a stateful workflow survives process restarts.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/spigell/ai-interviewer/internal/chat"
	"github.com/spigell/ai-interviewer/internal/interview"
	"github.com/spigell/ai-interviewer/internal/logger"
	"github.com/spigell/ai-interviewer/internal/storage"
	"go.uber.org/zap"
)

// Factory builds a fresh workflow instance for a session configuration,
// binding the session's retrieval tools and generators.
type Factory func(cfg interview.Config) (*interview.Workflow, error)

// TurnResult is the outcome of one human turn.
type TurnResult struct {
	Reply    string
	Complete bool
}

// Results are the session's interview outputs.
type Results struct {
	Evaluation string
	Report     string
	Transcript string
	Complete   bool
}

// Info describes a stored session.
type Info struct {
	ID           string
	Config       interview.Config
	MessageCount int
	Complete     bool
}

// entry is one cache slot. Its mutex serializes all turns of the session:
// a turn mutates the workflow's message history in place, so a session
// processes at most one turn at a time. Distinct sessions run in parallel.
type entry struct {
	mu sync.Mutex
	wf *interview.Workflow
}

// Manager owns the in-memory workflow cache and fronts the storage
// collaborator.
type Manager struct {
	mu      sync.Mutex
	entries map[string]*entry

	store   storage.Store
	factory Factory
	logger  *zap.Logger
}

func NewManager(store storage.Store, factory Factory, log *zap.Logger) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if factory == nil {
		return nil, fmt.Errorf("workflow factory is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Manager{
		entries: make(map[string]*entry),
		store:   store,
		factory: factory,
		logger:  log,
	}, nil
}

// Create sets up a new session: a persisted record and a cached workflow
// instance. Returns the generated session id.
func (m *Manager) Create(ctx context.Context, cfg interview.Config) (string, error) {
	cfg = cfg.WithDefaults()

	wf, err := m.factory(cfg)
	if err != nil {
		return "", fmt.Errorf("building workflow: %w", err)
	}

	id := uuid.NewString()
	if err := m.store.CreateSession(ctx, &storage.Record{ID: id, Config: cfg}); err != nil {
		return "", fmt.Errorf("persisting session: %w", err)
	}

	e := m.entry(id)
	e.mu.Lock()
	e.wf = wf
	e.mu.Unlock()

	m.logger.Info("interview session created", zap.String(logger.FieldSession, id))
	return id, nil
}

// RunTurn feeds one human message into the session's workflow. The persisted
// log is only appended to after the turn succeeded, so a failed turn leaves
// the session unmodified and the same message can safely be resent.
func (m *Manager) RunTurn(ctx context.Context, sessionID, text string) (*TurnResult, error) {
	e := m.entry(sessionID)
	e.mu.Lock()
	defer e.mu.Unlock()

	wf, err := m.getOrRestore(ctx, e, sessionID)
	if err != nil {
		return nil, err
	}

	before := len(wf.Messages())

	reply, err := wf.Send(ctx, text)
	if err != nil {
		// The in-memory instance may hold a partially appended history
		// now; discard it so the next turn rebuilds from the log.
		e.wf = nil
		return nil, fmt.Errorf("running turn: %w", err)
	}

	for _, msg := range wf.Messages()[before:] {
		if err := m.store.AppendMessage(ctx, sessionID, msg); err != nil {
			return nil, fmt.Errorf("persisting message: %w", err)
		}
	}

	complete := wf.Complete()
	if complete && (wf.Evaluation() != "" || wf.Report() != "") {
		if err := m.store.SetEvaluation(ctx, sessionID, wf.Evaluation(), wf.Report()); err != nil {
			return nil, fmt.Errorf("persisting results: %w", err)
		}
	}

	return &TurnResult{Reply: reply.Content, Complete: complete}, nil
}

// Results returns the session's evaluation, report and transcript. The
// transcript always comes from the persisted log; the result fields prefer
// the live instance, which may be ahead of storage within a turn.
func (m *Manager) Results(ctx context.Context, sessionID string) (*Results, error) {
	record, err := m.store.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	results := &Results{
		Evaluation: record.Evaluation,
		Report:     record.Report,
		Transcript: interview.RenderTranscript(record.Messages),
	}

	e := m.entry(sessionID)
	e.mu.Lock()
	if e.wf != nil {
		if e.wf.Evaluation() != "" {
			results.Evaluation = e.wf.Evaluation()
		}
		if e.wf.Report() != "" {
			results.Report = e.wf.Report()
		}
	}
	e.mu.Unlock()

	results.Complete = interview.Concluded(record.Messages, results.Evaluation, results.Report)
	return results, nil
}

// List returns stored sessions in creation order.
func (m *Manager) List(ctx context.Context, limit, offset int) ([]*Info, error) {
	records, err := m.store.ListSessions(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	infos := make([]*Info, 0, len(records))
	for _, record := range records {
		infos = append(infos, &Info{
			ID:           record.ID,
			Config:       record.Config,
			MessageCount: len(record.Messages),
			Complete:     interview.Concluded(record.Messages, record.Evaluation, record.Report),
		})
	}
	return infos, nil
}

// Delete removes the cached instance and the persisted record. Reports
// whether a record existed.
func (m *Manager) Delete(ctx context.Context, sessionID string) (bool, error) {
	m.Forget(sessionID)
	return m.store.DeleteSession(ctx, sessionID)
}

// Forget drops the cached workflow instance only; persisted data stays.
func (m *Manager) Forget(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, sessionID)
}

// Clear drops every cached workflow instance.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*entry)
}

// getOrRestore returns the entry's live workflow, rebuilding it from the
// persisted log when the cache slot is empty. The caller holds the entry
// lock. Recovery replays the persisted human messages through the full turn
// path in original order, discarding the regenerated assistant messages:
// the point is to reconstruct stage state, not to reproduce the transcript.
func (m *Manager) getOrRestore(ctx context.Context, e *entry, sessionID string) (*interview.Workflow, error) {
	if e.wf != nil {
		return e.wf, nil
	}

	record, err := m.store.LoadSession(ctx, sessionID)
	if err != nil {
		m.forgetEmpty(sessionID, e)
		return nil, err
	}

	wf, err := m.factory(record.Config)
	if err != nil {
		return nil, fmt.Errorf("rebuilding workflow: %w", err)
	}

	humans := 0
	for _, msg := range record.Messages {
		if msg.Role != chat.RoleHuman {
			continue
		}

		if _, err := wf.Send(ctx, msg.Content); err != nil {
			// Without its workflow state the session is unusable, so a
			// failed replay reads like an unknown session to the caller.
			m.logger.Error("session replay failed",
				zap.String(logger.FieldSession, sessionID),
				zap.Int("replayed_messages", humans),
				zap.Error(err),
			)
			m.forgetEmpty(sessionID, e)
			return nil, fmt.Errorf("%w: %s (replay failed)", storage.ErrSessionNotFound, sessionID)
		}
		humans++
	}

	m.logger.Info("workflow restored from persisted log",
		zap.String(logger.FieldSession, sessionID),
		zap.Int("replayed_messages", humans),
	)

	e.wf = wf
	return wf, nil
}

func (m *Manager) entry(sessionID string) *entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, exists := m.entries[sessionID]
	if !exists {
		e = &entry{}
		m.entries[sessionID] = e
	}
	return e
}

// forgetEmpty removes a placeholder slot created for an id that turned out
// to have no usable session, so lookups of bad ids do not grow the cache.
func (m *Manager) forgetEmpty(sessionID string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, exists := m.entries[sessionID]; exists && current == e && current.wf == nil {
		delete(m.entries, sessionID)
	}
}
