// Package storage defines the persistence collaborator the session manager
// relies on. The message log kept here is the sole source of truth for
// conversation state; live workflow instances are derived from it.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/spigell/ai-interviewer/internal/chat"
	"github.com/spigell/ai-interviewer/internal/interview"
)

// ErrSessionNotFound is returned for unknown session ids.
var ErrSessionNotFound = errors.New("session not found")

// Record is the persisted state of one interview session.
type Record struct {
	ID         string
	Config     interview.Config
	Messages   []chat.Message
	Evaluation string
	Report     string
	CreatedAt  time.Time
}

// Store persists session records and their append-only message logs. The
// core treats implementations as durable and order-preserving.
type Store interface {
	CreateSession(ctx context.Context, record *Record) error
	// LoadSession returns a copy of the record; mutating it does not
	// affect the stored state. Fails with ErrSessionNotFound.
	LoadSession(ctx context.Context, sessionID string) (*Record, error)
	ListSessions(ctx context.Context, limit, offset int) ([]*Record, error)
	AppendMessage(ctx context.Context, sessionID string, msg chat.Message) error
	// SetEvaluation records the interview results. It is a no-op for
	// fields that are already populated, keeping the set-once invariant.
	SetEvaluation(ctx context.Context, sessionID, evaluation, report string) error
	DeleteSession(ctx context.Context, sessionID string) (bool, error)
}
