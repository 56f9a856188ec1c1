// Package mirror maintains the local cached copy of the raffle
// document, kept current by the repository's push feed. All reads go
// through the mirror, never the remote store directly.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lotsaero/rifa-backend/internal/models"
	"github.com/lotsaero/rifa-backend/internal/repositories"
)

// Status reflects the health of the push subscription.
type Status string

const (
	// StatusConnected means the change feed delivered events normally.
	StatusConnected Status = "connected"
	// StatusDegraded means the feed failed after a successful initial
	// load. The last-known document stays readable.
	StatusDegraded Status = "degraded"
)

// Handler receives a full document snapshot after every replacement.
// Deliveries are serialized; a handler is never invoked reentrantly.
type Handler func(doc *models.RaffleDocument)

// Mirror is the in-memory cached copy of the raffle document.
type Mirror struct {
	repo     repositories.RaffleRepository
	raffleID string
	logger   zerolog.Logger

	mu     sync.RWMutex
	doc    *models.RaffleDocument
	status Status

	subMu   sync.Mutex
	subs    map[int]Handler
	nextSub int
}

// New constructs a Mirror. Load must be called before reads.
func New(repo repositories.RaffleRepository, raffleID string, logger zerolog.Logger) *Mirror {
	return &Mirror{
		repo:     repo,
		raffleID: raffleID,
		logger:   logger.With().Str("component", "mirror").Logger(),
		status:   StatusDegraded,
		subs:     map[int]Handler{},
	}
}

// Load fetches the current document, creating an empty one remotely
// if the raffle has never been accessed. A load failure is fatal to
// the session: the caller is expected to abort startup.
func (m *Mirror) Load(ctx context.Context) error {
	doc, err := m.repo.Get(ctx, m.raffleID)
	if errors.Is(err, repositories.ErrNotFound) {
		doc = models.NewRaffleDocument(m.raffleID, time.Now())
		if err := m.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("failed to create raffle document: %w", err)
		}
		m.logger.Info().Str("raffle_id", m.raffleID).Msg("created empty raffle document")
	} else if err != nil {
		return fmt.Errorf("failed to load raffle document: %w", err)
	}

	m.mu.Lock()
	m.doc = doc
	m.status = StatusConnected
	m.mu.Unlock()
	return nil
}

// Run consumes the push feed until ctx is cancelled. On every event
// the three shared fields are replaced wholesale, then subscribers
// are notified. If the feed fails the mirror degrades but keeps
// serving the last-known document.
func (m *Mirror) Run(ctx context.Context) error {
	events, err := m.repo.Watch(ctx, m.raffleID)
	if err != nil {
		m.setStatus(StatusDegraded)
		return fmt.Errorf("failed to open change feed: %w", err)
	}
	m.setStatus(StatusConnected)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case doc, ok := <-events:
			if !ok {
				m.setStatus(StatusDegraded)
				m.logger.Warn().Msg("change feed closed, mirror degraded to last-known state")
				return nil
			}
			m.Apply(doc)
		}
	}
}

// Apply replaces the cached document wholesale and notifies
// subscribers. Also used by the engine to reflect its own writes
// without waiting for the change-feed echo.
func (m *Mirror) Apply(doc *models.RaffleDocument) {
	m.mu.Lock()
	m.doc = doc
	m.mu.Unlock()
	m.notify(doc)
}

// Document returns a deep copy of the cached document.
func (m *Mirror) Document() *models.RaffleDocument {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.doc.Clone()
}

// Status returns the current connection status.
func (m *Mirror) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Subscribe registers a handler for document replacements and returns
// an unsubscribe function. The handler immediately receives the
// current document so new subscribers never start stale.
func (m *Mirror) Subscribe(h Handler) func() {
	m.subMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = h
	m.subMu.Unlock()

	if doc := m.current(); doc != nil {
		m.subMu.Lock()
		h(doc)
		m.subMu.Unlock()
	}

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

func (m *Mirror) current() *models.RaffleDocument {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.doc == nil {
		return nil
	}
	return m.doc.Clone()
}

// notify delivers the snapshot to every subscriber under subMu, which
// serializes deliveries from concurrent Apply calls.
func (m *Mirror) notify(doc *models.RaffleDocument) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	for _, h := range m.subs {
		h(doc.Clone())
	}
}

func (m *Mirror) setStatus(s Status) {
	m.mu.Lock()
	m.status = s
	m.mu.Unlock()
}
