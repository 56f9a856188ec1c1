package mirror

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotsaero/rifa-backend/internal/models"
	"github.com/lotsaero/rifa-backend/internal/repositories"
)

type stubRepo struct {
	mu      sync.Mutex
	doc     *models.RaffleDocument
	getErr  error
	created bool
	events  chan *models.RaffleDocument
}

func newStubRepo() *stubRepo {
	return &stubRepo{events: make(chan *models.RaffleDocument, 4)}
}

func (s *stubRepo) Get(_ context.Context, raffleID string) (*models.RaffleDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	if s.doc == nil {
		return nil, repositories.ErrNotFound
	}
	return s.doc.Clone(), nil
}

func (s *stubRepo) Create(_ context.Context, doc *models.RaffleDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc.Clone()
	s.created = true
	return nil
}

func (s *stubRepo) Replace(_ context.Context, doc *models.RaffleDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc.Clone()
	return nil
}

func (s *stubRepo) Watch(context.Context, string) (<-chan *models.RaffleDocument, error) {
	return s.events, nil
}

func TestLoadCreatesDocumentWhenAbsent(t *testing.T) {
	repo := newStubRepo()
	m := New(repo, "rifa-1", zerolog.Nop())

	require.NoError(t, m.Load(context.Background()))

	assert.True(t, repo.created)
	doc := m.Document()
	assert.Equal(t, "rifa-1", doc.ID)
	assert.Empty(t, doc.SoldNumbers)
	assert.Empty(t, doc.ReservedNumbers)
}

func TestLoadFailureIsFatal(t *testing.T) {
	repo := newStubRepo()
	repo.getErr = errors.New("connection refused")
	m := New(repo, "rifa-1", zerolog.Nop())

	err := m.Load(context.Background())

	require.Error(t, err)
	assert.Equal(t, StatusDegraded, m.Status())
}

func TestApplyReplacesWholesaleAndNotifies(t *testing.T) {
	repo := newStubRepo()
	m := New(repo, "rifa-1", zerolog.Nop())
	require.NoError(t, m.Load(context.Background()))

	var got []*models.RaffleDocument
	unsubscribe := m.Subscribe(func(doc *models.RaffleDocument) {
		got = append(got, doc)
	})
	defer unsubscribe()

	// Subscribe delivers the current document up front.
	require.Len(t, got, 1)

	update := models.NewRaffleDocument("rifa-1", time.Now())
	update.SoldNumbers = []int{1, 2}
	update.ReservedNumbers = []int{3}
	update.ReservationTimestamps = map[string]int64{"3": 99}
	m.Apply(update)

	require.Len(t, got, 2)
	assert.Equal(t, []int{1, 2}, got[1].SoldNumbers)
	assert.Equal(t, []int{1, 2}, m.Document().SoldNumbers)
	assert.Equal(t, map[string]int64{"3": 99}, m.Document().ReservationTimestamps)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	repo := newStubRepo()
	m := New(repo, "rifa-1", zerolog.Nop())
	require.NoError(t, m.Load(context.Background()))

	calls := 0
	unsubscribe := m.Subscribe(func(*models.RaffleDocument) { calls++ })
	require.Equal(t, 1, calls)

	unsubscribe()
	m.Apply(models.NewRaffleDocument("rifa-1", time.Now()))

	assert.Equal(t, 1, calls)
}

func TestRunConsumesFeedAndDegradesOnClose(t *testing.T) {
	repo := newStubRepo()
	m := New(repo, "rifa-1", zerolog.Nop())
	require.NoError(t, m.Load(context.Background()))

	updates := make(chan *models.RaffleDocument, 4)
	m.Subscribe(func(doc *models.RaffleDocument) {
		select {
		case updates <- doc:
		default:
		}
	})
	<-updates // initial delivery

	done := make(chan error, 1)
	go func() { done <- m.Run(context.Background()) }()

	update := models.NewRaffleDocument("rifa-1", time.Now())
	update.SoldNumbers = []int{42}
	repo.events <- update

	select {
	case doc := <-updates:
		assert.Equal(t, []int{42}, doc.SoldNumbers)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for feed delivery")
	}

	// Feed failure degrades the mirror but keeps the last-known state.
	close(repo.events)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Run to return")
	}

	assert.Equal(t, StatusDegraded, m.Status())
	assert.Equal(t, []int{42}, m.Document().SoldNumbers)
}

func TestDocumentReturnsCopy(t *testing.T) {
	repo := newStubRepo()
	m := New(repo, "rifa-1", zerolog.Nop())
	require.NoError(t, m.Load(context.Background()))

	doc := m.Document()
	doc.SoldNumbers = append(doc.SoldNumbers, 999)

	assert.NotContains(t, m.Document().SoldNumbers, 999)
}
