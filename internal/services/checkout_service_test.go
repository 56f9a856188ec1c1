package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lotsaero/rifa-backend/internal/config"
	"github.com/lotsaero/rifa-backend/internal/engine"
	"github.com/lotsaero/rifa-backend/internal/mirror"
	"github.com/lotsaero/rifa-backend/internal/models"
	"github.com/lotsaero/rifa-backend/internal/repositories"
	"github.com/lotsaero/rifa-backend/internal/selection"
	"github.com/lotsaero/rifa-backend/pkg/whatsapp"
)

type memRepo struct {
	mu         sync.Mutex
	doc        *models.RaffleDocument
	replaceErr error
}

func (r *memRepo) Get(_ context.Context, raffleID string) (*models.RaffleDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.doc == nil {
		return nil, repositories.ErrNotFound
	}
	return r.doc.Clone(), nil
}

func (r *memRepo) Create(_ context.Context, doc *models.RaffleDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.doc = doc.Clone()
	return nil
}

func (r *memRepo) Replace(_ context.Context, doc *models.RaffleDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.replaceErr != nil {
		return r.replaceErr
	}
	r.doc = doc.Clone()
	return nil
}

func (r *memRepo) Watch(ctx context.Context, _ string) (<-chan *models.RaffleDocument, error) {
	ch := make(chan *models.RaffleDocument)
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

var checkoutCfg = config.RaffleConfig{
	ID:            "test-raffle",
	StartNumber:   1,
	EndNumber:     350,
	PriceCents:    100,
	Currency:      "R$",
	ExpiryMinutes: 30,
}

func newCheckoutFixture(t *testing.T) (*CheckoutService, *engine.Service, *memRepo) {
	t.Helper()

	repo := &memRepo{}
	logger := zerolog.Nop()
	m := mirror.New(repo, checkoutCfg.ID, logger)
	require.NoError(t, m.Load(context.Background()))

	eng := engine.NewService(repo, m, checkoutCfg, clockwork.NewFakeClock(), logger)
	handoff := whatsapp.NewHandoff("553196581509")
	return NewCheckoutService(eng, handoff, checkoutCfg, logger), eng, repo
}

func pick(t *testing.T, numbers ...int) *selection.Manager {
	t.Helper()
	sel := selection.NewManager(checkoutCfg.PriceCents, checkoutCfg.Currency)
	for _, n := range numbers {
		sel.Toggle(n)
	}
	return sel
}

func TestCommitSuccess(t *testing.T) {
	svc, _, repo := newCheckoutFixture(t)
	sel := pick(t, 10, 3, 7)

	resp, err := svc.Commit(context.Background(), sel, "Ana", "31 99999-8888")
	require.NoError(t, err)

	assert.Equal(t, []int{3, 7, 10}, resp.ReservedNumbers)
	assert.Equal(t, 3, resp.Count)
	assert.Equal(t, "R$ 3.00", resp.Total)
	assert.Contains(t, resp.WhatsAppURL, "https://wa.me/553196581509?text=")
	assert.Contains(t, resp.WhatsAppURL, "3%2C+7%2C+10")

	for _, n := range []int{3, 7, 10} {
		assert.True(t, repo.doc.IsReserved(n))
	}
	assert.Zero(t, sel.Count(), "selection cleared after successful commit")
}

func TestCommitValidation(t *testing.T) {
	cases := []struct {
		name    string
		numbers []int
		buyer   string
		phone   string
		wantErr error
	}{
		{name: "empty selection", numbers: nil, buyer: "Ana", phone: "31999998888", wantErr: ErrNoSelection},
		{name: "blank name", numbers: []int{1}, buyer: "   ", phone: "31999998888", wantErr: ErrMissingName},
		{name: "short phone", numbers: []int{1}, buyer: "Ana", phone: "999-8888", wantErr: ErrInvalidPhone},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, _, repo := newCheckoutFixture(t)
			sel := pick(t, tc.numbers...)

			_, err := svc.Commit(context.Background(), sel, tc.buyer, tc.phone)

			assert.ErrorIs(t, err, tc.wantErr)
			assert.Empty(t, repo.doc.ReservedNumbers, "no state change on validation failure")
			assert.Len(t, sel.Numbers(), len(tc.numbers), "selection kept for retry")
		})
	}
}

func TestCommitAbortsOnStaleConflict(t *testing.T) {
	svc, eng, _ := newCheckoutFixture(t)
	require.NoError(t, eng.MarkReserved(context.Background(), []int{5}))
	sel := pick(t, 5, 10)

	_, err := svc.Commit(context.Background(), sel, "Ana", "31999998888")

	var conflict *engine.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, []int{5}, conflict.Numbers)
	assert.Equal(t, 2, sel.Count(), "selection kept so the visitor can reselect")
}

func TestCommitWriteFailureSkipsHandoffAndKeepsSelection(t *testing.T) {
	svc, _, repo := newCheckoutFixture(t)
	repo.replaceErr = errors.New("write timeout")
	sel := pick(t, 1, 2)

	resp, err := svc.Commit(context.Background(), sel, "Ana", "31999998888")

	require.Error(t, err)
	assert.Nil(t, resp, "no handoff link on write failure")
	assert.Equal(t, 2, sel.Count())
	assert.False(t, errors.Is(err, ErrNoSelection))
	assert.False(t, strings.Contains(err.Error(), "wa.me"))
}

func TestCommitMessageFormatsPhone(t *testing.T) {
	svc, _, _ := newCheckoutFixture(t)
	sel := pick(t, 1)

	resp, err := svc.Commit(context.Background(), sel, "Ana", "31996581509")
	require.NoError(t, err)

	// The deep link carries the display-formatted phone.
	assert.Contains(t, resp.WhatsAppURL, "%2831%29+99658-1509")
}
