package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/lotsaero/rifa-backend/internal/config"
	"github.com/lotsaero/rifa-backend/internal/mirror"
	"github.com/lotsaero/rifa-backend/internal/models"
	"github.com/lotsaero/rifa-backend/internal/repositories"
)

// ErrConfirmationRequired guards the destructive full reset.
var ErrConfirmationRequired = errors.New("reset requires explicit confirmation")

// ErrEmptySelection is returned when a reservation is attempted with
// no numbers.
var ErrEmptySelection = errors.New("selection is empty")

// ConflictError reports selection members already sold or reserved at
// commit time. The whole commit is aborted; there is no partial
// reservation.
type ConflictError struct {
	Numbers []int
}

func (e *ConflictError) Error() string {
	parts := make([]string, len(e.Numbers))
	for i, n := range e.Numbers {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return "numbers no longer available: " + strings.Join(parts, ", ")
}

// RangeError reports numbers outside the configured raffle range.
type RangeError struct {
	Numbers []int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("numbers out of range: %v", e.Numbers)
}

// Service orchestrates the reservation engine: it validates against
// the current mirror, applies the pure transitions and persists the
// full updated document. Every write is a wholesale overwrite; the
// lost-update race between concurrent server instances is a known
// property of the document-store contract, not a bug to patch here.
type Service struct {
	repo   repositories.RaffleRepository
	mirror *mirror.Mirror
	cfg    config.RaffleConfig
	clock  clockwork.Clock
	logger zerolog.Logger

	// mu serializes read-modify-write cycles within this process.
	mu sync.Mutex
}

// NewService creates a reservation engine service.
func NewService(repo repositories.RaffleRepository, m *mirror.Mirror, cfg config.RaffleConfig, clock clockwork.Clock, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		mirror: m,
		cfg:    cfg,
		clock:  clock,
		logger: logger.With().Str("component", "engine").Logger(),
	}
}

// Reserve is the commit step of the checkout protocol: it re-validates
// the selection against the current mirror, reserves every number not
// already held and persists. On conflict the whole commit aborts with
// a ConflictError and nothing is written.
func (s *Service) Reserve(ctx context.Context, numbers []int) ([]int, error) {
	if len(numbers) == 0 {
		return nil, ErrEmptySelection
	}
	if out := s.outOfRange(numbers); len(out) > 0 {
		return nil, &RangeError{Numbers: out}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.mirror.Document()
	if c := conflicts(doc, numbers); len(c) > 0 {
		return nil, &ConflictError{Numbers: c}
	}

	sorted := models.SortedCopy(numbers)
	reserve(doc, sorted, s.clock.Now())
	if err := s.persist(ctx, doc); err != nil {
		return nil, err
	}

	s.logger.Info().Ints("numbers", sorted).Msg("numbers reserved")
	return sorted, nil
}

// MarkSold promotes numbers to sold, releasing any reservation first.
// Idempotent per number.
func (s *Service) MarkSold(ctx context.Context, numbers []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.mirror.Document()
	markSold(doc, numbers)
	if err := s.persist(ctx, doc); err != nil {
		return err
	}
	s.logger.Info().Ints("numbers", numbers).Msg("numbers marked as sold")
	return nil
}

// MarkReserved reserves numbers with a fresh timestamp. Numbers
// already sold are silently skipped: sale takes precedence.
func (s *Service) MarkReserved(ctx context.Context, numbers []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.mirror.Document()
	markReserved(doc, numbers, s.clock.Now())
	if err := s.persist(ctx, doc); err != nil {
		return err
	}
	s.logger.Info().Ints("numbers", numbers).Msg("numbers marked as reserved")
	return nil
}

// Free releases numbers from both sold and reserved. This is the only
// operation that can undo a sale.
func (s *Service) Free(ctx context.Context, numbers []int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.mirror.Document()
	free(doc, numbers)
	if err := s.persist(ctx, doc); err != nil {
		return err
	}
	s.logger.Info().Ints("numbers", numbers).Msg("numbers freed")
	return nil
}

// ExpireReservations releases every reservation older than the
// configured expiry and returns the freed numbers. An empty result is
// a no-op: nothing is persisted.
func (s *Service) ExpireReservations(ctx context.Context) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.mirror.Document()
	ttl := time.Duration(s.cfg.ExpiryMinutes) * time.Minute
	freed := expire(doc, s.clock.Now(), ttl)
	if len(freed) == 0 {
		return []int{}, nil
	}
	if err := s.persist(ctx, doc); err != nil {
		return nil, err
	}
	s.logger.Info().Ints("numbers", freed).Msg("expired reservations released")
	return freed, nil
}

// Reset clears sold, reserved and timestamps entirely. Destructive;
// the caller must pass confirm=true.
func (s *Service) Reset(ctx context.Context, confirm bool) error {
	if !confirm {
		return ErrConfirmationRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.mirror.Document()
	resetAll(doc)
	if err := s.persist(ctx, doc); err != nil {
		return err
	}
	s.logger.Warn().Msg("raffle data reset")
	return nil
}

// Export produces a serializable snapshot of the shared state. Pure
// read, no mutation.
func (s *Service) Export() *models.RaffleSnapshot {
	doc := s.mirror.Document()
	return &models.RaffleSnapshot{
		SoldNumbers:           doc.SoldNumbers,
		ReservedNumbers:       doc.ReservedNumbers,
		ReservationTimestamps: doc.ReservationTimestamps,
		ExportedAt:            s.clock.Now(),
	}
}

// Import wholesale-replaces the shared state from a snapshot and
// persists. Missing fields default to empty.
func (s *Service) Import(ctx context.Context, snap *models.RaffleSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.mirror.Document()
	applySnapshot(doc, snap)
	if err := s.persist(ctx, doc); err != nil {
		return err
	}
	s.logger.Info().
		Int("sold", len(doc.SoldNumbers)).
		Int("reserved", len(doc.ReservedNumbers)).
		Msg("snapshot imported")
	return nil
}

// ListSold returns the sold numbers in ascending order.
func (s *Service) ListSold() []int {
	return models.SortedCopy(s.mirror.Document().SoldNumbers)
}

// ListReserved returns the reserved numbers in ascending order.
func (s *Service) ListReserved() []int {
	return models.SortedCopy(s.mirror.Document().ReservedNumbers)
}

// ListAvailable returns the configured range minus sold minus
// reserved, in ascending order.
func (s *Service) ListAvailable() []int {
	return available(s.mirror.Document(), s.cfg.StartNumber, s.cfg.EndNumber)
}

// StateView builds the public projection served to browser clients.
func (s *Service) StateView() models.StateView {
	doc := s.mirror.Document()
	total := s.cfg.TotalNumbers()
	taken := len(doc.SoldNumbers) + len(doc.ReservedNumbers)
	return models.StateView{
		SoldNumbers:     models.SortedCopy(doc.SoldNumbers),
		ReservedNumbers: models.SortedCopy(doc.ReservedNumbers),
		TotalNumbers:    total,
		ProgressPercent: float64(taken) / float64(total) * 100,
		Connected:       s.mirror.Status() == mirror.StatusConnected,
	}
}

// RunSweeper periodically expires stale reservations until ctx is
// cancelled. Disabled when the configured interval is zero; expiry is
// on-demand by default, so the sweeper is opt-in.
func (s *Service) RunSweeper(ctx context.Context) {
	if s.cfg.SweepIntervalMinute <= 0 {
		return
	}
	interval := time.Duration(s.cfg.SweepIntervalMinute) * time.Minute
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", interval).Msg("expiry sweeper started")
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if _, err := s.ExpireReservations(ctx); err != nil {
				s.logger.Error().Err(err).Msg("expiry sweep failed")
			}
		}
	}
}

// persist writes the full document and reflects it into the mirror so
// local reads observe the write before the change-feed echo arrives.
func (s *Service) persist(ctx context.Context, doc *models.RaffleDocument) error {
	if err := s.repo.Replace(ctx, doc); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist raffle document")
		return fmt.Errorf("failed to persist raffle document: %w", err)
	}
	s.mirror.Apply(doc)
	return nil
}

func (s *Service) outOfRange(numbers []int) []int {
	var out []int
	for _, n := range numbers {
		if n < s.cfg.StartNumber || n > s.cfg.EndNumber {
			out = append(out, n)
		}
	}
	return out
}
