package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lotsaero/rifa-backend/internal/config"
	"github.com/lotsaero/rifa-backend/internal/engine"
	"github.com/lotsaero/rifa-backend/internal/models"
	"github.com/lotsaero/rifa-backend/internal/selection"
	"github.com/lotsaero/rifa-backend/internal/utils"
	"github.com/lotsaero/rifa-backend/pkg/whatsapp"
)

// Validation errors are recovered locally by the visitor: nothing is
// mutated and the request may be retried immediately.
var (
	ErrNoSelection  = errors.New("select at least one number")
	ErrMissingName  = errors.New("full name is required")
	ErrInvalidPhone = errors.New("phone must have at least 10 digits")
)

// CheckoutService runs the commit protocol: validate the form,
// re-validate the selection against the current mirror, reserve,
// persist and hand off to WhatsApp. A persistence failure aborts the
// commit before the handoff; the selection is cleared only on
// success.
type CheckoutService struct {
	engine  *engine.Service
	handoff *whatsapp.Handoff
	cfg     config.RaffleConfig
	logger  zerolog.Logger
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(eng *engine.Service, handoff *whatsapp.Handoff, cfg config.RaffleConfig, logger zerolog.Logger) *CheckoutService {
	return &CheckoutService{
		engine:  eng,
		handoff: handoff,
		cfg:     cfg,
		logger:  logger.With().Str("component", "checkout").Logger(),
	}
}

// Commit converts the session's selection into a persisted
// reservation and returns the WhatsApp handoff link. On any error the
// selection is left intact so the visitor can retry or reselect.
func (s *CheckoutService) Commit(ctx context.Context, sel *selection.Manager, name, phone string) (*models.CheckoutResponse, error) {
	if sel.Count() == 0 {
		return nil, ErrNoSelection
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrMissingName
	}
	if !utils.ValidPhone(phone) {
		return nil, ErrInvalidPhone
	}

	reserved, err := s.engine.Reserve(ctx, sel.Numbers())
	if err != nil {
		return nil, err
	}

	total := sel.FormatTotal()
	message := whatsapp.PurchaseMessage(reserved, total, name, utils.FormatPhone(phone))
	link := s.handoff.Link(message)

	// Only a successful persist reaches this point; now the selection
	// can be discarded.
	count := sel.Count()
	sel.Clear()

	s.logger.Info().
		Ints("numbers", reserved).
		Str("name", name).
		Msg("checkout committed, handing off to WhatsApp")

	return &models.CheckoutResponse{
		ReservedNumbers: reserved,
		Count:           count,
		Total:           total,
		WhatsAppURL:     link,
	}, nil
}
