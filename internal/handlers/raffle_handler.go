package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lotsaero/rifa-backend/internal/config"
	"github.com/lotsaero/rifa-backend/internal/engine"
	"github.com/lotsaero/rifa-backend/internal/models"
	"github.com/lotsaero/rifa-backend/internal/selection"
	"github.com/lotsaero/rifa-backend/internal/services"
)

// RaffleHandler serves the public raffle surface: state, constants
// and the checkout commit.
type RaffleHandler struct {
	engine   *engine.Service
	checkout *services.CheckoutService
	cfg      *config.Config
}

// NewRaffleHandler creates a new RaffleHandler
func NewRaffleHandler(eng *engine.Service, checkout *services.CheckoutService, cfg *config.Config) *RaffleHandler {
	return &RaffleHandler{engine: eng, checkout: checkout, cfg: cfg}
}

// GetState handles GET /api/v1/raffle/state
func (h *RaffleHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.StateView())
}

// GetConfig handles GET /api/v1/raffle/config. It exposes only the
// constants a browser client needs to render the grid.
func (h *RaffleHandler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"raffleId":      h.cfg.Raffle.ID,
		"startNumber":   h.cfg.Raffle.StartNumber,
		"endNumber":     h.cfg.Raffle.EndNumber,
		"priceCents":    h.cfg.Raffle.PriceCents,
		"currency":      h.cfg.Raffle.Currency,
		"expiryMinutes": h.cfg.Raffle.ExpiryMinutes,
	})
}

// Checkout handles POST /api/v1/raffle/checkout. It is the stateless
// variant of the WebSocket checkout: the selection travels in the
// request body.
func (h *RaffleHandler) Checkout(c *gin.Context) {
	var req models.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sel := selection.NewManager(h.cfg.Raffle.PriceCents, h.cfg.Raffle.Currency)
	seen := map[int]bool{}
	for _, n := range req.Numbers {
		if !seen[n] {
			seen[n] = true
			sel.Toggle(n)
		}
	}

	resp, err := h.checkout.Commit(c.Request.Context(), sel, req.Name, req.Phone)
	if err != nil {
		status, body := checkoutErrorResponse(err)
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// checkoutErrorResponse maps commit failures onto the error taxonomy:
// validation and stale-conflict errors are client-recoverable,
// anything else is a persistence failure surfaced distinctly.
func checkoutErrorResponse(err error) (int, gin.H) {
	var conflict *engine.ConflictError
	if errors.As(err, &conflict) {
		return http.StatusConflict, gin.H{"error": err.Error(), "conflicts": conflict.Numbers}
	}
	var badRange *engine.RangeError
	if errors.As(err, &badRange) {
		return http.StatusBadRequest, gin.H{"error": err.Error()}
	}
	switch {
	case errors.Is(err, services.ErrNoSelection),
		errors.Is(err, services.ErrMissingName),
		errors.Is(err, services.ErrInvalidPhone),
		errors.Is(err, engine.ErrEmptySelection):
		return http.StatusBadRequest, gin.H{"error": err.Error()}
	}
	return http.StatusBadGateway, gin.H{"error": "failed to save reservation, please try again"}
}
