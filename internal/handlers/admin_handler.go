package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lotsaero/rifa-backend/internal/engine"
	"github.com/lotsaero/rifa-backend/internal/models"
)

// AdminHandler exposes the privileged console operations. All routes
// sit behind the JWT middleware; this surface is equivalent to direct
// database access and is treated as such.
type AdminHandler struct {
	engine *engine.Service
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(eng *engine.Service) *AdminHandler {
	return &AdminHandler{engine: eng}
}

// GetSold handles GET /api/v1/admin/numbers/sold
func (h *AdminHandler) GetSold(c *gin.Context) {
	numbers := h.engine.ListSold()
	c.JSON(http.StatusOK, gin.H{"numbers": numbers, "total": len(numbers)})
}

// GetReserved handles GET /api/v1/admin/numbers/reserved
func (h *AdminHandler) GetReserved(c *gin.Context) {
	numbers := h.engine.ListReserved()
	c.JSON(http.StatusOK, gin.H{"numbers": numbers, "total": len(numbers)})
}

// GetAvailable handles GET /api/v1/admin/numbers/available
func (h *AdminHandler) GetAvailable(c *gin.Context) {
	numbers := h.engine.ListAvailable()
	c.JSON(http.StatusOK, gin.H{"numbers": numbers, "total": len(numbers)})
}

// MarkSold handles POST /api/v1/admin/numbers/mark-sold
func (h *AdminHandler) MarkSold(c *gin.Context) {
	h.mutateNumbers(c, h.engine.MarkSold)
}

// MarkReserved handles POST /api/v1/admin/numbers/mark-reserved
func (h *AdminHandler) MarkReserved(c *gin.Context) {
	h.mutateNumbers(c, h.engine.MarkReserved)
}

// Free handles POST /api/v1/admin/numbers/free
func (h *AdminHandler) Free(c *gin.Context) {
	h.mutateNumbers(c, h.engine.Free)
}

// Expire handles POST /api/v1/admin/reservations/expire
func (h *AdminHandler) Expire(c *gin.Context) {
	freed, err := h.engine.ExpireReservations(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"freed": freed, "total": len(freed)})
}

// Reset handles POST /api/v1/admin/reset
func (h *AdminHandler) Reset(c *gin.Context) {
	var req models.ResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.engine.Reset(c.Request.Context(), req.Confirm); err != nil {
		if errors.Is(err, engine.ErrConfirmationRequired) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "all raffle data reset"})
}

// Export handles GET /api/v1/admin/export
func (h *AdminHandler) Export(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Export())
}

// Import handles POST /api/v1/admin/import. Malformed input aborts
// with no partial state change.
func (h *AdminHandler) Import(c *gin.Context) {
	var snap models.RaffleSnapshot
	if err := c.ShouldBindJSON(&snap); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed snapshot: " + err.Error()})
		return
	}

	if err := h.engine.Import(c.Request.Context(), &snap); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "snapshot imported"})
}

// Commands handles GET /api/v1/admin/commands, listing the console
// operations for operators working against the API by hand.
func (h *AdminHandler) Commands(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"commands": []gin.H{
			{"method": "POST", "path": "/api/v1/admin/numbers/mark-sold", "description": "mark numbers as sold"},
			{"method": "POST", "path": "/api/v1/admin/numbers/mark-reserved", "description": "mark numbers as reserved"},
			{"method": "POST", "path": "/api/v1/admin/numbers/free", "description": "free numbers"},
			{"method": "GET", "path": "/api/v1/admin/numbers/sold", "description": "view sold numbers"},
			{"method": "GET", "path": "/api/v1/admin/numbers/reserved", "description": "view reserved numbers"},
			{"method": "GET", "path": "/api/v1/admin/numbers/available", "description": "view available numbers"},
			{"method": "POST", "path": "/api/v1/admin/reservations/expire", "description": "release expired reservations"},
			{"method": "POST", "path": "/api/v1/admin/reset", "description": "reset all raffle data (requires confirm)"},
			{"method": "GET", "path": "/api/v1/admin/export", "description": "export snapshot"},
			{"method": "POST", "path": "/api/v1/admin/import", "description": "import snapshot"},
		},
	})
}

// mutateNumbers binds the shared numbers payload and applies one of
// the batch engine operations.
func (h *AdminHandler) mutateNumbers(c *gin.Context, op func(ctx context.Context, numbers []int) error) {
	var req models.NumbersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := op(c.Request.Context(), req.Numbers); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"numbers": req.Numbers})
}
