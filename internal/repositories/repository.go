package repositories

import (
	"context"
	"errors"

	"github.com/lotsaero/rifa-backend/internal/models"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("document not found")

// RaffleRepository is the remote document store boundary: one raffle
// document keyed by raffle ID, with wholesale writes and a push feed
// of full-document snapshots.
type RaffleRepository interface {
	// Get returns the raffle document, or ErrNotFound if absent.
	Get(ctx context.Context, raffleID string) (*models.RaffleDocument, error)
	// Create inserts a new document. Used once, on first access.
	Create(ctx context.Context, doc *models.RaffleDocument) error
	// Replace overwrites the whole document. Last write wins; there is
	// no compare-and-swap on purpose.
	Replace(ctx context.Context, doc *models.RaffleDocument) error
	// Watch subscribes to remote changes and delivers the full updated
	// document on every write until ctx is cancelled or the feed
	// fails, after which the channel is closed.
	Watch(ctx context.Context, raffleID string) (<-chan *models.RaffleDocument, error)
}

// AdminUserRepository stores trusted-operator accounts
type AdminUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.AdminUser, error)
	Create(ctx context.Context, user *models.AdminUser) error
}
