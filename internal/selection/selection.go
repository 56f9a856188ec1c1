// Package selection tracks a single visitor's in-progress, unsaved
// choice of numbers. The selection is exclusively owned by one
// session and is never shared; it is discarded on disconnect, on
// explicit clear, or after a successful checkout.
package selection

import (
	"fmt"
	"sync"

	"github.com/lotsaero/rifa-backend/internal/models"
)

// Manager holds the ordered sequence of numbers the visitor picked.
// Availability is not checked on toggle; the commit path re-validates
// against the mirror, which may have changed concurrently.
type Manager struct {
	mu       sync.Mutex
	numbers  []int
	price    int64 // cents per number
	currency string
}

// NewManager creates an empty selection with the configured price per
// number, in cents.
func NewManager(priceCents int64, currency string) *Manager {
	return &Manager{
		numbers:  []int{},
		price:    priceCents,
		currency: currency,
	}
}

// Toggle flips membership of n and reports whether n is selected
// afterwards.
func (m *Manager) Toggle(n int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, v := range m.numbers {
		if v == n {
			m.numbers = append(m.numbers[:i], m.numbers[i+1:]...)
			return false
		}
	}
	m.numbers = append(m.numbers, n)
	return true
}

// Clear empties the selection, independent of shared state.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.numbers = []int{}
}

// Numbers returns a copy of the selection in pick order.
func (m *Manager) Numbers() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int, len(m.numbers))
	copy(out, m.numbers)
	return out
}

// Sorted returns a copy of the selection in ascending numeric order.
func (m *Manager) Sorted() []int {
	return models.SortedCopy(m.Numbers())
}

// Count returns how many numbers are selected.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.numbers)
}

// TotalCents returns count times price-per-number. All arithmetic is
// in integer cents; rounding to two decimals happens only at display
// time via FormatTotal.
func (m *Manager) TotalCents() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.numbers)) * m.price
}

// FormatTotal renders the total with the currency prefix, e.g.
// "R$ 3.00".
func (m *Manager) FormatTotal() string {
	return fmt.Sprintf("%s %s", m.currency, FormatCents(m.TotalCents()))
}

// FormatCents renders an amount of cents with two decimal places.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
