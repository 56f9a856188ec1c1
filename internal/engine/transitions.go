// Package engine implements the reservation state machine over the
// shared raffle document: available -> reserved -> sold, with
// reserved -> available via release or expiry and available -> sold
// directly via administrative action. Sales are terminal except for
// an explicit free.
package engine

import (
	"sort"
	"strconv"
	"time"

	"github.com/lotsaero/rifa-backend/internal/models"
)

// reserve adds every number not already reserved, stamping the
// reservation instant. Idempotent per number.
func reserve(doc *models.RaffleDocument, numbers []int, now time.Time) {
	ms := now.UnixMilli()
	for _, n := range numbers {
		if doc.IsReserved(n) {
			continue
		}
		doc.ReservedNumbers = append(doc.ReservedNumbers, n)
		doc.ReservationTimestamps[strconv.Itoa(n)] = ms
	}
}

// markSold promotes numbers to sold, dropping any reservation
// bookkeeping first. Idempotent per number.
func markSold(doc *models.RaffleDocument, numbers []int) {
	for _, n := range numbers {
		doc.ReservedNumbers = removeInt(doc.ReservedNumbers, n)
		delete(doc.ReservationTimestamps, strconv.Itoa(n))
		if !doc.IsSold(n) {
			doc.SoldNumbers = append(doc.SoldNumbers, n)
		}
	}
}

// markReserved reserves numbers that are neither sold nor already
// reserved. Sold numbers are silently skipped: sale takes precedence.
func markReserved(doc *models.RaffleDocument, numbers []int, now time.Time) {
	ms := now.UnixMilli()
	for _, n := range numbers {
		if doc.IsSold(n) || doc.IsReserved(n) {
			continue
		}
		doc.ReservedNumbers = append(doc.ReservedNumbers, n)
		doc.ReservationTimestamps[strconv.Itoa(n)] = ms
	}
}

// free releases numbers from both sold and reserved. This is the only
// transition out of sold.
func free(doc *models.RaffleDocument, numbers []int) {
	for _, n := range numbers {
		doc.SoldNumbers = removeInt(doc.SoldNumbers, n)
		doc.ReservedNumbers = removeInt(doc.ReservedNumbers, n)
		delete(doc.ReservationTimestamps, strconv.Itoa(n))
	}
}

// expire releases every reservation older than ttl and returns the
// freed numbers in ascending order. A no-op is not an error.
func expire(doc *models.RaffleDocument, now time.Time, ttl time.Duration) []int {
	var freed []int
	for key, ms := range doc.ReservationTimestamps {
		if now.Sub(time.UnixMilli(ms)) <= ttl {
			continue
		}
		n, err := strconv.Atoi(key)
		if err != nil {
			// A malformed key cannot correspond to a reserved number;
			// drop the orphaned entry.
			delete(doc.ReservationTimestamps, key)
			continue
		}
		freed = append(freed, n)
		delete(doc.ReservationTimestamps, key)
	}
	for _, n := range freed {
		doc.ReservedNumbers = removeInt(doc.ReservedNumbers, n)
	}
	sort.Ints(freed)
	return freed
}

// resetAll clears the three shared fields entirely.
func resetAll(doc *models.RaffleDocument) {
	doc.SoldNumbers = []int{}
	doc.ReservedNumbers = []int{}
	doc.ReservationTimestamps = map[string]int64{}
}

// applySnapshot wholesale-replaces the three fields from an imported
// snapshot. Missing fields default to empty; the export timestamp is
// ignored.
func applySnapshot(doc *models.RaffleDocument, snap *models.RaffleSnapshot) {
	doc.SoldNumbers = []int{}
	doc.ReservedNumbers = []int{}
	doc.ReservationTimestamps = map[string]int64{}
	if snap.SoldNumbers != nil {
		doc.SoldNumbers = append(doc.SoldNumbers, snap.SoldNumbers...)
	}
	if snap.ReservedNumbers != nil {
		doc.ReservedNumbers = append(doc.ReservedNumbers, snap.ReservedNumbers...)
	}
	for k, v := range snap.ReservationTimestamps {
		doc.ReservationTimestamps[k] = v
	}
}

// conflicts returns the selection members already sold or reserved,
// in ascending order.
func conflicts(doc *models.RaffleDocument, numbers []int) []int {
	var out []int
	for _, n := range numbers {
		if doc.IsSold(n) || doc.IsReserved(n) {
			out = append(out, n)
		}
	}
	sort.Ints(out)
	return out
}

// available returns the configured range minus sold minus reserved,
// ascending.
func available(doc *models.RaffleDocument, start, end int) []int {
	out := make([]int, 0, end-start+1)
	for n := start; n <= end; n++ {
		if doc.IsSold(n) || doc.IsReserved(n) {
			continue
		}
		out = append(out, n)
	}
	return out
}

func removeInt(s []int, n int) []int {
	out := s[:0]
	for _, v := range s {
		if v != n {
			out = append(out, v)
		}
	}
	return out
}
