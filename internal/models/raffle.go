package models

import (
	"sort"
	"strconv"
	"time"
)

// RaffleDocument is the single shared record holding the authoritative
// state for one raffle instance. It is read, mutated and written back
// as a whole; there is no per-field versioning.
type RaffleDocument struct {
	ID                    string           `bson:"_id" json:"id"`
	SoldNumbers           []int            `bson:"soldNumbers" json:"soldNumbers"`
	ReservedNumbers       []int            `bson:"reservedNumbers" json:"reservedNumbers"`
	ReservationTimestamps map[string]int64 `bson:"reservationTimestamps" json:"reservationTimestamps"`
	CreatedAt             time.Time        `bson:"createdAt" json:"createdAt"`
	UpdatedAt             time.Time        `bson:"updatedAt" json:"updatedAt"`
}

// NewRaffleDocument returns an empty document for the given raffle ID.
func NewRaffleDocument(id string, now time.Time) *RaffleDocument {
	return &RaffleDocument{
		ID:                    id,
		SoldNumbers:           []int{},
		ReservedNumbers:       []int{},
		ReservationTimestamps: map[string]int64{},
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

// Clone returns a deep copy so callers can mutate freely without
// racing readers of the original.
func (d *RaffleDocument) Clone() *RaffleDocument {
	c := &RaffleDocument{
		ID:                    d.ID,
		SoldNumbers:           make([]int, len(d.SoldNumbers)),
		ReservedNumbers:       make([]int, len(d.ReservedNumbers)),
		ReservationTimestamps: make(map[string]int64, len(d.ReservationTimestamps)),
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	}
	copy(c.SoldNumbers, d.SoldNumbers)
	copy(c.ReservedNumbers, d.ReservedNumbers)
	for k, v := range d.ReservationTimestamps {
		c.ReservationTimestamps[k] = v
	}
	return c
}

// IsSold reports whether n is permanently allocated.
func (d *RaffleDocument) IsSold(n int) bool { return containsInt(d.SoldNumbers, n) }

// IsReserved reports whether n is temporarily held.
func (d *RaffleDocument) IsReserved(n int) bool { return containsInt(d.ReservedNumbers, n) }

// ReservationTime returns the reservation instant for n, if any.
func (d *RaffleDocument) ReservationTime(n int) (time.Time, bool) {
	ms, ok := d.ReservationTimestamps[strconv.Itoa(n)]
	if !ok {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

func containsInt(s []int, n int) bool {
	for _, v := range s {
		if v == n {
			return true
		}
	}
	return false
}

// RaffleSnapshot is the export/import file format. All fields are
// optional on import; missing fields default to empty.
type RaffleSnapshot struct {
	SoldNumbers           []int            `json:"soldNumbers"`
	ReservedNumbers       []int            `json:"reservedNumbers"`
	ReservationTimestamps map[string]int64 `json:"reservationTimestamps"`
	ExportedAt            time.Time        `json:"exportedAt"`
}

// StateView is the read-only projection of the mirror served to
// clients, both over REST and as the WebSocket push payload.
type StateView struct {
	SoldNumbers     []int   `json:"soldNumbers"`
	ReservedNumbers []int   `json:"reservedNumbers"`
	TotalNumbers    int     `json:"totalNumbers"`
	ProgressPercent float64 `json:"progressPercent"`
	Connected       bool    `json:"connected"`
}

// SortedCopy returns the numbers in ascending order without touching
// the input slice.
func SortedCopy(numbers []int) []int {
	out := make([]int, len(numbers))
	copy(out, numbers)
	sort.Ints(out)
	return out
}
