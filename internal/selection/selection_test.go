package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToggleFlipsMembership(t *testing.T) {
	m := NewManager(100, "R$")

	assert.True(t, m.Toggle(5))
	assert.Equal(t, []int{5}, m.Numbers())

	assert.False(t, m.Toggle(5))
	assert.Empty(t, m.Numbers())
}

func TestNumbersKeepPickOrder(t *testing.T) {
	m := NewManager(100, "R$")
	m.Toggle(10)
	m.Toggle(3)
	m.Toggle(7)

	assert.Equal(t, []int{10, 3, 7}, m.Numbers())
	assert.Equal(t, []int{3, 7, 10}, m.Sorted())
}

func TestClearEmptiesSelection(t *testing.T) {
	m := NewManager(100, "R$")
	m.Toggle(1)
	m.Toggle(2)

	m.Clear()

	assert.Zero(t, m.Count())
	assert.Empty(t, m.Numbers())
}

func TestTotals(t *testing.T) {
	cases := []struct {
		name       string
		priceCents int64
		picks      []int
		wantCents  int64
		wantTotal  string
	}{
		{name: "empty selection", priceCents: 100, picks: nil, wantCents: 0, wantTotal: "R$ 0.00"},
		{name: "three at one real", priceCents: 100, picks: []int{10, 3, 7}, wantCents: 300, wantTotal: "R$ 3.00"},
		{name: "fractional price", priceCents: 250, picks: []int{1, 2}, wantCents: 500, wantTotal: "R$ 5.00"},
		{name: "cents remainder", priceCents: 99, picks: []int{1, 2, 3}, wantCents: 297, wantTotal: "R$ 2.97"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := NewManager(tc.priceCents, "R$")
			for _, n := range tc.picks {
				m.Toggle(n)
			}
			assert.Equal(t, tc.wantCents, m.TotalCents())
			assert.Equal(t, tc.wantTotal, m.FormatTotal())
		})
	}
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "0.05", FormatCents(5))
	assert.Equal(t, "12.30", FormatCents(1230))
	assert.Equal(t, "-1.50", FormatCents(-150))
}
