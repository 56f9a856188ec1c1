// Package whatsapp builds the outbound messaging handoff: a wa.me
// deep link carrying a pre-formatted purchase message. Delivery is
// fire-and-forget; there is no confirmation channel.
package whatsapp

import (
	"fmt"
	"net/url"
	"strings"
)

// Handoff builds deep links for one configured destination number.
type Handoff struct {
	number string
}

// NewHandoff creates a Handoff for the given destination, typically
// the raffle organizer's number in international format.
func NewHandoff(number string) *Handoff {
	return &Handoff{number: number}
}

// PurchaseMessage renders the checkout message in the order the
// organizer expects: numbers, count, total, name, phone.
func PurchaseMessage(numbers []int, total string, name, phone string) string {
	parts := make([]string, len(numbers))
	for i, n := range numbers {
		parts[i] = fmt.Sprintf("%d", n)
	}

	var b strings.Builder
	b.WriteString("Olá! Gostaria de comprar os seguintes números da rifa da L.O.T.S. Aerodesign:\n\n")
	b.WriteString("Números: " + strings.Join(parts, ", ") + "\n")
	b.WriteString(fmt.Sprintf("Quantidade: %d\n", len(numbers)))
	b.WriteString("Valor total: " + total + "\n\n")
	b.WriteString("Nome: " + name + "\n")
	b.WriteString("Telefone: " + phone)
	return b.String()
}

// Link returns the wa.me URL that opens a chat with the destination
// pre-filled with text.
func (h *Handoff) Link(text string) string {
	return fmt.Sprintf("https://wa.me/%s?text=%s", h.number, url.QueryEscape(text))
}
