package models

// CheckoutRequest is the commit payload: the visitor's in-progress
// selection plus the contact fields required for the WhatsApp handoff.
type CheckoutRequest struct {
	Numbers []int  `json:"numbers" binding:"required"`
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone" binding:"required"`
}

// CheckoutResponse reports a successful reservation. The client is
// expected to open WhatsAppURL in a new tab; delivery is
// fire-and-forget.
type CheckoutResponse struct {
	ReservedNumbers []int  `json:"reservedNumbers"`
	Count           int    `json:"count"`
	Total           string `json:"total"`
	WhatsAppURL     string `json:"whatsappUrl"`
}

// NumbersRequest is the shared payload for the admin operations that
// act on a batch of numbers.
type NumbersRequest struct {
	Numbers []int `json:"numbers" binding:"required"`
}

// ResetRequest guards the destructive full reset behind an explicit
// confirmation flag.
type ResetRequest struct {
	Confirm bool `json:"confirm"`
}
