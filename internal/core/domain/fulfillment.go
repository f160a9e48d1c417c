package domain

import "time"

// Charge is the payment-provider view of a captured payment.
// AmountCents is the amount the provider captured, not the catalog price.
type Charge struct {
	EventID     string
	ProductID   string
	Email       string
	AmountCents int64
}

type Customer struct {
	ID    string
	Email string
}

type Order struct {
	ID         string
	CustomerID string
	ProductID  string
	PriceCents int64
	CreatedAt  time.Time
}

// DownloadVerification authorizes retrieval of a purchased file
// strictly before ExpiresAt. The expiry is fixed at creation.
type DownloadVerification struct {
	ID        string
	ProductID string
	ExpiresAt time.Time
}

func (v DownloadVerification) Usable(now time.Time) bool {
	return now.Before(v.ExpiresAt)
}

// Receipt is the data the buyer-facing email is rendered from.
type Receipt struct {
	Email          string
	ProductName    string
	OrderID        string
	OrderCreatedAt time.Time
	PriceCents     int64
	VerificationID string
}

// OrderPlacedEvent is published to the order audit stream
// after a charge is fulfilled.
type OrderPlacedEvent struct {
	OrderID     string
	ProductID   string
	ProductName string
	Email       string
	PriceCents  int64
	PlacedAt    time.Time
}
