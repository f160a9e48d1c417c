package domain

import "time"

type Product struct {
	ID          string
	Name        string
	Description string
	PriceCents  int64
	FileKey     string
	ImageKey    string
	Available   bool
	CreatedAt   time.Time
}

// ProductDraft carries the admin form data for a new product.
// FileKey and ImageKey reference blobs already written to the asset store.
type ProductDraft struct {
	Name        string
	Description string
	PriceCents  int64
	FileKey     string
	ImageKey    string
}

// ProductPatch carries the admin form data for an edit.
// Empty FileKey or ImageKey means "keep the stored blob".
type ProductPatch struct {
	Name        string
	Description string
	PriceCents  int64
	FileKey     string
	ImageKey    string
}
