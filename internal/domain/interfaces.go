package domain

import (
	"context"
	"errors"
)

// ErrNotFound is returned by stores when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// OfferRepository defines the interface for offer data access
type OfferRepository interface {
	UpsertBatch(ctx context.Context, offers []Offer) error
	GetByKey(ctx context.Context, salesPerson string, slNumber int) (*Offer, error)
	List(ctx context.Context, filter OfferFilter) ([]Offer, error)
}

// OfferIndex is the full-text search side of offer storage
type OfferIndex interface {
	BulkIndexOffers(ctx context.Context, offers []Offer) error
	SearchOffers(ctx context.Context, text string, size int) ([]Offer, error)
}

// LedgerSnapshotStore keeps per-run copies of the deduplicated ledger
type LedgerSnapshotStore interface {
	SaveLedgers(ctx context.Context, runID string, ledgers []SheetLedger) error
	GetRunLedger(ctx context.Context, runID, salesPerson string) ([]LedgerEntry, error)
}
