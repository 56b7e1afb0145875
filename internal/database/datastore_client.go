package database

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/datastore"
	"github.com/locvowork/offer_funnel/internal/domain"
	"github.com/shopspring/decimal"
)

const ledgerSnapshotKind = "LedgerSnapshot"

// datastoreBatchLimit is the most entities one PutMulti accepts.
const datastoreBatchLimit = 500

// LedgerSnapshot is one ledger entry as stored in Datastore. Amounts are
// decimal strings since Datastore has no exact decimal type.
type LedgerSnapshot struct {
	RunID          string    `datastore:"run_id"`
	SalesPerson    string    `datastore:"sales_person"`
	Zone           string    `datastore:"zone"`
	OfferReference string    `datastore:"offer_reference"`
	OfferValue     string    `datastore:"offer_value,noindex"`
	POValue        string    `datastore:"po_value,noindex"`
	IsWon          bool      `datastore:"is_won"`
	Rows           int       `datastore:"rows,noindex"`
	CreatedAt      time.Time `datastore:"created_at"`
}

// SnapshotName is the entity key name of one snapshot.
func SnapshotName(runID, sheet, reference string) string {
	return fmt.Sprintf("%s-%s-%s", runID, sheet, reference)
}

// NewLedgerSnapshots flattens ledgers into snapshot entities and their key names.
func NewLedgerSnapshots(runID string, ledgers []domain.SheetLedger, now time.Time) ([]string, []LedgerSnapshot) {
	var names []string
	var snaps []LedgerSnapshot
	for _, l := range ledgers {
		for _, e := range l.Entries {
			names = append(names, SnapshotName(runID, l.SalesPersonName, e.OfferReference))
			snaps = append(snaps, LedgerSnapshot{
				RunID:          runID,
				SalesPerson:    l.SalesPersonName,
				Zone:           string(l.Zone),
				OfferReference: e.OfferReference,
				OfferValue:     e.OfferValue.String(),
				POValue:        e.POValue.String(),
				IsWon:          e.IsWon,
				Rows:           e.Rows,
				CreatedAt:      now,
			})
		}
	}
	return names, snaps
}

// ToEntry converts a snapshot back to a ledger entry.
func (s LedgerSnapshot) ToEntry() domain.LedgerEntry {
	return domain.LedgerEntry{
		OfferReference: s.OfferReference,
		OfferValue:     parseAmount(s.OfferValue).Decimal,
		POValue:        parseAmount(s.POValue).Decimal,
		IsWon:          s.IsWon,
		Rows:           s.Rows,
	}
}

// DatastoreClient wraps the cloud datastore client
type DatastoreClient struct {
	client *datastore.Client
}

// NewDatastoreClient creates a new wrapper
func NewDatastoreClient(client *datastore.Client) *DatastoreClient {
	return &DatastoreClient{client: client}
}

// DialDatastore connects to the project with default credentials.
func DialDatastore(ctx context.Context, projectID string) (*DatastoreClient, error) {
	client, err := datastore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create datastore client: %w", err)
	}
	return NewDatastoreClient(client), nil
}

// Close releases the underlying client.
func (dc *DatastoreClient) Close() error {
	if dc == nil || dc.client == nil {
		return nil
	}
	return dc.client.Close()
}

// SaveLedgers stores every ledger entry of a run, in batches.
func (dc *DatastoreClient) SaveLedgers(ctx context.Context, runID string, ledgers []domain.SheetLedger) error {
	if dc == nil || dc.client == nil {
		return fmt.Errorf("datastore client is nil")
	}

	names, snaps := NewLedgerSnapshots(runID, ledgers, time.Now().UTC())
	for start := 0; start < len(snaps); start += datastoreBatchLimit {
		end := start + datastoreBatchLimit
		if end > len(snaps) {
			end = len(snaps)
		}
		keys := make([]*datastore.Key, 0, end-start)
		for _, name := range names[start:end] {
			keys = append(keys, datastore.NameKey(ledgerSnapshotKind, name, nil))
		}
		if _, err := dc.client.PutMulti(ctx, keys, snaps[start:end]); err != nil {
			return fmt.Errorf("failed to save ledger snapshots: %w", err)
		}
	}
	return nil
}

// GetRunLedger retrieves the snapshots of one run for one salesperson.
func (dc *DatastoreClient) GetRunLedger(ctx context.Context, runID, salesPerson string) ([]domain.LedgerEntry, error) {
	if dc == nil || dc.client == nil {
		return nil, fmt.Errorf("datastore client is nil")
	}

	var result []LedgerSnapshot
	q := datastore.NewQuery(ledgerSnapshotKind).
		FilterField("run_id", "=", runID).
		FilterField("sales_person", "=", salesPerson)

	if _, err := dc.client.GetAll(ctx, q, &result); err != nil {
		return nil, err
	}

	entries := make([]domain.LedgerEntry, 0, len(result))
	for _, s := range result {
		entries = append(entries, s.ToEntry())
	}
	return entries, nil
}

// parseAmount reads a stored decimal string; blank or malformed is null.
func parseAmount(s string) decimal.NullDecimal {
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}
