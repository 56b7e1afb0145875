package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/locvowork/offer_funnel/internal/domain"
	"github.com/locvowork/offer_funnel/internal/repository/builder"
	"github.com/shopspring/decimal"
)

const offersTable = "offers"

// upsertBatchSize keeps a batch insert well under the Postgres limit of
// 65535 bind parameters.
const upsertBatchSize = 500

// OffersSchema creates the offers table used by OfferRepository.
const OffersSchema = `
CREATE TABLE IF NOT EXISTS offers (
	sales_person      TEXT NOT NULL,
	sl_number         INTEGER NOT NULL,
	zone              TEXT NOT NULL,
	reg_date          TEXT NOT NULL DEFAULT '',
	company           TEXT NOT NULL DEFAULT '',
	location          TEXT NOT NULL DEFAULT '',
	contact_name      TEXT NOT NULL DEFAULT '',
	contact_number    TEXT NOT NULL DEFAULT '',
	email             TEXT NOT NULL DEFAULT '',
	product_type      TEXT NOT NULL DEFAULT '',
	offer_reference   TEXT NOT NULL DEFAULT '',
	offer_date        TEXT NOT NULL DEFAULT '',
	offer_value       NUMERIC(18, 2),
	offer_month       TEXT NOT NULL DEFAULT '',
	po_expected_month TEXT NOT NULL DEFAULT '',
	probability       DOUBLE PRECISION,
	po_number         TEXT NOT NULL DEFAULT '',
	po_date           TEXT NOT NULL DEFAULT '',
	po_value          NUMERIC(18, 2),
	po_received_month TEXT NOT NULL DEFAULT '',
	open_funnel_note  TEXT NOT NULL DEFAULT '',
	remarks           TEXT NOT NULL DEFAULT '',
	machine_serials   TEXT[] NOT NULL DEFAULT '{}',
	asset_count       INTEGER NOT NULL DEFAULT 0,
	status            TEXT NOT NULL,
	PRIMARY KEY (sales_person, sl_number)
)`

var offerColumns = []string{
	"sales_person", "sl_number", "zone", "reg_date", "company", "location",
	"contact_name", "contact_number", "email", "product_type", "offer_reference",
	"offer_date", "offer_value", "offer_month", "po_expected_month", "probability",
	"po_number", "po_date", "po_value", "po_received_month", "open_funnel_note",
	"remarks", "machine_serials", "asset_count", "status",
}

// offerRow is the scan target for the offers table.
type offerRow struct {
	SalesPerson     string              `db:"sales_person"`
	SLNumber        int                 `db:"sl_number"`
	Zone            string              `db:"zone"`
	RegDate         string              `db:"reg_date"`
	Company         string              `db:"company"`
	Location        string              `db:"location"`
	ContactName     string              `db:"contact_name"`
	ContactNumber   string              `db:"contact_number"`
	Email           string              `db:"email"`
	ProductType     string              `db:"product_type"`
	OfferReference  string              `db:"offer_reference"`
	OfferDate       string              `db:"offer_date"`
	OfferValue      decimal.NullDecimal `db:"offer_value"`
	OfferMonth      string              `db:"offer_month"`
	POExpectedMonth string              `db:"po_expected_month"`
	Probability     sql.NullFloat64     `db:"probability"`
	PONumber        string              `db:"po_number"`
	PODate          string              `db:"po_date"`
	POValue         decimal.NullDecimal `db:"po_value"`
	POReceivedMonth string              `db:"po_received_month"`
	OpenFunnelNote  string              `db:"open_funnel_note"`
	Remarks         string              `db:"remarks"`
	MachineSerials  pq.StringArray      `db:"machine_serials"`
	AssetCount      int                 `db:"asset_count"`
	Status          string              `db:"status"`
}

func (r offerRow) toDomain() domain.Offer {
	o := domain.Offer{
		SLNumber:        r.SLNumber,
		SalesPersonName: r.SalesPerson,
		Zone:            domain.Zone(r.Zone),
		RegDate:         r.RegDate,
		Company:         r.Company,
		Location:        r.Location,
		ContactName:     r.ContactName,
		ContactNumber:   r.ContactNumber,
		Email:           r.Email,
		ProductType:     r.ProductType,
		OfferReference:  r.OfferReference,
		OfferDate:       r.OfferDate,
		OfferValue:      r.OfferValue,
		OfferMonth:      r.OfferMonth,
		POExpectedMonth: r.POExpectedMonth,
		PONumber:        r.PONumber,
		PODate:          r.PODate,
		POValue:         r.POValue,
		POReceivedMonth: r.POReceivedMonth,
		OpenFunnelNote:  r.OpenFunnelNote,
		Remarks:         r.Remarks,
		MachineSerials:  []string(r.MachineSerials),
		AssetCount:      r.AssetCount,
		Status:          domain.Status(r.Status),
	}
	if o.MachineSerials == nil {
		o.MachineSerials = []string{}
	}
	if r.Probability.Valid {
		p := r.Probability.Float64
		o.Probability = &p
	}
	return o
}

// offerValues lists o's column values in offerColumns order.
func offerValues(o domain.Offer) []interface{} {
	serials := o.MachineSerials
	if serials == nil {
		serials = []string{}
	}
	return []interface{}{
		o.SalesPersonName, o.SLNumber, string(o.Zone), o.RegDate, o.Company, o.Location,
		o.ContactName, o.ContactNumber, o.Email, o.ProductType, o.OfferReference,
		o.OfferDate, o.OfferValue, o.OfferMonth, o.POExpectedMonth, o.Probability,
		o.PONumber, o.PODate, o.POValue, o.POReceivedMonth, o.OpenFunnelNote,
		o.Remarks, pq.Array(serials), o.AssetCount, string(o.Status),
	}
}

// OfferRepository stores canonical offers in Postgres.
type OfferRepository struct {
	db *sqlx.DB
}

// NewOfferRepository creates a new instance of OfferRepository
func NewOfferRepository(db *sql.DB) *OfferRepository {
	return &OfferRepository{db: sqlx.NewDb(db, "postgres")}
}

// EnsureSchema creates the offers table when it does not exist.
func (r *OfferRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, OffersSchema); err != nil {
		return fmt.Errorf("failed to create offers table: %w", err)
	}
	return nil
}

// buildUpsert builds one multi-row upsert keyed by (sales_person, sl_number).
func buildUpsert(offers []domain.Offer) (string, []interface{}, error) {
	b := builder.NewSQLBuilder().Insert(offersTable, offerColumns...)
	for _, o := range offers {
		b.Values(offerValues(o)...)
	}
	return b.OnConflict("sales_person", "sl_number").DoUpdate(offerColumns[2:]...).BuildSafe()
}

// UpsertBatch inserts or refreshes offers in one transaction.
func (r *OfferRepository) UpsertBatch(ctx context.Context, offers []domain.Offer) error {
	if len(offers) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for start := 0; start < len(offers); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(offers) {
			end = len(offers)
		}
		query, args, err := buildUpsert(offers[start:end])
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to upsert offers: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit offers: %w", err)
	}
	return nil
}

// GetByKey retrieves one offer by its identity.
func (r *OfferRepository) GetByKey(ctx context.Context, salesPerson string, slNumber int) (*domain.Offer, error) {
	query, args := builder.NewSQLBuilder().
		Select(offerColumns...).
		From(offersTable).
		Where("sales_person = ?", salesPerson).
		Where("sl_number = ?", slNumber).
		Build()

	var row offerRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("offer %s-%d: %w", salesPerson, slNumber, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get offer: %w", err)
	}
	offer := row.toDomain()
	return &offer, nil
}

func buildList(filter domain.OfferFilter) (string, []interface{}) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	return builder.NewSQLBuilder().
		Select(offerColumns...).
		From(offersTable).
		WhereIf(filter.Zone != "", "zone = ?", string(filter.Zone)).
		WhereIf(filter.Status != "", "status = ?", string(filter.Status)).
		OrderBy("sales_person").
		OrderBy("sl_number").
		Limit(limit).
		Offset(filter.Offset).
		Build()
}

// List retrieves offers matching the filter, ordered by identity.
func (r *OfferRepository) List(ctx context.Context, filter domain.OfferFilter) ([]domain.Offer, error) {
	query, args := buildList(filter)

	var rows []offerRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list offers: %w", err)
	}

	offers := make([]domain.Offer, 0, len(rows))
	for _, row := range rows {
		offers = append(offers, row.toDomain())
	}
	return offers, nil
}
