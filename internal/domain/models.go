package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ==================== FUNNEL ENUMS ====================

// Zone is the sales territory a salesperson's sheet belongs to.
type Zone string

const (
	ZoneWest  Zone = "WEST"
	ZoneSouth Zone = "SOUTH"
	ZoneNorth Zone = "NORTH"
	ZoneEast  Zone = "EAST"
)

// Zones is the fixed zone set, in report order.
var Zones = []Zone{ZoneWest, ZoneSouth, ZoneNorth, ZoneEast}

// ParseZone normalizes a zone name and rejects anything outside the fixed set.
func ParseZone(s string) (Zone, error) {
	z := Zone(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Zones {
		if z == known {
			return z, nil
		}
	}
	return "", fmt.Errorf("unknown zone %q", s)
}

// Status is the lifecycle stage derived for an offer.
type Status string

const (
	StatusInitial      Status = "INITIAL"
	StatusProposalSent Status = "PROPOSAL_SENT"
	StatusPOReceived   Status = "PO_RECEIVED"
)

// Statuses lists every status, in report order.
var Statuses = []Status{StatusInitial, StatusProposalSent, StatusPOReceived}

// ParseStatus normalizes s to one of Statuses.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Statuses {
		if st == known {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// ==================== CONFIGURATION ====================

// SheetContext identifies one salesperson's ledger sheet.
type SheetContext struct {
	SalesPersonName string `json:"sales_person_name" yaml:"name"`
	Zone            Zone   `json:"zone" yaml:"zone"`
	// SheetName defaults to SalesPersonName when empty.
	SheetName string `json:"sheet_name,omitempty" yaml:"sheet"`
}

// Sheet returns the workbook sheet name this context reads.
func (s SheetContext) Sheet() string {
	if s.SheetName != "" {
		return s.SheetName
	}
	return s.SalesPersonName
}

// ==================== OFFER ====================

// Offer is one canonical commercial record, possibly spanning several rows.
type Offer struct {
	SLNumber        int                 `json:"sl_number" db:"sl_number"`
	SalesPersonName string              `json:"sales_person_name" db:"sales_person"`
	Zone            Zone                `json:"zone" db:"zone"`
	RegDate         string              `json:"reg_date" db:"reg_date"`
	Company         string              `json:"company" db:"company"`
	Location        string              `json:"location" db:"location"`
	ContactName     string              `json:"contact_name" db:"contact_name"`
	ContactNumber   string              `json:"contact_number" db:"contact_number"`
	Email           string              `json:"email" db:"email"`
	ProductType     string              `json:"product_type" db:"product_type"`
	OfferReference  string              `json:"offer_reference" db:"offer_reference"`
	OfferDate       string              `json:"offer_date" db:"offer_date"`
	OfferValue      decimal.NullDecimal `json:"offer_value" db:"offer_value"`
	OfferMonth      string              `json:"offer_month" db:"offer_month"`
	POExpectedMonth string              `json:"po_expected_month" db:"po_expected_month"`
	Probability     *float64            `json:"probability" db:"probability"`
	PONumber        string              `json:"po_number" db:"po_number"`
	PODate          string              `json:"po_date" db:"po_date"`
	POValue         decimal.NullDecimal `json:"po_value" db:"po_value"`
	POReceivedMonth string              `json:"po_received_month" db:"po_received_month"`
	OpenFunnelNote  string              `json:"open_funnel_note" db:"open_funnel_note"`
	Remarks         string              `json:"remarks" db:"remarks"`
	MachineSerials  []string            `json:"machine_serials" db:"machine_serials"`
	AssetCount      int                 `json:"asset_count" db:"asset_count"`
	Status          Status              `json:"status" db:"status"`
}

// Key is the offer identity: salesperson plus SL number.
func (o Offer) Key() string {
	return fmt.Sprintf("%s-%d", o.SalesPersonName, o.SLNumber)
}

// OfferFilter defines criteria for listing stored offers.
type OfferFilter struct {
	Zone   Zone
	Status Status
	Limit  int
	Offset int
}

// ==================== LEDGER ====================

// LedgerEntry aggregates every row that shares an offer reference on one sheet.
type LedgerEntry struct {
	OfferReference string          `json:"offer_reference"`
	OfferValue     decimal.Decimal `json:"offer_value"`
	POValue        decimal.Decimal `json:"po_value"`
	IsWon          bool            `json:"is_won"`
	// Rows counts the contributing rows.
	Rows int `json:"rows"`
}

// LedgerRollup summarizes a set of ledger entries.
type LedgerRollup struct {
	Label           string          `json:"label"`
	OfferCount      int             `json:"offer_count"`
	TotalOfferValue decimal.Decimal `json:"total_offer_value"`
	WonCount        int             `json:"won_count"`
	WonValue        decimal.Decimal `json:"won_value"`
	ConversionRate  float64         `json:"conversion_rate"`
}

// LedgerReport is the per-salesperson, per-zone and grand-total view.
type LedgerReport struct {
	SalesPeople []LedgerRollup `json:"sales_people"`
	Zones       []LedgerRollup `json:"zones"`
	GrandTotal  LedgerRollup   `json:"grand_total"`
}

// ==================== RECONCILIATION ====================

// SheetSummary reconciles one sheet's extraction against its metadata cell.
type SheetSummary struct {
	SalesPersonName string `json:"sales_person_name"`
	Zone            Zone   `json:"zone"`
	SheetName       string `json:"sheet_name"`
	HeaderRowIndex  int    `json:"header_row_index"`
	ExpectedCount   int    `json:"expected_count"`
	ExtractedCount  int    `json:"extracted_count"`
	Matched         bool   `json:"matched"`
}

// FunnelSummary holds the cross-sheet rollups.
type FunnelSummary struct {
	TotalOffers      int            `json:"total_offers"`
	ByZone           map[Zone]int   `json:"by_zone"`
	ByStatus         map[Status]int `json:"by_status"`
	MultiAssetOffers int            `json:"multi_asset_offers"`
	MatchedSheets    int            `json:"matched_sheets"`
	MismatchedSheets int            `json:"mismatched_sheets"`
	SkippedSheets    []string       `json:"skipped_sheets"`
}

// SheetLedger is the deduplicated ledger of one sheet.
type SheetLedger struct {
	SalesPersonName string        `json:"sales_person_name"`
	Zone            Zone          `json:"zone"`
	Entries         []LedgerEntry `json:"entries"`
}

// RunResult is everything one reconciliation run produces.
type RunResult struct {
	RunID   string         `json:"run_id"`
	Offers  []Offer        `json:"offers"`
	Sheets  []SheetSummary `json:"sheets"`
	Summary FunnelSummary  `json:"summary"`
	Ledgers []SheetLedger  `json:"ledgers"`
	Report  LedgerReport   `json:"ledger_report"`
}
