package funnel

import (
	"fmt"
	"strings"

	"github.com/locvowork/offer_funnel/internal/domain"
	"github.com/locvowork/offer_funnel/pkg/sheet"
	"github.com/shopspring/decimal"
)

// SheetToken is the sheet identity used inside synthesized references.
func SheetToken(sheetName string) string {
	return strings.ToUpper(strings.TrimSpace(sheetName))
}

// SynthesizeReference builds the key for a row that has no offer reference.
// token is opaque here; callers decide how a sheet is spelled (see SheetToken).
func SynthesizeReference(token string, slOrRow int) string {
	return fmt.Sprintf("AUTO-%s-%d", token, slOrRow)
}

// Ledger is a reference-keyed aggregate of ledger rows. Values are summed,
// never overwritten.
type Ledger struct {
	order   []string
	entries map[string]*domain.LedgerEntry
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{entries: make(map[string]*domain.LedgerEntry)}
}

// Add folds one row's contribution into the entry for ref.
func (l *Ledger) Add(ref string, offerValue, poValue decimal.Decimal, won bool) {
	e, ok := l.entries[ref]
	if !ok {
		e = &domain.LedgerEntry{OfferReference: ref}
		l.entries[ref] = e
		l.order = append(l.order, ref)
	}
	e.OfferValue = e.OfferValue.Add(offerValue)
	e.POValue = e.POValue.Add(poValue)
	e.IsWon = e.IsWon || won
	e.Rows++
}

// Get returns the entry for ref.
func (l *Ledger) Get(ref string) (domain.LedgerEntry, bool) {
	e, ok := l.entries[ref]
	if !ok {
		return domain.LedgerEntry{}, false
	}
	return *e, true
}

// Len is the number of distinct references.
func (l *Ledger) Len() int {
	return len(l.order)
}

// Entries returns the entries in first-seen order.
func (l *Ledger) Entries() []domain.LedgerEntry {
	out := make([]domain.LedgerEntry, 0, len(l.order))
	for _, ref := range l.order {
		out = append(out, *l.entries[ref])
	}
	return out
}

// AggregateLedger walks every data row after headerIndex, continuation rows
// included. A row takes part when its Offer Value is a positive number; Reg
// Date is not required. Rows without a reference are keyed by SL, or by
// their 1-based sheet row number when SL is not a positive number.
func AggregateLedger(token string, rows []sheet.Row, headerIndex int, cols ColumnMap) *Ledger {
	ledger := NewLedger()
	for i := headerIndex + 1; i < len(rows); i++ {
		row := rows[i]
		offerValue, ok := cols.Cell(row, FieldOfferValue).Float()
		if !ok || offerValue <= 0 {
			continue
		}

		ref := strings.TrimSpace(cols.Cell(row, FieldOfferReference).String())
		if ref == "" {
			slOrRow := i + 1
			if sl, isNum := row.CellAt(SLColumn).Float(); isNum && sl > 0 {
				slOrRow = int(sl)
			}
			ref = SynthesizeReference(token, slOrRow)
		}

		poNumber := cols.Cell(row, FieldPONumber).String()
		poValue := money(cols.Cell(row, FieldPOValue))
		contribution := decimal.Zero
		if poValue.Valid {
			contribution = poValue.Decimal
		}
		ledger.Add(ref, decimal.NewFromFloat(offerValue), contribution, isWonEvidence(poNumber, poValue))
	}
	return ledger
}

// Rollup summarizes entries under label.
func Rollup(label string, entries []domain.LedgerEntry) domain.LedgerRollup {
	r := domain.LedgerRollup{Label: label}
	for _, e := range entries {
		r.OfferCount++
		r.TotalOfferValue = r.TotalOfferValue.Add(e.OfferValue)
		if e.IsWon {
			r.WonCount++
			r.WonValue = r.WonValue.Add(e.POValue)
		}
	}
	r.ConversionRate = conversionRate(r.WonCount, r.OfferCount)
	return r
}

// MergeRollups adds rollups together under a new label.
func MergeRollups(label string, parts ...domain.LedgerRollup) domain.LedgerRollup {
	r := domain.LedgerRollup{Label: label}
	for _, p := range parts {
		r.OfferCount += p.OfferCount
		r.TotalOfferValue = r.TotalOfferValue.Add(p.TotalOfferValue)
		r.WonCount += p.WonCount
		r.WonValue = r.WonValue.Add(p.WonValue)
	}
	r.ConversionRate = conversionRate(r.WonCount, r.OfferCount)
	return r
}

func conversionRate(won, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(won) / float64(total) * 100
}

// BuildLedgerReport rolls sheet ledgers up per salesperson, per zone (fixed
// zone order) and into a grand total.
func BuildLedgerReport(ledgers []domain.SheetLedger) domain.LedgerReport {
	report := domain.LedgerReport{}
	byZone := make(map[domain.Zone][]domain.LedgerRollup)
	for _, l := range ledgers {
		r := Rollup(l.SalesPersonName, l.Entries)
		report.SalesPeople = append(report.SalesPeople, r)
		byZone[l.Zone] = append(byZone[l.Zone], r)
	}
	for _, z := range domain.Zones {
		report.Zones = append(report.Zones, MergeRollups(string(z), byZone[z]...))
	}
	report.GrandTotal = MergeRollups("GRAND TOTAL", report.SalesPeople...)
	return report
}
