package funnel

import (
	"strings"

	"github.com/locvowork/offer_funnel/internal/domain"
	"github.com/locvowork/offer_funnel/pkg/sheet"
	"github.com/shopspring/decimal"
)

type scanState int

const (
	awaitingPrimary scanState = iota
	collectingContinuations
)

func (s scanState) String() string {
	if s == collectingContinuations {
		return "collecting-continuations"
	}
	return "awaiting-primary"
}

// IsPrimaryRow reports whether row starts a new offer: a non-empty Reg Date
// and a positive numeric SL. An unresolved Reg Date column never qualifies.
func IsPrimaryRow(row sheet.Row, cols ColumnMap) bool {
	return !cols.Cell(row, FieldRegDate).IsEmpty() && row.CellAt(SLColumn).PositiveNumber()
}

// endsContinuation reports whether row closes the open offer when met
// while collecting continuations.
func endsContinuation(row sheet.Row, cols ColumnMap) bool {
	return row.IsEmpty() || !cols.Cell(row, FieldRegDate).IsEmpty()
}

// OfferScanner is the row-by-row state machine behind ExtractOffers. It
// waits for a primary row, opens an offer from it, then folds machine
// serials from following rows into that offer until an empty row or the
// next Reg-Date-bearing row.
type OfferScanner struct {
	sheetCtx domain.SheetContext
	cols     ColumnMap

	state  scanState
	open   *domain.Offer
	offers []domain.Offer
}

// NewOfferScanner creates a scanner for one sheet.
func NewOfferScanner(sheetCtx domain.SheetContext, cols ColumnMap) *OfferScanner {
	return &OfferScanner{sheetCtx: sheetCtx, cols: cols}
}

// Collecting reports whether an offer is currently open.
func (s *OfferScanner) Collecting() bool {
	return s.state == collectingContinuations
}

// Step feeds the next data row.
func (s *OfferScanner) Step(row sheet.Row) {
	if s.state == collectingContinuations {
		if !endsContinuation(row, s.cols) {
			s.appendSerial(row)
			return
		}
		s.closeOpen()
	}

	if row.IsEmpty() {
		return
	}
	if IsPrimaryRow(row, s.cols) {
		offer := buildOffer(row, s.cols, s.sheetCtx)
		s.open = &offer
		s.state = collectingContinuations
		s.appendSerial(row)
	}
}

// Finish closes any open offer and returns everything extracted.
func (s *OfferScanner) Finish() []domain.Offer {
	s.closeOpen()
	return s.offers
}

func (s *OfferScanner) appendSerial(row sheet.Row) {
	serial := s.cols.Cell(row, FieldMachineSerial)
	if serial.IsEmpty() {
		return
	}
	s.open.MachineSerials = append(s.open.MachineSerials, strings.TrimSpace(serial.String()))
}

func (s *OfferScanner) closeOpen() {
	if s.open == nil {
		s.state = awaitingPrimary
		return
	}
	s.open.AssetCount = len(s.open.MachineSerials)
	s.offers = append(s.offers, *s.open)
	s.open = nil
	s.state = awaitingPrimary
}

// ExtractOffers walks the rows after headerIndex and returns the sheet's
// canonical offers in row order.
func ExtractOffers(sheetCtx domain.SheetContext, rows []sheet.Row, headerIndex int, cols ColumnMap) []domain.Offer {
	scanner := NewOfferScanner(sheetCtx, cols)
	for i := headerIndex + 1; i < len(rows); i++ {
		scanner.Step(rows[i])
	}
	return scanner.Finish()
}

func buildOffer(row sheet.Row, cols ColumnMap, sheetCtx domain.SheetContext) domain.Offer {
	sl, _ := row.CellAt(SLColumn).Float()
	text := func(f Field) string {
		return strings.TrimSpace(cols.Cell(row, f).String())
	}

	offer := domain.Offer{
		SLNumber:        int(sl),
		SalesPersonName: sheetCtx.SalesPersonName,
		Zone:            sheetCtx.Zone,
		RegDate:         text(FieldRegDate),
		Company:         text(FieldCompany),
		Location:        text(FieldLocation),
		ContactName:     text(FieldContactName),
		ContactNumber:   text(FieldContactNumber),
		Email:           text(FieldEmail),
		ProductType:     text(FieldProductType),
		OfferReference:  text(FieldOfferReference),
		OfferDate:       text(FieldOfferDate),
		OfferValue:      money(cols.Cell(row, FieldOfferValue)),
		OfferMonth:      text(FieldOfferMonth),
		POExpectedMonth: text(FieldPOExpectedMonth),
		Probability:     number(cols.Cell(row, FieldProbability)),
		PONumber:        text(FieldPONumber),
		PODate:          text(FieldPODate),
		POValue:         money(cols.Cell(row, FieldPOValue)),
		POReceivedMonth: text(FieldPOReceivedMonth),
		OpenFunnelNote:  text(FieldOpenFunnel),
		Remarks:         text(FieldRemarks),
		MachineSerials:  []string{},
	}
	offer.Status = Classify(offer.PONumber, offer.POValue, offer.Probability)
	return offer
}

// money converts a numeric cell to a nullable amount; anything else is null.
func money(v sheet.Value) decimal.NullDecimal {
	n, ok := v.Float()
	if !ok {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(n))
}

func number(v sheet.Value) *float64 {
	n, ok := v.Float()
	if !ok {
		return nil
	}
	return &n
}
