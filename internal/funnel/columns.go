package funnel

import (
	"strings"

	"github.com/locvowork/offer_funnel/pkg/sheet"
)

// Unresolved is the column index of a logical field whose header was not found.
const Unresolved = -1

// SLColumn is fixed: every ledger sheet carries its serial number first.
const SLColumn = 0

// Field is a logical offer field looked up by header text.
type Field string

const (
	FieldRegDate         Field = "reg_date"
	FieldCompany         Field = "company"
	FieldLocation        Field = "location"
	FieldContactName     Field = "contact_name"
	FieldContactNumber   Field = "contact_number"
	FieldEmail           Field = "email"
	FieldProductType     Field = "product_type"
	FieldMachineSerial   Field = "machine_serial"
	FieldOfferReference  Field = "offer_reference"
	FieldOfferDate       Field = "offer_date"
	FieldOfferValue      Field = "offer_value"
	FieldOfferMonth      Field = "offer_month"
	FieldPOExpectedMonth Field = "po_expected_month"
	FieldProbability     Field = "probability"
	FieldPONumber        Field = "po_number"
	FieldPODate          Field = "po_date"
	FieldPOValue         Field = "po_value"
	FieldPOReceivedMonth Field = "po_received_month"
	FieldOpenFunnel      Field = "open_funnel"
	FieldRemarks         Field = "remarks"
)

// ColumnSpec tells the resolver how to find one field in a header row.
type ColumnSpec struct {
	Field  Field
	Header string
	// Exact requires the whole header cell to equal Header. Used for short
	// names that would otherwise match longer unrelated headers.
	Exact bool
}

// DefaultColumnSpecs returns the header names used by the sales ledgers.
func DefaultColumnSpecs() []ColumnSpec {
	return []ColumnSpec{
		{Field: FieldRegDate, Header: "Reg Date"},
		{Field: FieldCompany, Header: "Company"},
		{Field: FieldLocation, Header: "Location"},
		{Field: FieldContactName, Header: "Contact Name"},
		{Field: FieldContactNumber, Header: "Contact No"},
		{Field: FieldEmail, Header: "Email"},
		{Field: FieldProductType, Header: "Product"},
		{Field: FieldMachineSerial, Header: "Machine Serial"},
		{Field: FieldOfferReference, Header: "Offer Ref"},
		{Field: FieldOfferDate, Header: "Offer Date"},
		{Field: FieldOfferValue, Header: "Offer Value"},
		{Field: FieldOfferMonth, Header: "Offer Month"},
		{Field: FieldPOExpectedMonth, Header: "PO Expected"},
		{Field: FieldProbability, Header: "Probability"},
		{Field: FieldPONumber, Header: "PO No"},
		{Field: FieldPODate, Header: "PO Date"},
		{Field: FieldPOValue, Header: "PO Value"},
		{Field: FieldPOReceivedMonth, Header: "PO Received"},
		{Field: FieldOpenFunnel, Header: "Open Funnel", Exact: true},
		{Field: FieldRemarks, Header: "Remarks", Exact: true},
	}
}

// WithHeaderOverrides replaces the header text of the named fields, keeping
// each field's match mode. Unknown field names are ignored.
func WithHeaderOverrides(specs []ColumnSpec, overrides map[string]string) []ColumnSpec {
	out := make([]ColumnSpec, len(specs))
	copy(out, specs)
	for i := range out {
		if h, ok := overrides[string(out[i].Field)]; ok && h != "" {
			out[i].Header = h
		}
	}
	return out
}

// Resolve returns the index of the first header cell, scanning left to
// right, whose text contains name. Matching is case-sensitive.
func Resolve(header sheet.Row, name string) int {
	for i, c := range header {
		if c.IsAbsent() {
			continue
		}
		if strings.Contains(c.String(), name) {
			return i
		}
	}
	return Unresolved
}

// ResolveExact returns the index of the first header cell whose trimmed
// text equals name.
func ResolveExact(header sheet.Row, name string) int {
	for i, c := range header {
		if c.IsAbsent() {
			continue
		}
		if strings.TrimSpace(c.String()) == name {
			return i
		}
	}
	return Unresolved
}

// ColumnMap maps logical fields to column indices for one sheet.
type ColumnMap map[Field]int

// BuildColumnMap resolves every spec against the header row. Fields that
// are not found are recorded as Unresolved.
func BuildColumnMap(header sheet.Row, specs []ColumnSpec) ColumnMap {
	cm := make(ColumnMap, len(specs))
	for _, spec := range specs {
		if spec.Exact {
			cm[spec.Field] = ResolveExact(header, spec.Header)
		} else {
			cm[spec.Field] = Resolve(header, spec.Header)
		}
	}
	return cm
}

// Index returns the column of f, or Unresolved.
func (cm ColumnMap) Index(f Field) int {
	if idx, ok := cm[f]; ok {
		return idx
	}
	return Unresolved
}

// Cell reads field f from row; unresolved fields read as Absent.
func (cm ColumnMap) Cell(row sheet.Row, f Field) sheet.Value {
	return row.CellAt(cm.Index(f))
}

// Missing lists the fields that did not resolve, in the order of specs.
func (cm ColumnMap) Missing(specs []ColumnSpec) []Field {
	var out []Field
	for _, spec := range specs {
		if cm.Index(spec.Field) == Unresolved {
			out = append(out, spec.Field)
		}
	}
	return out
}
