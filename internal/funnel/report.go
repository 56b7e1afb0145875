package funnel

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/locvowork/offer_funnel/internal/domain"
)

// WriteLedgerReport prints the ledger rollups as aligned text tables: one
// per salesperson, one per zone, then the grand total.
func WriteLedgerReport(w io.Writer, report domain.LedgerReport) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)

	sections := []struct {
		title string
		rows  []domain.LedgerRollup
	}{
		{"SALES PERSON", report.SalesPeople},
		{"ZONE", report.Zones},
	}
	for _, sec := range sections {
		writeRollupHeader(tw, sec.title)
		for _, r := range sec.rows {
			writeRollupRow(tw, r)
		}
		fmt.Fprintln(tw, "\t\t\t\t\t\t")
	}

	writeRollupHeader(tw, "TOTAL")
	writeRollupRow(tw, report.GrandTotal)
	return tw.Flush()
}

func writeRollupHeader(w io.Writer, title string) {
	fmt.Fprintf(w, "%s\tOFFERS\tOFFER VALUE\tWON\tWON VALUE\tCONV %%\t\n", title)
	fmt.Fprintf(w, "%s\t------\t-----------\t---\t---------\t------\t\n", strings.Repeat("-", len(title)))
}

func writeRollupRow(w io.Writer, r domain.LedgerRollup) {
	fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%s\t%.1f%%\t\n",
		r.Label,
		r.OfferCount,
		FormatCurrency(r.TotalOfferValue),
		r.WonCount,
		FormatCurrency(r.WonValue),
		r.ConversionRate,
	)
}

// WriteReconciliation prints per-sheet expected/extracted counts and the
// cross-sheet rollups.
func WriteReconciliation(w io.Writer, result domain.RunResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, "SHEET\tZONE\tEXPECTED\tEXTRACTED\tRESULT")
	for _, s := range result.Sheets {
		verdict := "MATCH"
		if !s.Matched {
			verdict = "MISMATCH"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", s.SheetName, s.Zone, s.ExpectedCount, s.ExtractedCount, verdict)
	}
	for _, name := range result.Summary.SkippedSheets {
		fmt.Fprintf(tw, "%s\t-\t-\t-\tSKIPPED\n", name)
	}
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "Total offers\t%d\n", result.Summary.TotalOffers)
	for _, z := range domain.Zones {
		fmt.Fprintf(tw, "  %s\t%d\n", z, result.Summary.ByZone[z])
	}
	for _, st := range domain.Statuses {
		fmt.Fprintf(tw, "  %s\t%d\n", st, result.Summary.ByStatus[st])
	}
	fmt.Fprintf(tw, "Multi-asset offers\t%d\n", result.Summary.MultiAssetOffers)
	return tw.Flush()
}
