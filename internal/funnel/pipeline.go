package funnel

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/locvowork/offer_funnel/internal/domain"
	"github.com/locvowork/offer_funnel/internal/logger"
	"github.com/locvowork/offer_funnel/pkg/dataflow"
	"github.com/locvowork/offer_funnel/pkg/sheet"
)

// Options tunes a run. The zero value uses the default header window,
// the default column specs and sequential processing.
type Options struct {
	ScanRows int
	Columns  []ColumnSpec
	Workers  int
}

func (o Options) columns() []ColumnSpec {
	if len(o.Columns) == 0 {
		return DefaultColumnSpecs()
	}
	return o.Columns
}

// sheetResult is the private accumulator of one sheet.
type sheetResult struct {
	index   int
	done    bool
	skipped bool
	offers  []domain.Offer
	summary domain.SheetSummary
	ledger  domain.SheetLedger
}

type sheetJob struct {
	index int
	sc    domain.SheetContext
}

// ErrRunAborted is returned when ctx ends before every sheet was processed.
var ErrRunAborted = errors.New("run aborted")

// Run processes every roster entry against wb and returns the extracted
// offers, the reconciliation and the ledger view. Missing sheets and
// sheets without a header row are skipped. With Workers > 1 sheets are
// processed concurrently; the result is merged in roster order. A run cut
// short by ctx returns ErrRunAborted and no partial result.
func Run(ctx context.Context, wb sheet.Workbook, roster []domain.SheetContext, opts Options) (domain.RunResult, error) {
	runID := uuid.New().String()
	ctx = logger.WithLogger(ctx, map[string]interface{}{"run_id": runID})
	specs := opts.columns()

	results := make([]sheetResult, len(roster))
	if opts.Workers > 1 {
		jobs := make([]sheetJob, len(roster))
		for i, sc := range roster {
			jobs[i] = sheetJob{index: i, sc: sc}
		}
		out := dataflow.Map(ctx, dataflow.From(ctx, jobs...), func(j sheetJob) (sheetResult, error) {
			r := processSheet(ctx, wb, j.sc, opts.ScanRows, specs)
			r.index = j.index
			return r, nil
		}, dataflow.WithWorkers(opts.Workers), dataflow.WithBufferSize(len(jobs)))

		processed, err := dataflow.Collect(ctx, out)
		if err != nil {
			return domain.RunResult{}, abort(ctx, err)
		}
		for _, r := range processed {
			results[r.index] = r
		}
	} else {
		for i, sc := range roster {
			if err := ctx.Err(); err != nil {
				return domain.RunResult{}, abort(ctx, err)
			}
			results[i] = processSheet(ctx, wb, sc, opts.ScanRows, specs)
		}
		if err := ctx.Err(); err != nil {
			return domain.RunResult{}, abort(ctx, err)
		}
	}
	for i, r := range results {
		if !r.done {
			return domain.RunResult{}, abort(ctx, fmt.Errorf("sheet %q was not processed", roster[i].Sheet()))
		}
	}

	result := domain.RunResult{
		RunID:   runID,
		Offers:  []domain.Offer{},
		Sheets:  []domain.SheetSummary{},
		Ledgers: []domain.SheetLedger{},
	}
	var skipped []string
	for i, r := range results {
		if r.skipped {
			skipped = append(skipped, roster[i].Sheet())
			continue
		}
		result.Offers = append(result.Offers, r.offers...)
		result.Sheets = append(result.Sheets, r.summary)
		result.Ledgers = append(result.Ledgers, r.ledger)
	}
	result.Summary = Summarize(result.Offers, result.Sheets, skipped)
	result.Report = BuildLedgerReport(result.Ledgers)

	logger.InfoLog(ctx, "run finished: %d offers from %d sheets, %d skipped, %d mismatched",
		result.Summary.TotalOffers, len(result.Sheets), len(skipped), result.Summary.MismatchedSheets)
	return result, nil
}

func abort(ctx context.Context, cause error) error {
	logger.WarnLog(ctx, "run aborted: %v", cause)
	return fmt.Errorf("%w: %w", ErrRunAborted, cause)
}

func processSheet(ctx context.Context, wb sheet.Workbook, sc domain.SheetContext, scanRows int, specs []ColumnSpec) sheetResult {
	name := sc.Sheet()
	ctx = logger.WithLogger(ctx, map[string]interface{}{
		"sheet":        name,
		"sales_person": sc.SalesPersonName,
		"zone":         string(sc.Zone),
	})

	rows, ok := wb.Rows(name)
	if !ok {
		logger.InfoLog(ctx, "sheet %q not found in workbook, skipping", name)
		return sheetResult{done: true, skipped: true}
	}

	header := LocateHeader(rows, scanRows)
	if !header.Found {
		logger.WarnLog(ctx, "no header row in sheet %q, skipping", name)
		return sheetResult{done: true, skipped: true}
	}

	cols := BuildColumnMap(header.Row, specs)
	if missing := cols.Missing(specs); len(missing) > 0 {
		logger.DebugLog(ctx, "unresolved columns: %v", missing)
	}

	offers := ExtractOffers(sc, rows, header.RowIndex, cols)
	summary := SummarizeSheet(sc, header, len(offers))
	if !summary.Matched {
		logger.WarnLog(ctx, "count mismatch: expected %d, extracted %d", summary.ExpectedCount, summary.ExtractedCount)
	}

	ledger := AggregateLedger(SheetToken(name), rows, header.RowIndex, cols)
	logger.InfoLog(ctx, "sheet done: %d offers, %d ledger references", len(offers), ledger.Len())

	return sheetResult{
		done:    true,
		offers:  offers,
		summary: summary,
		ledger: domain.SheetLedger{
			SalesPersonName: sc.SalesPersonName,
			Zone:            sc.Zone,
			Entries:         ledger.Entries(),
		},
	}
}
