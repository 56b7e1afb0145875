package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/locvowork/offer_funnel/internal/domain"
	"github.com/locvowork/offer_funnel/internal/funnel"
	"github.com/locvowork/offer_funnel/internal/logger"
	"github.com/locvowork/offer_funnel/internal/workbook"
	"github.com/locvowork/offer_funnel/pkg/dataflow"
	"github.com/locvowork/offer_funnel/pkg/sheet"
)

// sinkRetryDelay is the pause before a failed sink write is retried.
const sinkRetryDelay = 200 * time.Millisecond

var (
	// ErrNoSinks is returned by Load when no store is configured.
	ErrNoSinks = errors.New("no sinks configured")
	// ErrSinkUnavailable is returned by queries against a store that is not configured.
	ErrSinkUnavailable = errors.New("sink not configured")
)

// Sinks are the optional destinations of a run. Nil fields are skipped.
type Sinks struct {
	Offers    domain.OfferRepository
	Index     domain.OfferIndex
	Snapshots domain.LedgerSnapshotStore
}

// FunnelService runs the reconciliation over workbooks and persists results
type FunnelService struct {
	roster []domain.SheetContext
	opts   funnel.Options
	sinks  Sinks
}

// NewFunnelService creates a new FunnelService instance
func NewFunnelService(roster []domain.SheetContext, opts funnel.Options, sinks Sinks) *FunnelService {
	return &FunnelService{
		roster: roster,
		opts:   opts,
		sinks:  sinks,
	}
}

// ==================== Run Operations ====================

// Run processes an already decoded workbook.
func (s *FunnelService) Run(ctx context.Context, wb sheet.Workbook) (domain.RunResult, error) {
	return funnel.Run(ctx, wb, s.roster, s.opts)
}

// RunFile decodes the workbook at path and processes it.
func (s *FunnelService) RunFile(ctx context.Context, path string, stream bool) (domain.RunResult, error) {
	wb, err := workbook.Open(path, stream)
	if err != nil {
		return domain.RunResult{}, err
	}
	return s.Run(ctx, wb)
}

// RunUpload decodes an uploaded workbook and processes it. name is only
// used to check the file type.
func (s *FunnelService) RunUpload(ctx context.Context, name string, r io.Reader) (domain.RunResult, error) {
	if err := workbook.CheckExtension(name); err != nil {
		return domain.RunResult{}, err
	}
	wb, err := workbook.OpenReader(r)
	if err != nil {
		return domain.RunResult{}, err
	}
	return s.Run(ctx, wb)
}

// ==================== Sink Operations ====================

type sinkJob struct {
	name string
	save func(context.Context) error
}

// Load writes a run to every configured sink concurrently. Each sink is
// retried once; the first failure that survives the retry is returned.
// Offers sharing a key are collapsed first, the later one winning.
func (s *FunnelService) Load(ctx context.Context, result domain.RunResult) error {
	ctx = logger.WithLogger(ctx, map[string]interface{}{"run_id": result.RunID})
	offers := uniqueOffers(ctx, result.Offers)

	var jobs []sinkJob
	if s.sinks.Offers != nil {
		jobs = append(jobs, sinkJob{"postgres", func(ctx context.Context) error {
			return s.sinks.Offers.UpsertBatch(ctx, offers)
		}})
	}
	if s.sinks.Index != nil {
		jobs = append(jobs, sinkJob{"elasticsearch", func(ctx context.Context) error {
			return s.sinks.Index.BulkIndexOffers(ctx, offers)
		}})
	}
	if s.sinks.Snapshots != nil {
		jobs = append(jobs, sinkJob{"datastore", func(ctx context.Context) error {
			return s.sinks.Snapshots.SaveLedgers(ctx, result.RunID, result.Ledgers)
		}})
	}
	if len(jobs) == 0 {
		return ErrNoSinks
	}

	err := dataflow.ForEach(ctx, dataflow.From(ctx, jobs...), func(j sinkJob) error {
		if err := j.save(ctx); err != nil {
			return fmt.Errorf("%s sink: %w", j.name, err)
		}
		logger.InfoLog(ctx, "%s sink stored run", j.name)
		return nil
	},
		dataflow.WithWorkers(len(jobs)),
		dataflow.WithRetry(1, dataflow.ConstantBackoff(sinkRetryDelay)),
		dataflow.WithErrorHandler(func(err error) bool {
			logger.ErrorLog(ctx, "%v", err)
			return false
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	return nil
}

// uniqueOffers keeps one offer per Key, in first-seen position with the
// values of the last occurrence.
func uniqueOffers(ctx context.Context, offers []domain.Offer) []domain.Offer {
	pos := make(map[string]int, len(offers))
	out := make([]domain.Offer, 0, len(offers))
	for _, o := range offers {
		key := o.Key()
		if i, dup := pos[key]; dup {
			logger.WarnLog(ctx, "duplicate offer key %s, keeping the later row", key)
			out[i] = o
			continue
		}
		pos[key] = len(out)
		out = append(out, o)
	}
	return out
}

// ==================== Query Operations ====================

// ListOffers reads stored offers from Postgres.
func (s *FunnelService) ListOffers(ctx context.Context, filter domain.OfferFilter) ([]domain.Offer, error) {
	if s.sinks.Offers == nil {
		return nil, fmt.Errorf("postgres: %w", ErrSinkUnavailable)
	}
	return s.sinks.Offers.List(ctx, filter)
}

// SearchOffers runs a full-text query against the offer index.
func (s *FunnelService) SearchOffers(ctx context.Context, text string, size int) ([]domain.Offer, error) {
	if s.sinks.Index == nil {
		return nil, fmt.Errorf("elasticsearch: %w", ErrSinkUnavailable)
	}
	return s.sinks.Index.SearchOffers(ctx, text, size)
}

// GetOffer reads one stored offer by salesperson and SL number.
func (s *FunnelService) GetOffer(ctx context.Context, salesPerson string, slNumber int) (*domain.Offer, error) {
	if s.sinks.Offers == nil {
		return nil, fmt.Errorf("postgres: %w", ErrSinkUnavailable)
	}
	return s.sinks.Offers.GetByKey(ctx, salesPerson, slNumber)
}

// RunLedger reads the ledger snapshot of one salesperson from a stored run.
func (s *FunnelService) RunLedger(ctx context.Context, runID, salesPerson string) ([]domain.LedgerEntry, error) {
	if s.sinks.Snapshots == nil {
		return nil, fmt.Errorf("datastore: %w", ErrSinkUnavailable)
	}
	return s.sinks.Snapshots.GetRunLedger(ctx, runID, salesPerson)
}
