package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/locvowork/offer_funnel/internal/domain"
	"github.com/locvowork/offer_funnel/internal/funnel"
	"github.com/locvowork/offer_funnel/internal/logger"
	"github.com/locvowork/offer_funnel/internal/workbook"
	"github.com/locvowork/offer_funnel/pkg/sheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu      sync.Mutex
	stored  []domain.Offer
	failFor int
	calls   int
}

func (f *fakeRepo) UpsertBatch(_ context.Context, offers []domain.Offer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failFor {
		return errors.New("connection reset")
	}
	f.stored = append(f.stored, offers...)
	return nil
}

func (f *fakeRepo) GetByKey(_ context.Context, salesPerson string, sl int) (*domain.Offer, error) {
	for _, o := range f.stored {
		if o.SalesPersonName == salesPerson && o.SLNumber == sl {
			return &o, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeRepo) List(_ context.Context, filter domain.OfferFilter) ([]domain.Offer, error) {
	var out []domain.Offer
	for _, o := range f.stored {
		if filter.Zone == "" || o.Zone == filter.Zone {
			out = append(out, o)
		}
	}
	return out, nil
}

type fakeIndex struct {
	indexed int
	err     error
}

func (f *fakeIndex) BulkIndexOffers(_ context.Context, offers []domain.Offer) error {
	if f.err != nil {
		return f.err
	}
	f.indexed += len(offers)
	return nil
}

func (f *fakeIndex) SearchOffers(context.Context, string, int) ([]domain.Offer, error) {
	return []domain.Offer{{SLNumber: 1, SalesPersonName: "Yogesh"}}, nil
}

type fakeSnapshots struct {
	runID   string
	entries int
	ledgers []domain.SheetLedger
}

func (f *fakeSnapshots) SaveLedgers(_ context.Context, runID string, ledgers []domain.SheetLedger) error {
	f.runID = runID
	f.ledgers = ledgers
	for _, l := range ledgers {
		f.entries += len(l.Entries)
	}
	return nil
}

func (f *fakeSnapshots) GetRunLedger(_ context.Context, runID, salesPerson string) ([]domain.LedgerEntry, error) {
	if runID != f.runID {
		return nil, nil
	}
	for _, l := range f.ledgers {
		if l.SalesPersonName == salesPerson {
			return l.Entries, nil
		}
	}
	return nil, nil
}

func mustRun(t *testing.T, svc *FunnelService) domain.RunResult {
	t.Helper()
	result, err := svc.Run(context.Background(), testWorkbook())
	require.NoError(t, err)
	return result
}

func testWorkbook() sheet.Workbook {
	return sheet.NewMemoryWorkbook().AddSheet("Yogesh", []sheet.Row{
		sheet.NewRow("Total Offers", 2),
		sheet.NewRow("SL", "Reg Date", "Company", "Offer Ref", "Offer Value", "PO No", "PO Value"),
		sheet.NewRow(1, "01-04-2024", "Acme", "REF-1", 1000),
		sheet.NewRow(2, "02-04-2024", "Beta", "REF-2", 2000, "PO-2", 2000),
	})
}

var roster = []domain.SheetContext{{SalesPersonName: "Yogesh", Zone: domain.ZoneWest}}

func TestFunnelServiceRun(t *testing.T) {
	logger.SetOutput(io.Discard)
	svc := NewFunnelService(roster, funnel.Options{}, Sinks{})

	result := mustRun(t, svc)
	assert.Len(t, result.Offers, 2)
	assert.Equal(t, 1, result.Summary.MatchedSheets)
	assert.Equal(t, 1, result.Report.GrandTotal.WonCount)
}

func TestFunnelServiceRunUpload(t *testing.T) {
	svc := NewFunnelService(roster, funnel.Options{}, Sinks{})

	_, err := svc.RunUpload(context.Background(), "ledger.xls", bytes.NewReader(nil))
	assert.ErrorIs(t, err, workbook.ErrUnsupportedFormat)

	_, err = svc.RunUpload(context.Background(), "ledger.xlsx", bytes.NewReader([]byte("not a zip")))
	assert.Error(t, err)
}

func TestFunnelServiceLoad(t *testing.T) {
	logger.SetOutput(io.Discard)
	ctx := context.Background()

	t.Run("no sinks", func(t *testing.T) {
		svc := NewFunnelService(roster, funnel.Options{}, Sinks{})
		assert.ErrorIs(t, svc.Load(ctx, domain.RunResult{}), ErrNoSinks)
	})

	t.Run("all sinks", func(t *testing.T) {
		repo, index, snaps := &fakeRepo{}, &fakeIndex{}, &fakeSnapshots{}
		svc := NewFunnelService(roster, funnel.Options{}, Sinks{Offers: repo, Index: index, Snapshots: snaps})

		result := mustRun(t, svc)
		require.NoError(t, svc.Load(ctx, result))

		assert.Len(t, repo.stored, 2)
		assert.Equal(t, 2, index.indexed)
		assert.Equal(t, result.RunID, snaps.runID)
		assert.Equal(t, 2, snaps.entries)
	})

	t.Run("transient failure is retried", func(t *testing.T) {
		repo := &fakeRepo{failFor: 1}
		svc := NewFunnelService(roster, funnel.Options{}, Sinks{Offers: repo})

		require.NoError(t, svc.Load(ctx, mustRun(t, svc)))
		assert.Equal(t, 2, repo.calls)
		assert.Len(t, repo.stored, 2)
	})

	t.Run("persistent failure is reported", func(t *testing.T) {
		svc := NewFunnelService(roster, funnel.Options{}, Sinks{Index: &fakeIndex{err: errors.New("cluster red")}})

		err := svc.Load(ctx, mustRun(t, svc))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "elasticsearch sink: cluster red")
	})

	t.Run("repeated offer keys are collapsed", func(t *testing.T) {
		repo, index := &fakeRepo{}, &fakeIndex{}
		svc := NewFunnelService(roster, funnel.Options{}, Sinks{Offers: repo, Index: index})

		result := domain.RunResult{RunID: "run-dup", Offers: []domain.Offer{
			{SalesPersonName: "Yogesh", SLNumber: 1, Company: "Acme"},
			{SalesPersonName: "Yogesh", SLNumber: 2, Company: "Beta"},
			{SalesPersonName: "Yogesh", SLNumber: 1, Company: "Acme Revised"},
		}}
		require.NoError(t, svc.Load(ctx, result))

		require.Len(t, repo.stored, 2)
		assert.Equal(t, "Acme Revised", repo.stored[0].Company)
		assert.Equal(t, "Beta", repo.stored[1].Company)
		assert.Equal(t, 2, index.indexed)
		assert.Len(t, result.Offers, 3, "the run itself is left untouched")
	})
}

func TestFunnelServiceRunCancelled(t *testing.T) {
	logger.SetOutput(io.Discard)
	svc := NewFunnelService(roster, funnel.Options{Workers: 2}, Sinks{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Run(ctx, testWorkbook())
	assert.ErrorIs(t, err, funnel.ErrRunAborted)
}

func TestFunnelServiceQueries(t *testing.T) {
	ctx := context.Background()

	t.Run("unconfigured", func(t *testing.T) {
		svc := NewFunnelService(roster, funnel.Options{}, Sinks{})
		_, err := svc.ListOffers(ctx, domain.OfferFilter{})
		assert.ErrorIs(t, err, ErrSinkUnavailable)
		_, err = svc.SearchOffers(ctx, "acme", 10)
		assert.ErrorIs(t, err, ErrSinkUnavailable)
	})

	t.Run("configured", func(t *testing.T) {
		repo := &fakeRepo{stored: []domain.Offer{{Zone: domain.ZoneWest}, {Zone: domain.ZoneEast}}}
		svc := NewFunnelService(roster, funnel.Options{}, Sinks{Offers: repo, Index: &fakeIndex{}})

		offers, err := svc.ListOffers(ctx, domain.OfferFilter{Zone: domain.ZoneEast})
		require.NoError(t, err)
		assert.Len(t, offers, 1)

		hits, err := svc.SearchOffers(ctx, "acme", 10)
		require.NoError(t, err)
		assert.Len(t, hits, 1)
	})

	t.Run("single offer", func(t *testing.T) {
		repo := &fakeRepo{stored: []domain.Offer{{SalesPersonName: "Yogesh", SLNumber: 4, Company: "Acme"}}}
		svc := NewFunnelService(roster, funnel.Options{}, Sinks{Offers: repo})

		offer, err := svc.GetOffer(ctx, "Yogesh", 4)
		require.NoError(t, err)
		assert.Equal(t, "Acme", offer.Company)

		_, err = svc.GetOffer(ctx, "Yogesh", 5)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("run ledger", func(t *testing.T) {
		logger.SetOutput(io.Discard)
		snaps := &fakeSnapshots{}
		svc := NewFunnelService(roster, funnel.Options{}, Sinks{Snapshots: snaps})
		result := mustRun(t, svc)
		require.NoError(t, svc.Load(ctx, result))

		entries, err := svc.RunLedger(ctx, result.RunID, "Yogesh")
		require.NoError(t, err)
		assert.Len(t, entries, 2)

		_, err = NewFunnelService(roster, funnel.Options{}, Sinks{}).RunLedger(ctx, result.RunID, "Yogesh")
		assert.ErrorIs(t, err, ErrSinkUnavailable)
	})
}
