package funnel

import (
	"testing"

	"github.com/locvowork/offer_funnel/internal/domain"
	"github.com/locvowork/offer_funnel/pkg/sheet"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestAggregateLedger(t *testing.T) {
	t.Run("shared reference sums rows", func(t *testing.T) {
		rows := []sheet.Row{
			ledgerHeader(),
			sheet.NewRow(1, "01-04-2024", "Acme", nil, nil, "REF-1", 10000, nil, "", nil),
			sheet.NewRow(2, nil, "Acme", nil, nil, "REF-1", 5000, nil, "PO-9", 15000),
		}
		cols := BuildColumnMap(rows[0], DefaultColumnSpecs())
		l := AggregateLedger("YOGESH", rows, 0, cols)

		require.Equal(t, 1, l.Len())
		e, ok := l.Get("REF-1")
		require.True(t, ok)
		assert.True(t, dec(15000).Equal(e.OfferValue), "offer value %s", e.OfferValue)
		assert.True(t, dec(15000).Equal(e.POValue), "po value %s", e.POValue)
		assert.True(t, e.IsWon)
		assert.Equal(t, 2, e.Rows)
	})

	t.Run("synthesized references", func(t *testing.T) {
		rows := []sheet.Row{
			ledgerHeader(),
			sheet.NewRow(7, nil, nil, nil, nil, "", 100),
			sheet.NewRow(nil, nil, nil, nil, nil, nil, 200),
			sheet.NewRow("n/a", nil, nil, nil, nil, nil, 300),
		}
		cols := BuildColumnMap(rows[0], DefaultColumnSpecs())
		l := AggregateLedger(SheetToken(" Yogesh "), rows, 0, cols)

		refs := []string{}
		for _, e := range l.Entries() {
			refs = append(refs, e.OfferReference)
		}
		assert.Equal(t, []string{"AUTO-YOGESH-7", "AUTO-YOGESH-3", "AUTO-YOGESH-4"}, refs)
	})

	t.Run("only positive offer values take part", func(t *testing.T) {
		rows := []sheet.Row{
			ledgerHeader(),
			sheet.NewRow(1, "01-04-2024", nil, nil, nil, "REF-1", 0),
			sheet.NewRow(2, "02-04-2024", nil, nil, nil, "REF-2", -10),
			sheet.NewRow(3, "03-04-2024", nil, nil, nil, "REF-3", "TBD"),
			sheet.NewRow(4, "04-04-2024", nil, nil, nil, "REF-4"),
		}
		cols := BuildColumnMap(rows[0], DefaultColumnSpecs())
		assert.Equal(t, 0, AggregateLedger("X", rows, 0, cols).Len())
	})

	t.Run("continuation rows are counted unlike extraction", func(t *testing.T) {
		rows := yogeshRows()
		header, cols := columnsFor(t, rows)
		rows = append(rows, sheet.NewRow(nil, nil, nil, nil, "SN-900", "REF-9", 999))

		l := AggregateLedger("YOGESH", rows, header.RowIndex, cols)
		_, ok := l.Get("REF-9")
		assert.True(t, ok)
		assert.Equal(t, 5, len(ExtractOffers(yogesh, rows, header.RowIndex, cols)))
		assert.Equal(t, 6, l.Len())
	})
}

func TestAggregateLedgerIsOrderIndependent(t *testing.T) {
	header := ledgerHeader()
	data := []sheet.Row{
		sheet.NewRow(1, nil, nil, nil, nil, "REF-1", 1000, nil, "PO-1", 400),
		sheet.NewRow(2, nil, nil, nil, nil, "REF-2", 2500),
		sheet.NewRow(3, nil, nil, nil, nil, "REF-1", 3000, nil, "", 100),
		sheet.NewRow(4, nil, nil, nil, nil, "REF-2", 10.5, nil, "PO-2", 0),
		sheet.NewRow(5, nil, nil, nil, nil, "REF-1", 700),
	}
	cols := BuildColumnMap(header, DefaultColumnSpecs())

	totals := func(rows []sheet.Row) map[string]domain.LedgerEntry {
		l := AggregateLedger("S", append([]sheet.Row{header}, rows...), 0, cols)
		out := make(map[string]domain.LedgerEntry)
		for _, e := range l.Entries() {
			out[e.OfferReference] = e
		}
		return out
	}

	forward := totals(data)
	reversed := make([]sheet.Row, len(data))
	for i, r := range data {
		reversed[len(data)-1-i] = r
	}
	backward := totals(reversed)

	require.Len(t, backward, len(forward))
	for ref, want := range forward {
		got := backward[ref]
		assert.True(t, want.OfferValue.Equal(got.OfferValue), ref)
		assert.True(t, want.POValue.Equal(got.POValue), ref)
		assert.Equal(t, want.IsWon, got.IsWon, ref)
	}
	assert.True(t, dec(4700).Equal(forward["REF-1"].OfferValue))
	assert.True(t, forward["REF-1"].IsWon)
	assert.False(t, forward["REF-2"].IsWon)
}

func TestBuildLedgerReport(t *testing.T) {
	ledgers := []domain.SheetLedger{
		{SalesPersonName: "Yogesh", Zone: domain.ZoneWest, Entries: []domain.LedgerEntry{
			{OfferReference: "A", OfferValue: dec(1000), POValue: dec(1000), IsWon: true},
			{OfferReference: "B", OfferValue: dec(3000)},
		}},
		{SalesPersonName: "Anita", Zone: domain.ZoneSouth, Entries: []domain.LedgerEntry{
			{OfferReference: "C", OfferValue: dec(500), POValue: dec(200), IsWon: false},
		}},
		{SalesPersonName: "Idle", Zone: domain.ZoneEast},
	}

	report := BuildLedgerReport(ledgers)
	require.Len(t, report.SalesPeople, 3)

	y := report.SalesPeople[0]
	assert.Equal(t, "Yogesh", y.Label)
	assert.Equal(t, 2, y.OfferCount)
	assert.True(t, dec(4000).Equal(y.TotalOfferValue))
	assert.Equal(t, 1, y.WonCount)
	assert.True(t, dec(1000).Equal(y.WonValue))
	assert.InDelta(t, 50.0, y.ConversionRate, 1e-9)

	assert.Equal(t, 0.0, report.SalesPeople[2].ConversionRate)

	require.Len(t, report.Zones, 4)
	assert.Equal(t, "WEST", report.Zones[0].Label)
	assert.Equal(t, "SOUTH", report.Zones[1].Label)
	assert.Equal(t, 1, report.Zones[1].OfferCount)
	assert.True(t, report.Zones[1].WonValue.IsZero(), "po value of lost offers is not won value")
	assert.Equal(t, 0, report.Zones[2].OfferCount)

	assert.Equal(t, "GRAND TOTAL", report.GrandTotal.Label)
	assert.Equal(t, 3, report.GrandTotal.OfferCount)
	assert.True(t, dec(4500).Equal(report.GrandTotal.TotalOfferValue))
	assert.InDelta(t, 100.0/3, report.GrandTotal.ConversionRate, 1e-9)
}
