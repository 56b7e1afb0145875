package funnel

import "github.com/locvowork/offer_funnel/internal/domain"

// SummarizeSheet compares one sheet's extraction against its expected count.
func SummarizeSheet(sc domain.SheetContext, header HeaderInfo, extracted int) domain.SheetSummary {
	return domain.SheetSummary{
		SalesPersonName: sc.SalesPersonName,
		Zone:            sc.Zone,
		SheetName:       sc.Sheet(),
		HeaderRowIndex:  header.RowIndex,
		ExpectedCount:   header.ExpectedCount,
		ExtractedCount:  extracted,
		Matched:         extracted == header.ExpectedCount,
	}
}

// Summarize computes the cross-sheet rollups. Every zone and status is
// present in the maps, zero when nothing fell into it.
func Summarize(offers []domain.Offer, sheets []domain.SheetSummary, skipped []string) domain.FunnelSummary {
	s := domain.FunnelSummary{
		TotalOffers:   len(offers),
		ByZone:        make(map[domain.Zone]int, len(domain.Zones)),
		ByStatus:      make(map[domain.Status]int, len(domain.Statuses)),
		SkippedSheets: []string{},
	}
	for _, z := range domain.Zones {
		s.ByZone[z] = 0
	}
	for _, st := range domain.Statuses {
		s.ByStatus[st] = 0
	}

	for _, o := range offers {
		s.ByZone[o.Zone]++
		s.ByStatus[o.Status]++
		if o.AssetCount > 1 {
			s.MultiAssetOffers++
		}
	}
	for _, sh := range sheets {
		if sh.Matched {
			s.MatchedSheets++
		} else {
			s.MismatchedSheets++
		}
	}
	s.SkippedSheets = append(s.SkippedSheets, skipped...)
	return s
}
