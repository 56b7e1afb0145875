package funnel

import (
	"strings"

	"github.com/locvowork/offer_funnel/internal/domain"
	"github.com/shopspring/decimal"
)

// Classify derives an offer's lifecycle status. PO evidence (a PO number
// together with a positive PO value) wins over probability evidence.
func Classify(poNumber string, poValue decimal.NullDecimal, probability *float64) domain.Status {
	if isWonEvidence(poNumber, poValue) {
		return domain.StatusPOReceived
	}
	if probability != nil && *probability > 0 {
		return domain.StatusProposalSent
	}
	return domain.StatusInitial
}

func isWonEvidence(poNumber string, poValue decimal.NullDecimal) bool {
	return strings.TrimSpace(poNumber) != "" && poValue.Valid && poValue.Decimal.IsPositive()
}
