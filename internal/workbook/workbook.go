// Package workbook decodes .xlsx ledgers into sheet.Workbook values.
package workbook

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/locvowork/offer_funnel/pkg/sheet"
)

// ErrUnsupportedFormat is returned for files that are not OOXML workbooks.
var ErrUnsupportedFormat = errors.New("unsupported workbook format")

// Open decodes the workbook at path, through the streaming reader when
// stream is true and through excelize otherwise.
func Open(path string, stream bool) (*sheet.MemoryWorkbook, error) {
	if err := CheckExtension(path); err != nil {
		return nil, err
	}
	if stream {
		return OpenStream(path)
	}
	return OpenFile(path)
}

// CheckExtension accepts .xlsx and .xlsm names.
func CheckExtension(name string) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(name))
	}
}

var numberNoise = strings.NewReplacer(",", "", "%", "", "₹", "", "$", "", " ", "", " ", "")

// parseDisplayedNumber reports whether a displayed cell text reads as a
// number once grouping separators, percent and currency marks are removed.
func parseDisplayedNumber(s string) bool {
	s = numberNoise.Replace(s)
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
