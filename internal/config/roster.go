package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/locvowork/offer_funnel/internal/domain"
	"gopkg.in/yaml.v3"
)

// ErrEmptyRoster is returned when a roster lists no salespeople.
var ErrEmptyRoster = errors.New("roster has no sales people")

// Roster is the ordered list of ledger sheets to process, plus optional
// header text overrides keyed by logical field name.
type Roster struct {
	SalesPeople []domain.SheetContext `yaml:"sales_people"`
	Columns     map[string]string     `yaml:"columns"`
}

// LoadRoster reads and validates a roster file.
func LoadRoster(path string) (*Roster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster: %w", err)
	}
	defer f.Close()

	return ParseRoster(f)
}

// ParseRoster decodes a YAML roster, normalizes zones and validates it.
func ParseRoster(r io.Reader) (*Roster, error) {
	var roster Roster
	if err := yaml.NewDecoder(r).Decode(&roster); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyRoster
		}
		return nil, fmt.Errorf("failed to decode roster: %w", err)
	}
	if err := roster.Validate(); err != nil {
		return nil, err
	}
	return &roster, nil
}

// Validate normalizes each entry in place and rejects empty rosters,
// unknown zones, blank and duplicate names.
func (r *Roster) Validate() error {
	if len(r.SalesPeople) == 0 {
		return ErrEmptyRoster
	}

	seen := make(map[string]bool, len(r.SalesPeople))
	for i := range r.SalesPeople {
		sp := &r.SalesPeople[i]
		sp.SalesPersonName = strings.TrimSpace(sp.SalesPersonName)
		if sp.SalesPersonName == "" {
			return fmt.Errorf("roster entry %d: name is required", i+1)
		}
		if seen[sp.SalesPersonName] {
			return fmt.Errorf("roster entry %d: duplicate name %q", i+1, sp.SalesPersonName)
		}
		seen[sp.SalesPersonName] = true

		zone, err := domain.ParseZone(string(sp.Zone))
		if err != nil {
			return fmt.Errorf("roster entry %d (%s): %w", i+1, sp.SalesPersonName, err)
		}
		sp.Zone = zone
	}
	return nil
}
