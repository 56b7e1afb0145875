package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/locvowork/offer_funnel/internal/domain"
	"github.com/locvowork/offer_funnel/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const testRoster = `sales_people:
  - name: Yogesh
    zone: west
`

func writeFixtures(t *testing.T) (workbookPath, rosterPath string) {
	t.Helper()
	dir := t.TempDir()

	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "Yogesh"))
	require.NoError(t, f.SetSheetRow("Yogesh", "A1", &[]interface{}{"Total Offers", 2}))
	require.NoError(t, f.SetSheetRow("Yogesh", "A2", &[]interface{}{"SL", "Reg Date", "Company", "Offer Ref", "Offer Value", "PO Value"}))
	require.NoError(t, f.SetSheetRow("Yogesh", "A3", &[]interface{}{1, "01-04-2024", "Acme", "REF-1", 250000, 200000}))
	require.NoError(t, f.SetSheetRow("Yogesh", "A4", &[]interface{}{2, "02-04-2024", "Globex", "REF-2", 5000}))

	workbookPath = filepath.Join(dir, "funnel.xlsx")
	require.NoError(t, f.SaveAs(workbookPath))

	rosterPath = filepath.Join(dir, "roster.yaml")
	require.NoError(t, os.WriteFile(rosterPath, []byte(testRoster), 0o644))
	return workbookPath, rosterPath
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DB_ENABLED", "false")
	t.Setenv("ELASTIC_URL", "")
	t.Setenv("DATASTORE_PROJECT", "")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestExtractCommand(t *testing.T) {
	wb, roster := writeFixtures(t)

	t.Run("stdout", func(t *testing.T) {
		out, err := execute(t, "extract", "-w", wb, "-r", roster, "-o", "-")
		require.NoError(t, err)

		var offers []domain.Offer
		require.NoError(t, json.NewDecoder(bytes.NewBufferString(out)).Decode(&offers))
		require.Len(t, offers, 2)
		assert.Equal(t, "Acme", offers[0].Company)
		assert.Equal(t, domain.ZoneWest, offers[0].Zone)
		assert.Contains(t, out, "MATCH")
	})

	t.Run("file and streaming decoder", func(t *testing.T) {
		dest := filepath.Join(t.TempDir(), "offers.json")
		_, err := execute(t, "extract", "-w", wb, "-r", roster, "-o", dest, "--stream", "--workers", "2")
		require.NoError(t, err)

		data, err := os.ReadFile(dest)
		require.NoError(t, err)
		var offers []domain.Offer
		require.NoError(t, json.Unmarshal(data, &offers))
		assert.Len(t, offers, 2)
	})

	t.Run("missing workbook flag", func(t *testing.T) {
		_, err := execute(t, "extract", "-r", roster)
		assert.Error(t, err)
	})

	t.Run("unsupported workbook", func(t *testing.T) {
		_, err := execute(t, "extract", "-w", filepath.Join(t.TempDir(), "old.xls"), "-r", roster)
		assert.Error(t, err)
	})
}

func TestLedgerCommand(t *testing.T) {
	wb, roster := writeFixtures(t)

	out, err := execute(t, "ledger", "-w", wb, "-r", roster)
	require.NoError(t, err)
	assert.Contains(t, out, "Yogesh")
	assert.Contains(t, out, "GRAND TOTAL")
	assert.Contains(t, out, "2.55 L")
}

func TestLoadCommandWithoutSinks(t *testing.T) {
	wb, roster := writeFixtures(t)

	_, err := execute(t, "load", "-w", wb, "-r", roster)
	assert.ErrorIs(t, err, service.ErrNoSinks)
}
