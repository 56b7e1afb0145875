package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLBuilder(t *testing.T) {
	t.Run("Select", func(t *testing.T) {
		query, args := NewSQLBuilder().
			Select("sales_person", "sl_number").
			From("offers").
			Where("zone = ?", "WEST").
			Where("status = ?", "PO_RECEIVED").
			OrderBy("sales_person").
			OrderBy("sl_number").
			Limit(50).
			Offset(100).
			Build()

		assert.Equal(t, "SELECT sales_person, sl_number FROM offers WHERE zone = $1 AND status = $2 ORDER BY sales_person, sl_number LIMIT 50 OFFSET 100", query)
		assert.Equal(t, []interface{}{"WEST", "PO_RECEIVED"}, args)
	})

	t.Run("WhereIf", func(t *testing.T) {
		query, args := NewSQLBuilder().
			Select("COUNT(*)").
			From("offers").
			WhereIf(false, "zone = ?", "WEST").
			WhereIf(true, "status = ?", "INITIAL").
			Build()

		assert.Equal(t, "SELECT COUNT(*) FROM offers WHERE status = $1", query)
		assert.Equal(t, []interface{}{"INITIAL"}, args)
	})

	t.Run("Insert", func(t *testing.T) {
		query, args := NewSQLBuilder().Insert("offers", "sales_person", "sl_number").Values("Yogesh", 1).Build()
		assert.Equal(t, "INSERT INTO offers (sales_person, sl_number) VALUES ($1, $2)", query)
		assert.Equal(t, []interface{}{"Yogesh", 1}, args)
	})

	t.Run("Batch upsert", func(t *testing.T) {
		query, args := NewSQLBuilder().
			Insert("offers", "sales_person", "sl_number", "company").
			Values("Yogesh", 1, "Acme").
			Values("Yogesh", 2, "Beta").
			OnConflict("sales_person", "sl_number").
			DoUpdate("company").
			Build()

		assert.Equal(t, "INSERT INTO offers (sales_person, sl_number, company) VALUES ($1, $2, $3), ($4, $5, $6) "+
			"ON CONFLICT (sales_person, sl_number) DO UPDATE SET company = EXCLUDED.company", query)
		assert.Len(t, args, 6)
		assert.Equal(t, "Beta", args[5])
	})

	t.Run("conflict without updates skips rows", func(t *testing.T) {
		query, _ := NewSQLBuilder().
			Insert("offers", "sales_person").
			Values("Yogesh").
			OnConflict("sales_person").
			Build()
		assert.Equal(t, "INSERT INTO offers (sales_person) VALUES ($1) ON CONFLICT (sales_person) DO NOTHING", query)
	})
}

func TestBuildSafe(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		query, args, err := NewSQLBuilder().Select("*").From("offers").Where("sl_number = ?", 3).BuildSafe()
		require.NoError(t, err)
		assert.Equal(t, "SELECT * FROM offers WHERE sl_number = $1", query)
		assert.Len(t, args, 1)
	})

	t.Run("missing argument", func(t *testing.T) {
		_, _, err := NewSQLBuilder().Select("*").From("offers").Where("sl_number = ? AND zone = ?", 3).BuildSafe()
		assert.Error(t, err)
	})

	t.Run("ragged insert", func(t *testing.T) {
		_, _, err := NewSQLBuilder().Insert("offers", "a", "b").Values(1).BuildSafe()
		assert.EqualError(t, err, "row 1 has 1 values for 2 columns")
	})

	t.Run("empty insert", func(t *testing.T) {
		_, _, err := NewSQLBuilder().Insert("offers", "a").BuildSafe()
		assert.Error(t, err)
	})
}
