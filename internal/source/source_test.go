package source

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gapfill/internal/dataset"
)

func TestReadCSV(t *testing.T) {
	t.Run("kinds and missing tokens", func(t *testing.T) {
		in := strings.Join([]string{
			"age,city,score",
			"34,berlin,1.5",
			"NA,paris,2.5",
			"29,,NaN",
		}, "\n")

		ds, err := ReadCSV(strings.NewReader(in), DefaultOptions())
		require.NoError(t, err)
		require.Equal(t, 3, ds.Rows())
		require.Equal(t, []string{"age", "city", "score"}, ds.Names())

		age, _ := ds.Column("age")
		assert.Equal(t, dataset.Numeric, age.Kind())
		assert.True(t, age.IsMissing(1))
		v, ok := age.Float(2)
		require.True(t, ok)
		assert.Equal(t, 29.0, v)

		city, _ := ds.Column("city")
		assert.Equal(t, dataset.Categorical, city.Kind())
		assert.True(t, city.IsMissing(2))
		label, ok := city.Label(0)
		require.True(t, ok)
		assert.Equal(t, "berlin", label)

		score, _ := ds.Column("score")
		assert.Equal(t, dataset.Numeric, score.Kind())
		assert.True(t, score.IsMissing(2))
	})

	t.Run("zero is a value, not missing", func(t *testing.T) {
		ds, err := ReadCSV(strings.NewReader("x\n0\n1\n"), DefaultOptions())
		require.NoError(t, err)
		x, _ := ds.Column("x")
		assert.Equal(t, 0, x.MissingCount())
		v, ok := x.Float(0)
		require.True(t, ok)
		assert.Zero(t, v)
	})

	t.Run("short rows become missing cells", func(t *testing.T) {
		ds, err := ReadCSV(strings.NewReader("a,b\n1,2\n3\n"), DefaultOptions())
		require.NoError(t, err)
		b, _ := ds.Column("b")
		assert.True(t, b.IsMissing(1))
		assert.False(t, b.IsMissing(0))
	})

	t.Run("explicit kind overrides inference", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Kinds = map[string]dataset.Kind{"zip": dataset.Categorical}
		ds, err := ReadCSV(strings.NewReader("zip\n10115\n10117\n"), opts)
		require.NoError(t, err)
		zip, _ := ds.Column("zip")
		assert.Equal(t, dataset.Categorical, zip.Kind())
		label, ok := zip.Label(0)
		require.True(t, ok)
		assert.Equal(t, "10115", label)
	})

	t.Run("forced numeric rejects bad cells", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Kinds = map[string]dataset.Kind{"n": dataset.Numeric}
		_, err := ReadCSV(strings.NewReader("n\nabc\n"), opts)
		assert.ErrorContains(t, err, "not numeric")
	})

	t.Run("all-missing column is categorical", func(t *testing.T) {
		ds, err := ReadCSV(strings.NewReader("a,b\n1,NA\n2,NA\n"), DefaultOptions())
		require.NoError(t, err)
		b, _ := ds.Column("b")
		assert.Equal(t, dataset.Categorical, b.Kind())
		assert.Equal(t, 2, b.MissingCount())
	})

	t.Run("custom delimiter", func(t *testing.T) {
		opts := DefaultOptions()
		opts.Delimiter = ';'
		ds, err := ReadCSV(strings.NewReader("a;b\n1;x\n"), opts)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, ds.Names())
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader(""), DefaultOptions())
		assert.ErrorContains(t, err, "no header")
	})
}

func TestReadCSVFile(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := ReadCSVFile(filepath.Join(t.TempDir(), "nope.csv"), DefaultOptions())
		assert.ErrorContains(t, err, "open")
	})
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "input.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"age", "city"},
		{34, "berlin"},
		{"NA", "paris"},
		{29, "NA"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	t.Run("default sheet", func(t *testing.T) {
		ds, err := ReadXLSX(path, "", DefaultOptions())
		require.NoError(t, err)
		require.Equal(t, 3, ds.Rows())

		age, _ := ds.Column("age")
		assert.Equal(t, dataset.Numeric, age.Kind())
		assert.True(t, age.IsMissing(1))

		city, _ := ds.Column("city")
		assert.Equal(t, dataset.Categorical, city.Kind())
		assert.True(t, city.IsMissing(2))
	})

	t.Run("unknown sheet", func(t *testing.T) {
		_, err := ReadXLSX(path, "NoSuchSheet", DefaultOptions())
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ReadXLSX(filepath.Join(t.TempDir(), "nope.xlsx"), "", DefaultOptions())
		assert.Error(t, err)
	})
}
