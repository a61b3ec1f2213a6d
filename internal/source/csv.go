package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"gapfill/internal/dataset"
)

// Options configures how a tabular source is decoded into a Dataset.
type Options struct {
	// Delimiter is the field separator for delimited-text sources.
	Delimiter rune
	// MissingTokens are the literal field values that denote a missing
	// cell. Matching is exact; a token is only missing once the analyst
	// declares it so.
	MissingTokens []string
	// Kinds fixes the kind of the named columns. Columns not listed are
	// inferred: numeric when every observed value parses as a float,
	// categorical otherwise.
	Kinds map[string]dataset.Kind
}

// DefaultOptions returns the conventional decoding options: comma
// delimited, with "", "NA" and "NaN" denoting missing cells.
func DefaultOptions() Options {
	return Options{
		Delimiter:     ',',
		MissingTokens: []string{"", "NA", "NaN"},
	}
}

// ReadCSVFile decodes the delimited-text file at path into a Dataset.
func ReadCSVFile(path string, opts Options) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	ds, err := ReadCSV(f, opts)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ds, nil
}

// ReadCSV decodes delimited text from r into a Dataset. The first record
// is the header.
func ReadCSV(r io.Reader, opts Options) (*dataset.Dataset, error) {
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	// Ragged rows are tolerated: cells past the end of a short record
	// come through as missing.
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no header record")
	}
	return fromRecords(records[0], records[1:], opts)
}

// fromRecords assembles a Dataset out of a header and raw string rows.
func fromRecords(header []string, rows [][]string, opts Options) (*dataset.Dataset, error) {
	missingToken := make(map[string]struct{}, len(opts.MissingTokens))
	for _, t := range opts.MissingTokens {
		missingToken[t] = struct{}{}
	}

	cols := make([]*dataset.Column, 0, len(header))
	for j, name := range header {
		raw := make([]string, len(rows))
		var missing []int
		for i, row := range rows {
			if j >= len(row) {
				missing = append(missing, i)
				continue
			}
			if _, ok := missingToken[row[j]]; ok {
				missing = append(missing, i)
				continue
			}
			raw[i] = row[j]
		}

		kind, fixed := opts.Kinds[name]
		if !fixed {
			kind = inferKind(raw, missing)
		}

		switch kind {
		case dataset.Numeric:
			values := make([]float64, len(raw))
			isMissing := toSet(missing)
			for i, v := range raw {
				if _, skip := isMissing[i]; skip {
					continue
				}
				parsed, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return nil, fmt.Errorf("column %q row %d: %q is not numeric", name, i, v)
				}
				values[i] = parsed
			}
			cols = append(cols, dataset.NewNumeric(name, values, missing))
		case dataset.Categorical:
			cols = append(cols, dataset.NewCategorical(name, raw, missing))
		}
	}
	return dataset.New(cols...)
}

// inferKind guesses a column's kind: numeric when every observed value
// parses as a float, categorical otherwise.
func inferKind(raw []string, missing []int) dataset.Kind {
	isMissing := toSet(missing)
	observed := 0
	for i, v := range raw {
		if _, skip := isMissing[i]; skip {
			continue
		}
		observed++
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return dataset.Categorical
		}
	}
	if observed == 0 {
		return dataset.Categorical
	}
	return dataset.Numeric
}

func toSet(rows []int) map[int]struct{} {
	out := make(map[int]struct{}, len(rows))
	for _, row := range rows {
		out[row] = struct{}{}
	}
	return out
}
