package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Header aliases accepted for each catalog column, lower-cased.
var columnAliases = map[string][]string{
	"id":        {"boarding_house_id", "id"},
	"location":  {"location"},
	"price":     {"price (lkr)", "price", "price_amount"},
	"amenities": {"amenities"},
}

// ReadCSV parses a catalog table. The first row must be a header naming the
// id, location, price and amenities columns; other columns are ignored.
func ReadCSV(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("reading csv header: empty input")
		}
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var records []Record
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("reading csv line %d: %w", line, err)
		}

		rec, err := toRecord(row, cols)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

func resolveColumns(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(h))] = i
	}

	cols := make(map[string]int, len(columnAliases))
	for col, aliases := range columnAliases {
		for _, a := range aliases {
			if i, ok := index[a]; ok {
				cols[col] = i
				break
			}
		}
		if _, ok := cols[col]; !ok {
			return nil, fmt.Errorf("csv header: missing %s column", col)
		}
	}
	return cols, nil
}

func toRecord(row []string, cols map[string]int) (Record, error) {
	field := func(col string) string {
		i := cols[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	priceText := field("price")
	price, err := strconv.ParseFloat(priceText, 64)
	if err != nil {
		return Record{}, fmt.Errorf("parsing price %q: %w", priceText, err)
	}

	return Record{
		ID:        field("id"),
		Location:  field("location"),
		Price:     price,
		Amenities: field("amenities"),
	}, nil
}

// FileSource reads the catalog from a CSV file on local disk.
type FileSource struct {
	Path string
}

// Records implements Source.
func (f FileSource) Records(_ context.Context) ([]Record, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog file %s: %w", f.Path, err)
	}
	defer file.Close()

	records, err := ReadCSV(file)
	if err != nil {
		return nil, fmt.Errorf("parsing catalog file %s: %w", f.Path, err)
	}
	return records, nil
}
