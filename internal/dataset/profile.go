package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xiaot623/gogo/datachat/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// BuildProfile parses CSV data and derives its profile: the header row gives
// the columns, every data row feeds type inference, and the first
// domain.MaxSampleRows rows become the sample.
func BuildProfile(data []byte) (*domain.DatasetProfile, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, domain.NewError(domain.KindMalformedData, "dataset is empty", nil)
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, domain.NewError(domain.KindMalformedData, "failed to read header row", err)
	}
	columns := normalizeHeader(header)

	var rows [][]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.NewError(domain.KindMalformedData, "failed to parse dataset", err)
		}
		if len(record) > len(columns) {
			line, _ := r.FieldPos(0)
			return nil, domain.NewError(domain.KindMalformedData,
				fmt.Sprintf("line %d: expected %d fields, saw %d", line, len(columns), len(record)), nil)
		}
		rows = append(rows, record)
	}

	profile := &domain.DatasetProfile{
		Columns:     columns,
		ColumnTypes: make(map[string]domain.ColumnType, len(columns)),
		SampleRows:  []domain.Record{},
	}

	values := make([]string, 0, len(rows))
	for i, col := range columns {
		values = values[:0]
		for _, row := range rows {
			if i < len(row) {
				values = append(values, row[i])
			}
		}
		profile.ColumnTypes[col] = InferColumnType(values)
	}

	for _, row := range rows {
		if len(profile.SampleRows) == domain.MaxSampleRows {
			break
		}
		rec := make(domain.Record, len(columns))
		for i, col := range columns {
			if i >= len(row) {
				rec[col] = nil
				continue
			}
			rec[col] = convertValue(row[i], profile.ColumnTypes[col])
		}
		profile.SampleRows = append(profile.SampleRows, rec)
	}

	return profile, nil
}

// normalizeHeader trims names, names blank headers "Unnamed: i" and suffixes
// repeats with ".1", ".2", ... so that every column is unique.
func normalizeHeader(header []string) []string {
	seen := make(map[string]bool, len(header))
	counts := make(map[string]int, len(header))
	columns := make([]string, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		base := name
		for seen[name] {
			counts[base]++
			name = base + "." + strconv.Itoa(counts[base])
		}
		seen[name] = true
		columns[i] = name
	}
	return columns
}
