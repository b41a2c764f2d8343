package domain

// MaxSampleRows is the number of leading data rows kept in a profile.
const MaxSampleRows = 5

// Record is a single row keyed by column name. Values are string, float64,
// int64, bool or nil.
type Record map[string]interface{}

// DatasetProfile is the lightweight schema derived from a tabular dataset.
// It is built once per load and never mutated afterwards.
type DatasetProfile struct {
	Columns     []string              `json:"columns"`
	ColumnTypes map[string]ColumnType `json:"column_types"`
	SampleRows  []Record              `json:"sample_rows"`
}

// HasColumn reports whether name is one of the profile's columns.
func (p *DatasetProfile) HasColumn(name string) bool {
	for _, c := range p.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// ColumnsOfType returns the columns inferred as t, in column order.
func (p *DatasetProfile) ColumnsOfType(t ColumnType) []string {
	var cols []string
	for _, c := range p.Columns {
		if p.ColumnTypes[c] == t {
			cols = append(cols, c)
		}
	}
	return cols
}

// Project returns the sample rows restricted to the given columns. Columns the
// profile does not know are skipped.
func (p *DatasetProfile) Project(columns []string) []Record {
	rows := make([]Record, 0, len(p.SampleRows))
	for _, row := range p.SampleRows {
		out := make(Record, len(columns))
		for _, c := range columns {
			if v, ok := row[c]; ok {
				out[c] = v
			}
		}
		rows = append(rows, out)
	}
	return rows
}
