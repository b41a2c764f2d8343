package dataset

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/xiaot623/gogo/datachat/internal/domain"
)

const spendCSV = `date,spend,channel,active
2024-01-01,100,search,true
2024-01-02,250.5,social,false
2024-01-03,,search,yes
2024-01-04,80,email,no
2024-01-05,120,search,true
2024-01-06,90,social,false
`

func TestBuildProfile(t *testing.T) {
	profile, err := BuildProfile([]byte(spendCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"date", "spend", "channel", "active"}, profile.Columns)
	assert.Equal(t, domain.ColumnTypeDate, profile.ColumnTypes["date"])
	assert.Equal(t, domain.ColumnTypeNumeric, profile.ColumnTypes["spend"])
	assert.Equal(t, domain.ColumnTypeText, profile.ColumnTypes["channel"])
	assert.Equal(t, domain.ColumnTypeBoolean, profile.ColumnTypes["active"])

	require.Len(t, profile.SampleRows, domain.MaxSampleRows)
	first := profile.SampleRows[0]
	assert.Equal(t, "2024-01-01", first["date"])
	assert.Equal(t, int64(100), first["spend"])
	assert.Equal(t, true, first["active"])
	assert.Equal(t, 250.5, profile.SampleRows[1]["spend"])
	assert.Nil(t, profile.SampleRows[2]["spend"])
}

func TestBuildProfileHeaderOnly(t *testing.T) {
	profile, err := BuildProfile([]byte("a,b\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, profile.Columns)
	assert.Empty(t, profile.SampleRows)
	assert.NotNil(t, profile.SampleRows)
	assert.Equal(t, domain.ColumnTypeOther, profile.ColumnTypes["a"])
}

func TestBuildProfileDuplicateAndBlankHeaders(t *testing.T) {
	profile, err := BuildProfile([]byte("\xEF\xBB\xBFx,x,,x.1\n1,2,3,4\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"x", "x.1", "Unnamed: 2", "x.1.1"}, profile.Columns)
}

func TestBuildProfileShortRowsArePadded(t *testing.T) {
	profile, err := BuildProfile([]byte("a,b,c\n1,2\n"))
	require.NoError(t, err)

	require.Len(t, profile.SampleRows, 1)
	assert.Nil(t, profile.SampleRows[0]["c"])
	assert.Contains(t, profile.SampleRows[0], "c")
}

func TestBuildProfileMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":       "",
		"whitespace":  "  \n\n",
		"extra field": "a,b\n1,2,3\n",
		"bad quote":   "a,b\n\"unterminated,2\n",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := BuildProfile([]byte(data))
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrMalformedData), "got %v", err)
		})
	}
}

func TestInferColumnType(t *testing.T) {
	assert.Equal(t, domain.ColumnTypeNumeric, InferColumnType([]string{"1", "2.5", "$1,200", "-3"}))
	assert.Equal(t, domain.ColumnTypeNumeric, InferColumnType([]string{"2019", "2020", "2021"}))
	assert.Equal(t, domain.ColumnTypeDate, InferColumnType([]string{"2024-01-01", "01/31/2024", "Jan 2, 2024"}))
	assert.Equal(t, domain.ColumnTypeBoolean, InferColumnType([]string{"true", "No", "YES", "false"}))
	assert.Equal(t, domain.ColumnTypeText, InferColumnType([]string{"a", "b", "1"}))
	assert.Equal(t, domain.ColumnTypeOther, InferColumnType([]string{"", "N/A", "null"}))
	// 4 of 5 non-null values numeric is enough.
	assert.Equal(t, domain.ColumnTypeNumeric, InferColumnType([]string{"1", "2", "3", "4", "x", ""}))
	assert.Equal(t, domain.ColumnTypeText, InferColumnType([]string{"1", "2", "3", "x", "y"}))
	assert.Equal(t, domain.ColumnTypeText, InferColumnType([]string{"NaNa", "Inf", "0x10"}))
}

func TestProfileColumnsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		nCols := rapid.IntRange(1, 6).Draw(t, "cols")
		nRows := rapid.IntRange(0, 12).Draw(t, "rows")
		// Blank lines are skipped by the CSV reader, so the header and the
		// first cell of every row are never empty.
		name := rapid.SampledFrom([]string{"a", "b", "a", "spend", "date", " x "})
		first := rapid.SampledFrom([]string{"1", "true", "foo", "2024-01-01", "N/A"})
		cell := rapid.SampledFrom([]string{"1", "2.5", "", "true", "foo", "2024-01-01", "N/A"})

		header := make([]string, nCols)
		for i := range header {
			header[i] = name.Draw(t, "header")
		}
		var sb strings.Builder
		sb.WriteString(strings.Join(header, ",") + "\n")
		for r := 0; r < nRows; r++ {
			width := rapid.IntRange(1, nCols).Draw(t, "width")
			row := make([]string, width)
			row[0] = first.Draw(t, "first")
			for i := 1; i < width; i++ {
				row[i] = cell.Draw(t, "cell")
			}
			sb.WriteString(strings.Join(row, ",") + "\n")
		}

		profile, err := BuildProfile([]byte(sb.String()))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(profile.Columns) != nCols {
			t.Fatalf("expected %d columns, got %d", nCols, len(profile.Columns))
		}
		seen := map[string]bool{}
		for _, c := range profile.Columns {
			if seen[c] {
				t.Fatalf("duplicate column %q in %v", c, profile.Columns)
			}
			seen[c] = true
		}
		for c := range profile.ColumnTypes {
			if !seen[c] {
				t.Fatalf("column_types key %q not in columns", c)
			}
		}
		want := nRows
		if want > domain.MaxSampleRows {
			want = domain.MaxSampleRows
		}
		if len(profile.SampleRows) != want {
			t.Fatalf("expected %d sample rows, got %d", want, len(profile.SampleRows))
		}
		for _, row := range profile.SampleRows {
			for k := range row {
				if !seen[k] {
					t.Fatalf("sample key %q not in columns", k)
				}
			}
		}
	})
}
