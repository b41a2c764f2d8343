package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/xiaot623/gogo/datachat/internal/domain"
)

func TestParseClassification(t *testing.T) {
	label, err := ParseClassification("```json\n{\"message_type\": \"Generate_Graph\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, domain.LabelGenerateGraph, label)

	_, err = ParseClassification(`{"message_type": "weather"}`)
	assert.Error(t, err)
	_, err = ParseClassification(`generate_graph`)
	assert.Error(t, err)
}

func TestParseChartPayload(t *testing.T) {
	payload, err := ParseChartPayload("```json\n"+`{"charts":[{"chart_name":"Spend","chart_type":"line","x_axis":["date"],"y_axis":["spend"],"data":[{"date":"2024-01-01","spend":100}],"extra":true}]}`+"\n```", spendProfile())
	require.NoError(t, err)
	require.Len(t, payload.Charts, 1)
	assert.Equal(t, domain.ChartTypeLine, payload.Charts[0].ChartType)
	assert.Len(t, payload.Charts[0].Data, 1)
}

func TestParseChartPayloadBackfillsData(t *testing.T) {
	payload, err := ParseChartPayload(`{"charts":[{"chart_type":"BAR","x_axis":["date"],"y_axis":["spend"]}]}`, spendProfile())
	require.NoError(t, err)

	chart := payload.Charts[0]
	assert.Equal(t, "spend by date", chart.Name)
	require.Len(t, chart.Data, 3)
	assert.Equal(t, domain.Record{"date": "2024-01-01", "spend": int64(100)}, chart.Data[0])
}

func TestParseChartPayloadInvalid(t *testing.T) {
	cases := map[string]string{
		"not json":         `here is your chart`,
		"no charts":        `{"charts":[]}`,
		"bad type":         `{"charts":[{"chart_type":"SCATTER","x_axis":["date"],"y_axis":["spend"]}]}`,
		"empty x axis":     `{"charts":[{"chart_type":"BAR","x_axis":[],"y_axis":["spend"]}]}`,
		"blank y axis":     `{"charts":[{"chart_type":"BAR","x_axis":["date"],"y_axis":[" "]}]}`,
		"unknown backfill": `{"charts":[{"chart_type":"BAR","x_axis":["region"],"y_axis":["spend"]}]}`,
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseChartPayload(text, spendProfile())
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrStructuredOutputInvalid), "got %v", err)
		})
	}
}

func TestParseDashboardPayload(t *testing.T) {
	text := `{"items":[
		{"entity_type":"CHART","x":0,"y":100,"width":700,"height":400,"chart":{"chart_name":"Spend","chart_type":"LINE","x_axis":["date"],"y_axis":["spend"],"data":[]}},
		{"entity_type":"text","x":0,"y":0,"width":1100,"height":80,"text":"Spend overview"},
		{"entity_type":"TABLE","x":0,"y":520,"width":900,"height":450,"table":{"header":["date","spend"],"rows":[]}}
	]}`

	payload, err := ParseDashboardPayload(text, spendProfile())
	require.NoError(t, err)
	require.Len(t, payload.Items, 3)

	assert.Equal(t, domain.EntityTypeText, payload.Items[0].EntityType)
	assert.Equal(t, domain.EntityTypeChart, payload.Items[1].EntityType)
	assert.Equal(t, 120, payload.Items[1].Y)
	assert.Len(t, payload.Items[1].Chart.Data, 3)
	assert.Equal(t, 560, payload.Items[2].Y)
	assert.Len(t, payload.Items[2].Table.Rows, 3)
	assert.NoError(t, CheckLayout(payload.Items))

	for _, item := range payload.Items {
		switch item.EntityType {
		case domain.EntityTypeText:
			assert.NotNil(t, item.Text)
			assert.Nil(t, item.Chart)
			assert.Nil(t, item.Table)
		case domain.EntityTypeChart:
			assert.NotNil(t, item.Chart)
			assert.Nil(t, item.Text)
			assert.Nil(t, item.Table)
		case domain.EntityTypeTable:
			assert.NotNil(t, item.Table)
			assert.Nil(t, item.Text)
			assert.Nil(t, item.Chart)
		}
	}
}

func TestParseDashboardPayloadInvalid(t *testing.T) {
	cases := map[string]string{
		"not json":       `{"items":`,
		"no items":       `{"items":[]}`,
		"two payloads":   `{"items":[{"entity_type":"TEXT","x":0,"y":0,"width":10,"height":10,"text":"a","table":{"header":["date"],"rows":[]}}]}`,
		"no payload":     `{"items":[{"entity_type":"TEXT","x":0,"y":0,"width":10,"height":10}]}`,
		"wrong payload":  `{"items":[{"entity_type":"CHART","x":0,"y":0,"width":10,"height":10,"text":"a"}]}`,
		"bad type":       `{"items":[{"entity_type":"IMAGE","x":0,"y":0,"width":10,"height":10,"text":"a"}]}`,
		"negative x":     `{"items":[{"entity_type":"TEXT","x":-5,"y":0,"width":10,"height":10,"text":"a"}]}`,
		"missing height": `{"items":[{"entity_type":"TEXT","x":0,"y":0,"width":10,"text":"a"}]}`,
		"blank text":     `{"items":[{"entity_type":"TEXT","x":0,"y":0,"width":10,"height":10,"text":"  "}]}`,
		"empty header":   `{"items":[{"entity_type":"TABLE","x":0,"y":0,"width":10,"height":10,"table":{"header":[],"rows":[]}}]}`,
		"wide row":       `{"items":[{"entity_type":"TABLE","x":0,"y":0,"width":10,"height":10,"table":{"header":["a"],"rows":[[1,2]]}}]}`,
		"bad chart":      `{"items":[{"entity_type":"CHART","x":0,"y":0,"width":10,"height":10,"chart":{"chart_type":"AREA","x_axis":["date"],"y_axis":["spend"]}}]}`,
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDashboardPayload(text, spendProfile())
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrStructuredOutputInvalid), "got %v", err)
		})
	}
}

func TestTableRowsNotBackfilledForUnknownHeaders(t *testing.T) {
	payload, err := ParseDashboardPayload(`{"items":[{"entity_type":"TABLE","x":0,"y":0,"width":10,"height":10,"table":{"header":["region"],"rows":[]}}]}`, spendProfile())
	require.NoError(t, err)
	assert.Empty(t, payload.Items[0].Table.Rows)
}

func TestNormalizeLayoutProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "n")
		items := make([]domain.DashboardEntity, n)
		for i := range items {
			items[i] = domain.DashboardEntity{
				EntityType: domain.EntityTypeText,
				X:          rapid.IntRange(0, 1200).Draw(t, "x"),
				Y:          rapid.IntRange(0, 2000).Draw(t, "y"),
				Width:      rapid.IntRange(0, 1200).Draw(t, "width"),
				Height:     rapid.IntRange(0, 600).Draw(t, "height"),
			}
		}
		original := append([]domain.DashboardEntity(nil), items...)

		out := NormalizeLayout(items)
		if len(out) != n {
			t.Fatalf("expected %d items, got %d", n, len(out))
		}
		if err := CheckLayout(out); err != nil {
			t.Fatalf("layout invalid after normalization: %v", err)
		}
		for i := range items {
			if items[i] != original[i] {
				t.Fatalf("input modified at %d", i)
			}
		}
		again := NormalizeLayout(out)
		for i := range out {
			if again[i] != out[i] {
				t.Fatalf("normalization is not idempotent at %d", i)
			}
		}
		for i := 1; i < len(out); i++ {
			if out[i].Y < out[i-1].Y {
				t.Fatalf("items not ordered by y at %d", i)
			}
		}
	})
}
