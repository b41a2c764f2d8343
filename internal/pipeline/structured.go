package pipeline

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/xiaot623/gogo/datachat/internal/domain"
)

// MinVerticalGap is the minimum number of pixels between the bottom of one
// dashboard entity and the top of the next.
const MinVerticalGap = 40

// stripFences removes a surrounding markdown code fence from model output.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```JSON")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func invalidOutput(format string, args ...interface{}) error {
	return domain.NewError(domain.KindStructuredOutputInvalid, fmt.Sprintf(format, args...), nil)
}

// ParseClassification decodes and validates a classifier reply.
func ParseClassification(text string) (domain.Label, error) {
	var result domain.ClassificationResult
	if err := json.Unmarshal([]byte(stripFences(text)), &result); err != nil {
		return "", fmt.Errorf("failed to parse classification: %w", err)
	}
	label := domain.Label(strings.ToLower(strings.TrimSpace(string(result.MessageType))))
	if !label.Valid() {
		return "", fmt.Errorf("label %q is not one of %v", result.MessageType, domain.Labels)
	}
	return label, nil
}

// ParseChartPayload decodes a chart builder reply and validates every chart
// against profile.
func ParseChartPayload(text string, profile *domain.DatasetProfile) (*domain.ChartPayload, error) {
	var payload domain.ChartPayload
	if err := json.Unmarshal([]byte(stripFences(text)), &payload); err != nil {
		return nil, domain.NewError(domain.KindStructuredOutputInvalid, "chart output is not valid JSON", err)
	}
	if len(payload.Charts) == 0 {
		return nil, invalidOutput("chart output has no charts")
	}
	for i := range payload.Charts {
		if err := validateChart(&payload.Charts[i], profile); err != nil {
			return nil, invalidOutput("chart %d: %v", i, err)
		}
	}
	return &payload, nil
}

// validateChart normalizes the chart type, checks the axes and back-fills
// empty data from the profile's sample rows.
func validateChart(c *domain.ChartSpec, profile *domain.DatasetProfile) error {
	c.ChartType = domain.ChartType(strings.ToUpper(strings.TrimSpace(string(c.ChartType))))
	if !c.ChartType.Valid() {
		return fmt.Errorf("chart_type %q must be one of %v", c.ChartType, domain.ChartTypes)
	}
	if err := validateAxis("x_axis", c.XAxis); err != nil {
		return err
	}
	if err := validateAxis("y_axis", c.YAxis); err != nil {
		return err
	}
	if strings.TrimSpace(c.Name) == "" {
		c.Name = fmt.Sprintf("%s by %s", strings.Join(c.YAxis, ", "), strings.Join(c.XAxis, ", "))
	}

	if len(c.Data) == 0 {
		columns := append(append([]string(nil), c.XAxis...), c.YAxis...)
		for _, col := range columns {
			if !profile.HasColumn(col) {
				return fmt.Errorf("no data given and %q is not a dataset column", col)
			}
		}
		c.Data = profile.Project(columns)
	}
	return nil
}

func validateAxis(name string, axis []string) error {
	if len(axis) == 0 {
		return fmt.Errorf("%s is empty", name)
	}
	for i, col := range axis {
		if strings.TrimSpace(col) == "" {
			return fmt.Errorf("%s[%d] is blank", name, i)
		}
	}
	return nil
}

type rawEntity struct {
	EntityType domain.EntityType `json:"entity_type"`
	X          *int              `json:"x"`
	Y          *int              `json:"y"`
	Width      *int              `json:"width"`
	Height     *int              `json:"height"`
	Text       *string           `json:"text"`
	Chart      *domain.ChartSpec `json:"chart"`
	Table      *domain.TableSpec `json:"table"`
}

type rawDashboard struct {
	Items []rawEntity `json:"items"`
}

// ParseDashboardPayload decodes a dashboard builder reply, validates every
// entity and normalizes the layout.
func ParseDashboardPayload(text string, profile *domain.DatasetProfile) (*domain.DashboardPayload, error) {
	var raw rawDashboard
	if err := json.Unmarshal([]byte(stripFences(text)), &raw); err != nil {
		return nil, domain.NewError(domain.KindStructuredOutputInvalid, "dashboard output is not valid JSON", err)
	}
	if len(raw.Items) == 0 {
		return nil, invalidOutput("dashboard output has no items")
	}

	items := make([]domain.DashboardEntity, 0, len(raw.Items))
	for i, r := range raw.Items {
		e, err := validateEntity(r, profile)
		if err != nil {
			return nil, invalidOutput("item %d: %v", i, err)
		}
		items = append(items, e)
	}
	return &domain.DashboardPayload{Items: NormalizeLayout(items)}, nil
}

func validateEntity(r rawEntity, profile *domain.DatasetProfile) (domain.DashboardEntity, error) {
	e := domain.DashboardEntity{
		EntityType: domain.EntityType(strings.ToUpper(strings.TrimSpace(string(r.EntityType)))),
	}
	geometry := []struct {
		name string
		v    *int
		dst  *int
	}{
		{"x", r.X, &e.X}, {"y", r.Y, &e.Y}, {"width", r.Width, &e.Width}, {"height", r.Height, &e.Height},
	}
	for _, g := range geometry {
		if g.v == nil {
			return e, fmt.Errorf("%s is missing", g.name)
		}
		if *g.v < 0 {
			return e, fmt.Errorf("%s is negative (%d)", g.name, *g.v)
		}
		*g.dst = *g.v
	}

	populated := 0
	if r.Text != nil {
		populated++
	}
	if r.Chart != nil {
		populated++
	}
	if r.Table != nil {
		populated++
	}
	if populated != 1 {
		return e, fmt.Errorf("exactly one of text, chart and table must be set, got %d", populated)
	}

	switch e.EntityType {
	case domain.EntityTypeText:
		if r.Text == nil || strings.TrimSpace(*r.Text) == "" {
			return e, fmt.Errorf("TEXT entity needs non-empty text")
		}
		e.Text = r.Text
	case domain.EntityTypeChart:
		if r.Chart == nil {
			return e, fmt.Errorf("CHART entity needs a chart")
		}
		if err := validateChart(r.Chart, profile); err != nil {
			return e, err
		}
		e.Chart = r.Chart
	case domain.EntityTypeTable:
		if r.Table == nil {
			return e, fmt.Errorf("TABLE entity needs a table")
		}
		if err := validateTable(r.Table, profile); err != nil {
			return e, err
		}
		e.Table = r.Table
	default:
		return e, fmt.Errorf("entity_type %q must be one of %v", r.EntityType, domain.EntityTypes)
	}
	return e, nil
}

// validateTable checks the header and row widths. Empty rows are back-filled
// from the sample rows when every header is a dataset column.
func validateTable(t *domain.TableSpec, profile *domain.DatasetProfile) error {
	if len(t.Header) == 0 {
		return fmt.Errorf("table header is empty")
	}
	for i, row := range t.Rows {
		if len(row) > len(t.Header) {
			return fmt.Errorf("table row %d has %d cells for %d headers", i, len(row), len(t.Header))
		}
	}
	if len(t.Rows) > 0 {
		return nil
	}

	t.Rows = [][]interface{}{}
	for _, h := range t.Header {
		if !profile.HasColumn(h) {
			return nil
		}
	}
	for _, rec := range profile.SampleRows {
		row := make([]interface{}, len(t.Header))
		for i, h := range t.Header {
			row[i] = rec[h]
		}
		t.Rows = append(t.Rows, row)
	}
	return nil
}

// NormalizeLayout orders entities top to bottom (then left to right) and
// pushes each one down until it starts at least MinVerticalGap pixels below
// the previous entity's bottom edge. The input slice is not modified.
func NormalizeLayout(items []domain.DashboardEntity) []domain.DashboardEntity {
	out := append([]domain.DashboardEntity(nil), items...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Y != out[j].Y {
			return out[i].Y < out[j].Y
		}
		return out[i].X < out[j].X
	})
	for i := 1; i < len(out); i++ {
		if minY := out[i-1].Bottom() + MinVerticalGap; out[i].Y < minY {
			out[i].Y = minY
		}
	}
	return out
}

// CheckLayout reports the first pair of consecutive entities that violates
// the vertical gap rule.
func CheckLayout(items []domain.DashboardEntity) error {
	for i := 1; i < len(items); i++ {
		if items[i].Y < items[i-1].Bottom()+MinVerticalGap {
			return fmt.Errorf("item %d starts at y=%d, want >= %d", i, items[i].Y, items[i-1].Bottom()+MinVerticalGap)
		}
	}
	return nil
}
