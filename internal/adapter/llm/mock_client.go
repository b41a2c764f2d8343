package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/xiaot623/gogo/datachat/internal/domain"
)

// Structured output schema names understood by the mock client.
const (
	SchemaClassification = "classification"
	SchemaCharts         = "chart_payload"
	SchemaDashboard      = "dashboard_payload"
)

// MockClient is a deterministic LLMClient. It reads the dataset profile and
// question embedded in the prompt and answers with schema-valid output.
type MockClient struct{}

// NewMockClient creates a new mock LLM client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// CreateChatCompletion returns a mock response.
func (m *MockClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prompt := lastContent(req.Messages, RoleUser)
	profile := extractProfile(prompt)
	question := extractQuestion(prompt)

	var content string
	schemaName := ""
	if req.ResponseFormat != nil && req.ResponseFormat.JSONSchema != nil {
		schemaName = req.ResponseFormat.JSONSchema.Name
	}
	switch schemaName {
	case SchemaClassification:
		content = mustJSON(domain.ClassificationResult{MessageType: MockClassify(question)})
	case SchemaCharts:
		content = mustJSON(domain.ChartPayload{Charts: []domain.ChartSpec{mockChart(question, profile)}})
	case SchemaDashboard:
		content = mustJSON(mockDashboard(question, profile))
	default:
		content = mockNarrative(question, profile)
	}

	return &ChatCompletionResponse{
		ID:      fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []Choice{
			{
				Index:        0,
				Message:      &ChatMessage{Role: RoleAssistant, Content: content},
				FinishReason: "stop",
			},
		},
		Usage: &Usage{
			PromptTokens:     len(prompt) / 4,
			CompletionTokens: len(content) / 4,
			TotalTokens:      (len(prompt) + len(content)) / 4,
		},
		SystemFingerprint: "mock-fp",
	}, nil
}

// MockClassify labels a question by keyword.
func MockClassify(question string) domain.Label {
	q := strings.ToLower(question)
	switch {
	case containsAny(q, "dashboard", "summary", "overview"):
		return domain.LabelGenerateDashboard
	case containsAny(q, "chart", "graph", "plot", "visualize", "visualise"):
		return domain.LabelGenerateGraph
	}
	return domain.LabelAnalyticalResponse
}

func mockChart(question string, profile *domain.DatasetProfile) domain.ChartSpec {
	x, y := pickAxes(profile)
	q := strings.ToLower(question)

	chartType := domain.ChartTypeBar
	switch {
	case strings.Contains(q, "pie"):
		chartType = domain.ChartTypePie
	case strings.Contains(q, "bar"):
		chartType = domain.ChartTypeBar
	case strings.Contains(q, "line") || profile.ColumnTypes[x] == domain.ColumnTypeDate:
		chartType = domain.ChartTypeLine
	}

	return domain.ChartSpec{
		Name:      fmt.Sprintf("%s by %s", y, x),
		ChartType: chartType,
		XAxis:     []string{x},
		YAxis:     []string{y},
		Data:      profile.Project([]string{x, y}),
	}
}

func mockDashboard(question string, profile *domain.DatasetProfile) domain.DashboardPayload {
	summary := mockNarrative(question, profile)
	chart := mockChart(question, profile)

	rows := make([][]interface{}, 0, len(profile.SampleRows))
	for _, rec := range profile.SampleRows {
		row := make([]interface{}, len(profile.Columns))
		for i, c := range profile.Columns {
			row[i] = rec[c]
		}
		rows = append(rows, row)
	}

	return domain.DashboardPayload{Items: []domain.DashboardEntity{
		{EntityType: domain.EntityTypeText, X: 0, Y: 0, Width: 1100, Height: 80, Text: &summary},
		{EntityType: domain.EntityTypeChart, X: 0, Y: 120, Width: 700, Height: 400, Chart: &chart},
		{EntityType: domain.EntityTypeTable, X: 0, Y: 560, Width: 900, Height: 450, Table: &domain.TableSpec{
			Header: append([]string(nil), profile.Columns...),
			Rows:   rows,
		}},
	}}
}

// mockNarrative describes the profile using only its columns, types and
// sample rows.
func mockNarrative(question string, profile *domain.DatasetProfile) string {
	if len(profile.Columns) == 0 {
		return "The dataset has no columns to analyze."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "The dataset has %d columns (%s) and %d sample rows were inspected.",
		len(profile.Columns), strings.Join(profile.Columns, ", "), len(profile.SampleRows))

	numeric := profile.ColumnsOfType(domain.ColumnTypeNumeric)
	q := strings.ToLower(question)
	var mentioned []string
	for _, c := range numeric {
		if strings.Contains(q, strings.ToLower(c)) {
			mentioned = append(mentioned, c)
		}
	}
	if len(mentioned) == 0 {
		mentioned = numeric
	}
	for _, c := range mentioned {
		if avg, n, ok := sampleAverage(profile, c); ok {
			fmt.Fprintf(&sb, " The average %s across %d sample rows is %s.", c, n, formatNumber(avg))
		}
	}
	return sb.String()
}

func pickAxes(profile *domain.DatasetProfile) (string, string) {
	if len(profile.Columns) == 0 {
		return "x", "y"
	}
	x := ""
	if cols := profile.ColumnsOfType(domain.ColumnTypeDate); len(cols) > 0 {
		x = cols[0]
	} else if cols := profile.ColumnsOfType(domain.ColumnTypeText); len(cols) > 0 {
		x = cols[0]
	} else {
		x = profile.Columns[0]
	}
	for _, c := range profile.ColumnsOfType(domain.ColumnTypeNumeric) {
		if c != x {
			return x, c
		}
	}
	for _, c := range profile.Columns {
		if c != x {
			return x, c
		}
	}
	return x, x
}

func sampleAverage(profile *domain.DatasetProfile, column string) (float64, int, bool) {
	sum, n := 0.0, 0
	for _, rec := range profile.SampleRows {
		switch v := rec[column].(type) {
		case float64:
			sum += v
			n++
		case int64:
			sum += float64(v)
			n++
		}
	}
	if n == 0 {
		return 0, 0, false
	}
	return sum / float64(n), n, true
}

func formatNumber(f float64) string {
	if f == math.Trunc(f) {
		return fmt.Sprintf("%.0f", f)
	}
	return fmt.Sprintf("%.2f", f)
}

func extractProfile(prompt string) *domain.DatasetProfile {
	profile := &domain.DatasetProfile{ColumnTypes: map[string]domain.ColumnType{}}
	for _, line := range strings.Split(prompt, "\n") {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(line), ProfileMarker); ok {
			if err := json.Unmarshal([]byte(rest), profile); err == nil {
				break
			}
		}
	}
	return profile
}

func extractQuestion(prompt string) string {
	for _, line := range strings.Split(prompt, "\n") {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(line), QuestionMarker); ok {
			return rest
		}
	}
	return prompt
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func mustJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
