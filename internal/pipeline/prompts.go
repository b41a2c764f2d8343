package pipeline

import (
	"encoding/json"
	"strings"

	"github.com/xiaot623/gogo/datachat/internal/adapter/llm"
	"github.com/xiaot623/gogo/datachat/internal/domain"
)

const classifierPrompt = `Classify the user's message about a tabular dataset into exactly one label:
- "generate_dashboard": the user asks for a dashboard or an overall summary of the data.
- "generate_graph": the user asks for one or more charts or graphs.
- "analytical_response": anything else, answered in prose without charts.
Reply with JSON {"message_type": "<label>"}.`

const narrativePrompt = `You are a data analyst assistant for tabular datasets.
Answer the user's question using only the dataset profile provided: its columns, their inferred types and the sample rows.
Never invent values that do not appear in the profile; say so when the sample is not enough to answer.
You may report totals, averages, extremes, counts, breakdowns by category or date, and trends visible in the sample.
Write plain text with short paragraphs or bullet points, mention the relevant column names and do not format the answer as a table.`

const chartPrompt = `You are a data visualization assistant.
From the user's request and the dataset profile, produce the most useful charts as JSON {"charts": [...]}.
Each chart has:
- "chart_name": a short title
- "chart_type": one of "LINE", "BAR", "PIE"
- "x_axis": a list with one column name
- "y_axis": a list with one column name
- "data": records taken from the sample rows, keyed by the axis column names
Use only columns that exist in the profile.`

const dashboardPrompt = `You are a dashboard layout assistant.
From the user's request and the dataset profile, produce a dashboard as JSON {"items": [...]}.
Each item has "entity_type" ("TEXT", "CHART" or "TABLE"), pixel geometry "x", "y", "width", "height" (non-negative integers)
and exactly one payload matching its type: "text" (a string), "chart" (chart_name, chart_type LINE/BAR/PIE, x_axis, y_axis, data)
or "table" ({"header": [...], "rows": [[...]]}).
Place items top to bottom without overlap, leaving at least 40 pixels between one item's bottom edge and the next item's y.
Suggested sizes: TEXT 1000-1200 x 60-100, CHART 600-800 x 300-500, TABLE 800-1000 x 400-600.
Use TEXT for headers and summaries, CHART for trends and comparisons, TABLE for top-k or aggregated breakdowns.
Use only columns and values present in the profile.`

// userPrompt embeds the profile and question in the user turn.
func userPrompt(question string, profile *domain.DatasetProfile) string {
	data, err := json.Marshal(profile)
	if err != nil {
		data = []byte("{}")
	}
	var sb strings.Builder
	sb.WriteString(llm.ProfileMarker)
	sb.Write(data)
	sb.WriteString("\n")
	sb.WriteString(llm.QuestionMarker)
	sb.WriteString(strings.ReplaceAll(strings.TrimSpace(question), "\n", " "))
	return sb.String()
}

func buildRequest(opts ModelOptions, system, question string, profile *domain.DatasetProfile, format *llm.ResponseFormat) *llm.ChatCompletionRequest {
	req := &llm.ChatCompletionRequest{
		Model: opts.Model,
		Messages: []llm.ChatMessage{
			{Role: llm.RoleSystem, Content: system},
			{Role: llm.RoleUser, Content: userPrompt(question, profile)},
		},
		ResponseFormat: format,
	}
	temp := opts.Temperature
	req.Temperature = &temp
	if opts.MaxTokens > 0 {
		maxTokens := opts.MaxTokens
		req.MaxTokens = &maxTokens
	}
	return req
}
