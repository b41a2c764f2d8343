package pipeline

import (
	"github.com/xiaot623/gogo/datachat/internal/adapter/llm"
	"github.com/xiaot623/gogo/datachat/internal/domain"
)

func labelStrings() []string {
	out := make([]string, len(domain.Labels))
	for i, l := range domain.Labels {
		out[i] = string(l)
	}
	return out
}

func chartTypeStrings() []string {
	out := make([]string, len(domain.ChartTypes))
	for i, t := range domain.ChartTypes {
		out[i] = string(t)
	}
	return out
}

func entityTypeStrings() []string {
	out := make([]string, len(domain.EntityTypes))
	for i, t := range domain.EntityTypes {
		out[i] = string(t)
	}
	return out
}

func classificationSchema() *llm.Schema {
	return llm.Object(map[string]*llm.Schema{
		"message_type": llm.String("Intent of the user's message", labelStrings()...),
	}, "message_type")
}

func chartSpecSchema() *llm.Schema {
	return llm.Object(map[string]*llm.Schema{
		"chart_name": llm.String("Short chart title"),
		"chart_type": llm.String("Kind of chart", chartTypeStrings()...),
		"x_axis":     llm.ArrayOf(llm.String("Column name"), 1),
		"y_axis":     llm.ArrayOf(llm.String("Column name"), 1),
		"data":       llm.ArrayOf(llm.FreeForm("Record keyed by axis column"), 0),
	}, "chart_name", "chart_type", "x_axis", "y_axis", "data")
}

func chartPayloadSchema() *llm.Schema {
	return llm.Object(map[string]*llm.Schema{
		"charts": llm.ArrayOf(chartSpecSchema(), 1),
	}, "charts")
}

func dashboardPayloadSchema() *llm.Schema {
	entity := llm.Object(map[string]*llm.Schema{
		"entity_type": llm.String("Kind of entity", entityTypeStrings()...),
		"x":           llm.NonNegativeInteger("Left edge in pixels"),
		"y":           llm.NonNegativeInteger("Top edge in pixels"),
		"width":       llm.NonNegativeInteger("Width in pixels"),
		"height":      llm.NonNegativeInteger("Height in pixels"),
		"text":        llm.String("Text content, TEXT entities only"),
		"chart":       chartSpecSchema(),
		"table": llm.Object(map[string]*llm.Schema{
			"header": llm.ArrayOf(llm.String("Column header"), 1),
			"rows":   llm.ArrayOf(llm.ArrayOf(llm.Any("Cell value"), 0), 0),
		}, "header", "rows"),
	}, "entity_type", "x", "y", "width", "height")
	return llm.Object(map[string]*llm.Schema{
		"items": llm.ArrayOf(entity, 1),
	}, "items")
}
