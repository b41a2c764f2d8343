package domain

// ChartSpec describes one chart produced by the chart builder.
type ChartSpec struct {
	Name      string    `json:"chart_name"`
	ChartType ChartType `json:"chart_type"`
	XAxis     []string  `json:"x_axis"`
	YAxis     []string  `json:"y_axis"`
	Data      []Record  `json:"data"`
}

// ChartPayload is the structured content of a CHART assistant message.
type ChartPayload struct {
	Charts []ChartSpec `json:"charts"`
}

// TableSpec is a tabular dashboard entity payload.
type TableSpec struct {
	Header []string        `json:"header"`
	Rows   [][]interface{} `json:"rows"`
}

// DashboardEntity is one positioned item of a dashboard layout. Exactly one of
// Text, Chart and Table is set, matching EntityType.
type DashboardEntity struct {
	EntityType EntityType `json:"entity_type"`
	X          int        `json:"x"`
	Y          int        `json:"y"`
	Width      int        `json:"width"`
	Height     int        `json:"height"`
	Text       *string    `json:"text,omitempty"`
	Chart      *ChartSpec `json:"chart,omitempty"`
	Table      *TableSpec `json:"table,omitempty"`
}

// Bottom returns the y coordinate just below the entity.
func (e DashboardEntity) Bottom() int {
	return e.Y + e.Height
}

// DashboardPayload is the structured content of a DASHBOARD assistant message.
type DashboardPayload struct {
	Items []DashboardEntity `json:"items"`
}

// ClassificationResult is the structured output of the classifier call.
type ClassificationResult struct {
	MessageType Label `json:"message_type"`
}
