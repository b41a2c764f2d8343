// Package domain defines the core domain models for the datachat service.
package domain

// Label is the intent classification produced for a user message.
type Label string

const (
	LabelGenerateGraph      Label = "generate_graph"
	LabelAnalyticalResponse Label = "analytical_response"
	LabelGenerateDashboard  Label = "generate_dashboard"
)

// Labels lists every valid classification label in a stable order.
var Labels = []Label{LabelGenerateGraph, LabelAnalyticalResponse, LabelGenerateDashboard}

// Valid reports whether l is one of the enumerated labels.
func (l Label) Valid() bool {
	switch l {
	case LabelGenerateGraph, LabelAnalyticalResponse, LabelGenerateDashboard:
		return true
	}
	return false
}

// Stage names a generation stage of the pipeline.
type Stage string

const (
	StageGenerateGraph      Stage = "generate_graph"
	StageAnalyticalResponse Stage = "analytical_response"
	StageGenerateDashboard  Stage = "generate_dashboard"
)

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ResponseType tags which generation strategy produced an assistant message.
type ResponseType string

const (
	ResponseTypeText      ResponseType = "TEXT"
	ResponseTypeChart     ResponseType = "CHART"
	ResponseTypeDashboard ResponseType = "DASHBOARD"
)

// Valid reports whether t is one of the enumerated response types.
func (t ResponseType) Valid() bool {
	switch t {
	case ResponseTypeText, ResponseTypeChart, ResponseTypeDashboard:
		return true
	}
	return false
}

// ChartType is the kind of chart a ChartSpec renders.
type ChartType string

const (
	ChartTypeLine ChartType = "LINE"
	ChartTypeBar  ChartType = "BAR"
	ChartTypePie  ChartType = "PIE"
)

// ChartTypes lists every valid chart type.
var ChartTypes = []ChartType{ChartTypeLine, ChartTypeBar, ChartTypePie}

// Valid reports whether t is one of the enumerated chart types.
func (t ChartType) Valid() bool {
	switch t {
	case ChartTypeLine, ChartTypeBar, ChartTypePie:
		return true
	}
	return false
}

// EntityType is the kind of a dashboard entity.
type EntityType string

const (
	EntityTypeText  EntityType = "TEXT"
	EntityTypeChart EntityType = "CHART"
	EntityTypeTable EntityType = "TABLE"
)

// EntityTypes lists every valid entity type.
var EntityTypes = []EntityType{EntityTypeText, EntityTypeChart, EntityTypeTable}

// ColumnType is the inferred scalar type of a dataset column.
type ColumnType string

const (
	ColumnTypeNumeric ColumnType = "numeric"
	ColumnTypeText    ColumnType = "text"
	ColumnTypeBoolean ColumnType = "boolean"
	ColumnTypeDate    ColumnType = "date"
	ColumnTypeOther   ColumnType = "other"
)

// RunStatus represents the status of a pipeline run.
type RunStatus string

const (
	RunStatusCreated RunStatus = "CREATED"
	RunStatusRunning RunStatus = "RUNNING"
	RunStatusDone    RunStatus = "DONE"
	RunStatusFailed  RunStatus = "FAILED"
)

// EventType represents the type of a run trace event.
type EventType string

const (
	EventTypeRunStarted    EventType = "run_started"
	EventTypeDatasetLoaded EventType = "dataset_loaded"
	EventTypeClassified    EventType = "classified"
	EventTypeRouted        EventType = "routed"
	EventTypeGenerated     EventType = "generated"
	EventTypeRunDone       EventType = "run_done"
	EventTypeRunFailed     EventType = "run_failed"
)
