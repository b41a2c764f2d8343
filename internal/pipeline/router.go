package pipeline

import "github.com/xiaot623/gogo/datachat/internal/domain"

// Route maps a classification label to the next stage. Missing or unknown
// labels go to the narrative stage.
func Route(label domain.Label) domain.Stage {
	switch label {
	case domain.LabelGenerateGraph:
		return domain.StageGenerateGraph
	case domain.LabelGenerateDashboard:
		return domain.StageGenerateDashboard
	default:
		return domain.StageAnalyticalResponse
	}
}
