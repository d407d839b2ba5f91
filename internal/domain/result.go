package domain

// Route identifies the path a query took through the troubleshooting
// orchestrator.
type Route string

const (
	RouteKB       Route = "kb"
	RouteSME      Route = "sme"
	RouteResearch Route = "research"
	RouteGeneral  Route = "general"
	RouteClarify  Route = "clarify"
)

// EquipmentContext is optional structured input supplied by an upstream
// recognition step (nameplate OCR, fault-display capture). All fields may
// be empty; RecognitionConfidence applies to the recognition output, not to
// the answer.
type EquipmentContext struct {
	Manufacturer          string
	Model                 string
	FaultCode             string
	EquipmentType         string
	RecognitionConfidence float64
}

// Empty reports whether the context carries no usable signal.
func (c *EquipmentContext) Empty() bool {
	if c == nil {
		return true
	}
	return c.Manufacturer == "" && c.Model == "" && c.FaultCode == "" && c.EquipmentType == ""
}

// TroubleshootResult is the outcome of a single troubleshooting query. It is
// assembled by the orchestrator and not persisted.
type TroubleshootResult struct {
	Answer              string
	Route               Route
	Confidence          float64
	Sources             []string // atom ids backing the answer, kb route only
	SafetyWarnings      []string
	ClarificationPrompt string // set only on the clarify route
	GapLogged           bool
}
