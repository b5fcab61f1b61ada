package profile

// Criterion is one scored evaluation dimension of a profile.
type Criterion struct {
	Name    string `json:"name"`
	Score   int    `json:"score"` // 1-10
	Comment string `json:"comment"`
}

// Profile is the structured institutional reading of a practitioner's
// narrative: ten criteria, a composite symbolic-alignment score and a
// free-text summary.
type Profile struct {
	Criteria []Criterion `json:"criteria"`
	IASScore int         `json:"ias_score"` // 0-100
	Summary  string      `json:"summary"`
}

// Document is the on-disk and over-the-wire envelope for a profile.
type Document struct {
	Profile Profile `json:"profile"`
}

// Admissibility decisions as the financial reviewer's model emits them.
const (
	DecisionAccept      = "Acceptation"
	DecisionConditional = "Acceptation conditionnelle"
	DecisionReject      = "Rejet"
)

// Evaluation is the financial reviewer's structured outcome.
type Evaluation struct {
	Criteria        []Criterion `json:"criteria"`
	GlobalScore     int         `json:"global_score"` // 0-100
	Decision        string      `json:"decision"`
	Recommendations []string    `json:"recommendations"`
	Summary         string      `json:"summary"`
}

// EvaluationDocument is the envelope the model is asked to return.
type EvaluationDocument struct {
	Evaluation Evaluation `json:"evaluation"`
}

// EnrichedCriterion carries the reviewer's angle next to the symbolic one.
type EnrichedCriterion struct {
	Name                 string `json:"name"`
	Score                int    `json:"score"`
	Comment              string `json:"comment"`
	FinancialPerspective string `json:"financial_perspective,omitempty"`
}

// EnrichedProfile merges the symbolic profile with the financial evaluation.
type EnrichedProfile struct {
	Criteria         []EnrichedCriterion `json:"criteria"`
	IASScore         int                 `json:"ias_score"`
	FinancialScore   int                 `json:"financial_score"`
	CombinedScore    int                 `json:"combined_score"`
	ImprovementAreas []string            `json:"improvement_areas"`
	Summary          string              `json:"summary"`
}

// EnrichedDocument is the envelope for an enriched profile file.
type EnrichedDocument struct {
	Profile EnrichedProfile `json:"profile"`
}
