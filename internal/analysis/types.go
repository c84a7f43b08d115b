package analysis

// Rubric holds the five numeric assessments returned by the model. Values are
// nominally 0-5; out-of-range values are carried as-is and only the final
// score is clamped.
type Rubric struct {
	MarketSize           float64 `json:"market_size"`
	CompetitionIntensity float64 `json:"competition_intensity"`
	Novelty              float64 `json:"novelty"`
	ExecutionComplexity  float64 `json:"execution_complexity"`
	MonetizationClarity  float64 `json:"monetization_clarity"`
}

type Competitor struct {
	Name string `json:"name"`
	Note string `json:"note"`
}

// Result is the structured payload the model is asked to return.
type Result struct {
	OneSentence       string       `json:"one_sentence"`
	TargetCustomer    string       `json:"target_customer"`
	MarketSignals     []string     `json:"market_signals"`
	Competitors       []Competitor `json:"competitors"`
	MoatRisks         []string     `json:"moat_risks"`
	SuggestedNextStep string       `json:"suggested_next_step"`
	Rubric            Rubric       `json:"rubric"`
}
