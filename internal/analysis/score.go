package analysis

import "math"

// Weights for the five rubric dimensions. They sum to 1.0; competition and
// execution complexity are inverted because higher raw values are worse.
const (
	weightMarketSize          = 0.30
	weightNovelty             = 0.20
	weightMonetizationClarity = 0.20
	weightCompetition         = 0.15
	weightExecution           = 0.15
)

// ValidationScore maps rubric inputs to an integer score in [0,100]. Inputs
// are not bounds-checked; the result is clamped after weighting, so a rubric
// value outside [0,5] cannot push the score out of range.
func ValidationScore(r Rubric) int {
	raw := 100 * (r.MarketSize/5*weightMarketSize +
		r.Novelty/5*weightNovelty +
		r.MonetizationClarity/5*weightMonetizationClarity +
		(5-r.CompetitionIntensity)/5*weightCompetition +
		(5-r.ExecutionComplexity)/5*weightExecution)

	score := int(math.Round(raw))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
