package analysis

import "fmt"

const strictJSONNudge = "\n\nIMPORTANT: Respond with ONLY valid JSON. No prose, no code fences."

const promptTemplate = `You are a seasoned startup analyst. Evaluate the following startup idea.

Return your answer STRICTLY in JSON format with this schema:
{
  "one_sentence": "<one sentence verdict on the idea>",
  "target_customer": "<who would pay for this>",
  "market_signals": ["<observable signal of demand>", "..."],
  "competitors": [{"name": "<company>", "note": "<how they overlap>"}],
  "moat_risks": ["<risk to defensibility>", "..."],
  "suggested_next_step": "<cheapest experiment to validate demand>",
  "rubric": {
    "market_size": <number 0-5, 5 = very large addressable market>,
    "competition_intensity": <number 0-5, 5 = crowded space>,
    "novelty": <number 0-5, 5 = genuinely new approach>,
    "execution_complexity": <number 0-5, 5 = very hard to build>,
    "monetization_clarity": <number 0-5, 5 = obvious willingness to pay>
  }
}

Idea:
%s`

// BuildPrompt renders the analysis prompt for an idea description. The final
// retry passes strict=true to append an explicit JSON-only instruction.
func BuildPrompt(description string, strict bool) string {
	prompt := fmt.Sprintf(promptTemplate, description)
	if strict {
		prompt += strictJSONNudge
	}
	return prompt
}
