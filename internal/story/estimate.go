package story

// ManualEstimate builds the estimate recorded when a person sizes a story.
// Manual estimates are always high confidence; factors from a previous
// estimate are carried over so the reasoning trail is not lost.
func ManualEstimate(prev *Estimate, size EstimateSize, points int, reasoning string) *Estimate {
	est := &Estimate{
		Size:             size,
		StoryPoints:      points,
		Confidence:       ConfidenceHigh,
		ConfidenceScore:  100,
		Factors:          []Factor{},
		Reasoning:        reasoning,
		IsManualOverride: true,
	}
	if prev != nil {
		est.Factors = append(est.Factors, prev.Factors...)
		if reasoning == "" {
			est.Reasoning = prev.Reasoning
		}
	}
	return est
}
