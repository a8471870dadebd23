package engine

import "github.com/nao1215/vmdetect/internal/model"

// Aggregate folds probe results into the single verdict: true when at
// least one probe detected an analysis environment, false otherwise.
//
// Inconclusive results carry no weight in either direction. A host is
// flagged only on positive evidence, and a probe that could not read its
// surface must not launder a detection into a clean verdict. The fold is
// order-independent, so result ordering never changes the answer.
func Aggregate(results []model.ProbeResult) bool {
	for _, result := range results {
		if result.Outcome == model.OutcomeDetected {
			return true
		}
	}
	return false
}
