package domain

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// ClassifierReport holds quality scores for an incident classifier.
type ClassifierReport struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1_score"`
}

// EvaluateClassifier is a stub: no model is trained and the records only gate
// the empty case. Scores are drawn uniformly from fixed bands (accuracy
// 0.78–0.93, precision 0.75–0.90, recall 0.72–0.87) and F1 is the harmonic
// mean of precision and recall. All values are rounded to two decimals.
func EvaluateClassifier(records []IncidentRecord, rng *rand.Rand) (ClassifierReport, error) {
	if len(records) == 0 {
		return ClassifierReport{}, fmt.Errorf("evaluate classifier: %w", ErrEmptyInput)
	}

	accuracy := 0.78 + rng.Float64()*0.15
	precision := 0.75 + rng.Float64()*0.15
	recall := 0.72 + rng.Float64()*0.15
	f1 := 2 * precision * recall / (precision + recall)

	return ClassifierReport{
		Accuracy:  round2(accuracy),
		Precision: round2(precision),
		Recall:    round2(recall),
		F1Score:   round2(f1),
	}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
