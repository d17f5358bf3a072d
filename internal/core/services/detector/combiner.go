package detector

// CombinerPolicy folds rule hits and the classifier output into one score.
// Each fired rule contributes one point; a positive model prediction adds
// two points when its confidence exceeds the high-confidence cutoff, one
// point otherwise. The verdict is spoofed when the score reaches the
// threshold.
type CombinerPolicy struct {
	Threshold            int
	HighConfidenceCutoff float64
}

// DefaultCombinerPolicy matches the shipped tuning: threshold 4, cutoff 0.8.
func DefaultCombinerPolicy() CombinerPolicy {
	return CombinerPolicy{Threshold: 4, HighConfidenceCutoff: 0.8}
}

// Combine returns the final spoof decision and the composite score.
func (p CombinerPolicy) Combine(ruleCount int, mlLabel int, mlConfidence float64) (spoofed bool, score int) {
	score = ruleCount
	if mlLabel == 1 {
		if mlConfidence > p.HighConfidenceCutoff {
			score += 2
		} else {
			score++
		}
	}
	return score >= p.Threshold, score
}
