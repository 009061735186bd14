package rating

import "math"

// Label is an adjectival rating.
type Label string

const (
	LabelOutstanding      Label = "Outstanding"
	LabelVerySatisfactory Label = "Very Satisfactory"
	LabelSatisfactory     Label = "Satisfactory"
	LabelUnsatisfactory   Label = "Unsatisfactory"
	LabelPoor             Label = "Poor"
)

type threshold struct {
	min   float64
	label Label
}

// thresholds is ordered by descending inclusive lower bound.
var thresholds = []threshold{
	{4.5, LabelOutstanding},
	{3.5, LabelVerySatisfactory},
	{2.5, LabelSatisfactory},
	{1.5, LabelUnsatisfactory},
}

// Labels lists every adjectival label from best to worst.
func Labels() []Label {
	labels := make([]Label, 0, len(thresholds)+1)
	for _, t := range thresholds {
		labels = append(labels, t.label)
	}
	return append(labels, LabelPoor)
}

// Classify maps a numerical rating in [0, 5] to its adjectival label.
// Values outside the range are rejected, not clamped.
func Classify(r float64) (Label, error) {
	if math.IsNaN(r) || r < 0 || r > MaxRating {
		return "", &OutOfRangeRatingError{Rating: r}
	}
	for _, t := range thresholds {
		if r >= t.min {
			return t.label, nil
		}
	}
	return LabelPoor, nil
}
