// Package rating implements IPCRF score aggregation: objective scores, KRA
// averages, the overall numerical rating and its adjectival label.
//
// Every function is pure and safe for concurrent use.
package rating

import "math"

const (
	MinRating = 1
	MaxRating = 5

	MaxWeight = 100.0
)

// ObjectiveInput is one rated objective as supplied by a rater.
type ObjectiveInput struct {
	ObjectiveID string
	Rating      int
	Weight      float64
}

// ObjectiveResult is a scored objective.
type ObjectiveResult struct {
	ObjectiveID string
	Rating      int
	Weight      float64
	Score       float64
}

// KRAInput groups the rated objectives of one key result area.
type KRAInput struct {
	KRAID      string
	Objectives []ObjectiveInput
}

// KRAResult holds the aggregates of one key result area. Empty is set when
// the KRA carried no objectives and was left out of the submission totals.
type KRAResult struct {
	KRAID         string
	Objectives    []ObjectiveResult
	AverageRating float64
	Score         float64
	Empty         bool
}

// SubmissionResult holds the submission level aggregates.
type SubmissionResult struct {
	KRAs            []KRAResult
	TotalScore      float64
	NumericalRating float64
	ObjectiveCount  int
}

// ValidateRating rejects ratings outside {1..5}.
func ValidateRating(r int) error {
	if r < MinRating || r > MaxRating {
		return &InvalidRatingError{Rating: r}
	}
	return nil
}

// Evaluate returns the weighted score of a single objective: rating * weight / 5.
func Evaluate(r int, weight float64) (float64, error) {
	if err := ValidateRating(r); err != nil {
		return 0, err
	}
	if math.IsNaN(weight) || weight < 0 || weight > MaxWeight {
		return 0, &InvalidWeightError{Weight: weight}
	}
	return float64(r) * weight / MaxRating, nil
}

// ScoreObjective evaluates one objective input.
func ScoreObjective(in ObjectiveInput) (ObjectiveResult, error) {
	score, err := Evaluate(in.Rating, in.Weight)
	if err != nil {
		return ObjectiveResult{}, err
	}
	return ObjectiveResult{ObjectiveID: in.ObjectiveID, Rating: in.Rating, Weight: in.Weight, Score: score}, nil
}

// AggregateKRA computes the unweighted mean rating and the summed score of
// already scored objectives. An empty list returns EmptyInputError.
func AggregateKRA(kraID string, objectives []ObjectiveResult) (KRAResult, error) {
	if len(objectives) == 0 {
		return KRAResult{KRAID: kraID}, &EmptyInputError{What: "kra " + kraID}
	}
	var ratingSum, scoreSum float64
	for _, o := range objectives {
		ratingSum += float64(o.Rating)
		scoreSum += o.Score
	}
	return KRAResult{
		KRAID:         kraID,
		Objectives:    objectives,
		AverageRating: ratingSum / float64(len(objectives)),
		Score:         scoreSum,
	}, nil
}

// AggregateSubmission sums KRA scores and averages the ratings of every
// objective across all KRAs. KRAs without objectives contribute nothing.
// When no objective is left the result is EmptyInputError.
func AggregateSubmission(kras []KRAResult) (SubmissionResult, error) {
	result := SubmissionResult{KRAs: kras}
	var ratingSum float64
	for _, k := range kras {
		if k.Empty || len(k.Objectives) == 0 {
			continue
		}
		result.TotalScore += k.Score
		for _, o := range k.Objectives {
			ratingSum += float64(o.Rating)
			result.ObjectiveCount++
		}
	}
	if result.ObjectiveCount == 0 {
		return SubmissionResult{KRAs: kras}, &EmptyInputError{What: "submission"}
	}
	result.NumericalRating = ratingSum / float64(result.ObjectiveCount)
	return result, nil
}

// Compute runs the whole pipeline over raw KRA inputs.
func Compute(kras []KRAInput) (SubmissionResult, error) {
	results := make([]KRAResult, 0, len(kras))
	for _, k := range kras {
		scored := make([]ObjectiveResult, 0, len(k.Objectives))
		for _, in := range k.Objectives {
			o, err := ScoreObjective(in)
			if err != nil {
				return SubmissionResult{}, err
			}
			scored = append(scored, o)
		}
		if len(scored) == 0 {
			results = append(results, KRAResult{KRAID: k.KRAID, Objectives: scored, Empty: true})
			continue
		}
		agg, err := AggregateKRA(k.KRAID, scored)
		if err != nil {
			return SubmissionResult{}, err
		}
		results = append(results, agg)
	}
	return AggregateSubmission(results)
}

// Round2 rounds half to even at two decimals, the precision stored and printed.
func Round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}
