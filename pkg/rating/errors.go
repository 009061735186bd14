package rating

import "fmt"

// InvalidRatingError reports a rating outside the integer set {1..5}.
type InvalidRatingError struct {
	Rating int
}

func (e *InvalidRatingError) Error() string {
	return fmt.Sprintf("rating %d outside %d..%d", e.Rating, MinRating, MaxRating)
}

// InvalidWeightError reports an objective weight outside [0, 100].
type InvalidWeightError struct {
	Weight float64
}

func (e *InvalidWeightError) Error() string {
	return fmt.Sprintf("weight %v outside 0..100", e.Weight)
}

// EmptyInputError reports an aggregation over zero objectives.
type EmptyInputError struct {
	What string
}

func (e *EmptyInputError) Error() string {
	if e.What == "" {
		return "no ratings to aggregate"
	}
	return fmt.Sprintf("no ratings to aggregate for %s", e.What)
}

// OutOfRangeRatingError reports a classifier input outside [0, 5].
type OutOfRangeRatingError struct {
	Rating float64
}

func (e *OutOfRangeRatingError) Error() string {
	return fmt.Sprintf("numerical rating %v outside 0..5", e.Rating)
}

// InvalidTransitionError reports a disallowed status change.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot move submission from %s to %s", e.From, e.To)
}
