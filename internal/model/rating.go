package model

// Rating classifies an audit or category score for display.
// Scores are buckets of the 0..1 range plus the two states that carry no score.
type Rating int

const (
	// RatingNotApplicable is used when the audit had nothing to check,
	// e.g. a page without any <video> element.
	RatingNotApplicable Rating = iota

	// RatingError is used when the audit could not produce a result.
	RatingError

	// RatingFail is used for scores below RatingAverageThreshold.
	RatingFail

	// RatingAverage is used for scores in [RatingAverageThreshold, RatingPassThreshold).
	RatingAverage

	// RatingPass is used for scores at or above RatingPassThreshold.
	RatingPass
)

const (
	// RatingPassThreshold is the lowest score rated as pass.
	RatingPassThreshold = 0.9

	// RatingAverageThreshold is the lowest score rated as average.
	RatingAverageThreshold = 0.5
)

// String returns the lowercase name of the rating.
func (r Rating) String() string {
	switch r {
	case RatingNotApplicable:
		return "not applicable"
	case RatingError:
		return "error"
	case RatingFail:
		return "fail"
	case RatingAverage:
		return "average"
	case RatingPass:
		return "pass"
	default:
		return "unknown"
	}
}

// Ratings lists every rating from best to worst. Report writers use it to
// print counts in a stable order.
func Ratings() []Rating {
	return []Rating{RatingPass, RatingAverage, RatingFail, RatingNotApplicable, RatingError}
}

// RateScore maps a score to a rating. A nil score has no bucket and is rated
// as not applicable; callers that know the audit errored use RatingError.
func RateScore(score *float64) Rating {
	if score == nil {
		return RatingNotApplicable
	}
	switch {
	case *score >= RatingPassThreshold:
		return RatingPass
	case *score >= RatingAverageThreshold:
		return RatingAverage
	default:
		return RatingFail
	}
}
