package model

// AuditResult is the recorded outcome of one audit run against one page.
// It combines the audit's metadata with the product it returned.
type AuditResult struct {
	// ID is the audit identifier, e.g. "font-format".
	ID string `json:"id"`

	// Title is the passing title, or the failure title when the score is below
	// the pass threshold.
	Title string `json:"title"`

	// Description explains the audit, with a "Learn more" markdown link.
	Description string `json:"description"`

	// Score is in [0, 1], or nil when the audit is not applicable or errored.
	Score *float64 `json:"score"`

	// NumericValue is the audit's headline number (failing fonts, wasted bytes, ...).
	NumericValue float64 `json:"numeric_value"`

	// NumericUnit is the unit of NumericValue: "font", "byte" or "video".
	NumericUnit string `json:"numeric_unit"`

	// DisplayValue is the human readable summary shown next to the title.
	DisplayValue string `json:"display_value,omitempty"`

	// NotApplicable is true when the page had nothing for the audit to check.
	NotApplicable bool `json:"not_applicable,omitempty"`

	// ErrorMessage is set when the audit failed or its artifacts were missing.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// Errored reports whether the audit failed to produce a result.
func (r *AuditResult) Errored() bool {
	return r.ErrorMessage != ""
}

// Rating returns the display rating of the result.
func (r *AuditResult) Rating() Rating {
	switch {
	case r.Errored():
		return RatingError
	case r.NotApplicable:
		return RatingNotApplicable
	default:
		return RateScore(r.Score)
	}
}

// CategoryResult is the weighted roll-up of audit results.
type CategoryResult struct {
	// ID is the category identifier.
	ID string `json:"id"`

	// Title is the category title, e.g. "Sustainable Web Design".
	Title string `json:"title"`

	// Description explains the category.
	Description string `json:"description"`

	// Score is the weighted mean of the contributing audits, or nil when no
	// audit carried weight.
	Score *float64 `json:"score"`

	// Refs lists every audit reference with the weight actually applied.
	Refs []CategoryRef `json:"refs"`

	// Unavailable lists references that had no result in this run.
	Unavailable []string `json:"unavailable,omitempty"`
}

// CategoryRef is one audit reference of a scored category.
type CategoryRef struct {
	// ID is the referenced audit identifier.
	ID string `json:"id"`

	// Weight is the configured weight of the reference.
	Weight float64 `json:"weight"`

	// AppliedWeight is the weight used in the mean: zero for not applicable
	// or unavailable audits.
	AppliedWeight float64 `json:"applied_weight"`
}

// Rating returns the display rating of the category score.
func (c *CategoryResult) Rating() Rating {
	return RateScore(c.Score)
}
