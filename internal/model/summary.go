package model

import "time"

// Summary is a compact view of an AuditReport used by list and compare output.
// It can be rebuilt from a stored report without the artifacts.
type Summary struct {
	// URL is the audited URL.
	URL string `json:"url"`

	// DateAudited is when the audit was performed.
	DateAudited time.Time `json:"date_audited"`

	// CategoryScore is the category score, or nil when it could not be computed.
	CategoryScore *float64 `json:"category_score"`

	// PassCount is the number of audits rated pass.
	PassCount int `json:"pass_count"`

	// AverageCount is the number of audits rated average.
	AverageCount int `json:"average_count"`

	// FailCount is the number of audits rated fail.
	FailCount int `json:"fail_count"`

	// NotApplicableCount is the number of audits that had nothing to check.
	NotApplicableCount int `json:"not_applicable_count"`

	// ErrorCount is the number of audits that errored.
	ErrorCount int `json:"error_count"`

	// Failing lists the IDs of audits rated fail or average.
	Failing []string `json:"failing,omitempty"`

	// Error contains the run error, if any.
	Error string `json:"error,omitempty"`
}

// NewSummary creates a Summary from an AuditReport.
func NewSummary(report *AuditReport) *Summary {
	s := &Summary{
		URL:         report.URL,
		DateAudited: report.DateAudited,
		Error:       report.ErrorMessage,
	}
	if report.Category != nil {
		s.CategoryScore = report.Category.Score
	}

	for i := range report.Results {
		rating := report.Results[i].Rating()
		switch rating {
		case RatingPass:
			s.PassCount++
		case RatingAverage:
			s.AverageCount++
			s.Failing = append(s.Failing, report.Results[i].ID)
		case RatingFail:
			s.FailCount++
			s.Failing = append(s.Failing, report.Results[i].ID)
		case RatingNotApplicable:
			s.NotApplicableCount++
		case RatingError:
			s.ErrorCount++
		}
	}
	return s
}

// Count returns the number of audits with the given rating.
func (s *Summary) Count(r Rating) int {
	switch r {
	case RatingPass:
		return s.PassCount
	case RatingAverage:
		return s.AverageCount
	case RatingFail:
		return s.FailCount
	case RatingNotApplicable:
		return s.NotApplicableCount
	case RatingError:
		return s.ErrorCount
	default:
		return 0
	}
}
