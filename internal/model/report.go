package model

import "time"

// AuditReport is the result of auditing one URL.
// It is what the pipeline fills in, the writers render and the database stores.
type AuditReport struct {
	// URL is the URL the user asked to audit. For offline runs it is the
	// final URL given on the command line.
	URL string `json:"url"`

	// FinalURL is the URL of the main document after redirects.
	FinalURL string `json:"final_url,omitempty"`

	// DateAudited is when the audit was started.
	DateAudited time.Time `json:"date_audited"`

	// DocumentHash is the hex SHA3-256 digest of the main document.
	// Compare uses it to tell whether the page changed between runs.
	DocumentHash string `json:"document_hash,omitempty"`

	// Artifacts holds the gathered page data. It is large and is not serialized.
	Artifacts *Artifacts `json:"-"`

	// Results contains one entry per audit that was run, in registration order.
	Results []AuditResult `json:"results"`

	// Category is the weighted roll-up of Results.
	Category *CategoryResult `json:"category,omitempty"`

	// Warnings lists non-fatal problems, e.g. a stylesheet that failed to load.
	Warnings []string `json:"warnings,omitempty"`

	// Error contains the error that stopped the run, if any.
	Error error `json:"-"`

	// ErrorMessage is the string representation of Error for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// NewAuditReport creates an empty report for the given URL.
func NewAuditReport(url string) *AuditReport {
	return &AuditReport{
		URL:         url,
		DateAudited: time.Now(),
		Results:     make([]AuditResult, 0),
	}
}

// AddResult appends an audit result. A later result with the same ID
// replaces the earlier one.
func (r *AuditReport) AddResult(result AuditResult) {
	for i := range r.Results {
		if r.Results[i].ID == result.ID {
			r.Results[i] = result
			return
		}
	}
	r.Results = append(r.Results, result)
}

// Result returns the result with the given audit ID, or nil.
func (r *AuditReport) Result(id string) *AuditResult {
	for i := range r.Results {
		if r.Results[i].ID == id {
			return &r.Results[i]
		}
	}
	return nil
}

// AddWarning records a non-fatal problem. Duplicate messages are dropped.
func (r *AuditReport) AddWarning(msg string) {
	for _, w := range r.Warnings {
		if w == msg {
			return
		}
	}
	r.Warnings = append(r.Warnings, msg)
}

// SetError records the error that stopped the run.
func (r *AuditReport) SetError(err error) {
	r.Error = err
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}
