package audit

import (
	"context"
	"math"

	"github.com/nao1215/ecoaudit/internal/model"
)

// ModeNavigation is the only supported gather mode: a single page load.
const ModeNavigation = "navigation"

// Numeric units reported by the built-in audits.
const (
	UnitFont  = "font"
	UnitByte  = "byte"
	UnitVideo = "video"
)

// Meta describes an audit.
type Meta struct {
	// ID is the stable audit identifier referenced by categories.
	ID string

	// Title is shown when the audit passes.
	Title string

	// FailureTitle is shown when the audit does not pass. Empty means Title is used.
	FailureTitle string

	// Description explains the audit and ends with a markdown "Learn more" link.
	Description string

	// SupportedModes lists the gather modes the audit can run in.
	SupportedModes []string

	// RequiredArtifacts lists the model.Artifact* names the audit reads.
	RequiredArtifacts []string
}

// Product is what an audit returns for a page.
type Product struct {
	// Score is in [0, 1], or nil when the audit is not applicable.
	Score *float64

	// NumericValue is the headline number, e.g. the count of failing fonts.
	NumericValue float64

	// NumericUnit is the unit of NumericValue.
	NumericUnit string

	// DisplayValue is a short human readable summary.
	DisplayValue string

	// NotApplicable is true when there was nothing to audit.
	NotApplicable bool
}

// Audit is a single scored check.
//
// Audit must not modify artifacts. Returning an error means the audit as a
// whole could not be scored; the runner records it as errored.
type Audit interface {
	// Meta returns the audit metadata.
	Meta() Meta

	// Audit scores the page described by artifacts.
	Audit(ctx context.Context, artifacts *model.Artifacts) (*Product, error)
}

// score returns a pointer to s for use in Product.Score.
func score(s float64) *float64 {
	return &s
}

// ratio returns part/whole, or 1 when whole is zero.
func ratio(part, whole int) float64 {
	if whole == 0 {
		return 1
	}
	return float64(part) / float64(whole)
}

// validScore reports whether s is nil or a finite number in [0, 1].
func validScore(s *float64) bool {
	if s == nil {
		return true
	}
	v := *s
	return !math.IsNaN(v) && v >= 0 && v <= 1
}

// Defaults returns the built-in audits in report order. The video-codec
// audit is only included when prober is non-nil.
func Defaults(prober CodecProber) []Audit {
	audits := []Audit{
		NewFontFormat(),
		NewFontFamily(),
		NewUnminifiedHTML(),
	}
	if prober != nil {
		audits = append(audits, NewVideoCodec(prober))
	}
	return audits
}
