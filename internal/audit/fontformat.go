package audit

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/nao1215/ecoaudit/internal/model"
)

// FontFormatID is the ID of the font-format audit.
const FontFormatID = "font-format"

var fontFormatRegex = regexp.MustCompile(`format\((.*?)\)`)

// FontFormat checks that @font-face rules offer a woff2 source.
//
// A rule without any format() hint is ignored. A rule counts as modern when
// any of its hints mentions woff2, so "woff2-variations" qualifies too.
type FontFormat struct{}

// NewFontFormat creates a new FontFormat audit.
func NewFontFormat() *FontFormat {
	return &FontFormat{}
}

// Meta returns the audit metadata.
func (a *FontFormat) Meta() Meta {
	return Meta{
		ID:           FontFormatID,
		Title:        "Modern font formats",
		FailureTitle: "Consider using woff2",
		Description: "Serve web fonts as woff2, the best compressed font format, to reduce transfer size. " +
			"[Learn more about font formats](https://w3c.github.io/sustyweb/#take-a-more-sustainable-approach-to-typefaces).",
		SupportedModes:    []string{ModeNavigation},
		RequiredArtifacts: []string{model.ArtifactCSSUsage, model.ArtifactURL},
	}
}

// Audit counts @font-face rules with and without a woff2 source.
func (a *FontFormat) Audit(_ context.Context, artifacts *model.Artifacts) (*Product, error) {
	modern, total := countFontFormats(artifacts.Stylesheets)

	if total == 0 {
		return &Product{Score: score(1), NumericValue: 0, NumericUnit: UnitFont}, nil
	}

	legacy := total - modern
	return &Product{
		Score:        score(ratio(modern, total)),
		NumericValue: float64(legacy),
		NumericUnit:  UnitFont,
		DisplayValue: fmt.Sprintf("%d of %d font(s) did not use woff2", legacy, total),
	}, nil
}

// countFontFormats returns the number of rules with a woff2 hint and the
// number of rules with any format hint. Each rule is counted at most once.
func countFontFormats(stylesheets []model.Stylesheet) (modern, total int) {
	for _, block := range fontFaceBlocks(stylesheets) {
		formats := fontFormatRegex.FindAllStringSubmatch(block, -1)
		if len(formats) == 0 {
			continue
		}
		total++
		for _, f := range formats {
			if strings.Contains(f[1], "woff2") {
				modern++
				break
			}
		}
	}
	return modern, total
}
