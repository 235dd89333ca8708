package audit

import (
	"context"
	"fmt"
	"math"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/html"

	"github.com/nao1215/ecoaudit/internal/model"
)

// UnminifiedHTMLID is the ID of the unminified-html audit.
const UnminifiedHTMLID = "unminified-html"

const (
	// ignoreThresholdPercent is the relative saving below which a document
	// is considered already minified.
	ignoreThresholdPercent = 5

	// ignoreThresholdBytes is the absolute saving below which a document
	// is not worth minifying.
	ignoreThresholdBytes = 2048

	htmlMediaType = "text/html"
)

// Waste describes how much of a document minification would remove.
type Waste struct {
	// TotalBytes is the estimated transfer size of the original document.
	TotalBytes int64

	// WastedBytes is the estimated number of transfer bytes saved.
	WastedBytes float64

	// WastedPercent is the relative saving in percent of the decoded size.
	WastedPercent float64
}

// UnminifiedHTML estimates how many bytes HTML minification would save.
//
// The minifier only removes redundant whitespace. Comments, quotes, optional
// end tags and document tags are kept so that the saving reflects what a
// conservative build step would achieve.
type UnminifiedHTML struct {
	minifier *minify.M
}

// NewUnminifiedHTML creates a new UnminifiedHTML audit.
func NewUnminifiedHTML() *UnminifiedHTML {
	m := minify.New()
	m.Add(htmlMediaType, &html.Minifier{
		KeepComments:        true,
		KeepDefaultAttrVals: true,
		KeepDocumentTags:    true,
		KeepEndTags:         true,
		KeepQuotes:          true,
	})
	return &UnminifiedHTML{minifier: m}
}

// Meta returns the audit metadata.
func (a *UnminifiedHTML) Meta() Meta {
	return Meta{
		ID:                UnminifiedHTMLID,
		Title:             "Minify HTML",
		FailureTitle:      "Minify HTML",
		Description:       "Minifying HTML files can reduce network payload sizes. [Learn More](https://w3c.github.io/sustyweb/#minify-your-html-css-and-javascript)",
		SupportedModes:    []string{ModeNavigation},
		RequiredArtifacts: []string{model.ArtifactMainDocumentContent},
	}
}

// Audit minifies the main document and scores the saving.
func (a *UnminifiedHTML) Audit(_ context.Context, artifacts *model.Artifacts) (*Product, error) {
	waste, err := a.ComputeWaste(artifacts.MainDocumentContent, artifacts.MainDocumentRecord())
	if err != nil {
		return nil, err
	}

	s := 1.0
	if waste.WastedPercent >= ignoreThresholdPercent &&
		waste.WastedBytes >= ignoreThresholdBytes &&
		!math.IsInf(waste.WastedBytes, 0) && !math.IsNaN(waste.WastedBytes) {
		s = 1 - waste.WastedPercent/100
	}

	wastedKiB := math.Round(waste.WastedBytes / 1024)
	return &Product{
		Score:        score(s),
		NumericValue: waste.WastedBytes,
		NumericUnit:  UnitByte,
		DisplayValue: fmt.Sprintf("Potential savings of %.0f KiB", wastedKiB),
	}, nil
}

// ComputeWaste minifies content and estimates the transfer bytes saved.
// record is the document's network record and may be nil.
func (a *UnminifiedHTML) ComputeWaste(content string, record *model.NetworkRecord) (Waste, error) {
	original := int64(len(content))
	if original == 0 {
		return Waste{}, nil
	}

	minified, err := a.minifier.String(htmlMediaType, content)
	if err != nil {
		return Waste{}, fmt.Errorf("failed to minify document: %w", err)
	}

	totalBytes := EstimateTransferSize(record, original, model.ResourceTypeDocument)
	wastedRatio := 1 - float64(len(minified))/float64(original)

	return Waste{
		TotalBytes:    totalBytes,
		WastedBytes:   math.Round(float64(totalBytes) * wastedRatio),
		WastedPercent: 100 * wastedRatio,
	}, nil
}
