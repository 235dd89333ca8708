package audit

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/nao1215/ecoaudit/internal/model"
)

// FontFamilyID is the ID of the font-family audit.
const FontFamilyID = "font-family"

var fontFamilyRegex = regexp.MustCompile(`font-family\s*:\s*([^;}]*)`)

// webSafeFonts are families that are pre-installed on common systems and
// need no download. Names are lowercase.
var webSafeFonts = map[string]struct{}{
	"-apple-system": {}, "avenir next": {}, "avenir": {}, "cantarell": {},
	"ubuntu": {}, "roboto": {}, "noto": {}, "serif": {},
	"iowan old style": {}, "apple garamond": {}, "baskerville": {},
	"droid serif": {}, "source serif pro": {}, "apple color emoji": {},
	"segoe ui emoji": {}, "segoe ui symbol": {}, "mono": {}, "menlo": {},
	"consolas": {}, "monaco": {}, "liberation mono": {}, "lucida console": {},
	"system-ui": {}, "blinkmacsystemfont": {}, "segoe ui": {}, "open sans": {},
	"helvetica neue": {}, "helvetica": {}, "arial": {}, "sans-serif": {},
	"times new roman": {}, "times": {}, "georgia": {}, "garamond": {},
	"tahoma": {}, "verdana": {}, "trebuchet ms": {}, "geneva": {},
	"courier new": {}, "courier": {}, "monospace": {}, "brush script mt": {},
	"cursive": {}, "copperplate": {}, "papyrus": {}, "fantasy": {},
}

// FontFamily checks that @font-face rules declare web safe families.
type FontFamily struct{}

// NewFontFamily creates a new FontFamily audit.
func NewFontFamily() *FontFamily {
	return &FontFamily{}
}

// Meta returns the audit metadata.
func (a *FontFamily) Meta() Meta {
	return Meta{
		ID:           FontFamilyID,
		Title:        "Use system fonts",
		FailureTitle: "Consider using web safe fonts",
		Description: "Use standard system-level (web-safe / pre-installed) fonts as much as possible. " +
			"[Learn more about `font-family`](https://w3c.github.io/sustyweb/#take-a-more-sustainable-approach-to-typefaces).",
		SupportedModes:    []string{ModeNavigation},
		RequiredArtifacts: []string{model.ArtifactCSSUsage, model.ArtifactURL},
	}
}

// Audit compares the distinct declared families against the web safe list.
func (a *FontFamily) Audit(_ context.Context, artifacts *model.Artifacts) (*Product, error) {
	families := FontFamilies(artifacts.Stylesheets)

	if len(families) == 0 {
		return &Product{Score: score(1), NumericValue: 0, NumericUnit: UnitFont}, nil
	}

	safe := 0
	for _, f := range families {
		if IsWebSafeFont(f) {
			safe++
		}
	}

	unsafe := len(families) - safe
	return &Product{
		Score:        score(ratio(safe, len(families))),
		NumericValue: float64(unsafe),
		NumericUnit:  UnitFont,
		DisplayValue: fmt.Sprintf("%d of %d font(s) are not web safe", unsafe, len(families)),
	}, nil
}

// FontFamilies returns the distinct family names declared by @font-face
// rules, sorted. Only the first family of each declaration is used.
// Rules without a usable font-family declaration are skipped.
func FontFamilies(stylesheets []model.Stylesheet) []string {
	seen := make(map[string]struct{})
	for _, block := range fontFaceBlocks(stylesheets) {
		name, ok := firstFontFamily(block)
		if !ok {
			continue
		}
		seen[name] = struct{}{}
	}

	families := make([]string, 0, len(seen))
	for name := range seen {
		families = append(families, name)
	}
	slices.Sort(families)
	return families
}

// IsWebSafeFont reports whether the lowercase family name is web safe.
func IsWebSafeFont(name string) bool {
	_, ok := webSafeFonts[name]
	return ok
}

// firstFontFamily extracts the first family name of the block's first
// font-family declaration.
func firstFontFamily(block string) (string, bool) {
	m := fontFamilyRegex.FindStringSubmatch(block)
	if m == nil {
		return "", false
	}
	value := strings.NewReplacer(`"`, "", `'`, "").Replace(m[1])
	first, _, _ := strings.Cut(value, ",")
	first = strings.ToLower(strings.TrimSpace(first))
	if first == "" {
		return "", false
	}
	return first, true
}
