package audit

import (
	"context"
	"testing"
)

func TestFontFormat(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		sheets       []string
		score        float64
		numericValue float64
		display      string
	}{
		{
			name:   "no stylesheets",
			sheets: nil,
			score:  1,
		},
		{
			name:   "no font-face rules",
			sheets: []string{"body { color: red; }"},
			score:  1,
		},
		{
			name:    "woff2 only",
			sheets:  []string{`@font-face { font-family: "A"; src: url(a.woff2) format("woff2"); }`},
			score:   1,
			display: "0 of 1 font(s) did not use woff2",
		},
		{
			name:         "woff only",
			sheets:       []string{`@font-face { font-family: "A"; src: url(a.woff) format("woff"); }`},
			score:        0,
			numericValue: 1,
			display:      "1 of 1 font(s) did not use woff2",
		},
		{
			name: "rule without format hint is ignored",
			sheets: []string{
				`@font-face { font-family: "A"; src: url(a.ttf); }`,
				`@font-face { font-family: "B"; src: url(b.woff) format("woff"); }`,
			},
			score:        0,
			numericValue: 1,
			display:      "1 of 1 font(s) did not use woff2",
		},
		{
			name: "two woff2 hints in one rule count once",
			sheets: []string{`@font-face { font-family: "A";
				src: url(a.woff2) format("woff2"),
				     url(a-var.woff2) format("woff2-variations"); }
				@font-face { font-family: "B"; src: url(b.ttf) format("truetype"); }`},
			score:        0.5,
			numericValue: 1,
			display:      "1 of 2 font(s) did not use woff2",
		},
		{
			name:    "rule spanning lines with CRLF",
			sheets:  []string{"@font-face {\r\n  font-family: A;\r\n  src: url(a.woff2) format('woff2');\r\n}"},
			score:   1,
			display: "0 of 1 font(s) did not use woff2",
		},
		{
			name:         "match is case sensitive",
			sheets:       []string{`@font-face { src: url(a.woff2) format("WOFF2"); }`},
			score:        0,
			numericValue: 1,
			display:      "1 of 1 font(s) did not use woff2",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			product, err := NewFontFormat().Audit(context.Background(), cssArtifacts(tc.sheets...))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if product.Score == nil || !floatEquals(*product.Score, tc.score) {
				t.Errorf("got score %v, expected %v", product.Score, tc.score)
			}
			if product.NumericValue != tc.numericValue {
				t.Errorf("got numeric value %v, expected %v", product.NumericValue, tc.numericValue)
			}
			if product.NumericUnit != UnitFont {
				t.Errorf("got unit %q, expected %q", product.NumericUnit, UnitFont)
			}
			if product.DisplayValue != tc.display {
				t.Errorf("got display %q, expected %q", product.DisplayValue, tc.display)
			}
		})
	}
}

func TestFontFormatScoreNeverExceedsOne(t *testing.T) {
	t.Parallel()

	sheet := `@font-face { src: url(a.woff2) format("woff2"), url(b.woff2) format("woff2"), url(c.woff2) format("woff2"); }`
	product, err := NewFontFormat().Audit(context.Background(), cssArtifacts(sheet))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if *product.Score > 1 {
		t.Errorf("score %v exceeds 1", *product.Score)
	}
}
