package gather

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// stylesheetSelector matches linked and inline stylesheets in document order.
const stylesheetSelector = `link[rel~="stylesheet"][href], style`

// stylesheetRef is either a stylesheet URL to fetch or inline CSS.
type stylesheetRef struct {
	URL    string
	Inline string
}

// discoverStylesheets lists the stylesheets referenced by the document.
// Linked stylesheet URLs are resolved against baseURL and deduplicated.
// Alternate and disabled stylesheets are skipped.
func discoverStylesheets(document, baseURL string) ([]stylesheetRef, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	var refs []stylesheetRef
	seen := make(map[string]struct{})

	doc.Find(stylesheetSelector).Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "style" {
			if css := s.Text(); strings.TrimSpace(css) != "" {
				refs = append(refs, stylesheetRef{Inline: css})
			}
			return
		}

		if _, disabled := s.Attr("disabled"); disabled {
			return
		}
		if strings.Contains(strings.ToLower(s.AttrOr("rel", "")), "alternate") {
			return
		}

		href, err := resolve(base, s.AttrOr("href", ""))
		if err != nil {
			return
		}
		if _, ok := seen[href]; ok {
			return
		}
		seen[href] = struct{}{}
		refs = append(refs, stylesheetRef{URL: href})
	})

	return refs, nil
}
