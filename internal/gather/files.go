package gather

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/ecoaudit/internal/model"
)

// LoadFiles builds artifacts from an HTML file and optional CSS files.
//
// Inline <style> elements of the document are included; linked stylesheets
// are not fetched, pass them as cssPaths instead. finalURL is the URL the
// page would be served from and is used to resolve relative video sources.
// When empty, the file:// URL of htmlPath is used. No network records are
// produced, so transfer sizes are estimated.
func LoadFiles(htmlPath string, cssPaths []string, finalURL string) (*Result, error) {
	raw, err := os.ReadFile(filepath.Clean(htmlPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read HTML file: %w", err)
	}

	content, err := decodeText(raw, "text/html")
	if err != nil {
		return nil, fmt.Errorf("failed to decode HTML file: %w", err)
	}
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, htmlPath)
	}

	if finalURL == "" {
		finalURL, err = fileURL(htmlPath)
		if err != nil {
			return nil, err
		}
	} else if u, err := url.Parse(finalURL); err != nil || !u.IsAbs() {
		return nil, fmt.Errorf("%w: final URL %q must be absolute", ErrInvalidURL, finalURL)
	}

	refs, err := discoverStylesheets(content, finalURL)
	if err != nil {
		return nil, err
	}

	sheets := make([]model.Stylesheet, 0, len(refs)+len(cssPaths))
	for _, ref := range refs {
		if ref.URL == "" {
			sheets = append(sheets, model.Stylesheet{Content: ref.Inline})
		}
	}
	for _, p := range cssPaths {
		css, err := os.ReadFile(filepath.Clean(p))
		if err != nil {
			return nil, fmt.Errorf("failed to read CSS file: %w", err)
		}
		text, err := decodeText(css, "text/css")
		if err != nil {
			return nil, fmt.Errorf("failed to decode CSS file %s: %w", p, err)
		}
		sheets = append(sheets, model.Stylesheet{URL: p, Content: text})
	}

	return &Result{
		Artifacts: &model.Artifacts{
			URL: model.URLArtifact{
				RequestedURL:      finalURL,
				MainDocumentURL:   finalURL,
				FinalDisplayedURL: finalURL,
			},
			Stylesheets:         sheets,
			MainDocumentContent: content,
		},
		DocumentHash: Hash([]byte(content)),
	}, nil
}

// fileURL returns the file:// URL of path.
func fileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}
