package audit

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/ecoaudit/internal/model"
)

// VideoCodecID is the ID of the video-codec audit.
const VideoCodecID = "video-codec"

// modernVideoCodecs are codecs considered efficient.
var modernVideoCodecs = map[string]struct{}{
	"hevc": {},
	"h264": {},
	"vp9":  {},
	"av1":  {},
}

// VideoCodec checks that videos embedded in the page use a modern codec.
type VideoCodec struct {
	prober CodecProber
}

// NewVideoCodec creates a new VideoCodec audit that probes with prober.
func NewVideoCodec(prober CodecProber) *VideoCodec {
	return &VideoCodec{prober: prober}
}

// Meta returns the audit metadata.
func (a *VideoCodec) Meta() Meta {
	return Meta{
		ID:           VideoCodecID,
		Title:        "Modern video codecs",
		FailureTitle: "Some of the used video codecs are not energy efficient",
		Description: "Compress your video; by reducing the quality and offering different resolutions / dimensions (sizes) " +
			"before uploading to a server or content management system. [Learn more](https://w3c.github.io/sustyweb/#compress-your-files)",
		SupportedModes:    []string{ModeNavigation},
		RequiredArtifacts: []string{model.ArtifactMainDocumentContent, model.ArtifactURL},
	}
}

// Audit probes every distinct video source of the page.
// A single failed probe fails the audit.
func (a *VideoCodec) Audit(ctx context.Context, artifacts *model.Artifacts) (*Product, error) {
	urls, err := VideoURLs(artifacts.MainDocumentContent, artifacts.URL.FinalDisplayedURL)
	if err != nil {
		return nil, err
	}

	if len(urls) == 0 {
		return &Product{NotApplicable: true, NumericValue: 0, NumericUnit: UnitVideo}, nil
	}

	modern := 0
	for _, u := range urls {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		codec, err := a.prober.Probe(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("failed to probe %s: %w", u, err)
		}
		if IsModernCodec(codec) {
			modern++
		}
	}

	legacy := len(urls) - modern
	return &Product{
		Score:        score(ratio(modern, len(urls))),
		NumericValue: float64(legacy),
		NumericUnit:  UnitVideo,
		DisplayValue: fmt.Sprintf("%d of %d video(s) can be optimised", legacy, len(urls)),
	}, nil
}

// IsModernCodec reports whether codec is an efficient video codec.
func IsModernCodec(codec string) bool {
	_, ok := modernVideoCodecs[codec]
	return ok
}

// VideoURLs returns the absolute source URL of every <video> element in the
// document, deduplicated in first-seen order. The element's own src wins over
// nested <source> elements, and only the first <source> with a src is used.
// Videos without any source are skipped.
func VideoURLs(document, baseURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: base %q: %w", ErrInvalidVideoURL, baseURL, err)
	}

	var (
		urls    []string
		seen    = make(map[string]struct{})
		walkErr error
	)
	doc.Find("video").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src := strings.TrimSpace(s.AttrOr("src", ""))
		if src == "" {
			src = strings.TrimSpace(s.Find("source[src]").First().AttrOr("src", ""))
		}
		if src == "" {
			return true
		}

		abs, err := resolveURL(base, src)
		if err != nil {
			walkErr = err
			return false
		}
		if _, ok := seen[abs]; ok {
			return true
		}
		seen[abs] = struct{}{}
		urls = append(urls, abs)
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return urls, nil
}

// resolveURL resolves ref against base and requires an absolute result.
func resolveURL(base *url.URL, ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrInvalidVideoURL, ref, err)
	}
	abs := base.ResolveReference(u)
	if !abs.IsAbs() {
		return "", fmt.Errorf("%w: %q is not absolute", ErrInvalidVideoURL, abs.String())
	}
	return abs.String(), nil
}
