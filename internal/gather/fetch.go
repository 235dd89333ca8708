package gather

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/net/html/charset"

	"github.com/nao1215/ecoaudit/internal/model"
)

// response is a fetched resource with its decoded body.
type response struct {
	record      model.NetworkRecord
	body        []byte
	contentType string
}

// fetch performs a GET request and records how many bytes travelled on the
// wire. gzip is requested explicitly, which stops http.Transport from
// decompressing transparently, so the raw body length is the transfer size.
func (g *Gatherer) fetch(ctx context.Context, rawURL, resourceType string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept-Encoding", "gzip")
	if resourceType == model.ResourceTypeStylesheet {
		req.Header.Set("Accept", "text/css,*/*;q=0.1")
	} else {
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	}
	g.applySiteSettings(req)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := g.readLimited(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	body, err := g.decompress(raw, encoding)
	if err != nil {
		return nil, err
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &response{
		record: model.NetworkRecord{
			URL:             finalURL,
			ResourceType:    resourceType,
			StatusCode:      resp.StatusCode,
			TransferSize:    int64(len(raw)),
			ResourceSize:    int64(len(body)),
			ContentEncoding: encoding,
		},
		body:        body,
		contentType: resp.Header.Get("Content-Type"),
	}, nil
}

// readLimited reads r completely, failing with ErrBodyTooLarge instead of
// returning a truncated body when r holds more than maxBodySize bytes.
func (g *Gatherer) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, g.maxBodySize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > g.maxBodySize {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrBodyTooLarge, g.maxBodySize)
	}
	return data, nil
}

// decompress decodes a response body according to its Content-Encoding.
func (g *Gatherer) decompress(raw []byte, encoding string) ([]byte, error) {
	switch encoding {
	case "", "identity":
		return raw, nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip body: %w", err)
		}
		defer zr.Close()

		body, err := g.readLimited(zr)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress body: %w", err)
		}
		return body, nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
}

// applySiteSettings adds the configured cookie and headers for the request host.
func (g *Gatherer) applySiteSettings(req *http.Request) {
	if g.sites == nil {
		return
	}
	site := g.sites.GetSiteConfig(req.URL.Hostname())
	for k, v := range site.Headers {
		req.Header.Set(k, v)
	}
	if site.Cookie != "" {
		req.Header.Set("Cookie", site.Cookie)
	}
}

// decodeText converts body to UTF-8 using the charset from the Content-Type,
// a byte order mark or a <meta charset> declaration.
func decodeText(body []byte, contentType string) (string, error) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return "", err
	}
	text, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(text), nil
}

// resolve resolves ref against base.
func resolve(base *url.URL, ref string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return "", err
	}
	return base.ResolveReference(u).String(), nil
}
