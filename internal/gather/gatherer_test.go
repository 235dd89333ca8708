package gather

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nao1215/ecoaudit/internal/config"
	"github.com/nao1215/ecoaudit/internal/model"
)

const testPage = `<!DOCTYPE html>
<html>
<head>
  <link rel="stylesheet" href="/main.css">
  <link rel="stylesheet" href="main.css">
  <link rel="alternate stylesheet" href="/alt.css">
  <link rel="stylesheet" href="/missing.css">
  <style>@font-face { font-family: Inline; src: url(i.woff2) format("woff2"); }</style>
</head>
<body><video src="/v.mp4"></video></body>
</html>`

const testCSS = `@font-face { font-family: "Custom"; src: url(c.woff) format("woff"); }`

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(s)); err != nil {
		t.Fatalf("failed to gzip: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to gzip: %v", err)
	}
	return buf.Bytes()
}

type staticSites map[string]config.SiteConfig

func (s staticSites) GetSiteConfig(host string) config.SiteConfig { return s[host] }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	compressed := gzipBytes(t, testPage)

	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/page", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Audit") != "yes" || r.Header.Get("Cookie") != "session=abc" {
			http.Error(w, "missing site settings", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			w.Header().Set("Content-Encoding", "gzip")
			_, _ = w.Write(compressed)
			return
		}
		_, _ = io.WriteString(w, testPage)
	})
	mux.HandleFunc("/main.css", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/css")
		_, _ = io.WriteString(w, testCSS)
	})
	mux.HandleFunc("/image.png", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	})
	return httptest.NewServer(mux)
}

func TestGather(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	t.Cleanup(srv.Close)

	host := strings.TrimPrefix(srv.URL, "http://")
	hostname, _, _ := strings.Cut(host, ":")
	sites := staticSites{hostname: {Cookie: "session=abc", Headers: map[string]string{"X-Audit": "yes"}}}

	g := New(WithHTTPClient(srv.Client()), WithSiteSettings(sites), WithLogger(quietLogger()))
	result, err := g.Gather(context.Background(), srv.URL+"/old")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := result.Artifacts

	t.Run("follows redirects", func(t *testing.T) {
		t.Parallel()
		if a.URL.RequestedURL != srv.URL+"/old" {
			t.Errorf("got requested URL %q", a.URL.RequestedURL)
		}
		if a.URL.FinalDisplayedURL != srv.URL+"/page" {
			t.Errorf("got final URL %q", a.URL.FinalDisplayedURL)
		}
	})

	t.Run("records compressed transfer size", func(t *testing.T) {
		t.Parallel()
		rec := a.MainDocumentRecord()
		if rec == nil {
			t.Fatal("expected a document record")
		}
		if rec.ContentEncoding != "gzip" {
			t.Errorf("got encoding %q, expected gzip", rec.ContentEncoding)
		}
		if rec.ResourceSize != int64(len(testPage)) {
			t.Errorf("got resource size %d, expected %d", rec.ResourceSize, len(testPage))
		}
		if rec.TransferSize <= 0 || rec.TransferSize >= rec.ResourceSize {
			t.Errorf("got transfer size %d, expected less than %d", rec.TransferSize, rec.ResourceSize)
		}
		if a.MainDocumentContent != testPage {
			t.Error("document content was not decoded")
		}
	})

	t.Run("collects stylesheets in document order", func(t *testing.T) {
		t.Parallel()
		if len(a.Stylesheets) != 2 {
			t.Fatalf("got %d stylesheets, expected 2: %+v", len(a.Stylesheets), a.Stylesheets)
		}
		if a.Stylesheets[0].Content != testCSS {
			t.Errorf("got first stylesheet %q", a.Stylesheets[0].Content)
		}
		if a.Stylesheets[1].URL != "" || !strings.Contains(a.Stylesheets[1].Content, "Inline") {
			t.Errorf("got second stylesheet %+v", a.Stylesheets[1])
		}
	})

	t.Run("missing stylesheet becomes a warning", func(t *testing.T) {
		t.Parallel()
		if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "missing.css") {
			t.Errorf("got warnings %v", result.Warnings)
		}
	})

	t.Run("hashes the document", func(t *testing.T) {
		t.Parallel()
		if result.DocumentHash != Hash([]byte(testPage)) {
			t.Errorf("got hash %q", result.DocumentHash)
		}
		if !a.Has(model.ArtifactDevtoolsLogs) {
			t.Error("expected network records")
		}
	})
}

func TestGatherErrors(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	t.Cleanup(srv.Close)

	g := New(WithHTTPClient(srv.Client()), WithLogger(quietLogger()))

	testCases := []struct {
		name    string
		url     string
		wantErr error
	}{
		{"unsupported scheme", "ftp://example.com/", ErrInvalidURL},
		{"missing host", "http:///page", ErrInvalidURL},
		{"forbidden", srv.URL + "/page", ErrUnexpectedStatus},
		{"not html", srv.URL + "/image.png", ErrNotHTML},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := g.Gather(context.Background(), tc.url)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestMaxStylesheets(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t)
	t.Cleanup(srv.Close)

	host := strings.TrimPrefix(srv.URL, "http://")
	hostname, _, _ := strings.Cut(host, ":")
	sites := staticSites{hostname: {Cookie: "session=abc", Headers: map[string]string{"X-Audit": "yes"}}}

	g := New(WithHTTPClient(srv.Client()), WithSiteSettings(sites), WithMaxStylesheets(0), WithLogger(quietLogger()))
	result, err := g.Gather(context.Background(), srv.URL+"/page")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Artifacts.Stylesheets) != 1 {
		t.Errorf("got %d stylesheets, expected only the inline one", len(result.Artifacts.Stylesheets))
	}
	if len(result.Warnings) != 2 {
		t.Errorf("got warnings %v, expected two skipped stylesheets", result.Warnings)
	}
}

func TestDiscoverStylesheets(t *testing.T) {
	t.Parallel()

	doc := `<link rel="preload stylesheet" href="a.css"><link rel="icon" href="f.ico">
		<link rel="stylesheet" href="b.css" disabled><style>  </style>`
	refs, err := discoverStylesheets(doc, "https://example.com/dir/page")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(refs) != 1 || refs[0].URL != "https://example.com/dir/a.css" {
		t.Errorf("got %+v, expected only a.css", refs)
	}
}

func TestMaxBodySize(t *testing.T) {
	t.Parallel()

	const limit = 1024
	big := "<!DOCTYPE html><html><body><p>" + strings.Repeat("a", 2*limit) + "</p></body></html>"
	exact := "<html><body>" + strings.Repeat("b", limit-len("<html><body></body></html>")) + "</body></html>"
	compressedBig := gzipBytes(t, big)
	if len(compressedBig) >= limit {
		t.Fatalf("compressed page is %d bytes, expected it to fit in %d", len(compressedBig), limit)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/big", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, big)
	})
	mux.HandleFunc("/big-gzip", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(compressedBig)
	})
	mux.HandleFunc("/exact", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, exact)
	})
	mux.HandleFunc("/big-css", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, `<html><head><link rel="stylesheet" href="/big.css"></head><body></body></html>`)
	})
	mux.HandleFunc("/big.css", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/css")
		_, _ = io.WriteString(w, "/*"+strings.Repeat("c", 2*limit)+"*/")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	g := New(WithHTTPClient(srv.Client()), WithMaxBodySize(limit), WithLogger(quietLogger()))

	t.Run("oversized document is an error", func(t *testing.T) {
		t.Parallel()
		_, err := g.Gather(context.Background(), srv.URL+"/big")
		if !errors.Is(err, ErrBodyTooLarge) {
			t.Errorf("expected ErrBodyTooLarge, got %v", err)
		}
	})

	t.Run("oversized decoded document is an error", func(t *testing.T) {
		t.Parallel()
		_, err := g.Gather(context.Background(), srv.URL+"/big-gzip")
		if !errors.Is(err, ErrBodyTooLarge) {
			t.Errorf("expected ErrBodyTooLarge, got %v", err)
		}
	})

	t.Run("document at the limit is read whole", func(t *testing.T) {
		t.Parallel()
		result, err := g.Gather(context.Background(), srv.URL+"/exact")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Artifacts.MainDocumentContent != exact {
			t.Error("document content was truncated")
		}
	})

	t.Run("oversized stylesheet is skipped with a warning", func(t *testing.T) {
		t.Parallel()
		result, err := g.Gather(context.Background(), srv.URL+"/big-css")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Artifacts.Stylesheets) != 0 {
			t.Errorf("got %d stylesheets, expected none", len(result.Artifacts.Stylesheets))
		}
		if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "too large") {
			t.Errorf("got warnings %v", result.Warnings)
		}
	})
}
