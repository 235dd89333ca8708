package audit

import (
	"context"
	"errors"
	"sync"

	"github.com/nao1215/ecoaudit/internal/model"
)

// fakeProber returns codecs from a map and records probed URLs.
type fakeProber struct {
	mu     sync.Mutex
	codecs map[string]string
	errs   map[string]error
	probed []string
}

func (f *fakeProber) Probe(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probed = append(f.probed, url)
	if err, ok := f.errs[url]; ok {
		return "", err
	}
	codec, ok := f.codecs[url]
	if !ok {
		return "", errors.New("unexpected url: " + url)
	}
	return codec, nil
}

func cssArtifacts(sheets ...string) *model.Artifacts {
	a := &model.Artifacts{
		URL:         model.URLArtifact{FinalDisplayedURL: "https://example.com/"},
		Stylesheets: make([]model.Stylesheet, 0, len(sheets)),
	}
	for _, s := range sheets {
		a.Stylesheets = append(a.Stylesheets, model.Stylesheet{Content: s})
	}
	return a
}

func floatEquals(a, b float64) bool {
	const eps = 1e-9
	d := a - b
	return d < eps && d > -eps
}
