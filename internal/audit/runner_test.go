package audit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"

	"github.com/nao1215/ecoaudit/internal/model"
)

// stubAudit returns a fixed product or error.
type stubAudit struct {
	meta    Meta
	product *Product
	err     error
	calls   int
}

func (s *stubAudit) Meta() Meta { return s.meta }

func (s *stubAudit) Audit(_ context.Context, _ *model.Artifacts) (*Product, error) {
	s.calls++
	return s.product, s.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunner(t *testing.T) {
	t.Parallel()

	t.Run("records every outcome", func(t *testing.T) {
		t.Parallel()

		passing := &stubAudit{
			meta:    Meta{ID: "ok", Title: "Good", FailureTitle: "Bad"},
			product: &Product{Score: score(1)},
		}
		failing := &stubAudit{
			meta:    Meta{ID: "low", Title: "Good", FailureTitle: "Bad"},
			product: &Product{Score: score(0.2), DisplayValue: "2 of 3"},
		}
		broken := &stubAudit{
			meta: Meta{ID: "broken", Title: "Broken"},
			err:  errors.New("boom"),
		}
		missing := &stubAudit{
			meta: Meta{ID: "needs-css", RequiredArtifacts: []string{model.ArtifactCSSUsage}},
		}

		r := NewRunner([]Audit{passing, failing, broken, missing}, WithRunnerLogger(quietLogger()))
		results, err := r.Run(context.Background(), &model.Artifacts{MainDocumentContent: "<p></p>"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := r.IDs(); !slices.Equal(got, []string{"ok", "low", "broken", "needs-css"}) {
			t.Errorf("got IDs %v", got)
		}
		if len(results) != 4 {
			t.Fatalf("got %d results, expected 4", len(results))
		}
		if results[0].Title != "Good" || results[0].Rating() != model.RatingPass {
			t.Errorf("unexpected passing result %+v", results[0])
		}
		if results[1].Title != "Bad" || results[1].DisplayValue != "2 of 3" {
			t.Errorf("unexpected failing result %+v", results[1])
		}
		if !results[2].Errored() || results[2].Score != nil {
			t.Errorf("expected errored result, got %+v", results[2])
		}
		if !strings.Contains(results[3].ErrorMessage, model.ArtifactCSSUsage) {
			t.Errorf("expected missing artifact error, got %q", results[3].ErrorMessage)
		}
		if missing.calls != 0 {
			t.Error("audit with missing artifacts must not run")
		}
	})

	t.Run("rejects out of range score", func(t *testing.T) {
		t.Parallel()

		bad := &stubAudit{meta: Meta{ID: "bad"}, product: &Product{Score: score(1.5)}}
		results, err := NewRunner([]Audit{bad}, WithRunnerLogger(quietLogger())).Run(context.Background(), &model.Artifacts{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(results[0].ErrorMessage, ErrInvalidScore.Error()) {
			t.Errorf("expected invalid score error, got %q", results[0].ErrorMessage)
		}
	})

	t.Run("stops on cancellation", func(t *testing.T) {
		t.Parallel()

		a := &stubAudit{meta: Meta{ID: "a"}, product: &Product{Score: score(1)}}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		results, err := NewRunner([]Audit{a}, WithRunnerLogger(quietLogger())).Run(ctx, &model.Artifacts{})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if len(results) != 0 {
			t.Errorf("got %d results, expected 0", len(results))
		}
	})
}

func TestDefaults(t *testing.T) {
	t.Parallel()

	ids := func(audits []Audit) []string {
		out := make([]string, 0, len(audits))
		for _, a := range audits {
			out = append(out, a.Meta().ID)
		}
		return out
	}

	if got := ids(Defaults(nil)); !slices.Equal(got, []string{FontFormatID, FontFamilyID, UnminifiedHTMLID}) {
		t.Errorf("got %v without prober", got)
	}
	if got := ids(Defaults(&fakeProber{})); len(got) != 4 || got[3] != VideoCodecID {
		t.Errorf("got %v with prober", got)
	}
}
