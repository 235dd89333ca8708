package plugin

import (
	"errors"
	"fmt"
	"slices"

	"github.com/nao1215/ecoaudit/internal/audit"
)

// CategoryID is the ID of the sustainability category.
const CategoryID = "sustainable-web-design"

var (
	// ErrNegativeWeight is returned when an audit reference has a negative weight.
	ErrNegativeWeight = errors.New("audit weight must not be negative")

	// ErrDuplicateRef is returned when a category references an audit twice.
	ErrDuplicateRef = errors.New("audit referenced more than once")

	// ErrUnknownRef is returned when a weight override names an audit the
	// category does not reference.
	ErrUnknownRef = errors.New("unknown audit reference")
)

// Manifest lists the audits to run and the category that scores them.
type Manifest struct {
	// Audits are the IDs of the audits this tool provides.
	Audits []string

	// Category is the weighted category built from the audits.
	Category Category
}

// Category is a named, weighted group of audits.
type Category struct {
	ID          string
	Title       string
	Description string
	AuditRefs   []AuditRef
}

// AuditRef references an audit by ID with a weight.
type AuditRef struct {
	ID     string
	Weight float64
}

// DefaultManifest returns the built-in manifest. Weights follow the share of
// page weight each resource type accounts for on the median web page.
func DefaultManifest() *Manifest {
	return &Manifest{
		Audits: []string{
			audit.FontFormatID,
			audit.FontFamilyID,
			audit.VideoCodecID,
			audit.UnminifiedHTMLID,
		},
		Category: Category{
			ID:          CategoryID,
			Title:       "Sustainable Web Design",
			Description: "Reducing the energy consumption of a web page leads to a smaller ecological footprint.",
			AuditRefs: []AuditRef{
				{ID: "unminified-css", Weight: 2},
				{ID: "unminified-javascript", Weight: 4},
				{ID: "uses-responsive-images", Weight: 8},
				{ID: "uses-optimized-images", Weight: 8},
				{ID: "uses-text-compression", Weight: 1},
				{ID: audit.UnminifiedHTMLID, Weight: 1},
				{ID: audit.FontFamilyID, Weight: 10},
				{ID: audit.FontFormatID, Weight: 10},
				{ID: audit.VideoCodecID, Weight: 20},
			},
		},
	}
}

// WithWeights returns a copy of the manifest with the given weights applied.
// Every key must name an existing reference.
func (m *Manifest) WithWeights(weights map[string]float64) (*Manifest, error) {
	out := &Manifest{
		Audits:   slices.Clone(m.Audits),
		Category: m.Category,
	}
	out.Category.AuditRefs = slices.Clone(m.Category.AuditRefs)

	// Sorted for a deterministic error on multiple bad keys.
	ids := make([]string, 0, len(weights))
	for id := range weights {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		idx := slices.IndexFunc(out.Category.AuditRefs, func(r AuditRef) bool { return r.ID == id })
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRef, id)
		}
		out.Category.AuditRefs[idx].Weight = weights[id]
	}

	if err := out.Validate(); err != nil {
		return nil, err
	}
	return out, nil
}

// Validate checks the category references.
func (m *Manifest) Validate() error {
	seen := make(map[string]struct{}, len(m.Category.AuditRefs))
	for _, ref := range m.Category.AuditRefs {
		if ref.Weight < 0 {
			return fmt.Errorf("%w: %s (%v)", ErrNegativeWeight, ref.ID, ref.Weight)
		}
		if _, ok := seen[ref.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateRef, ref.ID)
		}
		seen[ref.ID] = struct{}{}
	}
	return nil
}
