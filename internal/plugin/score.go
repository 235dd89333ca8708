package plugin

import "github.com/nao1215/ecoaudit/internal/model"

// Score computes the category result from audit results.
//
// The score is the weighted arithmetic mean of the referenced audit scores.
// Errored audits count as 0 and keep their weight. Not applicable audits
// and references without a result get weight 0. When no reference carries
// weight the score is nil.
func (c *Category) Score(results []model.AuditResult) *model.CategoryResult {
	byID := make(map[string]*model.AuditResult, len(results))
	for i := range results {
		byID[results[i].ID] = &results[i]
	}

	out := &model.CategoryResult{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		Refs:        make([]model.CategoryRef, 0, len(c.AuditRefs)),
	}

	var sum, totalWeight float64
	for _, ref := range c.AuditRefs {
		applied := ref.Weight

		result, ok := byID[ref.ID]
		switch {
		case !ok:
			applied = 0
			out.Unavailable = append(out.Unavailable, ref.ID)
		case result.Errored():
			// contributes 0 with full weight
		case result.NotApplicable || result.Score == nil:
			applied = 0
		default:
			sum += *result.Score * applied
		}

		totalWeight += applied
		out.Refs = append(out.Refs, model.CategoryRef{
			ID:            ref.ID,
			Weight:        ref.Weight,
			AppliedWeight: applied,
		})
	}

	if totalWeight > 0 {
		s := sum / totalWeight
		out.Score = &s
	}
	return out
}
