package matcher

import (
	"math"
	"sort"

	"github.com/symptom-checker/backend/internal/catalog"
	"github.com/symptom-checker/backend/internal/storage/models"
)

// MaxResults caps the number of conditions returned by Rank.
const MaxResults = 3

type Matcher struct {
	conditions []catalog.Condition
}

func New(c *catalog.Catalog) *Matcher {
	return &Matcher{conditions: c.Conditions()}
}

type candidate struct {
	condition catalog.Condition
	raw       float64
}

// Rank scores every condition sharing at least one symptom with selected.
// The score is the share of the selected symptoms a condition accounts for,
// not the share of the condition's own symptoms. Ties keep catalog order.
func (m *Matcher) Rank(selected []string) []models.ScoredCondition {
	set := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		set[id] = struct{}{}
	}

	result := make([]models.ScoredCondition, 0, MaxResults)
	if len(set) == 0 {
		return result
	}

	candidates := make([]candidate, 0, len(m.conditions))
	for _, cond := range m.conditions {
		matching := 0
		for _, sid := range cond.Symptoms {
			if _, ok := set[sid]; ok {
				matching++
			}
		}
		if matching == 0 {
			continue
		}
		candidates = append(candidates, candidate{
			condition: cond,
			raw:       float64(matching) / float64(len(set)),
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].raw > candidates[j].raw
	})

	if len(candidates) > MaxResults {
		candidates = candidates[:MaxResults]
	}

	for _, c := range candidates {
		result = append(result, models.ScoredCondition{
			ID:          c.condition.ID,
			Name:        c.condition.Name,
			Description: c.condition.Description,
			MatchScore:  int(math.Round(c.raw * 100)),
		})
	}
	return result
}
