package domain

import "math"

// Crystal computes the completion metrics of a work item from its
// contributors: facets is the number of contributors and brilliance is the
// mean contribution plus a bonus per facet, capped at 100.
func Crystal(contributors []Contributor) (facets, brilliance int) {
	facets = len(contributors)
	if facets == 0 {
		return 0, 0
	}
	total := 0
	for _, c := range contributors {
		total += c.EnergyContributed
	}
	mean := int(math.Round(float64(total) / float64(facets)))
	return facets, min(100, mean+5*facets)
}
