package importer

import (
	"retail-cockpit-api/internal/models"

	"github.com/agnivade/levenshtein"
)

// maxSellerDistance is the largest edit distance accepted as a misspelling
const maxSellerDistance = 2

type knownEmployee struct {
	name  string
	store string
}

// sellerResolver maps raw seller names from feeds onto known employee names
type sellerResolver struct {
	exact map[string]knownEmployee
	known []knownEmployee
	cache map[string]knownEmployee
}

func newSellerResolver(employees []*models.Employee) *sellerResolver {
	r := &sellerResolver{
		exact: make(map[string]knownEmployee, len(employees)),
		cache: make(map[string]knownEmployee),
	}
	for _, e := range employees {
		if e == nil {
			continue
		}
		key := models.NormalizeName(e.Name)
		if _, seen := r.exact[key]; seen {
			continue
		}
		k := knownEmployee{name: e.Name, store: e.Store}
		r.exact[key] = k
		r.known = append(r.known, k)
	}
	return r
}

// resolve returns the canonical employee name and store for raw. An exact
// case-insensitive match wins; otherwise the single closest name within
// maxSellerDistance is used. Ambiguous or distant names are kept as given.
func (r *sellerResolver) resolve(raw string, result *Result) (string, string) {
	name := models.SanitizeString(raw)
	if name == "" {
		return "", ""
	}
	key := models.NormalizeName(name)

	if k, ok := r.exact[key]; ok {
		return k.name, k.store
	}
	if k, ok := r.cache[key]; ok {
		if k.name == "" {
			return name, ""
		}
		result.Resolved[raw] = k.name
		return k.name, k.store
	}

	best, bestDist, ties := knownEmployee{}, maxSellerDistance+1, 0
	for _, k := range r.known {
		d := levenshtein.ComputeDistance(key, models.NormalizeName(k.name))
		switch {
		case d < bestDist:
			best, bestDist, ties = k, d, 1
		case d == bestDist:
			ties++
		}
	}

	if bestDist > maxSellerDistance || ties != 1 {
		r.cache[key] = knownEmployee{}
		return name, ""
	}

	r.cache[key] = best
	result.Resolved[raw] = best.name
	return best.name, best.store
}
