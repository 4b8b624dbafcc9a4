// Package geo resolves free-form country names to ISO 3166-1 alpha-2 codes
// and tallies entities per country for choropleth maps.
package geo

import (
	"sort"
	"strings"
	"sync"

	"github.com/cactusfleur/afrispiration/internal/slug"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// aliases maps normalized informal names to alpha-2 codes.
var aliases = map[string]string{
	"uk":                           "GB",
	"britain":                      "GB",
	"greatbritain":                 "GB",
	"england":                      "GB",
	"scotland":                     "GB",
	"wales":                        "GB",
	"usa":                          "US",
	"america":                      "US",
	"unitedstatesofamerica":        "US",
	"ivorycoast":                   "CI",
	"cotedivoire":                  "CI",
	"drc":                          "CD",
	"drcongo":                      "CD",
	"democraticrepublicofcongo":    "CD",
	"democraticrepublicofthecongo": "CD",
	"congokinshasa":                "CD",
	"republicofthecongo":           "CG",
	"congobrazzaville":             "CG",
	"burma":                        "MM",
	"swaziland":                    "SZ",
	"capeverde":                    "CV",
	"turkey":                       "TR",
	"czechrepublic":                "CZ",
	"southkorea":                   "KR",
	"northkorea":                   "KP",
	"russia":                       "RU",
	"tanzania":                     "TZ",
}

// Resolver maps country names, alpha-2 and alpha-3 codes to alpha-2 codes.
type Resolver struct {
	names map[string]string // normalized English name -> alpha-2
}

var defaultResolver = sync.OnceValue(NewResolver)

// Default returns a shared Resolver.
func Default() *Resolver { return defaultResolver() }

// NewResolver indexes the English display name of every ISO country.
func NewResolver() *Resolver {
	r := &Resolver{names: make(map[string]string)}
	namer := display.English.Regions()
	for a := 'A'; a <= 'Z'; a++ {
		for b := 'A'; b <= 'Z'; b++ {
			code := string([]rune{a, b})
			region, err := language.ParseRegion(code)
			if err != nil || region.String() != code || !region.IsCountry() || region.IsPrivateUse() {
				continue
			}
			if name := normalize(namer.Name(region)); name != "" {
				r.names[name] = code
			}
		}
	}
	return r
}

// normalize folds case, accents and punctuation so that "Côte d'Ivoire"
// and "cote divoire" compare equal.
func normalize(s string) string {
	return strings.ReplaceAll(slug.Slugify(s), "-", "")
}

// Resolve returns the alpha-2 code for name.
func (r *Resolver) Resolve(name string) (string, bool) {
	key := normalize(name)
	if key == "" {
		return "", false
	}
	if code, ok := aliases[key]; ok {
		return code, true
	}
	if code, ok := r.names[key]; ok {
		return code, true
	}
	if n := len(key); n == 2 || n == 3 {
		region, err := language.ParseRegion(strings.ToUpper(key))
		if err == nil && region.IsCountry() && !region.IsPrivateUse() {
			return region.String(), true
		}
	}
	return "", false
}

// Name returns the English display name for an alpha-2 code, or "" when the
// code is unknown.
func (r *Resolver) Name(code string) string {
	region, err := language.ParseRegion(code)
	if err != nil || !region.IsCountry() {
		return ""
	}
	return display.English.Regions().Name(region)
}

// Tally counts entities per country. Each inner slice holds one entity's
// locations; an entity listing the same country twice counts once. Names
// that do not resolve are returned sorted and deduplicated.
func Tally(r *Resolver, locations [][]string) (map[string]int, []string) {
	counts := make(map[string]int)
	missing := make(map[string]struct{})
	for _, locs := range locations {
		seen := make(map[string]struct{}, len(locs))
		for _, loc := range locs {
			code, ok := r.Resolve(loc)
			if !ok {
				if strings.TrimSpace(loc) != "" {
					missing[loc] = struct{}{}
				}
				continue
			}
			if _, dup := seen[code]; dup {
				continue
			}
			seen[code] = struct{}{}
			counts[code]++
		}
	}
	unknown := make([]string, 0, len(missing))
	for loc := range missing {
		unknown = append(unknown, loc)
	}
	sort.Strings(unknown)
	return counts, unknown
}
