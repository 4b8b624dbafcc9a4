package catalog

import (
	"cmp"
	"context"
	"slices"

	"github.com/cactusfleur/afrispiration/internal/geo"
	"github.com/cactusfleur/afrispiration/internal/store"
	"go.uber.org/zap"
)

// CountryCount is one shaded country on the designer map.
type CountryCount struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// MapData feeds the designer choropleth.
type MapData struct {
	Countries []CountryCount `json:"countries"`
	// Unknown lists locations that did not resolve to a country.
	Unknown []string `json:"unknown,omitempty"`
}

// Map counts designers per country, highest count first.
func (c *Catalog) Map(ctx context.Context) (MapData, error) {
	designers, err := c.Designers.List(ctx, store.Query{})
	if err != nil {
		return MapData{}, err
	}
	locations := make([][]string, len(designers))
	for i, d := range designers {
		locations[i] = d.Location
	}

	r := geo.Default()
	counts, unknown := geo.Tally(r, locations)
	data := MapData{Unknown: unknown, Countries: make([]CountryCount, 0, len(counts))}
	for code, n := range counts {
		data.Countries = append(data.Countries, CountryCount{Code: code, Name: r.Name(code), Count: n})
	}
	slices.SortFunc(data.Countries, func(a, b CountryCount) int {
		if n := cmp.Compare(b.Count, a.Count); n != 0 {
			return n
		}
		return cmp.Compare(a.Code, b.Code)
	})
	if len(unknown) > 0 {
		c.log.Warn("unresolved designer locations", zap.Strings("locations", unknown))
	}
	return data, nil
}
