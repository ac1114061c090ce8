// internal/market/refdata/resolve.go
package refdata

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Name resolution runs ordered passes over the static tables. Within a pass
// the longest matching name wins; ties keep table order.

const (
	minTokenLen  = 3
	prefixLength = 4
)

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func firstToken(loc string) string {
	first, _, _ := strings.Cut(loc, ",")
	return strings.TrimSpace(first)
}

// ResolveCrop maps a free-text crop name to a canonical key: exact key match,
// then the longest key contained in the name, then "default".
func (c *Catalog) ResolveCrop(name string) string {
	n := normalize(name)
	if n == "" {
		return DefaultCropKey
	}
	if c.HasCrop(n) {
		return n
	}
	best := ""
	for _, cr := range c.crops {
		if strings.Contains(n, cr.Key) && len(cr.Key) > len(best) {
			best = cr.Key
		}
	}
	if best == "" {
		return DefaultCropKey
	}
	return best
}

// ResolveState infers the state of a location. Passes: state name, city
// table, first-token heuristic, default.
func (c *Catalog) ResolveState(location string) string {
	loc := normalize(location)
	if loc == "" {
		return DefaultState
	}
	if s, ok := c.matchStateName(loc); ok {
		return s
	}
	if s, ok := c.matchCityState(loc); ok {
		return s
	}
	if s, ok := c.matchStateFirstToken(loc); ok {
		return s
	}
	return DefaultState
}

func (c *Catalog) matchStateName(loc string) (string, bool) {
	best := ""
	for _, s := range c.states {
		if strings.Contains(loc, s) && len(s) > len(best) {
			best = s
		}
	}
	return best, best != ""
}

func (c *Catalog) matchCityState(loc string) (string, bool) {
	var best cityState
	for _, cs := range c.cityStates {
		if strings.Contains(loc, cs.city) && len(cs.city) > len(best.city) {
			best = cs
		}
	}
	return best.state, best.city != ""
}

func (c *Catalog) matchStateFirstToken(loc string) (string, bool) {
	first := firstToken(loc)
	if len(first) < minTokenLen {
		return "", false
	}
	for _, cs := range c.cityStates {
		if strings.Contains(cs.city, first) || strings.Contains(first, cs.city) {
			return cs.state, true
		}
	}
	return "", false
}

// ResolveLocation maps a location to coordinates and a display label. Passes:
// longest city contained in the text, first-token heuristic, default centroid.
func (c *Catalog) ResolveLocation(location string) Location {
	loc := normalize(location)
	if loc != "" {
		if cc, ok := c.matchCityCoords(loc); ok {
			return Location{Lat: cc.lat, Lon: cc.lon, Label: titleCity(cc.city)}
		}
		if cc, ok := c.matchCoordsFirstToken(loc); ok {
			return Location{Lat: cc.lat, Lon: cc.lon, Label: titleCity(cc.city)}
		}
	}
	return Location{Lat: DefaultLat, Lon: DefaultLon, Label: DefaultLabel}
}

func (c *Catalog) matchCityCoords(loc string) (cityCoord, bool) {
	var best cityCoord
	for _, cc := range c.cityCoords {
		if strings.Contains(loc, cc.city) && len(cc.city) > len(best.city) {
			best = cc
		}
	}
	return best, best.city != ""
}

func (c *Catalog) matchCoordsFirstToken(loc string) (cityCoord, bool) {
	first := firstToken(loc)
	if len(first) < minTokenLen {
		return cityCoord{}, false
	}
	for _, cc := range c.cityCoords {
		if strings.Contains(cc.city, first) {
			return cc, true
		}
		if len(first) >= prefixLength && strings.HasPrefix(cc.city, first[:prefixLength]) {
			return cc, true
		}
	}
	return cityCoord{}, false
}

// TitleState renders a state key for display, e.g. "uttar pradesh" -> "Uttar Pradesh".
func TitleState(state string) string {
	return titleCaser().String(state)
}

func titleCity(city string) string {
	return titleCaser().String(city)
}

// A Caser keeps state between calls, so each call gets its own.
func titleCaser() cases.Caser {
	return cases.Title(language.English)
}
