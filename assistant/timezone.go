package assistant

import (
	"strconv"
	"strings"

	"github.com/ringsaturn/tzf"
)

// TimezoneResolver names the IANA zone covering a coordinate, or "" if none.
type TimezoneResolver interface {
	Timezone(lat, lng float64) string
}

type tzfResolver struct {
	finder tzf.F
}

// NewTimezoneResolver loads the embedded tzf polygon data.
func NewTimezoneResolver() (TimezoneResolver, error) {
	finder, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, err
	}
	return &tzfResolver{finder: finder}, nil
}

func (r *tzfResolver) Timezone(lat, lng float64) string {
	return r.finder.GetTimezoneName(lng, lat)
}

func parseCoordinate(value string, limit float64) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || f < -limit || f > limit {
		return 0, false
	}
	return f, true
}

// placeMetadata renders a place in the shape the trip UI stores under
// metadata.place, filling the timezone from coordinates when absent.
func placeMetadata(p *Place, tz TimezoneResolver) map[string]any {
	if p == nil {
		return nil
	}

	place := map[string]any{}
	set := func(key, value string) {
		if value != "" {
			place[key] = value
		}
	}
	set("name", p.Name)
	set("countryName", p.Country)
	set("stateName", p.State)
	set("latitude", string(p.Latitude))
	set("longitude", string(p.Longitude))
	set("timezone", p.Timezone)
	set("category", p.Category)
	set("id", p.PlaceID)

	if p.Timezone == "" && tz != nil {
		lat, latOK := parseCoordinate(string(p.Latitude), 90)
		lng, lngOK := parseCoordinate(string(p.Longitude), 180)
		if latOK && lngOK {
			set("timezone", tz.Timezone(lat, lng))
		}
	}

	if len(place) == 0 {
		return nil
	}
	return place
}
