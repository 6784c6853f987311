package domain

import "context"

// Location is a place resolved by the weather provider's lookup service.
type Location struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Region  string  `json:"region,omitempty"` // first-level administrative area
	Country string  `json:"country,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lon     float64 `json:"lon,omitempty"`
}

// Label renders the location for report headers, falling back to the
// requested name when the lookup returned no display name.
func (l Location) Label(requested string) string {
	name := l.Name
	if name == "" {
		name = requested
	}
	country := l.Country
	if country == "" {
		country = "中国"
	}
	return name + ", " + country
}

// LocationResolver converts a place name into a provider location.
type LocationResolver interface {
	// ResolveLocation returns the best match for name, a *NotFoundError when
	// nothing matches, or an *UpstreamError when the lookup fails.
	ResolveLocation(ctx context.Context, name string) (Location, error)
}
