package location

import (
	"context"
	"time"
)

// Source labels where a resolution came from.
const (
	SourceGPS      = "gps"
	SourceGeocoded = "geocoded"
	SourceIP       = "ip"
	SourceUnknown  = "unknown"
)

// Accuracy labels attached to each source.
const (
	AccuracyHigh    = "high"
	AccuracyMedium  = "medium"
	AccuracyLow     = "low"
	AccuracyUnknown = "unknown"
)

// Resolved is the output of the resolver chain. Latitude/Longitude are
// nil when every provider missed; such a request persists but cannot be
// matched.
type Resolved struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   string   `json:"address"`
	City      string   `json:"city"`
	Source    string   `json:"source"`
	Accuracy  string   `json:"accuracy"`
}

func (r Resolved) HasCoordinates() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Geocoder converts between free-text addresses and coordinates. Provider
// errors are reported so the resolver can degrade, never surfaced to the
// caller of Resolve.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (lat, lng float64, err error)
	ReverseGeocode(ctx context.Context, lat, lng float64) (address string, err error)
}

// IPLocator resolves a network origin to approximate coordinates.
type IPLocator interface {
	Locate(ctx context.Context, ip string) (lat, lng float64, city string, err error)
}

type Config struct {
	GoogleAPIKey string        `env:"GOOGLE_MAPS_API_KEY"`
	IPInfoToken  string        `env:"IPINFO_TOKEN"`
	GeoIPPath    string        `env:"GEOIP_DB_PATH"`
	HTTPTimeout  time.Duration `env:"LOCATION_HTTP_TIMEOUT"`
	GeocodeTTL   time.Duration `env:"GEOCODE_CACHE_TTL"`
	IPTTL        time.Duration `env:"IP_CACHE_TTL"`
}

func (c Config) withDefaults() Config {
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = 10 * time.Second
	}
	if c.GeocodeTTL == 0 {
		c.GeocodeTTL = 24 * time.Hour
	}
	if c.IPTTL == 0 {
		c.IPTTL = time.Hour
	}
	return c
}
