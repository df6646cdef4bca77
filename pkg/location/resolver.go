package location

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"BloodLink/pkg/cache"
	"BloodLink/pkg/metrics"
)

type cachedPoint struct {
	Lat     float64
	Lng     float64
	Address string
	City    string
}

// Resolver runs the GPS > geocode > IP fallback chain. Every provider
// failure is swallowed as a miss; the zero Resolved (source unknown) is
// the worst possible outcome, never an error.
type Resolver struct {
	geocoder Geocoder
	ipLoc    IPLocator
	cache    cache.Cache
	cfg      Config
	log      *zap.Logger
	metrics  *metrics.Metrics
}

func NewResolver(geocoder Geocoder, ipLoc IPLocator, c cache.Cache, cfg Config, log *zap.Logger, m *metrics.Metrics) *Resolver {
	return &Resolver{
		geocoder: geocoder,
		ipLoc:    ipLoc,
		cache:    c,
		cfg:      cfg.withDefaults(),
		log:      log,
		metrics:  m,
	}
}

// Resolve picks the best available location. Inputs may all be empty.
func (r *Resolver) Resolve(ctx context.Context, lat, lng *float64, addressText, originIP string) Resolved {
	out := Resolved{Source: SourceUnknown, Accuracy: AccuracyUnknown, Address: addressText}

	switch {
	case lat != nil && lng != nil:
		out.Latitude = lat
		out.Longitude = lng
		out.Source = SourceGPS
		out.Accuracy = AccuracyHigh
		if addressText == "" {
			// Best effort display address; a miss leaves coordinates only.
			if addr := r.reverseGeocode(ctx, *lat, *lng); addr != "" {
				out.Address = addr
			}
		}

	case strings.TrimSpace(addressText) != "":
		if p, ok := r.geocode(ctx, addressText); ok {
			out.Latitude = &p.Lat
			out.Longitude = &p.Lng
			out.Source = SourceGeocoded
			out.Accuracy = AccuracyMedium
			break
		}
		fallthrough

	default:
		if originIP == "" {
			break
		}
		if p, ok := r.locateIP(ctx, originIP); ok {
			out.Latitude = &p.Lat
			out.Longitude = &p.Lng
			out.City = p.City
			if out.Address == "" {
				out.Address = p.City + " (approximate from IP)"
			}
			out.Source = SourceIP
			out.Accuracy = AccuracyLow
		}
	}

	if r.metrics != nil {
		r.metrics.LocationResolved(out.Source, out.Accuracy)
	}
	return out
}

func (r *Resolver) geocode(ctx context.Context, address string) (cachedPoint, bool) {
	key := "geocode:" + strings.ToLower(strings.TrimSpace(address))
	if p, ok := r.cacheGet(ctx, key, "geocode"); ok {
		return p, true
	}

	cctx, cancel := callContext(ctx, r.cfg.HTTPTimeout)
	defer cancel()
	lat, lng, err := r.geocoder.Geocode(cctx, address)
	if err != nil {
		r.log.Debug("geocode miss", zap.String("address", address), zap.Error(err))
		return cachedPoint{}, false
	}
	p := cachedPoint{Lat: lat, Lng: lng}
	r.cache.Set(ctx, key, p, r.cfg.GeocodeTTL)
	return p, true
}

func (r *Resolver) reverseGeocode(ctx context.Context, lat, lng float64) string {
	key := reverseKey(lat, lng)
	if v, ok := r.cache.Get(ctx, key); ok {
		if addr, ok := v.(string); ok {
			if r.metrics != nil {
				r.metrics.CacheLookup("reverse_geocode", true)
			}
			return addr
		}
	}
	if r.metrics != nil {
		r.metrics.CacheLookup("reverse_geocode", false)
	}

	cctx, cancel := callContext(ctx, r.cfg.HTTPTimeout)
	defer cancel()
	addr, err := r.geocoder.ReverseGeocode(cctx, lat, lng)
	if err != nil {
		return ""
	}
	r.cache.Set(ctx, key, addr, r.cfg.GeocodeTTL)
	return addr
}

func (r *Resolver) locateIP(ctx context.Context, ip string) (cachedPoint, bool) {
	key := "ip:" + ip
	if p, ok := r.cacheGet(ctx, key, "ip"); ok {
		return p, true
	}

	cctx, cancel := callContext(ctx, r.cfg.HTTPTimeout)
	defer cancel()
	lat, lng, city, err := r.ipLoc.Locate(cctx, ip)
	if err != nil {
		r.log.Debug("ip geolocation miss", zap.String("ip", ip), zap.Error(err))
		return cachedPoint{}, false
	}
	p := cachedPoint{Lat: lat, Lng: lng, City: city}
	r.cache.Set(ctx, key, p, r.cfg.IPTTL)
	return p, true
}

func (r *Resolver) cacheGet(ctx context.Context, key, kind string) (cachedPoint, bool) {
	v, ok := r.cache.Get(ctx, key)
	if r.metrics != nil {
		r.metrics.CacheLookup(kind, ok)
	}
	if !ok {
		return cachedPoint{}, false
	}
	p, ok := v.(cachedPoint)
	return p, ok
}

func reverseKey(lat, lng float64) string {
	return "revgeo:" + strconv.FormatFloat(lat, 'f', 6, 64) + "," + strconv.FormatFloat(lng, 'f', 6, 64)
}
