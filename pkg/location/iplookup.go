package location

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/oschwald/geoip2-golang"

	"BloodLink/pkg/errors"
)

// chainIPLocator tries ipinfo.io (keyed, more accurate), then the free
// ip-api.com endpoint, then an optional local GeoIP2 database. First hit
// wins; loopback and private origins never leave the process.
type chainIPLocator struct {
	token  string
	client *http.Client
	mmdb   *geoip2.Reader
}

func NewIPLocator(cfg Config) IPLocator {
	cfg = cfg.withDefaults()
	l := &chainIPLocator{
		token:  cfg.IPInfoToken,
		client: &http.Client{Timeout: cfg.HTTPTimeout},
	}
	if cfg.GeoIPPath != "" {
		if db, err := geoip2.Open(cfg.GeoIPPath); err == nil {
			l.mmdb = db
		}
	}
	return l
}

func (l *chainIPLocator) Locate(ctx context.Context, ip string) (float64, float64, string, error) {
	if !publicIP(ip) {
		return 0, 0, "", errors.WithCode(errors.CodeInvalidInput, "non-public ip")
	}

	if l.token != "" {
		if lat, lng, city, err := l.fromIPInfo(ctx, ip); err == nil {
			return lat, lng, city, nil
		}
	}
	if lat, lng, city, err := l.fromIPAPI(ctx, ip); err == nil {
		return lat, lng, city, nil
	}
	if l.mmdb != nil {
		if lat, lng, city, err := l.fromMMDB(ip); err == nil {
			return lat, lng, city, nil
		}
	}
	return 0, 0, "", errors.WithCode(errors.CodeUnavailable, "all ip providers failed")
}

func (l *chainIPLocator) fromIPInfo(ctx context.Context, ip string) (float64, float64, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://ipinfo.io/"+ip, nil)
	if err != nil {
		return 0, 0, "", err
	}
	req.Header.Set("Authorization", "Bearer "+l.token)
	req.Header.Set("Accept", "application/json")

	res, err := l.client.Do(req)
	if err != nil {
		return 0, 0, "", errors.WithCode(errors.CodeTimeout, err.Error())
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return 0, 0, "", errors.WithCodef(errors.CodeUnavailable, "ipinfo http %d", res.StatusCode)
	}

	var body struct {
		Loc  string `json:"loc"`
		City string `json:"city"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return 0, 0, "", err
	}
	latStr, lngStr, ok := strings.Cut(body.Loc, ",")
	if !ok {
		return 0, 0, "", errors.New("ipinfo response missing loc")
	}
	lat, err1 := strconv.ParseFloat(latStr, 64)
	lng, err2 := strconv.ParseFloat(lngStr, 64)
	if err1 != nil || err2 != nil {
		return 0, 0, "", errors.New("ipinfo loc not numeric")
	}
	return lat, lng, body.City, nil
}

func (l *chainIPLocator) fromIPAPI(ctx context.Context, ip string) (float64, float64, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://ip-api.com/json/"+ip, nil)
	if err != nil {
		return 0, 0, "", err
	}
	res, err := l.client.Do(req)
	if err != nil {
		return 0, 0, "", errors.WithCode(errors.CodeTimeout, err.Error())
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return 0, 0, "", errors.WithCodef(errors.CodeUnavailable, "ip-api http %d", res.StatusCode)
	}

	var body struct {
		Status string  `json:"status"`
		Lat    float64 `json:"lat"`
		Lon    float64 `json:"lon"`
		City   string  `json:"city"`
	}
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return 0, 0, "", err
	}
	if body.Status != "success" {
		return 0, 0, "", errors.WithCode(errors.CodeUnavailable, "ip-api lookup failed")
	}
	return body.Lat, body.Lon, body.City, nil
}

func (l *chainIPLocator) fromMMDB(ip string) (float64, float64, string, error) {
	record, err := l.mmdb.City(net.ParseIP(ip))
	if err != nil {
		return 0, 0, "", err
	}
	if record.Location.Latitude == 0 && record.Location.Longitude == 0 {
		return 0, 0, "", errors.New("mmdb has no location for ip")
	}
	city := record.City.Names["en"]
	return record.Location.Latitude, record.Location.Longitude, city, nil
}

func publicIP(ip string) bool {
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return false
	}
	return !parsed.IsLoopback() && !parsed.IsPrivate() && !parsed.IsUnspecified()
}

// timeout guard for provider calls made without a deadline upstream
func callContext(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
