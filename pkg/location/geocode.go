package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"BloodLink/pkg/errors"
)

const geocodeEndpoint = "https://maps.googleapis.com/maps/api/geocode/json"

// googleGeocoder talks to the Maps Geocoding API. Constructed unkeyed it
// reports CodeNotConfigured on every call, which the resolver treats as
// a miss.
type googleGeocoder struct {
	apiKey string
	client *http.Client
}

func NewGoogleGeocoder(apiKey string, timeout time.Duration) Geocoder {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &googleGeocoder{
		apiKey: apiKey,
		client: &http.Client{Timeout: timeout},
	}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (g *googleGeocoder) Geocode(ctx context.Context, address string) (float64, float64, error) {
	if g.apiKey == "" {
		return 0, 0, errors.WithCode(errors.CodeNotConfigured, "geocoder not configured")
	}
	params := url.Values{"address": {address}, "key": {g.apiKey}}
	var resp geocodeResponse
	if err := g.fetch(ctx, params, &resp); err != nil {
		return 0, 0, err
	}
	if resp.Status != "OK" || len(resp.Results) == 0 {
		return 0, 0, errors.WithCodef(errors.CodeUnavailable, "geocode status %s", resp.Status)
	}
	loc := resp.Results[0].Geometry.Location
	return loc.Lat, loc.Lng, nil
}

func (g *googleGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	if g.apiKey == "" {
		return "", errors.WithCode(errors.CodeNotConfigured, "geocoder not configured")
	}
	params := url.Values{
		"latlng": {fmt.Sprintf("%f,%f", lat, lng)},
		"key":    {g.apiKey},
	}
	var resp geocodeResponse
	if err := g.fetch(ctx, params, &resp); err != nil {
		return "", err
	}
	if resp.Status != "OK" || len(resp.Results) == 0 {
		return "", errors.WithCodef(errors.CodeUnavailable, "reverse geocode status %s", resp.Status)
	}
	return resp.Results[0].FormattedAddress, nil
}

func (g *googleGeocoder) fetch(ctx context.Context, params url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, geocodeEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return errors.Wrap(err, "build geocode request")
	}
	res, err := g.client.Do(req)
	if err != nil {
		return errors.WithCode(errors.CodeTimeout, err.Error())
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return errors.WithCodef(errors.CodeUnavailable, "geocode http %d", res.StatusCode)
	}
	return json.NewDecoder(res.Body).Decode(out)
}
