package matcher

import (
	"context"
	"math"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"BloodLink/internal/models"
	"BloodLink/internal/store"
)

// Candidate is one ranked hospital able to serve the request.
type Candidate struct {
	Hospital       models.Hospital
	AvailableUnits int
	DistanceKM     float64
	TravelTime     string // estimated minutes, "N/A" when distance is unknown
	PriorityScore  float64
}

type Config struct {
	SearchRadiusKM float64 // default 25
	MaxResults     int     // default 10
}

func (c Config) withDefaults() Config {
	if c.SearchRadiusKM <= 0 {
		c.SearchRadiusKM = 25
	}
	if c.MaxResults <= 0 {
		c.MaxResults = 10
	}
	return c
}

type Matcher struct {
	hospitals *store.HospitalStore
	cfg       Config
	log       *zap.Logger
}

func NewMatcher(hospitals *store.HospitalStore, cfg Config, log *zap.Logger) *Matcher {
	return &Matcher{hospitals: hospitals, cfg: cfg.withDefaults(), log: log}
}

const earthRadiusKM = 6371

// Distance is the haversine great-circle distance in km. Malformed
// coordinates yield +Inf so the radius filter drops them.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	if !validCoord(lat1, lng1) || !validCoord(lat2, lng2) {
		return math.Inf(1)
	}
	rlat1 := lat1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	dlat := (lat2 - lat1) * math.Pi / 180
	dlng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlng/2)*math.Sin(dlng/2)
	return earthRadiusKM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func validCoord(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// TravelTime estimates minutes to cover the distance at a tiered
// average speed: 15 km/h inside 5 km, 30 km/h inside 15 km, 40 km/h
// beyond.
func TravelTime(distanceKM float64) string {
	if distanceKM <= 0 || math.IsInf(distanceKM, 1) {
		return "N/A"
	}
	var speed float64
	switch {
	case distanceKM <= 5:
		speed = 15
	case distanceKM <= 15:
		speed = 30
	default:
		speed = 40
	}
	return strconv.Itoa(int(distanceKM / speed * 60))
}

// Score ranks a candidate; lower wins. Distance dominates, capped so a
// far hospital with deep stock can still beat a near one running dry.
func Score(distanceKM float64, available, needed int) float64 {
	base := math.Min(distanceKM*2, 100)
	bonus := math.Min(float64(available)/float64(needed)*20, 50)
	if available >= 2*needed {
		bonus += 10
	}
	return base - bonus
}

// Match returns up to MaxResults active emergency partners within the
// search radius holding at least quantity units, ranked by priority
// score. An empty result is valid, not an error. Without requester
// coordinates no distance exists, so nothing matches.
func (m *Matcher) Match(ctx context.Context, bloodGroup string, quantity int, lat, lng *float64) ([]Candidate, error) {
	if lat == nil || lng == nil {
		m.log.Warn("matching skipped, requester location unresolved",
			zap.String("blood_group", bloodGroup))
		return nil, nil
	}

	stocked, err := m.hospitals.ListPartnersWithStock(ctx, bloodGroup, quantity)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(stocked))
	for _, sh := range stocked {
		dist := Distance(*lat, *lng, sh.Hospital.Latitude, sh.Hospital.Longitude)
		if dist > m.cfg.SearchRadiusKM {
			continue
		}
		candidates = append(candidates, Candidate{
			Hospital:       sh.Hospital,
			AvailableUnits: sh.Units,
			DistanceKM:     dist,
			TravelTime:     TravelTime(dist),
			PriorityScore:  Score(dist, sh.Units, quantity),
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].PriorityScore != candidates[j].PriorityScore {
			return candidates[i].PriorityScore < candidates[j].PriorityScore
		}
		if candidates[i].DistanceKM != candidates[j].DistanceKM {
			return candidates[i].DistanceKM < candidates[j].DistanceKM
		}
		return candidates[i].Hospital.ID < candidates[j].Hospital.ID
	})

	if len(candidates) > m.cfg.MaxResults {
		candidates = candidates[:m.cfg.MaxResults]
	}
	m.log.Debug("matched hospitals",
		zap.String("blood_group", bloodGroup),
		zap.Int("quantity", quantity),
		zap.Int("candidates", len(candidates)))
	return candidates, nil
}
