// Package pipeline runs the single-pass matching, reservation and
// notification flow for one emergency request.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"BloodLink/internal/matcher"
	"BloodLink/internal/models"
	"BloodLink/internal/notify"
	"BloodLink/internal/reserve"
	"BloodLink/internal/store"
	"BloodLink/pkg/location"
	"BloodLink/pkg/metrics"
)

type Pipeline struct {
	requests   *store.RequestStore
	resolver   *location.Resolver
	matcher    *matcher.Matcher
	reserver   *reserve.Coordinator
	dispatcher *notify.Dispatcher
	log        *zap.Logger
	met        *metrics.Metrics
}

func New(
	requests *store.RequestStore,
	resolver *location.Resolver,
	m *matcher.Matcher,
	reserver *reserve.Coordinator,
	dispatcher *notify.Dispatcher,
	log *zap.Logger,
	met *metrics.Metrics,
) *Pipeline {
	return &Pipeline{
		requests:   requests,
		resolver:   resolver,
		matcher:    m,
		reserver:   reserver,
		dispatcher: dispatcher,
		log:        log,
		met:        met,
	}
}

// Run drives the request through SEARCHING, FOUND/FAILED and NOTIFIED.
// Stage failures degrade rather than abort: the caller always gets a
// final status. Re-running an already advanced request never reserves
// twice; a duplicate notification send is the accepted trade-off.
func (p *Pipeline) Run(ctx context.Context, req *models.EmergencyRequest) {
	start := time.Now()
	log := p.log.With(zap.String("request", req.ShortID()), zap.String("blood_group", req.BloodGroup))

	if req.Status == models.StatusCompleted || req.Status == models.StatusFailed {
		log.Info("request already terminal, skipping", zap.String("status", req.Status))
		return
	}

	p.advance(ctx, req, models.StatusSearching, log)
	p.resolveLocation(ctx, req, log)

	candidates, err := p.matcher.Match(ctx, req.BloodGroup, req.QuantityNeeded, req.UserLatitude, req.UserLongitude)
	if err != nil {
		log.Error("matching failed", zap.Error(err))
		candidates = nil
	}

	if len(candidates) == 0 {
		p.advance(ctx, req, models.StatusFailed, log)
		smsOK, emailOK := p.dispatcher.Dispatch(ctx, req, nil)
		p.recordChannels(ctx, req, smsOK, emailOK, log)
		p.met.ObserveRequest(req.Status, req.BloodGroup, time.Since(start))
		log.Warn("no eligible hospitals", zap.Duration("took", time.Since(start)))
		return
	}

	if store.StatusRank(req.Status) < store.StatusRank(models.StatusFound) {
		hospitals := make([]models.Hospital, 0, len(candidates))
		for _, c := range candidates {
			hospitals = append(hospitals, c.Hospital)
		}
		if err := p.requests.SetHospitals(ctx, req, hospitals); err != nil {
			log.Error("saving matched hospitals failed", zap.Error(err))
		}
		p.advance(ctx, req, models.StatusFound, log)
	}

	if req.ReservedHospitalID == nil {
		outcome, err := p.reserver.Reserve(ctx, candidates, req.BloodGroup, req.QuantityNeeded)
		if err != nil {
			log.Error("reservation errored, continuing unreserved", zap.Error(err))
		} else if outcome.Hospital != nil {
			id := outcome.Hospital.ID
			req.ReservedHospitalID = &id
			if err := p.requests.Save(ctx, req); err != nil {
				log.Error("saving reservation failed", zap.Error(err))
			}
		} else {
			log.Warn("notifying with matched but unreserved hospitals")
		}
	}

	smsOK, emailOK := p.dispatcher.Dispatch(ctx, req, candidates)
	p.recordChannels(ctx, req, smsOK, emailOK, log)
	p.advance(ctx, req, models.StatusNotified, log)

	p.met.ObserveRequest(req.Status, req.BloodGroup, time.Since(start))
	log.Info("pipeline finished",
		zap.String("status", req.Status),
		zap.Int("candidates", len(candidates)),
		zap.Duration("took", time.Since(start)))
}

func (p *Pipeline) advance(ctx context.Context, req *models.EmergencyRequest, status string, log *zap.Logger) {
	if err := p.requests.Advance(ctx, req, status); err != nil {
		log.Error("status update failed", zap.String("status", status), zap.Error(err))
	}
}

// resolveLocation fills coordinates on first pass; an already resolved
// request keeps its source.
func (p *Pipeline) resolveLocation(ctx context.Context, req *models.EmergencyRequest, log *zap.Logger) {
	if req.LocationSource != "" && req.LocationSource != location.SourceUnknown {
		return
	}
	resolved := p.resolver.Resolve(ctx, req.UserLatitude, req.UserLongitude, req.UserLocationText, req.IPAddress)

	if resolved.HasCoordinates() {
		req.UserLatitude = resolved.Latitude
		req.UserLongitude = resolved.Longitude
	}
	if req.UserLocationText == "" && resolved.Address != "" {
		req.UserLocationText = resolved.Address
	}
	req.LocationSource = resolved.Source
	req.LocationAccuracy = resolved.Accuracy
	if err := p.requests.Save(ctx, req); err != nil {
		log.Error("saving resolved location failed", zap.Error(err))
	}
}

func (p *Pipeline) recordChannels(ctx context.Context, req *models.EmergencyRequest, smsOK, emailOK bool, log *zap.Logger) {
	req.SMSSent = smsOK
	req.EmailSent = emailOK
	req.NotificationSent = true
	if err := p.requests.Save(ctx, req); err != nil {
		log.Error("saving notification flags failed", zap.Error(err))
	}
}
