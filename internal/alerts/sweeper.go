// Package alerts keeps stock alerts consistent with inventory changes
// made outside the reservation path.
package alerts

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"BloodLink/internal/models"
	"BloodLink/internal/store"
	"BloodLink/pkg/metrics"
)

type Sweeper struct {
	stock  *store.StockStore
	alerts *store.AlertStore
	cron   *cron.Cron
	log    *zap.Logger
	met    *metrics.Metrics
}

func NewSweeper(stock *store.StockStore, alerts *store.AlertStore, log *zap.Logger, met *metrics.Metrics) *Sweeper {
	return &Sweeper{
		stock:  stock,
		alerts: alerts,
		cron:   cron.New(),
		log:    log,
		met:    met,
	}
}

// Start schedules the periodic sweep, e.g. "@every 5m".
func (s *Sweeper) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := s.Sweep(ctx); err != nil {
			s.log.Error("stock alert sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

func (s *Sweeper) Stop() {
	s.cron.Stop()
}

// Sweep reconciles every stock row against the alert table and
// publishes the per-level active counts.
func (s *Sweeper) Sweep(ctx context.Context) error {
	rows, err := s.stock.All(ctx)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if err := s.alerts.Upsert(ctx, row.HospitalID, row.BloodGroup, row.UnitsAvailable); err != nil {
			s.log.Warn("alert upsert failed",
				zap.Uint("hospital_id", row.HospitalID),
				zap.String("blood_group", row.BloodGroup),
				zap.Error(err))
		}
	}

	active, err := s.alerts.Active(ctx)
	if err != nil {
		return err
	}
	counts := map[string]int{
		models.AlertLow:       0,
		models.AlertCritical:  0,
		models.AlertEmergency: 0,
		models.AlertDepleted:  0,
	}
	for _, a := range active {
		counts[a.AlertLevel]++
	}
	for level, n := range counts {
		s.met.SetActiveAlerts(level, n)
	}
	s.log.Debug("stock alert sweep done", zap.Int("active", len(active)))
	return nil
}
