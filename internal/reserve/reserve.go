package reserve

import (
	"context"

	"go.uber.org/zap"

	"BloodLink/internal/matcher"
	"BloodLink/internal/models"
	"BloodLink/internal/store"
	"BloodLink/pkg/errors"
	"BloodLink/pkg/metrics"
)

// Outcome reports where units were reserved, if anywhere. A nil
// Hospital means every candidate was exhausted; the pipeline continues
// with the matched but unreserved list.
type Outcome struct {
	Hospital  *models.Hospital
	Remaining int
}

type Coordinator struct {
	stock  *store.StockStore
	alerts *store.AlertStore
	log    *zap.Logger
	met    *metrics.Metrics
}

func NewCoordinator(stock *store.StockStore, alerts *store.AlertStore, log *zap.Logger, met *metrics.Metrics) *Coordinator {
	return &Coordinator{stock: stock, alerts: alerts, log: log, met: met}
}

// Reserve walks the ranked candidates and subtracts quantity from the
// first hospital whose stock row still covers it. A race loss moves on
// to the next candidate; stock can never go negative because the
// subtraction is guarded at the store. After a successful decrement the
// stock alert for that (hospital, group) is refreshed.
func (c *Coordinator) Reserve(ctx context.Context, candidates []matcher.Candidate, bloodGroup string, quantity int) (Outcome, error) {
	for _, cand := range candidates {
		remaining, err := c.stock.Reserve(ctx, cand.Hospital.ID, bloodGroup, quantity)
		if err == store.ErrInsufficientStock {
			c.met.ReservationRaceLost()
			c.log.Info("stock changed since matching, trying next candidate",
				zap.String("hospital", cand.Hospital.Name),
				zap.String("blood_group", bloodGroup))
			continue
		}
		if err != nil {
			return Outcome{}, errors.Wrap(err, "reserve stock")
		}

		if aerr := c.alerts.Upsert(ctx, cand.Hospital.ID, bloodGroup, remaining); aerr != nil {
			c.log.Warn("stock alert update failed", zap.Error(aerr))
		}
		c.met.ReservationOutcome("reserved")
		c.log.Info("units reserved",
			zap.String("hospital", cand.Hospital.Name),
			zap.String("blood_group", bloodGroup),
			zap.Int("quantity", quantity),
			zap.Int("remaining", remaining))
		hospital := cand.Hospital
		return Outcome{Hospital: &hospital, Remaining: remaining}, nil
	}

	c.met.ReservationOutcome("exhausted")
	c.log.Warn("no reservation made, all candidates exhausted",
		zap.String("blood_group", bloodGroup),
		zap.Int("quantity", quantity),
		zap.Int("candidates", len(candidates)))
	return Outcome{}, nil
}
