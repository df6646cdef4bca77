package reserve

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"BloodLink/internal/matcher"
	"BloodLink/internal/models"
	"BloodLink/internal/store"
	"BloodLink/pkg/metrics"
)

func setup(t *testing.T, dsn string) (*gorm.DB, *Coordinator, *store.StockStore, *store.AlertStore) {
	t.Helper()
	db, err := store.Open("", dsn)
	require.NoError(t, err)
	stock := store.NewStockStore(db)
	alerts := store.NewAlertStore(db)
	return db, NewCoordinator(stock, alerts, zap.NewNop(), metrics.New()), stock, alerts
}

func hospital(t *testing.T, db *gorm.DB, name string) models.Hospital {
	t.Helper()
	h := models.Hospital{Name: name, IsActive: true, IsEmergencyPartner: true}
	require.NoError(t, db.Create(&h).Error)
	return h
}

func TestReserveFirstCandidateWins(t *testing.T) {
	db, coord, stock, _ := setup(t, "file:reserve_first?mode=memory&cache=shared")
	ctx := context.Background()

	h1 := hospital(t, db, "First")
	h2 := hospital(t, db, "Second")
	require.NoError(t, stock.SetUnits(ctx, h1.ID, "A+", 5))
	require.NoError(t, stock.SetUnits(ctx, h2.ID, "A+", 5))

	out, err := coord.Reserve(ctx, []matcher.Candidate{
		{Hospital: h1}, {Hospital: h2},
	}, "A+", 2)
	require.NoError(t, err)
	require.NotNil(t, out.Hospital)
	assert.Equal(t, h1.ID, out.Hospital.ID)
	assert.Equal(t, 3, out.Remaining)
}

func TestReserveSkipsDrainedCandidate(t *testing.T) {
	db, coord, stock, alerts := setup(t, "file:reserve_skip?mode=memory&cache=shared")
	ctx := context.Background()

	h1 := hospital(t, db, "Drained")
	h2 := hospital(t, db, "Backup")
	require.NoError(t, stock.SetUnits(ctx, h1.ID, "O+", 1))
	require.NoError(t, stock.SetUnits(ctx, h2.ID, "O+", 4))

	out, err := coord.Reserve(ctx, []matcher.Candidate{
		{Hospital: h1}, {Hospital: h2},
	}, "O+", 3)
	require.NoError(t, err)
	require.NotNil(t, out.Hospital)
	assert.Equal(t, h2.ID, out.Hospital.ID)
	assert.Equal(t, 1, out.Remaining)

	// the decrement refreshed the alert for the winning hospital
	alert, err := alerts.ActiveFor(ctx, h2.ID, "O+")
	require.NoError(t, err)
	require.NotNil(t, alert)
	assert.Equal(t, models.AlertEmergency, alert.AlertLevel)
}

func TestReserveExhaustedReturnsNoHospital(t *testing.T) {
	db, coord, stock, _ := setup(t, "file:reserve_exhausted?mode=memory&cache=shared")
	ctx := context.Background()

	h := hospital(t, db, "Empty")
	require.NoError(t, stock.SetUnits(ctx, h.ID, "B-", 1))

	out, err := coord.Reserve(ctx, []matcher.Candidate{{Hospital: h}}, "B-", 2)
	require.NoError(t, err)
	assert.Nil(t, out.Hospital)
}

func TestConcurrentReserveNeverGoesNegative(t *testing.T) {
	db, coord, stock, _ := setup(t, "file:reserve_concurrent?mode=memory&cache=shared")
	ctx := context.Background()

	h := hospital(t, db, "Contended")
	require.NoError(t, stock.SetUnits(ctx, h.ID, "O-", 5))

	var wg sync.WaitGroup
	wins := make(chan struct{}, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := coord.Reserve(ctx, []matcher.Candidate{{Hospital: h}}, "O-", 2)
			if err == nil && out.Hospital != nil {
				wins <- struct{}{}
			}
		}()
	}
	wg.Wait()
	close(wins)

	won := 0
	for range wins {
		won++
	}
	assert.LessOrEqual(t, won, 2)

	rows, err := stock.All(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.GreaterOrEqual(t, rows[0].UnitsAvailable, 0)
}
