package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"BloodLink/internal/models"
	"BloodLink/internal/store"
	"BloodLink/pkg/errors"
	"BloodLink/pkg/metrics"
)

type fakeSMS struct {
	sent []string
	err  error
}

func (f *fakeSMS) Send(_ context.Context, to, body string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, to)
	return "SM123", nil
}

func newTestRecords(t *testing.T, dsn string) *store.NotificationStore {
	t.Helper()
	db, err := store.Open("", dsn)
	require.NoError(t, err)
	return store.NewNotificationStore(db)
}

func TestDispatchSimulatedWhenUnconfigured(t *testing.T) {
	records := newTestRecords(t, "file:notify_sim?mode=memory&cache=shared")
	d := NewDispatcher(nil, false, nil, false, records, "+911234567890", zap.NewNop(), metrics.New())

	req := sampleRequest()
	smsOK, _ := d.Dispatch(context.Background(), req, sampleCandidates())
	assert.True(t, smsOK)

	recs, err := records.ForRequest(context.Background(), req.ID)
	require.NoError(t, err)
	require.Len(t, recs, 2) // requester + operator
	for _, r := range recs {
		assert.True(t, r.Simulated)
		assert.Equal(t, models.NotifySent, r.Status)
		assert.Equal(t, "SIMULATED", r.ProviderResponse)
	}
}

func TestDispatchRealSendAndRecord(t *testing.T) {
	records := newTestRecords(t, "file:notify_real?mode=memory&cache=shared")
	sms := &fakeSMS{}
	d := NewDispatcher(sms, true, nil, false, records, "+911234567890", zap.NewNop(), metrics.New())

	req := sampleRequest()
	smsOK, _ := d.Dispatch(context.Background(), req, sampleCandidates())
	assert.True(t, smsOK)
	assert.Equal(t, []string{"+919876543210", "+911234567890"}, sms.sent)

	recs, err := records.ForRequest(context.Background(), req.ID)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "SM123", recs[0].ProviderResponse)
	assert.False(t, recs[0].Simulated)
}

func TestDispatchClassifiesFailure(t *testing.T) {
	records := newTestRecords(t, "file:notify_fail?mode=memory&cache=shared")
	sms := &fakeSMS{err: errors.New("account exceeded the daily message limit")}
	d := NewDispatcher(sms, true, nil, false, records, "", zap.NewNop(), metrics.New())

	req := sampleRequest()
	smsOK, _ := d.Dispatch(context.Background(), req, sampleCandidates())
	assert.False(t, smsOK)

	recs, err := records.ForRequest(context.Background(), req.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, models.NotifyFailed, recs[0].Status)
	assert.Equal(t, "rate-limited", recs[0].ErrorClass)
}

func TestDispatchBacksOffAfterRateFailures(t *testing.T) {
	records := newTestRecords(t, "file:notify_backoff?mode=memory&cache=shared")
	failing := &fakeSMS{err: errors.New("daily limit exceeded")}
	d := NewDispatcher(failing, true, nil, false, records, "", zap.NewNop(), metrics.New())

	req := sampleRequest()
	for i := 0; i < 3; i++ {
		d.Dispatch(context.Background(), req, nil)
	}

	// fourth dispatch trips the failure window and simulates instead
	smsOK, _ := d.Dispatch(context.Background(), req, nil)
	assert.True(t, smsOK)

	recs, err := records.ForRequest(context.Background(), req.ID)
	require.NoError(t, err)
	require.Len(t, recs, 4)
	simulated := 0
	for _, r := range recs {
		if r.Simulated {
			simulated++
		}
	}
	assert.Equal(t, 1, simulated)
}

func TestOperatorFailureDoesNotBlockRequester(t *testing.T) {
	records := newTestRecords(t, "file:notify_operator?mode=memory&cache=shared")

	calls := 0
	sms := &flakySMS{failFrom: 2, calls: &calls}
	d := NewDispatcher(sms, true, nil, false, records, "+911234567890", zap.NewNop(), metrics.New())

	req := sampleRequest()
	smsOK, _ := d.Dispatch(context.Background(), req, sampleCandidates())
	assert.True(t, smsOK)
}

type flakySMS struct {
	failFrom int
	calls    *int
}

func (f *flakySMS) Send(_ context.Context, to, body string) (string, error) {
	*f.calls++
	if *f.calls >= f.failFrom {
		return "", errors.New("phone number is not a valid destination")
	}
	return "SM456", nil
}
