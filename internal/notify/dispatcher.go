package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"BloodLink/internal/matcher"
	"BloodLink/internal/models"
	"BloodLink/internal/store"
	"BloodLink/pkg/metrics"
	"BloodLink/pkg/notification"
)

const (
	simulatedMarker  = "SIMULATED"
	rateFailureCap   = 3
	rateFailureSpan  = time.Hour
	operatorChannel  = "operator"
	requesterChannel = "requester"
)

type Dispatcher struct {
	sms            notification.SMSSender
	mail           notification.MailSender
	records        *store.NotificationStore
	smsConfigured  bool
	mailConfigured bool
	operatorPhone  string
	log            *zap.Logger
	met            *metrics.Metrics
}

func NewDispatcher(
	sms notification.SMSSender, smsConfigured bool,
	mail notification.MailSender, mailConfigured bool,
	records *store.NotificationStore,
	operatorPhone string,
	log *zap.Logger, met *metrics.Metrics,
) *Dispatcher {
	return &Dispatcher{
		sms:            sms,
		mail:           mail,
		records:        records,
		smsConfigured:  smsConfigured,
		mailConfigured: mailConfigured,
		operatorPhone:  operatorPhone,
		log:            log,
		met:            met,
	}
}

// Dispatch sends the requester SMS and email plus the operator alert,
// returning per-channel success for the requester side. The operator
// alert can fail without affecting either flag. Exactly one
// NotificationRecord is appended per attempt.
func (d *Dispatcher) Dispatch(ctx context.Context, req *models.EmergencyRequest, candidates []matcher.Candidate) (smsOK, emailOK bool) {
	simulate := d.shouldSimulate(ctx)

	if req.ContactPhone != "" {
		smsOK = d.sendSMS(ctx, req, RequesterSMS(req, candidates), req.ContactPhone, simulate, requesterChannel)
	}
	if req.ContactEmail != "" {
		emailOK = d.sendEmail(ctx, req, candidates)
	}

	if d.operatorPhone != "" {
		d.sendSMS(ctx, req, OperatorAlert(req, candidates), d.operatorPhone, simulate, operatorChannel)
	} else {
		d.log.Warn("operator phone not configured, alert skipped")
	}
	return smsOK, emailOK
}

// shouldSimulate trips when SMS is unconfigured or the trailing hour
// holds three or more rate-class failures.
func (d *Dispatcher) shouldSimulate(ctx context.Context) bool {
	if !d.smsConfigured {
		return true
	}
	n, err := d.records.RecentRateFailures(ctx, rateFailureSpan)
	if err != nil {
		d.log.Warn("failure-window lookup failed", zap.Error(err))
		return false
	}
	if n >= rateFailureCap {
		d.log.Warn("sms provider backing off after repeated rate failures", zap.Int64("failures", n))
		return true
	}
	return false
}

func (d *Dispatcher) sendSMS(ctx context.Context, req *models.EmergencyRequest, body, to string, simulate bool, audience string) bool {
	rec := &models.NotificationRecord{
		RequestID:        req.ID,
		NotificationType: models.ChannelSMS,
		Recipient:        to,
		Message:          body,
	}

	if simulate {
		now := time.Now()
		rec.Status = models.NotifySent
		rec.Simulated = true
		rec.ProviderResponse = simulatedMarker
		rec.SentAt = &now
		d.append(ctx, rec)
		d.met.NotificationAttempt(models.ChannelSMS, "simulated")
		d.log.Info("sms simulated",
			zap.String("audience", audience),
			zap.String("request", req.ShortID()))
		return true
	}

	sid, err := d.sms.Send(ctx, to, body)
	if err != nil {
		rec.Status = models.NotifyFailed
		rec.ErrorMessage = truncate(err.Error(), 500)
		rec.ErrorClass = notification.Classify(err)
		d.append(ctx, rec)
		d.met.NotificationAttempt(models.ChannelSMS, "failed")
		d.log.Error("sms send failed",
			zap.String("audience", audience),
			zap.String("class", rec.ErrorClass),
			zap.Error(err))
		return false
	}

	now := time.Now()
	rec.Status = models.NotifySent
	rec.ProviderResponse = sid
	rec.SentAt = &now
	d.append(ctx, rec)
	d.met.NotificationAttempt(models.ChannelSMS, "sent")
	d.log.Info("sms sent",
		zap.String("audience", audience),
		zap.String("request", req.ShortID()))
	return true
}

func (d *Dispatcher) sendEmail(ctx context.Context, req *models.EmergencyRequest, candidates []matcher.Candidate) bool {
	subject := EmailSubject(req)
	body := RequesterEmail(req, candidates)
	rec := &models.NotificationRecord{
		RequestID:        req.ID,
		NotificationType: models.ChannelEmail,
		Recipient:        req.ContactEmail,
		Subject:          subject,
		Message:          body,
	}

	if !d.mailConfigured {
		now := time.Now()
		rec.Status = models.NotifySent
		rec.Simulated = true
		rec.ProviderResponse = simulatedMarker
		rec.SentAt = &now
		d.append(ctx, rec)
		d.met.NotificationAttempt(models.ChannelEmail, "simulated")
		return true
	}

	if err := d.mail.Send(ctx, req.ContactEmail, subject, body); err != nil {
		rec.Status = models.NotifyFailed
		rec.ErrorMessage = truncate(err.Error(), 500)
		rec.ErrorClass = notification.Classify(err)
		d.append(ctx, rec)
		d.met.NotificationAttempt(models.ChannelEmail, "failed")
		d.log.Error("email send failed", zap.Error(err))
		return false
	}

	now := time.Now()
	rec.Status = models.NotifySent
	rec.SentAt = &now
	d.append(ctx, rec)
	d.met.NotificationAttempt(models.ChannelEmail, "sent")
	return true
}

func (d *Dispatcher) append(ctx context.Context, rec *models.NotificationRecord) {
	if err := d.records.Append(ctx, rec); err != nil {
		d.log.Error("notification record write failed", zap.Error(err))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
