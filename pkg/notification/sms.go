package notification

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"BloodLink/pkg/errors"
)

// SMSConfig holds Twilio-compatible REST credentials. An empty config is
// valid and means dispatch runs in simulated mode.
type SMSConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
	Endpoint   string // default https://api.twilio.com
	Timeout    time.Duration
}

func (c SMSConfig) Configured() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.FromNumber != ""
}

// SMSSender sends one message and returns the provider message id,
// injectable so the dispatcher can run against test doubles.
type SMSSender interface {
	Send(ctx context.Context, to, body string) (providerID string, err error)
}

type twilioSMS struct {
	cfg  SMSConfig
	http *http.Client
}

func NewTwilioSMS(cfg SMSConfig) SMSSender {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.twilio.com"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &twilioSMS{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
}

func (t *twilioSMS) Send(ctx context.Context, to, body string) (string, error) {
	if !t.cfg.Configured() {
		return "", errors.WithCode(errors.CodeNotConfigured, "sms credentials missing")
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", t.cfg.FromNumber)
	form.Set("Body", body)

	endpoint := t.cfg.Endpoint + "/2010-04-01/Accounts/" + t.cfg.AccountSID + "/Messages.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", errors.Wrap(err, "build sms request")
	}
	req.SetBasicAuth(t.cfg.AccountSID, t.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.http.Do(req)
	if err != nil {
		return "", errors.WithCodef(errors.CodeTimeout, "sms transport: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	var payload struct {
		Sid     string `json:"sid"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(raw, &payload)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := payload.Message
		if msg == "" {
			msg = string(raw)
		}
		return "", errors.WithCodef(errors.CodeUnavailable, "sms provider: %s", msg)
	}
	return payload.Sid, nil
}
