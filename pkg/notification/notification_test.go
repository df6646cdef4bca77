package notification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"BloodLink/pkg/errors"
)

func TestNormalizePhone(t *testing.T) {
	cases := map[string]string{
		"9876543210":      "+919876543210",
		"919876543210":    "+919876543210",
		"+919876543210":   "+919876543210",
		"98765-43210":     "+919876543210",
		"+91 98765 43210": "+919876543210",
		"12345":           "12345",
	}
	for in, want := range cases {
		if got := NormalizePhone(in); got != want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{errors.New("daily limit exceeded for trial account"), ClassRateLimited},
		{errors.New("Authentication failed, check credentials"), ClassAuthentication},
		{errors.New("the phone number is not a valid destination"), ClassInvalidRecipient},
		{errors.New("connection reset by peer"), ClassUnknown},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Errorf("Classify(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestTwilioSendParsesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2010-04-01/Accounts/AC123/Messages.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if _, _, ok := r.BasicAuth(); !ok {
			t.Error("missing basic auth")
		}
		json.NewEncoder(w).Encode(map[string]string{"sid": "SM999"})
	}))
	defer srv.Close()

	sender := NewTwilioSMS(SMSConfig{
		AccountSID: "AC123", AuthToken: "token", FromNumber: "+15550001111",
		Endpoint: srv.URL,
	})
	sid, err := sender.Send(context.Background(), "+919876543210", "hello")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if sid != "SM999" {
		t.Errorf("sid = %q", sid)
	}
}

func TestTwilioSendProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"message": "Account exceeded the daily messages limit"})
	}))
	defer srv.Close()

	sender := NewTwilioSMS(SMSConfig{
		AccountSID: "AC123", AuthToken: "token", FromNumber: "+15550001111",
		Endpoint: srv.URL,
	})
	_, err := sender.Send(context.Background(), "+919876543210", "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	if Classify(err) != ClassRateLimited {
		t.Errorf("Classify = %q, want %q", Classify(err), ClassRateLimited)
	}
}

func TestUnconfiguredSenderFails(t *testing.T) {
	sender := NewTwilioSMS(SMSConfig{})
	_, err := sender.Send(context.Background(), "+919876543210", "hello")
	if errors.GetCode(err) != errors.CodeNotConfigured {
		t.Errorf("expected not-configured code, got %v", err)
	}
}
