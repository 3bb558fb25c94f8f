package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/awaazpay/awaaz/internal/alert"
)

type fakeDispatcher struct {
	mu     sync.Mutex
	alerts []alert.Alert
	err    error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, a alert.Alert) (alert.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, a)
	if f.err != nil {
		return alert.Receipt{}, f.err
	}
	return alert.Receipt{Notifier: "fake", Message: a.Message()}, nil
}

func postEmergency(t *testing.T, h *Handler, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	mux := http.NewServeMux()
	h.Register(mux)
	req := httptest.NewRequest(http.MethodPost, "/api/emergency", strings.NewReader(body))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return rec, out
}

func TestEmergency_Success(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	tests := []struct {
		name    string
		body    string
		wantLoc *alert.Location
		wantMsg string
	}{
		{
			name:    "with coordinates",
			body:    `{"lat":28.6139,"long":77.209}`,
			wantLoc: &alert.Location{Lat: 28.6139, Long: 77.209},
			wantMsg: "EMERGENCY ALERT! User needs help. Location: https://maps.google.com/?q=28.6139,77.209",
		},
		{
			name:    "empty object",
			body:    `{}`,
			wantMsg: "EMERGENCY ALERT! User needs help. Location: Location unavailable",
		},
		{
			name:    "empty body",
			body:    ``,
			wantMsg: "EMERGENCY ALERT! User needs help. Location: Location unavailable",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := &fakeDispatcher{}
			h := New(nil, d, WithAlertPhone("98765 43210"), withClock(func() time.Time { return fixed }))

			rec, out := postEmergency(t, h, tt.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
			}
			if out["success"] != true {
				t.Errorf("success = %v, want true", out["success"])
			}
			if out["message"] != "SOS Alert Sent Successfully" {
				t.Errorf("message = %v", out["message"])
			}
			if out["telLink"] != "tel:9876543210" {
				t.Errorf("telLink = %v, want tel:9876543210", out["telLink"])
			}
			sms, _ := out["smsLink"].(string)
			if !strings.HasPrefix(sms, "sms:9876543210?body=EMERGENCY%20ALERT") {
				t.Errorf("smsLink = %q", sms)
			}

			if len(d.alerts) != 1 {
				t.Fatalf("dispatched %d alerts, want 1", len(d.alerts))
			}
			got := d.alerts[0]
			if !got.At.Equal(fixed) {
				t.Errorf("At = %v, want %v", got.At, fixed)
			}
			if got.Message() != tt.wantMsg {
				t.Errorf("Message() = %q, want %q", got.Message(), tt.wantMsg)
			}
			switch {
			case tt.wantLoc == nil && got.Location != nil:
				t.Errorf("Location = %+v, want nil", *got.Location)
			case tt.wantLoc != nil && (got.Location == nil || *got.Location != *tt.wantLoc):
				t.Errorf("Location = %v, want %+v", got.Location, *tt.wantLoc)
			}
		})
	}
}

func TestEmergency_BadRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "lat only", body: `{"lat":1}`, wantErr: "sent together"},
		{name: "long only", body: `{"long":1}`, wantErr: "sent together"},
		{name: "out of range", body: `{"lat":91,"long":0}`, wantErr: "out of range"},
		{name: "not json", body: `help`, wantErr: "malformed request"},
		{name: "string coordinates", body: `{"lat":"1","long":"2"}`, wantErr: "malformed request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := &fakeDispatcher{}
			rec, out := postEmergency(t, New(nil, d), tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			msg, _ := out["error"].(string)
			if !strings.Contains(msg, tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", msg, tt.wantErr)
			}
			if len(d.alerts) != 0 {
				t.Errorf("dispatched %d alerts on bad request", len(d.alerts))
			}
		})
	}
}

func TestEmergency_DispatchFailure(t *testing.T) {
	t.Parallel()
	d := &fakeDispatcher{err: errors.Join(alert.ErrAllFailed, errors.New("webhook down"))}
	rec, out := postEmergency(t, New(nil, d), `{"lat":1,"long":2}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if out["error"] != "Failed to send alert" {
		t.Errorf("error = %v, want Failed to send alert", out["error"])
	}
}

func TestEmergency_NoDispatcher(t *testing.T) {
	t.Parallel()
	rec, out := postEmergency(t, New(nil, nil), `{}`)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if out["error"] != "Failed to send alert" {
		t.Errorf("error = %v", out["error"])
	}
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()
	h := New(nil, nil, WithAlertPhone(""))
	if h.alertPhone != DefaultAlertPhone {
		t.Errorf("alertPhone = %q, want %q", h.alertPhone, DefaultAlertPhone)
	}
	if h.now == nil {
		t.Error("now is nil")
	}
}
