package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/awaazpay/awaaz/internal/alert"
	"github.com/awaazpay/awaaz/internal/deeplink"
	"github.com/awaazpay/awaaz/internal/observe"
)

// emergencyRequest is the JSON body of POST /api/emergency. Both
// coordinates are optional but must be sent together.
type emergencyRequest struct {
	Lat  *float64 `json:"lat"`
	Long *float64 `json:"long"`
}

func (req emergencyRequest) location() (*alert.Location, error) {
	switch {
	case req.Lat == nil && req.Long == nil:
		return nil, nil
	case req.Lat == nil || req.Long == nil:
		return nil, fmt.Errorf("%w: lat and long must be sent together", ErrMalformedRequest)
	}
	loc := &alert.Location{Lat: *req.Lat, Long: *req.Long}
	if !loc.Valid() {
		return nil, fmt.Errorf("%w: coordinates out of range", ErrMalformedRequest)
	}
	return loc, nil
}

// emergencyResponse is the JSON body returned on a delivered alert. The
// links let the client follow up over the phone network.
type emergencyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	SMSLink string `json:"smsLink"`
	TelLink string `json:"telLink"`
}

// Emergency handles POST /api/emergency. An empty body raises an alert
// without a location.
func (h *Handler) Emergency(w http.ResponseWriter, r *http.Request) {
	var req emergencyRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	loc, err := req.location()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	log := observe.Logger(r.Context())
	a := alert.Alert{Location: loc, At: h.now()}
	if h.dispatcher == nil {
		log.Error("emergency alert dropped: no dispatcher configured")
		writeError(w, http.StatusInternalServerError, "Failed to send alert")
		return
	}
	rcpt, err := h.dispatcher.Dispatch(r.Context(), a)
	if err != nil {
		log.Error("emergency alert failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to send alert")
		return
	}

	writeJSON(w, http.StatusOK, emergencyResponse{
		Success: true,
		Message: "SOS Alert Sent Successfully",
		SMSLink: deeplink.SMS(h.alertPhone, rcpt.Message),
		TelLink: deeplink.Tel(h.alertPhone),
	})
}
