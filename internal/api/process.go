package api

import (
	"fmt"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/awaazpay/awaaz/internal/contact"
	"github.com/awaazpay/awaaz/internal/deeplink"
	"github.com/awaazpay/awaaz/internal/intent"
	"github.com/awaazpay/awaaz/internal/observe"
)

// processRequest is the JSON body of POST /api/process.
type processRequest struct {
	// Text is a pointer so a missing field can be told apart from "".
	Text     *string          `json:"text"`
	Contacts []contactRequest `json:"contacts"`
}

type contactRequest struct {
	Name  string `json:"name"`
	Tel   string `json:"tel"`
	UPIID string `json:"upiId"`
}

// validate checks the request and converts the contacts.
func (req processRequest) validate() ([]contact.Contact, error) {
	if req.Text == nil {
		return nil, fmt.Errorf("%w: text is required", ErrMalformedRequest)
	}
	contacts := make([]contact.Contact, 0, len(req.Contacts))
	for i, c := range req.Contacts {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("%w: contacts[%d]: name is required", ErrMalformedRequest, i)
		}
		if strings.TrimSpace(c.Tel) == "" {
			return nil, fmt.Errorf("%w: contacts[%d]: tel is required", ErrMalformedRequest, i)
		}
		contacts = append(contacts, contact.Contact{Name: c.Name, Phone: c.Tel, UPIID: c.UPIID})
	}
	return contacts, nil
}

// processResponse is the JSON body returned by POST /api/process.
type processResponse struct {
	Intent       intent.Kind `json:"intent"`
	Details      any         `json:"details,omitempty"`
	Warning      string      `json:"warning,omitempty"`
	OriginalText string      `json:"originalText"`
}

type scamDetails struct {
	Trigger string `json:"trigger"`
}

type callDetails struct {
	Recipient    string  `json:"recipient"`
	Number       string  `json:"number"`
	TelLink      string  `json:"telLink"`
	ContactsLink string  `json:"contactsLink,omitempty"`
	Source       string  `json:"source"`
	MatchedBy    string  `json:"matchedBy"`
	Confidence   float64 `json:"confidence"`
}

type payDetails struct {
	Amount           string             `json:"amount"`
	Recipient        string             `json:"recipient"`
	UPIID            string             `json:"upiId"`
	UPILink          string             `json:"upiLink"`
	AppLinks         []deeplink.AppLink `json:"appLinks,omitempty"`
	UPIIDSynthesized bool               `json:"upiIdSynthesized"`
	Source           string             `json:"source,omitempty"`
	MatchedBy        string             `json:"matchedBy,omitempty"`
	Confidence       float64            `json:"confidence,omitempty"`
}

// Process handles POST /api/process.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	contacts, err := req.validate()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res := h.classifier.Classify(r.Context(), *req.Text, contacts)
	observe.Logger(r.Context()).Debug("processed utterance",
		"intent", res.Kind,
		"contacts", len(contacts),
	)
	writeJSON(w, http.StatusOK, newProcessResponse(res))
}

// newProcessResponse maps a classification result onto the wire format.
// Recipient names are capitalized here and nowhere else.
func newProcessResponse(res intent.Result) processResponse {
	out := processResponse{
		Intent:       res.Kind,
		Warning:      res.Warning,
		OriginalText: res.OriginalText,
	}
	switch {
	case res.Scam != nil:
		out.Details = scamDetails{Trigger: res.Scam.Trigger}
	case res.Call != nil:
		c := res.Call
		out.Details = callDetails{
			Recipient:    capitalize(c.Recipient),
			Number:       c.Number,
			TelLink:      c.TelLink,
			ContactsLink: c.ContactsLink,
			Source:       string(c.Source),
			MatchedBy:    string(c.MatchedBy),
			Confidence:   c.Confidence,
		}
	case res.Pay != nil:
		p := res.Pay
		out.Details = payDetails{
			Amount:           p.Amount,
			Recipient:        capitalize(p.Recipient),
			UPIID:            p.UPIID,
			UPILink:          p.UPILink,
			AppLinks:         p.AppLinks,
			UPIIDSynthesized: p.UPIIDSynthesized,
			Source:           string(p.Source),
			MatchedBy:        string(p.MatchedBy),
			Confidence:       p.Confidence,
		}
	}
	return out
}

// capitalize upper-cases the first rune. Scripts without case, such as
// Devanagari, pass through unchanged.
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
