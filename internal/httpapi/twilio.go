package httpapi

import (
	"net/http"

	twilioclient "github.com/twilio/twilio-go/client"
)

// TwiMLReceived is the static reply sent for every inbound SMS.
const TwiMLReceived = `<?xml version="1.0" encoding="UTF-8"?><Response><Message>Received!</Message></Response>`

// WebhookConfig controls X-Twilio-Signature verification.
type WebhookConfig struct {
	// Validate turns verification on. It has no effect without AuthToken.
	Validate  bool
	AuthToken string
	// PublicURL is the URL Twilio posts to. When empty it is rebuilt from the request.
	PublicURL string
}

func (c WebhookConfig) enabled() bool {
	return c.Validate && c.AuthToken != ""
}

// TwilioWebhook answers inbound SMS with static TwiML and records the message
// when the form carries a sender and body.
func (h *Handler) TwilioWebhook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.log.Warn().Err(err).Msg("unable to parse webhook form")
	}

	if h.webhook.enabled() && !h.validSignature(r) {
		h.log.Warn().Str("remote", r.RemoteAddr).Msg("rejected webhook with bad signature")
		w.WriteHeader(http.StatusForbidden)
		return
	}

	from, body := r.PostForm.Get("From"), r.PostForm.Get("Body")
	if from != "" && body != "" {
		if _, err := h.wf.RecordInbound(r.Context(), from, body); err != nil {
			h.log.Error().Err(err).Str("from", from).Msg("unable to record inbound message")
		}
	}

	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(TwiMLReceived))
}

func (h *Handler) validSignature(r *http.Request) bool {
	params := make(map[string]string, len(r.PostForm))
	for key := range r.PostForm {
		params[key] = r.PostForm.Get(key)
	}

	url := h.webhook.PublicURL
	if url == "" {
		scheme := "http"
		if r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		url = scheme + "://" + r.Host + r.URL.RequestURI()
	}

	validator := twilioclient.NewRequestValidator(h.webhook.AuthToken)
	return validator.Validate(url, params, r.Header.Get("X-Twilio-Signature"))
}
