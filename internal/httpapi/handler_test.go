package httpapi

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"venue-crm/internal/metrics"
	"venue-crm/internal/models"
	"venue-crm/internal/storage"
	"venue-crm/internal/workflow"
)

const webhookURL = "https://crm.example.com/twilio/webhook"

type testServer struct {
	handler http.Handler
	engine  *workflow.Engine
}

type serverOption func(*workflow.Options, *WebhookConfig)

func strictSlots(o *workflow.Options, _ *WebhookConfig) { o.StrictAvailability = true }

func signedWebhook(token string) serverOption {
	return func(_ *workflow.Options, c *WebhookConfig) {
		*c = WebhookConfig{Validate: true, AuthToken: token, PublicURL: webhookURL}
	}
}

func newTestServer(t *testing.T, opts ...serverOption) *testServer {
	t.Helper()

	now := func() time.Time { return time.Date(2025, 9, 26, 9, 0, 0, 0, time.UTC) }
	store, err := storage.NewStorage(storage.Options{DemoPhone: "+15551234567", Now: now, Logger: zerolog.Nop()})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	wfOpts := workflow.Options{
		DemoPhone: "+15551234567",
		VenueName: "The Rowan House",
		Now:       now,
		Metrics:   m,
		Logger:    zerolog.Nop(),
	}
	var webhook WebhookConfig
	for _, opt := range opts {
		opt(&wfOpts, &webhook)
	}

	engine := workflow.New(store, wfOpts)
	h := New(zerolog.Nop(), engine, NewValidator(), webhook)
	return &testServer{
		handler: NewRouter(h, RouterConfig{Gatherer: reg, Metrics: m, Logger: zerolog.Nop()}),
		engine:  engine,
	}
}

func (s *testServer) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	}
	return rec, decoded
}

func field(t *testing.T, body map[string]interface{}, keys ...string) interface{} {
	t.Helper()
	var cur interface{} = body
	for _, k := range keys {
		m, ok := cur.(map[string]interface{})
		require.True(t, ok, "expected object at %q", k)
		cur = m[k]
	}
	return cur
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestBookingPipeline_EndToEnd(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodPost, "/api/simulate/pricing-guide", `{"name":"Test","phone":"+15555550001"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "new", field(t, body, "lead", "status"))
	leadID := field(t, body, "lead", "id").(string)

	rec, body = s.do(t, http.MethodPost, "/api/book", `{"phone":"+15555550001","date":"tomorrow","time":"1pm"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, leadID, field(t, body, "tour", "leadId"))
	assert.Equal(t, "2025-09-27", field(t, body, "tour", "date"))
	assert.Equal(t, "13:00", field(t, body, "tour", "time"))
	tourID := field(t, body, "tour", "id").(string)

	state := s.engine.State()
	assert.Equal(t, models.LeadToured, state.Leads[state.LeadByID(leadID)].Status)

	rec, body = s.do(t, http.MethodPost, "/api/confirm-event", `{"tourId":"`+tourID+`","eventDate":"2025-12-14"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "confirmed", field(t, body, "booking", "status"))
	assert.Equal(t, "Test", field(t, body, "booking", "leadName"))
	bookingID := field(t, body, "booking", "id").(string)

	state = s.engine.State()
	assert.Equal(t, -1, state.TourByID(tourID))
	assert.Equal(t, models.LeadBooked, state.Leads[state.LeadByID(leadID)].Status)

	rec, body = s.do(t, http.MethodPost, "/api/invoice", `{"bookingId":"`+bookingID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(45750), field(t, body, "invoice", "total"))
	assert.Equal(t, float64(45750), field(t, body, "invoice", "balanceDue"))
	assert.Equal(t, "sent", field(t, body, "invoice", "status"))
	invoiceID := field(t, body, "invoice", "id").(string)

	rec, body = s.do(t, http.MethodGet, "/api/invoice/"+invoiceID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, invoiceID, field(t, body, "invoice", "id"))

	rec, body = s.do(t, http.MethodPost, "/api/invoice/"+invoiceID+"/pay", `{"payer":{"name":"Test","email":"test@example.com"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "paid", field(t, body, "invoice", "status"))
	assert.Equal(t, float64(0), field(t, body, "invoice", "balanceDue"))
	assert.Equal(t, "test@example.com", field(t, body, "invoice", "payer", "email"))

	rec, body = s.do(t, http.MethodPost, "/api/invoice/"+invoiceID+"/pay", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "paid", field(t, body, "invoice", "status"))
}

func TestValidationErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name      string
		path      string
		body      string
		wantError string
	}{
		{"book missing phone", "/api/book", `{"date":"today","time":"1pm"}`, "phone is required"},
		{"book bad date", "/api/book", `{"phone":"+1","date":"sept 27","time":"1pm"}`, "invalid date"},
		{"book bad time", "/api/book", `{"phone":"+1","date":"today","time":"25:00"}`, "invalid time"},
		{"confirm missing tour", "/api/confirm-event", `{"eventDate":"2025-12-14"}`, "tourId is required"},
		{"confirm bad date", "/api/confirm-event", `{"tourId":"tour_1","eventDate":"Dec 14"}`, "eventDate must be a date"},
		{"invoice missing booking", "/api/invoice", `{}`, "bookingId is required"},
		{"invoice negative amount", "/api/invoice", `{"bookingId":"b1","amount":-5}`, "amount must be a positive number"},
		{"simulate bad email", "/api/simulate/pricing-guide", `{"email":"nope"}`, "email must be a valid email address"},
		{"malformed json", "/api/book", `{"phone":`, "invalid request payload"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := s.do(t, http.MethodPost, tc.path, tc.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, false, body["ok"])
			assert.Contains(t, body["error"], tc.wantError)
		})
	}
}

func TestValidationErrors_Details(t *testing.T) {
	s := newTestServer(t)

	_, body := s.do(t, http.MethodPost, "/api/book", `{}`)
	details, ok := body["details"].([]interface{})
	require.True(t, ok)
	assert.Len(t, details, 3)
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodPost, "/api/confirm-event", `{"tourId":"tour_missing","eventDate":"2025-12-14"}`},
		{http.MethodPost, "/api/invoice", `{"bookingId":"booking_missing"}`},
		{http.MethodGet, "/api/invoice/inv_missing", ""},
		{http.MethodPost, "/api/invoice/inv_missing/pay", ""},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			rec, body := s.do(t, tc.method, tc.path, tc.body)
			assert.Equal(t, http.StatusNotFound, rec.Code)
			assert.Equal(t, false, body["ok"])
			assert.Contains(t, body["error"], "not found")
		})
	}
}

func TestStrictAvailability_Conflict(t *testing.T) {
	s := newTestServer(t, strictSlots)
	before := s.engine.State()

	rec, body := s.do(t, http.MethodPost, "/api/book", `{"phone":"+15555550001","date":"tomorrow","time":"3pm"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, before, s.engine.State())
}

func TestAvailability(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(t, http.MethodGet, "/api/availability?date=tomorrow", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2025-09-27", body["date"])
	assert.Equal(t, []interface{}{"10:00", "11:30", "13:00", "16:30"}, body["slots"])

	_, body = s.do(t, http.MethodGet, "/api/availability?date=2025-01-01", "")
	assert.Equal(t, []interface{}{}, body["slots"])

	_, body = s.do(t, http.MethodGet, "/api/availability", "")
	assert.Equal(t, "2025-09-26", body["date"])
}

func TestStateAndReset(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodPost, "/api/book", `{"phone":"+15555550001","date":"today","time":"10am"}`)

	rec, body := s.do(t, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["tours"], 1)
	for _, key := range []string{"leads", "tours", "bookings", "invoices", "messages", "availability"} {
		assert.Contains(t, body, key)
	}

	rec, body = s.do(t, http.MethodPost, "/api/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, []interface{}{}, body["tours"])
	assert.Equal(t, []interface{}{}, body["messages"])
	assert.Len(t, body["leads"], 3)
}

func postForm(s *testServer, form url.Values, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, webhookURL, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if signature != "" {
		req.Header.Set("X-Twilio-Signature", signature)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func sign(token, callbackURL string, form url.Values) string {
	pairs := make([]string, 0, len(form))
	for key := range form {
		pairs = append(pairs, key+form.Get(key))
	}
	sort.Strings(pairs)

	mac := hmac.New(sha1.New, []byte(token))
	mac.Write([]byte(callbackURL + strings.Join(pairs, "")))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestTwilioWebhook_ReturnsTwiML(t *testing.T) {
	s := newTestServer(t)

	rec := postForm(s, url.Values{"From": {"+15555550001"}, "Body": {"Is Saturday open?"}}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/xml", rec.Header().Get("Content-Type"))
	assert.Equal(t, TwiMLReceived, rec.Body.String())

	msgs := s.engine.State().Messages
	require.Len(t, msgs, 1)
	assert.Equal(t, models.DirectionIn, msgs[0].Direction)
	assert.Equal(t, "Is Saturday open?", msgs[0].Text)
}

func TestTwilioWebhook_IgnoresEmptyForm(t *testing.T) {
	s := newTestServer(t)

	rec := postForm(s, url.Values{}, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, TwiMLReceived, rec.Body.String())
	assert.Empty(t, s.engine.State().Messages)
}

func TestTwilioWebhook_Signature(t *testing.T) {
	const token = "test-auth-token"
	s := newTestServer(t, signedWebhook(token))
	form := url.Values{"From": {"+15555550001"}, "Body": {"hello"}, "MessageSid": {"SM123"}}

	rec := postForm(s, form, "bad-signature")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, s.engine.State().Messages)

	rec = postForm(s, form, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = postForm(s, form, sign(token, webhookURL, form))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, TwiMLReceived, rec.Body.String())
	assert.Len(t, s.engine.State().Messages, 1)
}

func TestCORS(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/book", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_UnlistedHeader(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/book", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "x-api-key")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)

	s.do(t, http.MethodPost, "/api/simulate/pricing-guide", `{"phone":"+15555550001"}`)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.Contains(t, out, `venue_crm_transitions_total{operation="simulate_inquiry",result="ok"} 1`)
	assert.Contains(t, out, `route="/api/simulate/pricing-guide"`)
}
