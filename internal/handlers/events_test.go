package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reflowctl/internal/models"
)

func TestGetEvents_PassesNormalizedFilter(t *testing.T) {
	ev := &mockEvents{listResult: []models.SessionEvent{
		{EventID: "1", Type: "START", Message: "reflow process started"},
		{EventID: "2", Type: "STOP", Message: "reflow process stopped"},
	}}
	s := testService(&mockConnector{}, &mockCommander{}, &mockMonitoring{}, &mockProfiles{}, ev)
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/events?from=2026-08-01&to=2026-08-29&type=start", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}

	if ev.listCalls != 1 {
		t.Fatalf("List calls=%d", ev.listCalls)
	}
	f := ev.lastFilter
	if f.Type != "START" {
		t.Fatalf("type not normalized: %q", f.Type)
	}
	if f.From != time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("unexpected from: %v", f.From)
	}
	// Date-only upper bound includes the whole day.
	if f.To.Before(time.Date(2026, 8, 29, 23, 59, 59, 0, time.UTC)) {
		t.Fatalf("date-only 'to' must cover end of day, got %v", f.To)
	}

	var resp struct {
		Count  int                    `json:"count"`
		Events []models.SessionEvent `json:"events"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 2 || len(resp.Events) != 2 || resp.Events[0].EventID != "1" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestGetEvents_AcceptsRFC3339(t *testing.T) {
	ev := &mockEvents{}
	s := testService(&mockConnector{}, &mockCommander{}, &mockMonitoring{}, &mockProfiles{}, ev)
	r := newTestRouter(s)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/events?from=2026-08-29T10:00:00Z", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}
	if ev.lastFilter.From != time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC) {
		t.Fatalf("unexpected from: %v", ev.lastFilter.From)
	}
}

func TestGetEvents_RejectsBadQueries(t *testing.T) {
	ev := &mockEvents{}
	s := testService(&mockConnector{}, &mockCommander{}, &mockMonitoring{}, &mockProfiles{}, ev)
	r := newTestRouter(s)

	for _, q := range []string{
		"?from=yesterday",
		"?to=28-08-2026",
		"?from=2026-08-29&to=2026-08-01",
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/events"+q, nil)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", q, w.Code)
		}
	}
	if ev.listCalls != 0 {
		t.Fatalf("bad queries must not reach the service")
	}
}
