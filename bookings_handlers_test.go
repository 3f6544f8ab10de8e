package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newConsoleTestServer(t *testing.T) (*App, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := &App{
		cfg: &Config{
			Env:              "test",
			AppSigningSecret: "0123456789abcdef",
			MutationTimeout:  time.Second,
		},
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	app.manifest = &Manifest{
		inflight: make(map[string]struct{}),
		timeout:  time.Second,
	}
	app.manifest.fetch = func(ctx context.Context) ([]RawBooking, error) {
		return []RawBooking{}, nil
	}
	app.manifest.setStatus = func(ctx context.Context, id, status string) error { return nil }
	app.manifest.remove = func(ctx context.Context, id string) error { return nil }

	return app, app.buildRouter()
}

func authenticatedRequest(t *testing.T, app *App, method, target, body string) *http.Request {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("content-type", "application/json")
	}
	token, err := app.createAdminSessionToken(AdminSession{Email: "admin@ddtours.com"})
	if err != nil {
		t.Fatalf("create session token: %v", err)
	}
	req.AddCookie(&http.Cookie{Name: adminCookieName, Value: token, Path: "/"})
	return req
}

func TestListBookingsHandlerNormalizes(t *testing.T) {
	app, router := newConsoleTestServer(t)
	app.manifest.fetch = func(ctx context.Context) ([]RawBooking, error) {
		return []RawBooking{
			{"_id": "b1", "userDetails": map[string]any{"name": "Asha Verma"}, "totalAmount": 500.0, "status": "confirmed", "createdAt": "2025-06-01T00:00:00Z"},
			{"customerName": "Ravi", "tripTitle": "Goa Beach Escape"},
		}, nil
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authenticatedRequest(t, app, http.MethodGet, "/api/v1/bookings", ""))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Asha Verma")
	assert.Contains(t, w.Body.String(), "Goa Beach Escape")
	assert.Contains(t, w.Body.String(), `"total":2`)
	assert.Contains(t, w.Body.String(), placeholderPrefix)
}

func TestListBookingsHandlerFilters(t *testing.T) {
	app, router := newConsoleTestServer(t)
	app.manifest.fetch = func(ctx context.Context) ([]RawBooking, error) {
		return []RawBooking{
			{"id": "b1", "customerName": "Asha", "status": "confirmed"},
			{"id": "b2", "customerName": "Ravi", "status": "pending"},
			{"id": "b3", "customerName": "Asha Verma", "status": "pending"},
		}, nil
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authenticatedRequest(t, app, http.MethodGet, "/api/v1/bookings?q=asha&status=pending", ""))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)
	assert.Contains(t, w.Body.String(), "b3")
	assert.NotContains(t, w.Body.String(), `"id":"b1"`)
}

func TestListBookingsHandlerRequiresSession(t *testing.T) {
	_, router := newConsoleTestServer(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/bookings", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBookingStatsHandler(t *testing.T) {
	app, router := newConsoleTestServer(t)
	app.manifest.fetch = func(ctx context.Context) ([]RawBooking, error) {
		return []RawBooking{
			{"id": "b1", "status": "confirmed", "amount": 100.0},
			{"id": "b2", "status": "confirmed", "amount": 75.0},
			{"id": "b3", "status": "pending", "amount": 500.0},
		}, nil
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authenticatedRequest(t, app, http.MethodGet, "/api/v1/bookings/stats", ""))

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 175.0, body["totalRevenue"])
	assert.Equal(t, 3.0, body["totalBookings"])
	assert.Equal(t, 1.0, body["pendingBookings"])
	assert.Equal(t, 2.0, body["confirmedBookings"])
}

func TestUpdateBookingStatusHandler(t *testing.T) {
	app, router := newConsoleTestServer(t)
	app.manifest.fetch = func(ctx context.Context) ([]RawBooking, error) {
		return []RawBooking{{"id": "b1", "status": "pending", "customerName": "Asha"}}, nil
	}

	var calledID, calledStatus string
	app.manifest.setStatus = func(ctx context.Context, id, status string) error {
		calledID = id
		calledStatus = status
		return nil
	}
	notified := make(chan Booking, 1)
	app.notifyStatusChange = func(booking Booking, newStatus string) {
		notified <- booking
	}

	if _, err := app.manifest.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authenticatedRequest(t, app, http.MethodPut, "/api/v1/bookings/status/b1", `{"status":"confirmed"}`))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "b1", calledID)
	assert.Equal(t, "confirmed", calledStatus)
	assert.Contains(t, w.Body.String(), `"status":"confirmed"`)

	select {
	case booking := <-notified:
		assert.Equal(t, "b1", booking.ID)
	case <-time.After(time.Second):
		t.Fatal("notification hook was not invoked")
	}
}

func TestUpdateBookingStatusHandlerInvalidStatus(t *testing.T) {
	app, router := newConsoleTestServer(t)
	app.manifest.fetch = func(ctx context.Context) ([]RawBooking, error) {
		return []RawBooking{{"id": "b1", "status": "pending"}}, nil
	}
	if _, err := app.manifest.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authenticatedRequest(t, app, http.MethodPut, "/api/v1/bookings/status/b1", `{"status":"paid"}`))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_status")
}

func TestDeleteBookingHandlerNotFound(t *testing.T) {
	app, router := newConsoleTestServer(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authenticatedRequest(t, app, http.MethodDelete, "/api/v1/bookings/missing", ""))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "booking_not_found")
}

func TestExportBookingsCSVHandler(t *testing.T) {
	app, router := newConsoleTestServer(t)
	app.manifest.fetch = func(ctx context.Context) ([]RawBooking, error) {
		return []RawBooking{
			{"id": "b1", "customerName": `Asha "AV" Verma`, "tripTitle": "Goa, Beach", "amount": 500.0, "status": "confirmed"},
		}, nil
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, authenticatedRequest(t, app, http.MethodGet, "/api/v1/bookings/export", ""))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "dd_tours_manifest_")

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Equal(t, "ID,Customer,Phone,Trip,Date,Amount,Status,Payment ID", lines[0])
	// fields with commas and quotes come back escaped
	assert.Contains(t, lines[1], `"Asha ""AV"" Verma"`)
	assert.Contains(t, lines[1], `"Goa, Beach"`)
}
