package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// TourBackendClient talks to the REST backend that owns bookings, trips,
// users and blog posts. The console never stores those records itself; it
// reads collections and issues mutations, attaching the opaque bearer
// credential to every call.
type TourBackendClient struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// BackendUser is the slice of the backend's user record the console needs.
type BackendUser struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Disabled    bool   `json:"disabled"`
	CreatedAt   string `json:"createdAt"`
	LastLoginAt string `json:"lastLoginAt"`
}

type UserPage struct {
	Users         []BackendUser `json:"users"`
	NextPageToken string        `json:"nextPageToken"`
}

func (b *TourBackendClient) ListBookings(ctx context.Context) ([]RawBooking, error) {
	var records []RawBooking
	if err := b.do(ctx, http.MethodGet, "/bookings/all", nil, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []RawBooking{}
	}
	return records, nil
}

func (b *TourBackendClient) UpdateBookingStatus(ctx context.Context, id, status string) error {
	payload := map[string]string{"status": status}
	return b.do(ctx, http.MethodPut, "/bookings/status/"+url.PathEscape(id), payload, nil)
}

func (b *TourBackendClient) DeleteBooking(ctx context.Context, id string) error {
	return b.do(ctx, http.MethodDelete, "/bookings/"+url.PathEscape(id), nil, nil)
}

func (b *TourBackendClient) ListUsers(ctx context.Context, limit int, pageToken string) (*UserPage, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if pageToken != "" {
		query.Set("nextPageToken", pageToken)
	}
	path := "/users"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var page UserPage
	if err := b.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, err
	}
	if page.Users == nil {
		page.Users = []BackendUser{}
	}
	return &page, nil
}

// CountUsers returns the size of the full user collection. Older backend
// deployments answer GET /users with a bare array, newer ones with a
// {users, nextPageToken} wrapper; both shapes are accepted.
func (b *TourBackendClient) CountUsers(ctx context.Context) (int, error) {
	var body json.RawMessage
	if err := b.do(ctx, http.MethodGet, "/users", nil, &body); err != nil {
		return 0, err
	}

	var plain []json.RawMessage
	if err := json.Unmarshal(body, &plain); err == nil {
		return len(plain), nil
	}

	var page UserPage
	if err := json.Unmarshal(body, &page); err == nil {
		return len(page.Users), nil
	}
	return 0, &apiError{Status: http.StatusBadGateway, Code: "upstream_error", Message: "Unrecognized users response shape"}
}

func (b *TourBackendClient) DeleteUser(ctx context.Context, uid string) error {
	return b.do(ctx, http.MethodDelete, "/users/delete/"+url.PathEscape(uid), nil, nil)
}

func (b *TourBackendClient) ListTrips(ctx context.Context) ([]map[string]any, error) {
	var trips []map[string]any
	if err := b.do(ctx, http.MethodGet, "/trips", nil, &trips); err != nil {
		return nil, err
	}
	if trips == nil {
		trips = []map[string]any{}
	}
	return trips, nil
}

func (b *TourBackendClient) CreateTrip(ctx context.Context, payload map[string]any) (map[string]any, error) {
	var created map[string]any
	if err := b.do(ctx, http.MethodPost, "/trips/create", payload, &created); err != nil {
		return nil, err
	}
	return created, nil
}

func (b *TourBackendClient) UpdateTrip(ctx context.Context, id string, payload map[string]any) (map[string]any, error) {
	var updated map[string]any
	if err := b.do(ctx, http.MethodPut, "/trips/update/"+url.PathEscape(id), payload, &updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (b *TourBackendClient) DeleteTrip(ctx context.Context, id string) error {
	return b.do(ctx, http.MethodDelete, "/trips/delete/"+url.PathEscape(id), nil, nil)
}

func (b *TourBackendClient) ListBlogs(ctx context.Context) ([]map[string]any, error) {
	var posts []map[string]any
	if err := b.do(ctx, http.MethodGet, "/blogs", nil, &posts); err != nil {
		return nil, err
	}
	if posts == nil {
		posts = []map[string]any{}
	}
	return posts, nil
}

func (b *TourBackendClient) CreateBlog(ctx context.Context, payload map[string]any) (map[string]any, error) {
	var created map[string]any
	if err := b.do(ctx, http.MethodPost, "/blogs/add", payload, &created); err != nil {
		return nil, err
	}
	return created, nil
}

func (b *TourBackendClient) DeleteBlog(ctx context.Context, id string) error {
	return b.do(ctx, http.MethodDelete, "/blogs/"+url.PathEscape(id), nil, nil)
}

// do issues one backend request and maps failures onto the console's error
// envelope: 4xx responses pass their status through, everything else at the
// transport level surfaces as 502 so read paths can degrade instead of crash.
func (b *TourBackendClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.Token != "" {
		req.Header.Set("Authorization", "Bearer "+b.Token)
	}

	resp, err := b.Client.Do(req)
	if err != nil {
		return &apiError{Status: http.StatusBadGateway, Code: "upstream_unavailable", Message: fmt.Sprintf("Backend unreachable: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return &apiError{Status: http.StatusBadGateway, Code: "upstream_error", Message: fmt.Sprintf("Backend %s %s returned %d", method, path, resp.StatusCode)}
	}
	if resp.StatusCode >= 400 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		message := fmt.Sprintf("Backend %s %s returned %d", method, path, resp.StatusCode)
		if len(payload) > 0 {
			message = fmt.Sprintf("%s: %s", message, string(payload))
		}
		return &apiError{Status: resp.StatusCode, Code: "upstream_rejected", Message: message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if err == io.EOF {
			return nil
		}
		return &apiError{Status: http.StatusBadGateway, Code: "upstream_error", Message: fmt.Sprintf("Backend %s %s returned malformed JSON: %v", method, path, err)}
	}
	return nil
}
