package main

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"
)

func newTestManifest(records []RawBooking) *Manifest {
	m := &Manifest{
		inflight: make(map[string]struct{}),
		timeout:  time.Second,
	}
	m.fetch = func(ctx context.Context) ([]RawBooking, error) {
		return records, nil
	}
	m.setStatus = func(ctx context.Context, id, status string) error { return nil }
	m.remove = func(ctx context.Context, id string) error { return nil }
	return m
}

func TestManifestLoadSortsNewestFirst(t *testing.T) {
	m := newTestManifest([]RawBooking{
		{"id": "old", "createdAt": "2025-01-01T00:00:00Z"},
		{"id": "new", "createdAt": "2025-06-01T00:00:00Z"},
		{"id": "mid", "createdAt": "2025-03-01T00:00:00Z"},
	})

	records, err := m.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	got := []string{}
	for _, r := range records {
		got = append(got, rawBookingID(r))
	}
	want := []string{"new", "mid", "old"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestManifestSetStatusOptimistic(t *testing.T) {
	m := newTestManifest([]RawBooking{
		{"id": "b1", "status": "pending", "customerName": "Asha"},
	})
	if _, err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	booking, err := m.SetStatus(context.Background(), "b1", statusConfirmed)
	if err != nil {
		t.Fatalf("SetStatus() error = %v", err)
	}
	if booking.Status != statusConfirmed {
		t.Errorf("returned status = %q, want confirmed", booking.Status)
	}

	snapshot := m.Snapshot()
	if snapshot[0]["status"] != statusConfirmed {
		t.Errorf("snapshot status = %v, want confirmed", snapshot[0]["status"])
	}
}

func TestManifestSetStatusRollbackIsExact(t *testing.T) {
	original := []RawBooking{
		{"id": "b1", "status": "pending", "customerName": "Asha", "amount": 500.0},
		{"id": "b2", "status": "confirmed", "createdAt": "2020-01-01T00:00:00Z"},
	}
	m := newTestManifest(original)
	if _, err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	before := m.Snapshot()

	m.setStatus = func(ctx context.Context, id, status string) error {
		return errors.New("backend down")
	}

	if _, err := m.SetStatus(context.Background(), "b1", statusConfirmed); err == nil {
		t.Fatal("SetStatus() expected error")
	}

	after := m.Snapshot()
	if !reflect.DeepEqual(before, after) {
		t.Errorf("rollback not exact:\nbefore = %v\nafter  = %v", before, after)
	}
}

func TestManifestDeleteRollback(t *testing.T) {
	m := newTestManifest([]RawBooking{
		{"id": "b1", "createdAt": "2025-05-01T00:00:00Z"},
		{"id": "b2", "createdAt": "2025-04-01T00:00:00Z"},
	})
	if _, err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	before := m.Snapshot()

	m.remove = func(ctx context.Context, id string) error {
		return errors.New("backend down")
	}

	if err := m.Delete(context.Background(), "b2"); err == nil {
		t.Fatal("Delete() expected error")
	}
	if !reflect.DeepEqual(before, m.Snapshot()) {
		t.Error("failed delete must restore the prior snapshot")
	}
}

func TestManifestDeleteRemovesRecord(t *testing.T) {
	m := newTestManifest([]RawBooking{
		{"id": "b1"},
		{"id": "b2"},
	})
	if _, err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if err := m.Delete(context.Background(), "b1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	snapshot := m.Snapshot()
	if len(snapshot) != 1 || rawBookingID(snapshot[0]) != "b2" {
		t.Errorf("snapshot = %v, want only b2", snapshot)
	}
}

func TestManifestSetStatusValidation(t *testing.T) {
	m := newTestManifest([]RawBooking{{"id": "b1"}})
	if _, err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	_, err := m.SetStatus(context.Background(), "b1", "paid")
	var apiErr *apiError
	if !errors.As(err, &apiErr) || apiErr.Code != "invalid_status" {
		t.Errorf("err = %v, want invalid_status apiError", err)
	}

	_, err = m.SetStatus(context.Background(), "nope", statusConfirmed)
	if !errors.As(err, &apiErr) || apiErr.Code != "booking_not_found" {
		t.Errorf("err = %v, want booking_not_found apiError", err)
	}
}

func TestManifestRejectsConcurrentMutationOnSameID(t *testing.T) {
	m := newTestManifest([]RawBooking{{"id": "b1", "status": "pending"}})
	if _, err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	release := make(chan struct{})
	started := make(chan struct{})
	var startOnce sync.Once
	m.setStatus = func(ctx context.Context, id, status string) error {
		startOnce.Do(func() { close(started) })
		<-release
		return nil
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := m.SetStatus(context.Background(), "b1", statusConfirmed); err != nil {
			t.Errorf("first SetStatus() error = %v", err)
		}
	}()

	<-started
	_, err := m.SetStatus(context.Background(), "b1", statusCancelled)
	var apiErr *apiError
	if !errors.As(err, &apiErr) || apiErr.Code != "mutation_in_flight" {
		t.Errorf("second mutation err = %v, want mutation_in_flight", err)
	}

	close(release)
	wg.Wait()

	// The id is free again once the first mutation finishes.
	if _, err := m.SetStatus(context.Background(), "b1", statusCancelled); err != nil {
		t.Errorf("post-flight SetStatus() error = %v", err)
	}
}

func TestManifestMutationTimeout(t *testing.T) {
	m := newTestManifest([]RawBooking{{"id": "b1", "status": "pending"}})
	m.timeout = 20 * time.Millisecond
	if _, err := m.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	before := m.Snapshot()

	m.setStatus = func(ctx context.Context, id, status string) error {
		select {
		case <-ctx.Done():
			return fmt.Errorf("status update: %w", ctx.Err())
		case <-time.After(time.Second):
			return nil
		}
	}

	if _, err := m.SetStatus(context.Background(), "b1", statusConfirmed); err == nil {
		t.Fatal("SetStatus() expected timeout error")
	}
	if !reflect.DeepEqual(before, m.Snapshot()) {
		t.Error("timed-out mutation must roll back")
	}
}
