package main

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Manifest holds the in-memory booking collection the console renders from.
// Mutations are optimistic: a patched snapshot replaces the current one
// before the backend call goes out, and the exact prior snapshot is restored
// verbatim when the call fails. Snapshots are copy-on-write; a record map is
// never mutated in place, which is what makes rollback trivial.
type Manifest struct {
	mu       sync.Mutex
	records  []RawBooking
	inflight map[string]struct{}

	fetch     func(ctx context.Context) ([]RawBooking, error)
	setStatus func(ctx context.Context, id, status string) error
	remove    func(ctx context.Context, id string) error
	timeout   time.Duration
}

func newManifest(backend *TourBackendClient, timeout time.Duration) *Manifest {
	return &Manifest{
		inflight:  make(map[string]struct{}),
		fetch:     backend.ListBookings,
		setStatus: backend.UpdateBookingStatus,
		remove:    backend.DeleteBooking,
		timeout:   timeout,
	}
}

// Load refetches the full collection from the backend, sorts it newest first
// and replaces the current snapshot.
func (m *Manifest) Load(ctx context.Context) ([]RawBooking, error) {
	records, err := m.fetch(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return resolveCreatedAt(records[i]).After(resolveCreatedAt(records[j]))
	})

	m.mu.Lock()
	m.records = records
	m.mu.Unlock()
	return append([]RawBooking{}, records...), nil
}

// Snapshot returns the collection as of the last load or mutation.
func (m *Manifest) Snapshot() []RawBooking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RawBooking{}, m.records...)
}

// SetStatus patches the named booking locally, then issues the backend
// mutation under a bounded timeout. A failure restores the pre-mutation
// snapshot. A second mutation on the same id while one is in flight is
// rejected rather than raced.
func (m *Manifest) SetStatus(ctx context.Context, id, newStatus string) (*Booking, error) {
	if !containsString(bookingStatuses, newStatus) {
		return nil, &apiError{Status: http.StatusBadRequest, Code: "invalid_status", Message: fmt.Sprintf("Unknown status %q", newStatus)}
	}

	snapshot, err := m.beginMutation(id, func(records []RawBooking) ([]RawBooking, bool) {
		return patchBookingStatus(records, id, newStatus)
	})
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if err := m.finishMutation(id, snapshot, m.setStatus(callCtx, id, newStatus)); err != nil {
		return nil, err
	}

	for _, record := range m.Snapshot() {
		if rawBookingID(record) == id {
			booking := normalizeBooking(record)
			return &booking, nil
		}
	}
	return nil, &apiError{Status: http.StatusNotFound, Code: "booking_not_found", Message: "Booking not found"}
}

// Delete removes the named booking locally, then issues the backend deletion,
// rolling back on failure.
func (m *Manifest) Delete(ctx context.Context, id string) error {
	snapshot, err := m.beginMutation(id, func(records []RawBooking) ([]RawBooking, bool) {
		return dropBooking(records, id)
	})
	if err != nil {
		return err
	}

	callCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return m.finishMutation(id, snapshot, m.remove(callCtx, id))
}

// beginMutation applies the optimistic patch under the lock and returns the
// pre-mutation snapshot to restore on failure.
func (m *Manifest) beginMutation(id string, patch func([]RawBooking) ([]RawBooking, bool)) ([]RawBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, busy := m.inflight[id]; busy {
		return nil, &apiError{Status: http.StatusConflict, Code: "mutation_in_flight", Message: "Another update for this booking is still in flight"}
	}

	patched, found := patch(m.records)
	if !found {
		return nil, &apiError{Status: http.StatusNotFound, Code: "booking_not_found", Message: "Booking not found"}
	}

	snapshot := m.records
	m.records = patched
	m.inflight[id] = struct{}{}
	return snapshot, nil
}

func (m *Manifest) finishMutation(id string, snapshot []RawBooking, err error) error {
	m.mu.Lock()
	delete(m.inflight, id)
	if err != nil {
		m.records = snapshot
	}
	m.mu.Unlock()
	return err
}

func rawBookingID(raw RawBooking) string {
	if id := firstString(raw, idKeys...); id != "" {
		return id
	}
	return placeholderBookingID(raw)
}

// patchBookingStatus returns a new slice with the matching record replaced by
// a shallow clone carrying the new status. The input slice and its records
// are left untouched.
func patchBookingStatus(records []RawBooking, id, newStatus string) ([]RawBooking, bool) {
	patched := make([]RawBooking, len(records))
	found := false
	for i, record := range records {
		if !found && rawBookingID(record) == id {
			clone := make(RawBooking, len(record)+1)
			for key, value := range record {
				clone[key] = value
			}
			clone["status"] = newStatus
			patched[i] = clone
			found = true
			continue
		}
		patched[i] = record
	}
	return patched, found
}

func dropBooking(records []RawBooking, id string) ([]RawBooking, bool) {
	patched := make([]RawBooking, 0, len(records))
	found := false
	for _, record := range records {
		if !found && rawBookingID(record) == id {
			found = true
			continue
		}
		patched = append(patched, record)
	}
	return patched, found
}
