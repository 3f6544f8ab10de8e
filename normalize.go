package main

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// RawBooking is a booking record exactly as the backend returned it. The
// collection mixes several schema generations, so no field can be assumed
// present or consistently named.
type RawBooking map[string]any

const (
	statusPending   = "pending"
	statusConfirmed = "confirmed"
	statusCancelled = "cancelled"
)

var bookingStatuses = []string{statusPending, statusConfirmed, statusCancelled}

const (
	unknownUser       = "Unknown User"
	unknownTrip       = "Unknown Trip"
	notAvailable      = "N/A"
	paymentOnline     = "Online (Razorpay)"
	paymentOnArrival  = "Pay on Arrival"
	paymentIDPending  = "Pending / Cash"
	orderIDNone       = "-"
	gatewayManual     = "Manual"
	dateDisplayTBD    = "TBD"
	placeholderPrefix = "unidentified-"
)

// Booking is the canonical view model the rest of the console operates on.
// Every string field is sentinel-filled, so downstream display and filtering
// never have to null-check.
type Booking struct {
	ID            string     `json:"id"`
	CustomerName  string     `json:"customerName"`
	Phone         string     `json:"phone"`
	Email         string     `json:"email"`
	Address       string     `json:"address"`
	Aadhar        string     `json:"aadhar"`
	TripTitle     string     `json:"tripTitle"`
	Date          time.Time  `json:"date"`
	Seats         int        `json:"seats"`
	Amount        float64    `json:"amount"`
	Status        string     `json:"status"`
	PaymentMethod string     `json:"paymentMethod"`
	PaymentID     string     `json:"paymentId"`
	OrderID       string     `json:"orderId"`
	Gateway       string     `json:"gateway"`
	OriginalData  RawBooking `json:"originalData,omitempty"`
}

// Each logical field resolves through a fixed priority chain of candidate
// keys; the first present, non-empty value wins. Dotted paths descend into
// nested objects (userDetails). The canonical key leads each chain so that
// normalizing an already-canonical record resolves to the same values.
var (
	idKeys        = []string{"id", "_id"}
	nameKeys      = []string{"customerName", "userDetails.name", "userDetails.fullName"}
	phoneKeys     = []string{"phone", "userDetails.phone"}
	emailKeys     = []string{"email", "userDetails.email"}
	addressKeys   = []string{"address", "userDetails.address"}
	aadharKeys    = []string{"aadhar", "userDetails.aadhar", "userDetails.aadharNo"}
	dateKeys      = []string{"bookingDate", "tripDate", "createdAt", "date"}
	amountKeys    = []string{"amount", "totalAmount", "totalPrice", "amountPaid"}
	createdAtKeys = []string{"createdAt", "bookingDate", "tripDate", "date"}
)

// normalizeBooking maps one raw record to its canonical form. It is total:
// any record shape, including an empty object, produces a usable Booking.
// Missing data degrades to sentinel values, never to an error.
func normalizeBooking(raw RawBooking) Booking {
	status := firstString(raw, "status")
	if !containsString(bookingStatuses, status) {
		status = statusPending
	}

	id := firstString(raw, idKeys...)
	if id == "" {
		id = placeholderBookingID(raw)
	}

	return Booking{
		ID:            id,
		CustomerName:  stringOrDefault(firstString(raw, nameKeys...), unknownUser),
		Phone:         stringOrDefault(firstString(raw, phoneKeys...), notAvailable),
		Email:         stringOrDefault(firstString(raw, emailKeys...), notAvailable),
		Address:       stringOrDefault(firstString(raw, addressKeys...), notAvailable),
		Aadhar:        stringOrDefault(firstString(raw, aadharKeys...), notAvailable),
		TripTitle:     stringOrDefault(firstString(raw, "tripTitle"), unknownTrip),
		Date:          resolveEffectiveDate(raw),
		Seats:         resolveSeats(raw),
		Amount:        resolveAmount(raw),
		Status:        status,
		PaymentMethod: resolvePaymentMethod(raw),
		PaymentID:     stringOrDefault(firstString(raw, "paymentId"), paymentIDPending),
		OrderID:       stringOrDefault(firstString(raw, "orderId"), orderIDNone),
		Gateway:       stringOrDefault(firstString(raw, "gateway"), gatewayManual),
		OriginalData:  raw,
	}
}

func normalizeBookings(raws []RawBooking) []Booking {
	bookings := make([]Booking, 0, len(raws))
	for _, raw := range raws {
		bookings = append(bookings, normalizeBooking(raw))
	}
	return bookings
}

// resolvePaymentMethod keeps the literal "online" mapping of the backend and
// passes any other explicit method through untouched, so re-normalizing a
// canonical record does not degrade "Online (Razorpay)" to the default.
func resolvePaymentMethod(raw RawBooking) string {
	method := firstString(raw, "paymentMethod")
	switch {
	case method == "online":
		return paymentOnline
	case method != "":
		return method
	}
	return stringOrDefault(firstString(raw, "userDetails.paymentMethod"), paymentOnArrival)
}

// resolveEffectiveDate picks the first present temporal field and parses it.
// An unparsable or absent date yields the zero time; display layers render
// that as "TBD" rather than failing.
func resolveEffectiveDate(raw RawBooking) time.Time {
	for _, key := range dateKeys {
		value, ok := rawValue(raw, key)
		if !ok || isEmptyValue(value) {
			continue
		}
		return parseFlexibleTime(value)
	}
	return time.Time{}
}

// resolveCreatedAt orders the activity feed: createdAt when present, the
// effective date otherwise.
func resolveCreatedAt(raw RawBooking) time.Time {
	for _, key := range createdAtKeys {
		value, ok := rawValue(raw, key)
		if !ok || isEmptyValue(value) {
			continue
		}
		if parsed := parseFlexibleTime(value); !parsed.IsZero() {
			return parsed
		}
	}
	return time.Time{}
}

// resolveAmount mirrors the backend's loose truthiness: the first present,
// non-zero candidate wins even if it then fails to parse, in which case the
// whole amount coerces to 0.
func resolveAmount(raw RawBooking) float64 {
	for _, key := range amountKeys {
		value, ok := rawValue(raw, key)
		if !ok || isEmptyValue(value) {
			continue
		}
		amount := coerceNumber(value)
		if amount < 0 {
			return 0
		}
		return amount
	}
	return 0
}

func resolveSeats(raw RawBooking) int {
	value, ok := rawValue(raw, "seats")
	if !ok || isEmptyValue(value) {
		return 1
	}
	seats := int(coerceNumber(value))
	if seats < 1 {
		return 1
	}
	return seats
}

// placeholderBookingID derives a stable stand-in for records missing both
// id and _id, so repeated renders keep row identity for the same record.
func placeholderBookingID(raw RawBooking) string {
	encoded, _ := json.Marshal(raw)
	sum := sha256.Sum256(encoded)
	return placeholderPrefix + hex.EncodeToString(sum[:])[:12]
}

// rawValue walks a dotted path through nested objects. Returns false for
// missing keys, explicit nulls and non-object intermediates.
func rawValue(raw RawBooking, path string) (any, bool) {
	var current any = map[string]any(raw)
	for _, part := range strings.Split(path, ".") {
		object, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = object[part]
		if !ok {
			return nil, false
		}
	}
	if current == nil {
		return nil, false
	}
	return current, true
}

func firstString(raw RawBooking, paths ...string) string {
	for _, path := range paths {
		value, ok := rawValue(raw, path)
		if !ok {
			continue
		}
		switch v := value.(type) {
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				return trimmed
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

func isEmptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case float64:
		return v == 0
	case bool:
		return !v
	}
	return false
}

func coerceNumber(value any) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0
		}
		return parsed
	case string:
		cleaned := strings.TrimSpace(strings.TrimPrefix(v, "₹"))
		cleaned = strings.ReplaceAll(cleaned, ",", "")
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0
		}
		return parsed
	}
	return 0
}

var flexibleTimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
}

// parseFlexibleTime accepts the date shapes observed across schema
// generations: ISO strings with and without zones, date-only strings, epoch
// seconds or milliseconds, and Firestore-style {_seconds} objects.
func parseFlexibleTime(value any) time.Time {
	switch v := value.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		for _, layout := range flexibleTimeLayouts {
			if parsed, err := time.Parse(layout, trimmed); err == nil {
				return parsed.UTC()
			}
		}
	case float64:
		if v > 1e12 {
			return time.UnixMilli(int64(v)).UTC()
		}
		if v > 1e9 {
			return time.Unix(int64(v), 0).UTC()
		}
	case map[string]any:
		if seconds, ok := v["_seconds"].(float64); ok && seconds > 0 {
			return time.Unix(int64(seconds), 0).UTC()
		}
	case time.Time:
		return v.UTC()
	}
	return time.Time{}
}

// formatBookingDate renders the effective date for tables and CSV rows.
func formatBookingDate(t time.Time) string {
	if t.IsZero() {
		return dateDisplayTBD
	}
	return t.Format("02/01/2006")
}

func stringOrDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func containsString(list []string, value string) bool {
	for _, entry := range list {
		if entry == value {
			return true
		}
	}
	return false
}
