// Package model defines login event entities used by the queue reader, masker and repositories.
package model

import "time"

// RawLoginEvent is one decoded queue message body. IP and DeviceID are sensitive.
type RawLoginEvent struct {
	UserID     string `json:"user_id"`
	AppVersion string `json:"app_version"`
	DeviceType string `json:"device_type"`
	IP         string `json:"ip"`        // dotted quad, octets 0..255
	DeviceID   string `json:"device_id"` // hyphen-delimited decimal groups
	Locale     string `json:"locale"`
}

// Batch is everything returned by one queue fetch.
type Batch struct {
	Events     []RawLoginEvent
	CreateDate time.Time // date of processing, shared by the whole batch
	Receipts   []string  // queue receipt handles, acknowledged after a successful load
}

// MaskedLoginRecord is a RawLoginEvent with IP and DeviceID replaced by masked values.
type MaskedLoginRecord struct {
	UserID         string
	AppVersion     string
	DeviceType     string
	Locale         string
	CreateDate     time.Time
	MaskedIP       string
	MaskedDeviceID string
}

// MaskedColumns is the column order of a MaskedLoginRecord in user_logins.
var MaskedColumns = []string{
	"user_id",
	"app_version",
	"device_type",
	"locale",
	"create_date",
	"masked_ip",
	"masked_device_id",
}

// Values returns the record fields in MaskedColumns order.
func (r MaskedLoginRecord) Values() []any {
	return []any{
		r.UserID,
		r.AppVersion,
		r.DeviceType,
		r.Locale,
		r.CreateDate,
		r.MaskedIP,
		r.MaskedDeviceID,
	}
}

// Date returns the calendar date of t in t's own location (time.Now gives the
// host's local date), expressed as midnight UTC so the stored day never shifts.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
