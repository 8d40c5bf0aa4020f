// Package mask implements the reversible, format-preserving masking of login events.
//
// Every numeric component c of a field is replaced by max-c, which makes the
// transform its own inverse and keeps distinct inputs distinct.
package mask

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/and161185/login-etl/internal/errs"
	"github.com/and161185/login-etl/internal/model"
)

const (
	octetMax    = 255
	deviceIDMax = 10000
	ipOctets    = 4
)

// IP masks a dotted-quad address octet by octet (255-octet).
func IP(ip string) (string, error) {
	parts := strings.Split(ip, ".")
	if len(parts) != ipOctets {
		return "", fmt.Errorf("ip %q: want %d octets, got %d: %w", ip, ipOctets, len(parts), errs.ErrMaskFormat)
	}
	out, err := complement(parts, octetMax)
	if err != nil {
		return "", fmt.Errorf("ip %q: %w", ip, err)
	}
	return strings.Join(out, "."), nil
}

// DeviceID masks a hyphen-delimited device id group by group (10000-group).
func DeviceID(id string) (string, error) {
	out, err := complement(strings.Split(id, "-"), deviceIDMax)
	if err != nil {
		return "", fmt.Errorf("device_id %q: %w", id, err)
	}
	return strings.Join(out, "-"), nil
}

// Records masks a whole batch. Either every record is masked or nil is returned.
func Records(events []model.RawLoginEvent, createDate time.Time) ([]model.MaskedLoginRecord, error) {
	out := make([]model.MaskedLoginRecord, 0, len(events))
	for i, ev := range events {
		ip, err := IP(ev.IP)
		if err != nil {
			return nil, fmt.Errorf("record[%d]: %w", i, err)
		}
		dev, err := DeviceID(ev.DeviceID)
		if err != nil {
			return nil, fmt.Errorf("record[%d]: %w", i, err)
		}
		out = append(out, model.MaskedLoginRecord{
			UserID:         ev.UserID,
			AppVersion:     ev.AppVersion,
			DeviceType:     ev.DeviceType,
			Locale:         ev.Locale,
			CreateDate:     createDate,
			MaskedIP:       ip,
			MaskedDeviceID: dev,
		})
	}
	return out, nil
}

// complement maps each component c in [0,limit] to limit-c.
func complement(parts []string, limit int) ([]string, error) {
	out := make([]string, len(parts))
	for i, p := range parts {
		if !canonical(p) {
			return nil, fmt.Errorf("component[%d] %q not a plain decimal: %w", i, p, errs.ErrMaskFormat)
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("component[%d] %q not an integer: %w", i, p, errs.ErrMaskFormat)
		}
		if n < 0 || n > limit {
			return nil, fmt.Errorf("component[%d] %d outside [0,%d]: %w", i, n, limit, errs.ErrMaskFormat)
		}
		out[i] = strconv.Itoa(limit - n)
	}
	return out, nil
}

// canonical accepts unsigned decimals without leading zeros, so every value has
// exactly one spelling and masking stays injective.
func canonical(p string) bool {
	if p == "" || (len(p) > 1 && p[0] == '0') {
		return false
	}
	for i := 0; i < len(p); i++ {
		if p[i] < '0' || p[i] > '9' {
			return false
		}
	}
	return true
}
